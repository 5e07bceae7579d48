package services

import (
	"context"
	"strings"

	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/guard"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/pipeline"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fieldUpdater interface {
	UpdateField(ctx context.Context, id primitive.ObjectID, field string, value any) (repository.UpdateResult, error)
}

type fieldUpdate struct {
	rawID  string
	value  string
	id     primitive.ObjectID
	result repository.UpdateResult
}

// enumFieldUpdate sets one enumerated field of a document addressed by key.
// The update runs without a prior existence lookup; a key that matches
// nothing comes back as NotFound carrying the zero counts.
type enumFieldUpdate struct {
	chain    *pipeline.Chain[fieldUpdate]
	notFound string
}

func newEnumFieldUpdate(name, what, field string, allowed []string, store fieldUpdater) *enumFieldUpdate {
	chain := pipeline.First[fieldUpdate](name, pipeline.Guard, "key-format", func(_ context.Context, s *fieldUpdate) error {
		id, err := guard.Key(s.rawID, what)
		s.id = id
		return err
	}).
		Then(pipeline.Guard, "enum", func(_ context.Context, s *fieldUpdate) error {
			return guard.OneOf(s.value, allowed, field)
		}).
		Then(pipeline.Store, "update-field", func(ctx context.Context, s *fieldUpdate) error {
			res, err := store.UpdateField(ctx, s.id, field, s.value)
			if err != nil {
				return storeFailure(err, "")
			}
			s.result = res
			return nil
		})

	return &enumFieldUpdate{chain: chain, notFound: capitalize(what) + " not found"}
}

func (u *enumFieldUpdate) run(ctx context.Context, rawID, value string) (*dto.UpdateResult, error) {
	st := fieldUpdate{rawID: rawID, value: value}
	if _, err := u.chain.Run(ctx, &st); err != nil {
		return nil, err
	}
	out := &dto.UpdateResult{MatchedCount: st.result.Matched, ModifiedCount: st.result.Modified}
	if out.MatchedCount == 0 {
		return out, apperr.New(apperr.NotFound, u.notFound).WithData(out)
	}
	return out, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
