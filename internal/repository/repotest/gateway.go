// Package repotest provides an in-memory repository.Gateway for tests.
// Filters support top-level equality only, which is all the services use.
package repotest

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Gateway[T any] struct {
	mu     sync.Mutex
	docs   []bson.M
	unique []string
	err    error
}

// NewGateway returns an empty gateway enforcing uniqueness on the given bson fields.
func NewGateway[T any](uniqueFields ...string) *Gateway[T] {
	return &Gateway[T]{unique: uniqueFields}
}

var _ repository.Gateway[struct{}] = (*Gateway[struct{}])(nil)

// FailWith makes every following call return err; nil restores normal behavior.
func (g *Gateway[T]) FailWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

// Seed inserts documents bypassing uniqueness checks.
func (g *Gateway[T]) Seed(t testing.TB, docs ...*T) {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, d := range docs {
		m, err := toM(d)
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		g.docs = append(g.docs, m)
	}
}

func (g *Gateway[T]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.docs)
}

func (g *Gateway[T]) FindOne(_ context.Context, filter bson.M) (*T, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	for _, m := range g.docs {
		if matches(m, filter) {
			return fromM[T](m)
		}
	}
	return nil, nil
}

func (g *Gateway[T]) FindMany(_ context.Context, filter bson.M) ([]T, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	out := make([]T, 0)
	for _, m := range g.docs {
		if !matches(m, filter) {
			continue
		}
		doc, err := fromM[T](m)
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, nil
}

func (g *Gateway[T]) InsertOne(_ context.Context, doc *T) (primitive.ObjectID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return primitive.NilObjectID, g.err
	}
	m, err := toM(doc)
	if err != nil {
		return primitive.NilObjectID, err
	}
	for _, field := range g.unique {
		if m[field] == nil {
			continue
		}
		for _, existing := range g.docs {
			if reflect.DeepEqual(existing[field], m[field]) {
				return primitive.NilObjectID, fmt.Errorf("%w: %s", repository.ErrDuplicate, field)
			}
		}
	}
	id, ok := m["_id"].(primitive.ObjectID)
	if !ok {
		id = primitive.NewObjectID()
		m["_id"] = id
	}
	g.docs = append(g.docs, m)
	return id, nil
}

func (g *Gateway[T]) UpdateField(_ context.Context, id primitive.ObjectID, field string, value any) (repository.UpdateResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return repository.UpdateResult{}, g.err
	}
	for _, m := range g.docs {
		if m["_id"] != id {
			continue
		}
		res := repository.UpdateResult{Matched: 1}
		if !reflect.DeepEqual(m[field], value) {
			m[field] = value
			res.Modified = 1
		}
		return res, nil
	}
	return repository.UpdateResult{}, nil
}

func (g *Gateway[T]) DeleteOne(_ context.Context, id primitive.ObjectID) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return 0, g.err
	}
	for i, m := range g.docs {
		if m["_id"] == id {
			g.docs = append(g.docs[:i], g.docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func matches(doc, filter bson.M) bool {
	for k, v := range filter {
		if !reflect.DeepEqual(doc[k], v) {
			return false
		}
	}
	return true
}

func toM(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func fromM[T any](m bson.M) (*T, error) {
	raw, err := bson.Marshal(m)
	if err != nil {
		return nil, err
	}
	var doc T
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
