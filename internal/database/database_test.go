package database

import (
	"context"
	"testing"

	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestEnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	cfg := &config.Config{UsersCollection: "users", PostsCollection: "post"}

	mt.Run("creates both collections' indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())
		assert.NoError(t, EnsureIndexes(context.Background(), mt.DB, cfg))
	})

	mt.Run("conflicting existing index fails boot", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    85,
			Name:    "IndexOptionsConflict",
			Message: "Index with name: uniq_email already exists with different options",
		}))
		err := EnsureIndexes(context.Background(), mt.DB, cfg)
		assert.ErrorContains(t, err, "users indexes")
	})
}

func TestStore_Ping(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("ok", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		s := &Store{Client: mt.Client, DB: mt.DB}
		assert.NoError(t, s.Ping(context.Background()))
	})
}
