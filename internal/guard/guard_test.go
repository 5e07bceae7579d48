package guard

import (
	"testing"

	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		req     dto.RegisterRequest
		wantMsg string
	}{
		{"valid", dto.RegisterRequest{Email: "a@x.com", Password: "secret1"}, ""},
		{"missing email", dto.RegisterRequest{Password: "secret1"}, "email is required"},
		{"bad email", dto.RegisterRequest{Email: "not-an-email", Password: "secret1"}, "email must be a valid email address"},
		{"short password", dto.RegisterRequest{Email: "a@x.com", Password: "abc"}, "password must be at least 6 characters"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Struct(&tc.req)
			if tc.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
			var ae *apperr.Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tc.wantMsg, ae.Message)
		})
	}
}

func TestStruct_PostRequest(t *testing.T) {
	err := Struct(&dto.CreatePostRequest{Heading: "H1"})
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))

	err = Struct(&dto.CreatePostRequest{Heading: "H1", Category: "sports", ImageCount: -1})
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))

	assert.NoError(t, Struct(&dto.CreatePostRequest{Heading: "H1", Category: "sports"}))
}

func TestKey(t *testing.T) {
	id := primitive.NewObjectID()

	got, err := Key(id.Hex(), "user")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = Key("not-a-key", "user")
	assert.Equal(t, apperr.InvalidKey, apperr.KindOf(err))
	assert.ErrorIs(t, err, repository.ErrInvalidKey)
	assert.Contains(t, err.Error(), "Invalid user ID")
}

func TestOneOf(t *testing.T) {
	assert.NoError(t, OneOf("editor", models.Roles, "role"))
	assert.NoError(t, OneOf("height", models.PostStatuses, "status"))

	for _, v := range []string{"", "superuser", "Admin", "published"} {
		err := OneOf(v, models.Roles, "role")
		assert.Equal(t, apperr.InvalidEnum, apperr.KindOf(err), v)
	}
}

func TestExistsAndUnique(t *testing.T) {
	u := &models.User{Email: "a@x.com"}

	got, err := Exists(u, "User not found")
	require.NoError(t, err)
	assert.Same(t, u, got)

	_, err = Exists[models.User](nil, "User not found")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	assert.NoError(t, Unique[models.User](nil, "User already exists"))
	assert.Equal(t, apperr.Conflict, apperr.KindOf(Unique(u, "User already exists")))
}
