package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/guard"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/pipeline"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const (
	RevocationScheduled = "scheduled"
	RevocationSkipped   = "skipped"
)

type UserService struct {
	users       repository.Users
	revoker     identity.Revoker
	adminEmails []string
	adminUIDs   []string
	bcryptCost  int

	register   *pipeline.Chain[registration]
	remove     *pipeline.Chain[userRemoval]
	updateRole *enumFieldUpdate
}

type registration struct {
	req  *dto.RegisterRequest
	hash []byte
	user models.User
}

type userRemoval struct {
	rawID   string
	id      primitive.ObjectID
	user    *models.User
	deleted int64
}

func NewUserService(users repository.Users, revoker identity.Revoker, bg *pipeline.Background, cfg *config.Config) *UserService {
	s := &UserService{
		users:       users,
		revoker:     revoker,
		adminEmails: parseCSV(strings.ToLower(cfg.AdminEmails)),
		adminUIDs:   parseCSV(cfg.AdminUIDs),
		bcryptCost:  bcrypt.DefaultCost,
	}

	s.register = pipeline.First[registration]("register", pipeline.Validate, "required-fields", s.validateRegistration).
		Then(pipeline.Guard, "email-unique", s.checkEmailUnique).
		Then(pipeline.Store, "hash-password", s.hashPassword).
		Then(pipeline.Store, "insert-user", s.insertUser)

	s.remove = pipeline.First[userRemoval]("delete-user", pipeline.Guard, "key-format", func(_ context.Context, st *userRemoval) error {
		id, err := guard.Key(st.rawID, "user")
		st.id = id
		return err
	}).
		Then(pipeline.Guard, "exists", s.resolveUser).
		Then(pipeline.Store, "delete-user", s.deleteUser).
		ThenDetached(bg, "revoke-identity", s.revokeIdentity)

	s.updateRole = newEnumFieldUpdate("update-role", "user", "role", models.Roles, users)
	return s
}

func (s *UserService) Register(ctx context.Context, principal *identity.Principal, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if principal != nil && principal.UID != "" {
		req.UID = principal.UID
	}
	st := registration{req: req}
	if _, err := s.register.Run(ctx, &st); err != nil {
		return nil, err
	}
	return &dto.RegisterResponse{
		ID:          st.user.ID,
		Email:       st.user.Email,
		DisplayName: st.user.DisplayName,
		Role:        st.user.Role,
	}, nil
}

func (s *UserService) validateRegistration(_ context.Context, st *registration) error {
	st.req.Email = strings.ToLower(strings.TrimSpace(st.req.Email))
	st.req.DisplayName = strings.TrimSpace(st.req.DisplayName)
	return guard.Struct(st.req)
}

func (s *UserService) checkEmailUnique(ctx context.Context, st *registration) error {
	existing, err := s.users.FindOne(ctx, bson.M{"email": st.req.Email})
	if err != nil {
		return storeFailure(err, "")
	}
	return guard.Unique(existing, "User already exists")
}

func (s *UserService) hashPassword(_ context.Context, st *registration) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(st.req.Password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return apperr.Wrap(apperr.InvalidInput, "password must be at most 72 bytes", err)
	}
	if err != nil {
		return apperr.Wrap(apperr.InternalError, "Registration failed", fmt.Errorf("failed to hash password: %w", err))
	}
	st.hash = hash
	return nil
}

func (s *UserService) insertUser(ctx context.Context, st *registration) error {
	st.user = models.User{
		Name:        st.req.Name,
		DisplayName: st.req.DisplayName,
		Email:       st.req.Email,
		Password:    string(st.hash),
		Role:        models.RoleUser,
		PhotoURL:    st.req.PhotoURL,
		Number:      st.req.Number,
		UID:         st.req.UID,
		CreatedAt:   time.Now().UTC(),
	}
	id, err := s.users.InsertOne(ctx, &st.user)
	if err != nil {
		return storeFailure(err, "User already exists")
	}
	st.user.ID = id
	return nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.FindMany(ctx, bson.M{})
	if err != nil {
		return nil, storeFailure(err, "")
	}
	return users, nil
}

func (s *UserService) GetByDisplayName(ctx context.Context, displayName string) (*models.User, error) {
	user, err := s.users.FindOne(ctx, bson.M{"displayName": displayName})
	if err != nil {
		return nil, storeFailure(err, "")
	}
	return guard.Exists(user, "User not found")
}

// Delete removes the local record and then schedules revocation of the
// linked identity in the background. The local delete alone decides the
// outcome.
func (s *UserService) Delete(ctx context.Context, rawID string) (*dto.DeleteResult, error) {
	st := userRemoval{rawID: rawID}
	if _, err := s.remove.Run(ctx, &st); err != nil {
		return nil, err
	}
	res := &dto.DeleteResult{DeletedCount: st.deleted, IdentityRevocation: RevocationSkipped}
	if st.user.UID != "" && identity.Enabled(s.revoker) {
		res.IdentityRevocation = RevocationScheduled
	}
	return res, nil
}

func (s *UserService) resolveUser(ctx context.Context, st *userRemoval) error {
	user, err := s.users.FindOne(ctx, bson.M{"_id": st.id})
	if err != nil {
		return storeFailure(err, "")
	}
	st.user, err = guard.Exists(user, "User not found in database")
	return err
}

func (s *UserService) deleteUser(ctx context.Context, st *userRemoval) error {
	n, err := s.users.DeleteOne(ctx, st.id)
	if err != nil {
		return storeFailure(err, "")
	}
	if n == 0 {
		return apperr.New(apperr.NotFound, "User not found in database")
	}
	st.deleted = n
	return nil
}

func (s *UserService) revokeIdentity(ctx context.Context, st *userRemoval) error {
	if st.user.UID == "" {
		slog.InfoContext(ctx, "no external identity linked to deleted user", "user_id", st.id.Hex())
		return nil
	}
	if err := s.revoker.DeleteIdentity(ctx, st.user.UID); err != nil {
		return fmt.Errorf("revoke identity of user %s: %w", st.id.Hex(), err)
	}
	return nil
}

func (s *UserService) UpdateRole(ctx context.Context, rawID, role string) (*dto.UpdateResult, error) {
	return s.updateRole.run(ctx, rawID, role)
}

// RoleOf resolves the role of an authenticated caller. Bootstrap admins
// come from configuration; everyone else gets the role stored on the user
// linked by uid, falling back to email. Email only counts once the provider
// has verified it. Callers without a user record are plain users.
func (s *UserService) RoleOf(ctx context.Context, p *identity.Principal) (string, error) {
	var email string
	if p.EmailVerified {
		email = strings.ToLower(strings.TrimSpace(p.Email))
	}
	if slices.Contains(s.adminUIDs, p.UID) || (email != "" && slices.Contains(s.adminEmails, email)) {
		return models.RoleAdmin, nil
	}

	user, err := s.users.FindOne(ctx, bson.M{"uid": p.UID})
	if err == nil && user == nil && email != "" {
		user, err = s.users.FindOne(ctx, bson.M{"email": email})
	}
	if err != nil {
		return "", storeFailure(err, "")
	}
	if user == nil || user.Role == "" {
		return models.RoleUser, nil
	}
	return user.Role, nil
}

func parseCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
