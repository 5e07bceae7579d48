package services

import (
	"context"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/guard"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/moderation"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/pipeline"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const duplicatePost = "This post already exists"

type PostService struct {
	posts    repository.Posts
	screener *moderation.Screener

	create       *pipeline.Chain[submission]
	remove       *pipeline.Chain[postRemoval]
	updateStatus *enumFieldUpdate
}

type submission struct {
	req       *dto.CreatePostRequest
	author    string
	screening string
	post      models.Post
}

type postRemoval struct {
	rawID   string
	id      primitive.ObjectID
	deleted int64
}

func NewPostService(posts repository.Posts, screener *moderation.Screener) *PostService {
	s := &PostService{posts: posts, screener: screener}

	s.create = pipeline.First[submission]("create-post", pipeline.Validate, "required-fields", func(_ context.Context, st *submission) error {
		st.req.Heading = strings.TrimSpace(st.req.Heading)
		st.req.Category = strings.TrimSpace(st.req.Category)
		return guard.Struct(st.req)
	}).
		Then(pipeline.Guard, "heading-unique", s.checkHeadingUnique).
		Then(pipeline.Guard, "screen-content", func(_ context.Context, st *submission) error {
			st.screening = s.screener.ScreenPost(st.req.Heading, st.req.PostDetail)
			return nil
		}).
		Then(pipeline.Store, "insert-post", s.insertPost)

	s.remove = pipeline.First[postRemoval]("delete-post", pipeline.Guard, "key-format", func(_ context.Context, st *postRemoval) error {
		id, err := guard.Key(st.rawID, "post")
		st.id = id
		return err
	}).
		Then(pipeline.Guard, "exists", s.resolvePost).
		Then(pipeline.Store, "delete-post", s.deletePost)

	s.updateStatus = newEnumFieldUpdate("update-post-status", "post", "status", models.PostStatuses, posts)
	return s
}

// Create stores a submission in holding status regardless of what the
// request asked for.
func (s *PostService) Create(ctx context.Context, principal *identity.Principal, req *dto.CreatePostRequest) (*dto.CreatePostResponse, error) {
	st := submission{req: req}
	if principal != nil {
		st.author = principal.UID
	}
	if _, err := s.create.Run(ctx, &st); err != nil {
		return nil, err
	}
	return &dto.CreatePostResponse{
		ID:        st.post.ID,
		Heading:   st.post.Heading,
		Status:    st.post.Status,
		Screening: st.post.Screening,
	}, nil
}

func (s *PostService) checkHeadingUnique(ctx context.Context, st *submission) error {
	existing, err := s.posts.FindOne(ctx, bson.M{"heading": st.req.Heading})
	if err != nil {
		return storeFailure(err, "")
	}
	return guard.Unique(existing, duplicatePost)
}

func (s *PostService) insertPost(ctx context.Context, st *submission) error {
	req := st.req
	images := req.Images
	if images == nil {
		images = []string{}
	}
	imageCount := req.ImageCount
	if imageCount == 0 {
		imageCount = len(images)
	}
	createdAt := time.Now().UTC()
	if req.CreatedAt != nil && !req.CreatedAt.IsZero() {
		createdAt = req.CreatedAt.UTC()
	}

	st.post = models.Post{
		Heading:     req.Heading,
		PostDetail:  req.PostDetail,
		Category:    req.Category,
		PostTime:    req.PostTime,
		Images:      images,
		ImageCount:  imageCount,
		Status:      models.StatusHolding,
		Screening:   st.screening,
		SubmittedBy: st.author,
		CreatedAt:   createdAt,
	}
	id, err := s.posts.InsertOne(ctx, &st.post)
	if err != nil {
		return storeFailure(err, duplicatePost)
	}
	st.post.ID = id
	return nil
}

func (s *PostService) List(ctx context.Context) ([]models.Post, error) {
	posts, err := s.posts.FindMany(ctx, bson.M{})
	if err != nil {
		return nil, storeFailure(err, "")
	}
	return posts, nil
}

// ListByCategory returns the published posts of a category. A category with
// nothing published is NotFound.
func (s *PostService) ListByCategory(ctx context.Context, category string) ([]models.Post, error) {
	posts, err := s.posts.FindMany(ctx, bson.M{"category": category, "status": models.StatusPost})
	if err != nil {
		return nil, storeFailure(err, "")
	}
	if len(posts) == 0 {
		return nil, apperr.New(apperr.NotFound, "No published posts in category "+category)
	}
	return posts, nil
}

// Get returns nil without error when no post has the key.
func (s *PostService) Get(ctx context.Context, rawID string) (*models.Post, error) {
	id, err := guard.Key(rawID, "post")
	if err != nil {
		return nil, err
	}
	post, err := s.posts.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, storeFailure(err, "")
	}
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, rawID string) (*dto.DeleteResult, error) {
	st := postRemoval{rawID: rawID}
	if _, err := s.remove.Run(ctx, &st); err != nil {
		return nil, err
	}
	return &dto.DeleteResult{DeletedCount: st.deleted}, nil
}

func (s *PostService) resolvePost(ctx context.Context, st *postRemoval) error {
	post, err := s.posts.FindOne(ctx, bson.M{"_id": st.id})
	if err != nil {
		return storeFailure(err, "")
	}
	_, err = guard.Exists(post, "Post not found")
	return err
}

func (s *PostService) deletePost(ctx context.Context, st *postRemoval) error {
	n, err := s.posts.DeleteOne(ctx, st.id)
	if err != nil {
		return storeFailure(err, "")
	}
	if n == 0 {
		return apperr.New(apperr.NotFound, "Post not found")
	}
	st.deleted = n
	return nil
}

func (s *PostService) UpdateStatus(ctx context.Context, rawID, status string) (*dto.UpdateResult, error) {
	return s.updateStatus.run(ctx, rawID, status)
}
