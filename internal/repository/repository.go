// Package repository is the typed gateway over the document store. Every
// call carries its own deadline; absence is reported as a nil result, never
// as an error.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrDuplicate   = errors.New("duplicate key")
	ErrInvalidKey  = errors.New("invalid key")
	ErrUnavailable = errors.New("store unavailable")
)

type UpdateResult struct {
	Matched  int64
	Modified int64
}

// Gateway is the set of single-document operations the services rely on.
type Gateway[T any] interface {
	FindOne(ctx context.Context, filter bson.M) (*T, error)
	FindMany(ctx context.Context, filter bson.M) ([]T, error)
	InsertOne(ctx context.Context, doc *T) (primitive.ObjectID, error)
	UpdateField(ctx context.Context, id primitive.ObjectID, field string, value any) (UpdateResult, error)
	DeleteOne(ctx context.Context, id primitive.ObjectID) (int64, error)
}

type (
	Users = Gateway[models.User]
	Posts = Gateway[models.Post]
)

var (
	_ Users = (*Collection[models.User])(nil)
	_ Posts = (*Collection[models.Post])(nil)
)

// ParseKey validates a store key before it reaches the driver.
func ParseKey(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidKey, raw)
	}
	return id, nil
}

type Collection[T any] struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewCollection[T any](db *mongo.Database, name string, timeout time.Duration) *Collection[T] {
	return &Collection[T]{coll: db.Collection(name), timeout: timeout}
}

func (c *Collection[T]) FindOne(ctx context.Context, filter bson.M) (*T, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var doc T
	err := c.coll.FindOne(ctx, nonNil(filter)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("find one", err)
	}
	return &doc, nil
}

func (c *Collection[T]) FindMany(ctx context.Context, filter bson.M) ([]T, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	cur, err := c.coll.Find(ctx, nonNil(filter))
	if err != nil {
		return nil, storeError("find", err)
	}
	defer cur.Close(ctx)

	docs := make([]T, 0)
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeError("decode cursor", err)
	}
	return docs, nil
}

// InsertOne relies on the collection's unique indexes: a duplicate-key
// rejection is returned as ErrDuplicate.
func (c *Collection[T]) InsertOne(ctx context.Context, doc *T) (primitive.ObjectID, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return primitive.NilObjectID, fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	if err != nil {
		return primitive.NilObjectID, storeError("insert", err)
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

func (c *Collection[T]) UpdateField(ctx context.Context, id primitive.ObjectID, field string, value any) (UpdateResult, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{field: value}})
	if err != nil {
		return UpdateResult{}, storeError("update", err)
	}
	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (c *Collection[T]) DeleteOne(ctx context.Context, id primitive.ObjectID) (int64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, storeError("delete", err)
	}
	return res.DeletedCount, nil
}

func (c *Collection[T]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func nonNil(filter bson.M) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return filter
}

// storeError marks transport failures with ErrUnavailable. Server-side
// rejections and documents that fail to decode are returned unmarked.
func storeError(op string, err error) error {
	if transient(err) {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func transient(err error) bool {
	return mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, mongo.ErrClientDisconnected)
}
