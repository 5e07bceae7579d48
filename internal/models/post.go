package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post moderation states. New submissions wait in "holding"; only "post"
// is visible on category pages; "height" takes a post out of circulation.
const (
	StatusHolding = "holding"
	StatusPost    = "post"
	StatusHeight  = "height"
)

var PostStatuses = []string{StatusHolding, StatusPost, StatusHeight}

type Post struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Heading     string             `bson:"heading" json:"heading"`
	PostDetail  string             `bson:"post_detail" json:"post_detail"`
	Category    string             `bson:"category" json:"category"`
	PostTime    string             `bson:"post_time,omitempty" json:"post_time,omitempty"`
	Images      []string           `bson:"images" json:"images"`
	ImageCount  int                `bson:"imageCount" json:"imageCount"`
	Status      string             `bson:"status" json:"status"`
	Screening   string             `bson:"screening,omitempty" json:"screening,omitempty"`
	SubmittedBy string             `bson:"submittedBy,omitempty" json:"submittedBy,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
