package dto

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreatePostRequest struct {
	Heading    string     `json:"heading" validate:"required"`
	PostDetail string     `json:"post_detail"`
	Category   string     `json:"category" validate:"required"`
	PostTime   string     `json:"post_time"`
	Images     []string   `json:"images"`
	ImageCount int        `json:"imageCount" validate:"gte=0"`
	CreatedAt  *time.Time `json:"createdAt"`
}

type CreatePostResponse struct {
	ID        primitive.ObjectID `json:"id"`
	Heading   string             `json:"heading"`
	Status    string             `json:"status"`
	Screening string             `json:"screening,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}
