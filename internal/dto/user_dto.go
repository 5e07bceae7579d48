package dto

import (
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RegisterRequest struct {
	Name        string             `json:"name"`
	DisplayName string             `json:"displayName"`
	Email       string             `json:"email" validate:"required,email"`
	Password    string             `json:"password" validate:"required,min=6,max=72"`
	PhotoURL    string             `json:"photoURL"`
	Number      models.PhoneNumber `json:"number"`
	UID         string             `json:"uid"`
}

type RegisterResponse struct {
	ID          primitive.ObjectID `json:"id"`
	Email       string             `json:"email"`
	DisplayName string             `json:"displayName"`
	Role        string             `json:"role"`
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}
