package handlers

import (
	"net/url"

	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type PostHandler struct {
	postService *services.PostService
}

func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

func (h *PostHandler) Create(c *fiber.Ctx) error {
	var req dto.CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}

	resp, err := h.postService.Create(c.UserContext(), middleware.PrincipalFrom(c), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.Envelope{
		Success: true, Message: "Post submitted for review", Data: resp,
	})
}

func (h *PostHandler) List(c *fiber.Ctx) error {
	posts, err := h.postService.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope{Success: true, Message: "Posts fetched", Data: posts})
}

func (h *PostHandler) ListByCategory(c *fiber.Ctx) error {
	category := c.Params("category")
	if decoded, err := url.PathUnescape(category); err == nil {
		category = decoded
	}

	posts, err := h.postService.ListByCategory(c.UserContext(), category)
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope{Success: true, Message: "Posts fetched", Data: posts})
}

// Details answers 200 with null data when no post has the key.
func (h *PostHandler) Details(c *fiber.Ctx) error {
	post, err := h.postService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if post == nil {
		return c.JSON(dto.Envelope{Success: true, Message: "No post with this ID"})
	}
	return c.JSON(dto.Envelope{Success: true, Message: "Post fetched", Data: post})
}

func (h *PostHandler) Delete(c *fiber.Ctx) error {
	resp, err := h.postService.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope{Success: true, Message: "Post deleted successfully", Data: resp})
}

func (h *PostHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}

	resp, err := h.postService.UpdateStatus(c.UserContext(), c.Params("_id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope{Success: true, Message: "Status updated", Data: resp})
}
