package handlers

import (
	"net/url"

	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/inews-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}

	resp, err := h.userService.Register(c.UserContext(), middleware.PrincipalFrom(c), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.Envelope{
		Success: true, Message: "User registered successfully", Data: resp,
	})
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.userService.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope{Success: true, Message: "Users fetched", Data: users})
}

func (h *UserHandler) GetByDisplayName(c *fiber.Ctx) error {
	name := c.Params("displayName")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}

	user, err := h.userService.GetByDisplayName(c.UserContext(), name)
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope{Success: true, Message: "User found", Data: user})
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	resp, err := h.userService.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope{Success: true, Message: "User deleted successfully", Data: resp})
}

func (h *UserHandler) UpdateRole(c *fiber.Ctx) error {
	var req dto.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}

	resp, err := h.userService.UpdateRole(c.UserContext(), c.Params("_id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(dto.Envelope{Success: true, Message: "Role updated", Data: resp})
}
