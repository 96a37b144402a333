package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/famguard/guardian-service/internal/api/dto"
	"github.com/famguard/guardian-service/internal/auth"
	"github.com/famguard/guardian-service/internal/domain"
	"github.com/famguard/guardian-service/internal/service"
	apperrors "github.com/famguard/guardian-service/pkg/util"
)

// ChildrenHandler exposes child profile CRUD for the owning parent. Routes
// addressing a specific child pass the ownership guard before any read or
// write.
type ChildrenHandler struct {
	children *service.ChildService
	guard    *auth.Guard
}

// NewChildrenHandler constructs handler.
func NewChildrenHandler(childService *service.ChildService, guard *auth.Guard) *ChildrenHandler {
	return &ChildrenHandler{children: childService, guard: guard}
}

// Create handles POST /api/children.
func (h *ChildrenHandler) Create(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ChildCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	child, err := h.children.Create(c.Context(), claims.Subject, service.ChildInput{
		Name:     req.Name,
		Age:      req.Age,
		Avatar:   req.Avatar,
		Device:   req.Device,
		DeviceID: req.DeviceID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewChildResponse(child)})
}

// List handles GET /api/children.
func (h *ChildrenHandler) List(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	children, err := h.children.List(c.Context(), claims.Subject)
	if err != nil {
		return err
	}

	responses := make([]dto.ChildResponse, 0, len(children))
	for _, child := range children {
		responses = append(responses, dto.NewChildResponse(child))
	}
	return c.JSON(fiber.Map{"data": responses})
}

// Get handles GET /api/children/:id.
func (h *ChildrenHandler) Get(c *fiber.Ctx) error {
	_, childID, err := h.authorize(c)
	if err != nil {
		return err
	}

	child, err := h.children.Get(c.Context(), childID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewChildResponse(child)})
}

// Update handles PUT /api/children/:id.
func (h *ChildrenHandler) Update(c *fiber.Ctx) error {
	claims, childID, err := h.authorize(c)
	if err != nil {
		return err
	}

	var req dto.ChildUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	update := service.ChildUpdate{
		Name:   req.Name,
		Age:    req.Age,
		Avatar: req.Avatar,
		Device: req.Device,
	}
	if req.Status != nil {
		status := domain.ChildStatus(*req.Status)
		update.Status = &status
	}

	child, err := h.children.Update(c.Context(), claims.Subject, childID, update)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewChildResponse(child)})
}

// Delete handles DELETE /api/children/:id.
func (h *ChildrenHandler) Delete(c *fiber.Ctx) error {
	claims, childID, err := h.authorize(c)
	if err != nil {
		return err
	}

	if err := h.children.Delete(c.Context(), claims.Subject, childID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "child deleted"})
}

func (h *ChildrenHandler) authorize(c *fiber.Ctx) (*auth.AccessClaims, string, error) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return nil, "", apperrors.NewUnauthorized("authentication required")
	}

	childID := c.Params("id")
	if childID == "" {
		return nil, "", fiber.NewError(http.StatusBadRequest, "child id required")
	}
	if err := h.guard.RequireOwner(c.Context(), claims, childID); err != nil {
		return nil, "", err
	}
	return claims, childID, nil
}
