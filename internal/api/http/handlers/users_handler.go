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

// UsersHandler exposes profile endpoints for authenticated parents.
type UsersHandler struct {
	accounts *service.AccountService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(accountService *service.AccountService) *UsersHandler {
	return &UsersHandler{accounts: accountService}
}

// GetProfile handles GET /api/users/profile.
func (h *UsersHandler) GetProfile(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	profile, err := h.accounts.GetProfile(c.Context(), claims.Subject)
	if err != nil {
		return err
	}

	response := dto.NewAccountResponse(profile.Account)
	return c.JSON(fiber.Map{"data": fiber.Map{
		"user":           response,
		"children_count": profile.ChildrenCount,
	}})
}

// UpdateProfile handles PUT /api/users/profile.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req struct {
		Name         *string `json:"name"`
		Avatar       *string `json:"avatar"`
		Subscription *string `json:"subscription"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	update := service.ProfileUpdate{Name: req.Name, Avatar: req.Avatar}
	if req.Subscription != nil {
		plan := domain.SubscriptionPlan(*req.Subscription)
		update.Subscription = &plan
	}

	account, err := h.accounts.UpdateProfile(c.Context(), claims.Subject, update)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAccountResponse(account)})
}
