package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/famguard/guardian-service/internal/api/dto"
	"github.com/famguard/guardian-service/internal/service"
)

// AdminHandler exposes platform-wide views. The admin guard runs at the
// route group level.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: adminService}
}

// Dashboard handles GET /api/admin/stats/dashboard.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.admin.Dashboard(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// ListAccounts handles GET /api/admin/accounts.
func (h *AdminHandler) ListAccounts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	accounts, err := h.admin.ListAccounts(c.Context(), limit, offset)
	if err != nil {
		return err
	}

	responses := make([]dto.AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		responses = append(responses, dto.NewAccountResponse(account))
	}
	return c.JSON(fiber.Map{"data": responses})
}

// SecurityLogs handles GET /api/admin/security/logs.
func (h *AdminHandler) SecurityLogs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)

	entries, err := h.admin.SecurityLogs(c.Context(), limit)
	if err != nil {
		return err
	}

	responses := make([]dto.SecurityLogResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewSecurityLogResponse(entry))
	}
	return c.JSON(fiber.Map{"data": responses})
}
