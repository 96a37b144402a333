package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/famguard/guardian-service/internal/api/http/handlers"
	"github.com/famguard/guardian-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Children       *handlers.ChildrenHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	Guard          *auth.Guard
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/google", cfg.Auth.GoogleLogin)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	authProtected.Post("/logout", cfg.Auth.Logout)
	authProtected.Get("/me", cfg.Auth.Me)
	authProtected.Post("/password/change", cfg.Auth.ChangePassword)

	users := api.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/profile", cfg.Users.GetProfile)
	users.Put("/profile", cfg.Users.UpdateProfile)

	children := api.Group("/children", cfg.AuthMiddleware.Handle)
	children.Post("", cfg.Children.Create)
	children.Get("", cfg.Children.List)
	children.Get("/:id", cfg.Children.Get)
	children.Put("/:id", cfg.Children.Update)
	children.Delete("/:id", cfg.Children.Delete)

	admin := api.Group("/admin", cfg.AuthMiddleware.Handle, cfg.Guard.AdminOnly())
	admin.Get("/stats/dashboard", cfg.Admin.Dashboard)
	admin.Get("/accounts", cfg.Admin.ListAccounts)
	admin.Get("/security/logs", cfg.Admin.SecurityLogs)
}
