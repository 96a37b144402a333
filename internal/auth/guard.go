package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/famguard/guardian-service/internal/domain"
	"github.com/famguard/guardian-service/internal/repository"
	apperrors "github.com/famguard/guardian-service/pkg/util"
)

const accountKey = "auth_account"

// Guard resolves verified claims to a role and ownership scope. It consults
// the account and child stores but never mutates them.
type Guard struct {
	accounts repository.AccountRepository
	children repository.ChildRepository
}

// NewGuard constructs a guard.
func NewGuard(accounts repository.AccountRepository, children repository.ChildRepository) *Guard {
	return &Guard{accounts: accounts, children: children}
}

// RequireAdmin loads the claims' subject and rejects unless the account holds
// an admin role.
func (g *Guard) RequireAdmin(ctx context.Context, claims *AccessClaims) (*domain.Account, error) {
	account, err := g.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("account", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if !account.Role.IsAdmin() {
		return nil, apperrors.NewForbidden("admin privileges required")
	}
	return account, nil
}

// RequireOwner rejects unless the child belongs to the claims' subject. The
// response does not reveal whether the child exists.
func (g *Guard) RequireOwner(ctx context.Context, claims *AccessClaims, childID string) error {
	owned, err := g.children.OwnedBy(ctx, childID, claims.Subject)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !owned {
		return apperrors.NewForbidden("access to child denied")
	}
	return nil
}

// AdminOnly is a route-level wrapper around RequireAdmin. The loaded account
// is stored in the request context for handlers.
func (g *Guard) AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		account, err := g.RequireAdmin(c.Context(), claims)
		if err != nil {
			return err
		}
		c.Locals(accountKey, account)
		return c.Next()
	}
}

// AccountFromContext retrieves the account loaded by AdminOnly.
func AccountFromContext(c *fiber.Ctx) (*domain.Account, bool) {
	val := c.Locals(accountKey)
	if val == nil {
		return nil, false
	}
	account, ok := val.(*domain.Account)
	return account, ok
}
