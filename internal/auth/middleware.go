package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/famguard/guardian-service/internal/observability"
	apperrors "github.com/famguard/guardian-service/pkg/util"
)

const claimsKey = "auth_claims"

// AuthMiddleware validates bearer access tokens and consults the revocation
// store before admitting a request. Verification and revocation are distinct
// steps: only access tokens carry a jti, and the reset flow never checks the
// blacklist.
type AuthMiddleware struct {
	tokens      *TokenManager
	revocations RevocationStore
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, revocations RevocationStore, metrics *observability.Metrics, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, revocations: revocations, metrics: metrics, logger: logger}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		m.metrics.RecordAuthFailure("missing_header")
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		m.metrics.RecordAuthFailure("malformed_header")
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseAccess(parts[1])
	if err != nil {
		m.metrics.RecordAuthFailure("invalid_token")
		return apperrors.NewUnauthorized("invalid or expired token")
	}

	// An access token without a jti cannot be revoked, so it is never
	// admitted.
	if claims.ID == "" {
		m.metrics.RecordAuthFailure("missing_jti")
		return apperrors.NewTokenRevoked()
	}

	revoked, err := m.revocations.IsRevoked(c.Context(), claims.ID)
	if err != nil {
		// Fail closed: an unreachable store rejects the request.
		m.logger.Error("revocation store lookup failed", zap.Error(err))
		m.metrics.RecordAuthFailure("store_error")
		return apperrors.NewTokenRevoked()
	}
	if revoked {
		m.metrics.RecordAuthFailure("revoked")
		return apperrors.NewTokenRevoked()
	}

	c.Locals(claimsKey, claims)
	return c.Next()
}

// ClaimsFromContext retrieves the authenticated access claims.
func ClaimsFromContext(c *fiber.Ctx) (*AccessClaims, bool) {
	val := c.Locals(claimsKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*AccessClaims)
	return claims, ok
}
