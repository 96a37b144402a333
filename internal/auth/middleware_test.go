package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/famguard/guardian-service/internal/domain"
	"github.com/famguard/guardian-service/internal/observability"
	apperrors "github.com/famguard/guardian-service/pkg/util"
)

type brokenRevocationStore struct{}

func (brokenRevocationStore) Revoke(context.Context, string, time.Time) error {
	return errors.New("store unreachable")
}

func (brokenRevocationStore) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("store unreachable")
}

func newTestApp(mw *AuthMiddleware) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": fiber.Map{
				"code":    de.Code,
				"message": de.Message,
			}})
		},
	})
	app.Get("/protected", mw.Handle, func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			return errors.New("claims missing from context")
		}
		return c.JSON(fiber.Map{"subject": claims.Subject})
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, authHeader string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)
	return resp.StatusCode, payload.Error.Code
}

func TestMiddlewareAdmitsValidToken(t *testing.T) {
	tm := newTestTokenManager()
	mw := NewAuthMiddleware(tm, NewMemoryRevocationStore(), observability.NewMetrics(), zap.NewNop())
	app := newTestApp(mw)

	token, _, err := tm.IssueAccess("acct-1", "a@x.com")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	status, _ := doRequest(t, app, "Bearer "+token)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
}

func TestMiddlewareRejectsMissingOrMalformedHeader(t *testing.T) {
	tm := newTestTokenManager()
	mw := NewAuthMiddleware(tm, NewMemoryRevocationStore(), observability.NewMetrics(), zap.NewNop())
	app := newTestApp(mw)

	cases := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"no scheme", "sometoken"},
		{"wrong scheme", "Basic abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := doRequest(t, app, tc.header)
			if status != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", status)
			}
		})
	}
}

func TestMiddlewareRejectsInvalidToken(t *testing.T) {
	tm := newTestTokenManager()
	mw := NewAuthMiddleware(tm, NewMemoryRevocationStore(), observability.NewMetrics(), zap.NewNop())
	app := newTestApp(mw)

	status, _ := doRequest(t, app, "Bearer not.a.token")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}

	// Refresh tokens are never accepted on protected routes.
	refresh, _, err := tm.IssueRefresh("acct-1", "a@x.com")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	status, _ = doRequest(t, app, "Bearer "+refresh)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for refresh token, got %d", status)
	}
}

func TestMiddlewareRejectsRevokedToken(t *testing.T) {
	tm := newTestTokenManager()
	store := NewMemoryRevocationStore()
	mw := NewAuthMiddleware(tm, store, observability.NewMetrics(), zap.NewNop())
	app := newTestApp(mw)

	token, _, err := tm.IssueAccess("acct-1", "a@x.com")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	claims, err := tm.ParseAccess(token)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}

	// The token is cryptographically valid and unexpired, but its jti is
	// blacklisted.
	if err := store.Revoke(context.Background(), claims.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	status, code := doRequest(t, app, "Bearer "+token)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	if code != "TOKEN_REVOKED" {
		t.Fatalf("expected TOKEN_REVOKED, got %s", code)
	}
}

func TestMiddlewareRejectsTokenWithoutJTI(t *testing.T) {
	tm := newTestTokenManager()
	mw := NewAuthMiddleware(tm, NewMemoryRevocationStore(), observability.NewMetrics(), zap.NewNop())
	app := newTestApp(mw)

	// A well-signed access token with no jti cannot be revoked, so it is
	// treated as already revoked.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &AccessClaims{
		Email: "a@x.com",
		Kind:  domain.TokenKindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acct-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	raw, err := token.SignedString(tm.secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	status, code := doRequest(t, app, "Bearer "+raw)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	if code != "TOKEN_REVOKED" {
		t.Fatalf("expected TOKEN_REVOKED, got %s", code)
	}
}

func TestMiddlewareFailsClosedOnStoreError(t *testing.T) {
	tm := newTestTokenManager()
	mw := NewAuthMiddleware(tm, brokenRevocationStore{}, observability.NewMetrics(), zap.NewNop())
	app := newTestApp(mw)

	token, _, err := tm.IssueAccess("acct-1", "a@x.com")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	status, code := doRequest(t, app, "Bearer "+token)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 when store is down, got %d", status)
	}
	if code != "TOKEN_REVOKED" {
		t.Fatalf("expected TOKEN_REVOKED, got %s", code)
	}
}
