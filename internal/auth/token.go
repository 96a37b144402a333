package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/famguard/guardian-service/internal/domain"
)

// ErrTokenInvalid covers signature mismatch, structural corruption, expiry,
// and kind mismatch. Callers never see the parsing internals.
var ErrTokenInvalid = errors.New("invalid token")

// TokenManager issues and validates the three JWT kinds used by the service.
// All kinds share one HS256 secret; rotating the secret invalidates every
// outstanding token at once.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, accessTTL, refreshTTL, resetTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
	}
}

// AccessClaims is the payload of an access token. ID (the jti) is mandatory
// and is the unit of revocation.
type AccessClaims struct {
	Email string           `json:"email"`
	Kind  domain.TokenKind `json:"type"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. Refresh tokens carry no
// jti and are not individually revocable.
type RefreshClaims struct {
	Email string           `json:"email"`
	Kind  domain.TokenKind `json:"type"`
	jwt.RegisteredClaims
}

// ResetClaims is the payload of a password-reset token. It carries only the
// email; the account is resolved by email when the token is consumed.
type ResetClaims struct {
	Email string           `json:"email"`
	Kind  domain.TokenKind `json:"type"`
	jwt.RegisteredClaims
}

// IssueAccess signs a short-lived access token with a fresh random jti.
func (tm *TokenManager) IssueAccess(accountID, email string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(tm.accessTTL)
	claims := &AccessClaims{
		Email: email,
		Kind:  domain.TokenKindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := tm.sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// IssueRefresh signs a long-lived refresh token.
func (tm *TokenManager) IssueRefresh(accountID, email string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(tm.refreshTTL)
	claims := &RefreshClaims{
		Email: email,
		Kind:  domain.TokenKindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := tm.sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// IssuePasswordReset signs a reset token bound to an email only.
func (tm *TokenManager) IssuePasswordReset(email string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(tm.resetTTL)
	claims := &ResetClaims{
		Email: email,
		Kind:  domain.TokenKindPasswordReset,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := tm.sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseAccess validates signature and expiry and requires kind "access".
// Revocation is a separate step; see AuthMiddleware.
func (tm *TokenManager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := tm.parse(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.Kind != domain.TokenKindAccess {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseRefresh validates signature and expiry and requires kind "refresh".
func (tm *TokenManager) ParseRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := tm.parse(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.Kind != domain.TokenKindRefresh {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParsePasswordReset validates signature and expiry and requires kind
// "password_reset".
func (tm *TokenManager) ParsePasswordReset(tokenStr string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := tm.parse(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.Kind != domain.TokenKindPasswordReset {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (tm *TokenManager) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

func (tm *TokenManager) parse(tokenStr string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil || !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}
