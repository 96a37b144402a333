package dto

import (
	"time"

	"github.com/famguard/guardian-service/internal/domain"
)

// RegisterRequest payload for new parent accounts.
type RegisterRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Subscription string `json:"subscription"`
}

// LoginRequest payload for password login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleAuthRequest payload for federated login.
type GoogleAuthRequest struct {
	GoogleToken string `json:"google_token"`
}

// RefreshRequest payload for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// PasswordResetRequest payload for requesting a reset token.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirm payload for consuming a reset token.
type PasswordResetConfirm struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordChangeRequest payload for an authenticated password change.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AccountResponse is an account stripped of credentials.
type AccountResponse struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Avatar       string     `json:"avatar,omitempty"`
	Role         string     `json:"role"`
	Subscription string     `json:"subscription"`
	Active       bool       `json:"active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewAccountResponse maps a domain account into its API shape.
func NewAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:           account.ID,
		Email:        account.Email,
		Name:         account.Name,
		Avatar:       account.Avatar,
		Role:         string(account.Role),
		Subscription: string(account.Subscription),
		Active:       account.Active,
		LastLogin:    account.LastLogin,
		CreatedAt:    account.CreatedAt,
	}
}

// TokenResponse is the standard response for token-issuing endpoints.
type TokenResponse struct {
	AccessToken      string          `json:"access_token"`
	AccessExpiresAt  time.Time       `json:"access_expires_at"`
	RefreshToken     string          `json:"refresh_token"`
	RefreshExpiresAt time.Time       `json:"refresh_expires_at"`
	TokenType        string          `json:"token_type"`
	User             AccountResponse `json:"user"`
}
