package events

import (
	"time"

	"github.com/famguard/guardian-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountRegistered      EventType = "account_registered"
	EventLoginSucceeded         EventType = "login_succeeded"
	EventLoginFailed            EventType = "login_failed"
	EventGoogleLogin            EventType = "google_login"
	EventTokenRevoked           EventType = "token_revoked"
	EventPasswordChanged        EventType = "password_changed"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventPasswordResetCompleted EventType = "password_reset_completed"
)

// Event represents a security-relevant event emitted by the auth service.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	AccountID *string     `json:"account_id,omitempty"`
	Email     string      `json:"email,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// AccountRegisteredPayload payload.
type AccountRegisteredPayload struct {
	Subscription domain.SubscriptionPlan `json:"subscription"`
	Federated    bool                    `json:"federated"`
}

// LoginFailedPayload payload.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}

// GoogleLoginPayload payload.
type GoogleLoginPayload struct {
	Linked  bool `json:"linked"`
	Created bool `json:"created"`
}

// TokenRevokedPayload payload.
type TokenRevokedPayload struct {
	JTI string `json:"jti"`
}
