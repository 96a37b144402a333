package dto

import (
	"time"

	"github.com/famguard/guardian-service/internal/domain"
)

// SecurityLogResponse is the API shape of a security log entry.
type SecurityLogResponse struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	AccountID *string   `json:"account_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSecurityLogResponse maps a domain entry into its API shape.
func NewSecurityLogResponse(entry *domain.SecurityLog) SecurityLogResponse {
	return SecurityLogResponse{
		ID:        entry.ID,
		EventType: entry.EventType,
		AccountID: entry.AccountID,
		Email:     entry.Email,
		Detail:    entry.Detail,
		CreatedAt: entry.CreatedAt,
	}
}
