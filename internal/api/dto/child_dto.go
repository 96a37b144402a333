package dto

import (
	"time"

	"github.com/famguard/guardian-service/internal/domain"
)

// ChildCreateRequest payload for adding a child profile.
type ChildCreateRequest struct {
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Avatar   string `json:"avatar"`
	Device   string `json:"device"`
	DeviceID string `json:"device_id"`
}

// ChildUpdateRequest payload for updating a child profile.
type ChildUpdateRequest struct {
	Name   *string `json:"name"`
	Age    *int    `json:"age"`
	Avatar *string `json:"avatar"`
	Device *string `json:"device"`
	Status *string `json:"status"`
}

// ChildResponse is the API shape of a child profile.
type ChildResponse struct {
	ID        string     `json:"id"`
	AccountID string     `json:"account_id"`
	Name      string     `json:"name"`
	Age       int        `json:"age"`
	Avatar    string     `json:"avatar,omitempty"`
	Device    string     `json:"device"`
	DeviceID  string     `json:"device_id"`
	Status    string     `json:"status"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewChildResponse maps a domain child into its API shape.
func NewChildResponse(child *domain.Child) ChildResponse {
	return ChildResponse{
		ID:        child.ID,
		AccountID: child.AccountID,
		Name:      child.Name,
		Age:       child.Age,
		Avatar:    child.Avatar,
		Device:    child.Device,
		DeviceID:  child.DeviceID,
		Status:    string(child.Status),
		LastSeen:  child.LastSeen,
		CreatedAt: child.CreatedAt,
	}
}
