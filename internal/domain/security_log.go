package domain

import "time"

// SecurityLog records a security-relevant auth event for the admin console.
type SecurityLog struct {
	ID        string
	EventType string
	AccountID *string
	Email     string
	Detail    string
	CreatedAt time.Time
}
