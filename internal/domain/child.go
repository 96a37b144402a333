package domain

import "time"

// ChildStatus reflects the monitored device's connectivity.
type ChildStatus string

const (
	ChildStatusOnline  ChildStatus = "online"
	ChildStatusOffline ChildStatus = "offline"
)

// Child is a monitored child profile owned by exactly one account.
// The AccountID link is the unit of ownership-scoped authorization.
type Child struct {
	ID        string
	AccountID string
	Name      string
	Age       int
	Avatar    string
	Device    string
	DeviceID  string
	Status    ChildStatus
	LastSeen  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
