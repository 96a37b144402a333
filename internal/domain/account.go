package domain

import "time"

// Role is the closed set of platform roles.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// IsAdmin reports whether the role grants platform-wide access.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Valid reports whether the role is a known value.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// SubscriptionPlan enumerates subscription tiers.
type SubscriptionPlan string

const (
	PlanBasic   SubscriptionPlan = "basic"
	PlanPremium SubscriptionPlan = "premium"
	PlanFamily  SubscriptionPlan = "family"
)

// Valid reports whether the plan is a known value.
func (p SubscriptionPlan) Valid() bool {
	switch p {
	case PlanBasic, PlanPremium, PlanFamily:
		return true
	}
	return false
}

// Account is the domain model for a registered parent or admin.
// PasswordHash is empty for accounts created through federated login;
// such accounts carry a GoogleID instead. An account is never both empty.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Avatar       string
	Role         Role
	Subscription SubscriptionPlan
	GoogleID     string
	Active       bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account can authenticate with a password.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// Federated reports whether the account is linked to a Google identity.
func (a *Account) Federated() bool {
	return a.GoogleID != ""
}
