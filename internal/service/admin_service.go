package service

import (
	"context"

	"github.com/famguard/guardian-service/internal/domain"
	"github.com/famguard/guardian-service/internal/repository"
	apperrors "github.com/famguard/guardian-service/pkg/util"
)

// DashboardStats are the headline numbers for the admin console.
type DashboardStats struct {
	TotalAccounts  int64 `json:"total_accounts"`
	ActiveAccounts int64 `json:"active_accounts"`
	TotalChildren  int64 `json:"total_children"`
}

// AdminService serves platform-wide views. Callers must already have passed
// the admin guard.
type AdminService struct {
	accounts     repository.AccountRepository
	children     repository.ChildRepository
	securityLogs repository.SecurityLogRepository
}

// NewAdminService builds the service.
func NewAdminService(accounts repository.AccountRepository, children repository.ChildRepository, securityLogs repository.SecurityLogRepository) *AdminService {
	return &AdminService{accounts: accounts, children: children, securityLogs: securityLogs}
}

// Dashboard computes headline platform counts.
func (s *AdminService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	total, err := s.accounts.Count(ctx, false)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	active, err := s.accounts.Count(ctx, true)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	children, err := s.children.Count(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &DashboardStats{
		TotalAccounts:  total,
		ActiveAccounts: active,
		TotalChildren:  children,
	}, nil
}

// ListAccounts pages through all accounts.
func (s *AdminService) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	accounts, err := s.accounts.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return accounts, nil
}

// SecurityLogs returns the most recent security log entries.
func (s *AdminService) SecurityLogs(ctx context.Context, limit int) ([]*domain.SecurityLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	entries, err := s.securityLogs.List(ctx, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}
