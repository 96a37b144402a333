package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/famguard/guardian-service/internal/domain"
	"github.com/famguard/guardian-service/internal/repository"
	apperrors "github.com/famguard/guardian-service/pkg/util"
)

// Profile is an account with its children count for the profile endpoints.
type Profile struct {
	Account       *domain.Account
	ChildrenCount int
}

// ProfileUpdate carries the mutable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name         *string
	Avatar       *string
	Subscription *domain.SubscriptionPlan
}

// AccountService serves the profile endpoints.
type AccountService struct {
	accounts repository.AccountRepository
	children repository.ChildRepository
}

// NewAccountService builds the service.
func NewAccountService(accounts repository.AccountRepository, children repository.ChildRepository) *AccountService {
	return &AccountService{accounts: accounts, children: children}
}

// GetProfile loads the account and its children count.
func (s *AccountService) GetProfile(ctx context.Context, accountID string) (*Profile, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("account", nil)
		}
		return nil, apperrors.MapError(err)
	}

	children, err := s.children.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &Profile{Account: account, ChildrenCount: len(children)}, nil
}

// UpdateProfile applies the provided fields and returns the updated account.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, update ProfileUpdate) (*domain.Account, error) {
	if update.Name == nil && update.Avatar == nil && update.Subscription == nil {
		return nil, apperrors.NewValidationError("no valid fields to update", nil)
	}
	if update.Subscription != nil && !update.Subscription.Valid() {
		return nil, apperrors.NewValidationError("unknown subscription plan", map[string]any{"plan": string(*update.Subscription)})
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("account", nil)
		}
		return nil, apperrors.MapError(err)
	}

	if update.Name != nil {
		account.Name = *update.Name
	}
	if update.Avatar != nil {
		account.Avatar = *update.Avatar
	}
	if update.Subscription != nil {
		account.Subscription = *update.Subscription
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, apperrors.MapError(err)
	}
	return account, nil
}
