package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/famguard/guardian-service/internal/domain"
	"github.com/famguard/guardian-service/internal/repository"
	apperrors "github.com/famguard/guardian-service/pkg/util"
)

// ChildInput carries the fields a parent may set on a child profile.
type ChildInput struct {
	Name     string
	Age      int
	Avatar   string
	Device   string
	DeviceID string
}

// ChildUpdate carries mutable child fields; nil means unchanged.
type ChildUpdate struct {
	Name   *string
	Age    *int
	Avatar *string
	Device *string
	Status *domain.ChildStatus
}

// ChildService manages child profiles. Every operation is scoped to the
// owning account; ownership itself is checked by the auth guard before the
// handler reaches this service.
type ChildService struct {
	children repository.ChildRepository
}

// NewChildService builds the service.
func NewChildService(children repository.ChildRepository) *ChildService {
	return &ChildService{children: children}
}

// Create adds a child profile under the given account.
func (s *ChildService) Create(ctx context.Context, accountID string, input ChildInput) (*domain.Child, error) {
	if input.Name == "" || input.DeviceID == "" {
		return nil, apperrors.NewValidationError("name and device_id required", nil)
	}

	child := &domain.Child{
		AccountID: accountID,
		Name:      input.Name,
		Age:       input.Age,
		Avatar:    input.Avatar,
		Device:    input.Device,
		DeviceID:  input.DeviceID,
		Status:    domain.ChildStatusOffline,
	}
	if err := s.children.Create(ctx, child); err != nil {
		return nil, apperrors.MapError(err)
	}
	return child, nil
}

// List returns all children owned by the account.
func (s *ChildService) List(ctx context.Context, accountID string) ([]*domain.Child, error) {
	children, err := s.children.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return children, nil
}

// Get loads one child profile.
func (s *ChildService) Get(ctx context.Context, childID string) (*domain.Child, error) {
	child, err := s.children.GetByID(ctx, childID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("child", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return child, nil
}

// Update applies the provided fields to an owned child profile.
func (s *ChildService) Update(ctx context.Context, accountID, childID string, update ChildUpdate) (*domain.Child, error) {
	child, err := s.Get(ctx, childID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		child.Name = *update.Name
	}
	if update.Age != nil {
		child.Age = *update.Age
	}
	if update.Avatar != nil {
		child.Avatar = *update.Avatar
	}
	if update.Device != nil {
		child.Device = *update.Device
	}
	if update.Status != nil {
		child.Status = *update.Status
	}
	child.AccountID = accountID

	if err := s.children.Update(ctx, child); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("child", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return child, nil
}

// Delete removes an owned child profile.
func (s *ChildService) Delete(ctx context.Context, accountID, childID string) error {
	if err := s.children.Delete(ctx, childID, accountID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("child", nil)
		}
		return apperrors.MapError(err)
	}
	return nil
}
