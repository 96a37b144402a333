package auth

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/famguard/guardian-service/internal/domain"
	"github.com/famguard/guardian-service/internal/repository"
	apperrors "github.com/famguard/guardian-service/pkg/util"
)

type fakeAccounts struct {
	repository.AccountRepository
	byID map[string]*domain.Account
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*domain.Account, error) {
	account, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return account, nil
}

type fakeChildren struct {
	repository.ChildRepository
	owners map[string]string // child id -> account id
}

func (f *fakeChildren) OwnedBy(_ context.Context, id, accountID string) (bool, error) {
	return f.owners[id] == accountID, nil
}

func newTestGuard() *Guard {
	accounts := &fakeAccounts{byID: map[string]*domain.Account{
		"parent-1": {ID: "parent-1", Role: domain.RoleUser, Active: true},
		"admin-1":  {ID: "admin-1", Role: domain.RoleAdmin, Active: true},
		"super-1":  {ID: "super-1", Role: domain.RoleSuperAdmin, Active: true},
	}}
	children := &fakeChildren{owners: map[string]string{
		"child-1": "parent-1",
	}}
	return NewGuard(accounts, children)
}

func accessClaimsFor(subject string) *AccessClaims {
	claims := &AccessClaims{Kind: domain.TokenKindAccess}
	claims.Subject = subject
	claims.ID = "jti-" + subject
	return claims
}

func TestRequireAdmin(t *testing.T) {
	guard := newTestGuard()
	ctx := context.Background()

	cases := []struct {
		name     string
		subject  string
		wantCode string
	}{
		{"plain user forbidden", "parent-1", "FORBIDDEN"},
		{"admin allowed", "admin-1", ""},
		{"super admin allowed", "super-1", ""},
		{"unknown account", "ghost", "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			account, err := guard.RequireAdmin(ctx, accessClaimsFor(tc.subject))
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("RequireAdmin: %v", err)
				}
				if account.ID != tc.subject {
					t.Fatalf("unexpected account: %s", account.ID)
				}
				return
			}
			if err == nil {
				t.Fatal("expected rejection")
			}
			if code := apperrors.ToDomainError(err).Code; code != tc.wantCode {
				t.Fatalf("expected %s, got %s", tc.wantCode, code)
			}
		})
	}
}

func TestRequireOwner(t *testing.T) {
	guard := newTestGuard()
	ctx := context.Background()

	if err := guard.RequireOwner(ctx, accessClaimsFor("parent-1"), "child-1"); err != nil {
		t.Fatalf("expected owner to pass: %v", err)
	}

	err := guard.RequireOwner(ctx, accessClaimsFor("admin-1"), "child-1")
	if err == nil {
		t.Fatal("expected non-owner to be rejected")
	}
	if code := apperrors.ToDomainError(err).Code; code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %s", code)
	}

	// A nonexistent child is indistinguishable from a foreign one.
	err = guard.RequireOwner(ctx, accessClaimsFor("parent-1"), "ghost-child")
	if err == nil {
		t.Fatal("expected rejection for unknown child")
	}
	if code := apperrors.ToDomainError(err).Code; code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %s", code)
	}
}
