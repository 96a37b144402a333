package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/famguard/guardian-service/internal/auth"
	"github.com/famguard/guardian-service/internal/config"
	"github.com/famguard/guardian-service/internal/domain"
	"github.com/famguard/guardian-service/internal/events"
	apperrors "github.com/famguard/guardian-service/pkg/util"
)

// memoryAccountRepo is a map-backed AccountRepository for service tests.
type memoryAccountRepo struct {
	accounts map[string]*domain.Account
}

func newMemoryAccountRepo() *memoryAccountRepo {
	return &memoryAccountRepo{accounts: make(map[string]*domain.Account)}
}

func (r *memoryAccountRepo) Create(_ context.Context, account *domain.Account) error {
	account.ID = uuid.NewString()
	account.Email = strings.ToLower(account.Email)
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	clone := *account
	r.accounts[account.ID] = &clone
	return nil
}

func (r *memoryAccountRepo) Update(_ context.Context, account *domain.Account) error {
	stored, ok := r.accounts[account.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Name = account.Name
	stored.Avatar = account.Avatar
	stored.Subscription = account.Subscription
	stored.Active = account.Active
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *memoryAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	account, ok := r.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *account
	return &clone, nil
}

func (r *memoryAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	for _, account := range r.accounts {
		if account.Email == strings.ToLower(email) {
			clone := *account
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryAccountRepo) GetByGoogleID(_ context.Context, googleID string) (*domain.Account, error) {
	for _, account := range r.accounts {
		if account.GoogleID != "" && account.GoogleID == googleID {
			clone := *account
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryAccountRepo) LinkGoogle(_ context.Context, id, googleID, avatar string) error {
	account, ok := r.accounts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	account.GoogleID = googleID
	if avatar != "" {
		account.Avatar = avatar
	}
	return nil
}

func (r *memoryAccountRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	account, ok := r.accounts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	account.PasswordHash = passwordHash
	return nil
}

func (r *memoryAccountRepo) TouchLastLogin(_ context.Context, id string) error {
	account, ok := r.accounts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	now := time.Now()
	account.LastLogin = &now
	return nil
}

func (r *memoryAccountRepo) List(_ context.Context, limit, offset int) ([]*domain.Account, error) {
	out := make([]*domain.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		clone := *account
		out = append(out, &clone)
	}
	return out, nil
}

func (r *memoryAccountRepo) Count(_ context.Context, activeOnly bool) (int64, error) {
	var n int64
	for _, account := range r.accounts {
		if !activeOnly || account.Active {
			n++
		}
	}
	return n, nil
}

// stubIdentity resolves a fixed raw token to a fixed identity.
type stubIdentity struct {
	token    string
	identity *auth.FederatedIdentity
}

func (s *stubIdentity) Verify(_ context.Context, rawToken string) (*auth.FederatedIdentity, error) {
	if s.identity == nil || rawToken != s.token {
		return nil, auth.ErrFederatedTokenInvalid
	}
	return s.identity, nil
}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   30,
			RefreshTokenTTLDays:     7,
			PasswordResetTTLMinutes: 15,
			BcryptCost:              bcrypt.MinCost,
		},
	}
}

type serviceFixture struct {
	svc         *AuthService
	repo        *memoryAccountRepo
	revocations *auth.MemoryRevocationStore
	identity    *stubIdentity
	events      *[]events.Event
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	repo := newMemoryAccountRepo()
	revocations := auth.NewMemoryRevocationStore()
	identity := &stubIdentity{}
	dispatcher := events.NewInMemoryDispatcher()

	var published []events.Event
	record := func(_ context.Context, event events.Event) error {
		published = append(published, event)
		return nil
	}
	for _, eventType := range []events.EventType{
		events.EventAccountRegistered,
		events.EventLoginSucceeded,
		events.EventLoginFailed,
		events.EventGoogleLogin,
		events.EventTokenRevoked,
		events.EventPasswordChanged,
		events.EventPasswordResetRequested,
		events.EventPasswordResetCompleted,
	} {
		dispatcher.Subscribe(eventType, record)
	}

	svc := NewAuthService(testConfig(), AuthDependencies{
		AccountRepo:     repo,
		RevocationStore: revocations,
		Identity:        identity,
		Dispatcher:      dispatcher,
	})
	return &serviceFixture{svc: svc, repo: repo, revocations: revocations, identity: identity, events: &published}
}

func (f *serviceFixture) eventTypes() []events.EventType {
	out := make([]events.EventType, 0, len(*f.events))
	for _, event := range *f.events {
		out = append(out, event.Type)
	}
	return out
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	return apperrors.ToDomainError(err).Code
}

func TestRegisterLoginLogout(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	account, pair, err := f.svc.Register(ctx, "Alice", "a@x.com", "secret123", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if account.ID == "" || account.Subscription != domain.PlanBasic || account.Role != domain.RoleUser {
		t.Fatalf("unexpected account: %+v", account)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected a full token pair")
	}

	// Duplicate registration conflicts regardless of email case.
	if _, _, err := f.svc.Register(ctx, "Alice", "A@X.com", "secret123", ""); errCode(t, err) != "CONFLICT" {
		t.Fatalf("expected CONFLICT, got %v", err)
	}

	// Wrong password and unknown email carry the same message.
	_, _, wrongErr := f.svc.Login(ctx, "a@x.com", "nope")
	_, _, unknownErr := f.svc.Login(ctx, "nobody@x.com", "nope")
	if wrongErr == nil || unknownErr == nil {
		t.Fatal("expected both logins to fail")
	}
	wrong := apperrors.ToDomainError(wrongErr)
	unknown := apperrors.ToDomainError(unknownErr)
	if wrong.Message != unknown.Message || wrong.HTTPStatus != 401 {
		t.Fatalf("credential failures must be indistinguishable: %q vs %q", wrong.Message, unknown.Message)
	}

	_, pair, err = f.svc.Login(ctx, "a@x.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims, err := f.svc.TokenManager().ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}

	if err := f.svc.Logout(ctx, claims); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	revoked, err := f.revocations.IsRevoked(ctx, claims.ID)
	if err != nil || !revoked {
		t.Fatalf("expected jti revoked after logout, got revoked=%v err=%v", revoked, err)
	}

	// Logout is idempotent.
	if err := f.svc.Logout(ctx, claims); err != nil {
		t.Fatalf("repeated Logout: %v", err)
	}

	types := f.eventTypes()
	want := []events.EventType{
		events.EventAccountRegistered,
		events.EventLoginFailed,
		events.EventLoginFailed,
		events.EventLoginSucceeded,
		events.EventTokenRevoked,
		events.EventTokenRevoked,
	}
	if len(types) != len(want) {
		t.Fatalf("expected events %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], types[i])
		}
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	account, _, err := f.svc.Register(ctx, "Bob", "b@x.com", "secret123", domain.PlanPremium)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	stored := f.repo.accounts[account.ID]
	stored.Active = false

	_, _, err = f.svc.Login(ctx, "b@x.com", "secret123")
	if errCode(t, err) != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestRegisterRejectsUnknownPlan(t *testing.T) {
	f := newServiceFixture(t)

	_, _, err := f.svc.Register(context.Background(), "Eve", "e@x.com", "secret123", domain.SubscriptionPlan("platinum"))
	if errCode(t, err) != "VALIDATION_FAILED" {
		t.Fatalf("expected VALIDATION_FAILED, got %v", err)
	}
}

func TestRefresh(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	account, pair, err := f.svc.Register(ctx, "Carol", "c@x.com", "secret123", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	refreshed, next, err := f.svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.ID != account.ID {
		t.Fatalf("refresh resolved wrong account: %s", refreshed.ID)
	}
	if next.AccessToken == "" || next.RefreshToken == "" {
		t.Fatal("expected a fresh pair")
	}

	// An access token must not pass for a refresh token.
	if _, _, err := f.svc.Refresh(ctx, pair.AccessToken); errCode(t, err) != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED for access token, got %v", err)
	}

	// A vanished account invalidates outstanding refresh tokens.
	delete(f.repo.accounts, account.ID)
	if _, _, err := f.svc.Refresh(ctx, pair.RefreshToken); errCode(t, err) != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED for deleted account, got %v", err)
	}
}

func TestLoginWithGoogle(t *testing.T) {
	ctx := context.Background()

	t.Run("creates passwordless account", func(t *testing.T) {
		f := newServiceFixture(t)
		f.identity.token = "raw-google-token"
		f.identity.identity = &auth.FederatedIdentity{
			GoogleID: "g-123",
			Email:    "new@x.com",
			Name:     "New Parent",
			Avatar:   "https://img.example/p.png",
		}

		account, pair, err := f.svc.LoginWithGoogle(ctx, "raw-google-token")
		if err != nil {
			t.Fatalf("LoginWithGoogle: %v", err)
		}
		if account.GoogleID != "g-123" || account.HasPassword() {
			t.Fatalf("expected federated passwordless account: %+v", account)
		}
		if pair.AccessToken == "" {
			t.Fatal("expected tokens")
		}
		if n := len(f.repo.accounts); n != 1 {
			t.Fatalf("expected one account, got %d", n)
		}
	})

	t.Run("links existing account by email", func(t *testing.T) {
		f := newServiceFixture(t)
		existing, _, err := f.svc.Register(ctx, "Dana", "d@x.com", "secret123", "")
		if err != nil {
			t.Fatalf("Register: %v", err)
		}

		f.identity.token = "raw-google-token"
		f.identity.identity = &auth.FederatedIdentity{GoogleID: "g-777", Email: "d@x.com", Name: "Dana"}

		account, _, err := f.svc.LoginWithGoogle(ctx, "raw-google-token")
		if err != nil {
			t.Fatalf("LoginWithGoogle: %v", err)
		}
		if account.ID != existing.ID {
			t.Fatal("expected link to the existing account, not a duplicate")
		}
		if account.GoogleID != "g-777" {
			t.Fatalf("google id not linked: %+v", account)
		}
		if n := len(f.repo.accounts); n != 1 {
			t.Fatalf("expected one account, got %d", n)
		}

		// Password login still works after linking.
		if _, _, err := f.svc.Login(ctx, "d@x.com", "secret123"); err != nil {
			t.Fatalf("password login after link: %v", err)
		}
	})

	t.Run("resolves returning federated account", func(t *testing.T) {
		f := newServiceFixture(t)
		f.identity.token = "raw-google-token"
		f.identity.identity = &auth.FederatedIdentity{GoogleID: "g-9", Email: "r@x.com", Name: "Ray"}

		first, _, err := f.svc.LoginWithGoogle(ctx, "raw-google-token")
		if err != nil {
			t.Fatalf("first login: %v", err)
		}
		second, _, err := f.svc.LoginWithGoogle(ctx, "raw-google-token")
		if err != nil {
			t.Fatalf("second login: %v", err)
		}
		if first.ID != second.ID {
			t.Fatal("repeat federated login must resolve the same account")
		}
	})

	t.Run("rejects invalid token", func(t *testing.T) {
		f := newServiceFixture(t)
		_, _, err := f.svc.LoginWithGoogle(ctx, "garbage")
		if errCode(t, err) != "UNAUTHORIZED" {
			t.Fatalf("expected UNAUTHORIZED, got %v", err)
		}
		if n := len(f.repo.accounts); n != 0 {
			t.Fatalf("no account may be created for a bad token, got %d", n)
		}
	})
}

func TestPasswordResetFlow(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	if _, _, err := f.svc.RequestPasswordReset(ctx, "nobody@x.com"); errCode(t, err) != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND for unknown email, got %v", err)
	}

	if _, _, err := f.svc.Register(ctx, "Fran", "f@x.com", "oldpassword", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, expiresAt, err := f.svc.RequestPasswordReset(ctx, "f@x.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if token == "" || !expiresAt.After(time.Now()) {
		t.Fatalf("unexpected reset token: %q expires %v", token, expiresAt)
	}

	if err := f.svc.ConfirmPasswordReset(ctx, token, "newpassword"); err != nil {
		t.Fatalf("ConfirmPasswordReset: %v", err)
	}

	if _, _, err := f.svc.Login(ctx, "f@x.com", "oldpassword"); err == nil {
		t.Fatal("old password must stop working")
	}
	if _, _, err := f.svc.Login(ctx, "f@x.com", "newpassword"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	// An access token is not a reset token.
	_, pair, err := f.svc.Login(ctx, "f@x.com", "newpassword")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := f.svc.ConfirmPasswordReset(ctx, pair.AccessToken, "whatever"); errCode(t, err) != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED for wrong token kind, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, pair, err := f.svc.Register(ctx, "Gus", "g@x.com", "original1", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	claims, err := f.svc.TokenManager().ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}

	err = f.svc.ChangePassword(ctx, claims, "wrong", "updated1")
	if errCode(t, err) != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED for wrong current password, got %v", err)
	}

	if err := f.svc.ChangePassword(ctx, claims, "original1", "updated1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, _, err := f.svc.Login(ctx, "g@x.com", "updated1"); err != nil {
		t.Fatalf("login with updated password: %v", err)
	}
}

func TestMe(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	account, pair, err := f.svc.Register(ctx, "Hank", "h@x.com", "secret123", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	claims, err := f.svc.TokenManager().ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}

	me, err := f.svc.Me(ctx, claims)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.ID != account.ID || me.Email != "h@x.com" {
		t.Fatalf("unexpected account: %+v", me)
	}

	delete(f.repo.accounts, account.ID)
	if _, err := f.svc.Me(ctx, claims); errCode(t, err) != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
