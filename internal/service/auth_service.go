package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/famguard/guardian-service/internal/auth"
	"github.com/famguard/guardian-service/internal/config"
	"github.com/famguard/guardian-service/internal/domain"
	"github.com/famguard/guardian-service/internal/events"
	"github.com/famguard/guardian-service/internal/repository"
	apperrors "github.com/famguard/guardian-service/pkg/util"
)

// IdentityResolver verifies a third-party identity token and extracts the
// federated identity. Satisfied by auth.GoogleVerifier.
type IdentityResolver interface {
	Verify(ctx context.Context, rawToken string) (*auth.FederatedIdentity, error)
}

// TokenPair bundles a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AuthService coordinates registration, login, federated login, refresh,
// logout, and the password lifecycle.
type AuthService struct {
	accounts      repository.AccountRepository
	tokens        *auth.TokenManager
	revocations   auth.RevocationStore
	identity      IdentityResolver
	dispatcher    events.Dispatcher
	bcryptCost    int
	revocationTTL time.Duration
}

// AuthDependencies encapsulates collaborator requirements for the auth service.
type AuthDependencies struct {
	AccountRepo     repository.AccountRepository
	RevocationStore auth.RevocationStore
	Identity        IdentityResolver
	Dispatcher      events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		accounts: deps.AccountRepo,
		tokens: auth.NewTokenManager(
			cfg.Auth.JWTSecret,
			cfg.Auth.AccessTokenTTL(),
			cfg.Auth.RefreshTokenTTL(),
			cfg.Auth.PasswordResetTTL(),
		),
		revocations:   deps.RevocationStore,
		identity:      deps.Identity,
		dispatcher:    deps.Dispatcher,
		bcryptCost:    cfg.Auth.BcryptCost,
		revocationTTL: cfg.Auth.RevocationTTL(),
	}
}

// Register creates a new parent account and returns a token pair.
func (s *AuthService) Register(ctx context.Context, name, email, password string, plan domain.SubscriptionPlan) (*domain.Account, *TokenPair, error) {
	if plan == "" {
		plan = domain.PlanBasic
	}
	if !plan.Valid() {
		return nil, nil, apperrors.NewValidationError("unknown subscription plan", map[string]any{"plan": string(plan)})
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	account := &domain.Account{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         domain.RoleUser,
		Subscription: plan,
		Active:       true,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	pair, err := s.issuePair(account)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	_ = s.accounts.TouchLastLogin(ctx, account.ID)

	s.publish(ctx, events.EventAccountRegistered, &account.ID, account.Email, events.AccountRegisteredPayload{
		Subscription: account.Subscription,
	})
	return account, pair, nil
}

// Login authenticates with email and password. Unknown email and wrong
// password produce an identical rejection.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Account, *TokenPair, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.publish(ctx, events.EventLoginFailed, nil, email, events.LoginFailedPayload{Reason: "unknown_email"})
			return nil, nil, apperrors.NewInvalidCredentials()
		}
		return nil, nil, apperrors.MapError(err)
	}

	if !auth.VerifyPassword(password, account.PasswordHash) {
		s.publish(ctx, events.EventLoginFailed, &account.ID, email, events.LoginFailedPayload{Reason: "wrong_password"})
		return nil, nil, apperrors.NewInvalidCredentials()
	}
	if !account.Active {
		s.publish(ctx, events.EventLoginFailed, &account.ID, email, events.LoginFailedPayload{Reason: "deactivated"})
		return nil, nil, apperrors.NewUnauthorized("account is deactivated")
	}

	pair, err := s.issuePair(account)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	_ = s.accounts.TouchLastLogin(ctx, account.ID)

	s.publish(ctx, events.EventLoginSucceeded, &account.ID, account.Email, nil)
	return account, pair, nil
}

// LoginWithGoogle verifies a Google ID token and links or creates the local
// account: first by federated id, then by email, then a fresh passwordless
// account.
func (s *AuthService) LoginWithGoogle(ctx context.Context, rawToken string) (*domain.Account, *TokenPair, error) {
	identity, err := s.identity.Verify(ctx, rawToken)
	if err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid Google token")
	}

	var linked, created bool
	account, err := s.accounts.GetByGoogleID(ctx, identity.GoogleID)
	if errors.Is(err, pgx.ErrNoRows) {
		account, err = s.accounts.GetByEmail(ctx, identity.Email)
		switch {
		case err == nil:
			if linkErr := s.accounts.LinkGoogle(ctx, account.ID, identity.GoogleID, identity.Avatar); linkErr != nil {
				return nil, nil, apperrors.MapError(linkErr)
			}
			account.GoogleID = identity.GoogleID
			if identity.Avatar != "" {
				account.Avatar = identity.Avatar
			}
			linked = true
		case errors.Is(err, pgx.ErrNoRows):
			account = &domain.Account{
				Email:        identity.Email,
				Name:         identity.Name,
				Avatar:       identity.Avatar,
				Role:         domain.RoleUser,
				Subscription: domain.PlanBasic,
				GoogleID:     identity.GoogleID,
				Active:       true,
			}
			if createErr := s.accounts.Create(ctx, account); createErr != nil {
				return nil, nil, apperrors.MapError(createErr)
			}
			created = true
		default:
			return nil, nil, apperrors.MapError(err)
		}
	} else if err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	if !account.Active {
		return nil, nil, apperrors.NewUnauthorized("account is deactivated")
	}

	pair, err := s.issuePair(account)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	_ = s.accounts.TouchLastLogin(ctx, account.ID)

	s.publish(ctx, events.EventGoogleLogin, &account.ID, account.Email, events.GoogleLoginPayload{Linked: linked, Created: created})
	return account, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair after re-checking
// that the account still exists and is active.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.Account, *TokenPair, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid refresh token")
	}

	account, err := s.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid refresh token")
		}
		return nil, nil, apperrors.MapError(err)
	}
	if !account.Active {
		return nil, nil, apperrors.NewUnauthorized("account is deactivated")
	}

	pair, err := s.issuePair(account)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return account, pair, nil
}

// Logout revokes the presented access token's jti. The write is idempotent;
// repeating it refreshes the entry and never errors the store.
func (s *AuthService) Logout(ctx context.Context, claims *auth.AccessClaims) error {
	if claims.ID == "" {
		return nil
	}
	expiresAt := time.Now().Add(s.revocationTTL)
	if err := s.revocations.Revoke(ctx, claims.ID, expiresAt); err != nil {
		return apperrors.MapError(err)
	}
	s.publish(ctx, events.EventTokenRevoked, &claims.Subject, claims.Email, events.TokenRevokedPayload{JTI: claims.ID})
	return nil
}

// Me loads the account behind verified claims.
func (s *AuthService) Me(ctx context.Context, claims *auth.AccessClaims) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("account", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return account, nil
}

// RequestPasswordReset mints a reset token for an existing account. The
// caller decides how much of the outcome to reveal.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, time.Time, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, apperrors.NewNotFound("account", nil)
		}
		return "", time.Time{}, apperrors.MapError(err)
	}

	token, expiresAt, err := s.tokens.IssuePasswordReset(account.Email)
	if err != nil {
		return "", time.Time{}, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventPasswordResetRequested, &account.ID, account.Email, nil)
	return token, expiresAt, nil
}

// ConfirmPasswordReset consumes a reset token and installs a new password.
// The account is resolved by the token's email claim.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	claims, err := s.tokens.ParsePasswordReset(tokenStr)
	if err != nil {
		return apperrors.NewUnauthorized("invalid or expired reset token")
	}

	account, err := s.accounts.GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("account", nil)
		}
		return apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := s.accounts.UpdatePassword(ctx, account.ID, hash); err != nil {
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.EventPasswordResetCompleted, &account.ID, account.Email, nil)
	return nil
}

// ChangePassword verifies the current password before installing a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, claims *auth.AccessClaims, currentPassword, newPassword string) error {
	account, err := s.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("account", nil)
		}
		return apperrors.MapError(err)
	}

	if !auth.VerifyPassword(currentPassword, account.PasswordHash) {
		return apperrors.NewInvalidCredentials()
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := s.accounts.UpdatePassword(ctx, account.ID, hash); err != nil {
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.EventPasswordChanged, &account.ID, account.Email, nil)
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

func (s *AuthService) issuePair(account *domain.Account) (*TokenPair, error) {
	accessToken, accessExp, err := s.tokens.IssueAccess(account.ID, account.Email)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExp, err := s.tokens.IssueRefresh(account.ID, account.Email)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, accountID *string, email string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		AccountID: accountID,
		Email:     email,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
