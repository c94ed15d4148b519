package google

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/garuda/remoteauth/internal/domain"
	"github.com/garuda/remoteauth/internal/repository"
	"github.com/garuda/remoteauth/internal/service/auth"
	"github.com/garuda/remoteauth/pkg/config"
)

const Provider = "google"

var (
	ErrNotConfigured = errors.New("google: sign-in not configured")
	ErrInvalidToken  = errors.New("google: invalid id token")
)

// Identity is the verified payload extracted from a provider ID token.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
}

// TokenVerifier validates a provider-signed ID token and extracts the identity.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// Service handles federated sign-in with Google.
type Service struct {
	users    repository.UserRepository
	auth     auth.Service
	verifier TokenVerifier
	logger   *slog.Logger
	cfg      config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, authSvc auth.Service, verifier TokenVerifier, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, auth: authSvc, verifier: verifier, logger: logger, cfg: cfg}
}

// Result is a successful federated sign-in.
type Result struct {
	User   *domain.User
	Tokens auth.TokenPair
}

// SignIn validates a Google ID token and signs the bound local user in,
// creating the account on first sign-in. The platform configuration check
// runs before token verification: a deployment without the required client
// identifier rejects every token for that platform.
func (s Service) SignIn(ctx context.Context, idToken, platform string) (*Result, error) {
	if err := s.checkPlatform(platform); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(idToken)
	if trimmed == "" {
		return nil, ErrInvalidToken
	}
	// Verification failures map to ErrInvalidToken; key service outages
	// pass through as server faults.
	identity, err := s.verifier.Verify(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	user, err := s.resolveUser(ctx, identity)
	if err != nil {
		return nil, err
	}
	tokens, err := s.auth.IssueTokens(ctx, user.ID, Provider)
	if err != nil {
		return nil, err
	}
	s.logger.Info("federated sign-in", "provider", Provider, "user_id", user.ID)
	return &Result{User: user, Tokens: tokens}, nil
}

// checkPlatform ensures the deployment registered a client identifier for the
// caller's platform.
func (s Service) checkPlatform(platform string) error {
	switch strings.ToLower(strings.TrimSpace(platform)) {
	case "web":
		if strings.TrimSpace(s.cfg.GoogleServerClientID) == "" {
			return ErrNotConfigured
		}
	case "android":
		if strings.TrimSpace(s.cfg.GoogleAndroidClientID) == "" {
			return ErrNotConfigured
		}
	case "ios":
		if strings.TrimSpace(s.cfg.GoogleIOSClientID) == "" {
			return ErrNotConfigured
		}
	default:
		if len(s.cfg.GoogleClientIDs()) == 0 {
			return ErrNotConfigured
		}
	}
	return nil
}

// resolveUser maps a verified identity onto a local account: by subject
// first, then by email (binding the subject), otherwise a fresh
// federated-only account.
func (s Service) resolveUser(ctx context.Context, identity *Identity) (*domain.User, error) {
	if identity == nil || identity.Subject == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetUserByGoogleSubject(ctx, identity.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	email := auth.NormalizeEmail(identity.Email)
	if email != "" {
		existing, err := s.users.GetUserByEmail(ctx, email)
		if err == nil {
			if err := s.users.BindGoogleSubject(ctx, existing.ID, identity.Subject); err != nil {
				return nil, err
			}
			if identity.EmailVerified && !existing.EmailVerified {
				if err := s.users.SetEmailVerified(ctx, existing.ID); err != nil {
					return nil, err
				}
				existing.EmailVerified = true
			}
			subject := identity.Subject
			existing.GoogleSubject = &subject
			return existing, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	subject := identity.Subject
	user = &domain.User{
		ID:            uuid.NewString(),
		Email:         email,
		GoogleSubject: &subject,
		EmailVerified: identity.EmailVerified,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			// Lost a race with a concurrent sign-in or registration; the
			// existing row wins and gets the subject bound to it.
			existing, getErr := s.users.GetUserByEmail(ctx, email)
			if getErr != nil {
				return nil, getErr
			}
			if bindErr := s.users.BindGoogleSubject(ctx, existing.ID, identity.Subject); bindErr != nil {
				return nil, bindErr
			}
			existing.GoogleSubject = &subject
			return existing, nil
		}
		return nil, err
	}
	s.logger.Info("federated user created", "provider", Provider, "user_id", user.ID)
	return user, nil
}
