package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/garuda/remoteauth/internal/domain"
	"github.com/garuda/remoteauth/internal/repository"
	"github.com/garuda/remoteauth/pkg/config"
	"github.com/garuda/remoteauth/pkg/crypto"
	jwtpkg "github.com/garuda/remoteauth/pkg/jwt"
)

var (
	ErrEmailExists         = errors.New("auth: email already exists")
	ErrInvalidCredentials  = errors.New("auth: invalid credentials")
	ErrInvalidInput        = errors.New("auth: invalid input")
	ErrInvalidRefreshToken = errors.New("auth: invalid refresh token")
)

// Compared on the account-miss paths of Login so response timing does not
// reveal whether an email is registered. The result is always discarded.
var timingEqualizerHash, _ = crypto.HashPassword("timing-equalizer")

// Service handles password authentication workflows.
type Service struct {
	users         repository.UserRepository
	refreshTokens repository.RefreshTokenRepository
	logger        *slog.Logger
	cfg           config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, refreshTokens repository.RefreshTokenRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, refreshTokens: refreshTokens, logger: logger, cfg: cfg}
}

// TokenPair contains an access token and its server-side refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Register creates a user with a bcrypt-hashed password. The email is
// normalized before storage; the plaintext password is never persisted.
func (s Service) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") || password == "" {
		return nil, ErrInvalidInput
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login authenticates a user and returns tokens. A missing account and a
// password mismatch are indistinguishable to the caller so that login cannot
// be used to probe which emails are registered.
func (s Service) Login(ctx context.Context, email, password string) (*domain.User, TokenPair, error) {
	user, err := s.users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = crypto.ComparePassword(timingEqualizerHash, password)
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}
	if !user.HasPassword() {
		_ = crypto.ComparePassword(timingEqualizerHash, password)
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	tokens, err := s.IssueTokens(ctx, user.ID, "password")
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, tokens, nil
}

// Refresh rotates a refresh token and mints a fresh access token.
func (s Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	trimmed := strings.TrimSpace(refreshToken)
	if trimmed == "" {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	stored, err := s.refreshTokens.GetRefreshToken(ctx, trimmed)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrInvalidRefreshToken
		}
		return TokenPair{}, err
	}
	if stored.Expired(time.Now()) {
		_ = s.refreshTokens.DeleteRefreshToken(ctx, trimmed)
		return TokenPair{}, ErrInvalidRefreshToken
	}
	if err := s.refreshTokens.DeleteRefreshToken(ctx, trimmed); err != nil {
		return TokenPair{}, err
	}
	tokens, err := s.IssueTokens(ctx, stored.UserID, "password")
	if err != nil {
		return TokenPair{}, err
	}
	s.logger.Info("refresh token rotated", "user_id", stored.UserID)
	return tokens, nil
}

// Authorize validates a bearer token and returns the associated user and claims.
func (s Service) Authorize(ctx context.Context, token string) (*domain.User, *jwtpkg.Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, nil, errors.New("token required")
	}
	claims, err := jwtpkg.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	return user, claims, nil
}

// IssueTokens mints a signed access token and persists a new refresh token.
// Shared with the federated sign-in flow.
func (s Service) IssueTokens(ctx context.Context, userID, provider string) (TokenPair, error) {
	access, err := jwtpkg.GenerateToken(userID, provider, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := randomToken()
	if err != nil {
		return TokenPair{}, err
	}
	record := &domain.RefreshToken{
		Token:     refresh,
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(s.cfg.RefreshTokenTTL),
	}
	if err := s.refreshTokens.CreateRefreshToken(ctx, record); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.cfg.AccessTokenTTL}, nil
}

// NormalizeEmail lowercases and trims an email for case-insensitive matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
