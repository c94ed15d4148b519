package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/garuda/remoteauth/internal/domain"
	"github.com/garuda/remoteauth/internal/repository"
	"github.com/garuda/remoteauth/pkg/config"
	"github.com/garuda/remoteauth/pkg/crypto"
	jwtpkg "github.com/garuda/remoteauth/pkg/jwt"
)

func testConfig() config.APIConfig {
	return config.APIConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
}

func TestRegisterHashesPasswordAndNormalizesEmail(t *testing.T) {
	var created *domain.User
	users := userRepoMock{
		createFunc: func(_ context.Context, user *domain.User) error {
			created = user
			return nil
		},
	}
	svc := New(users, refreshRepoMock{}, newLogger(), testConfig())

	user, err := svc.Register(context.Background(), "  Alice@Example.COM ", "Testing123!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatalf("expected user to be persisted")
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.EmailVerified {
		t.Fatalf("expected new user to be unverified")
	}
	if user.ID == "" {
		t.Fatalf("expected generated user id")
	}
	if string(user.PasswordHash) == "Testing123!" {
		t.Fatalf("plaintext password stored")
	}
	if err := crypto.ComparePassword(user.PasswordHash, "Testing123!"); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := userRepoMock{
		createFunc: func(_ context.Context, _ *domain.User) error {
			return repository.ErrEmailExists
		},
	}
	svc := New(users, refreshRepoMock{}, newLogger(), testConfig())

	if _, err := svc.Register(context.Background(), "taken@example.com", "Testing123!"); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestRegisterRejectsEmptyInput(t *testing.T) {
	svc := New(userRepoMock{}, refreshRepoMock{}, newLogger(), testConfig())
	if _, err := svc.Register(context.Background(), "", "pw"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty email, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "a@b.dev", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty password, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "not-an-email", "pw"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for malformed email, got %v", err)
	}
}

func TestLoginSuccessIssuesTokenPair(t *testing.T) {
	hashed, err := crypto.HashPassword("Testing123!")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	users := userRepoMock{
		getByEmailFunc: func(_ context.Context, email string) (*domain.User, error) {
			if email != "alice@example.com" {
				t.Fatalf("unexpected email lookup: %s", email)
			}
			return &domain.User{ID: "user-1", Email: email, PasswordHash: hashed}, nil
		},
	}
	var storedRefresh *domain.RefreshToken
	refresh := refreshRepoMock{
		createFunc: func(_ context.Context, token *domain.RefreshToken) error {
			storedRefresh = token
			return nil
		},
	}
	svc := New(users, refresh, newLogger(), testConfig())

	user, tokens, err := svc.Login(context.Background(), "Alice@Example.com", "Testing123!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", tokens)
	}
	claims, err := jwtpkg.Parse(tokens.AccessToken, "test-secret")
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.UserID != "user-1" || claims.Provider != "password" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if storedRefresh == nil || storedRefresh.Token != tokens.RefreshToken {
		t.Fatalf("expected refresh token persisted")
	}
	if time.Until(storedRefresh.ExpiresAt) <= 0 {
		t.Fatalf("expected refresh expiry in future")
	}
}

func TestLoginUnknownEmailAndWrongPasswordIndistinguishable(t *testing.T) {
	hashed, err := crypto.HashPassword("correct-password")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	known := userRepoMock{
		getByEmailFunc: func(_ context.Context, _ string) (*domain.User, error) {
			return &domain.User{ID: "user-1", Email: "known@example.com", PasswordHash: hashed}, nil
		},
	}
	unknown := userRepoMock{
		getByEmailFunc: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, repository.ErrNotFound
		},
	}

	svc := New(known, refreshRepoMock{}, newLogger(), testConfig())
	_, _, errWrongPassword := svc.Login(context.Background(), "known@example.com", "wrong")

	svc = New(unknown, refreshRepoMock{}, newLogger(), testConfig())
	_, _, errUnknownEmail := svc.Login(context.Background(), "ghost@example.com", "whatever")

	if !errors.Is(errWrongPassword, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", errWrongPassword)
	}
	if !errors.Is(errUnknownEmail, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", errUnknownEmail)
	}
}

func TestLoginMissPathRunsFullCostComparison(t *testing.T) {
	// The account-miss paths burn a real bcrypt comparison so their timing
	// matches the wrong-password path; that only holds if the equalizer hash
	// is well formed. A malformed hash makes CompareHashAndPassword bail out
	// before any key derivation.
	err := crypto.ComparePassword(timingEqualizerHash, "wrong")
	if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		t.Fatalf("expected a genuine bcrypt mismatch, got %v", err)
	}
}

func TestLoginFederatedOnlyAccountRejected(t *testing.T) {
	subject := "google-sub-1"
	users := userRepoMock{
		getByEmailFunc: func(_ context.Context, _ string) (*domain.User, error) {
			return &domain.User{ID: "user-1", Email: "fed@example.com", GoogleSubject: &subject}, nil
		},
	}
	svc := New(users, refreshRepoMock{}, newLogger(), testConfig())

	if _, _, err := svc.Login(context.Background(), "fed@example.com", "anything"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for passwordless account, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	deleted := false
	var created *domain.RefreshToken
	refresh := refreshRepoMock{
		getFunc: func(_ context.Context, token string) (*domain.RefreshToken, error) {
			if token != "old-token" {
				t.Fatalf("unexpected token lookup: %s", token)
			}
			return &domain.RefreshToken{Token: token, UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
		deleteFunc: func(_ context.Context, token string) error {
			deleted = true
			return nil
		},
		createFunc: func(_ context.Context, token *domain.RefreshToken) error {
			created = token
			return nil
		},
	}
	svc := New(userRepoMock{}, refresh, newLogger(), testConfig())

	tokens, err := svc.Refresh(context.Background(), "old-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Fatalf("expected old refresh token deleted")
	}
	if created == nil || created.Token == "old-token" {
		t.Fatalf("expected a new refresh token persisted")
	}
	if tokens.RefreshToken != created.Token {
		t.Fatalf("returned refresh token does not match stored one")
	}
}

func TestRefreshExpiredTokenRejected(t *testing.T) {
	refresh := refreshRepoMock{
		getFunc: func(_ context.Context, token string) (*domain.RefreshToken, error) {
			return &domain.RefreshToken{Token: token, UserID: "user-1", ExpiresAt: time.Now().Add(-time.Minute)}, nil
		},
	}
	svc := New(userRepoMock{}, refresh, newLogger(), testConfig())

	if _, err := svc.Refresh(context.Background(), "stale"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRefreshUnknownTokenRejected(t *testing.T) {
	svc := New(userRepoMock{}, refreshRepoMock{}, newLogger(), testConfig())
	if _, err := svc.Refresh(context.Background(), "missing"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), "  "); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken for blank token, got %v", err)
	}
}

func TestAuthorizeRoundTrip(t *testing.T) {
	users := userRepoMock{
		getByIDFunc: func(_ context.Context, id string) (*domain.User, error) {
			if id != "user-1" {
				t.Fatalf("unexpected id lookup: %s", id)
			}
			return &domain.User{ID: id, Email: "alice@example.com"}, nil
		},
	}
	svc := New(users, refreshRepoMock{}, newLogger(), testConfig())

	token, err := jwtpkg.GenerateToken("user-1", "password", "test-secret", time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	user, claims, err := svc.Authorize(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" || claims.UserID != "user-1" {
		t.Fatalf("unexpected authorize result: %+v %+v", user, claims)
	}
}

func TestAuthorizeRejectsForgedToken(t *testing.T) {
	svc := New(userRepoMock{}, refreshRepoMock{}, newLogger(), testConfig())
	token, err := jwtpkg.GenerateToken("user-1", "password", "other-secret", time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, _, err := svc.Authorize(context.Background(), token); err == nil {
		t.Fatalf("expected error for token signed with wrong secret")
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
