package repository

import (
	"context"
	"time"

	"github.com/garuda/remoteauth/internal/domain"
)

// UserRepository persists user accounts. CreateUser must be atomic with
// respect to the normalized-email uniqueness check: two concurrent creates
// with the same email yield exactly one success and one ErrEmailExists.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByGoogleSubject(ctx context.Context, subject string) (*domain.User, error)
	BindGoogleSubject(ctx context.Context, userID, subject string) error
	SetEmailVerified(ctx context.Context, userID string) error
}

// PhoneVerificationRepository persists phone verification challenges.
type PhoneVerificationRepository interface {
	CreateVerification(ctx context.Context, verification *domain.PhoneVerification) error
	GetVerification(ctx context.Context, id string) (*domain.PhoneVerification, error)
	// ConsumeVerification marks the challenge consumed if and only if it is
	// unconsumed and unexpired at now. At most one concurrent caller wins.
	ConsumeVerification(ctx context.Context, id string, now time.Time) (*domain.PhoneVerification, error)
}

// RefreshTokenRepository stores server-side refresh tokens.
type RefreshTokenRepository interface {
	CreateRefreshToken(ctx context.Context, token *domain.RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	// DeleteRefreshToken removes a token; deleting an absent token is not an error.
	DeleteRefreshToken(ctx context.Context, token string) error
}
