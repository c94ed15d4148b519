package domain

import "time"

// RefreshToken is a long-lived opaque credential stored server-side so it can
// be revoked and rotated independently of session tokens.
type RefreshToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the refresh token is past its expiry.
func (t RefreshToken) Expired(now time.Time) bool {
	return now.UTC().After(t.ExpiresAt.UTC())
}
