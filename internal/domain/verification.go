package domain

import "time"

// PhoneVerification tracks the lifecycle of a phone verification challenge.
// The one-time code itself is never stored, only its digest.
type PhoneVerification struct {
	ID          string
	PhoneNumber string
	CodeHash    []byte
	ExpiresAt   time.Time
	CreatedAt   time.Time
	ConsumedAt  *time.Time
}

// Expired reports whether the challenge is expired relative to now.
func (v PhoneVerification) Expired(now time.Time) bool {
	if v.ExpiresAt.IsZero() {
		return false
	}
	return now.UTC().After(v.ExpiresAt.UTC())
}

// Consumed reports whether the challenge has already been confirmed.
func (v PhoneVerification) Consumed() bool {
	return v.ConsumedAt != nil
}
