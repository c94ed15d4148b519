package domain

import "time"

// User represents an account in the credential store. PasswordHash is nil for
// accounts created through a federated provider that never set a password.
type User struct {
	ID            string
	Email         string
	PasswordHash  []byte
	GoogleSubject *string
	EmailVerified bool
	CreatedAt     time.Time
}

// HasPassword reports whether the account can authenticate with a password.
func (u User) HasPassword() bool {
	return len(u.PasswordHash) > 0
}
