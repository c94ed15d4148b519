package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/garuda/remoteauth/internal/domain"
	"github.com/garuda/remoteauth/internal/repository"
)

const (
	verificationInsert = `INSERT INTO phone_verifications (
		id,
		phone_number,
		code_hash,
		expires_at,
		created_at
	) VALUES (
		$1,$2,$3,$4,NOW()
	)`
	verificationSelect = `SELECT id, phone_number, code_hash, expires_at, created_at, consumed_at
		FROM phone_verifications WHERE id = $1`
)

// CreateVerification persists a new phone verification challenge.
func (r *Repository) CreateVerification(ctx context.Context, verification *domain.PhoneVerification) error {
	if verification == nil || verification.ID == "" {
		return repository.ErrInvalidArgument
	}
	_, err := r.pool.Exec(ctx, verificationInsert,
		verification.ID,
		verification.PhoneNumber,
		verification.CodeHash,
		verification.ExpiresAt.UTC(),
	)
	if err != nil {
		return err
	}
	verification.CreatedAt = time.Now().UTC()
	return nil
}

// GetVerification fetches a challenge by identifier.
func (r *Repository) GetVerification(ctx context.Context, id string) (*domain.PhoneVerification, error) {
	row := r.pool.QueryRow(ctx, verificationSelect, id)
	return scanVerification(row)
}

// ConsumeVerification marks the challenge consumed when it is still live.
// The conditional UPDATE guarantees at most one caller observes success even
// under concurrent confirmation attempts.
func (r *Repository) ConsumeVerification(ctx context.Context, id string, now time.Time) (*domain.PhoneVerification, error) {
	const query = `UPDATE phone_verifications
		SET consumed_at = $2
		WHERE id = $1
			AND consumed_at IS NULL
			AND expires_at > $2
		RETURNING id, phone_number, code_hash, expires_at, created_at, consumed_at`
	row := r.pool.QueryRow(ctx, query, id, now.UTC())
	return scanVerification(row)
}

func scanVerification(row pgx.Row) (*domain.PhoneVerification, error) {
	var (
		v          domain.PhoneVerification
		consumedAt sql.NullTime
	)
	if err := row.Scan(&v.ID, &v.PhoneNumber, &v.CodeHash, &v.ExpiresAt, &v.CreatedAt, &consumedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if consumedAt.Valid {
		value := consumedAt.Time.UTC()
		v.ConsumedAt = &value
	}
	return &v, nil
}
