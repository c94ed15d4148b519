package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/garuda/remoteauth/internal/domain"
	"github.com/garuda/remoteauth/internal/repository"
)

// CreateRefreshToken stores a server-side refresh token.
func (r *Repository) CreateRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	if token == nil || token.Token == "" {
		return repository.ErrInvalidArgument
	}
	const query = `INSERT INTO refresh_tokens (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, NOW())`
	_, err := r.pool.Exec(ctx, query, token.Token, token.UserID, token.ExpiresAt.UTC())
	return err
}

// GetRefreshToken looks up a refresh token by its opaque value.
func (r *Repository) GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	const query = `SELECT token, user_id, expires_at, created_at FROM refresh_tokens WHERE token = $1`
	row := r.pool.QueryRow(ctx, query, token)
	var t domain.RefreshToken
	if err := row.Scan(&t.Token, &t.UserID, &t.ExpiresAt, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// DeleteRefreshToken removes a refresh token. Absent tokens are not an error.
func (r *Repository) DeleteRefreshToken(ctx context.Context, token string) error {
	const query = `DELETE FROM refresh_tokens WHERE token = $1`
	_, err := r.pool.Exec(ctx, query, token)
	return err
}
