package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/garuda/remoteauth/internal/domain"
	"github.com/garuda/remoteauth/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository              = (*Repository)(nil)
	_ repository.PhoneVerificationRepository = (*Repository)(nil)
	_ repository.RefreshTokenRepository      = (*Repository)(nil)
)

const userColumns = `id, email, password_hash, google_subject, email_verified, created_at`

// CreateUser inserts a user. The unique index on lower(email) makes the
// duplicate check and the insert a single atomic operation.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (id, email, password_hash, google_subject, email_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		strings.ToLower(strings.TrimSpace(user.Email)),
		user.PasswordHash,
		user.GoogleSubject,
		user.EmailVerified,
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrEmailExists
		}
		return err
	}
	return nil
}

// GetUserByEmail fetches a user by normalized email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = lower($1)`
	row := r.pool.QueryRow(ctx, query, strings.TrimSpace(email))
	return scanUser(row)
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanUser(row)
}

// GetUserByGoogleSubject retrieves a user by federated provider subject.
func (r *Repository) GetUserByGoogleSubject(ctx context.Context, subject string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE google_subject = $1`
	row := r.pool.QueryRow(ctx, query, strings.TrimSpace(subject))
	return scanUser(row)
}

// BindGoogleSubject attaches a federated subject to an existing account.
// Fails with ErrInvalidArgument when the account already carries a different
// subject or the subject is bound elsewhere.
func (r *Repository) BindGoogleSubject(ctx context.Context, userID, subject string) error {
	const query = `UPDATE users
		SET google_subject = $2
		WHERE id = $1 AND (google_subject IS NULL OR google_subject = $2)`
	tag, err := r.pool.Exec(ctx, query, userID, strings.TrimSpace(subject))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrInvalidArgument
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrInvalidArgument
	}
	return nil
}

// SetEmailVerified marks the user's email address as verified.
func (r *Repository) SetEmailVerified(ctx context.Context, userID string) error {
	const query = `UPDATE users SET email_verified = TRUE WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u       domain.User
		subject *string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &subject, &u.EmailVerified, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.GoogleSubject = subject
	return &u, nil
}
