package repositories

import (
	"context"
	"fmt"

	"github.com/vidshare/backend/internal/db"
)

// PostgresCredentialStore persists refresh credentials on the users table.
type PostgresCredentialStore struct {
	pool db.Pool
}

// NewPostgresCredentialStore constructs a credential store backed by PostgreSQL.
func NewPostgresCredentialStore(pool db.Pool) *PostgresCredentialStore {
	return &PostgresCredentialStore{pool: pool}
}

// SetRefreshCredential overwrites the stored refresh credential of a user.
func (s *PostgresCredentialStore) SetRefreshCredential(ctx context.Context, userID, token string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE users SET refresh_token = $2 WHERE id = $1`, userID, token)
	if err != nil {
		return fmt.Errorf("set refresh credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SwapRefreshCredential replaces expected with next only if expected is still the stored value.
func (s *PostgresCredentialStore) SwapRefreshCredential(ctx context.Context, userID, expected, next string) (bool, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token = $3
        WHERE id = $1 AND refresh_token = $2
    `, userID, expected, next)
	if err != nil {
		return false, fmt.Errorf("swap refresh credential: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// ClearRefreshCredential removes the stored refresh credential. Clearing an
// already empty credential is not an error.
func (s *PostgresCredentialStore) ClearRefreshCredential(ctx context.Context, userID string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE users SET refresh_token = NULL WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear refresh credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ CredentialStore = (*PostgresCredentialStore)(nil)
