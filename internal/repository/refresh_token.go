package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"hackmate/internal/model"
)

type refreshTokenRepository struct {
	db *sqlx.DB
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db *sqlx.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// Create inserts a new refresh token into the database
func (r *refreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	query := r.db.Rebind(`
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query, token.ID, token.UserID, token.TokenHash, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

// FindByTokenHash retrieves a refresh token by its hash
func (r *refreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	query := r.db.Rebind(`
		SELECT id, user_id, token_hash, expires_at, created_at, revoked_at, replaced_by
		FROM refresh_tokens
		WHERE token_hash = ?
	`)

	var token model.RefreshToken
	err := r.db.GetContext(ctx, &token, query, tokenHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}
	return &token, nil
}

// Revoke marks a token as revoked and optionally links to its replacement
func (r *refreshTokenRepository) Revoke(ctx context.Context, id string, replacedBy *string) error {
	query := r.db.Rebind(`
		UPDATE refresh_tokens
		SET revoked_at = ?, replaced_by = ?
		WHERE id = ? AND revoked_at IS NULL
	`)

	_, err := r.db.ExecContext(ctx, query, time.Now().UTC(), replacedBy, id)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllForUser revokes all active refresh tokens for a user
func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	query := r.db.Rebind(`
		UPDATE refresh_tokens
		SET revoked_at = ?
		WHERE user_id = ? AND revoked_at IS NULL
	`)

	_, err := r.db.ExecContext(ctx, query, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to revoke all tokens for user: %w", err)
	}
	return nil
}

// DeleteExpired removes tokens that expired before the given instant
func (r *refreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := r.db.Rebind(`DELETE FROM refresh_tokens WHERE expires_at < ?`)

	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return result.RowsAffected()
}
