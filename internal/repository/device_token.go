package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"hackmate/internal/model"
)

type deviceTokenRepository struct {
	db *sqlx.DB
}

func NewDeviceTokenRepository(db *sqlx.DB) DeviceTokenRepository {
	return &deviceTokenRepository{db: db}
}

// Upsert creates or updates a device token for a user.
// If the token already exists, it moves to userID.
func (r *deviceTokenRepository) Upsert(ctx context.Context, userID, token, platform string) error {
	query := r.db.Rebind(`
		INSERT INTO device_tokens (token, user_id, platform, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (token) DO UPDATE SET
			user_id = excluded.user_id,
			platform = excluded.platform,
			updated_at = excluded.updated_at
	`)
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, token, userID, platform, now, now)
	if err != nil {
		return fmt.Errorf("upsert device token: %w", err)
	}
	return nil
}

// GetByUserID returns all device tokens for a user.
func (r *deviceTokenRepository) GetByUserID(ctx context.Context, userID string) ([]model.DeviceToken, error) {
	query := r.db.Rebind(`
		SELECT user_id, token, platform, created_at, updated_at
		FROM device_tokens
		WHERE user_id = ?
		ORDER BY updated_at DESC
	`)
	var tokens []model.DeviceToken
	err := r.db.SelectContext(ctx, &tokens, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get device tokens: %w", err)
	}
	return tokens, nil
}

// Delete removes a device token.
func (r *deviceTokenRepository) Delete(ctx context.Context, token string) error {
	query := r.db.Rebind(`DELETE FROM device_tokens WHERE token = ?`)
	_, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("delete device token: %w", err)
	}
	return nil
}
