package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type savedPostRepository struct {
	db *sqlx.DB
}

func NewSavedPostRepository(db *sqlx.DB) SavedPostRepository {
	return &savedPostRepository{db: db}
}

func (r *savedPostRepository) Save(ctx context.Context, userID, postID string) error {
	query := r.db.Rebind(`
		INSERT INTO saved_posts (user_id, post_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, post_id) DO NOTHING
	`)
	if _, err := r.db.ExecContext(ctx, query, userID, postID, time.Now().UTC()); err != nil {
		return fmt.Errorf("save post: %w", err)
	}
	return nil
}

func (r *savedPostRepository) Remove(ctx context.Context, userID, postID string) error {
	query := r.db.Rebind(`DELETE FROM saved_posts WHERE user_id = ? AND post_id = ?`)
	if _, err := r.db.ExecContext(ctx, query, userID, postID); err != nil {
		return fmt.Errorf("remove saved post: %w", err)
	}
	return nil
}

// ListPostIDs returns saved post ids, most recently saved first.
func (r *savedPostRepository) ListPostIDs(ctx context.Context, userID string) ([]string, error) {
	query := r.db.Rebind(`SELECT post_id FROM saved_posts WHERE user_id = ? ORDER BY created_at DESC`)

	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("list saved posts: %w", err)
	}
	return ids, nil
}
