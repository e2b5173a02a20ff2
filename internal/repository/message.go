package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"hackmate/internal/model"
)

type messageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create appends a message to its conversation log.
func (r *messageRepository) Create(ctx context.Context, m *model.Message) error {
	query := r.db.Rebind(`
		INSERT INTO messages (id, conversation_id, sender_id, sender_name, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query, m.ID, m.ConversationID, m.SenderID, m.SenderName, m.Content, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListAfter pages through a conversation log in (created_at, id) order.
func (r *messageRepository) ListAfter(ctx context.Context, conversationID string, after *model.MessageCursor, limit int) ([]model.Message, error) {
	var (
		query string
		args  []any
	)
	if after == nil {
		query = `
			SELECT id, conversation_id, sender_id, sender_name, content, created_at
			FROM messages
			WHERE conversation_id = ?
			ORDER BY created_at ASC, id ASC
			LIMIT ?
		`
		args = []any{conversationID, limit}
	} else {
		query = `
			SELECT id, conversation_id, sender_id, sender_name, content, created_at
			FROM messages
			WHERE conversation_id = ?
			  AND (created_at > ? OR (created_at = ? AND id > ?))
			ORDER BY created_at ASC, id ASC
			LIMIT ?
		`
		args = []any{conversationID, after.CreatedAt, after.CreatedAt, after.ID, limit}
	}

	messages := []model.Message{}
	if err := r.db.SelectContext(ctx, &messages, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}
