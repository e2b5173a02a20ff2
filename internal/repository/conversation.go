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

type conversationRow struct {
	ID          string    `db:"id"`
	UserA       string    `db:"user_a"`
	UserB       string    `db:"user_b"`
	PairKey     string    `db:"pair_key"`
	LastMessage *string   `db:"last_message"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row *conversationRow) toModel() model.Conversation {
	return model.Conversation{
		ID:             row.ID,
		ParticipantIDs: []string{row.UserA, row.UserB},
		PairKey:        row.PairKey,
		LastMessage:    row.LastMessage,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

const conversationColumns = `id, user_a, user_b, pair_key, last_message, created_at, updated_at`

type conversationRepository struct {
	db *sqlx.DB
}

func NewConversationRepository(db *sqlx.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// Create inserts the conversation; the unique pair_key turns a racing
// duplicate into ErrConversationExists.
func (r *conversationRepository) Create(ctx context.Context, c *model.Conversation) error {
	if len(c.ParticipantIDs) != 2 {
		return fmt.Errorf("conversation needs exactly two participants, got %d", len(c.ParticipantIDs))
	}
	a, b := model.SortedPair(c.ParticipantIDs[0], c.ParticipantIDs[1])
	c.ParticipantIDs = []string{a, b}
	c.PairKey = model.PairKey(a, b)

	query := r.db.Rebind(`
		INSERT INTO conversations (id, user_a, user_b, pair_key, last_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query, c.ID, a, b, c.PairKey, c.LastMessage, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrConversationExists
		}
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id string) (*model.Conversation, error) {
	query := r.db.Rebind(`SELECT ` + conversationColumns + ` FROM conversations WHERE id = ?`)
	return r.getOne(ctx, query, id)
}

func (r *conversationRepository) FindByPair(ctx context.Context, userA, userB string) (*model.Conversation, error) {
	query := r.db.Rebind(`SELECT ` + conversationColumns + ` FROM conversations WHERE pair_key = ?`)
	return r.getOne(ctx, query, model.PairKey(userA, userB))
}

func (r *conversationRepository) getOne(ctx context.Context, query string, arg string) (*model.Conversation, error) {
	var row conversationRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrConversationNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	c := row.toModel()
	return &c, nil
}

func (r *conversationRepository) ListForUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	query := r.db.Rebind(`
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE user_a = ? OR user_b = ?
		ORDER BY updated_at DESC, id DESC
	`)

	var rows []conversationRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, userID); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	convs := make([]model.Conversation, len(rows))
	for i := range rows {
		convs[i] = rows[i].toModel()
	}
	return convs, nil
}

// UpdatePreview sets the last-message preview and timestamp.
func (r *conversationRepository) UpdatePreview(ctx context.Context, id, preview string, at time.Time) error {
	query := r.db.Rebind(`UPDATE conversations SET last_message = ?, updated_at = ? WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, preview, at, id)
	if err != nil {
		return fmt.Errorf("update conversation preview: %w", err)
	}
	return expectOneRow(res, model.ErrConversationNotFound)
}
