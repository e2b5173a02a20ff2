package repository

import (
	"context"
	"time"

	"hackmate/internal/cache"
	"hackmate/internal/model"
)

// UserRepository is the Identity Store.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Update persists the profile fields of user (name, github, avatar, privacy, skills).
	Update(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id, passwordHashed string) error
	Count(ctx context.Context) (int, error)
	// Delete removes a user. Removing a missing user is not an error.
	Delete(ctx context.Context, id string) error
}

// PostRepository is the Content Store.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	// GetByIDs returns the posts that exist, in the order of ids.
	GetByIDs(ctx context.Context, ids []string) ([]model.Post, error)
	// List returns every post, newest first.
	List(ctx context.Context) ([]model.Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]model.Post, error)
	// ListTimeline returns every post id with its creation score, for cache warming.
	ListTimeline(ctx context.Context) ([]cache.PostScore, error)
	IncrementViews(ctx context.Context, id string) error
	IncrementReaction(ctx context.Context, id string, kind model.ReactionKind) error
}

// ConversationRepository holds conversation metadata.
type ConversationRepository interface {
	// Create fails with model.ErrConversationExists when the pair already has one.
	Create(ctx context.Context, conv *model.Conversation) error
	GetByID(ctx context.Context, id string) (*model.Conversation, error)
	FindByPair(ctx context.Context, userA, userB string) (*model.Conversation, error)
	// ListForUser returns the user's conversations, most recently updated first.
	ListForUser(ctx context.Context, userID string) ([]model.Conversation, error)
	UpdatePreview(ctx context.Context, id, preview string, at time.Time) error
}

// MessageRepository holds the per-conversation message logs.
type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	// ListAfter returns up to limit messages ordered by (created_at, id),
	// starting after the cursor (from the beginning when nil).
	ListAfter(ctx context.Context, conversationID string, after *model.MessageCursor, limit int) ([]model.Message, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type DeviceTokenRepository interface {
	// Upsert creates or updates a device token for a user
	Upsert(ctx context.Context, userID, token, platform string) error
	// GetByUserID returns all device tokens for a user
	GetByUserID(ctx context.Context, userID string) ([]model.DeviceToken, error)
	// Delete removes a device token
	Delete(ctx context.Context, token string) error
}

// SavedPostRepository backs the calendar of saved events.
type SavedPostRepository interface {
	// Save is idempotent.
	Save(ctx context.Context, userID, postID string) error
	Remove(ctx context.Context, userID, postID string) error
	ListPostIDs(ctx context.Context, userID string) ([]string, error)
}
