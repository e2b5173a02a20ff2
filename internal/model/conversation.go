package model

import (
	"strings"
	"time"
)

// UnknownSenderName is used when the sender's profile cannot be resolved.
const UnknownSenderName = "Unknown"

// Conversation is a two-party channel. ParticipantIDs is kept sorted so the
// pair is order-insensitive.
type Conversation struct {
	ID             string    `db:"id" json:"id" firestore:"-"`
	ParticipantIDs []string  `db:"-" json:"participant_ids" firestore:"participantIds"`
	PairKey        string    `db:"pair_key" json:"-" firestore:"pairKey"`
	LastMessage    *string   `db:"last_message" json:"last_message" firestore:"lastMessage"`
	CreatedAt      time.Time `db:"created_at" json:"created_at" firestore:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at" firestore:"updatedAt"`
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not userID.
func (c *Conversation) OtherParticipant(userID string) string {
	for _, id := range c.ParticipantIDs {
		if id != userID {
			return id
		}
	}
	return ""
}

// SortedPair orders two user ids.
func SortedPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// PairKey identifies the unordered pair {a, b}.
func PairKey(a, b string) string {
	lo, hi := SortedPair(a, b)
	return lo + ":" + hi
}

// Message is one entry in a conversation log, ordered by (CreatedAt, ID).
type Message struct {
	ID             string    `db:"id" json:"id" firestore:"-"`
	ConversationID string    `db:"conversation_id" json:"conversation_id" firestore:"conversationId"`
	SenderID       string    `db:"sender_id" json:"sender_id" firestore:"senderId"`
	SenderName     string    `db:"sender_name" json:"sender_name" firestore:"senderName"`
	Content        string    `db:"content" json:"content" firestore:"content"`
	CreatedAt      time.Time `db:"created_at" json:"created_at" firestore:"createdAt"`
}

// MessageCursor positions a read after a given message.
type MessageCursor struct {
	CreatedAt time.Time
	ID        string
}

// After returns the cursor positioned just past m.
func (m *Message) After() *MessageCursor {
	return &MessageCursor{CreatedAt: m.CreatedAt, ID: m.ID}
}

// StartConversationRequest is the body for POST /conversations.
type StartConversationRequest struct {
	UserID string `json:"user_id"`
}

// StartConversationResponse is returned by POST /conversations.
type StartConversationResponse struct {
	ConversationID string `json:"conversation_id"`
}

// SendMessageRequest is the body for POST /conversations/{id}/messages.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// NormalizeContent trims message content, reporting ErrEmptyContent when
// nothing remains.
func NormalizeContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrEmptyContent
	}
	return trimmed, nil
}
