package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the event stream
const (
	EventPostCreated         = "post_created"
	EventMessageSent         = "message_sent"
	EventConversationStarted = "conversation_started"
)

// Stream names
const (
	StreamEvents = "stream:events"
)

// Consumer group name for side-effect workers
const (
	ConsumerGroupEvents = "event_workers"
)

// Event represents an event published to the event stream.
// All events share this structure; unused fields are omitted.
type Event struct {
	Type      string `json:"type"`      // EventPostCreated, EventMessageSent, EventConversationStarted
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	// Post events (PostCreated)
	PostID        string `json:"post_id,omitempty"`
	AuthorID      string `json:"author_id,omitempty"`
	PostCreatedAt int64  `json:"post_created_at,omitempty"` // Unix microseconds, the timeline score

	// Conversation events (MessageSent, ConversationStarted)
	ConversationID string `json:"conversation_id,omitempty"`
	SenderID       string `json:"sender_id,omitempty"`
	RecipientID    string `json:"recipient_id,omitempty"`
	MessageID      string `json:"message_id,omitempty"`
	SenderName     string `json:"sender_name,omitempty"`
	Content        string `json:"content,omitempty"`
}

// NewPostCreatedEvent creates an event for when a user creates a post.
// Worker will make sure the post is on the cached timeline.
func NewPostCreatedEvent(postID, authorID string, createdAt time.Time) Event {
	return Event{
		Type:          EventPostCreated,
		Timestamp:     time.Now().Unix(),
		PostID:        postID,
		AuthorID:      authorID,
		PostCreatedAt: createdAt.UnixMicro(),
	}
}

// NewMessageSentEvent creates an event for a message appended to a conversation.
// Worker will push a notification to the recipient's devices.
func NewMessageSentEvent(conversationID, messageID, senderID, recipientID, senderName, content string) Event {
	return Event{
		Type:           EventMessageSent,
		Timestamp:      time.Now().Unix(),
		ConversationID: conversationID,
		MessageID:      messageID,
		SenderID:       senderID,
		RecipientID:    recipientID,
		SenderName:     senderName,
		Content:        content,
	}
}

// NewConversationStartedEvent creates an event for a newly created conversation.
func NewConversationStartedEvent(conversationID, senderID, recipientID string) Event {
	return Event{
		Type:           EventConversationStarted,
		Timestamp:      time.Now().Unix(),
		ConversationID: conversationID,
		SenderID:       senderID,
		RecipientID:    recipientID,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e Event) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseEvent parses an Event from Redis stream message values.
func ParseEvent(values map[string]interface{}) (Event, error) {
	data, ok := values["data"].(string)
	if !ok {
		return Event{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
