package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"hackmate/internal/queue"
)

// TimelineWriter adds posts to the cached timeline. cache.TimelineCache
// satisfies it.
type TimelineWriter interface {
	AddPost(ctx context.Context, postID string, timestamp int64) error
}

// MessageNotifier pushes new-message notifications. The notification
// service satisfies it.
type MessageNotifier interface {
	NotifyMessage(ctx context.Context, recipientID, conversationID, senderName, content string) error
}

// Handler processes events from the queue.
type Handler struct {
	timeline TimelineWriter  // Can be nil when the timeline cache is disabled
	notifier MessageNotifier // Can be nil when push is not configured
}

// NewHandler creates a new event handler.
func NewHandler(timeline TimelineWriter, notifier MessageNotifier) *Handler {
	return &Handler{
		timeline: timeline,
		notifier: notifier,
	}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.Event) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventPostCreated:
		err = h.handlePostCreated(ctx, event)
	case queue.EventMessageSent:
		err = h.handleMessageSent(ctx, event)
	case queue.EventConversationStarted:
		log.Printf("[Worker] ConversationStarted: conversation=%s sender=%s recipient=%s",
			event.ConversationID, event.SenderID, event.RecipientID)
	default:
		log.Printf("[Worker] Unknown event type: %q", event.Type)
		return fmt.Errorf("unknown event type: %q", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

// handlePostCreated re-adds the post to the timeline. ZADD is idempotent, so
// this repairs a cache write the request path lost.
func (h *Handler) handlePostCreated(ctx context.Context, event queue.Event) error {
	if h.timeline == nil {
		return nil
	}
	if err := h.timeline.AddPost(ctx, event.PostID, event.PostCreatedAt); err != nil {
		return fmt.Errorf("add post to timeline: %w", err)
	}
	return nil
}

// handleMessageSent notifies the other participant.
func (h *Handler) handleMessageSent(ctx context.Context, event queue.Event) error {
	if h.notifier == nil {
		return nil
	}
	if event.RecipientID == "" || event.RecipientID == event.SenderID {
		return nil
	}

	err := h.notifier.NotifyMessage(ctx, event.RecipientID, event.ConversationID, event.SenderName, event.Content)
	if err != nil {
		return fmt.Errorf("notify message: %w", err)
	}
	return nil
}
