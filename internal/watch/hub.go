package watch

import (
	"context"
	"sync"
)

// Topics observed by clients.
const (
	TopicPosts = "posts"
	TopicUsers = "users"
)

// InboxTopic carries changes to the conversation list of userID.
func InboxTopic(userID string) string { return "inbox:" + userID }

// ConversationTopic carries changes to one conversation's message log.
func ConversationTopic(conversationID string) string { return "conversation:" + conversationID }

// Relay fans change notifications out to every server instance. Each
// instance's hub receives them through Deliver.
type Relay interface {
	Publish(ctx context.Context, topics ...string) error
}

// Hub tracks subscribers per topic. A subscription is a signal channel with
// a buffer of one: pending signals coalesce, so a slow reader sees one
// wake-up rather than a backlog.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[chan struct{}]struct{}
	relay Relay
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[chan struct{}]struct{})}
}

// SetRelay routes Notify through r. Without a relay notifications stay in
// process.
func (h *Hub) SetRelay(r Relay) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.relay = r
}

// Subscribe returns a channel that is signalled once immediately and again
// after every change to topic. It is closed when ctx ends.
func (h *Hub) Subscribe(ctx context.Context, topic string) <-chan struct{} {
	ch := make(chan struct{}, 1)
	ch <- struct{}{}

	h.mu.Lock()
	if h.rooms[topic] == nil {
		h.rooms[topic] = make(map[chan struct{}]struct{})
	}
	h.rooms[topic][ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.leave(topic, ch)
	}()
	return ch
}

func (h *Hub) leave(topic string, ch chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.rooms[topic]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(h.rooms, topic)
		}
	}
	close(ch)
}

// Notify signals that topics changed. It never blocks on subscribers.
func (h *Hub) Notify(ctx context.Context, topics ...string) {
	h.mu.RLock()
	relay := h.relay
	h.mu.RUnlock()

	if relay != nil {
		if err := relay.Publish(ctx, topics...); err == nil {
			return
		}
		// Other instances miss this change; local watchers still see it
	}
	h.Deliver(topics...)
}

// Deliver signals local subscribers of topics.
func (h *Hub) Deliver(topics ...string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, topic := range topics {
		for ch := range h.rooms[topic] {
			select {
			case ch <- struct{}{}:
			default:
				// A signal is already pending
			}
		}
	}
}

// Subscribers returns the number of live subscriptions on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[topic])
}
