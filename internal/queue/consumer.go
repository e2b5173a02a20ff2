package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message represents a message read from a Redis stream.
type Message struct {
	ID    string // Redis message ID (e.g., "1702000000000-0")
	Event Event
}

// Consumer defines the interface for consuming events from a stream.
type Consumer interface {
	// EnsureGroup creates the consumer group (and the stream) if missing.
	EnsureGroup(ctx context.Context, stream, group string) error

	// Read returns up to count new messages for consumer, blocking up to block.
	Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error)

	// Claim takes over messages another consumer left pending for longer
	// than minIdle, e.g. after a crash.
	Claim(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int64) ([]Message, error)

	// Ack acknowledges processed messages.
	Ack(ctx context.Context, stream, group string, messageIDs ...string) error

	// Pending returns the number of unacknowledged messages for the group.
	Pending(ctx context.Context, stream, group string) (int64, error)
}

// RedisConsumer implements Consumer using Redis Streams.
type RedisConsumer struct {
	client *redis.Client
}

// NewConsumer creates a new Consumer backed by Redis Streams.
func NewConsumer(client *redis.Client) Consumer {
	return &RedisConsumer{client: client}
}

// EnsureGroup uses XGROUP CREATE ... MKSTREAM starting at "$": events
// published before the first worker came up are not replayed.
func (c *RedisConsumer) EnsureGroup(ctx context.Context, stream, group string) error {
	err := c.client.XGroupCreateMkStream(ctx, stream, group, "$").Err()
	if err != nil {
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			return nil
		}
		log.Printf("[Consumer] EnsureGroup FAILED: stream=%s group=%s err=%v", stream, group, err)
		return fmt.Errorf("create consumer group: %w", err)
	}

	log.Printf("[Consumer] EnsureGroup OK: stream=%s group=%s (created)", stream, group)
	return nil
}

func (c *RedisConsumer) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()

	if errors.Is(err, redis.Nil) {
		// Timeout - no new messages
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}

	var messages []Message
	for _, s := range streams {
		messages = append(messages, parseMessages(s.Messages)...)
	}
	return messages, nil
}

func (c *RedisConsumer) Claim(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int64) ([]Message, error) {
	raw, _, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Start:    "0-0",
		Count:    count,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xautoclaim: %w", err)
	}

	messages := parseMessages(raw)
	if len(messages) > 0 {
		log.Printf("[Consumer] Claim OK: stream=%s group=%s consumer=%s count=%d", stream, group, consumer, len(messages))
	}
	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, stream, group string, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}

	if err := c.client.XAck(ctx, stream, group, messageIDs...).Err(); err != nil {
		log.Printf("[Consumer] Ack FAILED: stream=%s group=%s ids=%v err=%v", stream, group, messageIDs, err)
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

func (c *RedisConsumer) Pending(ctx context.Context, stream, group string) (int64, error) {
	info, err := c.client.XPending(ctx, stream, group).Result()
	if err != nil {
		return 0, fmt.Errorf("xpending: %w", err)
	}
	return info.Count, nil
}

// parseMessages keeps malformed entries with an empty Event so the worker
// still acks them instead of leaving them pending forever.
func parseMessages(raw []redis.XMessage) []Message {
	messages := make([]Message, 0, len(raw))
	for _, msg := range raw {
		event, err := ParseEvent(msg.Values)
		if err != nil {
			log.Printf("[Consumer] Parse error: msgID=%s err=%v", msg.ID, err)
		}
		messages = append(messages, Message{ID: msg.ID, Event: event})
	}
	return messages
}
