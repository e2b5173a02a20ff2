package watch

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RelayChannel is the Pub/Sub channel carrying change notifications.
const RelayChannel = "watch:changes"

// RedisRelay publishes change notifications on a Redis Pub/Sub channel and
// delivers everything received on it to the local hub.
type RedisRelay struct {
	client  *redis.Client
	hub     *Hub
	channel string
}

func NewRedisRelay(client *redis.Client, hub *Hub) *RedisRelay {
	return &RedisRelay{client: client, hub: hub, channel: RelayChannel}
}

// Publish sends topics as one comma separated payload.
func (r *RedisRelay) Publish(ctx context.Context, topics ...string) error {
	if len(topics) == 0 {
		return nil
	}
	if err := r.client.Publish(ctx, r.channel, strings.Join(topics, ",")).Err(); err != nil {
		log.Printf("[WatchRelay] Publish FAILED: topics=%v err=%v", topics, err)
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

// Run returns once the subscription is confirmed. Delivery to the hub
// continues in the background until ctx ends.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	log.Printf("[WatchRelay] Subscribed: channel=%s", r.channel)

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				r.hub.Deliver(strings.Split(msg.Payload, ",")...)
			}
		}
	}()
	return nil
}
