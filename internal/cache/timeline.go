package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// TimelineKey is the sorted set holding every post id scored by creation time
	TimelineKey = "timeline:posts"

	// timelineReadySuffix names the marker set once the sorted set was filled
	// from the store. Without it the set may hold only recent additions.
	timelineReadySuffix = ":ready"

	// TimelineTTL is the TTL for the timeline cache (7 days)
	TimelineTTL = 7 * 24 * time.Hour
)

// PostScore represents a post with its creation time score for caching
type PostScore struct {
	PostID    string
	Timestamp int64 // Unix microseconds
}

// TimelineCache keeps the reverse-chronological post timeline.
// Using an interface enables testing with mocks.
type TimelineCache interface {
	// AddPost adds a post to the timeline.
	// Uses pipeline: ZADD + EXPIRE (refresh TTL). It never marks the timeline
	// as complete.
	AddPost(ctx context.Context, postID string, timestamp int64) error

	// GetTimeline returns every cached post id, newest first.
	GetTimeline(ctx context.Context) ([]string, error)

	// WarmCache merges posts into the timeline and marks it complete.
	WarmCache(ctx context.Context, posts []PostScore) error

	// Exists reports whether the timeline is complete.
	// Service layer should warm the cache when this returns false.
	Exists(ctx context.Context) (bool, error)

	// Invalidate drops the timeline so the next read rebuilds it.
	Invalidate(ctx context.Context) error
}

// RedisTimelineCache implements TimelineCache using a Redis sorted set.
type RedisTimelineCache struct {
	client   *redis.Client
	key      string
	readyKey string
}

// NewTimelineCache creates a new TimelineCache backed by Redis.
func NewTimelineCache(client *redis.Client) TimelineCache {
	return newRedisTimelineCache(client, TimelineKey)
}

func newRedisTimelineCache(client *redis.Client, key string) *RedisTimelineCache {
	return &RedisTimelineCache{client: client, key: key, readyKey: key + timelineReadySuffix}
}

// AddPost adds a post to the timeline using a pipeline.
func (c *RedisTimelineCache) AddPost(ctx context.Context, postID string, timestamp int64) error {
	startTime := time.Now()

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, c.key, redis.Z{
		Score:  float64(timestamp),
		Member: postID,
	})
	pipe.Expire(ctx, c.key, TimelineTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[TimelineCache] AddPost FAILED: post=%s err=%v", postID, err)
		return fmt.Errorf("add post to timeline: %w", err)
	}

	log.Printf("[TimelineCache] AddPost OK: post=%s timestamp=%d duration=%v",
		postID, timestamp, time.Since(startTime))
	return nil
}

// GetTimeline returns all post ids, highest score first (ZREVRANGE 0 -1).
func (c *RedisTimelineCache) GetTimeline(ctx context.Context) ([]string, error) {
	startTime := time.Now()

	ids, err := c.client.ZRevRange(ctx, c.key, 0, -1).Result()
	if err != nil {
		log.Printf("[TimelineCache] GetTimeline FAILED: err=%v", err)
		return nil, fmt.Errorf("get timeline: %w", err)
	}

	// Refresh TTL on access. The marker never outlives the set.
	pipe := c.client.Pipeline()
	pipe.Expire(ctx, c.key, TimelineTTL)
	pipe.Expire(ctx, c.readyKey, TimelineTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[TimelineCache] GetTimeline TTL refresh FAILED: err=%v", err)
	}

	log.Printf("[TimelineCache] GetTimeline OK: returned=%d duration=%v", len(ids), time.Since(startTime))
	return ids, nil
}

// WarmCache fills the timeline in one transaction: ZADD + EXPIRE + SET marker.
// Members added since the snapshot was read stay in the set.
func (c *RedisTimelineCache) WarmCache(ctx context.Context, posts []PostScore) error {
	if len(posts) == 0 {
		log.Printf("[TimelineCache] WarmCache: posts=0 (nothing to warm)")
		return nil
	}
	startTime := time.Now()

	members := make([]redis.Z, len(posts))
	for i, p := range posts {
		members[i] = redis.Z{
			Score:  float64(p.Timestamp),
			Member: p.PostID,
		}
	}

	pipe := c.client.TxPipeline()
	pipe.ZAdd(ctx, c.key, members...)
	pipe.Expire(ctx, c.key, TimelineTTL)
	pipe.Set(ctx, c.readyKey, "1", TimelineTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[TimelineCache] WarmCache FAILED: posts=%d err=%v", len(posts), err)
		return fmt.Errorf("warm timeline: %w", err)
	}

	log.Printf("[TimelineCache] WarmCache OK: posts=%d duration=%v", len(posts), time.Since(startTime))
	return nil
}

// Exists reports true only when both the sorted set and its marker are
// present. A set created by AddPost alone is not complete.
func (c *RedisTimelineCache) Exists(ctx context.Context) (bool, error) {
	exists, err := c.client.Exists(ctx, c.key, c.readyKey).Result()
	if err != nil {
		log.Printf("[TimelineCache] Exists FAILED: err=%v", err)
		return false, fmt.Errorf("check timeline exists: %w", err)
	}
	return exists == 2, nil
}

func (c *RedisTimelineCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.readyKey, c.key).Err(); err != nil {
		log.Printf("[TimelineCache] Invalidate FAILED: err=%v", err)
		return fmt.Errorf("invalidate timeline: %w", err)
	}
	log.Printf("[TimelineCache] Invalidate OK")
	return nil
}
