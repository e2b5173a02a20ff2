package worker_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackmate/internal/cache"
	"hackmate/internal/queue"
	"hackmate/internal/worker"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type pushCall struct {
	RecipientID    string
	ConversationID string
	SenderName     string
	Content        string
}

// MockNotifier records NotifyMessage calls.
type MockNotifier struct {
	mu    sync.Mutex
	calls []pushCall
	err   error
}

func (m *MockNotifier) NotifyMessage(ctx context.Context, recipientID, conversationID, senderName, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, pushCall{recipientID, conversationID, senderName, content})
	return m.err
}

func (m *MockNotifier) Calls() []pushCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pushCall(nil), m.calls...)
}

// MockTimeline records AddPost calls.
type MockTimeline struct {
	mu    sync.Mutex
	added map[string]int64
}

func NewMockTimeline() *MockTimeline {
	return &MockTimeline{added: make(map[string]int64)}
}

func (m *MockTimeline) AddPost(ctx context.Context, postID string, timestamp int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added[postID] = timestamp
	return nil
}

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestRedis(t *testing.T) *redis.Client {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("Failed to parse Redis URL: %v", err)
	}

	// Use DB 1 for testing to avoid conflicts with dev data
	opts.DB = 1

	client := redis.NewClient(opts)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}

	client.FlushDB(ctx)
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

// =============================================================================
// Handler Tests
// =============================================================================

func TestHandleEvent_MessageSentNotifiesRecipient(t *testing.T) {
	// ARRANGE
	notifier := &MockNotifier{}
	handler := worker.NewHandler(nil, notifier)
	event := queue.NewMessageSentEvent("conv-1", "msg-1", "alice", "bob", "Alice", "hi there")

	// ACT
	err := handler.HandleEvent(context.Background(), event)

	// ASSERT
	require.NoError(t, err)
	calls := notifier.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, pushCall{"bob", "conv-1", "Alice", "hi there"}, calls[0])
}

func TestHandleEvent_MessageSentWithoutNotifier(t *testing.T) {
	handler := worker.NewHandler(nil, nil)
	event := queue.NewMessageSentEvent("conv-1", "msg-1", "alice", "bob", "Alice", "hi")

	assert.NoError(t, handler.HandleEvent(context.Background(), event))
}

func TestHandleEvent_NotifierErrorIsReturned(t *testing.T) {
	notifier := &MockNotifier{err: errors.New("fcm down")}
	handler := worker.NewHandler(nil, notifier)
	event := queue.NewMessageSentEvent("conv-1", "msg-1", "alice", "bob", "Alice", "hi")

	err := handler.HandleEvent(context.Background(), event)

	assert.Error(t, err)
}

func TestHandleEvent_PostCreatedAddsToTimeline(t *testing.T) {
	// ARRANGE
	timeline := NewMockTimeline()
	handler := worker.NewHandler(timeline, nil)
	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	// ACT
	err := handler.HandleEvent(context.Background(), queue.NewPostCreatedEvent("post-1", "alice", createdAt))

	// ASSERT
	require.NoError(t, err)
	assert.Equal(t, createdAt.UnixMicro(), timeline.added["post-1"])
}

func TestHandleEvent_UnknownType(t *testing.T) {
	handler := worker.NewHandler(nil, nil)

	err := handler.HandleEvent(context.Background(), queue.Event{Type: "bogus"})

	assert.Error(t, err)
}

// =============================================================================
// Stream + Worker Integration Tests
// =============================================================================

// TestStreamToWorkerIntegration tests the complete flow:
// Publisher -> Stream -> Consumer -> Handler -> Cache
func TestStreamToWorkerIntegration(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	timeline := cache.NewTimelineCache(client)
	publisher := queue.NewPublisher(client)
	consumer := queue.NewConsumer(client)
	handler := worker.NewHandler(timeline, nil)

	require.NoError(t, consumer.EnsureGroup(ctx, queue.StreamEvents, queue.ConsumerGroupEvents))

	createdAt := time.Now().UTC()
	_, err := publisher.Publish(ctx, queue.StreamEvents, queue.NewPostCreatedEvent("post-100", "alice", createdAt))
	require.NoError(t, err)

	messages, err := consumer.Read(ctx, queue.StreamEvents, queue.ConsumerGroupEvents, "test-worker", 10, time.Second)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	msg := messages[0]
	assert.Equal(t, "post-100", msg.Event.PostID)
	require.NoError(t, handler.HandleEvent(ctx, msg.Event))
	require.NoError(t, consumer.Ack(ctx, queue.StreamEvents, queue.ConsumerGroupEvents, msg.ID))

	ids, err := timeline.GetTimeline(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"post-100"}, ids)

	pending, err := consumer.Pending(ctx, queue.StreamEvents, queue.ConsumerGroupEvents)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending)
}

// TestManagerDeliversPush runs the manager against a real stream and waits
// for the push to reach the notifier.
func TestManagerDeliversPush(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	notifier := &MockNotifier{}
	manager := worker.NewManager(queue.NewConsumer(client), worker.NewHandler(nil, notifier), worker.ManagerConfig{
		WorkerCount:  1,
		BlockTimeout: 100 * time.Millisecond,
	})
	require.NoError(t, manager.Start(ctx))
	defer manager.Stop()

	publisher := queue.NewPublisher(client)
	_, err := publisher.Publish(ctx, queue.StreamEvents,
		queue.NewMessageSentEvent("conv-1", "msg-1", "alice", "bob", "Alice", "see you at the venue"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(notifier.Calls()) == 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestConsumer_MalformedMessageIsDeliveredEmpty(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	consumer := queue.NewConsumer(client)
	require.NoError(t, consumer.EnsureGroup(ctx, queue.StreamEvents, queue.ConsumerGroupEvents))

	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: queue.StreamEvents,
		Values: map[string]interface{}{"type": "x", "data": "{not json"},
	}).Err())

	messages, err := consumer.Read(ctx, queue.StreamEvents, queue.ConsumerGroupEvents, "test-worker", 10, time.Second)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Empty(t, messages[0].Event.Type)
}
