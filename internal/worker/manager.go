package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"hackmate/internal/queue"
)

const (
	// DefaultWorkerCount is the default number of worker goroutines
	DefaultWorkerCount = 2

	// DefaultBatchSize is the number of messages to read per batch
	DefaultBatchSize = 10

	// DefaultBlockTimeout is how long to block waiting for new messages
	DefaultBlockTimeout = 5 * time.Second

	// DefaultClaimIdle is how long a message stays pending before another
	// worker takes it over
	DefaultClaimIdle = time.Minute
)

// EventHandler processes one event. *Handler implements it.
type EventHandler interface {
	HandleEvent(ctx context.Context, event queue.Event) error
}

// Manager orchestrates worker goroutines that consume from Redis Streams.
type Manager struct {
	consumer    queue.Consumer
	handler     EventHandler
	stream      string
	group       string
	workerCount int
	batchSize   int64
	blockTime   time.Duration
	claimIdle   time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// ManagerConfig holds configuration for the worker manager.
type ManagerConfig struct {
	Stream       string
	Group        string
	WorkerCount  int           // Number of worker goroutines
	BatchSize    int64         // Messages per read
	BlockTimeout time.Duration // Block time for XREADGROUP
	ClaimIdle    time.Duration // Min idle time before XAUTOCLAIM
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Stream:       queue.StreamEvents,
		Group:        queue.ConsumerGroupEvents,
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
		ClaimIdle:    DefaultClaimIdle,
	}
}

// NewManager creates a new worker manager.
func NewManager(consumer queue.Consumer, handler EventHandler, cfg ManagerConfig) *Manager {
	def := DefaultManagerConfig()
	if cfg.Stream == "" {
		cfg.Stream = def.Stream
	}
	if cfg.Group == "" {
		cfg.Group = def.Group
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = def.WorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = def.BlockTimeout
	}
	if cfg.ClaimIdle <= 0 {
		cfg.ClaimIdle = def.ClaimIdle
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		stream:      cfg.Stream,
		group:       cfg.Group,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
		claimIdle:   cfg.ClaimIdle,
	}
}

// Start begins the worker goroutines.
// Call Stop() to gracefully shut down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, m.stream, m.group); err != nil {
		m.cancel()
		return err
	}

	log.Printf("[Manager] Starting %d workers for stream=%s group=%s", m.workerCount, m.stream, m.group)

	for i := 0; i < m.workerCount; i++ {
		workerID := i + 1
		m.wg.Add(1)
		go m.runWorker(workerID, consumerNameForWorker(workerID))
	}
	return nil
}

// Stop gracefully shuts down all workers.
// Blocks until all workers have finished.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	log.Printf("[Manager] Stopping workers...")
	m.cancel()
	m.wg.Wait()
	log.Printf("[Manager] All workers stopped")
}

// runWorker is the main loop for a single worker goroutine.
func (m *Manager) runWorker(workerID int, consumerName string) {
	defer m.wg.Done()

	log.Printf("[Worker-%d] Started (consumer=%s)", workerID, consumerName)

	// Pick up what a crashed worker left behind before reading new messages
	m.claimStale(workerID, consumerName)
	lastClaim := time.Now()

	for {
		select {
		case <-m.ctx.Done():
			log.Printf("[Worker-%d] Shutting down", workerID)
			return
		default:
		}

		if time.Since(lastClaim) >= m.claimIdle {
			m.claimStale(workerID, consumerName)
			lastClaim = time.Now()
		}
		m.processMessages(workerID, consumerName)
	}
}

func (m *Manager) claimStale(workerID int, consumerName string) {
	messages, err := m.consumer.Claim(m.ctx, m.stream, m.group, consumerName, m.claimIdle, m.batchSize)
	if err != nil {
		if m.ctx.Err() == nil {
			log.Printf("[Worker-%d] Error claiming: %v", workerID, err)
		}
		return
	}
	m.handleMessages(workerID, messages)
}

// processMessages reads and handles a batch of messages.
func (m *Manager) processMessages(workerID int, consumerName string) {
	messages, err := m.consumer.Read(m.ctx, m.stream, m.group, consumerName, m.batchSize, m.blockTime)
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		log.Printf("[Worker-%d] Error reading: %v", workerID, err)
		select {
		case <-m.ctx.Done():
		case <-time.After(time.Second): // Back off on error
		}
		return
	}

	m.handleMessages(workerID, messages)
}

// handleMessages processes a batch of messages and acknowledges them.
// Failed events are acked too: a push that failed once is not retried.
func (m *Manager) handleMessages(workerID int, messages []queue.Message) {
	for _, msg := range messages {
		if err := m.handler.HandleEvent(m.ctx, msg.Event); err != nil {
			log.Printf("[Worker-%d] Handler error msgID=%s: %v", workerID, msg.ID, err)
		}

		if err := m.consumer.Ack(m.ctx, m.stream, m.group, msg.ID); err != nil {
			log.Printf("[Worker-%d] ACK error msgID=%s: %v", workerID, msg.ID, err)
		}
	}
}

// consumerNameForWorker generates a consumer name that is unique across
// server instances.
func consumerNameForWorker(workerID int) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return fmt.Sprintf("%s-%d-worker-%d", host, os.Getpid(), workerID)
}
