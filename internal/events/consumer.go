package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spotlight/userprofile/internal/metrics"
)

const (
	// ConsumerGroup is the Redis consumer group of the activity consumer.
	ConsumerGroup = "profile_activity"

	// DeadLetterStreamKey receives entries that cannot be decoded.
	DeadLetterStreamKey = StreamKey + ":dlq"

	// DefaultBatchSize is the max entries read per batch.
	DefaultBatchSize = 200

	// DefaultBlockTimeout is how long XREADGROUP blocks waiting for entries.
	DefaultBlockTimeout = 5 * time.Second

	// DefaultMaxRetries is how many times a batch is handed to the handler.
	DefaultMaxRetries = 3

	// DefaultClaimInterval is how often pending entries are scanned.
	DefaultClaimInterval = 10 * time.Second

	// DefaultClaimIdle is the idle time before another consumer's pending
	// entries are reclaimed.
	DefaultClaimIdle = 30 * time.Second

	// DefaultBacklogInterval is how often the backlog gauge is refreshed.
	DefaultBacklogInterval = 5 * time.Second

	deadLetterMaxLen = 10000
)

// Delivery is a decoded stream entry.
type Delivery struct {
	MessageID string
	Event     ProfileChangedEvent
}

// Handler processes a batch of deliveries. A batch is redelivered after a
// failure, so handlers must tolerate seeing a MessageID twice.
type Handler interface {
	HandleEvents(ctx context.Context, deliveries []Delivery) error
}

// NewConsumerID creates a consumer name unique to this process.
func NewConsumerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "consumer"
	}
	return fmt.Sprintf("%s-%d-%d", host, os.Getpid(), time.Now().UnixNano())
}

// Consumer reads profile change events through a consumer group and hands
// them to a Handler in batches. Entries are acknowledged only after the
// handler succeeds.
type Consumer struct {
	redis           *redis.Client
	handler         Handler
	logger          *slog.Logger
	metrics         metrics.Recorder
	consumerID      string
	batchSize       int
	blockTimeout    time.Duration
	maxRetries      int
	retryBackoff    time.Duration
	claimInterval   time.Duration
	claimIdle       time.Duration
	backlogInterval time.Duration
	claimStartID    string
	lastClaim       time.Time
	lastBacklog     time.Time

	mu       sync.Mutex
	started  bool
	draining bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewConsumer creates a consumer for the profile change stream.
func NewConsumer(client *redis.Client, handler Handler, logger *slog.Logger, consumerID string, recorder metrics.Recorder) *Consumer {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Consumer{
		redis:           client,
		handler:         handler,
		logger:          logger.With("component", "events.consumer", "consumer_id", consumerID),
		metrics:         recorder,
		consumerID:      consumerID,
		batchSize:       DefaultBatchSize,
		blockTimeout:    DefaultBlockTimeout,
		maxRetries:      DefaultMaxRetries,
		retryBackoff:    time.Second,
		claimInterval:   DefaultClaimInterval,
		claimIdle:       DefaultClaimIdle,
		backlogInterval: DefaultBacklogInterval,
		claimStartID:    "0-0",
	}
}

// SetBatchSize overrides the default batch size.
func (c *Consumer) SetBatchSize(size int) {
	if size > 0 {
		c.batchSize = size
	}
}

// SetBlockTimeout overrides the default blocking timeout.
func (c *Consumer) SetBlockTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.blockTimeout = timeout
	}
}

// SetRetryBackoff overrides the base delay between handler retries.
func (c *Consumer) SetRetryBackoff(backoff time.Duration) {
	if backoff > 0 {
		c.retryBackoff = backoff
	}
}

// SetClaimIdle overrides the default pending idle threshold.
func (c *Consumer) SetClaimIdle(idle time.Duration) {
	if idle > 0 {
		c.claimIdle = idle
	}
}

// Run starts the consumer loop. Blocks until ctx is cancelled or Shutdown
// is called.
func (c *Consumer) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return errors.New("consumer already started")
	}
	c.started = true
	c.done = make(chan struct{})
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	defer close(c.done)

	if err := c.ensureConsumerGroup(ctx); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}

	c.logger.Info("activity consumer started", "stream", StreamKey, "group", ConsumerGroup)

	for {
		c.mu.Lock()
		draining := c.draining
		c.mu.Unlock()
		if draining {
			c.logger.Info("activity consumer draining, stopping")
			return nil
		}

		select {
		case <-ctx.Done():
			c.logger.Info("activity consumer stopping")
			return ctx.Err()
		default:
		}

		if err := c.processOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			c.logger.Error("process error", "error", err)
			if !sleepCtx(ctx, time.Second) {
				return nil
			}
		}
	}
}

// Shutdown stops the loop after the in-flight batch. It has the
// server.ShutdownFunc signature.
func (c *Consumer) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.draining = true
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	c.logger.Info("activity consumer shutdown initiated")
	cancel()

	select {
	case <-done:
		c.logger.Info("activity consumer shutdown complete")
		return nil
	case <-ctx.Done():
		c.logger.Warn("activity consumer shutdown timed out")
		return ctx.Err()
	}
}

func (c *Consumer) ensureConsumerGroup(ctx context.Context) error {
	err := c.redis.XGroupCreateMkStream(ctx, StreamKey, ConsumerGroup, "0").Err()
	if err != nil && !isBusyGroupError(err) {
		return err
	}
	return nil
}

// processOnce reads, handles and acknowledges a single batch.
func (c *Consumer) processOnce(ctx context.Context) error {
	c.maybeUpdateBacklog(ctx)

	messages, err := c.maybeClaimPending(ctx)
	if err != nil {
		c.logger.Warn("failed to claim pending entries", "error", err)
	}
	if len(messages) == 0 {
		messages, err = c.readBatch(ctx)
		if err != nil {
			return err
		}
	}
	if len(messages) == 0 {
		return nil
	}

	deliveries, poison, ids := decodeMessages(messages)
	for _, p := range poison {
		c.deadLetter(ctx, p)
	}
	if len(deliveries) == 0 {
		return c.ack(ctx, ids)
	}

	if err := c.handleWithRetry(ctx, deliveries); err != nil {
		c.logger.Error("batch handling failed after retries",
			"batch_size", len(deliveries),
			"first_message_id", deliveries[0].MessageID,
			"error", err,
		)
		// Left pending; another pass or consumer reclaims it.
		return err
	}

	return c.ack(ctx, ids)
}

func (c *Consumer) readBatch(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := c.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: c.consumerID,
		Streams:  []string{StreamKey, ">"},
		Count:    int64(c.batchSize),
		Block:    c.blockTimeout,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}
	if len(streams) == 0 {
		return nil, nil
	}
	return streams[0].Messages, nil
}

func (c *Consumer) maybeClaimPending(ctx context.Context) ([]redis.XMessage, error) {
	if c.claimInterval <= 0 || c.claimIdle <= 0 {
		return nil, nil
	}
	if !c.lastClaim.IsZero() && time.Since(c.lastClaim) < c.claimInterval {
		return nil, nil
	}
	c.lastClaim = time.Now()

	messages, next, err := c.redis.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   StreamKey,
		Group:    ConsumerGroup,
		Consumer: c.consumerID,
		MinIdle:  c.claimIdle,
		Start:    c.claimStartID,
		Count:    int64(c.batchSize),
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("xautoclaim: %w", err)
	}
	if next != "" {
		c.claimStartID = next
	}
	return messages, nil
}

func (c *Consumer) maybeUpdateBacklog(ctx context.Context) {
	if c.backlogInterval <= 0 {
		return
	}
	if !c.lastBacklog.IsZero() && time.Since(c.lastBacklog) < c.backlogInterval {
		return
	}
	c.lastBacklog = time.Now()

	groups, err := c.redis.XInfoGroups(ctx, StreamKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn("failed to read stream group info", "error", err)
		return
	}
	for _, group := range groups {
		if group.Name == ConsumerGroup {
			c.metrics.SetChangeEventBacklog(group.Pending + group.Lag)
			return
		}
	}
}

type poisonMessage struct {
	msg    redis.XMessage
	reason string
	detail string
}

// decodeMessages splits entries into valid deliveries and poison entries.
// ids lists every entry so poison is acknowledged with the batch.
func decodeMessages(messages []redis.XMessage) ([]Delivery, []poisonMessage, []string) {
	deliveries := make([]Delivery, 0, len(messages))
	ids := make([]string, 0, len(messages))
	var poison []poisonMessage

	for _, msg := range messages {
		ids = append(ids, msg.ID)

		event, err := DecodeEvent(msg.Values)
		if err != nil {
			poison = append(poison, poisonMessage{msg: msg, reason: "decode_error", detail: err.Error()})
			continue
		}
		if err := event.Validate(); err != nil {
			poison = append(poison, poisonMessage{msg: msg, reason: "validation_error", detail: err.Error()})
			continue
		}

		deliveries = append(deliveries, Delivery{MessageID: msg.ID, Event: event})
	}

	return deliveries, poison, ids
}

func (c *Consumer) deadLetter(ctx context.Context, p poisonMessage) {
	c.logger.Warn("dead-lettering poison entry",
		"message_id", p.msg.ID,
		"reason", p.reason,
		"detail", p.detail,
	)

	err := c.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: DeadLetterStreamKey,
		MaxLen: deadLetterMaxLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"original_id":      p.msg.ID,
			"original_stream":  StreamKey,
			"reason":           p.reason,
			"detail":           p.detail,
			"payload":          fmt.Sprint(p.msg.Values["payload"]),
			"dead_lettered_at": time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		c.logger.Error("failed to write to dead-letter stream", "message_id", p.msg.ID, "error", err)
	}

	c.metrics.IncChangeEventConsumed(metrics.ConsumedDeadLettered)
}

// handleWithRetry calls the handler with exponential backoff between attempts.
func (c *Consumer) handleWithRetry(ctx context.Context, deliveries []Delivery) error {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		start := time.Now()
		err := c.handler.HandleEvents(ctx, deliveries)
		if err == nil {
			c.logger.Info("batch handled",
				"events_count", len(deliveries),
				"duration_ms", float64(time.Since(start).Microseconds())/1000,
			)
			for range deliveries {
				c.metrics.IncChangeEventConsumed(metrics.ConsumedSuccess)
			}
			return nil
		}

		lastErr = err
		if attempt == c.maxRetries {
			break
		}
		backoff := c.retryBackoff << (attempt - 1)
		c.logger.Warn("batch handling failed, retrying",
			"attempt", attempt,
			"backoff_ms", backoff.Milliseconds(),
			"error", err,
		)
		if !sleepCtx(ctx, backoff) {
			return ctx.Err()
		}
	}

	for range deliveries {
		c.metrics.IncChangeEventConsumed(metrics.ConsumedFailed)
	}
	return lastErr
}

func (c *Consumer) ack(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.redis.XAck(ctx, StreamKey, ConsumerGroup, ids...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func isBusyGroupError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}
