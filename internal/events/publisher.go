package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spotlight/userprofile/internal/metrics"
)

const (
	// StreamKey is the Redis stream for profile change events.
	StreamKey = "stream:profile_commands"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond
)

// Publisher appends profile change events to a Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new change event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "events.publisher"),
		metrics: recorder,
	}
}

// Publish adds an event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event ProfileChangedEvent) (string, error) {
	if err := event.Validate(); err != nil {
		return "", fmt.Errorf("invalid event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// PublishAsync publishes without blocking the caller.
// Errors are logged but not returned (fire-and-forget).
func (p *Publisher) PublishAsync(event ProfileChangedEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish profile change event",
				"user_id", event.UserID,
				"command_id", event.CommandID,
				"error", err,
			)
			p.metrics.IncChangeEventPublished("dropped")
			return
		}

		p.logger.Debug("profile change event published",
			"user_id", event.UserID,
			"stream_id", streamID,
		)
		p.metrics.IncChangeEventPublished("success")
	}()
}

// DecodeEvent parses the payload field of a stream entry.
func DecodeEvent(values map[string]interface{}) (ProfileChangedEvent, error) {
	var event ProfileChangedEvent

	raw, ok := values["payload"].(string)
	if !ok {
		return event, fmt.Errorf("stream entry has no payload")
	}
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return event, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
