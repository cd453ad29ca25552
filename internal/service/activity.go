package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spotlight/userprofile/internal/events"
	"github.com/spotlight/userprofile/internal/model"
)

// MaxActivityRange bounds the days one activity query may span.
const MaxActivityRange = 90

// ActivityStore persists daily command counters.
type ActivityStore interface {
	RecordActivity(ctx context.Context, records []model.ActivityRecord) error
	GetDailyActivity(ctx context.Context, id model.UserID, from, to time.Time) ([]model.DailyActivity, error)
}

// ActivityService turns profile change events into per-user daily counters
// and serves them back. It implements events.Handler.
type ActivityService struct {
	store  ActivityStore
	logger *slog.Logger
}

// NewActivityService creates an ActivityService. A nil logger discards logs.
func NewActivityService(store ActivityStore, logger *slog.Logger) *ActivityService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ActivityService{
		store:  store,
		logger: logger.With("component", "service.activity"),
	}
}

// HandleEvents records a batch of change events.
func (s *ActivityService) HandleEvents(ctx context.Context, deliveries []events.Delivery) error {
	records := make([]model.ActivityRecord, 0, len(deliveries))
	for _, d := range deliveries {
		records = append(records, model.ActivityRecord{
			EventID:       d.MessageID,
			UserID:        model.UserID(d.Event.UserID),
			Operation:     model.Operation(d.Event.Operation),
			Day:           model.ActivityDay(time.UnixMilli(d.Event.AppliedAt)),
			Created:       d.Event.Created,
			PropertyCount: len(d.Event.Properties),
		})
	}

	if err := s.store.RecordActivity(ctx, records); err != nil {
		return fmt.Errorf("record activity: %w", err)
	}

	s.logger.Debug("activity recorded", "events_count", len(records))
	return nil
}

// GetActivity returns the daily counters of one profile between from and
// to inclusive. The range may span at most MaxActivityRange days.
func (s *ActivityService) GetActivity(ctx context.Context, id model.UserID, from, to time.Time) ([]model.DailyActivity, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}

	from, to = model.ActivityDay(from), model.ActivityDay(to)
	if from.After(to) {
		return nil, fmt.Errorf("%w: from is after to", ErrInvalidArgument)
	}
	if to.Sub(from) > MaxActivityRange*24*time.Hour {
		return nil, fmt.Errorf("%w: range exceeds %d days", ErrInvalidArgument, MaxActivityRange)
	}

	activity, err := s.store.GetDailyActivity(ctx, id, from, to)
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return activity, nil
}
