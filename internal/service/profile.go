package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spotlight/userprofile/internal/cache"
	"github.com/spotlight/userprofile/internal/events"
	"github.com/spotlight/userprofile/internal/metrics"
	"github.com/spotlight/userprofile/internal/model"
	"github.com/spotlight/userprofile/internal/repository"
)

// ProfileService is the only mutator of profile documents. It applies
// commands with upsert semantics: the first command for a user id stores its
// properties verbatim, later commands replace, increment or collect.
type ProfileService struct {
	store     ProfileStore
	cache     ProfileCache
	locker    Locker
	publisher EventPublisher
	metrics   metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a ProfileService.
type Option func(*ProfileService)

// WithCache enables the read-through profile cache.
func WithCache(c ProfileCache) Option {
	return func(s *ProfileService) { s.cache = c }
}

// WithLocker replaces the default in-process locker.
func WithLocker(l Locker) Option {
	return func(s *ProfileService) { s.locker = l }
}

// WithPublisher enables change events.
func WithPublisher(p EventPublisher) Option {
	return func(s *ProfileService) { s.publisher = p }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *ProfileService) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *ProfileService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *ProfileService) { s.now = now }
}

// NewProfileService creates a new ProfileService backed by store.
func NewProfileService(store ProfileStore, opts ...Option) *ProfileService {
	s := &ProfileService{
		store:   store,
		locker:  NewLocalLocker(),
		metrics: metrics.NewNoop(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "service.profile")
	return s
}

// CommandResult reports the outcome of one command in a batch.
type CommandResult struct {
	Index     int
	CommandID string
	UserID    model.UserID
	Err       error
}

// GetProfile returns the profile for id, consulting the cache first.
func (s *ProfileService) GetProfile(ctx context.Context, id model.UserID) (*model.Profile, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, model.ErrEmptyUserID)
	}

	if s.cache != nil {
		cached, err := s.cache.GetProfile(ctx, id)
		if err == nil {
			s.metrics.IncProfileCacheHit()
			return cached, nil
		}

		if errors.Is(err, cache.ErrCacheMiss) {
			s.metrics.IncProfileCacheMiss()
			if negative, _ := s.cache.IsNegativelyCached(ctx, id); negative {
				return nil, ErrProfileNotFound
			}
		} else {
			s.logger.Warn("profile cache read failed", "user_id", id, "error", err)
		}
	}

	profile, err := s.store.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			if s.cache != nil {
				_ = s.cache.SetNegativeCache(ctx, id)
			}
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetProfile(ctx, profile); err != nil {
			s.logger.Warn("profile cache backfill failed", "user_id", id, "error", err)
		}
	}

	return profile, nil
}

// GetProperties returns the profile restricted to the named properties.
// Names that are not set are omitted. An empty names list returns every
// property.
func (s *ProfileService) GetProperties(ctx context.Context, id model.UserID, names []model.PropertyName) (*model.Profile, error) {
	if len(names) == 0 {
		return s.GetProfile(ctx, id)
	}

	// The cache holds whole documents, so project in process when it is on.
	if projector, ok := s.store.(propertyProjector); ok && s.cache == nil {
		if id == "" {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, model.ErrEmptyUserID)
		}
		profile, err := projector.GetProfileProperties(ctx, id, names)
		if err != nil {
			if errors.Is(err, repository.ErrProfileNotFound) {
				return nil, ErrProfileNotFound
			}
			return nil, fmt.Errorf("failed to load profile properties: %w", err)
		}
		return profile, nil
	}

	profile, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	projected := profile.Clone()
	projected.Properties = profile.Properties.Select(names)
	return projected, nil
}

// Apply runs one command against the addressed profile, creating it if absent.
// The new property map is computed in full before anything is written, so a
// failing command never leaves a partial update behind.
func (s *ProfileService) Apply(ctx context.Context, cmd model.Command) error {
	start := time.Now()
	defer func() {
		s.metrics.ObserveCommandDuration(time.Since(start))
	}()

	created, err := s.apply(ctx, cmd)
	if err != nil {
		reason := failureReason(err)
		s.metrics.IncCommandFailed(string(cmd.Operation), reason)
		s.logger.Info("command rejected",
			"command_id", cmd.ID,
			"user_id", cmd.UserID,
			"operation", cmd.Operation,
			"reason", reason,
			"error", err,
		)
		return err
	}

	s.metrics.IncCommandApplied(string(cmd.Operation))
	if created {
		s.metrics.IncProfileCreated()
	}
	s.logger.Debug("command applied",
		"command_id", cmd.ID,
		"user_id", cmd.UserID,
		"operation", cmd.Operation,
		"properties", len(cmd.Properties),
		"created", created,
	)
	return nil
}

func (s *ProfileService) apply(ctx context.Context, cmd model.Command) (bool, error) {
	if cmd.UserID == "" {
		return false, fmt.Errorf("%w: %v", ErrInvalidArgument, model.ErrEmptyUserID)
	}
	if !cmd.Operation.IsValid() {
		return false, fmt.Errorf("%w: unknown operation %q", ErrInvalidArgument, cmd.Operation)
	}

	unlock, err := s.locker.Lock(ctx, cmd.UserID.String())
	if err != nil {
		return false, fmt.Errorf("failed to lock profile: %w", err)
	}
	defer unlock()

	now := s.now().UTC().Truncate(time.Microsecond)

	var next *model.Profile
	created := false

	current, err := s.store.GetProfile(ctx, cmd.UserID)
	switch {
	case errors.Is(err, repository.ErrProfileNotFound):
		next = model.NewProfile(cmd.UserID, now)
		next.Properties = initialProperties(cmd.Properties)
		created = true
	case err != nil:
		return false, fmt.Errorf("failed to load profile: %w", err)
	default:
		next = current.Clone()
		if err := applyOperation(next.Properties, cmd.Operation, cmd.Properties); err != nil {
			return false, err
		}
		next.UpdatedAt = now
	}

	if err := s.store.PutProfile(ctx, next); err != nil {
		return false, fmt.Errorf("failed to save profile: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetProfile(ctx, next); err != nil {
			s.logger.Warn("profile cache write failed", "user_id", cmd.UserID, "error", err)
			_ = s.cache.DeleteProfile(ctx, cmd.UserID)
		}
	}

	if s.publisher != nil {
		s.publisher.PublishAsync(events.NewProfileChangedEvent(cmd, created, now))
	}

	if created {
		s.logger.Info("profile created", "user_id", cmd.UserID, "command_id", cmd.ID)
	}

	return created, nil
}

// ApplyBatch applies commands one after another. A failing command does not
// stop the batch and earlier commands stay applied.
func (s *ProfileService) ApplyBatch(ctx context.Context, cmds []model.Command) []CommandResult {
	results := make([]CommandResult, len(cmds))
	failed := 0

	for i, cmd := range cmds {
		results[i] = CommandResult{
			Index:     i,
			CommandID: cmd.ID,
			UserID:    cmd.UserID,
			Err:       s.Apply(ctx, cmd),
		}
		if results[i].Err != nil {
			failed++
		}
	}

	s.logger.Info("batch applied", "commands", len(cmds), "failed", failed)
	return results
}

// FailedResults returns only the results that carry an error.
func FailedResults(results []CommandResult) []CommandResult {
	var out []CommandResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return metrics.ReasonInvalidArgument
	case errors.Is(err, ErrTypeMismatch):
		return metrics.ReasonTypeMismatch
	default:
		return metrics.ReasonStore
	}
}
