package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spotlight/userprofile/internal/events"
	"github.com/spotlight/userprofile/internal/model"
)

type fakeActivityStore struct {
	recorded  []model.ActivityRecord
	from, to  time.Time
	rows      []model.DailyActivity
	recordErr error
}

func (f *fakeActivityStore) RecordActivity(_ context.Context, records []model.ActivityRecord) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recorded = append(f.recorded, records...)
	return nil
}

func (f *fakeActivityStore) GetDailyActivity(_ context.Context, _ model.UserID, from, to time.Time) ([]model.DailyActivity, error) {
	f.from, f.to = from, to
	return f.rows, nil
}

func TestActivityService_HandleEvents(t *testing.T) {
	store := &fakeActivityStore{}
	svc := NewActivityService(store, nil)

	applied := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	deliveries := []events.Delivery{
		{MessageID: "1-0", Event: events.ProfileChangedEvent{
			UserID: "hero", Operation: "increment", Properties: []string{"a", "b"}, Created: true, AppliedAt: applied.UnixMilli(),
		}},
		{MessageID: "2-0", Event: events.ProfileChangedEvent{
			UserID: "hero", Operation: "collect", Properties: []string{"inventory"}, AppliedAt: applied.Add(2 * time.Minute).UnixMilli(),
		}},
	}

	if err := svc.HandleEvents(context.Background(), deliveries); err != nil {
		t.Fatalf("HandleEvents failed: %v", err)
	}
	if len(store.recorded) != 2 {
		t.Fatalf("recorded %d records, want 2", len(store.recorded))
	}

	first := store.recorded[0]
	if first.EventID != "1-0" || first.UserID != "hero" || first.Operation != model.OperationIncrement {
		t.Errorf("unexpected first record: %+v", first)
	}
	if !first.Created || first.PropertyCount != 2 {
		t.Errorf("first record created/count = %v/%d", first.Created, first.PropertyCount)
	}
	if want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC); !first.Day.Equal(want) {
		t.Errorf("first day = %v, want %v", first.Day, want)
	}
	if want := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC); !store.recorded[1].Day.Equal(want) {
		t.Errorf("second day = %v, want %v", store.recorded[1].Day, want)
	}
}

func TestActivityService_HandleEventsPropagatesStoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	svc := NewActivityService(&fakeActivityStore{recordErr: storeErr}, nil)

	err := svc.HandleEvents(context.Background(), []events.Delivery{{MessageID: "1-0"}})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestActivityService_GetActivity(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		id      model.UserID
		from    time.Time
		to      time.Time
		wantErr error
	}{
		{name: "single day", id: "hero", from: day, to: day},
		{name: "full range", id: "hero", from: day, to: day.AddDate(0, 0, MaxActivityRange)},
		{name: "empty id", id: "", from: day, to: day, wantErr: ErrInvalidArgument},
		{name: "reversed", id: "hero", from: day.AddDate(0, 0, 1), to: day, wantErr: ErrInvalidArgument},
		{name: "too long", id: "hero", from: day, to: day.AddDate(0, 0, MaxActivityRange+1), wantErr: ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeActivityStore{rows: []model.DailyActivity{{Day: day, Operation: model.OperationReplace, Commands: 1}}}
			svc := NewActivityService(store, nil)

			got, err := svc.GetActivity(context.Background(), tt.id, tt.from.Add(5*time.Hour), tt.to.Add(5*time.Hour))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != 1 {
				t.Errorf("rows = %d, want 1", len(got))
			}
			if !store.from.Equal(tt.from) || !store.to.Equal(tt.to) {
				t.Errorf("store range = %v..%v, want truncated %v..%v", store.from, store.to, tt.from, tt.to)
			}
		})
	}
}
