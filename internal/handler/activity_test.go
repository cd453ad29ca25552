package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/spotlight/userprofile/internal/handler/dto"
	"github.com/spotlight/userprofile/internal/model"
	"github.com/spotlight/userprofile/internal/service"
)

type fakeActivityReader struct {
	from, to time.Time
	rows     []model.DailyActivity
	err      error
}

func (f *fakeActivityReader) GetActivity(_ context.Context, _ model.UserID, from, to time.Time) ([]model.DailyActivity, error) {
	f.from, f.to = from, to
	return f.rows, f.err
}

func newActivityRouter(reader ActivityReader, now time.Time) http.Handler {
	h := NewActivityHandler(reader, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.now = func() time.Time { return now }

	r := chi.NewRouter()
	r.Get("/users/{userId}/profile/activity", h.Get)
	return r
}

func TestActivityHandler_Get(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	reader := &fakeActivityReader{rows: []model.DailyActivity{
		{Day: day, Operation: model.OperationIncrement, Commands: 3, ProfilesCreated: 1, PropertiesTouched: 4},
		{Day: day, Operation: model.OperationCollect, Commands: 2, PropertiesTouched: 2},
	}}

	rec := httptest.NewRecorder()
	newActivityRouter(reader, now).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/hero/profile/activity", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp dto.ActivityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.UserID != "hero" || resp.From != "2026-03-04" || resp.To != "2026-03-10" {
		t.Errorf("unexpected header fields: %+v", resp)
	}
	if resp.Totals.Commands != 5 || resp.Totals.ProfilesCreated != 1 || resp.Totals.PropertiesTouched != 6 {
		t.Errorf("unexpected totals: %+v", resp.Totals)
	}
	if resp.Totals.ByOperation["increment"] != 3 || resp.Totals.ByOperation["collect"] != 2 {
		t.Errorf("unexpected per-operation totals: %v", resp.Totals.ByOperation)
	}
	if len(resp.Daily) != 2 || resp.Daily[0].Date != "2026-03-09" {
		t.Errorf("unexpected daily rows: %+v", resp.Daily)
	}
}

func TestActivityHandler_Range(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		query    string
		wantFrom string
		wantTo   string
	}{
		{name: "explicit", query: "?from=2026-02-01&to=2026-02-03", wantFrom: "2026-02-01", wantTo: "2026-02-03"},
		{name: "to only", query: "?to=2026-02-10", wantFrom: "2026-02-04", wantTo: "2026-02-10"},
		{name: "from only", query: "?from=2026-03-01", wantFrom: "2026-03-01", wantTo: "2026-03-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &fakeActivityReader{}
			rec := httptest.NewRecorder()
			newActivityRouter(reader, now).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/hero/profile/activity"+tt.query, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			if got := reader.from.Format("2006-01-02"); got != tt.wantFrom {
				t.Errorf("from = %s, want %s", got, tt.wantFrom)
			}
			if got := reader.to.Format("2006-01-02"); got != tt.wantTo {
				t.Errorf("to = %s, want %s", got, tt.wantTo)
			}
		})
	}
}

func TestActivityHandler_Errors(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		path       string
		readerErr  error
		wantStatus int
		wantCode   string
	}{
		{name: "bad from", path: "/users/hero/profile/activity?from=yesterday", wantStatus: http.StatusBadRequest, wantCode: "INVALID_ARGUMENT"},
		{name: "bad to", path: "/users/hero/profile/activity?to=2026-13-01", wantStatus: http.StatusBadRequest, wantCode: "INVALID_ARGUMENT"},
		{name: "service rejects range", path: "/users/hero/profile/activity", readerErr: service.ErrInvalidArgument, wantStatus: http.StatusBadRequest, wantCode: "INVALID_ARGUMENT"},
		{name: "store failure", path: "/users/hero/profile/activity", readerErr: errors.New("timeout"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newActivityRouter(&fakeActivityReader{err: tt.readerErr}, now).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), `"code":"`+tt.wantCode+`"`) {
				t.Errorf("body %s missing code %s", rec.Body.String(), tt.wantCode)
			}
		})
	}
}
