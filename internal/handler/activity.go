package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/spotlight/userprofile/internal/handler/dto"
	"github.com/spotlight/userprofile/internal/middleware"
	"github.com/spotlight/userprofile/internal/model"
)

// defaultActivityDays is the window served when no range is given.
const defaultActivityDays = 7

// ActivityReader returns daily command counters for a profile.
type ActivityReader interface {
	GetActivity(ctx context.Context, id model.UserID, from, to time.Time) ([]model.DailyActivity, error)
}

// ActivityHandler serves profile activity counters.
type ActivityHandler struct {
	svc    ActivityReader
	logger *slog.Logger
	now    func() time.Time
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(svc ActivityReader, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{
		svc:    svc,
		logger: logger.With("component", "handler.activity"),
		now:    time.Now,
	}
}

// Get handles GET /users/{userId}/profile/activity?from=YYYY-MM-DD&to=YYYY-MM-DD.
// Without a range the last seven days, today included, are returned.
func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if err := middleware.ValidateUserID(userID); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}

	now := h.now().UTC()
	from, to, ok := h.parseRange(w, r, now)
	if !ok {
		return
	}

	rows, err := h.svc.GetActivity(r.Context(), model.UserID(userID), from, to)
	if err != nil {
		code, status, message := classifyServiceError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("activity request failed", "user_id", userID, "error", err)
		}
		writeErrorResponse(w, status, code, message)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToActivityResponse(model.UserID(userID), from, to, now, rows))
}

// parseRange reads from/to query dates. Malformed dates are rejected rather
// than silently replaced by defaults.
func (h *ActivityHandler) parseRange(w http.ResponseWriter, r *http.Request, now time.Time) (time.Time, time.Time, bool) {
	to := model.ActivityDay(now)
	from := to.AddDate(0, 0, -(defaultActivityDays - 1))

	query := r.URL.Query()
	if raw := query.Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "INVALID_ARGUMENT", "to must be a YYYY-MM-DD date")
			return time.Time{}, time.Time{}, false
		}
		to = parsed
		if query.Get("from") == "" {
			from = to.AddDate(0, 0, -(defaultActivityDays - 1))
		}
	}
	if raw := query.Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "INVALID_ARGUMENT", "from must be a YYYY-MM-DD date")
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}

	return from, to, true
}

// writeErrorResponse writes the standard error body.
func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message, Code: code})
}
