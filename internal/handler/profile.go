package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/spotlight/userprofile/internal/handler/dto"
	"github.com/spotlight/userprofile/internal/middleware"
	"github.com/spotlight/userprofile/internal/model"
	"github.com/spotlight/userprofile/internal/service"
)

// DefaultMaxBatchSize bounds POST .../commands when no limit is configured.
const DefaultMaxBatchSize = 100

// ProfileHandler handles HTTP requests for profile operations.
type ProfileHandler struct {
	svc          *service.ProfileService
	logger       *slog.Logger
	maxBatchSize int
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(svc *service.ProfileService, logger *slog.Logger, maxBatchSize int) *ProfileHandler {
	if maxBatchSize <= 0 {
		maxBatchSize = DefaultMaxBatchSize
	}
	return &ProfileHandler{
		svc:          svc,
		logger:       logger.With("component", "handler.profile"),
		maxBatchSize: maxBatchSize,
	}
}

// Get handles GET /users/{userId}/profile.
// An optional ?properties=a,b query limits the returned properties.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if err := middleware.ValidateUserID(userID); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}

	names, err := parseProjection(r.URL.Query().Get("properties"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}

	profile, err := h.svc.GetProperties(r.Context(), model.UserID(userID), names)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToProfileResponse(profile))
}

// Command handles POST /users/{userId}/profile/command.
func (h *ProfileHandler) Command(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var req dto.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeDecodeError(w, err)
		return
	}

	cmd, err := parseCommand(req, userID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_COMMAND", err.Error())
		return
	}

	if err := h.svc.Apply(r.Context(), cmd); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.Header().Set("X-Command-ID", cmd.ID)
	w.WriteHeader(http.StatusNoContent)
}

// Commands handles POST /users/{userId}/profile/commands.
// Commands run in order; invalid or failing commands are reported and the
// rest are still applied.
func (h *ProfileHandler) Commands(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var reqs []dto.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		h.writeDecodeError(w, err)
		return
	}

	if len(reqs) > h.maxBatchSize {
		h.writeError(w, http.StatusBadRequest, "BATCH_TOO_LARGE", "Too many commands in batch")
		return
	}

	var failures []dto.CommandFailure
	valid := make([]model.Command, 0, len(reqs))
	positions := make([]int, 0, len(reqs))

	for i, req := range reqs {
		cmd, err := parseCommand(req, userID)
		if err != nil {
			failures = append(failures, dto.CommandFailure{
				Index: i,
				Code:  "INVALID_COMMAND",
				Error: err.Error(),
			})
			continue
		}
		valid = append(valid, cmd)
		positions = append(positions, i)
	}

	for _, result := range service.FailedResults(h.svc.ApplyBatch(r.Context(), valid)) {
		code, _, message := classifyServiceError(result.Err)
		failures = append(failures, dto.CommandFailure{
			Index:     positions[result.Index],
			CommandID: result.CommandID,
			Code:      code,
			Error:     message,
		})
	}

	if len(failures) > 0 {
		sortFailures(failures)
		h.logger.Info("batch partially applied",
			"user_id", userID,
			"commands", len(reqs),
			"failed", len(failures),
		)
		writeJSON(w, http.StatusBadRequest, dto.BatchErrorResponse{
			Error:    "One or more commands failed",
			Code:     "BATCH_FAILED",
			Failures: failures,
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps service errors to HTTP responses.
func (h *ProfileHandler) handleServiceError(w http.ResponseWriter, err error) {
	code, status, message := classifyServiceError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("profile request failed", "error", err)
	}
	h.writeError(w, status, code, message)
}

func classifyServiceError(err error) (code string, status int, message string) {
	switch {
	case errors.Is(err, service.ErrProfileNotFound):
		return "PROFILE_NOT_FOUND", http.StatusNotFound, "Profile not found"
	case errors.Is(err, service.ErrTypeMismatch):
		return "TYPE_MISMATCH", http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, service.ErrInvalidArgument):
		return "INVALID_ARGUMENT", http.StatusBadRequest, err.Error()
	default:
		return "INTERNAL_ERROR", http.StatusInternalServerError, "An internal error occurred"
	}
}

// writeDecodeError reports a body that could not be decoded.
func (h *ProfileHandler) writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
		return
	}
	h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
}

// writeError writes an error response.
func (h *ProfileHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// parseProjection splits a comma separated property list.
func parseProjection(raw string) ([]model.PropertyName, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	if len(parts) > middleware.MaxProjectedProperties {
		return nil, middleware.ErrTooManyProperties
	}

	names := make([]model.PropertyName, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if err := middleware.ValidatePropertyName(name); err != nil {
			return nil, err
		}
		names = append(names, model.PropertyName(name))
	}
	return names, nil
}

func sortFailures(failures []dto.CommandFailure) {
	sort.Slice(failures, func(i, j int) bool {
		return failures[i].Index < failures[j].Index
	})
}
