// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"encoding/json"
	"time"

	"github.com/spotlight/userprofile/internal/model"
)

// CommandRequest is the request body of one profile command.
// Unknown fields are ignored.
type CommandRequest struct {
	UserID     string          `json:"userId,omitempty"`
	Type       string          `json:"type"`
	Properties json.RawMessage `json:"properties,omitempty"`
}

// ProfileResponse represents a profile in API responses.
type ProfileResponse struct {
	UserID     string                         `json:"userId"`
	CreatedAt  time.Time                      `json:"createdAt"`
	UpdatedAt  time.Time                      `json:"updatedAt"`
	Properties map[string]model.PropertyValue `json:"properties"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// CommandFailure describes one rejected command of a batch.
type CommandFailure struct {
	Index     int    `json:"index"`
	CommandID string `json:"commandId,omitempty"`
	Code      string `json:"code"`
	Error     string `json:"error"`
}

// BatchErrorResponse is returned when any command of a batch fails.
// Commands not listed were applied.
type BatchErrorResponse struct {
	Error    string           `json:"error"`
	Code     string           `json:"code"`
	Failures []CommandFailure `json:"failures"`
}

// ToProfileResponse converts a Profile model to ProfileResponse DTO.
func ToProfileResponse(p *model.Profile) *ProfileResponse {
	props := make(map[string]model.PropertyValue, len(p.Properties))
	for name, value := range p.Properties {
		props[string(name)] = value
	}
	return &ProfileResponse{
		UserID:     p.ID.String(),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
		Properties: props,
	}
}
