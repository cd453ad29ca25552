// Package events publishes profile change notifications to a Redis stream.
package events

import (
	"fmt"
	"sort"
	"time"

	"github.com/spotlight/userprofile/internal/model"
)

// maxPropertyNames caps how many names a single event lists.
const maxPropertyNames = 256

// ProfileChangedEvent announces that a command was applied to a profile.
// It carries property names only, never values.
type ProfileChangedEvent struct {
	CommandID  string   `json:"cid,omitempty"`
	UserID     string   `json:"uid"`
	Operation  string   `json:"op"`
	Properties []string `json:"props"`
	Truncated  bool     `json:"trunc,omitempty"`
	Created    bool     `json:"created,omitempty"`
	AppliedAt  int64    `json:"t"` // Unix milliseconds
}

// NewProfileChangedEvent builds the event for an applied command.
// Property names are sorted so events are stable for consumers.
func NewProfileChangedEvent(cmd model.Command, created bool, appliedAt time.Time) ProfileChangedEvent {
	names := make([]string, 0, len(cmd.Properties))
	for name := range cmd.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	truncated := false
	if len(names) > maxPropertyNames {
		names = names[:maxPropertyNames]
		truncated = true
	}

	return ProfileChangedEvent{
		CommandID:  cmd.ID,
		UserID:     cmd.UserID.String(),
		Operation:  string(cmd.Operation),
		Properties: names,
		Truncated:  truncated,
		Created:    created,
		AppliedAt:  appliedAt.UnixMilli(),
	}
}

// Validate checks the fields consumers rely on.
func (e ProfileChangedEvent) Validate() error {
	if e.UserID == "" {
		return fmt.Errorf("uid is required")
	}
	if !model.Operation(e.Operation).IsValid() {
		return fmt.Errorf("op %q is not a known operation", e.Operation)
	}
	if e.AppliedAt <= 0 {
		return fmt.Errorf("t must be set")
	}
	if len(e.Properties) > maxPropertyNames {
		return fmt.Errorf("props exceeds %d names", maxPropertyNames)
	}
	return nil
}
