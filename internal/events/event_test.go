package events

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spotlight/userprofile/internal/model"
)

func TestNewProfileChangedEvent(t *testing.T) {
	t.Parallel()

	appliedAt := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	cmd := model.Command{
		ID:        "01HZX",
		UserID:    "user-1",
		Operation: model.OperationIncrement,
		Properties: map[string]any{
			"questsNotCompleted": -1,
			"battleFought":       20,
		},
	}

	event := NewProfileChangedEvent(cmd, false, appliedAt)

	if event.UserID != "user-1" || event.Operation != "increment" || event.CommandID != "01HZX" {
		t.Errorf("unexpected event: %+v", event)
	}
	if strings.Join(event.Properties, ",") != "battleFought,questsNotCompleted" {
		t.Errorf("Properties = %v, want sorted names", event.Properties)
	}
	if event.AppliedAt != appliedAt.UnixMilli() {
		t.Errorf("AppliedAt = %d", event.AppliedAt)
	}
	if err := event.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestNewProfileChangedEvent_TruncatesNames(t *testing.T) {
	t.Parallel()

	props := make(map[string]any, maxPropertyNames+10)
	for i := 0; i < maxPropertyNames+10; i++ {
		props[fmt.Sprintf("p%04d", i)] = i
	}
	cmd := model.Command{UserID: "user-1", Operation: model.OperationReplace, Properties: props}

	event := NewProfileChangedEvent(cmd, true, time.Now())

	if len(event.Properties) != maxPropertyNames || !event.Truncated {
		t.Errorf("expected %d names and Truncated, got %d/%v", maxPropertyNames, len(event.Properties), event.Truncated)
	}
	if !event.Created {
		t.Error("Created should be set")
	}
}

func TestProfileChangedEvent_Validate(t *testing.T) {
	t.Parallel()

	valid := ProfileChangedEvent{UserID: "u", Operation: "collect", AppliedAt: 1}

	tests := []struct {
		name    string
		mutate  func(e *ProfileChangedEvent)
		wantErr bool
	}{
		{"valid", func(e *ProfileChangedEvent) {}, false},
		{"missing user", func(e *ProfileChangedEvent) { e.UserID = "" }, true},
		{"unknown op", func(e *ProfileChangedEvent) { e.Operation = "delete" }, true},
		{"missing time", func(e *ProfileChangedEvent) { e.AppliedAt = 0 }, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := valid
			tt.mutate(&e)
			err := e.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeEvent(t *testing.T) {
	t.Parallel()

	event, err := DecodeEvent(map[string]interface{}{
		"payload": `{"uid":"u","op":"replace","props":["a"],"t":5}`,
	})
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if event.UserID != "u" || len(event.Properties) != 1 {
		t.Errorf("unexpected event: %+v", event)
	}

	if _, err := DecodeEvent(map[string]interface{}{}); err == nil {
		t.Error("expected error for missing payload")
	}
}
