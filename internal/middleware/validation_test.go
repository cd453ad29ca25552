package middleware

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateUserID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{name: "simple", id: "user-1", wantErr: nil},
		{name: "uuid", id: "de4310e5-b139-441a-99db-77c9c4a5fada", wantErr: nil},
		{name: "unicode", id: "jöhn", wantErr: nil},
		{name: "empty", id: "", wantErr: ErrUserIDEmpty},
		{name: "too long", id: strings.Repeat("a", MaxUserIDLength+1), wantErr: ErrUserIDTooLong},
		{name: "max length", id: strings.Repeat("a", MaxUserIDLength), wantErr: nil},
		{name: "control char", id: "user\n1", wantErr: ErrUserIDInvalid},
		{name: "invalid utf8", id: "user\xff", wantErr: ErrUserIDInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUserID(tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateUserID(%q) = %v, want %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePropertyName(t *testing.T) {
	tests := []struct {
		name     string
		property string
		wantErr  error
	}{
		{name: "camel case", property: "battleFought", wantErr: nil},
		{name: "with spaces", property: "quests not completed", wantErr: nil},
		{name: "empty", property: "", wantErr: ErrPropertyNameEmpty},
		{name: "too long", property: strings.Repeat("p", MaxPropertyNameLength+1), wantErr: ErrPropertyNameTooLong},
		{name: "tab", property: "a\tb", wantErr: ErrPropertyNameInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePropertyName(tt.property)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePropertyName(%q) = %v, want %v", tt.property, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePropertyCount(t *testing.T) {
	if err := ValidatePropertyCount(MaxPropertiesPerCommand); err != nil {
		t.Errorf("count at limit should pass, got %v", err)
	}
	if err := ValidatePropertyCount(MaxPropertiesPerCommand + 1); !errors.Is(err, ErrTooManyProperties) {
		t.Errorf("expected ErrTooManyProperties, got %v", err)
	}
}
