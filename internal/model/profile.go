// Package model defines domain entities for the application.
package model

import (
	"errors"
	"time"
)

// ErrEmptyUserID is returned when constructing a UserID from an empty string.
var ErrEmptyUserID = errors.New("user id must not be empty")

// UserID identifies the owner of a profile. It is never empty.
type UserID string

// NewUserID validates and returns a UserID.
func NewUserID(s string) (UserID, error) {
	if s == "" {
		return "", ErrEmptyUserID
	}
	return UserID(s), nil
}

// String returns the raw identifier.
func (id UserID) String() string {
	return string(id)
}

// PropertyName is a case-sensitive property key.
type PropertyName string

// Properties maps property names to their current values.
type Properties map[PropertyName]PropertyValue

// Clone returns a copy of the map. Values are immutable and shared.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Select returns only the named properties that are present.
func (p Properties) Select(names []PropertyName) Properties {
	out := make(Properties, len(names))
	for _, name := range names {
		if v, ok := p[name]; ok {
			out[name] = v
		}
	}
	return out
}

// Equal reports whether both maps hold the same keys with equal values.
func (p Properties) Equal(other Properties) bool {
	if len(p) != len(other) {
		return false
	}
	for k, v := range p {
		o, ok := other[k]
		if !ok || !v.Equal(o) {
			return false
		}
	}
	return true
}

// Profile is the per-user document of typed, named properties.
type Profile struct {
	ID         UserID     `json:"userId"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	Properties Properties `json:"properties"`
}

// NewProfile returns an empty profile created at the given time.
func NewProfile(id UserID, now time.Time) *Profile {
	return &Profile{
		ID:         id,
		CreatedAt:  now,
		UpdatedAt:  now,
		Properties: make(Properties),
	}
}

// Clone returns a deep enough copy that mutating the clone's property map
// does not affect p.
func (p *Profile) Clone() *Profile {
	clone := *p
	clone.Properties = p.Properties.Clone()
	return &clone
}
