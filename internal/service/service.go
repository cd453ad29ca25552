// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"

	"github.com/spotlight/userprofile/internal/events"
	"github.com/spotlight/userprofile/internal/model"
)

// Service errors.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrProfileNotFound = errors.New("profile not found")
	ErrTypeMismatch    = model.ErrTypeMismatch
)

// ProfileStore persists whole profile documents keyed by user id.
// GetProfile must return repository.ErrProfileNotFound when no document exists.
type ProfileStore interface {
	GetProfile(ctx context.Context, id model.UserID) (*model.Profile, error)
	PutProfile(ctx context.Context, profile *model.Profile) error
}

// propertyProjector is implemented by stores that can load a subset of
// properties without reading the whole document.
type propertyProjector interface {
	GetProfileProperties(ctx context.Context, id model.UserID, names []model.PropertyName) (*model.Profile, error)
}

// ProfileCache is a read-through cache in front of the store.
// GetProfile must return cache.ErrCacheMiss on a miss.
type ProfileCache interface {
	GetProfile(ctx context.Context, id model.UserID) (*model.Profile, error)
	SetProfile(ctx context.Context, profile *model.Profile) error
	DeleteProfile(ctx context.Context, id model.UserID) error
	IsNegativelyCached(ctx context.Context, id model.UserID) (bool, error)
	SetNegativeCache(ctx context.Context, id model.UserID) error
}

// EventPublisher announces applied commands.
type EventPublisher interface {
	PublishAsync(event events.ProfileChangedEvent)
}

// Locker serializes read-modify-write cycles for one key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
