package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/spotlight/userprofile/internal/model"
)

// ErrProfileNotFound is returned by every store when no document exists for
// the requested user id.
var ErrProfileNotFound = errors.New("profile not found")

// GetProfile retrieves a profile by user id.
func (r *Repository) GetProfile(ctx context.Context, id model.UserID) (*model.Profile, error) {
	query := `
		SELECT id, created_at, updated_at, properties
		FROM profiles
		WHERE id = $1
	`

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}

// GetProfileProperties retrieves a profile with only the named properties.
// The projection runs inside PostgreSQL so unrequested values never leave
// the database.
func (r *Repository) GetProfileProperties(ctx context.Context, id model.UserID, names []model.PropertyName) (*model.Profile, error) {
	query := `
		SELECT id, created_at, updated_at,
		       COALESCE(
		           (SELECT jsonb_object_agg(e.key, e.value)
		            FROM jsonb_each(properties) AS e
		            WHERE e.key = ANY($2)),
		           '{}'::jsonb
		       )
		FROM profiles
		WHERE id = $1
	`

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = string(name)
	}

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, id.String(), pq.Array(keys)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile properties: %w", err)
	}

	return profile, nil
}

// PutProfile writes the whole document, inserting it if absent.
// created_at is never overwritten once set.
func (r *Repository) PutProfile(ctx context.Context, profile *model.Profile) error {
	props, err := json.Marshal(profile.Properties)
	if err != nil {
		return fmt.Errorf("failed to encode properties: %w", err)
	}

	query := `
		INSERT INTO profiles (id, created_at, updated_at, properties)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET updated_at = EXCLUDED.updated_at,
		    properties = EXCLUDED.properties
	`

	_, err = r.pool.Exec(ctx, query,
		profile.ID.String(),
		profile.CreatedAt,
		profile.UpdatedAt,
		string(props),
	)
	if err != nil {
		return fmt.Errorf("failed to put profile: %w", err)
	}

	return nil
}

// scanProfile scans a single row into a Profile model.
func scanProfile(row pgx.Row) (*model.Profile, error) {
	var (
		profile model.Profile
		id      string
		props   []byte
	)

	if err := row.Scan(&id, &profile.CreatedAt, &profile.UpdatedAt, &props); err != nil {
		return nil, err
	}

	profile.ID = model.UserID(id)
	profile.Properties = make(model.Properties)
	if len(props) > 0 {
		if err := json.Unmarshal(props, &profile.Properties); err != nil {
			return nil, fmt.Errorf("decode properties: %w", err)
		}
	}

	return &profile, nil
}
