package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spotlight/userprofile/internal/model"
)

// recordActivitySQL counts an event once: the daily upsert only sees a row
// when the event id was not recorded before.
const recordActivitySQL = `
	WITH seen AS (
		INSERT INTO profile_activity_events (event_id)
		VALUES ($1)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING event_id
	)
	INSERT INTO profile_activity_daily (
		user_id, day, operation, commands, profiles_created, properties_touched
	)
	SELECT $2, $3, $4, 1, $5, $6 FROM seen
	ON CONFLICT (user_id, day, operation) DO UPDATE SET
		commands           = profile_activity_daily.commands + 1,
		profiles_created   = profile_activity_daily.profiles_created + EXCLUDED.profiles_created,
		properties_touched = profile_activity_daily.properties_touched + EXCLUDED.properties_touched
`

// RecordActivity folds applied commands into the daily counters in one
// transaction. Records already seen are skipped.
func (r *Repository) RecordActivity(ctx context.Context, records []model.ActivityRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, rec := range records {
		created := 0
		if rec.Created {
			created = 1
		}
		batch.Queue(recordActivitySQL,
			rec.EventID,
			rec.UserID.String(),
			model.ActivityDay(rec.Day),
			string(rec.Operation),
			created,
			rec.PropertyCount,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range records {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("record activity %s: %w", records[i].EventID, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetDailyActivity returns the counters for one user between from and to,
// both inclusive calendar days, ordered by day then operation.
func (r *Repository) GetDailyActivity(ctx context.Context, id model.UserID, from, to time.Time) ([]model.DailyActivity, error) {
	query := `
		SELECT day, operation, commands, profiles_created, properties_touched
		FROM profile_activity_daily
		WHERE user_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day, operation
	`

	rows, err := r.pool.Query(ctx, query, id.String(), model.ActivityDay(from), model.ActivityDay(to))
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var out []model.DailyActivity
	for rows.Next() {
		var (
			day       time.Time
			operation string
			a         model.DailyActivity
		)
		if err := rows.Scan(&day, &operation, &a.Commands, &a.ProfilesCreated, &a.PropertiesTouched); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Day = model.ActivityDay(day)
		a.Operation = model.Operation(operation)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}

	return out, nil
}
