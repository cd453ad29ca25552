package model

import "time"

// ActivityRecord is one applied command as seen by the activity consumer.
// EventID is the change stream entry id and makes recording idempotent.
type ActivityRecord struct {
	EventID       string
	UserID        UserID
	Operation     Operation
	Day           time.Time // UTC midnight
	Created       bool
	PropertyCount int
}

// DailyActivity aggregates the commands applied to one profile on one day
// for one operation.
type DailyActivity struct {
	Day               time.Time
	Operation         Operation
	Commands          int64
	ProfilesCreated   int64
	PropertiesTouched int64
}

// ActivityDay truncates t to its UTC calendar day.
func ActivityDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
