package dto

import (
	"time"

	"github.com/spotlight/userprofile/internal/model"
)

const dateLayout = "2006-01-02"

// ActivityResponse is the body of GET /users/{userId}/profile/activity.
type ActivityResponse struct {
	UserID      string          `json:"userId"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Totals      ActivityTotals  `json:"totals"`
	Daily       []DailyActivity `json:"daily"`
}

// ActivityTotals sums the daily rows of a response.
type ActivityTotals struct {
	Commands          int64            `json:"commands"`
	ProfilesCreated   int64            `json:"profilesCreated"`
	PropertiesTouched int64            `json:"propertiesTouched"`
	ByOperation       map[string]int64 `json:"byOperation"`
}

// DailyActivity is one day and operation of a response.
type DailyActivity struct {
	Date              string `json:"date"`
	Operation         string `json:"operation"`
	Commands          int64  `json:"commands"`
	ProfilesCreated   int64  `json:"profilesCreated"`
	PropertiesTouched int64  `json:"propertiesTouched"`
}

// ToActivityResponse builds the response for rows of one user.
func ToActivityResponse(id model.UserID, from, to, now time.Time, rows []model.DailyActivity) ActivityResponse {
	resp := ActivityResponse{
		UserID:      id.String(),
		From:        from.Format(dateLayout),
		To:          to.Format(dateLayout),
		GeneratedAt: now.UTC(),
		Totals:      ActivityTotals{ByOperation: make(map[string]int64)},
		Daily:       make([]DailyActivity, 0, len(rows)),
	}

	for _, row := range rows {
		resp.Daily = append(resp.Daily, DailyActivity{
			Date:              row.Day.Format(dateLayout),
			Operation:         string(row.Operation),
			Commands:          row.Commands,
			ProfilesCreated:   row.ProfilesCreated,
			PropertiesTouched: row.PropertiesTouched,
		})
		resp.Totals.Commands += row.Commands
		resp.Totals.ProfilesCreated += row.ProfilesCreated
		resp.Totals.PropertiesTouched += row.PropertiesTouched
		resp.Totals.ByOperation[string(row.Operation)] += row.Commands
	}

	return resp
}
