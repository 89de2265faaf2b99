// Package scheduler implements the spaced-repetition scheduling rules: daily counters,
// queue partitioning and the per-grade record update.
//
// Every function of the package is pure: the result depends only on the arguments.
package scheduler

import (
	"time"

	"github.com/vocabtrainer/backend/internal/models"
)

const dayKeyLayout = "2006-01-02"

// DayKey returns the calendar date of now in its own location (the learner's local day)
func DayKey(now time.Time) string {
	return now.Format(dayKeyLayout)
}

// Normalize resets the daily counters when the calendar day of now differs from the
// last review day, and advances the last review day.
//
// It is the only place where the day rollover happens and must run before any read or
// mutation of the counters. It returns true when a rollover took place.
func Normalize(meta *models.DailyMeta, now time.Time) bool {
	day := DayKey(now)
	if meta.LastReviewDay == day {
		return false
	}
	meta.LastReviewDay = day
	meta.ReviewsToday = 0
	meta.NewToday = 0
	return true
}
