package scheduler

import (
	"math"
	"time"

	"github.com/vocabtrainer/backend/internal/models"
)

const (
	msPerMinute = int64(60 * 1000)
	msPerDay    = int64(24 * 60 * 60 * 1000)

	againEasePenalty = 0.2
	hardEasePenalty  = 0.15
	easyEaseBonus    = 0.15

	hardIntervalFactor   = 1.2
	easySecondStepFactor = 2.5
	easyBonusFactor      = 1.3

	// goodSecondStep is the shortest interval after the second successful recall
	goodSecondStep = 6
)

// GradeConfig holds the settings the grade update depends on
type GradeConfig struct {
	DailyNewLimit int
	LapseMinutes  float64
}

// ApplyGrade returns the record updated for the given grade and mutates meta's daily counters.
//
// The record must already carry its defaults (see models.NewReviewRecord). kind tells which
// queue the card was served from: the first grading of an unseen card served as new counts
// against the daily new-word quota.
//
// A Good on the second repetition schedules at least six days out, or the ease-scaled interval when
// that is longer. Intervals are whole days. Multiplications round half away from zero and never go below one
// day; only Again schedules the card minutes ahead with a zero interval. An invalid grade
// leaves both the record and meta untouched.
func ApplyGrade(rec models.ReviewRecord, grade models.Grade, kind models.CardKind, now time.Time, meta *models.DailyMeta, cfg GradeConfig) models.ReviewRecord {
	if !grade.Valid() {
		return rec
	}
	nowMs := now.UnixMilli()

	Normalize(meta, now)

	if !rec.Seen && kind == models.CardKindNew {
		rec.Seen = true
		meta.NewToday = min(meta.NewToday+1, cfg.DailyNewLimit)
	}

	meta.ReviewsToday++
	rec.TotalReviews++

	switch grade {
	case models.GradeAgain:
		rec.Repetitions = 0
		rec.Interval = 0
		rec.Ease = math.Max(models.MinEase, rec.Ease-againEasePenalty)
		rec.Due = nowMs + int64(math.Round(cfg.LapseMinutes*float64(msPerMinute)))
		rec.Lapses++
	case models.GradeHard:
		rec.Ease = math.Max(models.MinEase, rec.Ease-hardEasePenalty)
		if rec.Interval > 0 {
			rec.Interval = scaleInterval(rec.Interval, hardIntervalFactor)
		} else {
			rec.Interval = 1
		}
		rec.Due = nowMs + int64(rec.Interval)*msPerDay
	case models.GradeGood:
		switch rec.Repetitions {
		case 0:
			rec.Interval = 1
		case 1:
			rec.Interval = max(goodSecondStep, scaleInterval(rec.Interval, rec.Ease))
		default:
			rec.Interval = scaleInterval(rec.Interval, rec.Ease)
		}
		rec.Repetitions++
		rec.Due = nowMs + int64(rec.Interval)*msPerDay
	case models.GradeEasy:
		rec.Ease += easyEaseBonus
		switch rec.Repetitions {
		case 0:
			rec.Interval = 4
		case 1:
			rec.Interval = scaleInterval(rec.Interval, easySecondStepFactor)
		default:
			rec.Interval = scaleInterval(rec.Interval, rec.Ease*easyBonusFactor)
		}
		rec.Repetitions++
		rec.Due = nowMs + int64(rec.Interval)*msPerDay
	}

	rec.LastReview = &nowMs
	return rec
}

// scaleInterval multiplies an interval in days, rounding to the nearest day with a one day floor
func scaleInterval(interval int, factor float64) int {
	return max(1, int(math.Round(float64(interval)*factor)))
}
