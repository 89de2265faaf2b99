package models

import (
	"encoding/json"
	"math"
)

const (
	// DefaultEase is the ease of a card that has never been graded
	DefaultEase = 2.5
	// MinEase is the floor applied on every ease decrease
	MinEase = 1.3
)

// ReviewRecord holds the scheduling state of one word for one learner.
//
// All timestamps are epoch milliseconds.
type ReviewRecord struct {
	Ease         float64 `json:"ease"`
	Interval     int     `json:"interval"` // Days
	Repetitions  int     `json:"repetitions"`
	Due          int64   `json:"due"`
	LastReview   *int64  `json:"lastReview"`
	TotalReviews int     `json:"totalReviews"`
	Lapses       int     `json:"lapses"`
	Seen         bool    `json:"seen"`
}

// NewReviewRecord creates a record with default values, due immediately
func NewReviewRecord(nowMs int64) ReviewRecord {
	return ReviewRecord{
		Ease: DefaultEase,
		Due:  nowMs,
	}
}

// UnmarshalJSON applies defaults for fields absent from the payload
func (r *ReviewRecord) UnmarshalJSON(data []byte) error {
	type plain ReviewRecord
	decoded := plain{Ease: DefaultEase}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*r = ReviewRecord(decoded)
	return nil
}

// repair clamps values that violate record invariants
func (r *ReviewRecord) repair() {
	if math.IsNaN(r.Ease) || math.IsInf(r.Ease, 0) || r.Ease == 0 {
		r.Ease = DefaultEase
	}
	if r.Ease < MinEase {
		r.Ease = MinEase
	}
	if r.Interval < 0 {
		r.Interval = 0
	}
	if r.Repetitions < 0 {
		r.Repetitions = 0
	}
	if r.TotalReviews < 0 {
		r.TotalReviews = 0
	}
	if r.Lapses < 0 {
		r.Lapses = 0
	}
}
