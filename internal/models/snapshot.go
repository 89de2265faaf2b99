package models

import "slices"

const (
	// SessionHistoryLimit bounds the history shown during a session
	SessionHistoryLimit = 12
	// PersistedHistoryLimit bounds the history kept in storage
	PersistedHistoryLimit = 100
)

// DailyMeta holds the per-day counters of a learner
type DailyMeta struct {
	LastReviewDay string `json:"lastReviewDay"` // Learner-local date, YYYY-MM-DD
	ReviewsToday  int    `json:"reviewsToday"`
	NewToday      int    `json:"newToday"`
}

// ProgressSnapshot is the complete scheduling state of one learner
type ProgressSnapshot struct {
	Cards map[string]ReviewRecord `json:"cards"`
	Meta  DailyMeta               `json:"meta"`
}

// NewProgressSnapshot creates an empty snapshot for the given day
func NewProgressSnapshot(day string) ProgressSnapshot {
	return ProgressSnapshot{
		Cards: make(map[string]ReviewRecord),
		Meta:  DailyMeta{LastReviewDay: day},
	}
}

// Clone returns a deep copy of the snapshot
func (s ProgressSnapshot) Clone() ProgressSnapshot {
	cards := make(map[string]ReviewRecord, len(s.Cards))
	for word, rec := range s.Cards {
		if rec.LastReview != nil {
			last := *rec.LastReview
			rec.LastReview = &last
		}
		cards[word] = rec
	}
	return ProgressSnapshot{Cards: cards, Meta: s.Meta}
}

// Repair makes the snapshot structurally valid.
//
// It ensures the cards mapping exists, drops records without a word and clamps values
// violating record invariants. Day rollover is not part of Repair.
func (s *ProgressSnapshot) Repair() {
	if s.Cards == nil {
		s.Cards = make(map[string]ReviewRecord)
	}
	for word, rec := range s.Cards {
		if word == "" {
			delete(s.Cards, word)
			continue
		}
		rec.repair()
		s.Cards[word] = rec
	}
	if s.Meta.ReviewsToday < 0 {
		s.Meta.ReviewsToday = 0
	}
	if s.Meta.NewToday < 0 {
		s.Meta.NewToday = 0
	}
}

// HistoryEntry records one grading event
type HistoryEntry struct {
	Word      string   `json:"word"`
	Mode      CardKind `json:"mode"`
	Grade     Grade    `json:"grade"`
	Timestamp int64    `json:"timestamp"`
}

// PrependHistory adds the entry as the newest one and drops entries beyond the limit
func PrependHistory(history []HistoryEntry, entry HistoryEntry, limit int) []HistoryEntry {
	out := make([]HistoryEntry, 0, min(len(history)+1, limit))
	out = append(out, entry)
	out = append(out, history...)
	return TruncateHistory(out, limit)
}

// TruncateHistory keeps only the newest entries up to the limit
func TruncateHistory(history []HistoryEntry, limit int) []HistoryEntry {
	if limit < 0 {
		limit = 0
	}
	if len(history) > limit {
		history = history[:limit]
	}
	return history
}

// ProgressDocument is the unit of persistence and sync: a snapshot plus its history
type ProgressDocument struct {
	Progress ProgressSnapshot `json:"progress"`
	History  []HistoryEntry   `json:"history"`
}

// Clone returns a deep copy of the document
func (d ProgressDocument) Clone() ProgressDocument {
	return ProgressDocument{
		Progress: d.Progress.Clone(),
		History:  slices.Clone(d.History),
	}
}

// Repair repairs the snapshot and bounds the history
func (d *ProgressDocument) Repair() {
	d.Progress.Repair()
	if d.History == nil {
		d.History = []HistoryEntry{}
	}
	d.History = TruncateHistory(d.History, PersistedHistoryLimit)
}
