// Package store holds the active progress document of a learner.
package store

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/vocabtrainer/backend/internal/models"
	"github.com/vocabtrainer/backend/internal/scheduler"
)

// Store is the single owner of the in-memory progress snapshot and history.
//
// All reads return copies. Every mutation bumps the version. Grades recorded while a load
// is in flight are logged so Merge can replay them on top of the loaded document.
type Store struct {
	mu      sync.RWMutex
	doc     models.ProgressDocument
	version uint64

	fenced  bool // set between Fence and Merge; grades are rejected
	loading int
	pending []gradeEvent
}

// gradeEvent is a grade recorded while a load was in flight
type gradeEvent struct {
	version uint64
	word    string
	grade   models.Grade
	kind    models.CardKind
	now     time.Time
	cfg     scheduler.GradeConfig
}

// New creates a store holding a copy of doc
func New(doc models.ProgressDocument) *Store {
	doc = doc.Clone()
	doc.Repair()
	return &Store{doc: doc}
}

// NewEmpty creates a store with an empty snapshot for the day of now
func NewEmpty(now time.Time) *Store {
	return New(emptyDocument(now))
}

func emptyDocument(now time.Time) models.ProgressDocument {
	return models.ProgressDocument{
		Progress: models.NewProgressSnapshot(scheduler.DayKey(now)),
		History:  []models.HistoryEntry{},
	}
}

// Version returns the mutation counter
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns a copy of the active snapshot
func (s *Store) Snapshot() models.ProgressSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Progress.Clone()
}

// Document returns a copy of the snapshot together with the history
func (s *Store) Document() models.ProgressDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// History returns up to limit newest entries
func (s *Store) History(limit int) []models.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(models.TruncateHistory(s.doc.History, limit))
}

// Record returns the review record of a word
func (s *Store) Record(word string) (models.ReviewRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.doc.Progress.Cards[word]
	if ok && rec.LastReview != nil {
		last := *rec.LastReview
		rec.LastReview = &last
	}
	return rec, ok
}

// Grade applies a grade to a word, creating its record on first grading, and appends a
// history entry.
func (s *Store) Grade(word string, grade models.Grade, kind models.CardKind, now time.Time, cfg scheduler.GradeConfig) (models.ReviewRecord, error) {
	if word == "" {
		return models.ReviewRecord{}, fmt.Errorf("%w: empty word", models.ErrUnknownWord)
	}
	if !grade.Valid() {
		return models.ReviewRecord{}, fmt.Errorf("%w: %d", models.ErrInvalidGrade, int(grade))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fenced {
		return models.ReviewRecord{}, fmt.Errorf("%w: grade of %q rejected", models.ErrLoading, word)
	}

	rec := applyGrade(&s.doc, word, grade, kind, now, cfg)
	s.version++
	if s.loading > 0 {
		s.pending = append(s.pending, gradeEvent{version: s.version, word: word, grade: grade, kind: kind, now: now, cfg: cfg})
	}
	return rec, nil
}

func applyGrade(doc *models.ProgressDocument, word string, grade models.Grade, kind models.CardKind, now time.Time, cfg scheduler.GradeConfig) models.ReviewRecord {
	rec, ok := doc.Progress.Cards[word]
	if !ok {
		rec = models.NewReviewRecord(now.UnixMilli())
	}
	rec = scheduler.ApplyGrade(rec, grade, kind, now, &doc.Progress.Meta, cfg)
	doc.Progress.Cards[word] = rec
	doc.History = models.PrependHistory(doc.History, models.HistoryEntry{
		Word:      word,
		Mode:      kind,
		Grade:     grade,
		Timestamp: now.UnixMilli(),
	}, models.PersistedHistoryLimit)
	return rec
}

// Normalize rolls the daily counters over when the day has changed
func (s *Store) Normalize(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !scheduler.Normalize(&s.doc.Progress.Meta, now) {
		return false
	}
	s.version++
	return true
}

// Replace swaps the whole document
func (s *Store) Replace(doc models.ProgressDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(doc)
}

// Fence empties the store and rejects grades until the next Merge.
//
// It is used when the learner changes, so no grade of the previous learner can land in the
// document of the next one.
func (s *Store) Fence(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(emptyDocument(now))
	s.fenced = true
}

// BeginLoad marks the start of a load and returns the mark to pass to Merge
func (s *Store) BeginLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading++
	return s.version
}

// Merge installs a loaded document and replays on top of it, in order, every grade recorded
// since mark. It lifts a fence and returns the number of replayed grades.
func (s *Store) Merge(mark uint64, doc models.ProgressDocument) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc = doc.Clone()
	doc.Repair()
	replayed := 0
	for _, ev := range s.pending {
		if ev.version <= mark {
			continue
		}
		applyGrade(&doc, ev.word, ev.grade, ev.kind, ev.now, ev.cfg)
		replayed++
	}

	s.doc = doc
	s.version++
	s.fenced = false
	if s.loading > 0 {
		s.loading--
	}
	if s.loading == 0 {
		s.pending = nil
	}
	return replayed
}

// Reset replaces the document with an empty one for the day of now
func (s *Store) Reset(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(emptyDocument(now))
}

func (s *Store) replace(doc models.ProgressDocument) {
	doc = doc.Clone()
	doc.Repair()
	s.doc = doc
	s.version++
	s.pending = nil
}
