// Package session drives one study session: it serves cards from the review and new
// queues, reveals them and records grades through the review record store.
package session

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/vocabtrainer/backend/internal/models"
	"github.com/vocabtrainer/backend/internal/scheduler"
	"github.com/vocabtrainer/backend/internal/store"
	"go.uber.org/zap"
)

// Catalog is the read-only card source of a session
type Catalog interface {
	// Cards returns all cards in catalog order
	Cards() []models.CardDefinition
	// Find returns the card with the given word, matching case-insensitively
	Find(word string) (models.CardDefinition, bool)
}

// SaveScheduler is notified after every recorded grade
type SaveScheduler interface {
	ScheduleSave()
}

// State is the per-card state of the session
type State int

const (
	StateIdle State = iota
	StateShowing
	StateRevealed
)

func (s State) String() string {
	switch s {
	case StateShowing:
		return "showing"
	case StateRevealed:
		return "revealed"
	default:
		return "idle"
	}
}

// Config holds the learner settings consumed by a session
type Config struct {
	DailyNewLimit int
	LapseMinutes  float64
	LevelFilter   models.LevelFilter
	AutoplayAudio bool
}

// Card is a card served to the learner together with the queue it came from
type Card struct {
	Definition models.CardDefinition
	Kind       models.CardKind
}

// GradeResult describes a recorded grade and the card that follows it
type GradeResult struct {
	Word   string
	Record models.ReviewRecord
	Next   *Card // nil when both queues are empty
}

// Controller is the session state machine: Idle -> Showing -> Revealed -> Idle.
//
// It is safe for concurrent use.
type Controller struct {
	mu      sync.Mutex
	catalog Catalog
	store   *store.Store
	saver   SaveScheduler
	logger  *zap.Logger
	now     func() time.Time
	cfg     Config

	queues  scheduler.Queues
	built   bool
	current *Card
	state   State
}

// Option configures a Controller
type Option func(*Controller)

// WithClock replaces the wall clock used for scheduling
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController creates a session over the catalog and the store
func NewController(catalog Catalog, st *store.Store, saver SaveScheduler, cfg Config, logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		catalog: catalog,
		store:   st,
		saver:   saver,
		logger:  logger,
		now:     time.Now,
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Next returns the card currently shown, or pops the next one when the session is idle.
//
// The review queue is served before the new queue. ErrNoCard is returned when both are empty.
func (c *Controller) Next() (Card, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle && c.current != nil {
		return *c.current, nil
	}
	c.ensureQueues()
	if !c.pop() {
		return Card{}, models.ErrNoCard
	}
	return *c.current, nil
}

// Reveal shows the answer of the current card.
//
// It returns the pronunciation URL to autoplay, empty when autoplay is off or the card has no audio.
func (c *Controller) Reveal() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateIdle || c.current == nil {
		return "", fmt.Errorf("%w: nothing to reveal", models.ErrInvalidState)
	}
	c.state = StateRevealed
	if !c.cfg.AutoplayAudio {
		return "", nil
	}
	return c.current.Definition.AudioURL(), nil
}

// Grade records the grade of the revealed card, rebuilds the queues and moves to the next card
func (c *Controller) Grade(grade models.Grade) (GradeResult, error) {
	if !grade.Valid() {
		return GradeResult{}, fmt.Errorf("%w: %d", models.ErrInvalidGrade, int(grade))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRevealed || c.current == nil {
		return GradeResult{}, fmt.Errorf("%w: card must be revealed before grading", models.ErrInvalidState)
	}

	card := *c.current
	now := c.now()
	rec, err := c.store.Grade(card.Definition.Word, grade, card.Kind, now, c.gradeConfig())
	if err != nil {
		return GradeResult{}, err
	}
	c.logger.Debug("card graded",
		zap.String("word", card.Definition.Word),
		zap.String("kind", string(card.Kind)),
		zap.String("grade", grade.String()),
		zap.Int("interval", rec.Interval),
	)

	if c.saver != nil {
		c.saver.ScheduleSave()
	}

	c.current = nil
	c.state = StateIdle
	c.rebuild(now)

	result := GradeResult{Word: card.Definition.Word, Record: rec}
	if c.pop() {
		next := *c.current
		result.Next = &next
	}
	return result, nil
}

// Jump shows the given word directly, bypassing the queues.
//
// The kind is review when the learner already has a record for the word and new otherwise.
func (c *Controller) Jump(word string) (Card, error) {
	def, ok := c.catalog.Find(word)
	if !ok {
		return Card{}, fmt.Errorf("%w: %q", models.ErrUnknownWord, word)
	}

	kind := models.CardKindNew
	if _, ok := c.store.Record(def.Word); ok {
		kind = models.CardKindReview
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ensureQueues()
	card := Card{Definition: def, Kind: kind}
	c.current = &card
	c.state = StateShowing
	return card, nil
}

// Current returns the card being shown
func (c *Controller) Current() (Card, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Card{}, false
	}
	return *c.current, true
}

// State returns the state of the current card
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats summarises the learner progress for the filtered catalog
func (c *Controller) Stats() models.Stats {
	c.mu.Lock()
	cfg := c.queueConfig()
	c.mu.Unlock()
	return scheduler.ComputeStats(c.catalog.Cards(), c.store.Snapshot(), c.now(), cfg)
}

// Queued returns the number of cards waiting in the review and new queues
func (c *Controller) Queued() (review, fresh int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureQueues()
	return len(c.queues.Review), len(c.queues.New)
}

// RecentHistory returns the newest grading events shown during a session
func (c *Controller) RecentHistory() []models.HistoryEntry {
	return c.store.History(models.SessionHistoryLimit)
}

// Config returns the active settings
func (c *Controller) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// SetDailyNewLimit changes the new-word quota and rebuilds the queues
func (c *Controller) SetDailyNewLimit(limit int) error {
	if limit <= 0 {
		return fmt.Errorf("%w: daily new limit must be positive, got %d", models.ErrInvalidValue, limit)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.DailyNewLimit = limit
	c.rebuild(c.now())
	return nil
}

// SetLevelFilter changes the level filter and rebuilds the queues
func (c *Controller) SetLevelFilter(filter models.LevelFilter) error {
	if _, ok := models.ParseLevelFilter(string(filter)); !ok {
		return fmt.Errorf("%w: unknown level filter %q", models.ErrInvalidValue, filter)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.LevelFilter = filter
	c.rebuild(c.now())
	return nil
}

// SetAutoplayAudio toggles pronunciation autoplay on reveal
func (c *Controller) SetAutoplayAudio(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.AutoplayAudio = on
}

// Reload discards the current card and the queues and rebuilds them from the store.
//
// Call it once the store holds the snapshot of a newly loaded identity.
func (c *Controller) Reload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	c.state = StateIdle
	c.rebuild(c.now())
}

func (c *Controller) ensureQueues() {
	if !c.built {
		c.rebuild(c.now())
	}
}

// rebuild derives both queues from the store, leaving out the card being shown
func (c *Controller) rebuild(now time.Time) {
	queues := scheduler.BuildQueues(c.catalog.Cards(), c.store.Snapshot(), now, c.queueConfig())
	if c.current != nil {
		word := c.current.Definition.Word
		isCurrent := func(def models.CardDefinition) bool { return def.Word == word }
		queues.Review = slices.DeleteFunc(queues.Review, isCurrent)
		queues.New = slices.DeleteFunc(queues.New, isCurrent)
	}
	c.queues = queues
	c.built = true
}

// pop moves the head of the review queue, or else of the new queue, to the current card
func (c *Controller) pop() bool {
	var card Card
	switch {
	case len(c.queues.Review) > 0:
		card = Card{Definition: c.queues.Review[0], Kind: models.CardKindReview}
		c.queues.Review = c.queues.Review[1:]
	case len(c.queues.New) > 0:
		card = Card{Definition: c.queues.New[0], Kind: models.CardKindNew}
		c.queues.New = c.queues.New[1:]
	default:
		c.current = nil
		c.state = StateIdle
		return false
	}
	c.current = &card
	c.state = StateShowing
	return true
}

func (c *Controller) queueConfig() scheduler.QueueConfig {
	return scheduler.QueueConfig{LevelFilter: c.cfg.LevelFilter, DailyNewLimit: c.cfg.DailyNewLimit}
}

func (c *Controller) gradeConfig() scheduler.GradeConfig {
	return scheduler.GradeConfig{DailyNewLimit: c.cfg.DailyNewLimit, LapseMinutes: c.cfg.LapseMinutes}
}
