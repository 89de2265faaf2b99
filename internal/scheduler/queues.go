package scheduler

import (
	"cmp"
	"slices"
	"time"

	"github.com/vocabtrainer/backend/internal/models"
)

// QueueConfig controls which cards enter the queues
type QueueConfig struct {
	LevelFilter   models.LevelFilter
	DailyNewLimit int
}

// Queues holds the two ordered queues served by a session
type Queues struct {
	Review []models.CardDefinition
	New    []models.CardDefinition
}

// Len returns the total number of queued cards
func (q Queues) Len() int {
	return len(q.Review) + len(q.New)
}

// BuildQueues partitions the catalog into due-for-review and eligible-new cards.
//
// Cards without a record (or with a record missing its due time) are new candidates, taken in
// catalog order and truncated to the remaining daily new-word quota. Cards with due <= now are
// reviews, sorted by due time with catalog order breaking ties. Cards due in the future are left out.
// Neither queue is shuffled.
func BuildQueues(cards []models.CardDefinition, snapshot models.ProgressSnapshot, now time.Time, cfg QueueConfig) Queues {
	nowMs := now.UnixMilli()

	review := make([]models.CardDefinition, 0)
	fresh := make([]models.CardDefinition, 0)
	for _, card := range cards {
		if !cfg.LevelFilter.Matches(card.Level) {
			continue
		}
		rec, ok := snapshot.Cards[card.Word]
		switch {
		case !ok || rec.Due == 0:
			fresh = append(fresh, card)
		case rec.Due <= nowMs:
			review = append(review, card)
		}
	}

	slices.SortStableFunc(review, func(a, b models.CardDefinition) int {
		return cmp.Compare(snapshot.Cards[a.Word].Due, snapshot.Cards[b.Word].Due)
	})

	quota := remainingNewQuota(snapshot.Meta, now, cfg.DailyNewLimit)
	if len(fresh) > quota {
		fresh = fresh[:quota]
	}

	return Queues{Review: review, New: fresh}
}

// remainingNewQuota reads the new-word counter of a rolled-over copy of meta
func remainingNewQuota(meta models.DailyMeta, now time.Time, dailyNewLimit int) int {
	Normalize(&meta, now)
	return max(0, dailyNewLimit-meta.NewToday)
}
