package scheduler

import (
	"time"

	"github.com/vocabtrainer/backend/internal/models"
)

// ComputeStats summarises the snapshot for the filtered catalog.
//
// NextDueTimestamp is the earliest due time still in the future, nil when nothing is pending.
func ComputeStats(cards []models.CardDefinition, snapshot models.ProgressSnapshot, now time.Time, cfg QueueConfig) models.Stats {
	queues := BuildQueues(cards, snapshot, now, cfg)
	nowMs := now.UnixMilli()

	meta := snapshot.Meta
	Normalize(&meta, now)

	stats := models.Stats{
		DueCount:     len(queues.Review),
		NewRemaining: len(queues.New),
		ReviewsToday: meta.ReviewsToday,
	}
	for _, card := range cards {
		if !cfg.LevelFilter.Matches(card.Level) {
			continue
		}
		stats.TotalCards++
		rec, ok := snapshot.Cards[card.Word]
		if !ok || rec.Due <= nowMs {
			continue
		}
		if stats.NextDueTimestamp == nil || rec.Due < *stats.NextDueTimestamp {
			due := rec.Due
			stats.NextDueTimestamp = &due
		}
	}
	return stats
}
