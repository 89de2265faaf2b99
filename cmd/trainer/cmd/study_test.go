package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vocabtrainer/backend/internal/cache"
	"github.com/vocabtrainer/backend/internal/catalog"
	"github.com/vocabtrainer/backend/internal/config"
	"github.com/vocabtrainer/backend/internal/models"
	"github.com/vocabtrainer/backend/internal/trainer"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T, cards ...models.CardDefinition) *trainer.App {
	t.Helper()
	cat, err := catalog.New(cards)
	require.NoError(t, err)

	cfg := &config.TrainerConfig{
		DailyNewLimit: 20,
		LapseMinutes:  10,
		LevelFilter:   models.LevelFilterAll,
		AutoplayAudio: true,
		Cache:         config.CacheConfig{Driver: "memory", BaseKey: "vocab-progress"},
		SaveDebounce:  time.Hour,
	}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	app := trainer.Assemble(trainer.Dependencies{Catalog: cat, Cache: cache.NewMemory()}, cfg, zap.NewNop(),
		trainer.WithClock(func() time.Time { return now }))
	app.Start(context.Background())
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	return app
}

func TestRunStudy_RevealAndGrade(t *testing.T) {
	app := newTestApp(t, models.CardDefinition{
		Word:          "apple",
		Translation:   "яблуко; яблуня",
		Level:         models.LevelA1,
		PartsOfSpeech: []string{"noun"},
		Audio:         &models.PronunciationAudio{UK: "https://audio.example/apple-uk.mp3"},
	})

	var out bytes.Buffer
	err := runStudy(context.Background(), app, strings.NewReader("\ngood\n"), &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "apple [A1] (noun) - new card")
	assert.Contains(t, text, "1. яблуко")
	assert.Contains(t, text, "2. яблуня")
	assert.Contains(t, text, "audio: https://audio.example/apple-uk.mp3")
	assert.Contains(t, text, "apple: good")
	assert.Contains(t, text, "Nothing left to study right now.")

	history := app.History(10)
	require.Len(t, history, 1)
	assert.Equal(t, models.GradeGood, history[0].Grade)
}

func TestRunStudy_InvalidGradeAndJump(t *testing.T) {
	app := newTestApp(t,
		models.CardDefinition{Word: "apple", Translation: "яблуко"},
		models.CardDefinition{Word: "river", Translation: "річка"},
	)

	var out bytes.Buffer
	input := "/river\n\n7\nagain\n/unknown\n:history\n:quit\n"
	err := runStudy(context.Background(), app, strings.NewReader(input), &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "enter 0-3 or again, hard, good, easy")
	assert.Contains(t, text, "river: again")
	assert.Contains(t, text, "unknown word")

	history := app.History(10)
	require.Len(t, history, 1)
	assert.Equal(t, "river", history[0].Word)
	assert.Equal(t, models.GradeAgain, history[0].Grade)
}

func TestRunStudy_EndOfInput(t *testing.T) {
	app := newTestApp(t, models.CardDefinition{Word: "apple", Translation: "яблуко"})

	var out bytes.Buffer
	err := runStudy(context.Background(), app, strings.NewReader(":stats\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "due: 0  new left today: 1")
	assert.Empty(t, app.History(10))
}
