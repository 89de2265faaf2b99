package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vocabtrainer/backend/internal/models"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

const day = int64(86400000)

func testGradeConfig() GradeConfig {
	return GradeConfig{DailyNewLimit: 20, LapseMinutes: 10}
}

func todayMeta() models.DailyMeta {
	return models.DailyMeta{LastReviewDay: DayKey(testNow)}
}

func TestApplyGrade_Again(t *testing.T) {
	nowMs := testNow.UnixMilli()
	tests := []struct {
		name   string
		record models.ReviewRecord
	}{
		{name: "fresh record", record: models.NewReviewRecord(nowMs)},
		{name: "mature record", record: models.ReviewRecord{Ease: 2.8, Interval: 40, Repetitions: 6, Due: nowMs - 1000, Seen: true}},
		{name: "already lapsed", record: models.ReviewRecord{Ease: 1.3, Interval: 0, Repetitions: 0, Due: nowMs, Lapses: 3, Seen: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := todayMeta()
			rec := ApplyGrade(tt.record, models.GradeAgain, models.CardKindReview, testNow, &meta, testGradeConfig())

			assert.Equal(t, 0, rec.Interval)
			assert.Equal(t, 0, rec.Repetitions)
			assert.Equal(t, nowMs+10*60000, rec.Due)
			assert.Equal(t, tt.record.Lapses+1, rec.Lapses)
			assert.InDelta(t, max(models.MinEase, tt.record.Ease-0.2), rec.Ease, 1e-9)
			require.NotNil(t, rec.LastReview)
			assert.Equal(t, nowMs, *rec.LastReview)
		})
	}
}

func TestApplyGrade_FirstRepetition(t *testing.T) {
	nowMs := testNow.UnixMilli()

	meta := todayMeta()
	good := ApplyGrade(models.NewReviewRecord(nowMs), models.GradeGood, models.CardKindNew, testNow, &meta, testGradeConfig())
	assert.Equal(t, 1, good.Interval)
	assert.Equal(t, 1, good.Repetitions)
	assert.Equal(t, models.DefaultEase, good.Ease)
	assert.Equal(t, nowMs+day, good.Due)

	meta = todayMeta()
	easy := ApplyGrade(models.NewReviewRecord(nowMs), models.GradeEasy, models.CardKindNew, testNow, &meta, testGradeConfig())
	assert.Equal(t, 4, easy.Interval)
	assert.Equal(t, 1, easy.Repetitions)
	assert.InDelta(t, 2.65, easy.Ease, 1e-9)
	assert.Equal(t, nowMs+4*day, easy.Due)
}

func TestApplyGrade_GoodScenario(t *testing.T) {
	nowMs := testNow.UnixMilli()
	meta := todayMeta()
	record := models.ReviewRecord{Repetitions: 1, Interval: 6, Ease: 2.5, Due: nowMs - 1000, Seen: true}

	rec := ApplyGrade(record, models.GradeGood, models.CardKindReview, testNow, &meta, testGradeConfig())

	assert.Equal(t, 15, rec.Interval)
	assert.Equal(t, 2, rec.Repetitions)
	assert.Equal(t, nowMs+15*day, rec.Due)
	assert.Equal(t, 1, rec.TotalReviews)
}

func TestApplyGrade_Intervals(t *testing.T) {
	nowMs := testNow.UnixMilli()
	tests := []struct {
		name             string
		record           models.ReviewRecord
		grade            models.Grade
		expectedInterval int
		expectedReps     int
		expectedEase     float64
	}{
		{
			name:             "good second step from one day",
			record:           models.ReviewRecord{Ease: 2.5, Interval: 1, Repetitions: 1},
			grade:            models.GradeGood,
			expectedInterval: 6,
			expectedReps:     2,
			expectedEase:     2.5,
		},
		{
			name:             "good mature",
			record:           models.ReviewRecord{Ease: 2.2, Interval: 15, Repetitions: 3},
			grade:            models.GradeGood,
			expectedInterval: 33,
			expectedReps:     4,
			expectedEase:     2.2,
		},
		{
			name:             "hard from zero interval",
			record:           models.ReviewRecord{Ease: 2.5, Interval: 0, Repetitions: 0},
			grade:            models.GradeHard,
			expectedInterval: 1,
			expectedReps:     0,
			expectedEase:     2.35,
		},
		{
			name:             "hard scales by 1.2",
			record:           models.ReviewRecord{Ease: 2.5, Interval: 10, Repetitions: 3},
			grade:            models.GradeHard,
			expectedInterval: 12,
			expectedReps:     3,
			expectedEase:     2.35,
		},
		{
			name:             "good rounds half away from zero",
			record:           models.ReviewRecord{Ease: 2.5, Interval: 3, Repetitions: 2},
			grade:            models.GradeGood,
			expectedInterval: 8,
			expectedReps:     3,
			expectedEase:     2.5,
		},
		{
			name:             "hard one day stays at floor",
			record:           models.ReviewRecord{Ease: 2.5, Interval: 1, Repetitions: 1},
			grade:            models.GradeHard,
			expectedInterval: 1,
			expectedReps:     1,
			expectedEase:     2.35,
		},
		{
			name:             "easy second step",
			record:           models.ReviewRecord{Ease: 2.5, Interval: 4, Repetitions: 1},
			grade:            models.GradeEasy,
			expectedInterval: 10,
			expectedReps:     2,
			expectedEase:     2.65,
		},
		{
			name:             "easy mature uses raised ease",
			record:           models.ReviewRecord{Ease: 2.5, Interval: 10, Repetitions: 2},
			grade:            models.GradeEasy,
			expectedInterval: 34,
			expectedReps:     3,
			expectedEase:     2.65,
		},
		{
			name:             "easy has no ceiling",
			record:           models.ReviewRecord{Ease: 4.0, Interval: 1, Repetitions: 5},
			grade:            models.GradeEasy,
			expectedInterval: 5,
			expectedReps:     6,
			expectedEase:     4.15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := todayMeta()
			tt.record.Due = nowMs - 1
			rec := ApplyGrade(tt.record, tt.grade, models.CardKindReview, testNow, &meta, testGradeConfig())

			assert.Equal(t, tt.expectedInterval, rec.Interval)
			assert.Equal(t, tt.expectedReps, rec.Repetitions)
			assert.InDelta(t, tt.expectedEase, rec.Ease, 1e-9)
			assert.Equal(t, nowMs+int64(tt.expectedInterval)*day, rec.Due)
		})
	}
}

func TestApplyGrade_EaseFloor(t *testing.T) {
	meta := todayMeta()
	rec := models.NewReviewRecord(testNow.UnixMilli())

	for i := range 50 {
		grade := models.GradeAgain
		if i%2 == 1 {
			grade = models.GradeHard
		}
		rec = ApplyGrade(rec, grade, models.CardKindReview, testNow, &meta, testGradeConfig())
		assert.GreaterOrEqual(t, rec.Ease, models.MinEase)
	}
	assert.Equal(t, models.MinEase, rec.Ease)
	assert.Equal(t, 25, rec.Lapses)
	assert.Equal(t, 50, rec.TotalReviews)
}

func TestApplyGrade_NewQuota(t *testing.T) {
	cfg := GradeConfig{DailyNewLimit: 3, LapseMinutes: 10}
	meta := todayMeta()

	for range 10 {
		rec := ApplyGrade(models.NewReviewRecord(testNow.UnixMilli()), models.GradeGood, models.CardKindNew, testNow, &meta, cfg)
		assert.True(t, rec.Seen)
		assert.LessOrEqual(t, meta.NewToday, cfg.DailyNewLimit)
	}
	assert.Equal(t, 3, meta.NewToday)
	assert.Equal(t, 10, meta.ReviewsToday)
}

func TestApplyGrade_SeenCountsOnce(t *testing.T) {
	meta := todayMeta()
	rec := models.NewReviewRecord(testNow.UnixMilli())

	rec = ApplyGrade(rec, models.GradeAgain, models.CardKindNew, testNow, &meta, testGradeConfig())
	rec = ApplyGrade(rec, models.GradeGood, models.CardKindNew, testNow, &meta, testGradeConfig())

	assert.Equal(t, 1, meta.NewToday)
	assert.Equal(t, 2, meta.ReviewsToday)

	reviewMeta := todayMeta()
	unseen := ApplyGrade(models.NewReviewRecord(testNow.UnixMilli()), models.GradeGood, models.CardKindReview, testNow, &reviewMeta, testGradeConfig())
	assert.False(t, unseen.Seen)
	assert.Equal(t, 0, reviewMeta.NewToday)
}

func TestApplyGrade_DayRollover(t *testing.T) {
	beforeMidnight := time.Date(2026, 3, 10, 23, 58, 0, 0, time.UTC)
	afterMidnight := time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC)
	meta := models.DailyMeta{LastReviewDay: "2026-03-10", ReviewsToday: 7, NewToday: 2}

	_ = ApplyGrade(models.NewReviewRecord(beforeMidnight.UnixMilli()), models.GradeGood, models.CardKindNew, beforeMidnight, &meta, testGradeConfig())
	assert.Equal(t, 8, meta.ReviewsToday)
	assert.Equal(t, 3, meta.NewToday)

	_ = ApplyGrade(models.NewReviewRecord(afterMidnight.UnixMilli()), models.GradeGood, models.CardKindNew, afterMidnight, &meta, testGradeConfig())
	assert.Equal(t, "2026-03-11", meta.LastReviewDay)
	assert.Equal(t, 1, meta.ReviewsToday)
	assert.Equal(t, 1, meta.NewToday)

	later := afterMidnight.Add(time.Minute)
	_ = ApplyGrade(models.NewReviewRecord(later.UnixMilli()), models.GradeHard, models.CardKindReview, later, &meta, testGradeConfig())
	assert.Equal(t, 2, meta.ReviewsToday)
	assert.Equal(t, 1, meta.NewToday)
}

func TestApplyGrade_InvalidGrade(t *testing.T) {
	meta := todayMeta()
	record := models.ReviewRecord{Ease: 2.5, Interval: 3, Repetitions: 2}

	rec := ApplyGrade(record, models.Grade(7), models.CardKindReview, testNow, &meta, testGradeConfig())

	assert.Equal(t, record, rec)
	assert.Equal(t, todayMeta(), meta)
}
