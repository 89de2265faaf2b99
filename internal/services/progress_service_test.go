package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vocabtrainer/backend/internal/models"
	"go.uber.org/zap"
)

// mockRepository is a mock implementation of ProgressRepository
type mockRepository struct {
	doc       *models.ProgressDocument
	err       error
	saved     *models.ProgressDocument
	savedID   string
	deletedID string
}

func (m *mockRepository) Get(ctx context.Context, learnerID string) (*models.ProgressDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.doc == nil {
		return nil, models.ErrNotFound
	}
	return m.doc, nil
}

func (m *mockRepository) Upsert(ctx context.Context, learnerID string, doc *models.ProgressDocument) error {
	if m.err != nil {
		return m.err
	}
	m.saved = doc
	m.savedID = learnerID
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, learnerID string) error {
	if m.err != nil {
		return m.err
	}
	m.deletedID = learnerID
	return nil
}

func TestNewProgressService(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	mockRepo := &mockRepository{}

	svc := NewProgressService(mockRepo, logger)

	assert.NotNil(t, svc)
	assert.Equal(t, mockRepo, svc.repo)
	assert.Equal(t, logger, svc.logger)
}

func TestProgressService_Get(t *testing.T) {
	tests := []struct {
		name          string
		learnerID     string
		repo          *mockRepository
		expectedError error
	}{
		{
			name:      "success repairs document",
			learnerID: "learner-1",
			repo: &mockRepository{doc: &models.ProgressDocument{
				Progress: models.ProgressSnapshot{Cards: map[string]models.ReviewRecord{"hello": {Ease: 0.9}}},
			}},
		},
		{name: "not found", learnerID: "learner-1", repo: &mockRepository{}, expectedError: models.ErrNotFound},
		{name: "invalid learner id", learnerID: "", repo: &mockRepository{}, expectedError: ErrInvalidLearnerID},
		{name: "learner id with slash", learnerID: "a/b", repo: &mockRepository{}, expectedError: ErrInvalidLearnerID},
		{name: "repository error", learnerID: "learner-1", repo: &mockRepository{err: errors.New("db down")}, expectedError: errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewProgressService(tt.repo, zap.NewNop())

			doc, err := svc.Get(context.Background(), tt.learnerID)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Nil(t, doc)
				if errors.Is(tt.expectedError, models.ErrNotFound) || errors.Is(tt.expectedError, ErrInvalidLearnerID) {
					assert.ErrorIs(t, err, tt.expectedError)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.MinEase, doc.Progress.Cards["hello"].Ease)
			assert.NotNil(t, doc.History)
		})
	}
}

func TestProgressService_Save(t *testing.T) {
	history := make([]models.HistoryEntry, 130)
	for i := range history {
		history[i] = models.HistoryEntry{Word: "w", Mode: models.CardKindReview, Grade: models.GradeGood, Timestamp: int64(130 - i)}
	}
	doc := &models.ProgressDocument{
		Progress: models.ProgressSnapshot{
			Cards: map[string]models.ReviewRecord{"": {}, "hello": {Ease: 2.5, Interval: -3}},
			Meta:  models.DailyMeta{LastReviewDay: "2026-03-10", ReviewsToday: -1},
		},
		History: history,
	}

	t.Run("success", func(t *testing.T) {
		repo := &mockRepository{}
		svc := NewProgressService(repo, zap.NewNop())

		saved, err := svc.Save(context.Background(), "learner-1", doc)
		require.NoError(t, err)

		assert.Equal(t, "learner-1", repo.savedID)
		assert.Equal(t, saved, repo.saved)
		assert.Len(t, saved.History, models.PersistedHistoryLimit)
		assert.Equal(t, int64(130), saved.History[0].Timestamp)
		assert.NotContains(t, saved.Progress.Cards, "")
		assert.Equal(t, 0, saved.Progress.Cards["hello"].Interval)
		assert.Equal(t, 0, saved.Progress.Meta.ReviewsToday)

		// The caller's document is left untouched
		assert.Len(t, doc.History, 130)
		assert.Contains(t, doc.Progress.Cards, "")
	})

	t.Run("nil document", func(t *testing.T) {
		svc := NewProgressService(&mockRepository{}, zap.NewNop())
		_, err := svc.Save(context.Background(), "learner-1", nil)
		assert.Error(t, err)
	})

	t.Run("invalid learner id", func(t *testing.T) {
		svc := NewProgressService(&mockRepository{}, zap.NewNop())
		_, err := svc.Save(context.Background(), strings.Repeat("x", 129), doc)
		assert.ErrorIs(t, err, ErrInvalidLearnerID)
	})

	t.Run("repository error", func(t *testing.T) {
		svc := NewProgressService(&mockRepository{err: errors.New("db down")}, zap.NewNop())
		_, err := svc.Save(context.Background(), "learner-1", doc)
		assert.Error(t, err)
	})
}

func TestProgressService_Delete(t *testing.T) {
	repo := &mockRepository{}
	svc := NewProgressService(repo, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "learner-1"))
	assert.Equal(t, "learner-1", repo.deletedID)

	assert.ErrorIs(t, svc.Delete(context.Background(), ""), ErrInvalidLearnerID)

	failing := NewProgressService(&mockRepository{err: errors.New("db down")}, zap.NewNop())
	assert.Error(t, failing.Delete(context.Background(), "learner-1"))
}
