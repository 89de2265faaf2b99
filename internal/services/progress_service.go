package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/vocabtrainer/backend/internal/models"
	"go.uber.org/zap"
)

// ErrInvalidLearnerID is returned for an empty or malformed learner id
var ErrInvalidLearnerID = errors.New("invalid learner id")

var learnerIDPattern = regexp.MustCompile(`^[A-Za-z0-9._@-]{1,128}$`)

// ProgressRepository is the interface that wraps methods for progress_documents table data access
type ProgressRepository interface {
	// Method Get retrieve the stored document of a learner.
	//
	// models.ErrNotFound is returned when nothing is stored.
	Get(ctx context.Context, learnerID string) (*models.ProgressDocument, error)
	// Method Upsert insert or fully replace the document of a learner
	Upsert(ctx context.Context, learnerID string, doc *models.ProgressDocument) error
	// Method Delete remove the document of a learner; a missing document is not an error
	Delete(ctx context.Context, learnerID string) error
}

type progressService struct {
	repo   ProgressRepository
	logger *zap.Logger
}

// NewProgressService creates a new progress service
func NewProgressService(repo ProgressRepository, logger *zap.Logger) *progressService {
	return &progressService{
		repo:   repo,
		logger: logger,
	}
}

// Get returns the repaired document of the learner
func (s *progressService) Get(ctx context.Context, learnerID string) (*models.ProgressDocument, error) {
	if err := validateLearnerID(learnerID); err != nil {
		return nil, err
	}

	doc, err := s.repo.Get(ctx, learnerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to get progress", zap.String("learner_id", learnerID), zap.Error(err))
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	doc.Repair()
	return doc, nil
}

// Save repairs the document, bounds its history and stores it as the learner's only copy
func (s *progressService) Save(ctx context.Context, learnerID string, doc *models.ProgressDocument) (*models.ProgressDocument, error) {
	if err := validateLearnerID(learnerID); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("progress document is required")
	}

	repaired := doc.Clone()
	repaired.Repair()

	if err := s.repo.Upsert(ctx, learnerID, &repaired); err != nil {
		s.logger.Error("failed to save progress", zap.String("learner_id", learnerID), zap.Error(err))
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}

	s.logger.Debug("progress saved",
		zap.String("learner_id", learnerID),
		zap.Int("cards", len(repaired.Progress.Cards)),
		zap.Int("history", len(repaired.History)))
	return &repaired, nil
}

// Delete removes the document of the learner
func (s *progressService) Delete(ctx context.Context, learnerID string) error {
	if err := validateLearnerID(learnerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, learnerID); err != nil {
		s.logger.Error("failed to delete progress", zap.String("learner_id", learnerID), zap.Error(err))
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	return nil
}

func validateLearnerID(learnerID string) error {
	if !learnerIDPattern.MatchString(learnerID) {
		return fmt.Errorf("%w: %q", ErrInvalidLearnerID, learnerID)
	}
	return nil
}
