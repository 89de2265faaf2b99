package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vocabtrainer/backend/internal/models"
	"go.uber.org/zap"
)

type progressRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProgressRepository creates a new instance of the ProgressRepository interface
func NewProgressRepository(db *sql.DB, logger *zap.Logger) *progressRepository {
	return &progressRepository{
		db:     db,
		logger: logger,
	}
}

// Method Get is a ProgressRepository implementation for retrieving the document of a learner.
//
// models.ErrNotFound is returned when the learner has no stored document.
func (r *progressRepository) Get(ctx context.Context, learnerID string) (*models.ProgressDocument, error) {
	query := `
		SELECT progress, history
		FROM progress_documents
		WHERE learner_id = ?
	`

	var progress, history []byte
	err := r.db.QueryRowContext(ctx, query, learnerID).Scan(&progress, &history)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("failed to query progress document", zap.Error(err), zap.String("learner_id", learnerID))
		return nil, fmt.Errorf("failed to query progress document: %w", err)
	}

	doc := &models.ProgressDocument{}
	if err := json.Unmarshal(progress, &doc.Progress); err != nil {
		return nil, fmt.Errorf("failed to decode stored progress: %w", err)
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &doc.History); err != nil {
			return nil, fmt.Errorf("failed to decode stored history: %w", err)
		}
	}
	return doc, nil
}

// Method Upsert is a ProgressRepository implementation for replacing the document of a learner
func (r *progressRepository) Upsert(ctx context.Context, learnerID string, doc *models.ProgressDocument) error {
	progress, err := json.Marshal(doc.Progress)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	history, err := json.Marshal(doc.History)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	query := `
		INSERT INTO progress_documents (learner_id, progress, history, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE progress = VALUES(progress), history = VALUES(history), updated_at = VALUES(updated_at)
	`
	if _, err := r.db.ExecContext(ctx, query, learnerID, progress, history, time.Now().UTC()); err != nil {
		r.logger.Error("failed to upsert progress document", zap.Error(err), zap.String("learner_id", learnerID))
		return fmt.Errorf("failed to upsert progress document: %w", err)
	}
	return nil
}

// Method Delete is a ProgressRepository implementation for removing the document of a learner.
//
// Deleting a missing document is not an error.
func (r *progressRepository) Delete(ctx context.Context, learnerID string) error {
	query := `DELETE FROM progress_documents WHERE learner_id = ?`
	if _, err := r.db.ExecContext(ctx, query, learnerID); err != nil {
		r.logger.Error("failed to delete progress document", zap.Error(err), zap.String("learner_id", learnerID))
		return fmt.Errorf("failed to delete progress document: %w", err)
	}
	return nil
}
