package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vocabtrainer/backend/internal/middleware"
	"github.com/vocabtrainer/backend/internal/models"
	"github.com/vocabtrainer/backend/internal/services"
	"go.uber.org/zap"
)

// ProgressService is the interface that wraps methods for progress document business logic.
type ProgressService interface {
	// Method Get retrieve the repaired progress document of a learner.
	//
	// models.ErrNotFound is returned when the learner has no document.
	// services.ErrInvalidLearnerID is returned for a malformed learner id.
	Get(ctx context.Context, learnerID string) (*models.ProgressDocument, error)
	// Method Save fully replace the progress document of a learner and return the stored copy.
	//
	// Please reference Get method for more information about error values.
	Save(ctx context.Context, learnerID string, doc *models.ProgressDocument) (*models.ProgressDocument, error)
	// Method Delete remove the progress document of a learner. A missing document is not an error.
	Delete(ctx context.Context, learnerID string) error
}

// ProgressHandler handles HTTP requests for progress documents
type ProgressHandler struct {
	BaseHandler
	service ProgressService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(svc ProgressService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all progress handler routes behind the auth middleware
func (h *ProgressHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/progress/{learnerID}", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.Get)
		r.Put("/", h.Put)
		r.Delete("/", h.Delete)
	})
}

// Get handles GET /api/v1/progress/{learnerID}
// @Summary Get learner progress
// @Description Get the progress snapshot and grading history of a learner
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Param learnerID path string true "Learner ID"
// @Success 200 {object} models.ProgressDocument
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/progress/{learnerID} [get]
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	doc, err := h.service.Get(r.Context(), learnerID)
	if err != nil {
		h.handleServiceError(w, err, "failed to get progress")
		return
	}

	h.respondJSON(w, http.StatusOK, doc)
}

// Put handles PUT /api/v1/progress/{learnerID}
// @Summary Replace learner progress
// @Description Fully replace the progress snapshot and grading history of a learner. The history is kept to the 100 newest entries.
// @Tags progress
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param learnerID path string true "Learner ID"
// @Param document body models.ProgressDocument true "Progress document"
// @Success 200 {object} models.ProgressDocument
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/progress/{learnerID} [put]
func (h *ProgressHandler) Put(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var doc models.ProgressDocument
	if !h.decodeJSON(w, r, &doc, "invalid progress document") {
		return
	}

	saved, err := h.service.Save(r.Context(), learnerID, &doc)
	if err != nil {
		h.handleServiceError(w, err, "failed to save progress")
		return
	}

	h.respondJSON(w, http.StatusOK, saved)
}

// Delete handles DELETE /api/v1/progress/{learnerID}
// @Summary Delete learner progress
// @Description Delete the progress document of a learner. Deleting a missing document succeeds.
// @Tags progress
// @Security ApiKeyAuth
// @Param learnerID path string true "Learner ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/progress/{learnerID} [delete]
func (h *ProgressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), learnerID); err != nil {
		h.handleServiceError(w, err, "failed to delete progress")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// authorize checks that the token subject owns the requested document
func (h *ProgressHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	subject, ok := middleware.GetLearnerID(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}

	learnerID := chi.URLParam(r, "learnerID")
	if learnerID != subject {
		h.logger.Warn("learner id does not match token subject",
			zap.String("learner_id", learnerID),
			zap.String("subject", subject),
			zap.String("request_id", middleware.GetRequestID(r.Context())))
		h.respondError(w, http.StatusForbidden, "access to this progress is forbidden")
		return "", false
	}
	return learnerID, true
}

func (h *ProgressHandler) handleServiceError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "progress not found")
	case errors.Is(err, services.ErrInvalidLearnerID):
		h.respondError(w, http.StatusBadRequest, "invalid learner id")
	default:
		h.logger.Error(message, zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, message)
	}
}
