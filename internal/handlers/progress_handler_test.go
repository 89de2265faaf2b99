package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vocabtrainer/backend/internal/middleware"
	"github.com/vocabtrainer/backend/internal/models"
	"github.com/vocabtrainer/backend/internal/services"
	"go.uber.org/zap"
)

// mockProgressService is a mock implementation of ProgressService
type mockProgressService struct {
	doc       *models.ProgressDocument
	err       error
	saved     *models.ProgressDocument
	deletedID string
}

func (m *mockProgressService) Get(ctx context.Context, learnerID string) (*models.ProgressDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.doc, nil
}

func (m *mockProgressService) Save(ctx context.Context, learnerID string, doc *models.ProgressDocument) (*models.ProgressDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.saved = doc
	return doc, nil
}

func (m *mockProgressService) Delete(ctx context.Context, learnerID string) error {
	if m.err != nil {
		return m.err
	}
	m.deletedID = learnerID
	return nil
}

// fakeAuth authenticates every request as the learner from the X-Test-Learner header
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Test-Learner"); id != "" {
			r = r.WithContext(middleware.WithLearnerID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func setupRouter(svc ProgressService) *chi.Mux {
	handler := NewProgressHandler(svc, zap.NewNop())
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		handler.RegisterRoutes(r, fakeAuth)
	})
	return r
}

func sampleDocument() *models.ProgressDocument {
	doc := &models.ProgressDocument{
		Progress: models.NewProgressSnapshot("2026-03-10"),
		History:  []models.HistoryEntry{{Word: "hello", Mode: models.CardKindNew, Grade: models.GradeGood, Timestamp: 10}},
	}
	doc.Progress.Cards["hello"] = models.NewReviewRecord(10)
	return doc
}

func TestProgressHandler_Get(t *testing.T) {
	tests := []struct {
		name           string
		learner        string
		path           string
		svc            *mockProgressService
		expectedStatus int
	}{
		{name: "success", learner: "learner-1", path: "/api/v1/progress/learner-1", svc: &mockProgressService{doc: sampleDocument()}, expectedStatus: http.StatusOK},
		{name: "not found", learner: "learner-1", path: "/api/v1/progress/learner-1", svc: &mockProgressService{err: models.ErrNotFound}, expectedStatus: http.StatusNotFound},
		{name: "unauthenticated", path: "/api/v1/progress/learner-1", svc: &mockProgressService{}, expectedStatus: http.StatusUnauthorized},
		{name: "other learner", learner: "learner-2", path: "/api/v1/progress/learner-1", svc: &mockProgressService{}, expectedStatus: http.StatusForbidden},
		{name: "invalid id", learner: "a+b", path: "/api/v1/progress/a+b", svc: &mockProgressService{err: services.ErrInvalidLearnerID}, expectedStatus: http.StatusBadRequest},
		{name: "service error", learner: "learner-1", path: "/api/v1/progress/learner-1", svc: &mockProgressService{err: errors.New("db down")}, expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(tt.svc)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.learner != "" {
				req.Header.Set("X-Test-Learner", tt.learner)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			if tt.expectedStatus == http.StatusOK {
				var doc models.ProgressDocument
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
				assert.Equal(t, *sampleDocument(), doc)
			}
		})
	}
}

func TestProgressHandler_Put(t *testing.T) {
	body, err := json.Marshal(sampleDocument())
	require.NoError(t, err)

	tests := []struct {
		name           string
		body           string
		svc            *mockProgressService
		expectedStatus int
	}{
		{name: "success", body: string(body), svc: &mockProgressService{}, expectedStatus: http.StatusOK},
		{name: "invalid json", body: `{"progress":`, svc: &mockProgressService{}, expectedStatus: http.StatusBadRequest},
		{name: "service error", body: string(body), svc: &mockProgressService{err: errors.New("db down")}, expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(tt.svc)
			req := httptest.NewRequest(http.MethodPut, "/api/v1/progress/learner-1", strings.NewReader(tt.body))
			req.Header.Set("X-Test-Learner", "learner-1")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				require.NotNil(t, tt.svc.saved)
				assert.Equal(t, sampleDocument().History, tt.svc.saved.History)
			}
		})
	}
}

func TestProgressHandler_Delete(t *testing.T) {
	svc := &mockProgressService{}
	router := setupRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/progress/learner-1", nil)
	req.Header.Set("X-Test-Learner", "learner-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "learner-1", svc.deletedID)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/progress/learner-1", nil)
	req.Header.Set("X-Test-Learner", "learner-9")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

type stubPinger struct{ err error }

func (s stubPinger) PingContext(ctx context.Context) error { return s.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name           string
		db             Pinger
		expectedStatus int
	}{
		{name: "healthy", db: stubPinger{}, expectedStatus: http.StatusOK},
		{name: "database down", db: stubPinger{err: errors.New("refused")}, expectedStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			NewHealthHandler(tt.db, zap.NewNop()).RegisterRoutes(r)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
