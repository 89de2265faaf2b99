package middleware

import (
	"context"
	"net/http"
	"strings"
)

// TokenValidator resolves an access token to the learner id it was issued for
type TokenValidator interface {
	ValidateAccessToken(token string) (string, error)
}

// Auth requires a valid bearer token and stores its learner id in the request context
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			learnerID, err := validator.ValidateAccessToken(token)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithLearnerID(r.Context(), learnerID)))
		})
	}
}

// WithLearnerID returns a context carrying the authenticated learner id
func WithLearnerID(ctx context.Context, learnerID string) context.Context {
	return context.WithValue(ctx, learnerIDKey, learnerID)
}

// GetLearnerID retrieves the authenticated learner id from context
func GetLearnerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(learnerIDKey).(string)
	return id, ok && id != ""
}
