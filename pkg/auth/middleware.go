package auth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/apperrors"
)

// Middleware provides HTTP gating middleware.
// It is thin and delegates token logic to AuthService.
type Middleware struct {
	authService AuthService
	logger      *zap.Logger
}

// NewMiddleware creates a new gating middleware with the given AuthService.
func NewMiddleware(authService AuthService, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		logger:      logger,
	}
}

// RequireUnlocked passes the request through when gating is off or the request
// carries a valid unlock token, and answers 401 otherwise.
// Sets claims and token in context for downstream handlers.
func (m *Middleware) RequireUnlocked(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.authService.GatingEnabled() {
			next(w, r)
			return
		}

		claims, token, err := m.authService.ValidateRequest(r)
		if err != nil {
			m.logger.Debug("Rejected locked request",
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method))
			m.locked(w)
			return
		}

		next(w, r.WithContext(WithClaims(r.Context(), claims, token)))
	}
}

// locked returns a 401 response with JSON error body.
func (m *Middleware) locked(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "locked",
		"message": apperrors.ErrLocked.Error() + ": unlock with the PIN to make changes",
	})
}
