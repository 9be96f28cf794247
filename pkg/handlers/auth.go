package handlers

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-tracker/pkg/audit"
	"github.com/ekaya-inc/ekaya-tracker/pkg/auth"
	"github.com/ekaya-inc/ekaya-tracker/pkg/validation"
)

// UnlockRequest for POST /api/unlock
type UnlockRequest struct {
	PIN string `json:"pin" validate:"required,max=128"`
}

// SessionResponse describes the caller's unlock state.
type SessionResponse struct {
	GatingEnabled bool       `json:"gating_enabled"`
	Unlocked      bool       `json:"unlocked"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// AuthHandler handles PIN unlock and lock.
type AuthHandler struct {
	authService auth.AuthService
	auditor     *audit.SecurityAuditor
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService auth.AuthService, auditor *audit.SecurityAuditor, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		auditor:     auditor,
		logger:      logger,
	}
}

// RegisterRoutes registers the unlock routes.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/unlock", h.Unlock)
	mux.HandleFunc("POST /api/lock", h.Lock)
	mux.HandleFunc("GET /api/session", h.Session)
}

// Unlock handles POST /api/unlock
func (h *AuthHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req UnlockRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	if err := validation.Struct(req); err != nil {
		writeServiceError(w, h.logger, err, "unlock_failed")
		return
	}

	session, err := h.authService.Unlock(w, r, req.PIN)
	switch {
	case errors.Is(err, apperrors.ErrFeatureDisabled):
		if err := ErrorResponse(w, http.StatusNotFound, "gating_disabled", "No PIN is configured"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	case errors.Is(err, apperrors.ErrInvalidPIN):
		h.auditor.LogUnlockFailed(clientIP(r))
		if err := ErrorResponse(w, http.StatusUnauthorized, "invalid_pin", "Invalid PIN"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	case err != nil:
		writeServiceError(w, h.logger, err, "unlock_failed")
		return
	}

	h.auditor.LogUnlockSucceeded(clientIP(r))
	writeResponse(w, h.logger, http.StatusOK, session)
}

// Lock handles POST /api/lock
func (h *AuthHandler) Lock(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Lock(w, r); err != nil {
		writeServiceError(w, h.logger, err, "lock_failed")
		return
	}
	writeResponse(w, h.logger, http.StatusOK, SessionResponse{GatingEnabled: h.authService.GatingEnabled()})
}

// Session handles GET /api/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	resp := SessionResponse{GatingEnabled: h.authService.GatingEnabled()}
	if !resp.GatingEnabled {
		resp.Unlocked = true
		writeResponse(w, h.logger, http.StatusOK, resp)
		return
	}

	claims, _, err := h.authService.ValidateRequest(r)
	if err == nil {
		resp.Unlocked = true
		if claims.ExpiresAt != nil {
			expires := claims.ExpiresAt.Time
			resp.ExpiresAt = &expires
		}
	}
	writeResponse(w, h.logger, http.StatusOK, resp)
}
