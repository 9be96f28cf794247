package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/audit"
	"github.com/ekaya-inc/ekaya-tracker/pkg/services"
)

// RefreshErrorResponse is the 500 body of a failed refresh. Raw carries the
// oracle text when it could not be parsed.
type RefreshErrorResponse struct {
	Error string `json:"error"`
	Raw   string `json:"raw,omitempty"`
}

// RefreshHandler triggers a vendor refresh pass.
type RefreshHandler struct {
	refreshService services.RefreshService
	enabled        bool
	auditor        *audit.SecurityAuditor
	logger         *zap.Logger
}

// NewRefreshHandler creates a new refresh handler. When enabled is false the
// endpoint answers 404.
func NewRefreshHandler(refreshService services.RefreshService, enabled bool, auditor *audit.SecurityAuditor, logger *zap.Logger) *RefreshHandler {
	return &RefreshHandler{
		refreshService: refreshService,
		enabled:        enabled,
		auditor:        auditor,
		logger:         logger,
	}
}

// RegisterRoutes registers POST /api/ai-update behind unlock.
// A disabled refresh answers 404 without asking for the PIN first.
func (h *RefreshHandler) RegisterRoutes(mux *http.ServeMux, unlock RouteMiddleware) {
	if !h.enabled {
		mux.HandleFunc("POST /api/ai-update", h.Refresh)
		return
	}
	mux.HandleFunc("POST /api/ai-update", chain(h.Refresh, unlock))
}

// Refresh handles POST /api/ai-update
func (h *RefreshHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if !h.enabled {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("AI update is not enabled"))
		return
	}

	if h.auditor != nil {
		h.auditor.LogRefreshTriggered(clientIP(r), "http")
	}

	result, err := h.refreshService.Refresh(r.Context())
	if err != nil {
		resp := RefreshErrorResponse{Error: err.Error()}

		var oracleErr *services.OracleError
		var shapeErr *services.ResponseShapeError
		switch {
		case errors.As(err, &oracleErr):
			resp.Error = oracleErr.Message
		case errors.As(err, &shapeErr):
			resp.Error = shapeErr.Reason
			resp.Raw = shapeErr.Raw
		}

		h.logger.Error("Refresh failed", zap.String("error", resp.Error))
		writeResponse(w, h.logger, http.StatusInternalServerError, resp)
		return
	}

	writeResponse(w, h.logger, http.StatusOK, result)
}
