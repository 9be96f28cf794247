package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/services"
)

// DashboardHandler serves the summary view and the data export.
type DashboardHandler struct {
	dashboardService services.DashboardService
	logger           *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(dashboardService services.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, logger: logger}
}

// RegisterRoutes registers the dashboard routes.
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux, scope RouteMiddleware) {
	mux.HandleFunc("GET /api/dashboard", chain(h.Summary, scope))
	mux.HandleFunc("GET /api/export", chain(h.Export, scope))
}

// Summary handles GET /api/dashboard
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboardService.Summary(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "dashboard_failed")
		return
	}
	writeResponse(w, h.logger, http.StatusOK, summary)
}

// Export handles GET /api/export as a dated JSON attachment.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	export, err := h.dashboardService.Export(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "export_failed")
		return
	}

	filename := fmt.Sprintf("erp-tracker-%s.json", export.ExportedAt.UTC().Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	writeResponse(w, h.logger, http.StatusOK, export)
}
