package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-tracker/pkg/audit"
	"github.com/ekaya-inc/ekaya-tracker/pkg/models"
	"github.com/ekaya-inc/ekaya-tracker/pkg/services"
	"github.com/ekaya-inc/ekaya-tracker/pkg/validation"
)

// CreateSignalRequest for POST /api/signals. Unset fields take the signal
// defaults. Status is not accepted: new signals start as Monitoring and move
// on through PATCH.
type CreateSignalRequest struct {
	Observation string        `json:"observation" validate:"required,max=2000"`
	Source      string        `json:"source,omitempty" validate:"max=2000"`
	VendorTag   string        `json:"vendor_tag,omitempty" validate:"max=200"`
	Confidence  *int          `json:"confidence,omitempty" validate:"omitempty,min=0,max=100"`
	Timeline    string        `json:"timeline,omitempty" validate:"max=100"`
	Impact      models.Impact `json:"impact,omitempty"`
	Notes       string        `json:"notes,omitempty" validate:"max=4000"`
}

// SignalHandler serves weak signal CRUD.
type SignalHandler struct {
	signalService services.SignalService
	auditor       *audit.SecurityAuditor
	logger        *zap.Logger
}

// NewSignalHandler creates a new signal handler.
func NewSignalHandler(signalService services.SignalService, auditor *audit.SecurityAuditor, logger *zap.Logger) *SignalHandler {
	return &SignalHandler{
		signalService: signalService,
		auditor:       auditor,
		logger:        logger,
	}
}

// RegisterRoutes registers the signal routes.
func (h *SignalHandler) RegisterRoutes(mux *http.ServeMux, scope, unlock RouteMiddleware) {
	mux.HandleFunc("GET /api/signals", chain(h.List, scope))
	mux.HandleFunc("POST /api/signals", chain(h.Create, unlock, scope))
	mux.HandleFunc("PATCH /api/signals/{sid}", chain(h.Update, unlock, scope))
	mux.HandleFunc("DELETE /api/signals/{sid}", chain(h.Delete, unlock, scope))
}

// List handles GET /api/signals?status=&impact=
func (h *SignalHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := models.ParseSignalFilter(q.Get("status"), q.Get("impact"))
	if err != nil {
		writeServiceError(w, h.logger, fmt.Errorf("%w: %v", apperrors.ErrValidation, err), "list_signals_failed")
		return
	}

	signals, err := h.signalService.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, h.logger, err, "list_signals_failed")
		return
	}
	if signals == nil {
		signals = []*models.WeakSignal{}
	}
	writeResponse(w, h.logger, http.StatusOK, signals)
}

// Create handles POST /api/signals
func (h *SignalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSignalRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	if err := validation.Struct(req); err != nil {
		writeServiceError(w, h.logger, err, "create_signal_failed")
		return
	}

	signal := &models.WeakSignal{
		Observation: req.Observation,
		Source:      req.Source,
		VendorTag:   req.VendorTag,
		Confidence:  models.ConfidenceOrDefault(req.Confidence),
		Timeline:    req.Timeline,
		Impact:      req.Impact,
		Notes:       req.Notes,
		Status:      models.SignalMonitoring,
	}
	if err := h.signalService.Create(r.Context(), signal); err != nil {
		auditMarkup(h.auditor, r, "create_signal", err)
		writeServiceError(w, h.logger, err, "create_signal_failed")
		return
	}
	writeResponse(w, h.logger, http.StatusCreated, signal)
}

// Update handles PATCH /api/signals/{sid}
func (h *SignalHandler) Update(w http.ResponseWriter, r *http.Request) {
	signalID, ok := ParseSignalID(w, r, h.logger)
	if !ok {
		return
	}

	var patch models.SignalPatch
	if !decodeBody(w, r, &patch, h.logger) {
		return
	}

	signal, err := h.signalService.Update(r.Context(), signalID, &patch)
	if err != nil {
		auditMarkup(h.auditor, r, "update_signal", err)
		writeServiceError(w, h.logger, err, "update_signal_failed")
		return
	}
	writeResponse(w, h.logger, http.StatusOK, signal)
}

// Delete handles DELETE /api/signals/{sid}
func (h *SignalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	signalID, ok := ParseSignalID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.signalService.Delete(r.Context(), signalID); err != nil {
		writeServiceError(w, h.logger, err, "delete_signal_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
