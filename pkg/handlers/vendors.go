package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/audit"
	"github.com/ekaya-inc/ekaya-tracker/pkg/models"
	"github.com/ekaya-inc/ekaya-tracker/pkg/services"
	"github.com/ekaya-inc/ekaya-tracker/pkg/validation"
)

// AddCapabilityRequest for POST /api/vendors/{vid}/capabilities
type AddCapabilityRequest struct {
	Capability string `json:"capability" validate:"required,max=500"`
}

// AddSourceRequest for POST /api/vendors/{vid}/sources
type AddSourceRequest struct {
	Source string `json:"source" validate:"required,max=2000"`
}

// VendorHandler serves vendor reads and the manual edit paths.
type VendorHandler struct {
	vendorService services.VendorService
	auditor       *audit.SecurityAuditor
	logger        *zap.Logger
}

// NewVendorHandler creates a new vendor handler.
func NewVendorHandler(vendorService services.VendorService, auditor *audit.SecurityAuditor, logger *zap.Logger) *VendorHandler {
	return &VendorHandler{
		vendorService: vendorService,
		auditor:       auditor,
		logger:        logger,
	}
}

// RegisterRoutes registers the vendor routes. Reads need only a database
// scope; writes also pass through unlock.
func (h *VendorHandler) RegisterRoutes(mux *http.ServeMux, scope, unlock RouteMiddleware) {
	mux.HandleFunc("GET /api/vendors", chain(h.List, scope))
	mux.HandleFunc("GET /api/vendors/{vid}", chain(h.Get, scope))
	mux.HandleFunc("PATCH /api/vendors/{vid}", chain(h.Update, unlock, scope))
	mux.HandleFunc("POST /api/vendors/{vid}/capabilities", chain(h.AddCapability, unlock, scope))
	mux.HandleFunc("DELETE /api/capabilities/{id}", chain(h.DeleteCapability, unlock, scope))
	mux.HandleFunc("POST /api/vendors/{vid}/sources", chain(h.AddSource, unlock, scope))
	mux.HandleFunc("DELETE /api/sources/{id}", chain(h.DeleteSource, unlock, scope))
}

// List handles GET /api/vendors
func (h *VendorHandler) List(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.vendorService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list_vendors_failed")
		return
	}
	if vendors == nil {
		vendors = []*models.Vendor{}
	}
	writeResponse(w, h.logger, http.StatusOK, vendors)
}

// Get handles GET /api/vendors/{vid}
func (h *VendorHandler) Get(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := ParseVendorID(w, r, h.logger)
	if !ok {
		return
	}

	vendor, err := h.vendorService.Get(r.Context(), vendorID)
	if err != nil {
		writeServiceError(w, h.logger, err, "get_vendor_failed")
		return
	}
	writeResponse(w, h.logger, http.StatusOK, vendor)
}

// Update handles PATCH /api/vendors/{vid}
func (h *VendorHandler) Update(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := ParseVendorID(w, r, h.logger)
	if !ok {
		return
	}

	var patch models.VendorPatch
	if !decodeBody(w, r, &patch, h.logger) {
		return
	}

	vendor, err := h.vendorService.Update(r.Context(), vendorID, &patch)
	if err != nil {
		auditMarkup(h.auditor, r, "update_vendor", err)
		writeServiceError(w, h.logger, err, "update_vendor_failed")
		return
	}
	writeResponse(w, h.logger, http.StatusOK, vendor)
}

// AddCapability handles POST /api/vendors/{vid}/capabilities
func (h *VendorHandler) AddCapability(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := ParseVendorID(w, r, h.logger)
	if !ok {
		return
	}

	var req AddCapabilityRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	if err := validation.Struct(req); err != nil {
		writeServiceError(w, h.logger, err, "add_capability_failed")
		return
	}

	capability, err := h.vendorService.AddCapability(r.Context(), vendorID, req.Capability)
	if err != nil {
		auditMarkup(h.auditor, r, "add_capability", err)
		writeServiceError(w, h.logger, err, "add_capability_failed")
		return
	}
	writeResponse(w, h.logger, http.StatusCreated, capability)
}

// DeleteCapability handles DELETE /api/capabilities/{id}
func (h *VendorHandler) DeleteCapability(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseItemID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.vendorService.DeleteCapability(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "delete_capability_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddSource handles POST /api/vendors/{vid}/sources
func (h *VendorHandler) AddSource(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := ParseVendorID(w, r, h.logger)
	if !ok {
		return
	}

	var req AddSourceRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	if err := validation.Struct(req); err != nil {
		writeServiceError(w, h.logger, err, "add_source_failed")
		return
	}

	source, err := h.vendorService.AddSource(r.Context(), vendorID, req.Source)
	if err != nil {
		auditMarkup(h.auditor, r, "add_source", err)
		writeServiceError(w, h.logger, err, "add_source_failed")
		return
	}
	writeResponse(w, h.logger, http.StatusCreated, source)
}

// DeleteSource handles DELETE /api/sources/{id}
func (h *VendorHandler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseItemID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.vendorService.DeleteSource(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "delete_source_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
