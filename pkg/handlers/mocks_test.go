package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-tracker/pkg/auth"
	"github.com/ekaya-inc/ekaya-tracker/pkg/models"
	"github.com/ekaya-inc/ekaya-tracker/pkg/services"
)

// mockVendorService implements services.VendorService for handler tests.
type mockVendorService struct {
	vendors    []*models.Vendor
	vendor     *models.Vendor
	capability *models.Capability
	source     *models.Source
	err        error

	gotID    uuid.UUID
	gotPatch *models.VendorPatch
	gotText  string
}

func (m *mockVendorService) List(ctx context.Context) ([]*models.Vendor, error) {
	return m.vendors, m.err
}
func (m *mockVendorService) Get(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	m.gotID = id
	return m.vendor, m.err
}
func (m *mockVendorService) Update(ctx context.Context, id uuid.UUID, patch *models.VendorPatch) (*models.Vendor, error) {
	m.gotID, m.gotPatch = id, patch
	return m.vendor, m.err
}
func (m *mockVendorService) AddCapability(ctx context.Context, vendorID uuid.UUID, text string) (*models.Capability, error) {
	m.gotID, m.gotText = vendorID, text
	return m.capability, m.err
}
func (m *mockVendorService) DeleteCapability(ctx context.Context, id uuid.UUID) error {
	m.gotID = id
	return m.err
}
func (m *mockVendorService) AddSource(ctx context.Context, vendorID uuid.UUID, text string) (*models.Source, error) {
	m.gotID, m.gotText = vendorID, text
	return m.source, m.err
}
func (m *mockVendorService) DeleteSource(ctx context.Context, id uuid.UUID) error {
	m.gotID = id
	return m.err
}
func (m *mockVendorService) Seed(ctx context.Context) (int, error) {
	return 0, m.err
}

// mockSignalService implements services.SignalService for handler tests.
type mockSignalService struct {
	signals []*models.WeakSignal
	signal  *models.WeakSignal
	err     error

	gotFilter  models.SignalFilter
	gotCreated *models.WeakSignal
	gotID      uuid.UUID
	gotPatch   *models.SignalPatch
}

func (m *mockSignalService) List(ctx context.Context, filter models.SignalFilter) ([]*models.WeakSignal, error) {
	m.gotFilter = filter
	return m.signals, m.err
}
func (m *mockSignalService) Get(ctx context.Context, id uuid.UUID) (*models.WeakSignal, error) {
	m.gotID = id
	return m.signal, m.err
}
func (m *mockSignalService) Create(ctx context.Context, signal *models.WeakSignal) error {
	if m.err != nil {
		return m.err
	}
	signal.ApplyDefaults()
	signal.ID = uuid.New()
	m.gotCreated = signal
	return nil
}
func (m *mockSignalService) Update(ctx context.Context, id uuid.UUID, patch *models.SignalPatch) (*models.WeakSignal, error) {
	m.gotID, m.gotPatch = id, patch
	return m.signal, m.err
}
func (m *mockSignalService) Delete(ctx context.Context, id uuid.UUID) error {
	m.gotID = id
	return m.err
}

// mockRefreshService implements services.RefreshService for handler tests.
type mockRefreshService struct {
	result *models.RefreshResult
	err    error
	calls  int
}

func (m *mockRefreshService) Refresh(ctx context.Context) (*models.RefreshResult, error) {
	m.calls++
	return m.result, m.err
}

// mockDashboardService implements services.DashboardService for handler tests.
type mockDashboardService struct {
	summary *services.DashboardSummary
	export  *services.Export
	err     error
}

func (m *mockDashboardService) Summary(ctx context.Context) (*services.DashboardSummary, error) {
	return m.summary, m.err
}
func (m *mockDashboardService) Export(ctx context.Context) (*services.Export, error) {
	return m.export, m.err
}

// mockAuthService implements auth.AuthService for handler tests.
type mockAuthService struct {
	gating    bool
	session   *auth.Session
	unlockErr error
	claims    *auth.Claims
	validErr  error
	locked    bool
}

func (m *mockAuthService) GatingEnabled() bool { return m.gating }
func (m *mockAuthService) Unlock(w http.ResponseWriter, r *http.Request, pin string) (*auth.Session, error) {
	return m.session, m.unlockErr
}
func (m *mockAuthService) Lock(w http.ResponseWriter, r *http.Request) error {
	m.locked = true
	return nil
}
func (m *mockAuthService) ValidateRequest(r *http.Request) (*auth.Claims, string, error) {
	if m.validErr != nil {
		return nil, "", m.validErr
	}
	return m.claims, "token", nil
}
func (m *mockAuthService) ValidateToken(token string) (*auth.Claims, error) {
	return m.claims, m.validErr
}

var (
	_ services.VendorService    = (*mockVendorService)(nil)
	_ services.SignalService    = (*mockSignalService)(nil)
	_ services.RefreshService   = (*mockRefreshService)(nil)
	_ services.DashboardService = (*mockDashboardService)(nil)
	_ auth.AuthService          = (*mockAuthService)(nil)
)
