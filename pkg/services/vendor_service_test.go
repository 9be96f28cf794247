package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-tracker/pkg/catalog"
	"github.com/ekaya-inc/ekaya-tracker/pkg/models"
	"github.com/ekaya-inc/ekaya-tracker/pkg/validation"
)

func newTestVendorService(store *memStore, c *memCache) VendorService {
	return NewVendorService(
		fakeVendorRepo{store},
		fakeCapabilityRepo{store},
		fakeSourceRepo{store},
		catalog.MustNew(testVendors...),
		c,
		zap.NewNop(),
	)
}

func TestVendorService_ListOrdersByMaturityThenName(t *testing.T) {
	store := newMemStore()
	store.seedVendor("Sage Intacct", models.MaturityDeveloping, nil, nil)
	store.seedVendor("NetSuite", models.MaturityAdvanced, []string{"copilot"}, nil)
	store.seedVendor("Acumatica", models.MaturityDeveloping, nil, []string{"https://acumatica.com"})
	store.seedVendor("SAP Business One", models.MaturityLimited, nil, nil)
	svc := newTestVendorService(store, newMemCache())

	vendors, err := svc.List(context.Background())
	require.NoError(t, err)

	names := make([]string, len(vendors))
	for i, v := range vendors {
		names[i] = v.Name
	}
	assert.Equal(t, []string{"NetSuite", "Acumatica", "Sage Intacct", "SAP Business One"}, names)

	assert.Len(t, vendors[0].Capabilities, 1)
	assert.NotNil(t, vendors[0].Sources)
	assert.Empty(t, vendors[0].Sources)
	assert.Len(t, vendors[1].Sources, 1)
}

func TestVendorService_GetNotFound(t *testing.T) {
	svc := newTestVendorService(newMemStore(), newMemCache())

	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestVendorService_Update(t *testing.T) {
	store := newMemStore()
	id := store.seedVendor("NetSuite", models.MaturityLimited, nil, nil)
	c := newMemCache()
	svc := newTestVendorService(store, c)

	maturity := models.MaturityAmbitious
	gap := "No native AP automation"
	vendor, err := svc.Update(context.Background(), id, &models.VendorPatch{
		AIMaturity:   &maturity,
		AcumaticaGap: &gap,
	})
	require.NoError(t, err)

	assert.Equal(t, models.MaturityAmbitious, vendor.AIMaturity)
	assert.Equal(t, gap, vendor.AcumaticaGap)
	assert.Contains(t, c.deletions(), DashboardCacheKey)
}

func TestVendorService_UpdateRejectsBadInput(t *testing.T) {
	store := newMemStore()
	id := store.seedVendor("NetSuite", models.MaturityLimited, nil, nil)
	svc := newTestVendorService(store, newMemCache())

	bogus := models.AIMaturity("Godlike")
	script := `<script>alert(1)</script>`

	tests := []struct {
		name  string
		patch *models.VendorPatch
	}{
		{name: "nil patch", patch: nil},
		{name: "empty patch", patch: &models.VendorPatch{}},
		{name: "unknown maturity", patch: &models.VendorPatch{AIMaturity: &bogus}},
		{name: "script in notes", patch: &models.VendorPatch{Notes: &script}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), id, tt.patch)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}

	v, _ := store.vendorByName("NetSuite")
	assert.Empty(t, v.Notes)
}

func TestVendorService_UpdateMarkupReportsField(t *testing.T) {
	store := newMemStore()
	id := store.seedVendor("NetSuite", models.MaturityLimited, nil, nil)
	svc := newTestVendorService(store, newMemCache())

	script := `<img src=x onerror=alert(1)>`
	_, err := svc.Update(context.Background(), id, &models.VendorPatch{BuyerPersona: &script})

	var markup *validation.MarkupError
	require.True(t, errors.As(err, &markup))
	require.Len(t, markup.Findings, 1)
	assert.Equal(t, "buyer_persona", markup.Findings[0].Field)
}

func TestVendorService_UpdateMissingVendor(t *testing.T) {
	svc := newTestVendorService(newMemStore(), newMemCache())

	notes := "n"
	_, err := svc.Update(context.Background(), uuid.New(), &models.VendorPatch{Notes: &notes})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestVendorService_Children(t *testing.T) {
	store := newMemStore()
	id := store.seedVendor("Acumatica", models.MaturityDeveloping, nil, nil)
	svc := newTestVendorService(store, newMemCache())
	ctx := context.Background()

	capability, err := svc.AddCapability(ctx, id, "  Invoice OCR  ")
	require.NoError(t, err)
	assert.Equal(t, "Invoice OCR", capability.Capability)

	source, err := svc.AddSource(ctx, id, "https://www.acumatica.com/ai")
	require.NoError(t, err)

	vendor, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, vendor.Capabilities, 1)
	require.Len(t, vendor.Sources, 1)

	require.NoError(t, svc.DeleteCapability(ctx, capability.ID))
	require.NoError(t, svc.DeleteSource(ctx, source.ID))
	assert.ErrorIs(t, svc.DeleteCapability(ctx, capability.ID), apperrors.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteSource(ctx, source.ID), apperrors.ErrNotFound)

	vendor, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, vendor.Capabilities)
	assert.Empty(t, vendor.Sources)
}

func TestVendorService_AddChildValidation(t *testing.T) {
	store := newMemStore()
	id := store.seedVendor("Acumatica", models.MaturityDeveloping, nil, nil)
	svc := newTestVendorService(store, newMemCache())
	ctx := context.Background()

	_, err := svc.AddCapability(ctx, id, "   ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.AddSource(ctx, id, `<script>document.cookie</script>`)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.AddCapability(ctx, uuid.New(), "Forecasting")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.Empty(t, store.writes())
}

func TestVendorService_SeedIsIdempotent(t *testing.T) {
	store := newMemStore()
	store.seedVendor("NetSuite", models.MaturityAdvanced, nil, nil)
	svc := newTestVendorService(store, newMemCache())
	ctx := context.Background()

	created, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(testVendors)-1, created)

	created, err = svc.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, created)

	v, _ := store.vendorByName("NetSuite")
	assert.Equal(t, models.MaturityAdvanced, v.AIMaturity)
	seeded, _ := store.vendorByName("Acumatica")
	assert.Equal(t, models.MaturityLimited, seeded.AIMaturity)
}
