package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-tracker/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-tracker/pkg/cache"
	"github.com/ekaya-inc/ekaya-tracker/pkg/database"
	"github.com/ekaya-inc/ekaya-tracker/pkg/models"
	"github.com/ekaya-inc/ekaya-tracker/pkg/repositories"
)

// memStore is an in-memory stand-in for the Postgres tables.
// InTx snapshots every table and restores the snapshot when fn fails.
type memStore struct {
	mu      sync.Mutex
	vendors map[uuid.UUID]models.Vendor
	caps    []models.Capability
	srcs    []models.Source
	signals map[uuid.UUID]models.WeakSignal
	clock   time.Time

	// fail, when set, is consulted before every write with the operation
	// name and the vendor it touches.
	fail func(op, vendor string) error

	ops      []string
	txCount  int
	rollback int
}

func newMemStore() *memStore {
	return &memStore{
		vendors: make(map[uuid.UUID]models.Vendor),
		signals: make(map[uuid.UUID]models.WeakSignal),
		clock:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

var _ database.TxRunner = (*memStore)(nil)

type memSnapshot struct {
	vendors map[uuid.UUID]models.Vendor
	caps    []models.Capability
	srcs    []models.Source
	signals map[uuid.UUID]models.WeakSignal
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	s.txCount++
	snap := memSnapshot{
		vendors: make(map[uuid.UUID]models.Vendor, len(s.vendors)),
		caps:    append([]models.Capability(nil), s.caps...),
		srcs:    append([]models.Source(nil), s.srcs...),
		signals: make(map[uuid.UUID]models.WeakSignal, len(s.signals)),
	}
	for k, v := range s.vendors {
		snap.vendors[k] = v
	}
	for k, v := range s.signals {
		snap.signals[k] = v
	}
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.vendors, s.caps, s.srcs, s.signals = snap.vendors, snap.caps, snap.srcs, snap.signals
		s.rollback++
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// write records op and runs the failure hook. Callers hold mu.
func (s *memStore) write(op, vendor string) error {
	s.ops = append(s.ops, op+":"+vendor)
	if s.fail != nil {
		return s.fail(op, vendor)
	}
	return nil
}

func (s *memStore) vendorName(id uuid.UUID) string {
	return s.vendors[id].Name
}

// seedVendor stores a vendor with children outside any transaction.
func (s *memStore) seedVendor(name string, maturity models.AIMaturity, caps, srcs []string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	now := s.tick()
	s.vendors[id] = models.Vendor{ID: id, Name: name, AIMaturity: maturity, CreatedAt: now, UpdatedAt: now}
	for _, c := range caps {
		s.caps = append(s.caps, models.Capability{ID: uuid.New(), VendorID: id, Capability: c, CreatedAt: s.tick()})
	}
	for _, src := range srcs {
		s.srcs = append(s.srcs, models.Source{ID: uuid.New(), VendorID: id, Source: src, CreatedAt: s.tick()})
	}
	return id
}

func (s *memStore) vendorByName(name string) (models.Vendor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.vendors {
		if v.Name == name {
			return v, true
		}
	}
	return models.Vendor{}, false
}

func (s *memStore) vendorNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.vendors))
	for _, v := range s.vendors {
		names = append(names, v.Name)
	}
	sort.Strings(names)
	return names
}

func (s *memStore) capabilitiesOf(vendorID uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.caps {
		if c.VendorID == vendorID {
			out = append(out, c.Capability)
		}
	}
	return out
}

func (s *memStore) sourcesOf(vendorID uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, src := range s.srcs {
		if src.VendorID == vendorID {
			out = append(out, src.Source)
		}
	}
	return out
}

func (s *memStore) writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ops...)
}

// fakeVendorRepo implements repositories.VendorRepository on a memStore.
type fakeVendorRepo struct{ s *memStore }

var _ repositories.VendorRepository = fakeVendorRepo{}

func (r fakeVendorRepo) List(ctx context.Context) ([]*models.Vendor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Vendor, 0, len(r.s.vendors))
	for _, v := range r.s.vendors {
		v := v
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r fakeVendorRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vendors[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r fakeVendorRepo) GetByName(ctx context.Context, name string) (*models.Vendor, error) {
	v, ok := r.s.vendorByName(name)
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r fakeVendorRepo) LockByName(ctx context.Context, name string) (*models.Vendor, error) {
	return r.GetByName(ctx, name)
}

func (r fakeVendorRepo) Create(ctx context.Context, vendor *models.Vendor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("vendors.Create", vendor.Name); err != nil {
		return err
	}
	for _, v := range r.s.vendors {
		if v.Name == vendor.Name {
			return fmt.Errorf("vendor %q already exists: %w", vendor.Name, apperrors.ErrConflict)
		}
	}
	if vendor.AIMaturity == "" {
		vendor.AIMaturity = models.MaturityLimited
	}
	vendor.ID = uuid.New()
	vendor.CreatedAt = r.s.tick()
	vendor.UpdatedAt = vendor.CreatedAt
	stored := *vendor
	stored.Capabilities, stored.Sources = nil, nil
	r.s.vendors[vendor.ID] = stored
	return nil
}

func (r fakeVendorRepo) Update(ctx context.Context, id uuid.UUID, patch *models.VendorPatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vendors[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if err := r.s.write("vendors.Update", v.Name); err != nil {
		return err
	}
	if patch.AIMaturity != nil {
		v.AIMaturity = *patch.AIMaturity
	}
	if patch.ImplementationClaims != nil {
		v.ImplementationClaims = *patch.ImplementationClaims
	}
	if patch.Notes != nil {
		v.Notes = *patch.Notes
	}
	if patch.DeploymentStatus != nil {
		v.DeploymentStatus = *patch.DeploymentStatus
	}
	if patch.PricingModel != nil {
		v.PricingModel = *patch.PricingModel
	}
	if patch.ImplementationComplexity != nil {
		v.ImplementationComplexity = *patch.ImplementationComplexity
	}
	if patch.AcumaticaGap != nil {
		v.AcumaticaGap = *patch.AcumaticaGap
	}
	if patch.BuyerPersona != nil {
		v.BuyerPersona = *patch.BuyerPersona
	}
	if patch.AdoptionSignal != nil {
		v.AdoptionSignal = *patch.AdoptionSignal
	}
	v.UpdatedAt = r.s.tick()
	r.s.vendors[id] = v
	return nil
}

// fakeCapabilityRepo implements repositories.CapabilityRepository on a memStore.
type fakeCapabilityRepo struct{ s *memStore }

var _ repositories.CapabilityRepository = fakeCapabilityRepo{}

func (r fakeCapabilityRepo) ListByVendors(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]models.Capability, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[uuid.UUID][]models.Capability)
	for _, c := range r.s.caps {
		if want[c.VendorID] {
			out[c.VendorID] = append(out[c.VendorID], c)
		}
	}
	return out, nil
}

func (r fakeCapabilityRepo) Add(ctx context.Context, vendorID uuid.UUID, text string) (*models.Capability, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("capabilities.Add", r.s.vendorName(vendorID)); err != nil {
		return nil, err
	}
	c := models.Capability{ID: uuid.New(), VendorID: vendorID, Capability: text, CreatedAt: r.s.tick()}
	r.s.caps = append(r.s.caps, c)
	return &c, nil
}

func (r fakeCapabilityRepo) InsertMany(ctx context.Context, vendorID uuid.UUID, entries []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("capabilities.InsertMany", r.s.vendorName(vendorID)); err != nil {
		return err
	}
	for _, e := range entries {
		r.s.caps = append(r.s.caps, models.Capability{ID: uuid.New(), VendorID: vendorID, Capability: e, CreatedAt: r.s.tick()})
	}
	return nil
}

func (r fakeCapabilityRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, c := range r.s.caps {
		if c.ID == id {
			r.s.caps = append(r.s.caps[:i:i], r.s.caps[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (r fakeCapabilityRepo) DeleteByVendor(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("capabilities.DeleteByVendor", r.s.vendorName(vendorID)); err != nil {
		return 0, err
	}
	kept := r.s.caps[:0:0]
	for _, c := range r.s.caps {
		if c.VendorID != vendorID {
			kept = append(kept, c)
		}
	}
	n := int64(len(r.s.caps) - len(kept))
	r.s.caps = kept
	return n, nil
}

// fakeSourceRepo implements repositories.SourceRepository on a memStore.
type fakeSourceRepo struct{ s *memStore }

var _ repositories.SourceRepository = fakeSourceRepo{}

func (r fakeSourceRepo) ListByVendors(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]models.Source, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[uuid.UUID][]models.Source)
	for _, src := range r.s.srcs {
		if want[src.VendorID] {
			out[src.VendorID] = append(out[src.VendorID], src)
		}
	}
	return out, nil
}

func (r fakeSourceRepo) Add(ctx context.Context, vendorID uuid.UUID, text string) (*models.Source, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("sources.Add", r.s.vendorName(vendorID)); err != nil {
		return nil, err
	}
	src := models.Source{ID: uuid.New(), VendorID: vendorID, Source: text, CreatedAt: r.s.tick()}
	r.s.srcs = append(r.s.srcs, src)
	return &src, nil
}

func (r fakeSourceRepo) InsertMany(ctx context.Context, vendorID uuid.UUID, entries []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("sources.InsertMany", r.s.vendorName(vendorID)); err != nil {
		return err
	}
	for _, e := range entries {
		r.s.srcs = append(r.s.srcs, models.Source{ID: uuid.New(), VendorID: vendorID, Source: e, CreatedAt: r.s.tick()})
	}
	return nil
}

func (r fakeSourceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, src := range r.s.srcs {
		if src.ID == id {
			r.s.srcs = append(r.s.srcs[:i:i], r.s.srcs[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (r fakeSourceRepo) DeleteByVendor(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("sources.DeleteByVendor", r.s.vendorName(vendorID)); err != nil {
		return 0, err
	}
	kept := r.s.srcs[:0:0]
	for _, src := range r.s.srcs {
		if src.VendorID != vendorID {
			kept = append(kept, src)
		}
	}
	n := int64(len(r.s.srcs) - len(kept))
	r.s.srcs = kept
	return n, nil
}

// fakeSignalRepo implements repositories.SignalRepository on a memStore.
type fakeSignalRepo struct{ s *memStore }

var _ repositories.SignalRepository = fakeSignalRepo{}

func (r fakeSignalRepo) List(ctx context.Context, filter models.SignalFilter) ([]*models.WeakSignal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.WeakSignal
	for _, sig := range r.s.signals {
		if filter.Status != nil && sig.Status != *filter.Status {
			continue
		}
		if filter.Impact != nil && sig.Impact != *filter.Impact {
			continue
		}
		sig := sig
		out = append(out, &sig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SpottedAt.After(out[j].SpottedAt) })
	return out, nil
}

func (r fakeSignalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.WeakSignal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sig, ok := r.s.signals[id]
	if !ok {
		return nil, nil
	}
	return &sig, nil
}

func (r fakeSignalRepo) Create(ctx context.Context, signal *models.WeakSignal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("signals.Create", signal.VendorTag); err != nil {
		return err
	}
	signal.ID = uuid.New()
	now := r.s.tick()
	if signal.SpottedAt.IsZero() {
		signal.SpottedAt = now
	}
	signal.UpdatedAt = now
	r.s.signals[signal.ID] = *signal
	return nil
}

func (r fakeSignalRepo) Update(ctx context.Context, id uuid.UUID, patch *models.SignalPatch) (*models.WeakSignal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sig, ok := r.s.signals[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if patch.Observation != nil {
		sig.Observation = *patch.Observation
	}
	if patch.Source != nil {
		sig.Source = *patch.Source
	}
	if patch.VendorTag != nil {
		sig.VendorTag = *patch.VendorTag
	}
	if patch.Confidence != nil {
		sig.Confidence = *patch.Confidence
	}
	if patch.Timeline != nil {
		sig.Timeline = *patch.Timeline
	}
	if patch.Impact != nil {
		sig.Impact = *patch.Impact
	}
	if patch.Notes != nil {
		sig.Notes = *patch.Notes
	}
	if patch.Status != nil {
		sig.Status = *patch.Status
	}
	sig.UpdatedAt = r.s.tick()
	r.s.signals[id] = sig
	return &sig, nil
}

func (r fakeSignalRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.signals[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.s.signals, id)
	return nil
}

// memCache is a JSON round-tripping cache.Cache that records deletions.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deleted []string
	getErr  error
}

var _ cache.Cache = (*memCache)(nil)

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return false, c.getErr
	}
	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dst)
}

func (c *memCache) Set(ctx context.Context, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

func (c *memCache) deletions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.deleted...)
}
