package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-tracker/pkg/cache"
	"github.com/ekaya-inc/ekaya-tracker/pkg/catalog"
	"github.com/ekaya-inc/ekaya-tracker/pkg/models"
	"github.com/ekaya-inc/ekaya-tracker/pkg/repositories"
	"github.com/ekaya-inc/ekaya-tracker/pkg/validation"
)

// VendorService provides the manual edit paths for vendors and their children.
type VendorService interface {
	// List returns every vendor with children, highest maturity first, then by name.
	List(ctx context.Context) ([]*models.Vendor, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	Update(ctx context.Context, id uuid.UUID, patch *models.VendorPatch) (*models.Vendor, error)
	AddCapability(ctx context.Context, vendorID uuid.UUID, text string) (*models.Capability, error)
	DeleteCapability(ctx context.Context, id uuid.UUID) error
	AddSource(ctx context.Context, vendorID uuid.UUID, text string) (*models.Source, error)
	DeleteSource(ctx context.Context, id uuid.UUID) error
	// Seed inserts every catalog vendor that is not yet stored and returns how many were added.
	Seed(ctx context.Context) (int, error)
}

type vendorService struct {
	vendors      repositories.VendorRepository
	capabilities repositories.CapabilityRepository
	sources      repositories.SourceRepository
	catalog      *catalog.Catalog
	cache        cache.Cache
	logger       *zap.Logger
}

// NewVendorService creates a VendorService.
func NewVendorService(
	vendors repositories.VendorRepository,
	capabilities repositories.CapabilityRepository,
	sources repositories.SourceRepository,
	cat *catalog.Catalog,
	c cache.Cache,
	logger *zap.Logger,
) VendorService {
	if c == nil {
		c = cache.Noop{}
	}
	return &vendorService{
		vendors:      vendors,
		capabilities: capabilities,
		sources:      sources,
		catalog:      cat,
		cache:        c,
		logger:       logger.Named("vendor-service"),
	}
}

var _ VendorService = (*vendorService)(nil)

func (s *vendorService) List(ctx context.Context) ([]*models.Vendor, error) {
	vendors, err := s.vendors.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list vendors", zap.Error(err))
		return nil, err
	}
	if err := s.attachChildren(ctx, vendors); err != nil {
		return nil, err
	}
	SortVendorsByMaturity(vendors)
	return vendors, nil
}

func (s *vendorService) Get(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	vendor, err := s.vendors.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get vendor", zap.String("vendor_id", id.String()), zap.Error(err))
		return nil, err
	}
	if vendor == nil {
		return nil, apperrors.ErrNotFound
	}
	if err := s.attachChildren(ctx, []*models.Vendor{vendor}); err != nil {
		return nil, err
	}
	return vendor, nil
}

func (s *vendorService) Update(ctx context.Context, id uuid.UUID, patch *models.VendorPatch) (*models.Vendor, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", apperrors.ErrValidation)
	}
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if err := validation.FindingsError(validation.CheckFreeText(patch.FreeText())); err != nil {
		return nil, err
	}

	if err := s.vendors.Update(ctx, id, patch); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("Failed to update vendor", zap.String("vendor_id", id.String()), zap.Error(err))
		}
		return nil, err
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

func (s *vendorService) AddCapability(ctx context.Context, vendorID uuid.UUID, text string) (*models.Capability, error) {
	text, err := s.checkChild(ctx, vendorID, "capability", text)
	if err != nil {
		return nil, err
	}
	c, err := s.capabilities.Add(ctx, vendorID, text)
	if err != nil {
		s.logger.Error("Failed to add capability", zap.String("vendor_id", vendorID.String()), zap.Error(err))
		return nil, err
	}
	s.invalidate(ctx)
	return c, nil
}

func (s *vendorService) DeleteCapability(ctx context.Context, id uuid.UUID) error {
	if err := s.capabilities.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *vendorService) AddSource(ctx context.Context, vendorID uuid.UUID, text string) (*models.Source, error) {
	text, err := s.checkChild(ctx, vendorID, "source", text)
	if err != nil {
		return nil, err
	}
	src, err := s.sources.Add(ctx, vendorID, text)
	if err != nil {
		s.logger.Error("Failed to add source", zap.String("vendor_id", vendorID.String()), zap.Error(err))
		return nil, err
	}
	s.invalidate(ctx)
	return src, nil
}

func (s *vendorService) DeleteSource(ctx context.Context, id uuid.UUID) error {
	if err := s.sources.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *vendorService) Seed(ctx context.Context) (int, error) {
	created := 0
	for _, name := range s.catalog.Names() {
		existing, err := s.vendors.GetByName(ctx, name)
		if err != nil {
			return created, fmt.Errorf("look up %q: %w", name, err)
		}
		if existing != nil {
			continue
		}
		if err := s.vendors.Create(ctx, &models.Vendor{Name: name, AIMaturity: models.MaturityLimited}); err != nil {
			return created, fmt.Errorf("seed %q: %w", name, err)
		}
		s.logger.Info("Seeded vendor", zap.String("vendor", name))
		created++
	}
	if created > 0 {
		s.invalidate(ctx)
	}
	return created, nil
}

// checkChild trims text, rejects blanks and markup, and confirms the vendor exists.
func (s *vendorService) checkChild(ctx context.Context, vendorID uuid.UUID, field, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %s is required", apperrors.ErrValidation, field)
	}
	if err := validation.FindingsError(validation.CheckFreeText(map[string]string{field: text})); err != nil {
		return "", err
	}
	vendor, err := s.vendors.GetByID(ctx, vendorID)
	if err != nil {
		return "", err
	}
	if vendor == nil {
		return "", apperrors.ErrNotFound
	}
	return text, nil
}

func (s *vendorService) attachChildren(ctx context.Context, vendors []*models.Vendor) error {
	if len(vendors) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(vendors))
	for i, v := range vendors {
		ids[i] = v.ID
	}

	caps, err := s.capabilities.ListByVendors(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to load capabilities", zap.Error(err))
		return err
	}
	srcs, err := s.sources.ListByVendors(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to load sources", zap.Error(err))
		return err
	}

	for _, v := range vendors {
		if c := caps[v.ID]; c != nil {
			v.Capabilities = c
		} else {
			v.Capabilities = []models.Capability{}
		}
		if src := srcs[v.ID]; src != nil {
			v.Sources = src
		} else {
			v.Sources = []models.Source{}
		}
	}
	return nil
}

func (s *vendorService) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, DashboardCacheKey); err != nil {
		s.logger.Warn("Failed to invalidate dashboard cache", zap.Error(err))
	}
}

// SortVendorsByMaturity orders vendors by maturity score, highest first, then by name.
func SortVendorsByMaturity(vendors []*models.Vendor) {
	sort.SliceStable(vendors, func(i, j int) bool {
		si, sj := vendors[i].AIMaturity.Score(), vendors[j].AIMaturity.Score()
		if si != sj {
			return si > sj
		}
		return vendors[i].Name < vendors[j].Name
	})
}
