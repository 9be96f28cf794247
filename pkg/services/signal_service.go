package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-tracker/pkg/cache"
	"github.com/ekaya-inc/ekaya-tracker/pkg/models"
	"github.com/ekaya-inc/ekaya-tracker/pkg/repositories"
	"github.com/ekaya-inc/ekaya-tracker/pkg/validation"
)

// SignalService manages manually logged weak signals.
type SignalService interface {
	// List returns signals matching filter ordered by impact priority, then newest first.
	List(ctx context.Context, filter models.SignalFilter) ([]*models.WeakSignal, error)
	Get(ctx context.Context, id uuid.UUID) (*models.WeakSignal, error)
	// Create applies defaults for unset fields, validates and stores the signal.
	Create(ctx context.Context, signal *models.WeakSignal) error
	Update(ctx context.Context, id uuid.UUID, patch *models.SignalPatch) (*models.WeakSignal, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type signalService struct {
	repo   repositories.SignalRepository
	cache  cache.Cache
	logger *zap.Logger
}

// NewSignalService creates a SignalService.
func NewSignalService(repo repositories.SignalRepository, c cache.Cache, logger *zap.Logger) SignalService {
	if c == nil {
		c = cache.Noop{}
	}
	return &signalService{
		repo:   repo,
		cache:  c,
		logger: logger.Named("signal-service"),
	}
}

var _ SignalService = (*signalService)(nil)

func (s *signalService) List(ctx context.Context, filter models.SignalFilter) ([]*models.WeakSignal, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: invalid status filter: %s", apperrors.ErrValidation, *filter.Status)
	}
	if filter.Impact != nil && !filter.Impact.Valid() {
		return nil, fmt.Errorf("%w: invalid impact filter: %s", apperrors.ErrValidation, *filter.Impact)
	}

	signals, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list signals", zap.Error(err))
		return nil, err
	}
	SortSignals(signals)
	return signals, nil
}

func (s *signalService) Get(ctx context.Context, id uuid.UUID) (*models.WeakSignal, error) {
	signal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get signal", zap.String("signal_id", id.String()), zap.Error(err))
		return nil, err
	}
	if signal == nil {
		return nil, apperrors.ErrNotFound
	}
	return signal, nil
}

func (s *signalService) Create(ctx context.Context, signal *models.WeakSignal) error {
	signal.ApplyDefaults()
	if err := signal.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if err := validation.FindingsError(validation.CheckFreeText(signalFreeText(
		&signal.Observation, &signal.Source, &signal.VendorTag, &signal.Timeline, &signal.Notes,
	))); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, signal); err != nil {
		s.logger.Error("Failed to create signal", zap.Error(err))
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *signalService) Update(ctx context.Context, id uuid.UUID, patch *models.SignalPatch) (*models.WeakSignal, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", apperrors.ErrValidation)
	}
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if err := validation.FindingsError(validation.CheckFreeText(signalFreeText(
		patch.Observation, patch.Source, patch.VendorTag, patch.Timeline, patch.Notes,
	))); err != nil {
		return nil, err
	}

	signal, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("Failed to update signal", zap.String("signal_id", id.String()), zap.Error(err))
		}
		return nil, err
	}
	s.invalidate(ctx)
	return signal, nil
}

func (s *signalService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *signalService) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, DashboardCacheKey); err != nil {
		s.logger.Warn("Failed to invalidate dashboard cache", zap.Error(err))
	}
}

// signalFreeText maps the free-text columns to their values, skipping nil pointers.
func signalFreeText(observation, source, vendorTag, timeline, notes *string) map[string]string {
	out := make(map[string]string, 5)
	for column, v := range map[string]*string{
		"observation": observation,
		"source":      source,
		"vendor_tag":  vendorTag,
		"timeline":    timeline,
		"notes":       notes,
	} {
		if v != nil {
			out[column] = *v
		}
	}
	return out
}

// SortSignals orders signals by impact priority (High first), then newest first.
func SortSignals(signals []*models.WeakSignal) {
	sort.SliceStable(signals, func(i, j int) bool {
		pi, pj := signals[i].Impact.Priority(), signals[j].Impact.Priority()
		if pi != pj {
			return pi < pj
		}
		return signals[i].SpottedAt.After(signals[j].SpottedAt)
	})
}
