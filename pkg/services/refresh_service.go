package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-tracker/pkg/cache"
	"github.com/ekaya-inc/ekaya-tracker/pkg/catalog"
	"github.com/ekaya-inc/ekaya-tracker/pkg/database"
	"github.com/ekaya-inc/ekaya-tracker/pkg/llm"
	"github.com/ekaya-inc/ekaya-tracker/pkg/logging"
	"github.com/ekaya-inc/ekaya-tracker/pkg/metrics"
	"github.com/ekaya-inc/ekaya-tracker/pkg/models"
	"github.com/ekaya-inc/ekaya-tracker/pkg/prompts"
	"github.com/ekaya-inc/ekaya-tracker/pkg/repositories"
	"github.com/ekaya-inc/ekaya-tracker/pkg/retry"
)

// Reason strings carried by ResponseShapeError.
const (
	ReasonNoJSONArray = "Could not parse vendor data"
	ReasonInvalidJSON = "Vendor data is not valid JSON"
)

// RefreshService asks the search oracle for fresh vendor assessments and
// reconciles them into the store.
type RefreshService interface {
	// Refresh runs one pass. Oracle and response-shape failures are returned as
	// *OracleError and *ResponseShapeError with nothing written. Per-vendor write
	// failures do not fail the pass; they are listed in RefreshResult.Failed.
	Refresh(ctx context.Context) (*models.RefreshResult, error)
}

// RefreshOptions tunes a RefreshService.
type RefreshOptions struct {
	LookbackDays int
	// Timeout bounds the oracle call. Zero means no bound beyond the transport's.
	Timeout time.Duration
	// Retry governs re-running a vendor transaction after a transient failure.
	Retry *retry.Config
}

type refreshService struct {
	tx           database.TxRunner
	vendors      repositories.VendorRepository
	capabilities repositories.CapabilityRepository
	sources      repositories.SourceRepository
	oracle       llm.Oracle
	catalog      *catalog.Catalog
	cache        cache.Cache
	opts         RefreshOptions
	logger       *zap.Logger
}

// NewRefreshService creates a RefreshService.
func NewRefreshService(
	tx database.TxRunner,
	vendors repositories.VendorRepository,
	capabilities repositories.CapabilityRepository,
	sources repositories.SourceRepository,
	oracle llm.Oracle,
	cat *catalog.Catalog,
	c cache.Cache,
	opts RefreshOptions,
	logger *zap.Logger,
) RefreshService {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 30
	}
	if c == nil {
		c = cache.Noop{}
	}
	return &refreshService{
		tx:           tx,
		vendors:      vendors,
		capabilities: capabilities,
		sources:      sources,
		oracle:       oracle,
		catalog:      cat,
		cache:        c,
		opts:         opts,
		logger:       logger.Named("refresh-service"),
	}
}

var _ RefreshService = (*refreshService)(nil)

func (s *refreshService) Refresh(ctx context.Context) (*models.RefreshResult, error) {
	start := time.Now()
	defer func() {
		metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	}()

	text, err := s.ask(ctx)
	if err != nil {
		metrics.RefreshRunsTotal.WithLabelValues("oracle_error").Inc()
		return nil, err
	}

	assessments, err := s.parse(text)
	if err != nil {
		metrics.RefreshRunsTotal.WithLabelValues("response_error").Inc()
		s.logger.Error("Oracle response has no usable vendor array",
			zap.Error(err),
			zap.String("raw_preview", logging.PreviewRaw(text)))
		return nil, err
	}

	result := &models.RefreshResult{
		Success: true,
		Results: make([]models.RefreshRecord, 0, len(assessments)),
	}

	for _, a := range assessments {
		action, err := s.reconcileWithRetry(ctx, a)
		if err != nil {
			// The vendor's transaction was rolled back; nothing of this entry persisted.
			metrics.VendorActionsTotal.WithLabelValues(a.Name, "failed").Inc()
			s.logger.Error("Vendor reconciliation rolled back",
				zap.String("vendor", a.Name),
				zap.String("error", logging.SanitizeError(err)))
			result.Failed = append(result.Failed, models.RefreshFailure{
				Vendor: a.Name,
				Error:  logging.SanitizeError(err),
			})
			continue
		}

		metrics.VendorActionsTotal.WithLabelValues(a.Name, string(action)).Inc()
		result.Results = append(result.Results, models.RefreshRecord{Vendor: a.Name, Action: action})
	}
	result.VendorCount = len(result.Results)

	if result.VendorCount > 0 {
		if err := s.cache.Delete(ctx, DashboardCacheKey); err != nil {
			s.logger.Warn("Failed to invalidate dashboard cache", zap.Error(err))
		}
	}

	metrics.RefreshRunsTotal.WithLabelValues("success").Inc()
	s.logger.Info("Vendor refresh completed",
		zap.Int("vendor_count", result.VendorCount),
		zap.Int("failed", len(result.Failed)),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// ask sends the prompt and returns the concatenated text blocks.
func (s *refreshService) ask(ctx context.Context) (string, error) {
	prompt := prompts.BuildVendorRefreshPrompt(s.catalog.Names(), s.opts.LookbackDays)

	callCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	blocks, err := s.oracle.Search(callCtx, prompt)
	if err != nil {
		metrics.OracleRequestDuration.WithLabelValues(s.oracle.Model(), "error").Observe(time.Since(start).Seconds())
		classified := llm.ClassifyError(err)
		s.logger.Error("Oracle request failed",
			zap.String("model", s.oracle.Model()),
			zap.String("error_type", string(classified.Type)),
			zap.String("error", logging.SanitizeError(err)))
		return "", &OracleError{Message: logging.SanitizeText(classified.Detail()), Err: err}
	}
	metrics.OracleRequestDuration.WithLabelValues(s.oracle.Model(), "ok").Observe(time.Since(start).Seconds())

	return llm.ConcatText(blocks), nil
}

// parse extracts the JSON array from text and keeps the entries that name a
// canonical vendor with a known maturity. When a vendor appears more than once
// the last entry wins and keeps the position of the first.
func (s *refreshService) parse(text string) ([]models.VendorAssessment, error) {
	candidate, err := llm.ExtractJSONArray(text)
	if err != nil {
		return nil, &ResponseShapeError{Reason: ReasonNoJSONArray, Raw: text}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &entries); err != nil {
		return nil, &ResponseShapeError{Reason: ReasonInvalidJSON, Raw: text, Err: err}
	}

	var kept []models.VendorAssessment
	position := make(map[string]int)

	for i, raw := range entries {
		var a models.VendorAssessment
		if err := json.Unmarshal(raw, &a); err != nil {
			s.logger.Warn("Skipping malformed vendor entry", zap.Int("index", i), zap.Error(err))
			continue
		}
		if !s.catalog.Contains(a.Name) {
			s.logger.Debug("Skipping unrecognized vendor", zap.String("name", a.Name))
			metrics.VendorActionsTotal.WithLabelValues("unrecognized", "skipped").Inc()
			continue
		}
		if !a.AIMaturity.Valid() {
			s.logger.Warn("Skipping vendor with unknown ai_maturity",
				zap.String("vendor", a.Name),
				zap.String("ai_maturity", string(a.AIMaturity)))
			metrics.VendorActionsTotal.WithLabelValues(a.Name, "skipped").Inc()
			continue
		}

		if at, dup := position[a.Name]; dup {
			s.logger.Warn("Vendor listed more than once, keeping the last entry", zap.String("vendor", a.Name))
			kept[at] = a
			continue
		}
		position[a.Name] = len(kept)
		kept = append(kept, a)
	}

	return kept, nil
}

// reconcileWithRetry runs one vendor's reconciliation in its own transaction,
// re-running it when the failure is transient. A unique violation means a
// concurrent pass inserted the vendor first; the retry then takes the update path.
func (s *refreshService) reconcileWithRetry(ctx context.Context, a models.VendorAssessment) (models.RefreshAction, error) {
	var action models.RefreshAction
	err := retry.DoIf(ctx, s.opts.Retry, shouldRetryVendor, func() error {
		return s.tx.InTx(ctx, func(ctx context.Context) error {
			var err error
			action, err = s.reconcile(ctx, a)
			return err
		})
	})
	return action, err
}

func shouldRetryVendor(err error) bool {
	return database.IsTransient(err) || errors.Is(err, apperrors.ErrConflict)
}

func (s *refreshService) reconcile(ctx context.Context, a models.VendorAssessment) (models.RefreshAction, error) {
	existing, err := s.vendors.LockByName(ctx, a.Name)
	if err != nil {
		return "", fmt.Errorf("look up vendor: %w", err)
	}

	capabilities := models.CleanEntries(a.Capabilities)
	sources := models.CleanEntries(a.Sources)

	if existing != nil {
		patch := &models.VendorPatch{
			AIMaturity:           &a.AIMaturity,
			ImplementationClaims: &a.ImplementationClaims,
			Notes:                &a.Notes,
		}
		if err := s.vendors.Update(ctx, existing.ID, patch); err != nil {
			return "", fmt.Errorf("update vendor: %w", err)
		}
		if _, err := s.capabilities.DeleteByVendor(ctx, existing.ID); err != nil {
			return "", fmt.Errorf("clear capabilities: %w", err)
		}
		if _, err := s.sources.DeleteByVendor(ctx, existing.ID); err != nil {
			return "", fmt.Errorf("clear sources: %w", err)
		}
		if err := s.insertChildren(ctx, existing.ID, capabilities, sources); err != nil {
			return "", err
		}

		s.logger.Debug("Vendor updated",
			zap.String("vendor", a.Name),
			zap.Int("capabilities", len(capabilities)),
			zap.Int("sources", len(sources)))
		return models.RefreshActionUpdated, nil
	}

	vendor := &models.Vendor{
		Name:                 a.Name,
		AIMaturity:           a.AIMaturity,
		ImplementationClaims: a.ImplementationClaims,
		Notes:                a.Notes,
	}
	if err := s.vendors.Create(ctx, vendor); err != nil {
		return "", fmt.Errorf("insert vendor: %w", err)
	}
	if err := s.insertChildren(ctx, vendor.ID, capabilities, sources); err != nil {
		return "", err
	}

	s.logger.Debug("Vendor inserted",
		zap.String("vendor", a.Name),
		zap.String("vendor_id", vendor.ID.String()))
	return models.RefreshActionInserted, nil
}

// insertChildren writes the non-empty child lists. Empty lists issue no insert.
func (s *refreshService) insertChildren(ctx context.Context, vendorID uuid.UUID, capabilities, sources []string) error {
	if len(capabilities) > 0 {
		if err := s.capabilities.InsertMany(ctx, vendorID, capabilities); err != nil {
			return fmt.Errorf("insert capabilities: %w", err)
		}
	}
	if len(sources) > 0 {
		if err := s.sources.InsertMany(ctx, vendorID, sources); err != nil {
			return fmt.Errorf("insert sources: %w", err)
		}
	}
	return nil
}
