package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tracker/pkg/cache"
	"github.com/ekaya-inc/ekaya-tracker/pkg/models"
)

// DashboardCacheKey is the cache entry holding the latest dashboard summary.
// Every write path deletes it.
const DashboardCacheKey = "dashboard"

// topVendorLimit caps the vendors listed on the dashboard.
const topVendorLimit = 5

// VendorMaturity is a compact vendor row shown on the dashboard.
type VendorMaturity struct {
	Name       string            `json:"name"`
	AIMaturity models.AIMaturity `json:"ai_maturity"`
}

// DashboardSummary holds the headline numbers of the tracker.
type DashboardSummary struct {
	VendorCount      int                       `json:"vendor_count"`
	MaturityCounts   map[models.AIMaturity]int `json:"maturity_counts"`
	TopVendors       []VendorMaturity          `json:"top_vendors"`
	SignalCount      int                       `json:"signal_count"`
	ValidatedSignals int                       `json:"validated_signals"`
	HighImpact       int                       `json:"high_impact_signals"`
	GeneratedAt      time.Time                 `json:"generated_at"`
}

// Export is the full data download.
type Export struct {
	Vendors    []*models.Vendor     `json:"vendors"`
	Signals    []*models.WeakSignal `json:"signals"`
	ExportedAt time.Time            `json:"exported_at"`
}

// DashboardService builds read-only views across vendors and signals.
type DashboardService interface {
	// Summary returns the dashboard numbers, served from cache when present.
	Summary(ctx context.Context) (*DashboardSummary, error)
	// Export returns every vendor with children and every signal.
	Export(ctx context.Context) (*Export, error)
}

type dashboardService struct {
	vendors VendorService
	signals SignalService
	cache   cache.Cache
	now     func() time.Time
	logger  *zap.Logger
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(vendors VendorService, signals SignalService, c cache.Cache, logger *zap.Logger) DashboardService {
	if c == nil {
		c = cache.Noop{}
	}
	return &dashboardService{
		vendors: vendors,
		signals: signals,
		cache:   c,
		now:     time.Now,
		logger:  logger.Named("dashboard-service"),
	}
}

var _ DashboardService = (*dashboardService)(nil)

func (s *dashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	var cached DashboardSummary
	hit, err := s.cache.Get(ctx, DashboardCacheKey, &cached)
	if err != nil {
		// A cache outage degrades to a direct read.
		s.logger.Warn("Dashboard cache read failed", zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	vendors, err := s.vendors.List(ctx)
	if err != nil {
		return nil, err
	}
	signals, err := s.signals.List(ctx, models.SignalFilter{})
	if err != nil {
		return nil, err
	}

	summary := summarize(vendors, signals)
	summary.GeneratedAt = s.now().UTC()

	if err := s.cache.Set(ctx, DashboardCacheKey, summary); err != nil {
		s.logger.Warn("Dashboard cache write failed", zap.Error(err))
	}
	return summary, nil
}

func (s *dashboardService) Export(ctx context.Context) (*Export, error) {
	vendors, err := s.vendors.List(ctx)
	if err != nil {
		return nil, err
	}
	signals, err := s.signals.List(ctx, models.SignalFilter{})
	if err != nil {
		return nil, err
	}
	return &Export{
		Vendors:    vendors,
		Signals:    signals,
		ExportedAt: s.now().UTC(),
	}, nil
}

// summarize expects vendors already sorted by maturity.
func summarize(vendors []*models.Vendor, signals []*models.WeakSignal) *DashboardSummary {
	summary := &DashboardSummary{
		VendorCount:    len(vendors),
		MaturityCounts: make(map[models.AIMaturity]int, len(models.AIMaturities)),
		TopVendors:     make([]VendorMaturity, 0, topVendorLimit),
		SignalCount:    len(signals),
	}
	for _, m := range models.AIMaturities {
		summary.MaturityCounts[m] = 0
	}
	for _, v := range vendors {
		summary.MaturityCounts[v.AIMaturity]++
		if len(summary.TopVendors) < topVendorLimit {
			summary.TopVendors = append(summary.TopVendors, VendorMaturity{Name: v.Name, AIMaturity: v.AIMaturity})
		}
	}
	for _, sig := range signals {
		if sig.Status == models.SignalValidated {
			summary.ValidatedSignals++
		}
		if sig.Impact == models.ImpactHigh {
			summary.HighImpact++
		}
	}
	return summary
}
