package services

import (
	"context"
	"fmt"
	"time"

	"billbook/internal/cache"
	"billbook/internal/core"
	applog "billbook/internal/log"
	"billbook/internal/metrics"
	"billbook/internal/storage"
)

// ReportCacheKey is the cache key of a user's profit/loss report.
func ReportCacheKey(userID string) string {
	return "report:pl:" + userID
}

// ReportService builds profit/loss reports from the user's bills.
type ReportService struct {
	store   storage.BillStore
	cache   cache.Cache[core.ProfitLoss]
	metrics *metrics.Metrics
	logger  *applog.Logger
}

// NewReportService wires the service. c and m may be nil.
func NewReportService(store storage.BillStore, c cache.Cache[core.ProfitLoss], m *metrics.Metrics) *ReportService {
	return &ReportService{
		store:   store,
		cache:   c,
		metrics: m,
		logger:  componentLogger(applog.ComponentReport),
	}
}

// ProfitLoss returns the aggregated report, served from cache when present.
func (s *ReportService) ProfitLoss(ctx context.Context, userID string) (core.ProfitLoss, error) {
	key := ReportCacheKey(userID)
	if s.cache != nil {
		if pl, ok := s.cache.Get(ctx, key); ok {
			s.metrics.CacheResult("report", true)
			return pl, nil
		}
		s.metrics.CacheResult("report", false)
	}

	start := time.Now()
	bills, err := s.store.ListBillsWithItems(ctx, userID)
	if err != nil {
		return core.ProfitLoss{}, fmt.Errorf("load bills for report: %w", err)
	}
	pl := core.Aggregate(bills)
	elapsed := time.Since(start)
	s.metrics.ObserveReport(elapsed)

	if pl.MixedCurrency {
		s.logger.WarnContext(ctx, "Report spans multiple currencies; totals are not converted",
			applog.FieldUserID, userID)
	}
	s.logger.DebugContext(ctx, "Profit/loss report built",
		applog.FieldUserID, userID,
		"bill_count", pl.BillCount,
		"item_count", len(pl.PerItem),
		applog.FieldDuration, elapsed.Milliseconds())

	if s.cache != nil {
		s.cache.Set(ctx, key, pl)
	}
	return pl, nil
}
