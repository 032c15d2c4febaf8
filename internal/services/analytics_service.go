package services

import (
	"context"
	"time"

	"rentledger/internal/cache"
	"rentledger/internal/core"
	"rentledger/internal/storage"
)

const (
	summaryCacheKey = "portfolio_summary"
	derivedCacheTTL = 5 * time.Minute
)

// AnalyticsService computes derived financial views over the ledger
// snapshot. The portfolio summary and per-property figures are cached and
// invalidated on every mutation.
type AnalyticsService struct {
	store      *storage.SQLiteRepository
	summary    *cache.LRUCache[core.PortfolioSummary]
	financials *cache.LRUCache[core.PropertyFinancials]
	now        func() time.Time
}

func NewAnalyticsService(store *storage.SQLiteRepository) *AnalyticsService {
	return &AnalyticsService{
		store:      store,
		summary:    cache.NewLRUCache[core.PortfolioSummary](1, derivedCacheTTL),
		financials: cache.NewLRUCache[core.PropertyFinancials](256, derivedCacheTTL),
		now:        time.Now,
	}
}

// RegisterCaches adds the derived-figure caches to the cleanup manager.
func (s *AnalyticsService) RegisterCaches(m *cache.Manager) {
	m.Register(s.summary)
	m.Register(s.financials)
}

// Invalidate drops every cached derived figure. Wired as the mutation
// callback of the ledger and invoice services.
func (s *AnalyticsService) Invalidate() {
	s.summary.Purge()
	s.financials.Purge()
}

func (s *AnalyticsService) PortfolioSummary(ctx context.Context) (core.PortfolioSummary, error) {
	if cached, ok := s.summary.Get(summaryCacheKey); ok {
		return cached, nil
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return core.PortfolioSummary{}, err
	}

	sum := core.ComputePortfolioSummary(snap, s.now())
	s.summary.Set(summaryCacheKey, sum)
	return sum, nil
}

func (s *AnalyticsService) PropertyFinancials(ctx context.Context, propertyID string) (core.PropertyFinancials, error) {
	if cached, ok := s.financials.Get(propertyID); ok {
		return cached, nil
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return core.PropertyFinancials{}, err
	}

	f, ok := core.ComputePropertyFinancials(snap, propertyID, s.now())
	if !ok {
		return core.PropertyFinancials{}, core.ErrPropertyNotFound
	}
	s.financials.Set(propertyID, f)
	return f, nil
}

func (s *AnalyticsService) AllPropertyFinancials(ctx context.Context) ([]core.PropertyFinancials, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return core.ComputeAllPropertyFinancials(snap, s.now()), nil
}

func (s *AnalyticsService) MonthlyTrend(ctx context.Context) ([]core.MonthlyTotals, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return core.ComputeMonthlyTrend(snap), nil
}

func (s *AnalyticsService) ExpensesByCategory(ctx context.Context) ([]core.CategoryAmount, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return core.ComputeExpensesByCategory(snap), nil
}

func (s *AnalyticsService) RevenuesByType(ctx context.Context) ([]core.CategoryAmount, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return core.ComputeRevenuesByType(snap), nil
}
