package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"dompet/internal/cache"
	"dompet/internal/core"
	"dompet/internal/ledger"
	"dompet/internal/log"
)

const collectionKey = "transactions"

// DashboardService computes dashboards over the whole ledger. Concurrent
// loads are coalesced and the loaded collection is cached until the next
// write invalidates it.
type DashboardService struct {
	reader ledger.Reader
	cache  cache.Cache[[]core.Transaction]
	caches *cache.Manager
	group  singleflight.Group
	now    func() time.Time
	loc    *time.Location
	logger *log.Logger
}

type DashboardOption func(*DashboardService)

// WithClock replaces time.Now as the reference instant.
func WithClock(now func() time.Time) DashboardOption {
	return func(s *DashboardService) { s.now = now }
}

// WithLocation sets the timezone dates are read in. The default is UTC.
func WithLocation(loc *time.Location) DashboardOption {
	return func(s *DashboardService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithCache caches the loaded collection.
func WithCache(c cache.Cache[[]core.Transaction]) DashboardOption {
	return func(s *DashboardService) { s.cache = c }
}

// WithInvalidation ties the cached collection to m. A load that overlaps
// an invalidation is returned to its callers but not cached, and later
// callers do not join it.
func WithInvalidation(m *cache.Manager) DashboardOption {
	return func(s *DashboardService) { s.caches = m }
}

func NewDashboardService(reader ledger.Reader, logger *log.Logger, opts ...DashboardOption) *DashboardService {
	if logger == nil {
		logger = log.Nop()
	}
	s := &DashboardService{
		reader: reader,
		now:    time.Now,
		loc:    time.UTC,
		logger: logger.WithComponent(log.ComponentDashboard),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.caches != nil {
		s.caches.Register(cache.ClearFunc(func() { s.group.Forget(collectionKey) }))
	}
	return s
}

// Transactions returns the full collection. Callers must not modify it.
func (s *DashboardService) Transactions(ctx context.Context) ([]core.Transaction, error) {
	if s.cache != nil {
		if txs, ok := s.cache.Get(collectionKey); ok {
			return txs, nil
		}
	}

	v, err, shared := s.group.Do(collectionKey, func() (any, error) {
		gen := s.caches.Generation()
		txs, err := s.reader.List(ctx)
		if err != nil {
			return nil, err
		}
		if dups := core.DuplicateIDs(txs); len(dups) > 0 {
			s.logger.WarnContext(ctx, "Ledger contains duplicate ids", "ids", dups)
		}
		s.logger.DebugContext(ctx, "Loaded ledger",
			log.FieldOperation, log.OpRead,
			log.FieldCount, len(txs))
		if s.cache != nil {
			if !s.caches.StoreIfCurrent(gen, func() { s.cache.Set(collectionKey, txs) }) {
				s.logger.DebugContext(ctx, "Ledger changed during load, result not cached")
			}
		}
		return txs, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	if shared {
		s.logger.DebugContext(ctx, "Coalesced ledger load")
	}
	return v.([]core.Transaction), nil
}

// Dashboard builds the overview for period relative to the service clock.
func (s *DashboardService) Dashboard(ctx context.Context, period core.Period) (core.Dashboard, error) {
	txs, err := s.Transactions(ctx)
	if err != nil {
		return core.Dashboard{}, err
	}
	start := time.Now()
	d := core.BuildDashboard(txs, s.Now(), period)
	s.logger.DebugContext(ctx, "Built dashboard",
		log.FieldOperation, log.OpAggregate,
		log.FieldPeriod, string(period),
		log.FieldCount, len(txs),
		log.FieldDuration, time.Since(start).Milliseconds())
	return d, nil
}

// Summarize totals the transactions matching f.
func (s *DashboardService) Summarize(ctx context.Context, f core.Filter) (core.Summary, error) {
	txs, err := s.Transactions(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(f.Apply(txs)), nil
}

// Now returns the service clock in the configured location.
func (s *DashboardService) Now() time.Time {
	return s.now().In(s.loc)
}
