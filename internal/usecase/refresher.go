// Package usecase wires the domain services into the application's periodic
// loops and request-level operations.
package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"StockWatch/internal/domain/models"
	drepo "StockWatch/internal/domain/repository"
	"StockWatch/internal/service/quotecache"
	"StockWatch/pkg/logger"
)

// Refresher keeps the quote cache warm. Each tick it refreshes the tracked
// universe (default symbols plus every user favorite), skipping symbols that
// still have an in-flight fetch, and tops the pass up with extra symbols when
// fewer than minSuccess fetches succeeded.
type Refresher struct {
	cache    *quotecache.Cache
	provider drepo.QuoteProvider
	favs     drepo.FavoritesSource
	history  drepo.HistoryStore // optional
	metrics  drepo.Metrics
	log      *logger.Logger

	defaultSymbols []string
	concurrency    int
	minSuccess     int

	mu       sync.Mutex
	inFlight map[string]struct{}
	lastPass PassStats
}

// PassStats summarizes the most recent refresh pass.
type PassStats struct {
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Attempted int       `json:"attempted"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
}

// RefresherOption configures optional collaborators.
type RefresherOption func(*Refresher)

// WithHistoryStore records every successful fetch's close in the store.
func WithHistoryStore(h drepo.HistoryStore) RefresherOption {
	return func(r *Refresher) { r.history = h }
}

// NewRefresher creates the refresh scheduler core.
func NewRefresher(
	cache *quotecache.Cache,
	provider drepo.QuoteProvider,
	favs drepo.FavoritesSource,
	metrics drepo.Metrics,
	log *logger.Logger,
	defaultSymbols []string,
	concurrency, minSuccess int,
	opts ...RefresherOption,
) *Refresher {
	if concurrency < 1 {
		concurrency = 1
	}
	r := &Refresher{
		cache:          cache,
		provider:       provider,
		favs:           favs,
		metrics:        metrics,
		log:            log,
		defaultSymbols: defaultSymbols,
		concurrency:    concurrency,
		minSuccess:     minSuccess,
		inFlight:       make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tick runs one refresh pass. Safe to call from a single runner goroutine;
// the in-flight set additionally guards against overlap with ForceRefresh.
func (r *Refresher) Tick(ctx context.Context) {
	start := time.Now()
	symbols := r.universe(ctx)

	stats, failed := r.refreshBatch(ctx, symbols)

	// When too few fetches landed, retry the failures once so a cold cache
	// still fills on a flaky provider. Best effort only.
	if stats.Succeeded < r.minSuccess && len(failed) > 0 {
		fill, _ := r.refreshBatch(ctx, failed)
		stats.Attempted += fill.Attempted
		stats.Succeeded += fill.Succeeded
		stats.Failed += fill.Failed
		stats.Skipped += fill.Skipped
	}

	stats.StartedAt = start
	stats.Duration = time.Since(start).String()
	r.mu.Lock()
	r.lastPass = stats
	r.mu.Unlock()

	r.metrics.RecordLatency("refresh_pass", time.Since(start).Seconds())
	if stats.Failed > 0 {
		r.log.Warn("refresh pass finished with failures",
			logger.Int("attempted", stats.Attempted),
			logger.Int("succeeded", stats.Succeeded),
			logger.Int("failed", stats.Failed))
	} else {
		r.log.Debug("refresh pass finished",
			logger.Int("attempted", stats.Attempted),
			logger.Int("succeeded", stats.Succeeded))
	}
}

// refreshBatch fetches the given symbols with bounded concurrency. Symbols
// already in flight are skipped, never queued. Returns the pass stats and
// the symbols whose fetch failed.
func (r *Refresher) refreshBatch(ctx context.Context, symbols []string) (PassStats, []string) {
	var stats PassStats
	var failed []string
	var statsMu sync.Mutex

	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup

	for _, sym := range symbols {
		if !r.claim(sym) {
			statsMu.Lock()
			stats.Skipped++
			statsMu.Unlock()
			continue
		}
		if ctx.Err() != nil {
			r.release(sym)
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()
			defer r.release(symbol)

			ok := r.refreshOne(ctx, symbol)
			statsMu.Lock()
			stats.Attempted++
			if ok {
				stats.Succeeded++
			} else {
				stats.Failed++
				failed = append(failed, symbol)
			}
			statsMu.Unlock()
		}(sym)
	}
	wg.Wait()
	return stats, failed
}

func (r *Refresher) refreshOne(ctx context.Context, symbol string) bool {
	q, err := r.provider.FetchQuote(ctx, symbol)
	if err != nil {
		// Soft failure: the stale record, if any, stays served until the TTL
		// runs out.
		r.metrics.RecordRefresh("error")
		r.log.Debug("quote fetch failed", logger.String("symbol", symbol), logger.Error(err))
		return false
	}

	if prev, ok := r.cache.Get(symbol); ok {
		q.History = appendClose(prev.History, q.Price)
	} else if len(q.History) == 0 {
		q.History = []float64{q.Price}
	}

	r.cache.Put(q)
	r.metrics.RecordRefresh("success")
	r.metrics.RecordLastPrice(symbol, q.Price)

	if r.history != nil {
		if err := r.history.Append(ctx, models.HistoryPoint{
			Symbol: symbol, At: q.FetchedAt, Close: q.Price,
		}); err != nil {
			r.metrics.RecordError("history_append")
			r.log.Debug("history append failed", logger.String("symbol", symbol), logger.Error(err))
		}
	}
	return true
}

// ForceRefresh refreshes a single symbol immediately, outside the periodic
// pass. Returns the refreshed quote, or the cached one when a fetch for the
// symbol is already in flight.
func (r *Refresher) ForceRefresh(ctx context.Context, symbol string) (models.Quote, error) {
	if !r.claim(symbol) {
		if q, ok := r.cache.Get(symbol); ok {
			return q, nil
		}
		return models.Quote{}, models.ErrNotFound
	}
	defer r.release(symbol)

	if !r.refreshOne(ctx, symbol) {
		if q, ok := r.cache.Get(symbol); ok {
			return q, nil
		}
		return models.Quote{}, models.ErrNotFound
	}
	q, _ := r.cache.Get(symbol)
	return q, nil
}

// LastPass returns stats for the most recent completed pass.
func (r *Refresher) LastPass() PassStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastPass
}

// universe is the union of configured defaults and every user favorite,
// deduplicated and sorted.
func (r *Refresher) universe(ctx context.Context) []string {
	set := map[string]struct{}{}
	for _, s := range r.defaultSymbols {
		set[s] = struct{}{}
	}
	if r.favs != nil {
		favs, err := r.favs.FavoritesUnion(ctx)
		if err != nil {
			r.metrics.RecordError("favorites_union")
			r.log.Warn("failed to load favorites", logger.Error(err))
		}
		for _, s := range favs {
			set[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (r *Refresher) claim(symbol string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inFlight[symbol]; busy {
		return false
	}
	r.inFlight[symbol] = struct{}{}
	return true
}

func (r *Refresher) release(symbol string) {
	r.mu.Lock()
	delete(r.inFlight, symbol)
	r.mu.Unlock()
}

// appendClose appends price to history, keeping the newest MaxHistoryLen.
func appendClose(history []float64, price float64) []float64 {
	out := make([]float64, 0, len(history)+1)
	out = append(out, history...)
	out = append(out, price)
	if len(out) > models.MaxHistoryLen {
		out = out[len(out)-models.MaxHistoryLen:]
	}
	return out
}
