package usecase

import (
	"context"
	"fmt"
	"strings"

	"StockWatch/internal/domain/models"
	drepo "StockWatch/internal/domain/repository"
	"StockWatch/internal/service/quotecache"
)

// Stocks serves quote reads, price history and favorites for the HTTP layer.
type Stocks struct {
	cache     *quotecache.Cache
	refresher *Refresher
	history   drepo.HistoryStore // optional
	favorites drepo.FavoritesStore
}

// NewStocks creates the stock read service.
func NewStocks(cache *quotecache.Cache, refresher *Refresher, favorites drepo.FavoritesStore, history drepo.HistoryStore) *Stocks {
	return &Stocks{
		cache:     cache,
		refresher: refresher,
		history:   history,
		favorites: favorites,
	}
}

// GetQuote returns the cached quote for symbol, fetching live on a miss.
func (s *Stocks) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	symbol = normalizeSymbol(symbol)
	if q, ok := s.cache.Get(symbol); ok {
		return q, nil
	}
	return s.refresher.ForceRefresh(ctx, symbol)
}

// Refresh forces a live fetch regardless of cache state.
func (s *Stocks) Refresh(ctx context.Context, symbol string) (models.Quote, error) {
	return s.refresher.ForceRefresh(ctx, normalizeSymbol(symbol))
}

// List returns every cached quote, sorted by symbol.
func (s *Stocks) List(_ context.Context) []models.Quote {
	return s.cache.Snapshot()
}

// History returns up to limit closes for symbol, oldest first. The durable
// store is preferred; the in-memory quote history is the fallback.
func (s *Stocks) History(ctx context.Context, symbol string, limit int) ([]float64, error) {
	symbol = normalizeSymbol(symbol)
	if limit <= 0 || limit > models.MaxHistoryLen {
		limit = models.MaxHistoryLen
	}

	if s.history != nil {
		closes, err := s.history.RecentCloses(ctx, symbol, limit)
		if err == nil && len(closes) > 0 {
			return closes, nil
		}
	}

	q, ok := s.cache.Get(symbol)
	if !ok {
		return nil, fmt.Errorf("history for %s: %w", symbol, models.ErrNotFound)
	}
	closes := q.History
	if len(closes) > limit {
		closes = closes[len(closes)-limit:]
	}
	return closes, nil
}

// AddFavorite tracks symbol for ownerID; it joins the refresh universe on the
// next tick.
func (s *Stocks) AddFavorite(ctx context.Context, ownerID, symbol string) error {
	return s.favorites.AddFavorite(ctx, ownerID, normalizeSymbol(symbol))
}

// RemoveFavorite stops tracking symbol for ownerID.
func (s *Stocks) RemoveFavorite(ctx context.Context, ownerID, symbol string) error {
	return s.favorites.RemoveFavorite(ctx, ownerID, normalizeSymbol(symbol))
}

// CacheHealth reports cache freshness.
func (s *Stocks) CacheHealth() models.CacheHealth {
	return s.cache.Health()
}

// CacheStats summarizes the cache and the last refresh pass.
func (s *Stocks) CacheStats() map[string]interface{} {
	h := s.cache.Health()
	return map[string]interface{}{
		"symbols":   s.cache.Symbols(),
		"count":     s.cache.Len(),
		"health":    h,
		"last_pass": s.refresher.LastPass(),
	}
}

// ClearCache drops every cached quote. The next refresh pass repopulates it.
func (s *Stocks) ClearCache() {
	s.cache.Clear()
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
