package usecase

import (
	"context"
	"testing"
	"time"

	"StockWatch/internal/repository"
	"StockWatch/internal/service/quotecache"
)

func newTestRefresher(t *testing.T, provider *fakeProvider, store *repository.MemoryStore, symbols []string) (*Refresher, *quotecache.Cache) {
	t.Helper()
	cache := quotecache.New(24 * time.Hour)
	r := NewRefresher(cache, provider, store, nopMetrics{}, testLogger(t), symbols, 4, 2)
	return r, cache
}

func TestTickFillsCache(t *testing.T) {
	provider := newFakeProvider(map[string]float64{"AAPL": 190, "MSFT": 420})
	r, cache := newTestRefresher(t, provider, repository.NewMemoryStore(), []string{"AAPL", "MSFT"})

	r.Tick(context.Background())

	if cache.Len() != 2 {
		t.Fatalf("expected 2 cached quotes, got %d", cache.Len())
	}
	q, ok := cache.Get("AAPL")
	if !ok || q.Price != 190 {
		t.Fatalf("unexpected AAPL quote %+v", q)
	}
	stats := r.LastPass()
	if stats.Succeeded != 2 || stats.Failed != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestTickPartialFailure(t *testing.T) {
	provider := newFakeProvider(map[string]float64{"AAPL": 190})
	r, cache := newTestRefresher(t, provider, repository.NewMemoryStore(), []string{"AAPL", "BAD"})

	r.Tick(context.Background())

	if _, ok := cache.Get("AAPL"); !ok {
		t.Fatalf("success must land despite sibling failure")
	}
	if _, ok := cache.Get("BAD"); ok {
		t.Fatalf("failed symbol must not appear in cache")
	}
	if r.LastPass().Failed == 0 {
		t.Fatalf("expected recorded failures")
	}
}

func TestFailureKeepsStaleRecord(t *testing.T) {
	provider := newFakeProvider(map[string]float64{"AAPL": 190})
	r, cache := newTestRefresher(t, provider, repository.NewMemoryStore(), []string{"AAPL"})

	r.Tick(context.Background())
	provider.mu.Lock()
	provider.fail["AAPL"] = true
	provider.mu.Unlock()
	r.Tick(context.Background())

	q, ok := cache.Get("AAPL")
	if !ok || q.Price != 190 {
		t.Fatalf("stale record must survive a failed refresh, got %+v ok=%v", q, ok)
	}
}

func TestFavoritesJoinUniverse(t *testing.T) {
	store := repository.NewMemoryStore()
	if err := store.AddFavorite(context.Background(), "u1", "NVDA"); err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	provider := newFakeProvider(map[string]float64{"AAPL": 190, "NVDA": 950})
	r, cache := newTestRefresher(t, provider, store, []string{"AAPL"})

	r.Tick(context.Background())

	if _, ok := cache.Get("NVDA"); !ok {
		t.Fatalf("favorited symbol must be refreshed")
	}
}

func TestHistoryAccumulates(t *testing.T) {
	provider := newFakeProvider(map[string]float64{"AAPL": 100})
	r, cache := newTestRefresher(t, provider, repository.NewMemoryStore(), []string{"AAPL"})

	r.Tick(context.Background())
	provider.mu.Lock()
	provider.prices["AAPL"] = 101
	provider.mu.Unlock()
	r.Tick(context.Background())

	q, _ := cache.Get("AAPL")
	if len(q.History) != 2 || q.History[0] != 100 || q.History[1] != 101 {
		t.Fatalf("unexpected history %v", q.History)
	}
}

func TestInFlightDedup(t *testing.T) {
	provider := newFakeProvider(map[string]float64{"AAPL": 100})
	provider.delay = 50 * time.Millisecond
	r, _ := newTestRefresher(t, provider, repository.NewMemoryStore(), []string{"AAPL"})

	done := make(chan struct{})
	go func() {
		r.Tick(context.Background())
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)

	// The symbol is mid-fetch; the forced refresh must not double-fetch.
	_, err := r.ForceRefresh(context.Background(), "AAPL")
	if err == nil {
		t.Fatalf("expected miss while fetch in flight and cache empty")
	}
	<-done

	if n := provider.callCount("AAPL"); n != 1 {
		t.Fatalf("expected exactly one fetch, got %d", n)
	}
}

func TestForceRefresh(t *testing.T) {
	provider := newFakeProvider(map[string]float64{"AAPL": 123})
	r, cache := newTestRefresher(t, provider, repository.NewMemoryStore(), nil)

	q, err := r.ForceRefresh(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("force refresh: %v", err)
	}
	if q.Price != 123 {
		t.Fatalf("unexpected price %v", q.Price)
	}
	if _, ok := cache.Get("AAPL"); !ok {
		t.Fatalf("forced refresh must populate the cache")
	}
}

func TestForceRefreshMiss(t *testing.T) {
	provider := newFakeProvider(nil)
	r, _ := newTestRefresher(t, provider, repository.NewMemoryStore(), nil)

	_, err := r.ForceRefresh(context.Background(), "NOPE")
	if err == nil {
		t.Fatalf("expected error for unknown symbol")
	}
}

func TestRetryPassOnLowSuccess(t *testing.T) {
	provider := newFakeProvider(map[string]float64{"AAPL": 100, "MSFT": 200})
	// First attempt fails for both; only the retry succeeds.
	provider.fail["AAPL"] = true
	provider.fail["MSFT"] = true
	r, cache := newTestRefresher(t, provider, repository.NewMemoryStore(), []string{"AAPL", "MSFT"})

	go func() {
		// Heal the provider while the first batch is failing.
		time.Sleep(5 * time.Millisecond)
		provider.mu.Lock()
		provider.fail["AAPL"] = false
		provider.fail["MSFT"] = false
		provider.mu.Unlock()
	}()
	provider.delay = 20 * time.Millisecond
	r.Tick(context.Background())

	if cache.Len() != 2 {
		t.Fatalf("retry pass should have filled the cache, got %d", cache.Len())
	}
}
