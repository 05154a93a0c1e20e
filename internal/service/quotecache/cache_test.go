package quotecache

import (
	"testing"
	"time"

	"StockWatch/internal/domain/models"
)

func TestPutGet(t *testing.T) {
	c := New(24 * time.Hour)
	c.Put(models.Quote{Symbol: "AAPL", Price: 190.5, FetchedAt: time.Now()})

	q, ok := c.Get("AAPL")
	if !ok {
		t.Fatalf("expected hit")
	}
	if q.Price != 190.5 {
		t.Fatalf("unexpected price %v", q.Price)
	}
	if _, ok := c.Get("MSFT"); ok {
		t.Fatalf("unexpected hit for absent symbol")
	}
}

func TestExpiredRecordReportsAbsent(t *testing.T) {
	c := New(24 * time.Hour)
	c.Put(models.Quote{Symbol: "AAPL", Price: 100, FetchedAt: time.Now().Add(-25 * time.Hour)})

	if _, ok := c.Get("AAPL"); ok {
		t.Fatalf("expired record must report absent")
	}
	// Still visible through Snapshot for diagnostics.
	if len(c.Snapshot()) != 1 {
		t.Fatalf("expired record should stay in storage")
	}
}

func TestPutReplacesWhole(t *testing.T) {
	c := New(24 * time.Hour)
	c.Put(models.Quote{Symbol: "AAPL", Price: 100, History: []float64{99, 100}, FetchedAt: time.Now()})
	c.Put(models.Quote{Symbol: "AAPL", Price: 101, FetchedAt: time.Now()})

	q, _ := c.Get("AAPL")
	if q.Price != 101 || len(q.History) != 0 {
		t.Fatalf("record must be replaced whole, got %+v", q)
	}
	if c.Len() != 1 {
		t.Fatalf("at most one record per symbol")
	}
}

func TestHealthStates(t *testing.T) {
	c := New(24 * time.Hour)

	h := c.Health()
	if h.Status != models.CacheUninitialized {
		t.Fatalf("expected uninitialized, got %s", h.Status)
	}

	c.Put(models.Quote{Symbol: "AAPL", Price: 100, FetchedAt: time.Now()})
	now := time.Now()

	if got := c.healthAt(now).Status; got != models.CacheHealthy {
		t.Fatalf("expected healthy, got %s", got)
	}
	if got := c.healthAt(now.Add(2 * time.Hour)).Status; got != models.CacheAging {
		t.Fatalf("expected aging, got %s", got)
	}
	if got := c.healthAt(now.Add(25 * time.Hour)).Status; got != models.CacheStale {
		t.Fatalf("expected stale, got %s", got)
	}
}

func TestClear(t *testing.T) {
	c := New(24 * time.Hour)
	c.Put(models.Quote{Symbol: "AAPL", Price: 100, FetchedAt: time.Now()})
	c.Clear()

	if c.Len() != 0 {
		t.Fatalf("expected empty cache")
	}
	if c.Health().Status != models.CacheUninitialized {
		t.Fatalf("clear must reset initialization")
	}
}

func TestSnapshotSorted(t *testing.T) {
	c := New(24 * time.Hour)
	for _, s := range []string{"MSFT", "AAPL", "GOOG"} {
		c.Put(models.Quote{Symbol: s, Price: 1, FetchedAt: time.Now()})
	}
	snap := c.Snapshot()
	if len(snap) != 3 || snap[0].Symbol != "AAPL" || snap[2].Symbol != "MSFT" {
		t.Fatalf("unexpected snapshot order %+v", snap)
	}
}

func TestFreshFiltersExpired(t *testing.T) {
	c := New(24 * time.Hour)
	c.Put(models.Quote{Symbol: "OLD", Price: 42, FetchedAt: time.Now().Add(-48 * time.Hour)})
	c.Put(models.Quote{Symbol: "NEW", Price: 100, FetchedAt: time.Now()})

	fresh := c.Fresh()
	if len(fresh) != 1 || fresh[0].Symbol != "NEW" {
		t.Fatalf("expected only NEW, got %+v", fresh)
	}
	// the stale record is still visible to diagnostics
	if len(c.Snapshot()) != 2 {
		t.Fatalf("snapshot must keep the stale record")
	}
}
