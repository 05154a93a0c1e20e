package marketdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("symbol") != "AAPL" || r.URL.Query().Get("token") != "key" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"symbol": "AAPL",
			"name":   "Apple Inc.",
			"price":  190.25,
			"closes": []float64{188, 189, 190},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "key", 2*time.Second)
	q, err := c.FetchQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if q.Price != 190.25 || q.DisplayName != "Apple Inc." {
		t.Fatalf("unexpected quote %+v", q)
	}
	if len(q.History) != 3 {
		t.Fatalf("unexpected history %v", q.History)
	}
	if q.FetchedAt.IsZero() {
		t.Fatalf("fetchedAt must be stamped")
	}
}

func TestFetchQuoteNoPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"symbol": "NOPE"})
	}))
	defer srv.Close()

	c := New(srv.URL, "key", 2*time.Second)
	if _, err := c.FetchQuote(context.Background(), "NOPE"); err == nil {
		t.Fatalf("expected error for missing price")
	}
}

func TestFetchQuoteUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "key", 2*time.Second)
	if _, err := c.FetchQuote(context.Background(), "AAPL"); err == nil {
		t.Fatalf("expected error for upstream failure")
	}
}
