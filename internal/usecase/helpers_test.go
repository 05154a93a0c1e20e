package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"StockWatch/internal/domain/models"
	"StockWatch/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// nopMetrics satisfies the metrics interface for tests.
type nopMetrics struct{}

func (nopMetrics) RecordRefresh(string)            {}
func (nopMetrics) RecordTrigger(string)            {}
func (nopMetrics) RecordDelivery(string)           {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordConnectedUsers(int)        {}
func (nopMetrics) RecordPendingNotifications(int)  {}
func (nopMetrics) RecordLatency(string, float64)   {}

// fakeProvider serves scripted prices and counts fetches per symbol.
type fakeProvider struct {
	mu     sync.Mutex
	prices map[string]float64
	fail   map[string]bool
	calls  map[string]int
	delay  time.Duration
}

func newFakeProvider(prices map[string]float64) *fakeProvider {
	return &fakeProvider{
		prices: prices,
		fail:   map[string]bool{},
		calls:  map[string]int{},
	}
}

func (f *fakeProvider) FetchQuote(ctx context.Context, symbol string) (models.Quote, error) {
	f.mu.Lock()
	f.calls[symbol]++
	price, ok := f.prices[symbol]
	shouldFail := f.fail[symbol]
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return models.Quote{}, ctx.Err()
		}
	}
	if !ok || shouldFail {
		return models.Quote{}, fmt.Errorf("no quote for %s", symbol)
	}
	return models.Quote{
		Symbol:      symbol,
		DisplayName: symbol,
		Price:       price,
		FetchedAt:   time.Now(),
	}, nil
}

func (f *fakeProvider) callCount(symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[symbol]
}

// fakeChannel collects pushed frames.
type fakeChannel struct {
	mu   sync.Mutex
	sent []interface{}
}

func (f *fakeChannel) Send(v interface{}) error {
	f.mu.Lock()
	f.sent = append(f.sent, v)
	f.mu.Unlock()
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func (f *fakeChannel) frames() []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]interface{}, len(f.sent))
	copy(out, f.sent)
	return out
}
