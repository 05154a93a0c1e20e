package models

import "time"

// Quote is a symbol's last observed price plus a bounded recent-close history.
// A cache entry is replaced whole; no field is ever updated in place.
type Quote struct {
	Symbol      string    `json:"symbol"`
	DisplayName string    `json:"name"`
	Price       float64   `json:"price"`
	History     []float64 `json:"history,omitempty"` // recent closes, oldest first
	FetchedAt   time.Time `json:"fetched_at"`
}

// MaxHistoryLen bounds the recent-close series carried on a quote.
const MaxHistoryLen = 50

// SMA returns the simple moving average of the close history, 0 when empty.
func (q Quote) SMA() float64 {
	if len(q.History) == 0 {
		return 0
	}
	var sum float64
	for _, c := range q.History {
		sum += c
	}
	return sum / float64(len(q.History))
}

// Age reports how old the quote is relative to now.
func (q Quote) Age(now time.Time) time.Duration {
	return now.Sub(q.FetchedAt)
}

// CacheStatus classifies the overall freshness of the quote cache.
type CacheStatus string

const (
	CacheHealthy       CacheStatus = "healthy"
	CacheAging         CacheStatus = "aging"
	CacheStale         CacheStatus = "stale"
	CacheUninitialized CacheStatus = "uninitialized"
)

// CacheHealth is the diagnostic view of the quote cache.
type CacheHealth struct {
	Status  CacheStatus   `json:"status"`
	Message string        `json:"message"`
	Age     time.Duration `json:"age_ms"`
	Symbols int           `json:"symbols"`
}

// HistoryPoint is one persisted close observation for a symbol.
type HistoryPoint struct {
	Symbol string    `json:"symbol"`
	At     time.Time `json:"at"`
	Close  float64   `json:"close"`
}
