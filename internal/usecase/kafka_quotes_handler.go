package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"StockWatch/internal/domain/models"
	drepo "StockWatch/internal/domain/repository"
	"StockWatch/internal/service/quotecache"
	"StockWatch/pkg/logger"
)

// QuoteTickHandler ingests externally produced quote ticks into the cache.
// It lets an upstream feed keep the cache warm without going through the
// HTTP provider.
type QuoteTickHandler struct {
	topic   string
	cache   *quotecache.Cache
	metrics drepo.Metrics
	log     *logger.Logger
}

// NewQuoteTickHandler creates the consumer handler for topic.
func NewQuoteTickHandler(topic string, cache *quotecache.Cache, metrics drepo.Metrics, log *logger.Logger) *QuoteTickHandler {
	return &QuoteTickHandler{topic: topic, cache: cache, metrics: metrics, log: log}
}

func (h *QuoteTickHandler) Topic() string { return h.topic }

// quoteTick is the wire format of an upstream tick.
type quoteTick struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	At     int64   `json:"at"` // unix millis; zero means now
}

// Handle parses one tick and updates the cache. A malformed tick is an error
// so the consumer's retry/DLQ path applies.
func (h *QuoteTickHandler) Handle(_ context.Context, value []byte) error {
	var tick quoteTick
	if err := json.Unmarshal(value, &tick); err != nil {
		return fmt.Errorf("parse quote tick: %w", err)
	}
	if tick.Symbol == "" || tick.Price <= 0 {
		return fmt.Errorf("invalid quote tick: symbol=%q price=%f", tick.Symbol, tick.Price)
	}

	fetchedAt := time.Now()
	if tick.At > 0 {
		fetchedAt = time.UnixMilli(tick.At)
	}

	q := models.Quote{
		Symbol:      tick.Symbol,
		DisplayName: tick.Name,
		Price:       tick.Price,
		FetchedAt:   fetchedAt,
	}
	if q.DisplayName == "" {
		q.DisplayName = tick.Symbol
	}
	if prev, ok := h.cache.Get(tick.Symbol); ok {
		q.History = appendClose(prev.History, tick.Price)
	} else {
		q.History = []float64{tick.Price}
	}

	h.cache.Put(q)
	h.metrics.RecordRefresh("tick")
	h.metrics.RecordLastPrice(tick.Symbol, tick.Price)
	h.log.Debug("quote tick applied",
		logger.String("symbol", tick.Symbol), logger.Float64("price", tick.Price))
	return nil
}
