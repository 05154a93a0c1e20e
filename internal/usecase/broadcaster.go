package usecase

import (
	"context"
	"time"

	"StockWatch/internal/domain/models"
	"StockWatch/internal/service/push"
	"StockWatch/internal/service/quotecache"
	"StockWatch/pkg/logger"
)

// Broadcaster pushes ambient stock_update frames to every connected user.
// It only reads the cache; a pass with no connections or no quotes does
// nothing.
type Broadcaster struct {
	cache    *quotecache.Cache
	registry *push.Registry
	log      *logger.Logger
}

// NewBroadcaster creates the ambient broadcast core.
func NewBroadcaster(cache *quotecache.Cache, registry *push.Registry, log *logger.Logger) *Broadcaster {
	return &Broadcaster{cache: cache, registry: registry, log: log}
}

// Tick sends one stock_update frame carrying every valid cached quote with
// its simple moving average. Records past the cache TTL are not pushed.
func (b *Broadcaster) Tick(_ context.Context) {
	if b.registry.Count() == 0 {
		return
	}
	quotes := b.cache.Fresh()
	if len(quotes) == 0 {
		return
	}

	frames := make([]models.StockFrame, 0, len(quotes))
	for _, q := range quotes {
		frames = append(frames, models.StockFrame{
			Symbol:      q.Symbol,
			Name:        q.DisplayName,
			Price:       q.Price,
			History:     q.History,
			SMA:         q.SMA(),
			LastUpdated: q.FetchedAt,
		})
	}

	sent := b.registry.BroadcastAll(models.PushFrame{
		Type:      "stock_update",
		Data:      frames,
		Timestamp: time.Now(),
	})
	b.log.Debug("stock update broadcast",
		logger.Int("stocks", len(frames)), logger.Int("receivers", sent))
}
