package repository

import (
	"context"
	"time"

	"StockWatch/internal/domain/models"
)

// QuoteProvider fetches a live quote for a symbol. Timeouts and unknown
// symbols surface as errors; the scheduler treats both as soft failures.
type QuoteProvider interface {
	FetchQuote(ctx context.Context, symbol string) (models.Quote, error)
}

// AlertStore persists alert rules.
type AlertStore interface {
	Create(ctx context.Context, rule *models.AlertRule) error
	ListActive(ctx context.Context) ([]*models.AlertRule, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.AlertRule, error)
	// MarkTriggered flips a rule from active to triggered. It must be a
	// no-op returning false when the rule is not active anymore.
	MarkTriggered(ctx context.Context, id string, at time.Time, message string) (bool, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// PositionStore resolves positions referenced by alert rules. Read-only.
type PositionStore interface {
	Get(ctx context.Context, id string) (*models.Position, error)
	GetOwned(ctx context.Context, id, ownerID string) (*models.Position, error)
}

// NotificationStore persists the durable delivery queue.
type NotificationStore interface {
	Append(ctx context.Context, n *models.Notification) error
	ListUndelivered(ctx context.Context) ([]*models.Notification, error)
	MarkDelivered(ctx context.Context, id string) error
	ListRecent(ctx context.Context, ownerID string, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, ownerID string) error
	ArchiveOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// FavoritesSource supplies the union of all users' favorite symbols.
type FavoritesSource interface {
	FavoritesUnion(ctx context.Context) ([]string, error)
}

// FavoritesStore adds per-user favorite management on top of the union view.
type FavoritesStore interface {
	FavoritesSource
	AddFavorite(ctx context.Context, ownerID, symbol string) error
	RemoveFavorite(ctx context.Context, ownerID, symbol string) error
}

// HistoryStore records per-symbol closes and serves a bounded lookback.
type HistoryStore interface {
	Append(ctx context.Context, p models.HistoryPoint) error
	RecentCloses(ctx context.Context, symbol string, limit int) ([]float64, error)
	Health(ctx context.Context) error
	Close() error
}

// AlertEventPublisher emits trigger events to an external bus, best-effort.
type AlertEventPublisher interface {
	PublishTriggered(ctx context.Context, rule *models.AlertRule, price float64) error
	Close() error
}

// Metrics records operational counters and gauges.
type Metrics interface {
	RecordRefresh(result string)
	RecordTrigger(kind string)
	RecordDelivery(outcome string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordConnectedUsers(n int)
	RecordPendingNotifications(n int)
	RecordLatency(op string, seconds float64)
}
