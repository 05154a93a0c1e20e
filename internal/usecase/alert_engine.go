package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"StockWatch/internal/domain/models"
	drepo "StockWatch/internal/domain/repository"
	"StockWatch/internal/service/push"
	"StockWatch/internal/service/quotecache"
	"StockWatch/pkg/logger"
)

// AlertEngine evaluates active alert rules against cached prices. A rule
// fires at most once: the store's active→triggered transition is the gate,
// so two overlapping evaluations can never double-fire the same rule.
type AlertEngine struct {
	cache     *quotecache.Cache
	alerts    drepo.AlertStore
	positions drepo.PositionStore
	queue     *NotificationQueue
	registry  *push.Registry
	publisher drepo.AlertEventPublisher // optional
	refresher *Refresher                // optional cache-miss fallback
	metrics   drepo.Metrics
	log       *logger.Logger
}

// AlertEngineOption configures optional collaborators.
type AlertEngineOption func(*AlertEngine)

// WithEventPublisher emits trigger events to an external bus.
func WithEventPublisher(p drepo.AlertEventPublisher) AlertEngineOption {
	return func(e *AlertEngine) { e.publisher = p }
}

// WithQuoteFallback fetches a live quote when a rule's symbol misses the
// cache, sharing the refresher's in-flight dedup.
func WithQuoteFallback(r *Refresher) AlertEngineOption {
	return func(e *AlertEngine) { e.refresher = r }
}

// NewAlertEngine creates the evaluation core.
func NewAlertEngine(
	cache *quotecache.Cache,
	alerts drepo.AlertStore,
	positions drepo.PositionStore,
	queue *NotificationQueue,
	registry *push.Registry,
	metrics drepo.Metrics,
	log *logger.Logger,
	opts ...AlertEngineOption,
) *AlertEngine {
	e := &AlertEngine{
		cache:     cache,
		alerts:    alerts,
		positions: positions,
		queue:     queue,
		registry:  registry,
		metrics:   metrics,
		log:       log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tick runs one evaluation pass over every active rule.
func (e *AlertEngine) Tick(ctx context.Context) {
	start := time.Now()
	rules, err := e.alerts.ListActive(ctx)
	if err != nil {
		e.metrics.RecordError("alerts_list")
		e.log.Error("failed to list active alerts", logger.Error(err))
		return
	}
	if len(rules) == 0 {
		return
	}

	// Group by symbol so each symbol's price is read once per pass.
	bySymbol := map[string][]*models.AlertRule{}
	for _, r := range rules {
		bySymbol[r.Symbol] = append(bySymbol[r.Symbol], r)
	}

	fired := 0
	for symbol, group := range bySymbol {
		q, ok := e.cache.Get(symbol)
		if !ok && e.refresher != nil {
			if fresh, err := e.refresher.ForceRefresh(ctx, symbol); err == nil {
				q, ok = fresh, true
			}
		}
		if !ok {
			// No usable price; rules stay active and are retried next pass.
			continue
		}
		for _, rule := range group {
			if e.evaluate(ctx, rule, q.Price) {
				fired++
			}
		}
	}

	e.metrics.RecordLatency("alert_pass", time.Since(start).Seconds())
	if fired > 0 {
		e.log.Info("alert pass fired rules",
			logger.Int("fired", fired), logger.Int("active", len(rules)))
	}
}

// evaluate fires rule against price if its predicate holds. Returns true when
// the rule actually transitioned to triggered.
func (e *AlertEngine) evaluate(ctx context.Context, rule *models.AlertRule, price float64) bool {
	var pos *models.Position
	if rule.RequiresPosition() {
		if rule.PositionID == "" {
			return false
		}
		p, err := e.positions.Get(ctx, rule.PositionID)
		if err != nil {
			// Missing position disarms the rule for this pass only.
			return false
		}
		pos = p
	}

	if !rule.ShouldTrigger(price, pos) {
		return false
	}

	message := rule.TriggerMessage(price)
	fired, err := e.alerts.MarkTriggered(ctx, rule.ID, time.Now(), message)
	if err != nil {
		e.metrics.RecordError("alert_mark")
		e.log.Error("failed to mark alert triggered",
			logger.String("alert_id", rule.ID), logger.Error(err))
		return false
	}
	if !fired {
		// Lost the race to another evaluation; nothing more to do.
		return false
	}

	rule.Message = message
	e.metrics.RecordTrigger(string(rule.Kind))
	e.log.Info("alert triggered",
		logger.String("alert_id", rule.ID),
		logger.String("symbol", rule.Symbol),
		logger.String("kind", string(rule.Kind)),
		logger.Float64("price", price))

	e.notify(ctx, rule, price)

	if e.publisher != nil {
		if err := e.publisher.PublishTriggered(ctx, rule, price); err != nil {
			e.metrics.RecordError("alert_publish")
			e.log.Warn("failed to publish trigger event",
				logger.String("alert_id", rule.ID), logger.Error(err))
		}
	}
	return true
}

// notify queues a durable notification and attempts an immediate push. The
// queue flush later settles delivery for users who were offline.
func (e *AlertEngine) notify(ctx context.Context, rule *models.AlertRule, price float64) {
	kind := models.NotifStockAlert
	if rule.RequiresPosition() {
		kind = models.NotifPositionAlert
	}
	n := &models.Notification{
		ID:      uuid.NewString(),
		OwnerID: rule.OwnerID,
		Kind:    kind,
		Title:   "Stock Alert",
		Body:    rule.Message,
		Payload: models.AlertPayload{
			Symbol:       rule.Symbol,
			CurrentPrice: price,
			TargetPrice:  rule.TargetPrice,
			AlertKind:    string(rule.Kind),
			AlertID:      rule.ID,
			PositionID:   rule.PositionID,
		},
		CreatedAt: time.Now(),
	}
	e.queue.Dispatch(ctx, n)
}
