package usecase

import (
	"context"
	"testing"
	"time"

	"StockWatch/internal/domain/models"
	"StockWatch/internal/repository"
	"StockWatch/internal/service/push"
	"StockWatch/internal/service/quotecache"
)

type engineFixture struct {
	engine   *AlertEngine
	cache    *quotecache.Cache
	store    *repository.MemoryStore
	registry *push.Registry
	queue    *NotificationQueue
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	cache := quotecache.New(24 * time.Hour)
	store := repository.NewMemoryStore()
	registry := push.NewRegistry(nopMetrics{})
	queue := NewNotificationQueue(store, registry, nopMetrics{}, testLogger(t), 30*24*time.Hour)
	engine := NewAlertEngine(cache, store, store, queue, registry, nopMetrics{}, testLogger(t))
	return &engineFixture{engine: engine, cache: cache, store: store, registry: registry, queue: queue}
}

func (f *engineFixture) addRule(t *testing.T, rule *models.AlertRule) {
	t.Helper()
	if rule.State == "" {
		rule.State = models.AlertActive
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now()
	}
	if err := f.store.Create(context.Background(), rule); err != nil {
		t.Fatalf("create rule: %v", err)
	}
}

func (f *engineFixture) putQuote(symbol string, price float64) {
	f.cache.Put(models.Quote{Symbol: symbol, Price: price, FetchedAt: time.Now()})
}

func TestEngineTriggersBuyRule(t *testing.T) {
	f := newEngineFixture(t)
	f.putQuote("AAPL", 99)
	f.addRule(t, &models.AlertRule{
		ID: "a1", OwnerID: "u1", Symbol: "AAPL",
		Kind: models.AlertBuy, Condition: models.CondPriceTarget, TargetPrice: 100,
	})

	f.engine.Tick(context.Background())

	rules, _ := f.store.ListByOwner(context.Background(), "u1")
	if len(rules) != 1 || rules[0].State != models.AlertTriggered {
		t.Fatalf("expected triggered rule, got %+v", rules[0])
	}
	if rules[0].TriggeredAt == nil {
		t.Fatalf("triggeredAt must be stamped")
	}
	if rules[0].Message != "BUY ALERT: AAPL is now at 99.00 (target: 100.00)" {
		t.Fatalf("unexpected message %q", rules[0].Message)
	}
}

func TestEngineFiresOnce(t *testing.T) {
	f := newEngineFixture(t)
	f.putQuote("AAPL", 99)
	f.addRule(t, &models.AlertRule{
		ID: "a1", OwnerID: "u1", Symbol: "AAPL",
		Kind: models.AlertBuy, Condition: models.CondPriceTarget, TargetPrice: 100,
	})

	f.engine.Tick(context.Background())
	f.engine.Tick(context.Background())

	notifs, err := f.queue.ListForUser(context.Background(), "u1", 50)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("a rule must fire exactly once, got %d notifications", len(notifs))
	}
}

func TestEngineSkipsRuleWithoutQuote(t *testing.T) {
	f := newEngineFixture(t)
	f.addRule(t, &models.AlertRule{
		ID: "a1", OwnerID: "u1", Symbol: "GHOST",
		Kind: models.AlertBuy, Condition: models.CondPriceTarget, TargetPrice: 100,
	})

	f.engine.Tick(context.Background())

	rules, _ := f.store.ListActive(context.Background())
	if len(rules) != 1 {
		t.Fatalf("rule without a quote must stay active")
	}
}

func TestEngineSkipsMissingPosition(t *testing.T) {
	f := newEngineFixture(t)
	f.putQuote("TSLA", 200)
	f.addRule(t, &models.AlertRule{
		ID: "a1", OwnerID: "u1", Symbol: "TSLA", PositionID: "gone",
		Kind: models.AlertSell, Condition: models.CondPriceTarget, TargetPrice: 150,
	})

	f.engine.Tick(context.Background())

	rules, _ := f.store.ListActive(context.Background())
	if len(rules) != 1 {
		t.Fatalf("rule with missing position must be skipped, not fired or errored")
	}
}

func TestEngineStopLossWithPosition(t *testing.T) {
	f := newEngineFixture(t)
	f.putQuote("TSLA", 85)
	if err := f.store.SavePosition(context.Background(), &models.Position{
		ID: "p1", OwnerID: "u1", Symbol: "TSLA", PurchasePrice: 100, Quantity: 10,
	}); err != nil {
		t.Fatalf("save position: %v", err)
	}
	f.addRule(t, &models.AlertRule{
		ID: "a1", OwnerID: "u1", Symbol: "TSLA", PositionID: "p1",
		Kind: models.AlertStopLoss, Condition: models.CondPercentageLoss, PercentageChange: 10,
	})

	f.engine.Tick(context.Background())

	rules, _ := f.store.ListByOwner(context.Background(), "u1")
	if rules[0].State != models.AlertTriggered {
		t.Fatalf("expected stop loss to fire at -15%%")
	}
}

func TestEngineImmediatePush(t *testing.T) {
	f := newEngineFixture(t)
	ch := &fakeChannel{}
	f.registry.Register("u1", ch)

	f.putQuote("AAPL", 99)
	f.addRule(t, &models.AlertRule{
		ID: "a1", OwnerID: "u1", Symbol: "AAPL",
		Kind: models.AlertBuy, Condition: models.CondPriceTarget, TargetPrice: 100,
	})

	f.engine.Tick(context.Background())

	frames := ch.frames()
	if len(frames) != 1 {
		t.Fatalf("expected one immediate push, got %d", len(frames))
	}
	frame, ok := frames[0].(models.PushFrame)
	if !ok || frame.Type != "notification" {
		t.Fatalf("unexpected frame %+v", frames[0])
	}

	// Already delivered; the flush must not re-send.
	f.queue.Flush(context.Background())
	if len(ch.frames()) != 1 {
		t.Fatalf("flush must not re-deliver")
	}
}
