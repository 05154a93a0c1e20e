package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"StockWatch/internal/domain/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAlertRuleRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rule := &models.AlertRule{
		ID: "a1", OwnerID: "u1", Symbol: "AAPL",
		Kind: models.AlertBuy, Condition: models.CondPriceTarget,
		TargetPrice: 100, State: models.AlertActive, CreatedAt: time.Now(),
	}
	if err := s.Create(ctx, rule); err != nil {
		t.Fatalf("create: %v", err)
	}

	active, err := s.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].ID != "a1" || active[0].Kind != models.AlertBuy {
		t.Fatalf("unexpected active rules %+v", active)
	}

	owned, err := s.ListByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(owned) != 1 || owned[0].TargetPrice != 100 {
		t.Fatalf("unexpected owned rules %+v", owned)
	}
}

func TestMarkTriggeredOneWay(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rule := &models.AlertRule{
		ID: "a1", OwnerID: "u1", Symbol: "AAPL",
		Kind: models.AlertBuy, Condition: models.CondPriceTarget,
		TargetPrice: 100, State: models.AlertActive, CreatedAt: time.Now(),
	}
	if err := s.Create(ctx, rule); err != nil {
		t.Fatalf("create: %v", err)
	}

	at := time.Now()
	fired, err := s.MarkTriggered(ctx, "a1", at, "msg")
	if err != nil || !fired {
		t.Fatalf("expected first mark to fire, fired=%v err=%v", fired, err)
	}

	fired, err = s.MarkTriggered(ctx, "a1", at, "msg2")
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if fired {
		t.Fatalf("marking a triggered rule must be a no-op")
	}

	active, _ := s.ListActive(ctx)
	if len(active) != 0 {
		t.Fatalf("triggered rule must leave the active set")
	}
	owned, _ := s.ListByOwner(ctx, "u1")
	if owned[0].TriggeredAt == nil || owned[0].Message != "msg" {
		t.Fatalf("trigger metadata lost: %+v", owned[0])
	}
}

func TestDeleteOwnership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rule := &models.AlertRule{
		ID: "a1", OwnerID: "u1", Symbol: "AAPL",
		Kind: models.AlertBuy, Condition: models.CondPriceTarget,
		TargetPrice: 100, State: models.AlertActive, CreatedAt: time.Now(),
	}
	if err := s.Create(ctx, rule); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.Delete(ctx, "a1", "intruder"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("cross-owner delete must return not found, got %v", err)
	}
	if err := s.Delete(ctx, "a1", "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestPositionRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &models.Position{
		ID: "p1", OwnerID: "u1", Symbol: "TSLA",
		Quantity: 10, PurchasePrice: 250, PurchaseDate: time.Now(),
	}
	if err := s.SavePosition(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Get(ctx, "p1")
	if err != nil || got.PurchasePrice != 250 {
		t.Fatalf("get: %+v err=%v", got, err)
	}
	if _, err := s.GetOwned(ctx, "p1", "intruder"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("cross-owner get must return not found, got %v", err)
	}
}

func TestNotificationLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n := &models.Notification{
		ID: "n1", OwnerID: "u1", Kind: models.NotifStockAlert,
		Title: "Stock Alert", Body: "AAPL at 99",
		Payload:   models.AlertPayload{Symbol: "AAPL", CurrentPrice: 99},
		CreatedAt: time.Now(),
	}
	if err := s.Append(ctx, n); err != nil {
		t.Fatalf("append: %v", err)
	}

	pending, err := s.ListUndelivered(ctx)
	if err != nil || len(pending) != 1 {
		t.Fatalf("undelivered: %v len=%d", err, len(pending))
	}
	if pending[0].Payload.Symbol != "AAPL" {
		t.Fatalf("payload lost: %+v", pending[0].Payload)
	}

	if err := s.MarkDelivered(ctx, "n1"); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	if pending, _ = s.ListUndelivered(ctx); len(pending) != 0 {
		t.Fatalf("delivered notification still pending")
	}

	if err := s.MarkRead(ctx, "n1", "u1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	recent, _ := s.ListRecent(ctx, "u1", 50)
	if len(recent) != 1 || !recent[0].Read || !recent[0].Delivered {
		t.Fatalf("unexpected record %+v", recent[0])
	}
}

func TestArchiveOlderThan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := &models.Notification{
		ID: "n1", OwnerID: "u1", Kind: models.NotifStockAlert,
		Title: "t", Body: "b", CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	fresh := &models.Notification{
		ID: "n2", OwnerID: "u1", Kind: models.NotifStockAlert,
		Title: "t", Body: "b", CreatedAt: time.Now(),
	}
	for _, n := range []*models.Notification{old, fresh} {
		if err := s.Append(ctx, n); err != nil {
			t.Fatalf("append: %v", err)
		}
		if err := s.MarkDelivered(ctx, n.ID); err != nil {
			t.Fatalf("mark delivered: %v", err)
		}
	}

	removed, err := s.ArchiveOlderThan(ctx, time.Now().Add(-24*time.Hour))
	if err != nil || removed != 1 {
		t.Fatalf("archive removed=%d err=%v", removed, err)
	}
	recent, _ := s.ListRecent(ctx, "u1", 50)
	if len(recent) != 1 || recent[0].ID != "n2" {
		t.Fatalf("wrong record archived: %+v", recent)
	}
}

func TestFavorites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, pair := range [][2]string{{"u1", "AAPL"}, {"u1", "NVDA"}, {"u2", "AAPL"}} {
		if err := s.AddFavorite(ctx, pair[0], pair[1]); err != nil {
			t.Fatalf("add favorite: %v", err)
		}
	}
	// Duplicate add is a no-op.
	if err := s.AddFavorite(ctx, "u1", "AAPL"); err != nil {
		t.Fatalf("duplicate add: %v", err)
	}

	union, err := s.FavoritesUnion(ctx)
	if err != nil {
		t.Fatalf("union: %v", err)
	}
	if len(union) != 2 || union[0] != "AAPL" || union[1] != "NVDA" {
		t.Fatalf("unexpected union %v", union)
	}

	if err := s.RemoveFavorite(ctx, "u1", "NVDA"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	union, _ = s.FavoritesUnion(ctx)
	if len(union) != 1 {
		t.Fatalf("expected NVDA gone, got %v", union)
	}
}
