package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockWatch/internal/domain/models"
	"StockWatch/internal/repository"
)

func newAlertsFixture(t *testing.T) (*Alerts, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	return NewAlerts(store, store), store
}

func TestCreateBuyRule(t *testing.T) {
	a, store := newAlertsFixture(t)

	rule, err := a.Create(context.Background(), "u1", &models.CreateAlertRequest{
		Symbol: "AAPL", Kind: "buy", Condition: "price_target", TargetPrice: 100,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rule.ID == "" || rule.State != models.AlertActive || rule.OwnerID != "u1" {
		t.Fatalf("unexpected rule %+v", rule)
	}

	active, _ := store.ListActive(context.Background())
	if len(active) != 1 {
		t.Fatalf("rule not persisted")
	}
}

func TestCreateRejectsInvalidConditionCombo(t *testing.T) {
	a, _ := newAlertsFixture(t)

	_, err := a.Create(context.Background(), "u1", &models.CreateAlertRequest{
		Symbol: "AAPL", Kind: "sell", Condition: "percentage_loss",
		TargetPrice: 100, PercentageChange: 10, PositionID: "p1",
	})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateRequiresPercentage(t *testing.T) {
	a, _ := newAlertsFixture(t)

	_, err := a.Create(context.Background(), "u1", &models.CreateAlertRequest{
		Symbol: "AAPL", Kind: "buy", Condition: "percentage_gain",
		TargetPrice: 100, BasePrice: 90,
	})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error for missing percentage, got %v", err)
	}
}

func TestCreateRequiresBasePriceForBuyPercentage(t *testing.T) {
	a, _ := newAlertsFixture(t)

	_, err := a.Create(context.Background(), "u1", &models.CreateAlertRequest{
		Symbol: "AAPL", Kind: "buy", Condition: "percentage_gain",
		TargetPrice: 100, PercentageChange: 5,
	})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error for missing base price, got %v", err)
	}
}

func TestCreatePositionRuleChecksOwnership(t *testing.T) {
	a, store := newAlertsFixture(t)
	ctx := context.Background()

	if err := store.SavePosition(ctx, &models.Position{
		ID: "p1", OwnerID: "owner", Symbol: "TSLA",
		PurchasePrice: 100, Quantity: 5, PurchaseDate: time.Now(),
	}); err != nil {
		t.Fatalf("save position: %v", err)
	}

	// Referencing someone else's position is rejected.
	_, err := a.Create(ctx, "intruder", &models.CreateAlertRequest{
		Symbol: "TSLA", Kind: "stop_loss", Condition: "price_target",
		TargetPrice: 90, PositionID: "p1",
	})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	rule, err := a.Create(ctx, "owner", &models.CreateAlertRequest{
		Symbol: "TSLA", Kind: "stop_loss", Condition: "price_target",
		TargetPrice: 90, PositionID: "p1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rule.PositionID != "p1" {
		t.Fatalf("position reference lost")
	}
}

func TestCreatePositionRuleRequiresPositionID(t *testing.T) {
	a, _ := newAlertsFixture(t)

	_, err := a.Create(context.Background(), "u1", &models.CreateAlertRequest{
		Symbol: "TSLA", Kind: "take_profit", Condition: "price_target", TargetPrice: 120,
	})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error for missing position_id, got %v", err)
	}
}

func TestDeleteOtherOwnersRule(t *testing.T) {
	a, _ := newAlertsFixture(t)
	ctx := context.Background()

	rule, err := a.Create(ctx, "u1", &models.CreateAlertRequest{
		Symbol: "AAPL", Kind: "buy", Condition: "price_target", TargetPrice: 100,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := a.Delete(ctx, rule.ID, "u2"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("cross-owner delete must fail, got %v", err)
	}
	if err := a.Delete(ctx, rule.ID, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
