package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"StockWatch/internal/domain/models"
	drepo "StockWatch/internal/domain/repository"
)

// Alerts is the request-level alert rule service.
type Alerts struct {
	store     drepo.AlertStore
	positions drepo.PositionStore
}

// NewAlerts creates the alert rule service.
func NewAlerts(store drepo.AlertStore, positions drepo.PositionStore) *Alerts {
	return &Alerts{store: store, positions: positions}
}

// validConditions maps each alert kind to the conditions its predicate can
// actually fire on. Anything else is rejected at create time.
var validConditions = map[models.AlertKind][]models.AlertCondition{
	models.AlertBuy:        {models.CondPriceTarget, models.CondPercentageGain},
	models.AlertSell:       {models.CondPriceTarget, models.CondPercentageGain},
	models.AlertStopLoss:   {models.CondPriceTarget, models.CondPercentageLoss},
	models.AlertTakeProfit: {models.CondPriceTarget, models.CondPercentageGain},
}

// Create validates and persists a new active alert rule for ownerID.
func (a *Alerts) Create(ctx context.Context, ownerID string, req *models.CreateAlertRequest) (*models.AlertRule, error) {
	kind := models.AlertKind(req.Kind)
	cond := models.AlertCondition(req.Condition)

	if !conditionAllowed(kind, cond) {
		return nil, fmt.Errorf("%w: condition %s is not valid for kind %s",
			models.ErrValidation, cond, kind)
	}
	if cond != models.CondPriceTarget && req.PercentageChange <= 0 {
		return nil, fmt.Errorf("%w: percentage_change is required for condition %s",
			models.ErrValidation, cond)
	}
	if kind == models.AlertBuy && cond == models.CondPercentageGain && req.BasePrice <= 0 {
		return nil, fmt.Errorf("%w: base_price is required for buy percentage rules",
			models.ErrValidation)
	}

	rule := &models.AlertRule{
		ID:               uuid.NewString(),
		OwnerID:          ownerID,
		Symbol:           req.Symbol,
		Kind:             kind,
		Condition:        cond,
		TargetPrice:      req.TargetPrice,
		PercentageChange: req.PercentageChange,
		BasePrice:        req.BasePrice,
		PositionID:       req.PositionID,
		State:            models.AlertActive,
		CreatedAt:        time.Now(),
	}

	if rule.RequiresPosition() {
		if rule.PositionID == "" {
			return nil, fmt.Errorf("%w: position_id is required for kind %s",
				models.ErrValidation, kind)
		}
		// Ownership check: a rule may only reference the creator's position.
		if _, err := a.positions.GetOwned(ctx, rule.PositionID, ownerID); err != nil {
			return nil, fmt.Errorf("%w: position %s not found",
				models.ErrValidation, rule.PositionID)
		}
	}

	if err := a.store.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("create alert rule: %w", err)
	}
	return rule, nil
}

// List returns all of ownerID's rules, newest first.
func (a *Alerts) List(ctx context.Context, ownerID string) ([]*models.AlertRule, error) {
	return a.store.ListByOwner(ctx, ownerID)
}

// Delete removes one of ownerID's rules. Deleting someone else's rule, or a
// missing one, returns ErrNotFound.
func (a *Alerts) Delete(ctx context.Context, id, ownerID string) error {
	return a.store.Delete(ctx, id, ownerID)
}

func conditionAllowed(kind models.AlertKind, cond models.AlertCondition) bool {
	for _, c := range validConditions[kind] {
		if c == cond {
			return true
		}
	}
	return false
}
