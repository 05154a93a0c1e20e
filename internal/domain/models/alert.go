package models

import (
	"fmt"
	"time"
)

// AlertKind is the intent of an alert rule.
type AlertKind string

const (
	AlertBuy        AlertKind = "buy"
	AlertSell       AlertKind = "sell"
	AlertStopLoss   AlertKind = "stop_loss"
	AlertTakeProfit AlertKind = "take_profit"
)

// AlertCondition selects the trigger predicate.
type AlertCondition string

const (
	CondPriceTarget    AlertCondition = "price_target"
	CondPercentageGain AlertCondition = "percentage_gain"
	CondPercentageLoss AlertCondition = "percentage_loss"
)

// AlertState is the lifecycle state of a rule. The active → triggered
// transition is one-way; disabled is reachable only by explicit user action.
type AlertState string

const (
	AlertActive    AlertState = "active"
	AlertTriggered AlertState = "triggered"
	AlertDisabled  AlertState = "disabled"
)

// AlertRule is a user-owned trigger over a symbol's price.
type AlertRule struct {
	ID               string         `json:"id"`
	OwnerID          string         `json:"owner_id"`
	Symbol           string         `json:"symbol"`
	Kind             AlertKind      `json:"kind"`
	Condition        AlertCondition `json:"condition"`
	TargetPrice      float64        `json:"target_price"`
	PercentageChange float64        `json:"percentage_change,omitempty"`
	BasePrice        float64        `json:"base_price,omitempty"`
	PositionID       string         `json:"position_id,omitempty"`
	State            AlertState     `json:"state"`
	TriggeredAt      *time.Time     `json:"triggered_at,omitempty"`
	Message          string         `json:"message"`
	CreatedAt        time.Time      `json:"created_at"`
}

// RequiresPosition reports whether the rule can only trigger with a
// resolvable position (sell, stop_loss and take_profit kinds).
func (r *AlertRule) RequiresPosition() bool {
	return r.Kind == AlertSell || r.Kind == AlertStopLoss || r.Kind == AlertTakeProfit
}

// TriggerMessage renders the per-kind notification text for a fire at price.
func (r *AlertRule) TriggerMessage(price float64) string {
	switch r.Kind {
	case AlertBuy:
		return fmt.Sprintf("BUY ALERT: %s is now at %.2f (target: %.2f)", r.Symbol, price, r.TargetPrice)
	case AlertSell:
		return fmt.Sprintf("SELL ALERT: %s is now at %.2f (target: %.2f)", r.Symbol, price, r.TargetPrice)
	case AlertStopLoss:
		return fmt.Sprintf("STOP LOSS: %s has dropped to %.2f (stop loss: %.2f)", r.Symbol, price, r.TargetPrice)
	case AlertTakeProfit:
		return fmt.Sprintf("TAKE PROFIT: %s has reached %.2f (target: %.2f)", r.Symbol, price, r.TargetPrice)
	}
	return fmt.Sprintf("ALERT: %s is now at %.2f", r.Symbol, price)
}

// ShouldTrigger evaluates the trigger predicate against the current price.
// pos may be nil; rules that need a position never trigger without one.
// The sell kind has no percentage_loss path.
func (r *AlertRule) ShouldTrigger(price float64, pos *Position) bool {
	switch r.Kind {
	case AlertBuy:
		switch r.Condition {
		case CondPriceTarget:
			return price <= r.TargetPrice
		case CondPercentageGain:
			if r.BasePrice <= 0 {
				return false
			}
			return pctChange(r.BasePrice, price) >= r.PercentageChange
		}
	case AlertSell:
		if pos == nil {
			return false
		}
		switch r.Condition {
		case CondPriceTarget:
			return price >= r.TargetPrice
		case CondPercentageGain:
			return pctChange(pos.PurchasePrice, price) >= r.PercentageChange
		}
	case AlertStopLoss:
		if pos == nil {
			return false
		}
		switch r.Condition {
		case CondPriceTarget:
			return price <= r.TargetPrice
		case CondPercentageLoss:
			return pctChange(pos.PurchasePrice, price) <= -r.PercentageChange
		}
	case AlertTakeProfit:
		if pos == nil {
			return false
		}
		switch r.Condition {
		case CondPriceTarget:
			return price >= r.TargetPrice
		case CondPercentageGain:
			return pctChange(pos.PurchasePrice, price) >= r.PercentageChange
		}
	}
	return false
}

// pctChange is the signed percentage move from base to current.
func pctChange(base, current float64) float64 {
	if base == 0 {
		return 0
	}
	return (current - base) / base * 100
}

// Position is a user's holding in a symbol. Read-only from the core's
// perspective; it supplies the baseline for percentage rules.
type Position struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Symbol        string    `json:"symbol"`
	Quantity      float64   `json:"quantity"`
	PurchasePrice float64   `json:"purchase_price"`
	PurchaseDate  time.Time `json:"purchase_date"`
}
