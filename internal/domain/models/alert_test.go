package models

import (
	"strings"
	"testing"
)

func TestBuyPriceTarget(t *testing.T) {
	r := &AlertRule{Kind: AlertBuy, Condition: CondPriceTarget, TargetPrice: 100}
	if !r.ShouldTrigger(99.5, nil) {
		t.Fatalf("expected trigger at price below target")
	}
	if !r.ShouldTrigger(100, nil) {
		t.Fatalf("expected trigger at target")
	}
	if r.ShouldTrigger(100.01, nil) {
		t.Fatalf("unexpected trigger above target")
	}
}

func TestBuyPercentageGain(t *testing.T) {
	r := &AlertRule{Kind: AlertBuy, Condition: CondPercentageGain, BasePrice: 100, PercentageChange: 5}
	if !r.ShouldTrigger(105, nil) {
		t.Fatalf("expected trigger at +5%%")
	}
	if r.ShouldTrigger(104.9, nil) {
		t.Fatalf("unexpected trigger below +5%%")
	}
}

func TestBuyPercentageGainNoBasePrice(t *testing.T) {
	r := &AlertRule{Kind: AlertBuy, Condition: CondPercentageGain, PercentageChange: 5}
	if r.ShouldTrigger(1000, nil) {
		t.Fatalf("rule without base price must never trigger")
	}
}

func TestSellRequiresPosition(t *testing.T) {
	r := &AlertRule{Kind: AlertSell, Condition: CondPriceTarget, TargetPrice: 100}
	if r.ShouldTrigger(200, nil) {
		t.Fatalf("sell rule without position must not trigger")
	}
	pos := &Position{PurchasePrice: 80}
	if !r.ShouldTrigger(100, pos) {
		t.Fatalf("expected trigger at target with position")
	}
}

func TestSellPercentageGainUsesPurchasePrice(t *testing.T) {
	r := &AlertRule{Kind: AlertSell, Condition: CondPercentageGain, PercentageChange: 10}
	pos := &Position{PurchasePrice: 100}
	if !r.ShouldTrigger(110, pos) {
		t.Fatalf("expected trigger at +10%% over purchase price")
	}
	if r.ShouldTrigger(109, pos) {
		t.Fatalf("unexpected trigger below +10%%")
	}
}

func TestSellPercentageLossNeverFires(t *testing.T) {
	r := &AlertRule{Kind: AlertSell, Condition: CondPercentageLoss, PercentageChange: 10}
	pos := &Position{PurchasePrice: 100}
	if r.ShouldTrigger(50, pos) {
		t.Fatalf("sell has no percentage_loss path")
	}
}

func TestStopLoss(t *testing.T) {
	byTarget := &AlertRule{Kind: AlertStopLoss, Condition: CondPriceTarget, TargetPrice: 90}
	pos := &Position{PurchasePrice: 100}
	if !byTarget.ShouldTrigger(90, pos) {
		t.Fatalf("expected stop loss at target")
	}
	if byTarget.ShouldTrigger(90.5, pos) {
		t.Fatalf("unexpected stop loss above target")
	}

	byPct := &AlertRule{Kind: AlertStopLoss, Condition: CondPercentageLoss, PercentageChange: 10}
	if !byPct.ShouldTrigger(90, pos) {
		t.Fatalf("expected stop loss at -10%%")
	}
	if byPct.ShouldTrigger(91, pos) {
		t.Fatalf("unexpected stop loss above -10%%")
	}
}

func TestTakeProfit(t *testing.T) {
	r := &AlertRule{Kind: AlertTakeProfit, Condition: CondPriceTarget, TargetPrice: 120}
	pos := &Position{PurchasePrice: 100}
	if !r.ShouldTrigger(120, pos) {
		t.Fatalf("expected take profit at target")
	}
	if r.ShouldTrigger(119.99, pos) {
		t.Fatalf("unexpected take profit below target")
	}

	byPct := &AlertRule{Kind: AlertTakeProfit, Condition: CondPercentageGain, PercentageChange: 20}
	if byPct.ShouldTrigger(119, pos) {
		t.Fatalf("unexpected take profit below +20%%")
	}
	if !byPct.ShouldTrigger(120, pos) {
		t.Fatalf("expected take profit at +20%%")
	}
	if !byPct.ShouldTrigger(121, pos) {
		t.Fatalf("expected take profit above +20%%")
	}
}

func TestRequiresPosition(t *testing.T) {
	for _, kind := range []AlertKind{AlertSell, AlertStopLoss, AlertTakeProfit} {
		r := &AlertRule{Kind: kind}
		if !r.RequiresPosition() {
			t.Fatalf("%s should require a position", kind)
		}
	}
	if (&AlertRule{Kind: AlertBuy}).RequiresPosition() {
		t.Fatalf("buy should not require a position")
	}
}

func TestTriggerMessage(t *testing.T) {
	r := &AlertRule{Kind: AlertBuy, Symbol: "AAPL", TargetPrice: 105}
	msg := r.TriggerMessage(104)
	if msg != "BUY ALERT: AAPL is now at 104.00 (target: 105.00)" {
		t.Fatalf("unexpected message %q", msg)
	}

	sl := &AlertRule{Kind: AlertStopLoss, Symbol: "TSLA", TargetPrice: 90}
	if !strings.HasPrefix(sl.TriggerMessage(89.5), "STOP LOSS: TSLA has dropped to 89.50") {
		t.Fatalf("unexpected message %q", sl.TriggerMessage(89.5))
	}
}
