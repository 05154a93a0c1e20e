package repository

import (
	"context"
	"time"

	"StockWatch/internal/domain/models"
	"StockWatch/pkg/kafka"
)

// AlertPublisher emits triggered-alert events to Kafka. Publishing is
// best-effort: the alert engine logs failures and keeps going.
type AlertPublisher struct {
	producer *kafka.Producer
	topic    string
}

// NewAlertPublisher wraps the producer for the given topic.
func NewAlertPublisher(producer *kafka.Producer, topic string) *AlertPublisher {
	return &AlertPublisher{producer: producer, topic: topic}
}

// triggeredEvent is the wire format of an alert trigger event.
type triggeredEvent struct {
	AlertID     string    `json:"alert_id"`
	OwnerID     string    `json:"owner_id"`
	Symbol      string    `json:"symbol"`
	Kind        string    `json:"kind"`
	Condition   string    `json:"condition"`
	TargetPrice float64   `json:"target_price"`
	Price       float64   `json:"price"`
	Message     string    `json:"message"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// PublishTriggered publishes a trigger event keyed by symbol.
func (p *AlertPublisher) PublishTriggered(ctx context.Context, rule *models.AlertRule, price float64) error {
	evt := triggeredEvent{
		AlertID:     rule.ID,
		OwnerID:     rule.OwnerID,
		Symbol:      rule.Symbol,
		Kind:        string(rule.Kind),
		Condition:   string(rule.Condition),
		TargetPrice: rule.TargetPrice,
		Price:       price,
		Message:     rule.Message,
		TriggeredAt: time.Now(),
	}
	return p.producer.Publish(ctx, p.topic, []byte(rule.Symbol), evt)
}

func (p *AlertPublisher) Close() error {
	return p.producer.Close()
}
