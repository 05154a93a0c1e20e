package models

import "time"

// NotificationKind classifies a queued notification.
type NotificationKind string

const (
	NotifStockAlert    NotificationKind = "stock_alert"
	NotifPositionAlert NotificationKind = "position_alert"
	NotifSystemAlert   NotificationKind = "system_alert"
)

// Notification is a durable record of a message owed to a user. Delivered is
// monotonic: once true it is never reset, and re-delivery is a no-op.
type Notification struct {
	ID        string           `json:"id"`
	OwnerID   string           `json:"owner_id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Payload   AlertPayload     `json:"payload"`
	Delivered bool             `json:"delivered"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// AlertPayload is the structured data attached to a stock alert notification.
type AlertPayload struct {
	Symbol       string  `json:"symbol,omitempty"`
	CurrentPrice float64 `json:"current_price,omitempty"`
	TargetPrice  float64 `json:"target_price,omitempty"`
	AlertKind    string  `json:"alert_kind,omitempty"`
	AlertID      string  `json:"alert_id,omitempty"`
	PositionID   string  `json:"position_id,omitempty"`
}

// PushFrame is the envelope written to a live push channel.
type PushFrame struct {
	Type      string      `json:"type"` // "notification" or "stock_update"
	Title     string      `json:"title,omitempty"`
	Body      string      `json:"body,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// StockFrame is one entry of an ambient stock_update broadcast.
type StockFrame struct {
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	History     []float64 `json:"history,omitempty"`
	SMA         float64   `json:"sma"`
	LastUpdated time.Time `json:"last_updated"`
}
