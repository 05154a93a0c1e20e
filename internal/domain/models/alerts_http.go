package models

// Requests for the HTTP surface. Defined in domain for consistency and reuse.

type CreateAlertRequest struct {
	Symbol           string  `json:"symbol" validate:"required,uppercase"`
	Kind             string  `json:"kind" validate:"required,oneof=buy sell stop_loss take_profit"`
	Condition        string  `json:"condition" validate:"required,oneof=price_target percentage_gain percentage_loss"`
	TargetPrice      float64 `json:"target_price" validate:"required,gt=0"`
	PercentageChange float64 `json:"percentage_change" validate:"gte=0,lte=100"`
	BasePrice        float64 `json:"base_price" validate:"gte=0"`
	PositionID       string  `json:"position_id"`
}

type HistoryRequest struct {
	Symbol string `param:"symbol" validate:"required"`
	Limit  int    `query:"limit" default:"50" validate:"gte=1,lte=50"`
}

type NotificationsRequest struct {
	Limit int `query:"limit" default:"50" validate:"gte=1,lte=50"`
}
