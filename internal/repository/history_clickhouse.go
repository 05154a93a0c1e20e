package repository

import (
	"context"
	"fmt"

	"StockWatch/internal/domain/models"
	"StockWatch/pkg/clickhouse"
)

// HistoryRepository stores per-symbol closes in ClickHouse and serves the
// bounded lookback used to rebuild quote histories.
type HistoryRepository struct {
	client *clickhouse.Client
}

var historySchema = []string{
	`CREATE TABLE IF NOT EXISTS quote_closes (
		symbol    String,
		at        DateTime64(3),
		close     Float64
	) ENGINE = MergeTree()
	ORDER BY (symbol, at)
	TTL toDateTime(at) + INTERVAL 90 DAY`,
}

// NewHistoryRepository creates the repository and ensures the schema exists.
func NewHistoryRepository(ctx context.Context, client *clickhouse.Client) (*HistoryRepository, error) {
	if err := client.InitSchema(ctx, historySchema); err != nil {
		return nil, fmt.Errorf("failed to init history schema: %w", err)
	}
	return &HistoryRepository{client: client}, nil
}

// Append records one close observation.
func (r *HistoryRepository) Append(ctx context.Context, p models.HistoryPoint) error {
	_, err := r.client.DB().ExecContext(ctx,
		`INSERT INTO quote_closes (symbol, at, close) VALUES (?, ?, ?)`,
		p.Symbol, p.At, p.Close,
	)
	if err != nil {
		return fmt.Errorf("failed to insert close: %w", err)
	}
	return nil
}

// RecentCloses returns up to limit closes for symbol, oldest first.
func (r *HistoryRepository) RecentCloses(ctx context.Context, symbol string, limit int) ([]float64, error) {
	rows, err := r.client.DB().QueryContext(ctx, `
		SELECT close FROM (
			SELECT at, close FROM quote_closes
			WHERE symbol = ? ORDER BY at DESC LIMIT ?
		) ORDER BY at ASC`,
		symbol, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query closes: %w", err)
	}
	defer rows.Close()

	closes := []float64{}
	for rows.Next() {
		var c float64
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan close: %w", err)
		}
		closes = append(closes, c)
	}
	return closes, rows.Err()
}

func (r *HistoryRepository) Health(ctx context.Context) error {
	return r.client.Health(ctx)
}

func (r *HistoryRepository) Close() error {
	return r.client.Close()
}
