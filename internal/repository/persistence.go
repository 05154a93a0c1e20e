package repository

import (
	drepo "StockWatch/internal/domain/repository"
)

// Persistence is the full storage surface the application wires. Both the
// SQLite store and the in-memory store satisfy it.
type Persistence interface {
	drepo.AlertStore
	drepo.PositionStore
	drepo.NotificationStore
	drepo.FavoritesStore
	Close() error
}

var (
	_ Persistence = (*Store)(nil)
	_ Persistence = (*MemoryStore)(nil)
)
