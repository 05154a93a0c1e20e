package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"StockWatch/internal/domain/models"
)

// MemoryStore is an in-memory implementation of the persistence interfaces.
// It backs the service when no store path is configured and the tests.
type MemoryStore struct {
	mu        sync.RWMutex
	rules     map[string]*models.AlertRule
	positions map[string]*models.Position
	notifs    map[string]*models.Notification
	favorites map[string]map[string]struct{} // ownerID -> symbols
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rules:     make(map[string]*models.AlertRule),
		positions: make(map[string]*models.Position),
		notifs:    make(map[string]*models.Notification),
		favorites: make(map[string]map[string]struct{}),
	}
}

func (m *MemoryStore) Close() error { return nil }

// ---- AlertStore ----

func (m *MemoryStore) Create(_ context.Context, rule *models.AlertRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rule
	m.rules[rule.ID] = &cp
	return nil
}

func (m *MemoryStore) ListActive(_ context.Context) ([]*models.AlertRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.AlertRule{}
	for _, r := range m.rules {
		if r.State == models.AlertActive {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) ListByOwner(_ context.Context, ownerID string) ([]*models.AlertRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.AlertRule{}
	for _, r := range m.rules {
		if r.OwnerID == ownerID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) MarkTriggered(_ context.Context, id string, at time.Time, message string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[id]
	if !ok || r.State != models.AlertActive {
		return false, nil
	}
	r.State = models.AlertTriggered
	t := at
	r.TriggeredAt = &t
	r.Message = message
	return true, nil
}

func (m *MemoryStore) Delete(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[id]
	if !ok || r.OwnerID != ownerID {
		return models.ErrNotFound
	}
	delete(m.rules, id)
	return nil
}

// ---- PositionStore ----

func (m *MemoryStore) Get(_ context.Context, id string) (*models.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.positions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) GetOwned(_ context.Context, id, ownerID string) (*models.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.positions[id]
	if !ok || p.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) SavePosition(_ context.Context, p *models.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.positions[p.ID] = &cp
	return nil
}

// ---- NotificationStore ----

func (m *MemoryStore) Append(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.notifs[n.ID] = &cp
	return nil
}

func (m *MemoryStore) ListUndelivered(_ context.Context) ([]*models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.Notification{}
	for _, n := range m.notifs {
		if !n.Delivered {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) MarkDelivered(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.notifs[id]; ok {
		n.Delivered = true
	}
	return nil
}

func (m *MemoryStore) ListRecent(_ context.Context, ownerID string, limit int) ([]*models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.Notification{}
	for _, n := range m.notifs {
		if n.OwnerID == ownerID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) MarkRead(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifs[id]
	if !ok || n.OwnerID != ownerID {
		return models.ErrNotFound
	}
	n.Read = true
	return nil
}

func (m *MemoryStore) ArchiveOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, n := range m.notifs {
		if n.Delivered && n.CreatedAt.Before(cutoff) {
			delete(m.notifs, id)
			removed++
		}
	}
	return removed, nil
}

// ---- FavoritesSource ----

func (m *MemoryStore) FavoritesUnion(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := map[string]struct{}{}
	for _, syms := range m.favorites {
		for sym := range syms {
			set[sym] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for sym := range set {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) AddFavorite(_ context.Context, ownerID, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.favorites[ownerID] == nil {
		m.favorites[ownerID] = map[string]struct{}{}
	}
	m.favorites[ownerID][symbol] = struct{}{}
	return nil
}

func (m *MemoryStore) RemoveFavorite(_ context.Context, ownerID, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.favorites[ownerID], symbol)
	return nil
}
