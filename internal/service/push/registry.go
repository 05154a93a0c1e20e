package push

import (
	"sync"

	drepo "StockWatch/internal/domain/repository"
)

// Registry maps a user identity to at most one live channel. Registering a
// new channel for a user silently supersedes the previous binding; a user
// with two open sessions keeps only the last one (documented limitation).
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
	metrics  drepo.Metrics
}

// NewRegistry creates an empty registry.
func NewRegistry(metrics drepo.Metrics) *Registry {
	return &Registry{
		channels: make(map[string]Channel),
		metrics:  metrics,
	}
}

// Register binds ch to userID, last-registered-wins.
func (r *Registry) Register(userID string, ch Channel) {
	r.mu.Lock()
	r.channels[userID] = ch
	n := len(r.channels)
	r.mu.Unlock()
	if r.metrics != nil {
		r.metrics.RecordConnectedUsers(n)
	}
}

// Unregister removes the binding for userID, but only if ch is still the
// current binding. A superseded channel closing late must not evict its
// successor.
func (r *Registry) Unregister(userID string, ch Channel) {
	r.mu.Lock()
	if cur, ok := r.channels[userID]; ok && cur == ch {
		delete(r.channels, userID)
	}
	n := len(r.channels)
	r.mu.Unlock()
	if r.metrics != nil {
		r.metrics.RecordConnectedUsers(n)
	}
}

// Send pushes payload to userID's channel. Returns true iff a binding
// existed at send time; an offline user is a normal condition, not an error.
func (r *Registry) Send(userID string, payload interface{}) bool {
	r.mu.RLock()
	ch, ok := r.channels[userID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if err := ch.Send(payload); err != nil && r.metrics != nil {
		r.metrics.RecordError("push_send")
	}
	return true
}

// BroadcastAll pushes payload to every bound channel and returns the number
// of channels written to.
func (r *Registry) BroadcastAll(payload interface{}) int {
	r.mu.RLock()
	targets := make([]Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		targets = append(targets, ch)
	}
	r.mu.RUnlock()

	for _, ch := range targets {
		if err := ch.Send(payload); err != nil && r.metrics != nil {
			r.metrics.RecordError("push_broadcast")
		}
	}
	return len(targets)
}

// Online reports whether userID currently has a binding.
func (r *Registry) Online(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.channels[userID]
	return ok
}

// Count reports the number of live bindings.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}
