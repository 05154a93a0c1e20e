package usecase

import (
	"context"
	"time"

	"StockWatch/internal/domain/models"
	drepo "StockWatch/internal/domain/repository"
	"StockWatch/internal/service/push"
	"StockWatch/pkg/logger"
)

// NotificationQueue is the durable delivery layer between alert triggers and
// connected users. Every notification is persisted before any delivery
// attempt; the periodic flush settles whatever immediate pushes missed.
type NotificationQueue struct {
	store    drepo.NotificationStore
	registry *push.Registry
	metrics  drepo.Metrics
	log      *logger.Logger

	retention time.Duration
}

// NewNotificationQueue creates the queue.
func NewNotificationQueue(
	store drepo.NotificationStore,
	registry *push.Registry,
	metrics drepo.Metrics,
	log *logger.Logger,
	retention time.Duration,
) *NotificationQueue {
	return &NotificationQueue{
		store:     store,
		registry:  registry,
		metrics:   metrics,
		log:       log,
		retention: retention,
	}
}

// Enqueue persists n with Delivered=false.
func (q *NotificationQueue) Enqueue(ctx context.Context, n *models.Notification) error {
	n.Delivered = false
	if err := q.store.Append(ctx, n); err != nil {
		q.metrics.RecordError("notification_append")
		return err
	}
	return nil
}

// Dispatch persists n and attempts an immediate push. An offline user's
// notification stays queued for the next flush.
func (q *NotificationQueue) Dispatch(ctx context.Context, n *models.Notification) {
	if err := q.Enqueue(ctx, n); err != nil {
		q.log.Error("failed to persist notification",
			logger.String("owner_id", n.OwnerID), logger.Error(err))
		// Still try the push; the user at least sees it once.
	}
	q.deliver(ctx, n)
}

// Flush is the periodic settlement pass: every undelivered notification gets
// one delivery attempt. Delivered is monotonic, so a notification that raced
// an immediate push is simply skipped by the store query next time.
func (q *NotificationQueue) Flush(ctx context.Context) {
	pending, err := q.store.ListUndelivered(ctx)
	if err != nil {
		q.metrics.RecordError("notification_list")
		q.log.Error("failed to list undelivered notifications", logger.Error(err))
		return
	}
	q.metrics.RecordPendingNotifications(len(pending))
	if len(pending) == 0 {
		return
	}

	delivered := 0
	for _, n := range pending {
		if q.deliver(ctx, n) {
			delivered++
		}
	}
	q.log.Debug("notification flush finished",
		logger.Int("pending", len(pending)), logger.Int("delivered", delivered))
}

// deliver pushes n to its owner's live channel and marks it delivered on
// success. Returns whether the push landed.
func (q *NotificationQueue) deliver(ctx context.Context, n *models.Notification) bool {
	frame := models.PushFrame{
		Type:      "notification",
		Title:     n.Title,
		Body:      n.Body,
		Data:      n.Payload,
		Timestamp: time.Now(),
	}
	if !q.registry.Send(n.OwnerID, frame) {
		q.metrics.RecordDelivery("deferred")
		return false
	}
	if err := q.store.MarkDelivered(ctx, n.ID); err != nil {
		q.metrics.RecordError("notification_mark")
		q.log.Warn("failed to mark notification delivered",
			logger.String("id", n.ID), logger.Error(err))
		// The user saw it; worst case the flush re-sends once.
	}
	q.metrics.RecordDelivery("delivered")
	return true
}

// ListForUser returns the user's notifications, newest first, capped at limit.
func (q *NotificationQueue) ListForUser(ctx context.Context, ownerID string, limit int) ([]*models.Notification, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	return q.store.ListRecent(ctx, ownerID, limit)
}

// MarkRead flags one of the user's notifications as read.
func (q *NotificationQueue) MarkRead(ctx context.Context, id, ownerID string) error {
	return q.store.MarkRead(ctx, id, ownerID)
}

// Archive drops delivered notifications older than the retention window.
// Wired as a slow periodic tick.
func (q *NotificationQueue) Archive(ctx context.Context) {
	if q.retention <= 0 {
		return
	}
	removed, err := q.store.ArchiveOlderThan(ctx, time.Now().Add(-q.retention))
	if err != nil {
		q.metrics.RecordError("notification_archive")
		q.log.Warn("failed to archive notifications", logger.Error(err))
		return
	}
	if removed > 0 {
		q.log.Info("archived old notifications", logger.Int("removed", removed))
	}
}
