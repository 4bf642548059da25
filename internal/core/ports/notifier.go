package ports

import "github.com/tabify/order-sync/internal/core/domain"

// Notifier fans a committed order event out to its recipients.
// Delivery is at-most-once and best-effort: a stale or absent recipient is
// silently skipped and must never fail the triggering operation.
type Notifier interface {
	Notify(event domain.OrderEvent)
}
