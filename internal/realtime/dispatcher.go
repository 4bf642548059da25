package realtime

import (
	"github.com/rs/zerolog"

	"github.com/tabify/order-sync/internal/api/metrics"
	"github.com/tabify/order-sync/internal/core/domain"
)

// Dispatcher implements ports.Notifier: it resolves the recipient set for
// each event through the registry and delivers at most once per recipient.
//
// NewOrder goes to the owners group. OrderUpdate goes to the owners group
// plus the connection bound to the order, if any. BalanceSettled goes to
// the owners group. Delivery failures (closed socket, full buffer) isolate
// to that recipient and never fail the triggering operation.
type Dispatcher struct {
	registry *Registry
	log      zerolog.Logger
}

func NewDispatcher(registry *Registry, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, log: log}
}

func (d *Dispatcher) Notify(event domain.OrderEvent) {
	recipients := make(map[string]Conn)
	for _, c := range d.registry.Owners() {
		recipients[c.ID()] = c
	}

	if event.Type == domain.EventOrderUpdate && event.Order != nil {
		if c, ok := d.registry.OrderConn(event.Order.ID); ok {
			recipients[c.ID()] = c
		}
	}

	metrics.EventsDispatchedTotal.WithLabelValues(string(event.Type)).Inc()
	switch event.Type {
	case domain.EventNewOrder:
		metrics.OrdersCreatedTotal.Inc()
	case domain.EventOrderUpdate:
		if event.Order != nil {
			metrics.OrderTransitionsTotal.WithLabelValues(string(event.Order.Status)).Inc()
		}
	case domain.EventBalanceSettled:
		metrics.BalancesSettledTotal.Inc()
	}

	for _, c := range recipients {
		if err := c.Send(event); err != nil {
			metrics.DeliveriesDroppedTotal.Inc()
			d.log.Debug().Err(err).
				Str("event", string(event.Type)).
				Str("conn_id", c.ID()).
				Msg("delivery dropped")
		}
	}
}
