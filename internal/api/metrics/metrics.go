// Package metrics defines and registers all custom Prometheus metrics for
// the order synchronization service. It is the single source of truth for
// metric names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tabify"

// ── Order metrics ─────────────────────────────────────────────────────────────

// OrdersCreatedTotal counts newly placed orders.
var OrdersCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Total number of orders created.",
	},
)

// OrderTransitionsTotal counts committed order state transitions.
// Labels:
//   - status: the resulting lifecycle status ("accepted", "completed")
var OrderTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Total number of committed order status transitions, by resulting status.",
	},
	[]string{"status"},
)

// BalancesSettledTotal counts bulk balance settlements.
var BalancesSettledTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "balances_settled_total",
		Help:      "Total number of bulk balance settlement operations applied.",
	},
)

// ── Fan-out metrics ───────────────────────────────────────────────────────────

// EventsDispatchedTotal counts events handed to the fan-out dispatcher.
// Label:
//   - event: wire event name ("newOrder", "orderUpdate", "balancePaid")
var EventsDispatchedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dispatched_total",
		Help:      "Total number of events dispatched for fan-out, by event type.",
	},
	[]string{"event"},
)

// DeliveriesDroppedTotal counts per-recipient deliveries that were dropped
// (closed socket, full send buffer). Drops are expected under normal tab
// reload churn.
var DeliveriesDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deliveries_dropped_total",
		Help:      "Total number of per-recipient event deliveries dropped.",
	},
)

// ConnectionsActive tracks currently connected websocket clients.
// Label:
//   - role: "owner", "customer", or "undeclared"
var ConnectionsActive = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connections_active",
		Help:      "Current number of live websocket connections, by declared role.",
	},
	[]string{"role"},
)
