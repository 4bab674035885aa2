// Package metrics exposes the Prometheus counters the auth service
// maintains. Cardinality is kept deliberately low: outcomes and denial
// reasons only, never user identifiers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Logins counts login attempts by result: "success", "invalid_credentials",
	// "store_error".
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_logins_total",
		Help: "Login attempts by result.",
	}, []string{"result"})

	// GateDenials counts requests the route gate refused, by reason:
	// "unauthenticated", "invalid_token", "expired", "insufficient_role".
	GateDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_gate_denials_total",
		Help: "Requests denied by the route gate, by reason.",
	}, []string{"reason"})

	// Logouts counts logout calls by result: "success", "store_error".
	Logouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_logouts_total",
		Help: "Logout calls by result.",
	}, []string{"result"})
)
