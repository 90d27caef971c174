package broker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики вызовов Broker Gateway
// ============================================================

// RequestDuration - длительность HTTP вызовов gateway
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "tradeboard",
		Subsystem: "broker",
		Name:      "request_duration_ms",
		Help:      "Broker gateway request duration in milliseconds",
		Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	},
	[]string{"platform", "endpoint"},
)

// RequestsTotal - счётчик вызовов gateway по результату
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradeboard",
		Subsystem: "broker",
		Name:      "requests_total",
		Help:      "Total broker gateway requests by outcome",
	},
	[]string{"platform", "endpoint", "outcome"}, // outcome: ok, error, unreachable
)

// OrderVerificationsTotal - результаты verification read-back после размещения
var OrderVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradeboard",
		Subsystem: "broker",
		Name:      "order_verifications_total",
		Help:      "Order read-back verification results",
	},
	[]string{"platform", "result"}, // result: verified, not_found, error
)

// SimulatedFallbacksTotal - срабатывания политики simulate-on-failure
var SimulatedFallbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradeboard",
		Subsystem: "broker",
		Name:      "simulated_fallbacks_total",
		Help:      "Times an unreachable gateway was masked by a simulated result",
	},
	[]string{"operation"}, // operation: test_connection, sync
)

// AccountSyncsTotal - синхронизации аккаунтов по результату
var AccountSyncsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradeboard",
		Subsystem: "sync",
		Name:      "account_syncs_total",
		Help:      "Account synchronizations by result",
	},
	[]string{"result"}, // result: ok, simulated, failed
)
