package observability

import (
	"math/big"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records engine operation activity for Prometheus scraping.
type EngineMetrics struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	liquidated prometheus.Counter
	seized     *prometheus.CounterVec
}

var (
	engineMetricsOnce sync.Once
	engineRegistry    *EngineMetrics
)

// Engine returns the lazily-initialised engine metrics registry.
func Engine() *EngineMetrics {
	engineMetricsOnce.Do(func() {
		engineRegistry = &EngineMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stablecore",
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Engine operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "stablecore",
				Subsystem: "engine",
				Name:      "operation_duration_seconds",
				Help:      "Latency distribution of engine operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
			liquidated: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "stablecore",
				Subsystem: "engine",
				Name:      "liquidations_total",
				Help:      "Successfully executed liquidations.",
			}),
			seized: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stablecore",
				Subsystem: "engine",
				Name:      "collateral_seized_total",
				Help:      "Collateral seized by liquidators, in whole asset units.",
			}, []string{"asset"}),
		}
		prometheus.MustRegister(
			engineRegistry.operations,
			engineRegistry.latency,
			engineRegistry.liquidated,
			engineRegistry.seized,
		)
	})
	return engineRegistry
}

// ObserveOperation records one engine call with its duration and outcome.
func (m *EngineMetrics) ObserveOperation(operation string, err error, took time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(took.Seconds())
}

// RecordLiquidation tracks a completed liquidation and the collateral moved.
func (m *EngineMetrics) RecordLiquidation(asset string, seized *big.Int) {
	if m == nil {
		return
	}
	m.liquidated.Inc()
	if seized == nil {
		return
	}
	whole, _ := new(big.Float).Quo(
		new(big.Float).SetInt(seized),
		new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)),
	).Float64()
	m.seized.WithLabelValues(asset).Add(whole)
}
