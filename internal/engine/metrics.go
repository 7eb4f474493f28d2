package engine

import (
	"strconv"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/elys-network/curveamm/internal/fixedpoint"
	"github.com/elys-network/curveamm/internal/types"
)

// Metrics holds the Prometheus collectors of the liquidity engine
type Metrics struct {
	OperationsTotal  *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec
	GuardWait        prometheus.Histogram
	ExchangeVolume   *prometheus.CounterVec
	ExchangeFees     *prometheus.CounterVec
	LPMinted         *prometheus.CounterVec
	LPBurned         *prometheus.CounterVec
	Compensations    *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// GetMetrics creates and registers the engine metrics (singleton pattern)
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			OperationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "curveamm",
					Subsystem: "engine",
					Name:      "operations_total",
					Help:      "State-changing operations by kind and status",
				},
				[]string{"kind", "status"},
			),
			OperationLatency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "curveamm",
					Subsystem: "engine",
					Name:      "operation_latency_seconds",
					Help:      "Operation latency in seconds, guard wait included",
					Buckets:   prometheus.DefBuckets,
				},
				[]string{"kind"},
			),
			GuardWait: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "curveamm",
					Subsystem: "engine",
					Name:      "guard_wait_seconds",
					Help:      "Time spent waiting for the program-wide guard",
					Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5},
				},
			),
			ExchangeVolume: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "curveamm",
					Subsystem: "engine",
					Name:      "exchange_volume_total",
					Help:      "Exchanged input amount per pool and asset index",
				},
				[]string{"pool_id", "asset"},
			),
			ExchangeFees: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "curveamm",
					Subsystem: "engine",
					Name:      "exchange_fees_total",
					Help:      "Exchange fees charged per pool and output asset index",
				},
				[]string{"pool_id", "asset"},
			),
			LPMinted: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "curveamm",
					Subsystem: "engine",
					Name:      "lp_minted_total",
					Help:      "LP tokens minted per pool",
				},
				[]string{"pool_id"},
			),
			LPBurned: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "curveamm",
					Subsystem: "engine",
					Name:      "lp_burned_total",
					Help:      "LP tokens burned per pool",
				},
				[]string{"pool_id"},
			),
			Compensations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "curveamm",
					Subsystem: "engine",
					Name:      "compensations_total",
					Help:      "Journal unwinds after a failed collaborator mutation",
				},
				[]string{"kind", "status"},
			),
		}
	})
	return metrics
}

func poolLabel(id types.PoolID) string {
	return strconv.FormatUint(uint64(id), 10)
}

// addDec adds d to c, skipping values that do not fit a float64.
func addDec(c prometheus.Counter, d sdkmath.LegacyDec) {
	f, err := fixedpoint.ToFloat64(d)
	if err != nil || f < 0 {
		return
	}
	c.Add(f)
}
