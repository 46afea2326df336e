package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeNoop    = "noop"
	OutcomeFailure = "failure"
)

// ControllerMetrics collects the metrics of the yield controller operations.
type ControllerMetrics struct {
	operations     *prometheus.CounterVec
	durations      *prometheus.HistogramVec
	receipt        prometheus.Gauge
	lastCompounded prometheus.Gauge
}

// NewControllerMetrics returns the controller metrics, registered with reg
// unless it's nil.
func NewControllerMetrics(reg prometheus.Registerer) (*ControllerMetrics, error) {
	m := &ControllerMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yield",
			Subsystem: "controller",
			Name:      "operations_total",
			Help:      "Number of controller operations by type and outcome.",
		}, []string{"type", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "yield",
			Subsystem: "controller",
			Name:      "operation_duration_seconds",
			Help:      "Duration of controller operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
		receipt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "yield",
			Subsystem: "controller",
			Name:      "receipt_balance",
			Help:      "Receipt balance held by the controller, in whole units.",
		}),
		lastCompounded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "yield",
			Subsystem: "controller",
			Name:      "last_compounded",
			Help:      "Underlying compounded by the last harvest, in whole units.",
		}),
	}
	if reg == nil {
		return m, nil
	}

	for _, c := range []prometheus.Collector{
		m.operations, m.durations, m.receipt, m.lastCompounded,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveOperation counts an operation and records how long it took.
func (m *ControllerMetrics) ObserveOperation(
	opType, outcome string, start time.Time,
) {
	m.operations.WithLabelValues(opType, outcome).Inc()
	m.durations.WithLabelValues(opType).Observe(time.Since(start).Seconds())
}

func (m *ControllerMetrics) SetReceiptBalance(v float64) {
	m.receipt.Set(v)
}

func (m *ControllerMetrics) SetLastCompounded(v float64) {
	m.lastCompounded.Set(v)
}
