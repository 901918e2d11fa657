package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the assistant.
type Metrics struct {
	TurnsTotal        *prometheus.CounterVec
	MemoryWrites      *prometheus.CounterVec
	TriggerMatches    *prometheus.CounterVec
	StorageErrors     *prometheus.CounterVec
	StoreSweeps       prometheus.Counter
	ResponderLatency  prometheus.Histogram
	ResponderFailures *prometheus.CounterVec
	Conflicts         *prometheus.CounterVec
	CaptureFailures   prometheus.Counter
	CoordinatorState  *prometheus.GaugeVec
	CPUPercent        prometheus.Gauge
	RAMPercent        prometheus.Gauge
	WSMessages        *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		TurnsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Completed conversation turns by outcome.",
		}, []string{"outcome"}),
		MemoryWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_writes_total",
			Help:      "Memory records written by category.",
		}, []string{"category"}),
		TriggerMatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trigger_matches_total",
			Help:      "Trigger phrase matches by trigger.",
		}, []string{"trigger"}),
		StorageErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_errors_total",
			Help:      "Memory store failures by operation.",
		}, []string{"op"}),
		StoreSweeps: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_sweeps_total",
			Help:      "Explicit expired-memory sweeps.",
		}),
		ResponderLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "responder_latency_ms",
			Help:      "Remote chat-completion latency in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 4000, 8000, 10000},
		}),
		ResponderFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responder_failures_total",
			Help:      "Remote responder failures by reason.",
		}, []string{"reason"}),
		Conflicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "concurrency_conflicts_total",
			Help:      "Dropped concurrent listen/speak requests by kind.",
		}, []string{"kind"}),
		CaptureFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_failures_total",
			Help:      "Empty or failed speech captures.",
		}),
		CoordinatorState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "coordinator_state",
			Help:      "One-hot gauge of the current coordinator state.",
		}, []string{"state"}),
		CPUPercent: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "system_cpu_percent",
			Help:      "Advisory host CPU usage percentage.",
		}),
		RAMPercent: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "system_ram_percent",
			Help:      "Advisory host RAM usage percentage.",
		}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
	}
}

func (m *Metrics) ObserveResponderLatency(d time.Duration) {
	m.ResponderLatency.Observe(float64(d.Milliseconds()))
}

// SetCoordinatorState flips the one-hot state gauge to the given state.
func (m *Metrics) SetCoordinatorState(state string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1.0
		}
		m.CoordinatorState.WithLabelValues(s).Set(v)
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
