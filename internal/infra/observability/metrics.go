package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the pattern engine.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	runDuration    *prometheus.HistogramVec
	runsTotal      *prometheus.CounterVec
	groupsDetected prometheus.Counter
	pairsDetected  prometheus.Counter
	flagsUpdated   *prometheus.CounterVec
	storeErrors    *prometheus.CounterVec
}

// DetectionSnapshot is a JSON view of the cumulative detection counters,
// served by GET /v1/metrics/detections.
type DetectionSnapshot struct {
	TotalRuns      int64   `json:"total_runs"`
	FailedRuns     int64   `json:"failed_runs"`
	ErrorRate      float64 `json:"error_rate"`
	GroupsDetected int64   `json:"groups_detected"`
	PairsDetected  int64   `json:"pairs_detected"`
	RecurringFlags int64   `json:"recurring_flags_updated"`
	TransferFlags  int64   `json:"transfer_flags_updated"`
	Period         string  `json:"period"`
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pattern_run_duration_seconds",
				Help:    "Duration of detection runs by detector.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"detector"},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pattern_runs_total",
				Help: "Total per-user detection runs processed.",
			},
			[]string{"status"},
		),
		groupsDetected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pattern_recurring_groups_total",
				Help: "Total recurring groups detected.",
			},
		),
		pairsDetected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pattern_transfer_pairs_total",
				Help: "Total transfer pairs detected.",
			},
		),
		flagsUpdated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pattern_flags_updated_total",
				Help: "Total transaction flags written back.",
			},
			[]string{"flag"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pattern_store_errors_total",
				Help: "Total errors from the transaction store.",
			},
			[]string{"operation"},
		),
	}
}

// RecordRunDuration records the duration of one detector pass.
func (m *Metrics) RecordRunDuration(detector string, d time.Duration) {
	m.runDuration.WithLabelValues(detector).Observe(d.Seconds())
}

// IncrRun increments the run counter with a status label.
func (m *Metrics) IncrRun(status string) {
	m.runsTotal.WithLabelValues(status).Inc()
}

// AddGroups records detected recurring groups.
func (m *Metrics) AddGroups(n int) {
	m.groupsDetected.Add(float64(n))
}

// AddPairs records detected transfer pairs.
func (m *Metrics) AddPairs(n int) {
	m.pairsDetected.Add(float64(n))
}

// AddFlagsUpdated records flag writes by flag kind ("recurring"/"transfer").
func (m *Metrics) AddFlagsUpdated(flag string, n int) {
	m.flagsUpdated.WithLabelValues(flag).Add(float64(n))
}

// IncrStoreError increments the store error counter.
func (m *Metrics) IncrStoreError(operation string) {
	m.storeErrors.WithLabelValues(operation).Inc()
}

// GetDetectionSnapshot returns a snapshot of the detection counters for
// the JSON metrics endpoint.
// Note: Prometheus counters expose cumulative values.
func (m *Metrics) GetDetectionSnapshot() *DetectionSnapshot {
	success := getCounterValue(m.runsTotal, "success")
	failed := getCounterValue(m.runsTotal, "error")
	total := success + failed

	errorRate := float64(0)
	if total > 0 {
		errorRate = failed / total
	}

	return &DetectionSnapshot{
		TotalRuns:      int64(total),
		FailedRuns:     int64(failed),
		ErrorRate:      errorRate,
		GroupsDetected: int64(readCounter(m.groupsDetected)),
		PairsDetected:  int64(readCounter(m.pairsDetected)),
		RecurringFlags: int64(getCounterValue(m.flagsUpdated, "recurring")),
		TransferFlags:  int64(getCounterValue(m.flagsUpdated, "transfer")),
		Period:         "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// readCounter extracts the current float64 value from a plain Counter.
func readCounter(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
