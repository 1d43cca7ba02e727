package jobs

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gcbaptista/go-vocab-highlighter/model"
)

// PassMetricsData represents pass metrics data without mutex (safe for copying)
type PassMetricsData struct {
	PassesStarted        int64                      `json:"passes_started"`
	PassesCompleted      int64                      `json:"passes_completed"`
	PassesFailed         int64                      `json:"passes_failed"`
	PassesAborted        int64                      `json:"passes_aborted"`
	ScansDropped         int64                      `json:"scans_dropped"`
	TotalExecutionTime   time.Duration              `json:"total_execution_time_ns"`
	AverageExecutionTime time.Duration              `json:"average_execution_time_ns"`
	PassesByKind         map[model.PassKind]int64   `json:"passes_by_kind"`
	PassesByStatus       map[model.PassStatus]int64 `json:"passes_by_status"`
	LastUpdated          time.Time                  `json:"last_updated"`
}

// PassMetrics tracks scan pass counters in memory and mirrors them to prometheus.
type PassMetrics struct {
	mu                   sync.RWMutex
	passesStarted        int64
	passesCompleted      int64
	passesFailed         int64
	passesAborted        int64
	scansDropped         int64
	totalExecutionTime   time.Duration
	passesByKind         map[model.PassKind]int64
	passesByStatus       map[model.PassStatus]int64
	executionTimesByKind map[model.PassKind][]time.Duration
	lastUpdated          time.Time

	passesTotal   *prometheus.CounterVec
	droppedTotal  *prometheus.CounterVec
	passDuration  *prometheus.HistogramVec
	entriesTotal  prometheus.Counter
	passesRunning prometheus.Gauge
}

// NewPassMetrics creates a metrics collector. The prometheus collectors are
// registered on reg when it is not nil.
func NewPassMetrics(reg prometheus.Registerer) *PassMetrics {
	m := &PassMetrics{
		passesByKind:         make(map[model.PassKind]int64),
		passesByStatus:       make(map[model.PassStatus]int64),
		executionTimesByKind: make(map[model.PassKind][]time.Duration),
		lastUpdated:          time.Now(),

		passesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vocab",
			Subsystem: "scan",
			Name:      "passes_total",
			Help:      "Scan passes by kind and terminal status.",
		}, []string{"kind", "status"}),
		droppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vocab",
			Subsystem: "scan",
			Name:      "dropped_total",
			Help:      "Scan requests dropped because a pass was already running.",
		}, []string{"kind"}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vocab",
			Subsystem: "scan",
			Name:      "pass_duration_seconds",
			Help:      "Duration of completed scan passes.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"kind"}),
		entriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vocab",
			Subsystem: "scan",
			Name:      "entries_created_total",
			Help:      "Highlight entries created by scan passes.",
		}),
		passesRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vocab",
			Subsystem: "scan",
			Name:      "passes_running",
			Help:      "Scan passes currently holding the processing guard.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.passesTotal, m.droppedTotal, m.passDuration, m.entriesTotal, m.passesRunning)
	}
	return m
}

// RecordPassStarted increments the start counters
func (m *PassMetrics) RecordPassStarted(kind model.PassKind) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.passesStarted++
	m.passesByKind[kind]++
	m.passesByStatus[model.PassStatusRunning]++
	m.lastUpdated = time.Now()
	m.passesRunning.Inc()
}

// RecordPassFinished moves a pass out of running into its terminal status.
func (m *PassMetrics) RecordPassFinished(kind model.PassKind, status model.PassStatus, executionTime time.Duration, entries int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.passesByStatus[model.PassStatusRunning]--
	if m.passesByStatus[model.PassStatusRunning] < 0 {
		m.passesByStatus[model.PassStatusRunning] = 0
	}
	m.passesByStatus[status]++
	m.passesRunning.Dec()
	m.passesTotal.WithLabelValues(string(kind), string(status)).Inc()

	switch status {
	case model.PassStatusCompleted:
		m.passesCompleted++
		m.totalExecutionTime += executionTime
		m.executionTimesByKind[kind] = append(m.executionTimesByKind[kind], executionTime)
		// Keep only last 100 execution times per kind
		if len(m.executionTimesByKind[kind]) > 100 {
			m.executionTimesByKind[kind] = m.executionTimesByKind[kind][1:]
		}
		m.passDuration.WithLabelValues(string(kind)).Observe(executionTime.Seconds())
		if entries > 0 {
			m.entriesTotal.Add(float64(entries))
		}
	case model.PassStatusFailed:
		m.passesFailed++
	case model.PassStatusAborted:
		m.passesAborted++
	}
	m.lastUpdated = time.Now()
}

// RecordScanDropped counts a scan request refused by the processing guard.
func (m *PassMetrics) RecordScanDropped(kind model.PassKind) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scansDropped++
	m.droppedTotal.WithLabelValues(string(kind)).Inc()
	m.lastUpdated = time.Now()
}

// GetMetrics returns a copy of current metrics without mutex (safe for copying)
func (m *PassMetrics) GetMetrics() PassMetricsData {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byKind := make(map[model.PassKind]int64, len(m.passesByKind))
	for k, v := range m.passesByKind {
		byKind[k] = v
	}
	byStatus := make(map[model.PassStatus]int64, len(m.passesByStatus))
	for k, v := range m.passesByStatus {
		byStatus[k] = v
	}

	var avg time.Duration
	if m.passesCompleted > 0 {
		avg = m.totalExecutionTime / time.Duration(m.passesCompleted)
	}

	return PassMetricsData{
		PassesStarted:        m.passesStarted,
		PassesCompleted:      m.passesCompleted,
		PassesFailed:         m.passesFailed,
		PassesAborted:        m.passesAborted,
		ScansDropped:         m.scansDropped,
		TotalExecutionTime:   m.totalExecutionTime,
		AverageExecutionTime: avg,
		PassesByKind:         byKind,
		PassesByStatus:       byStatus,
		LastUpdated:          m.lastUpdated,
	}
}

// GetAverageExecutionTimeByKind returns the average duration of recent completed passes of kind
func (m *PassMetrics) GetAverageExecutionTimeByKind(kind model.PassKind) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	times := m.executionTimesByKind[kind]
	if len(times) == 0 {
		return 0
	}

	var total time.Duration
	for _, t := range times {
		total += t
	}
	return total / time.Duration(len(times))
}

// GetSuccessRate returns the share of finished passes that completed (0.0 to 1.0)
func (m *PassMetrics) GetSuccessRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	finished := m.passesCompleted + m.passesFailed + m.passesAborted
	if finished == 0 {
		return 1.0
	}
	return float64(m.passesCompleted) / float64(finished)
}
