package pipeline

import (
	"sync"
	"time"
)

// Snapshot is a read-only copy of the monitor's counters and averages.
type Snapshot struct {
	TotalQueries        int64   `json:"total_queries"`
	ClassificationCalls int64   `json:"classification_calls"`
	GenerationCalls     int64   `json:"generation_calls"`
	DirectQueries       int64   `json:"direct_queries"`
	AugmentedQueries    int64   `json:"augmented_queries"`
	Errors              int64   `json:"errors"`

	AverageClassificationTimeMs float64 `json:"average_classification_time_ms"`
	AverageResponseTimeMs       float64 `json:"average_response_time_ms"`
	TotalProcessingTimeMs       float64 `json:"total_processing_time_ms"`
}

// Monitor collects process-wide counters and rolling averages describing
// the pipeline's behavior. Counters are monotonically non-decreasing;
// averages are maintained with an incremental mean.
type Monitor struct {
	mu sync.RWMutex

	totalQueries        int64
	classificationCalls int64
	generationCalls     int64
	directQueries       int64
	augmentedQueries    int64
	errors              int64

	avgClassificationMs float64
	avgResponseMs       float64
	totalProcessingMs   float64
}

// NewMonitor creates a performance monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// RecordQuery counts an incoming query.
func (m *Monitor) RecordQuery() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalQueries++
}

// RecordClassification counts a classification call and folds its
// duration into the running average.
func (m *Monitor) RecordClassification(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.classificationCalls++
	m.avgClassificationMs += (float64(elapsed.Milliseconds()) - m.avgClassificationMs) / float64(m.classificationCalls)
}

// RecordGeneration counts one generation call.
func (m *Monitor) RecordGeneration() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generationCalls++
}

// RecordDirect counts a query answered straight from the database.
func (m *Monitor) RecordDirect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.directQueries++
}

// RecordAugmented counts a query answered with a generation call.
func (m *Monitor) RecordAugmented() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.augmentedQueries++
}

// RecordError counts a query that fell through to the legacy handler.
func (m *Monitor) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errors++
}

// RecordResponseTime folds a completed query's total elapsed time into
// the running average and the total.
func (m *Monitor) RecordResponseTime(elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ms := float64(elapsed.Microseconds()) / 1000.0
	m.totalProcessingMs += ms
	if m.totalQueries > 0 {
		m.avgResponseMs += (ms - m.avgResponseMs) / float64(m.totalQueries)
	}
}

// GetSnapshot returns a copy of the current metrics.
func (m *Monitor) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Snapshot{
		TotalQueries:                m.totalQueries,
		ClassificationCalls:         m.classificationCalls,
		GenerationCalls:             m.generationCalls,
		DirectQueries:               m.directQueries,
		AugmentedQueries:            m.augmentedQueries,
		Errors:                      m.errors,
		AverageClassificationTimeMs: m.avgClassificationMs,
		AverageResponseTimeMs:       m.avgResponseMs,
		TotalProcessingTimeMs:       m.totalProcessingMs,
	}
}

// Reset zeroes all metrics.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalQueries = 0
	m.classificationCalls = 0
	m.generationCalls = 0
	m.directQueries = 0
	m.augmentedQueries = 0
	m.errors = 0
	m.avgClassificationMs = 0
	m.avgResponseMs = 0
	m.totalProcessingMs = 0
}
