package service

import (
	"sync"
	"time"

	"assessment-backend/models"
)

// MetricsCollector tracks evaluation counts and timings
type MetricsCollector struct {
	mu        sync.RWMutex
	processed int64
	failed    int64
	rejected  int64
	inFlight  int64
	totalTime time.Duration
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// RecordEvaluationStart marks the start of an evaluation
func (mc *MetricsCollector) RecordEvaluationStart() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.inFlight++
}

// RecordEvaluationEnd marks the end of an evaluation. Only successful
// evaluations count towards the average duration.
func (mc *MetricsCollector) RecordEvaluationEnd(duration time.Duration, err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.inFlight > 0 {
		mc.inFlight--
	}
	if err != nil {
		mc.failed++
		return
	}
	mc.processed++
	mc.totalTime += duration
}

// RecordRejected counts a request turned away because the queue was full.
func (mc *MetricsCollector) RecordRejected() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.rejected++
}

// GetStats returns a snapshot of the counters.
func (mc *MetricsCollector) GetStats() models.ProcessingStats {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	stats := models.ProcessingStats{
		Processed: mc.processed,
		Failed:    mc.failed,
		Rejected:  mc.rejected,
		InFlight:  mc.inFlight,
	}
	if mc.processed > 0 {
		stats.AverageMillis = float64(mc.totalTime.Microseconds()) / float64(mc.processed) / 1000
	}
	return stats
}

// Reset clears all metrics
func (mc *MetricsCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.processed = 0
	mc.failed = 0
	mc.rejected = 0
	mc.inFlight = 0
	mc.totalTime = 0
}
