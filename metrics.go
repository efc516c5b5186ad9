package slotmap

import (
	"errors"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    allocCounter   prometheus.Counter
//	    allocHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordAlloc(duration time.Duration, err error) {
//	    p.allocCounter.Inc()
//	    p.allocHistogram.Observe(duration.Seconds())
//	}
type MetricsCollector interface {
	// RecordAlloc is called after each alloc operation.
	// err is nil if a slot was handed out.
	RecordAlloc(duration time.Duration, err error)

	// RecordDealloc is called after each dealloc operation.
	RecordDealloc(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAlloc(time.Duration, error)   {}
func (NoopMetricsCollector) RecordDealloc(time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AllocCount        atomic.Int64
	AllocErrors       atomic.Int64
	AllocFull         atomic.Int64
	AllocTotalNanos   atomic.Int64
	DeallocCount      atomic.Int64
	DeallocErrors     atomic.Int64
	DeallocTotalNanos atomic.Int64
}

// RecordAlloc implements MetricsCollector.
// A full pool counts toward AllocFull rather than AllocErrors.
func (b *BasicMetricsCollector) RecordAlloc(duration time.Duration, err error) {
	b.AllocCount.Add(1)
	b.AllocTotalNanos.Add(duration.Nanoseconds())
	switch {
	case errors.Is(err, ErrNoAvailableSlots):
		b.AllocFull.Add(1)
	case err != nil:
		b.AllocErrors.Add(1)
	}
}

// RecordDealloc implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDealloc(duration time.Duration, err error) {
	b.DeallocCount.Add(1)
	b.DeallocTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DeallocErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AllocCount:      b.AllocCount.Load(),
		AllocErrors:     b.AllocErrors.Load(),
		AllocFull:       b.AllocFull.Load(),
		AllocAvgNanos:   avgNanos(b.AllocTotalNanos.Load(), b.AllocCount.Load()),
		DeallocCount:    b.DeallocCount.Load(),
		DeallocErrors:   b.DeallocErrors.Load(),
		DeallocAvgNanos: avgNanos(b.DeallocTotalNanos.Load(), b.DeallocCount.Load()),
	}
}

func avgNanos(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AllocCount      int64
	AllocErrors     int64
	AllocFull       int64
	AllocAvgNanos   int64
	DeallocCount    int64
	DeallocErrors   int64
	DeallocAvgNanos int64
}
