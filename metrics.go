package vecexport

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting conversion metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordConvert is called after each conversion. vectors and bytes are
	// zero when err is non-nil.
	RecordConvert(vectors int, bytes int64, duration time.Duration, err error)

	// RecordBatch is called after RunBatch with the number of jobs
	// attempted and failed.
	RecordBatch(count, failed int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordConvert(int, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordBatch(int, int, time.Duration)            {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	ConvertCount      atomic.Int64
	ConvertErrors     atomic.Int64
	ConvertTotalNanos atomic.Int64
	VectorsWritten    atomic.Int64
	BytesWritten      atomic.Int64
	BatchCount        atomic.Int64
	BatchJobs         atomic.Int64
	BatchJobsFailed   atomic.Int64
}

// RecordConvert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordConvert(vectors int, bytes int64, duration time.Duration, err error) {
	b.ConvertCount.Add(1)
	b.ConvertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ConvertErrors.Add(1)
		return
	}
	b.VectorsWritten.Add(int64(vectors))
	b.BytesWritten.Add(bytes)
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(count, failed int, _ time.Duration) {
	b.BatchCount.Add(1)
	b.BatchJobs.Add(int64(count))
	b.BatchJobsFailed.Add(int64(failed))
}

// GetStats returns a snapshot of the collected metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		ConvertCount:    b.ConvertCount.Load(),
		ConvertErrors:   b.ConvertErrors.Load(),
		VectorsWritten:  b.VectorsWritten.Load(),
		BytesWritten:    b.BytesWritten.Load(),
		BatchCount:      b.BatchCount.Load(),
		BatchJobs:       b.BatchJobs.Load(),
		BatchJobsFailed: b.BatchJobsFailed.Load(),
	}
	if s.ConvertCount > 0 {
		s.AvgConvertNanos = b.ConvertTotalNanos.Load() / s.ConvertCount
	}
	return s
}

// BasicMetricsStats is a point-in-time copy of BasicMetricsCollector.
type BasicMetricsStats struct {
	ConvertCount    int64
	ConvertErrors   int64
	AvgConvertNanos int64
	VectorsWritten  int64
	BytesWritten    int64
	BatchCount      int64
	BatchJobs       int64
	BatchJobsFailed int64
}
