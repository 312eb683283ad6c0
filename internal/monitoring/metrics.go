package monitoring

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const maxResponseSamples = 1000

// Metrics holds application metrics
type Metrics struct {
	RequestCount      int64
	ErrorCount        int64
	CacheHits         int64
	CacheMisses       int64
	Runs              int64
	DegradedRuns      int64
	RateLimitIPBlocks int64
	StartTime         time.Time

	responseTimes []time.Duration
	responseMu    sync.RWMutex

	requestCountByStatus map[int]int64
	riskLevelCounts      map[string]int64
	countsMu             sync.RWMutex
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:            time.Now(),
		responseTimes:        make([]time.Duration, 0, maxResponseSamples),
		requestCountByStatus: make(map[int]int64),
		riskLevelCounts:      make(map[string]int64),
	}
}

// IncrementRequest increments the request count
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementCacheHit increments cache hit count
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

// IncrementCacheMiss increments cache miss count
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

// IncrementRateLimitIPBlock counts a request rejected by the per-IP limiter
func (m *Metrics) IncrementRateLimitIPBlock() {
	atomic.AddInt64(&m.RateLimitIPBlocks, 1)
}

// RecordRun counts a completed scoring run and the levels it produced
func (m *Metrics) RecordRun(degraded bool, levels map[string]int) {
	atomic.AddInt64(&m.Runs, 1)
	if degraded {
		atomic.AddInt64(&m.DegradedRuns, 1)
	}

	m.countsMu.Lock()
	defer m.countsMu.Unlock()
	for level, n := range levels {
		m.riskLevelCounts[level] += int64(n)
	}
}

// RecordResponseTime keeps the most recent samples for percentiles
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	m.responseMu.Lock()
	defer m.responseMu.Unlock()
	m.responseTimes = append(m.responseTimes, duration)
	if len(m.responseTimes) > maxResponseSamples {
		m.responseTimes = m.responseTimes[1:]
	}
}

// RecordRequestByStatus records request count by HTTP status code
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.countsMu.Lock()
	defer m.countsMu.Unlock()
	m.requestCountByStatus[statusCode]++
}

// GetPercentileResponseTime calculates percentile response time
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.responseMu.RLock()
	times := make([]time.Duration, len(m.responseTimes))
	copy(times, m.responseTimes)
	m.responseMu.RUnlock()

	if len(times) == 0 {
		return 0
	}

	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}
	return times[index]
}

// GetStatusCodeDistribution returns request count by status code
func (m *Metrics) GetStatusCodeDistribution() map[int]int64 {
	m.countsMu.RLock()
	defer m.countsMu.RUnlock()

	distribution := make(map[int]int64, len(m.requestCountByStatus))
	for code, count := range m.requestCountByStatus {
		distribution[code] = count
	}
	return distribution
}

// GetRiskLevelCounts returns how many sprints were labeled at each level
func (m *Metrics) GetRiskLevelCounts() map[string]int64 {
	m.countsMu.RLock()
	defer m.countsMu.RUnlock()

	counts := make(map[string]int64, len(m.riskLevelCounts))
	for level, n := range m.riskLevelCounts {
		counts[level] = n
	}
	return counts
}

// GetStats returns current metrics statistics
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)
	cacheHits := atomic.LoadInt64(&m.CacheHits)
	cacheMisses := atomic.LoadInt64(&m.CacheMisses)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}

	cacheHitRate := float64(0)
	if total := cacheHits + cacheMisses; total > 0 {
		cacheHitRate = float64(cacheHits) / float64(total) * 100
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]interface{}{
		"uptime_seconds":         time.Since(m.StartTime).Seconds(),
		"start_time":             m.StartTime.Format(time.RFC3339),
		"total_requests":         requests,
		"error_count":            errors,
		"error_rate_percent":     errorRate,
		"cache_hits":             cacheHits,
		"cache_misses":           cacheMisses,
		"cache_hit_rate_percent": cacheHitRate,
		"runs":                   atomic.LoadInt64(&m.Runs),
		"degraded_runs":          atomic.LoadInt64(&m.DegradedRuns),
		"risk_levels":            m.GetRiskLevelCounts(),
		"rate_limit_ip_blocks":   atomic.LoadInt64(&m.RateLimitIPBlocks),

		"p50_response_time_ms":     float64(m.GetPercentileResponseTime(50)) / 1e6,
		"p95_response_time_ms":     float64(m.GetPercentileResponseTime(95)) / 1e6,
		"p99_response_time_ms":     float64(m.GetPercentileResponseTime(99)) / 1e6,
		"status_code_distribution": m.GetStatusCodeDistribution(),

		"go_goroutines":       runtime.NumGoroutine(),
		"go_gc_count":         mem.NumGC,
		"go_heap_alloc_bytes": mem.HeapAlloc,
	}
}

// Ensure Metrics implements cache.Metrics interface
var _ interface {
	IncrementCacheHit()
	IncrementCacheMiss()
} = (*Metrics)(nil)

// Reset resets all metrics (useful for testing)
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.RequestCount, 0)
	atomic.StoreInt64(&m.ErrorCount, 0)
	atomic.StoreInt64(&m.CacheHits, 0)
	atomic.StoreInt64(&m.CacheMisses, 0)
	atomic.StoreInt64(&m.Runs, 0)
	atomic.StoreInt64(&m.DegradedRuns, 0)
	atomic.StoreInt64(&m.RateLimitIPBlocks, 0)

	m.responseMu.Lock()
	m.responseTimes = m.responseTimes[:0]
	m.responseMu.Unlock()

	m.countsMu.Lock()
	m.requestCountByStatus = make(map[int]int64)
	m.riskLevelCounts = make(map[string]int64)
	m.countsMu.Unlock()

	m.StartTime = time.Now()
}
