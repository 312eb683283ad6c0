package monitoring

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupLevel(t *testing.T) {
	tests := []struct {
		name  string
		want  slog.Level
		known bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := LookupLevel(tt.name)
			assert.Equal(t, tt.want, level)
			assert.Equal(t, tt.known, ok)
			assert.Equal(t, tt.want, ParseLevel(tt.name))
		})
	}
}

func TestLogger_RunLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, slog.LevelInfo)

	logger.RunLogger("run-1", 2, "full", 0.0693, map[string]int{"Low": 2}, 15*time.Millisecond, false)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Analysis Completed", entry["msg"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "full", entry["overload_mode"])
	assert.Contains(t, entry, "timestamp")
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, slog.LevelInfo)

	logger.CacheLogger("get", "0123456789abcdef", true, 1)
	assert.Empty(t, buf.String())

	logger.SetLevel(slog.LevelDebug)
	logger.CacheLogger("get", "0123456789abcdef", true, 1)
	assert.Contains(t, buf.String(), `"key_hash":"01234567..."`)
	assert.False(t, strings.Contains(buf.String(), "89abcdef"))
}

func TestMetrics_RecordRun(t *testing.T) {
	m := NewMetrics()
	m.RecordRun(false, map[string]int{"Low": 2})
	m.RecordRun(true, map[string]int{"Medium": 1, "Low": 1})
	m.IncrementCacheHit()
	m.IncrementCacheMiss()

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats["runs"])
	assert.Equal(t, int64(1), stats["degraded_runs"])
	assert.Equal(t, map[string]int64{"Low": 3, "Medium": 1}, stats["risk_levels"])
	assert.InDelta(t, 50.0, stats["cache_hit_rate_percent"], 1e-9)

	m.Reset()
	assert.Equal(t, int64(0), m.GetStats()["runs"])
}

func TestMetrics_Percentiles(t *testing.T) {
	m := NewMetrics()
	assert.Zero(t, m.GetPercentileResponseTime(50))

	for i := 1; i <= 100; i++ {
		m.RecordResponseTime(time.Duration(i) * time.Millisecond)
	}
	assert.Equal(t, 50*time.Millisecond, m.GetPercentileResponseTime(50))
	assert.Equal(t, 100*time.Millisecond, m.GetPercentileResponseTime(100))

	m.RecordRequestByStatus(200)
	m.RecordRequestByStatus(200)
	m.RecordRequestByStatus(429)
	assert.Equal(t, map[int]int64{200: 2, 429: 1}, m.GetStatusCodeDistribution())
}
