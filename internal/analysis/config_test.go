package analysis

import (
	"math"
	"testing"

	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, MethodWeighted, cfg.Ambiguity.Method)
	assert.Contains(t, cfg.Ambiguity.VagueTerms, "user-friendly")
	assert.Equal(t, RuleComposite, cfg.Risk.Rule)
	assert.Equal(t, 0.6, cfg.Risk.AmbiguityWeight)
	assert.Equal(t, 0.4, cfg.Risk.OverloadWeight)
	assert.Equal(t, 0.7, cfg.Risk.HighThreshold)
	assert.Equal(t, 0.4, cfg.Risk.MediumThreshold)
	assert.Equal(t, []string{"done"}, cfg.Overload.DoneStatuses)
	assert.Equal(t, 4, cfg.Precision)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		problem string
	}{
		{
			name:    "unknown method",
			mutate:  func(c *Config) { c.Ambiguity.Method = "magic" },
			problem: "unknown ambiguity method",
		},
		{
			name:    "empty vocabulary",
			mutate:  func(c *Config) { c.Ambiguity.VagueTerms = []string{" "} },
			problem: "vague_terms must not be empty",
		},
		{
			name:    "multi word term",
			mutate:  func(c *Config) { c.Ambiguity.VagueTerms = []string{"state of the art"} },
			problem: "must be a single word",
		},
		{
			name:    "blank delimiter",
			mutate:  func(c *Config) { c.Ambiguity.SentenceDelimiter = "" },
			problem: "sentence_delimiter",
		},
		{
			name:    "negative weight",
			mutate:  func(c *Config) { c.Overload.Weights.HoursRatio = -1 },
			problem: "overload.weights.hours_ratio",
		},
		{
			name:    "zero cap",
			mutate:  func(c *Config) { c.Overload.TasksPerDevCap = 0 },
			problem: "tasks_per_dev_cap",
		},
		{
			name:    "inverted thresholds",
			mutate:  func(c *Config) { c.Risk.MediumThreshold = 0.9 },
			problem: "medium_threshold must be below",
		},
		{
			name: "inverted per metric thresholds",
			mutate: func(c *Config) {
				c.Risk.Rule = RulePerMetric
				c.Risk.PerMetric.OverloadMedium = 0.8
			},
			problem: "overload_medium must be below",
		},
		{
			name:    "unknown rule",
			mutate:  func(c *Config) { c.Risk.Rule = "vibes" },
			problem: "unknown risk rule",
		},
		{
			name:    "unknown column field",
			mutate:  func(c *Config) { c.Columns = map[types.Field]string{"velocity": "v"} },
			problem: "unknown field",
		},
		{
			name:    "NaN weight",
			mutate:  func(c *Config) { c.Ambiguity.Weights.VagueRatio = math.NaN() },
			problem: "ambiguity.weights.vague_ratio must be a finite number",
		},
		{
			name:    "infinite cap",
			mutate:  func(c *Config) { c.Overload.TasksPerDevCap = math.Inf(1) },
			problem: "overload.tasks_per_dev_cap must be a finite number",
		},
		{
			name:    "NaN threshold",
			mutate:  func(c *Config) { c.Risk.HighThreshold = math.NaN() },
			problem: "risk.high_threshold must be a finite number",
		},
		{
			name:    "NaN per metric threshold",
			mutate:  func(c *Config) { c.Risk.PerMetric.OverloadHigh = math.NaN() },
			problem: "risk.per_metric.overload_high must be a finite number",
		},
		{
			name:    "precision out of range",
			mutate:  func(c *Config) { c.Precision = 20 },
			problem: "precision",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, apperrors.CategoryConfiguration, apperrors.CategoryOf(err))
			assert.Contains(t, err.Error(), tt.problem)
		})
	}
}

func TestConfig_ValidateAcceptsPerMetricRule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Risk.Rule = RulePerMetric
	cfg.Columns = map[types.Field]string{types.FieldSprint: "Iteration Path"}
	assert.NoError(t, cfg.Validate())
}
