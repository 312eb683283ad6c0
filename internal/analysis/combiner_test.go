package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskCombiner_ClassifyComposite(t *testing.T) {
	c := NewRiskCombiner(DefaultConfig().Risk)

	tests := []struct {
		name      string
		ambiguity float64
		overload  float64
		composite float64
		expected  RiskLevel
	}{
		{name: "mixed scores land in medium", ambiguity: 0.8, overload: 0.2, composite: 0.56, expected: RiskMedium},
		{name: "both high", ambiguity: 0.9, overload: 0.9, composite: 0.9, expected: RiskHigh},
		{name: "both zero", ambiguity: 0, overload: 0, composite: 0, expected: RiskLow},
		{name: "exactly on medium threshold is low", ambiguity: 0, overload: 1, composite: 0.4, expected: RiskLow},
		{name: "ambiguity alone caps at medium", ambiguity: 1, overload: 0, composite: 0.6, expected: RiskMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			composite, level := c.Classify(tt.ambiguity, tt.overload)
			assert.InDelta(t, tt.composite, composite, 1e-9)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestRiskCombiner_ClassifyPerMetric(t *testing.T) {
	cfg := DefaultConfig().Risk
	cfg.Rule = RulePerMetric
	c := NewRiskCombiner(cfg)

	tests := []struct {
		name      string
		ambiguity float64
		overload  float64
		expected  RiskLevel
	}{
		{name: "ambiguity alone is high", ambiguity: 0.51, overload: 0, expected: RiskHigh},
		{name: "overload alone is high", ambiguity: 0, overload: 0.61, expected: RiskHigh},
		{name: "ambiguity medium", ambiguity: 0.31, overload: 0, expected: RiskMedium},
		{name: "overload medium", ambiguity: 0, overload: 0.41, expected: RiskMedium},
		{name: "both under", ambiguity: 0.3, overload: 0.4, expected: RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, level := c.Classify(tt.ambiguity, tt.overload)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestRiskCombiner_Combine(t *testing.T) {
	c := NewRiskCombiner(DefaultConfig().Risk)

	sprints := []OverloadMetrics{
		{Sprint: "s2", Score: 0.9},
		{Sprint: "s1", Score: 0.1},
	}

	rows := c.Combine(0.8, sprints)
	require.Len(t, rows, 2)

	assert.Equal(t, "s2", rows[0].Sprint)
	assert.Equal(t, 0.8, rows[0].AmbiguityScore)
	assert.Equal(t, 0.9, rows[0].OverloadScore)
	assert.Equal(t, RiskHigh, rows[0].RiskLevel)
	assert.Equal(t, "Immediate Action Required", rows[0].Recommendation)

	assert.Equal(t, "s1", rows[1].Sprint)
	assert.Equal(t, RiskMedium, rows[1].RiskLevel)
	assert.Equal(t, "Review Soon", rows[1].Recommendation)

	assert.Empty(t, c.Combine(0.5, nil))
}

func TestRiskLevel_Recommendation(t *testing.T) {
	tests := []struct {
		level    RiskLevel
		expected string
	}{
		{RiskHigh, "Immediate Action Required"},
		{RiskMedium, "Review Soon"},
		{RiskLow, "Monitor"},
		{RiskLevel("Unknown"), ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.Recommendation())
		})
	}
}
