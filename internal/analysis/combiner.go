package analysis

// RiskCombiner merges the two analyzer outputs into labeled sprint rows
type RiskCombiner struct {
	cfg RiskConfig
}

func NewRiskCombiner(cfg RiskConfig) *RiskCombiner {
	return &RiskCombiner{cfg: cfg}
}

// Classify returns the composite score and the risk level for one sprint.
// Under RulePerMetric the composite is still reported but does not decide
// the level.
func (c *RiskCombiner) Classify(ambiguity, overload float64) (float64, RiskLevel) {
	composite := compositeScore(ambiguity, overload, c.cfg)

	if c.cfg.Rule == RulePerMetric {
		t := c.cfg.PerMetric
		switch {
		case ambiguity > t.AmbiguityHigh || overload > t.OverloadHigh:
			return composite, RiskHigh
		case ambiguity > t.AmbiguityMedium || overload > t.OverloadMedium:
			return composite, RiskMedium
		default:
			return composite, RiskLow
		}
	}

	switch {
	case composite > c.cfg.HighThreshold:
		return composite, RiskHigh
	case composite > c.cfg.MediumThreshold:
		return composite, RiskMedium
	default:
		return composite, RiskLow
	}
}

// Combine broadcasts the document ambiguity score to every sprint and labels
// each one. Rows follow the order of sprints; the input is not modified.
func (c *RiskCombiner) Combine(ambiguity float64, sprints []OverloadMetrics) []RiskRow {
	rows := make([]RiskRow, 0, len(sprints))
	for _, s := range sprints {
		composite, level := c.Classify(ambiguity, s.Score)
		rows = append(rows, RiskRow{
			Sprint:         s.Sprint,
			AmbiguityScore: ambiguity,
			OverloadScore:  s.Score,
			CompositeScore: composite,
			RiskLevel:      level,
			Recommendation: level.Recommendation(),
		})
	}
	return rows
}
