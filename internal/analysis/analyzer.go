package analysis

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/types"
)

// Analyzer orchestrates the full analysis pipeline
type Analyzer struct {
	cfg       Config
	ambiguity *AmbiguityAnalyzer
	overload  *OverloadAnalyzer
	combiner  *RiskCombiner
}

// NewAnalyzer validates cfg and creates an analyzer with all components
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{
		cfg:       cfg,
		ambiguity: NewAmbiguityAnalyzer(cfg.Ambiguity),
		overload:  NewOverloadAnalyzer(cfg.Overload),
		combiner:  NewRiskCombiner(cfg.Risk),
	}, nil
}

// Config returns the configuration the analyzer was built with.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Analyze scores the requirements text and the sprint table and combines them
// into one risk row per sprint. The same inputs always produce the same report.
func (a *Analyzer) Analyze(requirements string, table types.SprintTable) (*Report, error) {
	overload, err := a.overload.Analyze(table)
	if err != nil {
		return nil, err
	}

	ambiguity := a.ambiguity.Analyze(requirements)

	report := &Report{
		Ambiguity: ambiguity,
		Overload:  overload,
		Rows:      a.combiner.Combine(ambiguity.Score, overload.Sprints),
	}

	if overload.Mode == OverloadModeTaskCount {
		report.Warnings = append(report.Warnings, degradedWarning(overload.Missing))
	}

	return report, nil
}

// Analyze runs the pipeline with DefaultConfig.
func Analyze(requirements string, table types.SprintTable) (*Report, error) {
	analyzer, err := NewAnalyzer(DefaultConfig())
	if err != nil {
		return nil, err
	}
	return analyzer.Analyze(requirements, table)
}

func degradedWarning(missing []types.Field) Warning {
	names := make([]string, len(missing))
	for i, f := range missing {
		names[i] = string(f)
	}
	return Warning{
		Code: WarningComputationDegraded,
		Message: fmt.Sprintf("overload scored from task counts only; missing columns: %s",
			strings.Join(names, ", ")),
		MissingColumns: missing,
	}
}
