package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/types"
)

// AmbiguityMethod selects how requirement text is scored.
type AmbiguityMethod string

const (
	// MethodWeighted combines vague ratio, sentence length, passive voice and
	// missing acceptance criteria.
	MethodWeighted AmbiguityMethod = "weighted"
	// MethodSentenceRatio is the fraction of sentences containing a vague term.
	MethodSentenceRatio AmbiguityMethod = "sentence_ratio"
)

// ClassificationRule selects how a sprint's two scores become a risk level.
type ClassificationRule string

const (
	// RuleComposite thresholds a weighted blend of both scores.
	RuleComposite ClassificationRule = "composite"
	// RulePerMetric thresholds each score on its own.
	RulePerMetric ClassificationRule = "per_metric"
)

type AmbiguityWeights struct {
	VagueRatio      float64 `yaml:"vague_ratio" json:"vague_ratio"`
	SentenceLength  float64 `yaml:"sentence_length" json:"sentence_length"`
	PassiveVoice    float64 `yaml:"passive_voice" json:"passive_voice"`
	MissingCriteria float64 `yaml:"missing_criteria" json:"missing_criteria"`
}

type AmbiguityConfig struct {
	Method            AmbiguityMethod  `yaml:"method" json:"method"`
	VagueTerms        []string         `yaml:"vague_terms" json:"vague_terms"`
	CriteriaTerms     []string         `yaml:"criteria_terms" json:"criteria_terms"`
	SentenceDelimiter string           `yaml:"sentence_delimiter" json:"sentence_delimiter"`
	SentenceLengthCap float64          `yaml:"sentence_length_cap" json:"sentence_length_cap"`
	Weights           AmbiguityWeights `yaml:"weights" json:"weights"`
}

type OverloadWeights struct {
	CarryOver   float64 `yaml:"carry_over" json:"carry_over"`
	TasksPerDev float64 `yaml:"tasks_per_dev" json:"tasks_per_dev"`
	HoursRatio  float64 `yaml:"hours_ratio" json:"hours_ratio"`
}

type OverloadConfig struct {
	DoneStatuses   []string        `yaml:"done_statuses" json:"done_statuses"`
	TasksPerDevCap float64         `yaml:"tasks_per_dev_cap" json:"tasks_per_dev_cap"`
	Weights        OverloadWeights `yaml:"weights" json:"weights"`
}

// PerMetricThresholds are the cut-offs of RulePerMetric.
type PerMetricThresholds struct {
	AmbiguityHigh   float64 `yaml:"ambiguity_high" json:"ambiguity_high"`
	AmbiguityMedium float64 `yaml:"ambiguity_medium" json:"ambiguity_medium"`
	OverloadHigh    float64 `yaml:"overload_high" json:"overload_high"`
	OverloadMedium  float64 `yaml:"overload_medium" json:"overload_medium"`
}

type RiskConfig struct {
	Rule            ClassificationRule  `yaml:"rule" json:"rule"`
	AmbiguityWeight float64             `yaml:"ambiguity_weight" json:"ambiguity_weight"`
	OverloadWeight  float64             `yaml:"overload_weight" json:"overload_weight"`
	HighThreshold   float64             `yaml:"high_threshold" json:"high_threshold"`
	MediumThreshold float64             `yaml:"medium_threshold" json:"medium_threshold"`
	PerMetric       PerMetricThresholds `yaml:"per_metric" json:"per_metric"`
}

// Config holds every tunable of a scoring run. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	Ambiguity AmbiguityConfig `yaml:"ambiguity" json:"ambiguity"`
	Overload  OverloadConfig  `yaml:"overload" json:"overload"`
	Risk      RiskConfig      `yaml:"risk" json:"risk"`
	// Columns pins logical fields to exact CSV header names, bypassing the
	// alias lookup for those fields.
	Columns map[types.Field]string `yaml:"columns,omitempty" json:"columns,omitempty"`
	// Precision is the number of decimals written to CSV reports.
	Precision int `yaml:"precision" json:"precision"`
}

// DefaultConfig returns the documented scoring defaults.
func DefaultConfig() Config {
	return Config{
		Ambiguity: AmbiguityConfig{
			Method: MethodWeighted,
			VagueTerms: []string{
				"fast", "easy", "simple", "efficient", "user-friendly",
				"flexible", "secure", "robust",
			},
			CriteriaTerms:     []string{"shall", "must", "criteria", "acceptance"},
			SentenceDelimiter: ".",
			SentenceLengthCap: 50,
			Weights: AmbiguityWeights{
				VagueRatio:      0.4,
				SentenceLength:  0.3,
				PassiveVoice:    0.2,
				MissingCriteria: 0.1,
			},
		},
		Overload: OverloadConfig{
			DoneStatuses:   []string{"done"},
			TasksPerDevCap: 10,
			Weights: OverloadWeights{
				CarryOver:   0.4,
				TasksPerDev: 0.3,
				HoursRatio:  0.3,
			},
		},
		Risk: RiskConfig{
			Rule:            RuleComposite,
			AmbiguityWeight: 0.6,
			OverloadWeight:  0.4,
			HighThreshold:   0.7,
			MediumThreshold: 0.4,
			PerMetric: PerMetricThresholds{
				AmbiguityHigh:   0.5,
				AmbiguityMedium: 0.3,
				OverloadHigh:    0.6,
				OverloadMedium:  0.4,
			},
		},
		Precision: 4,
	}
}

// Validate rejects configurations that would make scores meaningless.
func (c Config) Validate() error {
	var problems []string
	addf := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	switch c.Ambiguity.Method {
	case MethodWeighted, MethodSentenceRatio:
	default:
		addf("unknown ambiguity method %q", c.Ambiguity.Method)
	}
	if len(nonBlank(c.Ambiguity.VagueTerms)) == 0 {
		addf("ambiguity.vague_terms must not be empty")
	}
	for _, term := range c.Ambiguity.VagueTerms {
		if strings.ContainsAny(strings.TrimSpace(term), " \t") {
			addf("ambiguity.vague_terms: %q must be a single word", term)
		}
	}
	if strings.TrimSpace(c.Ambiguity.SentenceDelimiter) == "" {
		addf("ambiguity.sentence_delimiter must not be blank")
	}
	if c.Ambiguity.SentenceLengthCap <= 0 {
		addf("ambiguity.sentence_length_cap must be positive")
	}
	aw := c.Ambiguity.Weights
	for name, w := range map[string]float64{
		"vague_ratio": aw.VagueRatio, "sentence_length": aw.SentenceLength,
		"passive_voice": aw.PassiveVoice, "missing_criteria": aw.MissingCriteria,
	} {
		if w < 0 {
			addf("ambiguity.weights.%s must not be negative", name)
		}
	}

	if len(nonBlank(c.Overload.DoneStatuses)) == 0 {
		addf("overload.done_statuses must not be empty")
	}
	if c.Overload.TasksPerDevCap <= 0 {
		addf("overload.tasks_per_dev_cap must be positive")
	}
	ow := c.Overload.Weights
	for name, w := range map[string]float64{
		"carry_over": ow.CarryOver, "tasks_per_dev": ow.TasksPerDev, "hours_ratio": ow.HoursRatio,
	} {
		if w < 0 {
			addf("overload.weights.%s must not be negative", name)
		}
	}

	r := c.Risk
	switch r.Rule {
	case RuleComposite:
		if r.AmbiguityWeight < 0 || r.OverloadWeight < 0 {
			addf("risk composite weights must not be negative")
		}
		if r.MediumThreshold >= r.HighThreshold {
			addf("risk.medium_threshold must be below risk.high_threshold")
		}
	case RulePerMetric:
		if r.PerMetric.AmbiguityMedium >= r.PerMetric.AmbiguityHigh {
			addf("risk.per_metric.ambiguity_medium must be below ambiguity_high")
		}
		if r.PerMetric.OverloadMedium >= r.PerMetric.OverloadHigh {
			addf("risk.per_metric.overload_medium must be below overload_high")
		}
	default:
		addf("unknown risk rule %q", r.Rule)
	}

	// NaN compares false against every bound checked above
	for name, x := range map[string]float64{
		"ambiguity.sentence_length_cap":      c.Ambiguity.SentenceLengthCap,
		"ambiguity.weights.vague_ratio":      aw.VagueRatio,
		"ambiguity.weights.sentence_length":  aw.SentenceLength,
		"ambiguity.weights.passive_voice":    aw.PassiveVoice,
		"ambiguity.weights.missing_criteria": aw.MissingCriteria,
		"overload.tasks_per_dev_cap":         c.Overload.TasksPerDevCap,
		"overload.weights.carry_over":        ow.CarryOver,
		"overload.weights.tasks_per_dev":     ow.TasksPerDev,
		"overload.weights.hours_ratio":       ow.HoursRatio,
		"risk.ambiguity_weight":              r.AmbiguityWeight,
		"risk.overload_weight":               r.OverloadWeight,
		"risk.high_threshold":                r.HighThreshold,
		"risk.medium_threshold":              r.MediumThreshold,
		"risk.per_metric.ambiguity_high":     r.PerMetric.AmbiguityHigh,
		"risk.per_metric.ambiguity_medium":   r.PerMetric.AmbiguityMedium,
		"risk.per_metric.overload_high":      r.PerMetric.OverloadHigh,
		"risk.per_metric.overload_medium":    r.PerMetric.OverloadMedium,
	} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			addf("%s must be a finite number", name)
		}
	}

	for field := range c.Columns {
		if !field.IsValid() {
			addf("columns: unknown field %q", field)
		}
	}
	if c.Precision < 0 || c.Precision > 12 {
		addf("precision must be between 0 and 12")
	}

	if len(problems) == 0 {
		return nil
	}
	// map iteration above is unordered
	sort.Strings(problems)
	return apperrors.NewConfigurationError(
		"invalid scoring configuration: "+strings.Join(problems, "; "), nil)
}

func nonBlank(xs []string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if strings.TrimSpace(x) != "" {
			out = append(out, x)
		}
	}
	return out
}

func termSet(terms []string) map[string]struct{} {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}
