package analysis

import "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/types"

// RequirementMetrics are the raw and normalized signals of one requirement.
type RequirementMetrics struct {
	WordCount          int     `json:"word_count"`
	SentenceCount      int     `json:"sentence_count"`
	VagueCount         int     `json:"vague_count"`
	VagueSentences     int     `json:"vague_sentences"`
	VagueRatio         float64 `json:"vague_ratio"`
	AvgSentenceLength  float64 `json:"avg_sentence_length"`
	SentenceLengthNorm float64 `json:"sentence_length_norm"`
	PassiveCount       int     `json:"passive_count"`
	PassiveRatio       float64 `json:"passive_voice_score"`
	MissingCriteria    bool    `json:"missing_criteria"`
}

type RequirementScore struct {
	Index      int                `json:"index"`
	Text       string             `json:"requirement"`
	Metrics    RequirementMetrics `json:"metrics"`
	VagueTerms []string           `json:"vague_terms,omitempty"`
	Score      float64            `json:"ambiguity_score"`
}

type AmbiguityResult struct {
	Method         AmbiguityMethod    `json:"method"`
	Requirements   []RequirementScore `json:"requirements"`
	SentenceCount  int                `json:"sentence_count"`
	VagueSentences int                `json:"vague_sentences"`
	Score          float64            `json:"ambiguity_score"`
}

// OverloadMode records which overload algorithm produced a result.
type OverloadMode string

const (
	OverloadModeFull      OverloadMode = "full"
	OverloadModeTaskCount OverloadMode = "task_count"
)

// OverloadMetrics are the per-sprint aggregates. Fields that the active mode
// does not compute stay zero.
type OverloadMetrics struct {
	Sprint         string  `json:"sprint"`
	TaskCount      int     `json:"task_count"`
	OpenTasks      int     `json:"open_tasks"`
	CarryOverRate  float64 `json:"carry_over_rate"`
	MaxTasksPerDev int     `json:"max_tasks_per_dev"`
	EstimatedHours float64 `json:"estimated_hours"`
	ActualHours    float64 `json:"actual_hours"`
	HoursRatio     float64 `json:"hours_ratio"`
	Load           float64 `json:"load"`
	Score          float64 `json:"overload_score"`
}

type OverloadResult struct {
	Mode    OverloadMode      `json:"mode"`
	Missing []types.Field     `json:"missing_columns,omitempty"`
	Sprints []OverloadMetrics `json:"sprints"`
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// IsValid returns true if the risk level is a known value.
func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// Recommendation is the follow-up action shown next to a level.
func (l RiskLevel) Recommendation() string {
	switch l {
	case RiskHigh:
		return "Immediate Action Required"
	case RiskMedium:
		return "Review Soon"
	case RiskLow:
		return "Monitor"
	}
	return ""
}

// RiskRow is one line of the combined output.
type RiskRow struct {
	Sprint         string    `json:"sprint"`
	AmbiguityScore float64   `json:"ambiguity_score"`
	OverloadScore  float64   `json:"overload_score"`
	CompositeScore float64   `json:"composite_score"`
	RiskLevel      RiskLevel `json:"risk_level"`
	Recommendation string    `json:"recommendation"`
}

const WarningComputationDegraded = "computation_degraded"

// Warning is a non-fatal condition the caller may want to display.
type Warning struct {
	Code           string        `json:"code"`
	Message        string        `json:"message"`
	MissingColumns []types.Field `json:"missing_columns,omitempty"`
}

// Report is the full outcome of one pipeline run.
type Report struct {
	Ambiguity AmbiguityResult `json:"ambiguity"`
	Overload  OverloadResult  `json:"overload"`
	Rows      []RiskRow       `json:"rows"`
	Warnings  []Warning       `json:"warnings,omitempty"`
}

// Degraded reports whether the overload analysis fell back to task counts.
func (r *Report) Degraded() bool {
	return r.Overload.Mode == OverloadModeTaskCount
}

// LevelCounts tallies rows per risk level.
func (r *Report) LevelCounts() map[RiskLevel]int {
	counts := map[RiskLevel]int{RiskLow: 0, RiskMedium: 0, RiskHigh: 0}
	for _, row := range r.Rows {
		counts[row.RiskLevel]++
	}
	return counts
}
