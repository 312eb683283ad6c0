package database

import (
	"time"

	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/analysis"
	"github.com/google/uuid"
)

// RunSummary is the list view of a stored scoring run
type RunSummary struct {
	ID             string    `json:"id" db:"id"`
	InputHash      string    `json:"input_hash" db:"input_hash"`
	Profile        string    `json:"profile" db:"profile"`
	OverloadMode   string    `json:"overload_mode" db:"overload_mode"`
	AmbiguityScore float64   `json:"ambiguity_score" db:"ambiguity_score"`
	SprintCount    int       `json:"sprint_count" db:"sprint_count"`
	HighCount      int       `json:"high_count" db:"high_count"`
	MediumCount    int       `json:"medium_count" db:"medium_count"`
	LowCount       int       `json:"low_count" db:"low_count"`
	Degraded       bool      `json:"degraded" db:"degraded"`
	Precision      int       `json:"precision" db:"score_precision"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Run is a stored scoring run with its full report
type Run struct {
	RunSummary
	Report *analysis.Report `json:"report"`
}

// NewRun creates a run record with a generated ID for report. precision is
// the number of decimals the run's profile writes to CSV.
func NewRun(report *analysis.Report, inputHash, profile string, precision int) *Run {
	levels := report.LevelCounts()
	return &Run{
		RunSummary: RunSummary{
			ID:             uuid.New().String(),
			InputHash:      inputHash,
			Profile:        profile,
			OverloadMode:   string(report.Overload.Mode),
			AmbiguityScore: report.Ambiguity.Score,
			SprintCount:    len(report.Rows),
			HighCount:      levels[analysis.RiskHigh],
			MediumCount:    levels[analysis.RiskMedium],
			LowCount:       levels[analysis.RiskLow],
			Degraded:       report.Degraded(),
			Precision:      precision,
			CreatedAt:      time.Now().UTC(),
		},
		Report: report,
	}
}

// IsValidRunID reports whether id has the shape of a generated run ID
func IsValidRunID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
