package analysis

import (
	"fmt"
	"strings"

	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/types"
)

const unassigned = "unassigned"

// fullModeFields must all be present for the full overload algorithm.
var fullModeFields = []types.Field{
	types.FieldStatus,
	types.FieldAssignee,
	types.FieldEstimatedHours,
	types.FieldActualHours,
}

// SprintAggregator groups task records by sprint, preserving first appearance
type SprintAggregator struct {
	order  []string
	groups map[string][]types.TaskRecord
}

func NewSprintAggregator() *SprintAggregator {
	return &SprintAggregator{groups: make(map[string][]types.TaskRecord)}
}

func (sa *SprintAggregator) Add(rec types.TaskRecord) {
	if _, ok := sa.groups[rec.Sprint]; !ok {
		sa.order = append(sa.order, rec.Sprint)
	}
	sa.groups[rec.Sprint] = append(sa.groups[rec.Sprint], rec)
}

// Sprints returns sprint ids in order of first appearance.
func (sa *SprintAggregator) Sprints() []string {
	return sa.order
}

func (sa *SprintAggregator) Get(sprint string) []types.TaskRecord {
	return sa.groups[sprint]
}

// OverloadAnalyzer scores sprints for resource overcommitment
type OverloadAnalyzer struct {
	cfg  OverloadConfig
	done map[string]struct{}
}

// NewOverloadAnalyzer creates an analyzer with the given weights and done statuses
func NewOverloadAnalyzer(cfg OverloadConfig) *OverloadAnalyzer {
	return &OverloadAnalyzer{cfg: cfg, done: termSet(cfg.DoneStatuses)}
}

// Mode picks the algorithm the table supports, and the fields that forced a
// fallback when it is not the full one.
func (o *OverloadAnalyzer) Mode(table types.SprintTable) (OverloadMode, []types.Field) {
	missing := table.Missing(fullModeFields...)
	if len(missing) == 0 {
		return OverloadModeFull, nil
	}
	return OverloadModeTaskCount, missing
}

// Analyze returns one metrics row per distinct sprint, in order of first appearance.
func (o *OverloadAnalyzer) Analyze(table types.SprintTable) (OverloadResult, error) {
	if !table.Has(types.FieldSprint) {
		return OverloadResult{}, apperrors.NewInputMissingError("column " + string(types.FieldSprint))
	}
	if len(table.Records) == 0 {
		return OverloadResult{}, apperrors.NewInputMissingError("sprint task rows")
	}

	agg := NewSprintAggregator()
	for _, rec := range table.Records {
		if strings.TrimSpace(rec.Sprint) == "" {
			return OverloadResult{}, apperrors.NewCellError(rec.Line, string(types.FieldSprint), rec.Sprint, "sprint id is blank")
		}
		agg.Add(rec)
	}

	mode, missing := o.Mode(table)
	result := OverloadResult{Mode: mode, Missing: missing}

	switch mode {
	case OverloadModeFull:
		for _, sprint := range agg.Sprints() {
			result.Sprints = append(result.Sprints, o.fullMetrics(sprint, agg.Get(sprint)))
		}
	case OverloadModeTaskCount:
		result.Sprints = o.countMetrics(agg)
	default:
		return OverloadResult{}, apperrors.NewInternalError(fmt.Sprintf("unhandled overload mode %q", mode), nil)
	}

	return result, nil
}

func (o *OverloadAnalyzer) fullMetrics(sprint string, tasks []types.TaskRecord) OverloadMetrics {
	m := OverloadMetrics{Sprint: sprint, TaskCount: len(tasks), Load: float64(len(tasks))}

	perDev := make(map[string]int)
	for _, t := range tasks {
		if !o.isDone(t.Status) {
			m.OpenTasks++
		}
		dev := strings.TrimSpace(t.Assignee)
		if dev == "" {
			dev = unassigned
		}
		perDev[dev]++
		m.EstimatedHours += t.EstimatedHours
		m.ActualHours += t.ActualHours
	}
	for _, n := range perDev {
		if n > m.MaxTasksPerDev {
			m.MaxTasksPerDev = n
		}
	}

	m.CarryOverRate = ratio(float64(m.OpenTasks), float64(m.TaskCount))
	m.HoursRatio = ratio(m.ActualHours, m.EstimatedHours)
	m.Score = weightedOverload(m, o.cfg.Weights, o.cfg.TasksPerDevCap)
	return m
}

func (o *OverloadAnalyzer) countMetrics(agg *SprintAggregator) []OverloadMetrics {
	sprints := make([]OverloadMetrics, 0, len(agg.Sprints()))
	maxLoad := 0.0
	for _, sprint := range agg.Sprints() {
		tasks := agg.Get(sprint)
		m := OverloadMetrics{Sprint: sprint, TaskCount: len(tasks)}
		for _, t := range tasks {
			m.Load += t.Count
		}
		if m.Load > maxLoad {
			maxLoad = m.Load
		}
		sprints = append(sprints, m)
	}

	if maxLoad <= 0 {
		maxLoad = 1
	}
	for i := range sprints {
		sprints[i].Score = clamp01(sprints[i].Load / maxLoad)
	}
	return sprints
}

func (o *OverloadAnalyzer) isDone(status string) bool {
	_, ok := o.done[strings.ToLower(strings.TrimSpace(status))]
	return ok
}
