package analysis

import (
	"testing"

	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fullFields = []types.Field{
	types.FieldSprint,
	types.FieldTask,
	types.FieldAssignee,
	types.FieldStatus,
	types.FieldEstimatedHours,
	types.FieldActualHours,
}

func task(sprint, assignee, status string, est, act float64) types.TaskRecord {
	return types.TaskRecord{
		Sprint:         sprint,
		Assignee:       assignee,
		Status:         status,
		EstimatedHours: est,
		ActualHours:    act,
		Count:          1,
	}
}

// twoSprintTable has three tasks (one open) in s1 and five finished tasks in s2.
func twoSprintTable() types.SprintTable {
	return types.SprintTable{
		Fields: fullFields,
		Records: []types.TaskRecord{
			task("s1", "alice", "done", 15, 20),
			task("s2", "alice", "done", 8, 6),
			task("s1", "alice", "in progress", 15, 15),
			task("s2", "alice", "done", 8, 6),
			task("s1", "bob", "Done", 10, 10),
			task("s2", "alice", "DONE", 8, 6),
			task("s2", "bob", "done", 8, 6),
			task("s2", "bob", " done ", 8, 6),
		},
	}
}

func TestOverloadAnalyzer_Mode(t *testing.T) {
	o := NewOverloadAnalyzer(DefaultConfig().Overload)

	mode, missing := o.Mode(twoSprintTable())
	assert.Equal(t, OverloadModeFull, mode)
	assert.Empty(t, missing)

	mode, missing = o.Mode(types.SprintTable{Fields: []types.Field{types.FieldSprint, types.FieldStatus}})
	assert.Equal(t, OverloadModeTaskCount, mode)
	assert.Equal(t, []types.Field{
		types.FieldAssignee,
		types.FieldEstimatedHours,
		types.FieldActualHours,
	}, missing)
}

func TestOverloadAnalyzer_FullMode(t *testing.T) {
	o := NewOverloadAnalyzer(DefaultConfig().Overload)

	result, err := o.Analyze(twoSprintTable())
	require.NoError(t, err)
	assert.Equal(t, OverloadModeFull, result.Mode)
	require.Len(t, result.Sprints, 2)

	s1, s2 := result.Sprints[0], result.Sprints[1]
	assert.Equal(t, "s1", s1.Sprint)
	assert.Equal(t, "s2", s2.Sprint)

	assert.Equal(t, 3, s1.TaskCount)
	assert.Equal(t, 1, s1.OpenTasks)
	assert.InDelta(t, 0.333, s1.CarryOverRate, 1e-3)
	assert.Equal(t, 2, s1.MaxTasksPerDev)
	assert.InDelta(t, 40, s1.EstimatedHours, 1e-9)
	assert.InDelta(t, 45, s1.ActualHours, 1e-9)
	assert.InDelta(t, 1.125, s1.HoursRatio, 1e-9)

	assert.Equal(t, 0, s2.OpenTasks)
	assert.Equal(t, 0.0, s2.CarryOverRate)
	assert.Equal(t, 3, s2.MaxTasksPerDev)
	assert.InDelta(t, 0.75, s2.HoursRatio, 1e-9)

	// 0.4/3 + 0.3*0.2 + 0.3*1.125 and 0 + 0.3*0.3 + 0.3*0.75
	assert.InDelta(t, 0.530833, s1.Score, 1e-5)
	assert.InDelta(t, 0.315, s2.Score, 1e-9)
	assert.Greater(t, s1.Score, s2.Score)
}

func TestOverloadAnalyzer_UnassignedTasksShareOneBucket(t *testing.T) {
	o := NewOverloadAnalyzer(DefaultConfig().Overload)

	table := types.SprintTable{
		Fields: fullFields,
		Records: []types.TaskRecord{
			task("s1", "", "todo", 1, 1),
			task("s1", "  ", "todo", 1, 1),
			task("s1", "carol", "todo", 1, 1),
		},
	}

	result, err := o.Analyze(table)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sprints[0].MaxTasksPerDev)
}

func TestOverloadAnalyzer_CustomDoneStatuses(t *testing.T) {
	cfg := DefaultConfig().Overload
	cfg.DoneStatuses = []string{"Closed", "resolved"}
	o := NewOverloadAnalyzer(cfg)

	table := types.SprintTable{
		Fields: fullFields,
		Records: []types.TaskRecord{
			task("s1", "a", "closed", 1, 1),
			task("s1", "a", "Resolved", 1, 1),
			task("s1", "a", "done", 1, 1),
			task("s1", "a", "open", 1, 1),
		},
	}

	result, err := o.Analyze(table)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sprints[0].OpenTasks)
	assert.InDelta(t, 0.5, result.Sprints[0].CarryOverRate, 1e-9)
}

func TestOverloadAnalyzer_ZeroEstimates(t *testing.T) {
	o := NewOverloadAnalyzer(DefaultConfig().Overload)

	table := types.SprintTable{
		Fields:  fullFields,
		Records: []types.TaskRecord{task("s1", "a", "done", 0, 0)},
	}

	result, err := o.Analyze(table)
	require.NoError(t, err)
	m := result.Sprints[0]
	assert.True(t, isFinite(m.HoursRatio))
	assert.Equal(t, 0.0, m.HoursRatio)
	assert.InDelta(t, 0.03, m.Score, 1e-9)
}

func TestOverloadAnalyzer_ScoreIsBounded(t *testing.T) {
	o := NewOverloadAnalyzer(DefaultConfig().Overload)

	var records []types.TaskRecord
	for i := 0; i < 40; i++ {
		records = append(records, task("s1", "solo", "blocked", 1, 500))
	}

	result, err := o.Analyze(types.SprintTable{Fields: fullFields, Records: records})
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Sprints[0].Score)
	assert.Greater(t, result.Sprints[0].HoursRatio, 1.0)
}

func TestOverloadAnalyzer_TaskCountMode(t *testing.T) {
	o := NewOverloadAnalyzer(DefaultConfig().Overload)

	table := types.SprintTable{
		Fields: []types.Field{types.FieldSprint, types.FieldTaskCount},
		Records: []types.TaskRecord{
			{Sprint: "s1", Count: 2},
			{Sprint: "s2", Count: 10},
			{Sprint: "s1", Count: 3},
		},
	}

	result, err := o.Analyze(table)
	require.NoError(t, err)
	assert.Equal(t, OverloadModeTaskCount, result.Mode)
	assert.Equal(t, fullModeFields, result.Missing)
	require.Len(t, result.Sprints, 2)

	assert.Equal(t, "s1", result.Sprints[0].Sprint)
	assert.InDelta(t, 5, result.Sprints[0].Load, 1e-9)
	assert.InDelta(t, 0.5, result.Sprints[0].Score, 1e-9)
	assert.InDelta(t, 1.0, result.Sprints[1].Score, 1e-9)
}

func TestOverloadAnalyzer_TaskCountModeAllZero(t *testing.T) {
	o := NewOverloadAnalyzer(DefaultConfig().Overload)

	table := types.SprintTable{
		Fields:  []types.Field{types.FieldSprint, types.FieldTaskCount},
		Records: []types.TaskRecord{{Sprint: "s1"}, {Sprint: "s2"}},
	}

	result, err := o.Analyze(table)
	require.NoError(t, err)
	for _, s := range result.Sprints {
		assert.Equal(t, 0.0, s.Score)
	}
}

func TestOverloadAnalyzer_Errors(t *testing.T) {
	o := NewOverloadAnalyzer(DefaultConfig().Overload)

	tests := []struct {
		name     string
		table    types.SprintTable
		category apperrors.ErrorCategory
	}{
		{
			name: "no sprint column",
			table: types.SprintTable{
				Fields:  []types.Field{types.FieldTaskCount},
				Records: []types.TaskRecord{{Count: 1}},
			},
			category: apperrors.CategoryInputMissing,
		},
		{
			name:     "no rows",
			table:    types.SprintTable{Fields: fullFields},
			category: apperrors.CategoryInputMissing,
		},
		{
			name: "blank sprint id",
			table: types.SprintTable{
				Fields:  fullFields,
				Records: []types.TaskRecord{task(" ", "a", "done", 1, 1)},
			},
			category: apperrors.CategoryValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := o.Analyze(tt.table)
			require.Error(t, err)
			assert.Equal(t, tt.category, apperrors.CategoryOf(err))
		})
	}
}

func TestSprintAggregator(t *testing.T) {
	agg := NewSprintAggregator()
	agg.Add(types.TaskRecord{Sprint: "b", Task: "1"})
	agg.Add(types.TaskRecord{Sprint: "a", Task: "2"})
	agg.Add(types.TaskRecord{Sprint: "b", Task: "3"})

	assert.Equal(t, []string{"b", "a"}, agg.Sprints())
	assert.Len(t, agg.Get("b"), 2)
	assert.Nil(t, agg.Get("missing"))
}
