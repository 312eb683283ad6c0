package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullCSV = `sprint,task,assignee,status,estimated_hours,actual_hours
1,login,alice,done,15,20
1,signup,alice,in progress,15,15
2,reports,bob,done,8,6.5
`

func TestReadSprintTable_Full(t *testing.T) {
	table, err := ReadSprintTable(strings.NewReader(fullCSV), nil)
	require.NoError(t, err)

	assert.Equal(t, []types.Field{
		types.FieldSprint,
		types.FieldTask,
		types.FieldAssignee,
		types.FieldStatus,
		types.FieldEstimatedHours,
		types.FieldActualHours,
	}, table.Fields)
	require.Len(t, table.Records, 3)

	assert.Equal(t, types.TaskRecord{
		Sprint:         "1",
		Task:           "signup",
		Assignee:       "alice",
		Status:         "in progress",
		EstimatedHours: 15,
		ActualHours:    15,
		Count:          1,
		Line:           3,
	}, table.Records[1])
	assert.Equal(t, 6.5, table.Records[2].ActualHours)
}

func TestReadSprintTable_Cells(t *testing.T) {
	input := "\uFEFFSprint ID, Tasks , Estimate\r\n" +
		"s1, 3, \r\n" +
		",,\r\n" +
		"s2,,4\r\n" +
		"s3,2\r\n"

	table, err := ReadSprintTable(strings.NewReader(input), nil)
	require.NoError(t, err)

	assert.Equal(t, []types.Field{types.FieldSprint, types.FieldEstimatedHours, types.FieldTaskCount}, table.Fields)
	require.Len(t, table.Records, 3)

	assert.Equal(t, 3.0, table.Records[0].Count)
	assert.Equal(t, 0.0, table.Records[0].EstimatedHours)
	assert.Equal(t, 1.0, table.Records[1].Count)
	assert.Equal(t, 4.0, table.Records[1].EstimatedHours)
	assert.Equal(t, 4, table.Records[1].Line)
	assert.Equal(t, "s3", table.Records[2].Sprint)
	assert.Equal(t, 2.0, table.Records[2].Count)
}

func TestReadSprintTable_TaskTotals(t *testing.T) {
	table, err := ReadSprintTable(strings.NewReader("sprint,total_tasks\n1,3\n2,6\n"), nil)
	require.NoError(t, err)

	assert.Equal(t, []types.Field{types.FieldSprint, types.FieldTaskCount}, table.Fields)
	require.Len(t, table.Records, 2)
	assert.Equal(t, 3.0, table.Records[0].Count)
	assert.Equal(t, 6.0, table.Records[1].Count)
}

func TestReadSprintTable_Overrides(t *testing.T) {
	input := "Iteration Path,Work Item,Remaining\nA,x,1\n"

	table, err := ReadSprintTable(strings.NewReader(input), map[types.Field]string{
		types.FieldSprint:         "Iteration Path",
		types.FieldEstimatedHours: "Remaining",
	})
	require.NoError(t, err)
	assert.True(t, table.Has(types.FieldEstimatedHours))
	assert.Equal(t, "A", table.Records[0].Sprint)
	assert.Equal(t, 1.0, table.Records[0].EstimatedHours)
}

func TestReadSprintTable_HeaderOnly(t *testing.T) {
	table, err := ReadSprintTable(strings.NewReader("sprint,status\n"), nil)
	require.NoError(t, err)
	assert.NotNil(t, table.Records)
	assert.Empty(t, table.Records)
}

func TestReadSprintTable_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		category apperrors.ErrorCategory
		detail   map[string]string
	}{
		{
			name:     "empty input",
			input:    "",
			category: apperrors.CategoryInputMissing,
		},
		{
			name:     "no sprint column",
			input:    "task,status\na,done\n",
			category: apperrors.CategoryInputMissing,
		},
		{
			name:     "unrelated csv",
			input:    "name,price\napple,3\n",
			category: apperrors.CategorySchemaMismatch,
		},
		{
			name:     "non numeric hours",
			input:    "sprint,estimated_hours\n1,eight\n",
			category: apperrors.CategoryValidation,
			detail:   map[string]string{"line": "2", "column": "estimated_hours", "value": "eight"},
		},
		{
			name:     "negative count",
			input:    "sprint,count\n1,2\n2,-1\n",
			category: apperrors.CategoryValidation,
			detail:   map[string]string{"line": "3", "value": "-1"},
		},
		{
			name:     "malformed quoting",
			input:    "sprint,task\n1,\"unterminated\n",
			category: apperrors.CategoryValidation,
		},
		{
			name:     "invalid utf8",
			input:    "sprint,task\n1,\xff\xfe\n",
			category: apperrors.CategoryIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSprintTable(strings.NewReader(tt.input), nil)
			require.Error(t, err)
			assert.Equal(t, tt.category, apperrors.CategoryOf(err))
			for k, v := range tt.detail {
				assert.Equal(t, v, apperrors.ToAppError(err).Detail(k), k)
			}
		})
	}
}

func TestReadSprintTableFile(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadSprintTableFile(filepath.Join(dir, "missing.csv"), nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryInputMissing, apperrors.CategoryOf(err))

	path := filepath.Join(dir, "tasks.csv")
	require.NoError(t, os.WriteFile(path, []byte(fullCSV), 0644))

	table, err := ReadSprintTableFile(path, nil)
	require.NoError(t, err)
	assert.Len(t, table.Records, 3)
}
