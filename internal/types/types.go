package types

// Field is a logical sprint-table column, independent of the header spelling
// used by a particular CSV export.
type Field string

const (
	FieldSprint         Field = "sprint"
	FieldTask           Field = "task"
	FieldAssignee       Field = "assignee"
	FieldStatus         Field = "status"
	FieldEstimatedHours Field = "estimated_hours"
	FieldActualHours    Field = "actual_hours"
	FieldTaskCount      Field = "task_count"
)

// AllFields lists every logical field in mapping priority order.
func AllFields() []Field {
	return []Field{
		FieldSprint,
		FieldTask,
		FieldAssignee,
		FieldStatus,
		FieldEstimatedHours,
		FieldActualHours,
		FieldTaskCount,
	}
}

// IsValid reports whether f is a known logical field.
func (f Field) IsValid() bool {
	switch f {
	case FieldSprint, FieldTask, FieldAssignee, FieldStatus,
		FieldEstimatedHours, FieldActualHours, FieldTaskCount:
		return true
	}
	return false
}

// TaskRecord represents one row of a sprint task export
type TaskRecord struct {
	Sprint         string  `json:"sprint"`
	Task           string  `json:"task,omitempty"`
	Assignee       string  `json:"assignee,omitempty"`
	Status         string  `json:"status,omitempty"`
	EstimatedHours float64 `json:"estimated_hours"`
	ActualHours    float64 `json:"actual_hours"`
	Count          float64 `json:"count"`
	Line           int     `json:"line"`
}

// SprintTable is an ordered set of task records together with the logical
// fields that were present in the source header.
type SprintTable struct {
	Fields  []Field      `json:"fields"`
	Records []TaskRecord `json:"records"`
}

// Has reports whether the source header provided field f.
func (t SprintTable) Has(f Field) bool {
	for _, have := range t.Fields {
		if have == f {
			return true
		}
	}
	return false
}

// Missing returns the fields from want that the table lacks, in the order given.
func (t SprintTable) Missing(want ...Field) []Field {
	var missing []Field
	for _, f := range want {
		if !t.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// AnalyzeRequest represents the JSON body accepted by the analyze endpoint
type AnalyzeRequest struct {
	Requirements string `json:"requirements"`
	SprintsCSV   string `json:"sprints_csv"`
	Profile      string `json:"profile,omitempty"`
}
