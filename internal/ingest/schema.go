package ingest

import (
	"fmt"
	"strings"

	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/types"
)

// Exact aliases per field, after header normalization. The lists are disjoint.
var defaultAliases = map[types.Field][]string{
	types.FieldSprint:         {"sprint", "sprint_id", "sprint_number", "sprint_name", "iteration"},
	types.FieldTask:           {"task", "task_id", "task_name", "title", "summary"},
	types.FieldAssignee:       {"assignee", "developer", "owner", "assigned_to", "dev"},
	types.FieldStatus:         {"status", "state"},
	types.FieldEstimatedHours: {"estimated_hours", "estimate", "estimated", "est_hours", "planned_hours"},
	types.FieldActualHours:    {"actual_hours", "actual", "spent_hours", "logged_hours", "hours_spent"},
	types.FieldTaskCount: {
		"task_count", "tasks", "count", "num_tasks", "total_tasks", "tasks_total",
		"tasks_planned", "planned_tasks", "number_of_tasks",
	},
}

// Substring keywords tried only when no alias matched.
var defaultKeywords = map[types.Field][]string{
	types.FieldSprint:         {"sprint", "iteration"},
	types.FieldTask:           {"task", "title"},
	types.FieldAssignee:       {"assign", "developer", "owner"},
	types.FieldStatus:         {"status", "state"},
	types.FieldEstimatedHours: {"estimat", "planned"},
	types.FieldActualHours:    {"actual", "spent", "logged"},
	types.FieldTaskCount:      {"count", "num_", "total_task", "tasks_"},
}

// keywordOrder tries task_count before task and estimated_hours, whose
// keywords are substrings of the usual count headers.
var keywordOrder = []types.Field{
	types.FieldSprint,
	types.FieldTaskCount,
	types.FieldTask,
	types.FieldAssignee,
	types.FieldStatus,
	types.FieldEstimatedHours,
	types.FieldActualHours,
}

// recognizable marks a header as project-management data even if it maps to
// no field.
var recognizable = []string{
	"sprint", "task", "hour", "capacity", "status", "assign",
	"estimat", "actual", "count", "iteration",
}

// Mapping assigns logical fields to column indexes of the source header.
type Mapping map[types.Field]int

// Fields returns the mapped fields in priority order.
func (m Mapping) Fields() []types.Field {
	fields := make([]types.Field, 0, len(m))
	for _, f := range types.AllFields() {
		if _, ok := m[f]; ok {
			fields = append(fields, f)
		}
	}
	return fields
}

// NormalizeHeader lowercases a header and folds spaces and hyphens to underscores.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, bom)
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer(" ", "_", "-", "_", "\t", "_").Replace(h)
	return h
}

// ColumnMapper resolves CSV headers to logical fields deterministically
type ColumnMapper struct {
	aliases  map[types.Field][]string
	keywords map[types.Field][]string
}

func NewColumnMapper() *ColumnMapper {
	return &ColumnMapper{aliases: defaultAliases, keywords: defaultKeywords}
}

// Map resolves headers in three passes: explicit overrides, exact aliases, then
// keywords over the columns no earlier pass claimed. Two columns tying for one
// field in the same pass is an error, not a guess.
func (cm *ColumnMapper) Map(headers []string, overrides map[types.Field]string) (Mapping, error) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	mapping := make(Mapping)
	claimed := make(map[int]types.Field)

	for _, field := range types.AllFields() {
		name, ok := overrides[field]
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		want := NormalizeHeader(name)
		idx := -1
		for i, n := range normalized {
			if n == want {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, apperrors.NewSchemaMismatchError(
				fmt.Sprintf("column override for %s names unknown header %q", field, name), headers)
		}
		if other, taken := claimed[idx]; taken {
			return nil, apperrors.NewSchemaMismatchError(
				fmt.Sprintf("header %q is overridden for both %s and %s", headers[idx], other, field), headers)
		}
		mapping[field] = idx
		claimed[idx] = field
	}

	match := func(order []types.Field, candidates map[types.Field][]string, hit func(header, term string) bool) error {
		for _, field := range order {
			if _, done := mapping[field]; done {
				continue
			}
			var found []int
			for i, n := range normalized {
				if _, taken := claimed[i]; taken {
					continue
				}
				for _, term := range candidates[field] {
					if hit(n, term) {
						found = append(found, i)
						break
					}
				}
			}
			switch len(found) {
			case 0:
			case 1:
				mapping[field] = found[0]
				claimed[found[0]] = field
			default:
				names := make([]string, len(found))
				for j, i := range found {
					names[j] = headers[i]
				}
				return apperrors.NewAmbiguousColumnError(string(field), names)
			}
		}
		return nil
	}

	exact := func(header, term string) bool { return header == term }
	if err := match(types.AllFields(), cm.aliases, exact); err != nil {
		return nil, err
	}
	if err := match(keywordOrder, cm.keywords, strings.Contains); err != nil {
		return nil, err
	}

	if len(mapping) == 0 && !anyRecognizable(normalized) {
		return nil, apperrors.NewSchemaMismatchError("no recognizable sprint task columns", headers)
	}
	if _, ok := mapping[types.FieldSprint]; !ok {
		return nil, apperrors.NewInputMissingError("column " + string(types.FieldSprint))
	}

	return mapping, nil
}

func anyRecognizable(normalized []string) bool {
	for _, n := range normalized {
		for _, kw := range recognizable {
			if strings.Contains(n, kw) {
				return true
			}
		}
	}
	return false
}
