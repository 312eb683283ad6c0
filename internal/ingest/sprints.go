package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/types"
)

// ReadSprintTable parses a sprint task CSV export. overrides pins fields to
// header names and may be nil.
func ReadSprintTable(r io.Reader, overrides map[types.Field]string) (types.SprintTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return types.SprintTable{}, apperrors.NewIOError("failed to read sprint table", err)
	}
	if !utf8.Valid(data) {
		return types.SprintTable{}, apperrors.NewIOError("sprint table is not valid UTF-8", nil)
	}
	data = bytes.TrimPrefix(data, []byte(bom))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return types.SprintTable{}, apperrors.NewInputMissingError("sprint table header")
	}
	if err != nil {
		return types.SprintTable{}, malformed(err)
	}

	mapping, err := NewColumnMapper().Map(headers, overrides)
	if err != nil {
		return types.SprintTable{}, err
	}

	table := types.SprintTable{Fields: mapping.Fields(), Records: []types.TaskRecord{}}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return types.SprintTable{}, malformed(err)
		}
		if blankRow(row) {
			continue
		}
		line, _ := reader.FieldPos(0)

		rec, err := parseRecord(row, line, headers, mapping)
		if err != nil {
			return types.SprintTable{}, err
		}
		table.Records = append(table.Records, rec)
	}

	return table, nil
}

func parseRecord(row []string, line int, headers []string, mapping Mapping) (types.TaskRecord, error) {
	cell := func(f types.Field) string {
		idx, ok := mapping[f]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}
	number := func(f types.Field, empty float64) (float64, error) {
		raw := cell(f)
		if raw == "" {
			return empty, nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, apperrors.NewCellError(line, headers[mapping[f]], raw, "expected a non-negative number")
		}
		return v, nil
	}

	rec := types.TaskRecord{
		Sprint:   cell(types.FieldSprint),
		Task:     cell(types.FieldTask),
		Assignee: cell(types.FieldAssignee),
		Status:   cell(types.FieldStatus),
		Line:     line,
	}

	var err error
	if rec.EstimatedHours, err = number(types.FieldEstimatedHours, 0); err != nil {
		return rec, err
	}
	if rec.ActualHours, err = number(types.FieldActualHours, 0); err != nil {
		return rec, err
	}
	if rec.Count, err = number(types.FieldTaskCount, 1); err != nil {
		return rec, err
	}
	return rec, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func malformed(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return apperrors.NewValidationError(fmt.Sprintf("malformed CSV at line %d: %v", pe.Line, pe.Err))
	}
	return apperrors.NewIOError("failed to parse sprint table", err)
}
