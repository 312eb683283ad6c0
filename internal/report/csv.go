package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
)

// Default file names used when reports are written to a directory.
const (
	CombinedFile  = "combined_risk_data.csv"
	AmbiguityFile = "ambiguity_report.csv"
	OverloadFile  = "overload_report.csv"
)

// RiskHeader is the column contract of the combined risk CSV.
var RiskHeader = []string{"sprint", "ambiguity_score", "overload_score", "risk_level"}

var (
	ambiguityHeader = []string{
		"requirement", "vague_ratio", "avg_sentence_length",
		"passive_voice_score", "missing_criteria", "ambiguity_score",
	}
	overloadHeader = []string{
		"sprint", "carry_over_rate", "max_tasks_per_dev", "hours_ratio", "overload_score",
	}
)

// FormatScore renders x with a fixed number of decimals.
func FormatScore(x float64, precision int) string {
	return strconv.FormatFloat(analysis.Round(x, precision), 'f', precision, 64)
}

// WriteRiskCSV writes one line per row under RiskHeader.
func WriteRiskCSV(w io.Writer, rows []analysis.RiskRow, precision int) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.Sprint,
			FormatScore(row.AmbiguityScore, precision),
			FormatScore(row.OverloadScore, precision),
			string(row.RiskLevel),
		})
	}
	return writeAll(w, RiskHeader, records)
}

// WriteAmbiguityCSV writes the per-requirement ambiguity breakdown.
func WriteAmbiguityCSV(w io.Writer, result analysis.AmbiguityResult, precision int) error {
	records := make([][]string, 0, len(result.Requirements))
	for _, req := range result.Requirements {
		records = append(records, []string{
			req.Text,
			FormatScore(req.Metrics.VagueRatio, precision),
			FormatScore(req.Metrics.AvgSentenceLength, precision),
			FormatScore(req.Metrics.PassiveRatio, precision),
			strconv.FormatBool(req.Metrics.MissingCriteria),
			FormatScore(req.Score, precision),
		})
	}
	return writeAll(w, ambiguityHeader, records)
}

// WriteOverloadCSV writes the per-sprint overload breakdown. In task count
// mode only the score column carries information.
func WriteOverloadCSV(w io.Writer, result analysis.OverloadResult, precision int) error {
	records := make([][]string, 0, len(result.Sprints))
	for _, s := range result.Sprints {
		records = append(records, []string{
			s.Sprint,
			FormatScore(s.CarryOverRate, precision),
			strconv.Itoa(s.MaxTasksPerDev),
			FormatScore(s.HoursRatio, precision),
			FormatScore(s.Score, precision),
		})
	}
	return writeAll(w, overloadHeader, records)
}

func writeAll(w io.Writer, header []string, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

// ReadRiskCSV parses a combined risk CSV produced by WriteRiskCSV.
func ReadRiskCSV(r io.Reader) ([]analysis.RiskRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(RiskHeader)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.NewInputMissingError("risk CSV header")
	}
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("malformed risk CSV: %v", err))
	}
	for i, name := range header {
		if strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")) != RiskHeader[i] {
			return nil, apperrors.NewSchemaMismatchError(
				"risk CSV header must be "+strings.Join(RiskHeader, ","), header)
		}
	}

	rows := []analysis.RiskRow{}
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("malformed risk CSV: %v", err))
		}
		line, _ := reader.FieldPos(0)

		row := analysis.RiskRow{Sprint: rec[0], RiskLevel: analysis.RiskLevel(rec[3])}
		if row.AmbiguityScore, err = parseScore(rec[1], line, RiskHeader[1]); err != nil {
			return nil, err
		}
		if row.OverloadScore, err = parseScore(rec[2], line, RiskHeader[2]); err != nil {
			return nil, err
		}
		if !row.RiskLevel.IsValid() {
			return nil, apperrors.NewCellError(line, RiskHeader[3], rec[3], "expected Low, Medium or High")
		}
		row.Recommendation = row.RiskLevel.Recommendation()
		rows = append(rows, row)
	}
	return rows, nil
}

func parseScore(raw string, line int, column string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 || v > 1 {
		return 0, apperrors.NewCellError(line, column, raw, "expected a score between 0 and 1")
	}
	return v, nil
}

// WriteReports writes the combined CSV and both intermediate reports into dir.
// It returns the paths written.
func WriteReports(dir string, rep *analysis.Report, precision int) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.NewIOError("failed to create report directory "+dir, err)
	}

	writers := []struct {
		name  string
		write func(io.Writer) error
	}{
		{CombinedFile, func(w io.Writer) error { return WriteRiskCSV(w, rep.Rows, precision) }},
		{AmbiguityFile, func(w io.Writer) error { return WriteAmbiguityCSV(w, rep.Ambiguity, precision) }},
		{OverloadFile, func(w io.Writer) error { return WriteOverloadCSV(w, rep.Overload, precision) }},
	}

	paths := make([]string, 0, len(writers))
	for _, wr := range writers {
		path := filepath.Join(dir, wr.name)
		if err := WriteFile(path, wr.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteFile creates path and hands it to write.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewIOError("failed to create "+path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = apperrors.NewIOError("failed to close "+path, cerr)
		}
	}()
	if err := write(f); err != nil {
		return apperrors.WrapError(err, "write %s", path)
	}
	return nil
}
