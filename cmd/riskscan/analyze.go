package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/ingest"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/report"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/types"
)

type analyzeOptions struct {
	requirements string
	sprints      string
	output       string
	profile      string
	reports      string
	columns      map[string]string
	json         bool
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score every sprint and write the combined risk CSV",
		Long: `Score every sprint and write the combined risk CSV.

The requirements file is plain UTF-8 text with one requirement per line. The
sprint file is a CSV task export; its columns are matched by name, and
--column pins a field to a header when the names are unusual.

Examples:
  riskscan analyze -r requirements.txt -s sprint_tasks.csv
  riskscan analyze -r req.txt -s tasks.csv -o - --column sprint=Iteration
  riskscan analyze -r req.txt -s tasks.csv --profile strict.yaml --reports out/
  riskscan analyze -r req.txt -s tasks.csv --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.requirements, "requirements", "r", "", "requirements text file")
	cmd.Flags().StringVarP(&opts.sprints, "sprints", "s", "", "sprint task CSV file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", report.CombinedFile, `combined risk CSV to write ("-" for stdout)`)
	cmd.Flags().StringVar(&opts.profile, "profile", "", "scoring profile YAML (defaults when omitted)")
	cmd.Flags().StringVar(&opts.reports, "reports", "", "directory for the combined, ambiguity and overload reports")
	cmd.Flags().StringToStringVar(&opts.columns, "column", nil, "pin a field to a CSV header, e.g. sprint=Iteration")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the full report as JSON")
	_ = cmd.MarkFlagRequired("requirements")
	_ = cmd.MarkFlagRequired("sprints")

	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions) error {
	if opts.json && opts.output == "-" {
		return apperrors.NewValidationError(`--json and -o - both write to stdout; pick one`)
	}

	start := time.Now()
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	cfg := analysis.DefaultConfig()
	if opts.profile != "" {
		loaded, err := analysis.LoadConfigFile(opts.profile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if err := applyColumnFlags(&cfg, opts.columns); err != nil {
		return err
	}

	analyzer, err := analysis.NewAnalyzer(cfg)
	if err != nil {
		return err
	}

	text, err := ingest.ReadRequirementsFile(opts.requirements)
	if err != nil {
		return err
	}
	table, err := ingest.ReadSprintTableFile(opts.sprints, cfg.Columns)
	if err != nil {
		return err
	}

	rep, err := analyzer.Analyze(text, table)
	if err != nil {
		return err
	}

	for _, w := range rep.Warnings {
		fmt.Fprintf(stderr, "warning: %s: %s\n", w.Code, w.Message)
	}

	if err := writeCombined(stdout, opts.output, rep, cfg.Precision); err != nil {
		return err
	}

	if opts.reports != "" {
		paths, err := report.WriteReports(opts.reports, rep, cfg.Precision)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(stderr, "wrote %s\n", p)
		}
	}

	slog.Info("Analysis completed",
		"sprints", len(rep.Rows),
		"overload_mode", rep.Overload.Mode,
		"ambiguity_score", rep.Ambiguity.Score,
		"duration_ms", time.Since(start).Milliseconds())

	if opts.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	if opts.output != "-" {
		printRiskTable(stdout, rep.Rows, cfg.Precision)
		fmt.Fprintf(stdout, "\nambiguity (%s): %s   overload mode: %s\n",
			rep.Ambiguity.Method, report.FormatScore(rep.Ambiguity.Score, cfg.Precision), rep.Overload.Mode)
		printLevelSummary(stdout, rep.LevelCounts())
	}
	return nil
}

// applyColumnFlags merges --column pins into cfg.Columns, flags winning
func applyColumnFlags(cfg *analysis.Config, columns map[string]string) error {
	if len(columns) == 0 {
		return nil
	}

	merged := make(map[types.Field]string, len(cfg.Columns)+len(columns))
	for f, h := range cfg.Columns {
		merged[f] = h
	}
	for name, header := range columns {
		field := types.Field(name)
		if !field.IsValid() {
			return apperrors.NewValidationError(fmt.Sprintf("unknown field %q in --column", name))
		}
		merged[field] = header
	}
	cfg.Columns = merged
	return nil
}

func writeCombined(stdout io.Writer, output string, rep *analysis.Report, precision int) error {
	if output == "" {
		return nil
	}
	if output == "-" {
		return report.WriteRiskCSV(stdout, rep.Rows, precision)
	}
	return report.WriteFile(output, func(w io.Writer) error {
		return report.WriteRiskCSV(w, rep.Rows, precision)
	})
}

func printRiskTable(w io.Writer, rows []analysis.RiskRow, precision int) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-16s %-10s %-10s %-8s %s",
		"SPRINT", "AMBIGUITY", "OVERLOAD", "RISK", "RECOMMENDATION")))
	for _, row := range rows {
		// pad outside the style so escape codes do not count toward the width
		pad := max(8-len(row.RiskLevel), 0)
		fmt.Fprintf(w, "%-16s %-10s %-10s %s%*s %s\n",
			row.Sprint,
			report.FormatScore(row.AmbiguityScore, precision),
			report.FormatScore(row.OverloadScore, precision),
			renderLevel(row.RiskLevel), pad, "",
			row.RiskLevel.Recommendation())
	}
}
