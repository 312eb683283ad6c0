package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/report"
)

func newShowCmd() *cobra.Command {
	var level string

	cmd := &cobra.Command{
		Use:   "show <combined.csv>",
		Short: "Print a combined risk CSV as a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := analysis.RiskLevel(level)
			if level != "" && !filter.IsValid() {
				return apperrors.NewValidationError(fmt.Sprintf("unknown risk level %q", level))
			}

			f, err := os.Open(args[0])
			if err != nil {
				return apperrors.NewIOError("failed to open "+args[0], err)
			}
			defer apperrors.SafeClose(f, args[0])

			rows, err := report.ReadRiskCSV(f)
			if err != nil {
				return err
			}

			counts := make(map[analysis.RiskLevel]int, 3)
			shown := make([]analysis.RiskRow, 0, len(rows))
			for _, row := range rows {
				counts[row.RiskLevel]++
				if level == "" || row.RiskLevel == filter {
					shown = append(shown, row)
				}
			}

			out := cmd.OutOrStdout()
			printRiskTable(out, shown, analysis.DefaultConfig().Precision)
			fmt.Fprintln(out)
			printLevelSummary(out, counts)
			return nil
		},
	}
	cmd.Flags().StringVar(&level, "level", "", "only show rows at this risk level")
	return cmd
}
