package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/analysis"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/monitoring"
)

var (
	Version = "dev"
	Commit  = "none"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	levelStyles = map[analysis.RiskLevel]lipgloss.Style{
		analysis.RiskHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		analysis.RiskMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		analysis.RiskLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
)

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:     "riskscan",
		Version: Version + " (" + Commit + ")",
		Short:   "Estimate sprint delivery risk from requirements and task exports",
		Long: `riskscan scores each sprint of a project for delivery risk.

It combines two signals:
  ambiguity  how vague the requirements document reads
  overload   how stretched each sprint's workload is

and labels every sprint Low, Medium or High.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level for diagnostics on stderr (debug, info, warn, error)")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logger := monitoring.NewLoggerTo(cmd.ErrOrStderr(), monitoring.ParseLevel(logLevel))
		slog.SetDefault(logger.Logger)
	}

	root.AddCommand(newAnalyzeCmd(), newProfileCmd(), newShowCmd(), newTokenCmd())
	return root
}

func renderLevel(level analysis.RiskLevel) string {
	style, ok := levelStyles[level]
	if !ok {
		return string(level)
	}
	return style.Render(string(level))
}

// printLevelSummary writes "High: n  Medium: n  Low: n"
func printLevelSummary(w io.Writer, counts map[analysis.RiskLevel]int) {
	levels := []analysis.RiskLevel{analysis.RiskHigh, analysis.RiskMedium, analysis.RiskLow}
	for i, level := range levels {
		sep := "  "
		if i == len(levels)-1 {
			sep = "\n"
		}
		fmt.Fprintf(w, "%s: %d%s", renderLevel(level), counts[level], sep)
	}
}
