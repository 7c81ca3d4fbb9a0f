package evaluation

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/agusespa/diffscribe/internal/types"
)

// PrintSummary prints the per-case results followed by the run metrics
func PrintSummary(w io.Writer, r *types.EvaluationRun) {
	fmt.Fprintf(w, "\n=== Evaluation Summary (%s, rules: %s) ===\n", r.SuitePath, r.RulesSource)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Case", "Expected", "Actual", "Score", "Signals"})
	for _, result := range r.Results {
		status := color.New(color.FgGreen).Sprint("PASS")
		if !result.Correct {
			status = color.New(color.FgRed).Sprint("FAIL")
		}
		if len(result.Errors) > 0 {
			status = color.New(color.FgYellow).Sprint("ERROR")
		}

		tbl.AppendRow(table.Row{
			status + " " + result.TestCase.Name,
			impactLabel(result.TestCase.Expected.Impacted),
			impactLabel(result.Verdict.BusinessLogicImpacted),
			fmt.Sprintf("%.2f", result.Score),
			len(result.Verdict.Signals),
		})
	}
	tbl.Render()

	c := r.Confusion
	s := r.Stats
	fmt.Fprintf(w, "Accuracy:  %.2f%%\n", s.Accuracy*100)
	fmt.Fprintf(w, "Precision: %.2f  Recall: %.2f  F1: %.2f\n", s.Precision, s.Recall, s.F1)
	fmt.Fprintf(w, "Confusion: TP=%d FP=%d TN=%d FN=%d\n", c.TruePositives, c.FalsePositives, c.TrueNegatives, c.FalseNegatives)
	fmt.Fprintf(w, "Average Score: %.2f  Degraded: %.2f%%\n", s.AverageScore, s.DegradedRate*100)
	fmt.Fprintf(w, "Duration: %.3fms avg (±%.3fms, min %.3fms, max %.3fms), total %s\n",
		s.AverageDuration, s.DurationStdDev, s.MinDuration, s.MaxDuration, r.TotalDuration)
	fmt.Fprintln(w)
}

// PrintFailures lists the cases whose verdict did not match, with their signals
func PrintFailures(w io.Writer, r *types.EvaluationRun) {
	for _, result := range r.Results {
		if result.Correct && len(result.Errors) == 0 {
			continue
		}
		fmt.Fprintf(w, "- %s (%s)\n", result.TestCase.Name, result.TestCase.FilePath)
		for _, e := range result.Errors {
			fmt.Fprintf(w, "    error: %s\n", e)
		}
		if len(result.Verdict.Signals) > 0 {
			fmt.Fprintf(w, "    signals: %s\n", strings.Join(result.Verdict.Signals, ", "))
		}
	}
}

func impactLabel(impacted bool) string {
	if impacted {
		return "business logic"
	}
	return "other"
}
