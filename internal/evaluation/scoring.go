package evaluation

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/agusespa/diffscribe/internal/types"
)

// Scorer interface for different scoring strategies
type Scorer interface {
	Score(expected types.ExpectedResults, actual types.Verdict) float64
}

// SimpleScorer averages every applicable metric
type SimpleScorer struct {
	metrics []ScoringMetric
}

func NewSimpleScorer() *SimpleScorer {
	return &SimpleScorer{
		metrics: []ScoringMetric{
			&VerdictMatchMetric{},
			&SignalMatchMetric{},
		},
	}
}

func (s *SimpleScorer) Score(expected types.ExpectedResults, actual types.Verdict) float64 {
	var totalScore, applicableMetrics float64
	for _, metric := range s.metrics {
		score := metric.Calculate(expected, actual)
		if score >= 0 { // -1 means not applicable
			totalScore += score
			applicableMetrics++
		}
	}

	if applicableMetrics == 0 {
		return 1.0
	}

	return totalScore / applicableMetrics
}

// ScoringMetric scores one aspect of a verdict. It returns -1 when the expectation
// does not constrain that aspect.
type ScoringMetric interface {
	Calculate(expected types.ExpectedResults, actual types.Verdict) float64
}

// VerdictMatchMetric checks the business-logic verdict
type VerdictMatchMetric struct{}

func (m *VerdictMatchMetric) Calculate(expected types.ExpectedResults, actual types.Verdict) float64 {
	if expected.Impacted == actual.BusinessLogicImpacted {
		return 1.0
	}
	return 0.0
}

// SignalMatchMetric is the share of expected signal prefixes matched by a fired signal
type SignalMatchMetric struct{}

func (m *SignalMatchMetric) Calculate(expected types.ExpectedResults, actual types.Verdict) float64 {
	if len(expected.Signals) == 0 {
		return -1.0
	}

	matchCount := 0
	for _, want := range expected.Signals {
		for _, signal := range actual.Signals {
			if strings.HasPrefix(signal, want) {
				matchCount++
				break
			}
		}
	}

	return float64(matchCount) / float64(len(expected.Signals))
}

// RunComparison holds comparison results between multiple evaluation runs
type RunComparison struct {
	Runs         []types.EvaluationRun
	BestAccuracy *types.EvaluationRun
	BestF1       *types.EvaluationRun
	Fastest      *types.EvaluationRun
}

// LoadEvaluationRuns loads all evaluation run results from a directory
func LoadEvaluationRuns(dir string) ([]types.EvaluationRun, error) {
	var runs []types.EvaluationRun

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob for json files in %s: %w", dir, err)
	}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read result file %s: %w", file, err)
		}

		var run types.EvaluationRun
		if err := json.Unmarshal(data, &run); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result file %s: %w", file, err)
		}
		runs = append(runs, run)
	}

	return runs, nil
}

// CompareRuns ranks runs by accuracy and picks the best performers
func CompareRuns(runs []types.EvaluationRun) *RunComparison {
	if len(runs) == 0 {
		return &RunComparison{}
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Stats.Accuracy > runs[j].Stats.Accuracy
	})

	comparison := &RunComparison{
		Runs:         runs,
		BestAccuracy: &runs[0],
		BestF1:       &runs[0],
		Fastest:      &runs[0],
	}

	for i := range runs {
		if runs[i].Stats.F1 > comparison.BestF1.Stats.F1 {
			comparison.BestF1 = &runs[i]
		}
		if runs[i].TotalDuration < comparison.Fastest.TotalDuration {
			comparison.Fastest = &runs[i]
		}
	}

	return comparison
}

// CompareResults loads the runs saved in resultsDir and prints their ranking
func CompareResults(w io.Writer, resultsDir string) error {
	runs, err := LoadEvaluationRuns(resultsDir)
	if err != nil {
		return fmt.Errorf("failed to load evaluation runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No evaluation results found in", resultsDir)
		return nil
	}

	CompareRuns(runs).Print(w)
	return nil
}

func (rc *RunComparison) Print(w io.Writer) {
	if len(rc.Runs) == 0 {
		fmt.Fprintln(w, "No runs to compare.")
		return
	}

	fmt.Fprintf(w, "Best accuracy: %s (%.2f%%)\n", rc.BestAccuracy.RulesSource, rc.BestAccuracy.Stats.Accuracy*100)
	fmt.Fprintf(w, "Best F1:       %s (%.2f)\n", rc.BestF1.RulesSource, rc.BestF1.Stats.F1)
	fmt.Fprintf(w, "Fastest:       %s (%s)\n\n", rc.Fastest.RulesSource, rc.Fastest.TotalDuration)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"#", "Rules", "Suite", "Accuracy", "Precision", "Recall", "F1", "Started"})
	for i, run := range rc.Runs {
		tbl.AppendRow(table.Row{
			i + 1,
			run.RulesSource,
			run.SuitePath,
			fmt.Sprintf("%.2f%%", run.Stats.Accuracy*100),
			fmt.Sprintf("%.2f", run.Stats.Precision),
			fmt.Sprintf("%.2f", run.Stats.Recall),
			fmt.Sprintf("%.2f", run.Stats.F1),
			run.StartTime.Format("2006-01-02 15:04"),
		})
	}
	tbl.Render()
}
