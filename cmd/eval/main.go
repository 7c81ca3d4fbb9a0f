package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/agusespa/diffscribe/internal/evaluation"
	"github.com/agusespa/diffscribe/internal/logging"
)

var (
	suiteFile  string
	resultsDir string
	rulesFile  string
	caseName   string
	save       bool
	compare    bool
	failures   bool
	verbose    bool
	logger     *logrus.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "eval",
	Short:         "Score the change classifier against a labelled suite",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(logging.Config{Level: "info", Format: "text", Verbose: verbose})
		return err
	},
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&suiteFile, "suite", "evaluation/suite.yaml", "Path to evaluation suite")
	rootCmd.Flags().StringVar(&resultsDir, "results", "evaluation/results", "Directory to store results")
	rootCmd.Flags().StringVar(&rulesFile, "rules", "", "Rule table to evaluate (default: built-in rules)")
	rootCmd.Flags().StringVar(&caseName, "case", "", "Run only the named case")
	rootCmd.Flags().BoolVar(&save, "save", false, "Save the run under the results directory")
	rootCmd.Flags().BoolVar(&compare, "compare", false, "Compare existing results instead of running a new evaluation")
	rootCmd.Flags().BoolVar(&failures, "failures", false, "List mismatched cases with their signals")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func run(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if compare {
		return evaluation.CompareResults(out, resultsDir)
	}

	evaluator, err := evaluation.NewEvaluator(suiteFile, rulesFile, logger)
	if err != nil {
		return err
	}

	cases := evaluation.FilterByName(evaluator.Suite().Cases, caseName)
	if len(cases) == 0 {
		return fmt.Errorf("case %q not found (available: %v)", caseName, evaluation.ListCaseNames(evaluator.Suite()))
	}

	result, err := evaluator.RunCases(cmd.Context(), cases)
	if err != nil {
		return fmt.Errorf("failed to run evaluation: %w", err)
	}

	evaluation.PrintSummary(out, result)
	if failures {
		evaluation.PrintFailures(out, result)
	}

	if save {
		path, err := evaluation.NewResultsManager(resultsDir).Save(result)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Results saved to: %s\n", path)
	}
	return nil
}
