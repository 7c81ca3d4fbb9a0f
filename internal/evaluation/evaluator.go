package evaluation

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agusespa/diffscribe/internal/classifier"
	"github.com/agusespa/diffscribe/internal/logging"
	"github.com/agusespa/diffscribe/internal/syntax"
	"github.com/agusespa/diffscribe/internal/types"
)

const defaultRulesSource = "default"

type Evaluator struct {
	suite       *types.EvaluationSuite
	suitePath   string
	rulesSource string
	engine      *classifier.Engine
	scorer      Scorer
	stats       *StatisticsCalculator
	logger      logrus.FieldLogger
}

// NewEvaluator loads the suite at suitePath. rulesPath selects a YAML rule table;
// the built-in rules are used when it is empty.
func NewEvaluator(suitePath, rulesPath string, logger logrus.FieldLogger) (*Evaluator, error) {
	suite, err := LoadSuite(suitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load evaluation suite: %w", err)
	}

	rules := classifier.DefaultRules()
	rulesSource := defaultRulesSource
	if rulesPath != "" {
		if rules, err = classifier.LoadRules(rulesPath); err != nil {
			return nil, fmt.Errorf("failed to load rules: %w", err)
		}
		rulesSource = rulesPath
	}

	if logger == nil {
		logger = logging.Discard()
	}

	return &Evaluator{
		suite:       suite,
		suitePath:   suitePath,
		rulesSource: rulesSource,
		engine:      classifier.NewEngine(rules, syntax.NewRegistry(), classifier.WithLogger(logger)),
		scorer:      NewSimpleScorer(),
		stats:       NewStatisticsCalculator(),
		logger:      logger,
	}, nil
}

func (e *Evaluator) Suite() *types.EvaluationSuite {
	return e.suite
}

// Run classifies every case in the suite and scores the verdicts. A case that
// cannot be loaded or classified is recorded with its error and a zero score.
func (e *Evaluator) Run(ctx context.Context) (*types.EvaluationRun, error) {
	return e.RunCases(ctx, e.suite.Cases)
}

func (e *Evaluator) RunCases(ctx context.Context, cases []types.TestCase) (*types.EvaluationRun, error) {
	run := &types.EvaluationRun{
		SuitePath:   e.suitePath,
		RulesSource: e.rulesSource,
		StartTime:   time.Now(),
		Results:     make([]types.TestCaseResult, 0, len(cases)),
	}

	for i, tc := range cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result := e.runSingleCase(tc)
		e.logger.WithFields(logrus.Fields{
			"case":    tc.Name,
			"index":   i + 1,
			"total":   len(cases),
			"score":   result.Score,
			"correct": result.Correct,
		}).Debug("Evaluated case")

		run.Results = append(run.Results, result)
	}

	run.EndTime = time.Now()
	run.TotalDuration = run.EndTime.Sub(run.StartTime)
	e.stats.CalculateRunSummary(run)

	return run, nil
}

func (e *Evaluator) runSingleCase(tc types.TestCase) types.TestCaseResult {
	startTime := time.Now()
	result := types.TestCaseResult{TestCase: tc}

	record, err := Record(e.suite, tc)
	if err != nil {
		result.Errors = []string{err.Error()}
		result.ExecutionTime = time.Since(startTime)
		return result
	}

	verdict, err := e.engine.Classify(record)
	result.ExecutionTime = time.Since(startTime)
	if err != nil {
		result.Errors = []string{err.Error()}
		return result
	}

	result.Verdict = verdict
	result.Score = e.scorer.Score(tc.Expected, verdict)
	result.Correct = verdict.BusinessLogicImpacted == tc.Expected.Impacted
	return result
}
