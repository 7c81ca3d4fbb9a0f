package classifier

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/agusespa/diffscribe/internal/logging"
	"github.com/agusespa/diffscribe/internal/syntax"
	"github.com/agusespa/diffscribe/internal/types"
)

// Engine decides, per changed file, whether the change plausibly touches business
// logic. It holds no mutable state, so one Engine can serve concurrent callers.
type Engine struct {
	rules    *RuleSet
	grammars *syntax.Registry
	logger   logrus.FieldLogger
	workers  int
}

type Option func(*Engine)

func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithWorkers bounds how many records ClassifyBatch classifies at once
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func NewEngine(rules *RuleSet, grammars *syntax.Registry, opts ...Option) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	if grammars == nil {
		grammars = syntax.NewRegistry()
	}

	e := &Engine{
		rules:    rules,
		grammars: grammars,
		logger:   logging.Discard(),
		workers:  1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Classify produces the verdict for one record. The only error it returns wraps
// types.ErrInvalidInput; parse failures are absorbed by the syntactic fallback.
func (e *Engine) Classify(record types.ChangeRecord) (types.Verdict, error) {
	if record.FilePath == "" {
		return types.Verdict{}, fmt.Errorf("%w: empty file path", types.ErrInvalidInput)
	}
	if err := record.Kind.Validate(); err != nil {
		return types.Verdict{}, fmt.Errorf("%s: %w", record.FilePath, err)
	}

	if record.Kind == types.ChangeDeleted {
		return types.Verdict{
			BusinessLogicImpacted: false,
			Signals:               []string{deletedSignal},
			Description:           describe(record, nil),
		}, nil
	}

	signals := make([]string, 0)
	signals = append(signals, prefixed(pathPrefix, e.rules.matchPath(record.FilePath))...)
	signals = append(signals, prefixed(lexicalPrefix, e.rules.matchLexical(record.Diff))...)

	syntactic := e.syntacticTier(record.FilePath, record.Diff)
	if syntactic.degraded {
		e.logger.WithFields(logrus.Fields{
			"path":  record.FilePath,
			"cause": syntactic.cause,
		}).Info("Syntactic analysis degraded to lexical fallback")
	}
	signals = append(signals, syntactic.signals...)

	return types.Verdict{
		BusinessLogicImpacted: len(signals) > 0,
		Signals:               signals,
		Description:           describe(record, signals),
		Degraded:              syntactic.degraded,
	}, nil
}

// ClassifyBatch classifies records independently and returns the results in input
// order. The first invalid record aborts the batch.
func (e *Engine) ClassifyBatch(ctx context.Context, records []types.ChangeRecord) ([]types.ClassifiedChange, error) {
	results := make([]types.ClassifiedChange, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, record := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			verdict, err := e.Classify(record)
			if err != nil {
				return fmt.Errorf("failed to classify change %d: %w", i, err)
			}

			results[i] = types.ClassifiedChange{ChangeRecord: record, Verdict: verdict}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
