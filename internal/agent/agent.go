package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agusespa/diffscribe/internal/git"
	"github.com/agusespa/diffscribe/internal/logging"
	"github.com/agusespa/diffscribe/internal/publish"
	"github.com/agusespa/diffscribe/internal/report"
	"github.com/agusespa/diffscribe/internal/types"
	"github.com/agusespa/diffscribe/pkg/spinner"
)

// Classifier turns change records into classified changes, preserving order
type Classifier interface {
	ClassifyBatch(ctx context.Context, records []types.ChangeRecord) ([]types.ClassifiedChange, error)
}

// Result is the outcome of one analysis run
type Result struct {
	RunID   string
	Changes []types.ClassifiedChange
	Page    report.Page
	PageID  string
}

type DocumentationAgent struct {
	source    git.ChangeSource
	engine    Classifier
	renderer  report.Renderer
	publisher publish.Publisher
	logger    logrus.FieldLogger
	now       func() time.Time
	newRunID  func() string
}

func NewDocumentationAgent(source git.ChangeSource, engine Classifier, renderer report.Renderer, publisher publish.Publisher, logger logrus.FieldLogger) *DocumentationAgent {
	if logger == nil {
		logger = logging.Discard()
	}
	return &DocumentationAgent{
		source:    source,
		engine:    engine,
		renderer:  renderer,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
}

// Analyze collects the selected changes and classifies them
func (a *DocumentationAgent) Analyze(ctx context.Context, selector types.Selector) (*Result, error) {
	runID := a.newRunID()
	log := a.logger.WithFields(logrus.Fields{"run_id": runID, "selector": selector.String()})

	progress := spinner.New("Collecting changes...")
	progress.Start()
	defer progress.Stop()

	// Step 1: Get changed files
	records, err := a.source.GetChanges(ctx, selector)
	if err != nil {
		return nil, err
	}
	log.WithField("files", len(records)).Debug("Collected changes")

	// Step 2: Classify
	progress.Update(fmt.Sprintf("Classifying %d changes...", len(records)))
	changes, err := a.engine.ClassifyBatch(ctx, records)
	if err != nil {
		return nil, err
	}

	business, _ := report.Partition(changes)
	log.WithFields(logrus.Fields{
		"changes":        len(changes),
		"business_logic": len(business),
	}).Info("Classified changes")

	return &Result{RunID: runID, Changes: changes}, nil
}

// Preview analyzes and renders without publishing
func (a *DocumentationAgent) Preview(ctx context.Context, selector types.Selector) (*Result, error) {
	result, err := a.Analyze(ctx, selector)
	if err != nil {
		return nil, err
	}
	result.Page = a.renderer.Render(result.Changes, report.Meta{Generated: a.now(), RunID: result.RunID})
	return result, nil
}

// Publish sends a previewed result to the publisher and records the page id.
// Results without changes are not published.
func (a *DocumentationAgent) Publish(ctx context.Context, result *Result) (string, error) {
	log := a.logger.WithField("run_id", result.RunID)
	if len(result.Changes) == 0 {
		log.Info("No changes to document")
		return "", nil
	}

	progress := spinner.New("Publishing documentation...")
	progress.Start()
	pageID, err := a.publisher.Publish(ctx, result.Page)
	progress.Stop()
	if err != nil {
		return "", err
	}

	result.PageID = pageID
	log.WithFields(logrus.Fields{"title": result.Page.Title, "page_id": pageID}).Info("Published documentation")
	return pageID, nil
}

// Document analyzes, renders and publishes the selected changes
func (a *DocumentationAgent) Document(ctx context.Context, selector types.Selector) (*Result, error) {
	result, err := a.Preview(ctx, selector)
	if err != nil {
		return nil, err
	}
	if _, err := a.Publish(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}
