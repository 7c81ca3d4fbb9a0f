package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agusespa/diffscribe/internal/classifier"
	"github.com/agusespa/diffscribe/internal/report"
	"github.com/agusespa/diffscribe/internal/syntax"
	"github.com/agusespa/diffscribe/internal/types"
)

type mockSource struct {
	records  []types.ChangeRecord
	err      error
	selector types.Selector
}

func (m *mockSource) GetChanges(ctx context.Context, selector types.Selector) ([]types.ChangeRecord, error) {
	m.selector = selector
	return m.records, m.err
}

type mockPublisher struct {
	pages []report.Page
	id    string
	err   error
}

func (m *mockPublisher) Publish(ctx context.Context, page report.Page) (string, error) {
	m.pages = append(m.pages, page)
	return m.id, m.err
}

func newTestAgent(source *mockSource, publisher *mockPublisher) *DocumentationAgent {
	engine := classifier.NewEngine(classifier.DefaultRules(), syntax.NewRegistry())
	a := NewDocumentationAgent(source, engine, report.NewMDXRenderer(), publisher, nil)
	a.now = func() time.Time { return time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC) }
	a.newRunID = func() string { return "run-1" }
	return a
}

func sampleRecords() []types.ChangeRecord {
	return []types.ChangeRecord{
		{FilePath: "src/utils/format.ts", Kind: types.ChangeModified, Author: "ann", Diff: "export const pad = (s: string) => s.trim();"},
		{FilePath: "src/services/order.ts", Kind: types.ChangeModified, Author: "bob", Diff: "export function processOrder(order: Order) {}"},
		{FilePath: "src/legacy/old.ts", Kind: types.ChangeDeleted, Author: "cid"},
	}
}

func TestAnalyze(t *testing.T) {
	source := &mockSource{records: sampleRecords()}
	a := newTestAgent(source, &mockPublisher{})

	selector := types.Selector{From: "v1", To: "v2"}
	result, err := a.Analyze(context.Background(), selector)
	require.NoError(t, err)

	assert.Equal(t, selector, source.selector)
	assert.Equal(t, "run-1", result.RunID)
	require.Len(t, result.Changes, 3)

	assert.Equal(t, "src/utils/format.ts", result.Changes[0].FilePath)
	assert.False(t, result.Changes[0].BusinessLogicImpacted)
	assert.True(t, result.Changes[1].BusinessLogicImpacted)
	assert.Equal(t, []string{"file deleted"}, result.Changes[2].Signals)
	assert.Empty(t, result.Page.Body)
}

func TestPreview_DoesNotPublish(t *testing.T) {
	publisher := &mockPublisher{id: "page"}
	a := newTestAgent(&mockSource{records: sampleRecords()}, publisher)

	result, err := a.Preview(context.Background(), types.Selector{})
	require.NoError(t, err)

	assert.Equal(t, "Code Changes Documentation - 2024-03-05", result.Page.Title)
	assert.Contains(t, result.Page.Body, "Business logic changes: 1")
	assert.Contains(t, result.Page.Labels, report.LabelBusinessLogic)
	assert.Empty(t, result.PageID)
	assert.Empty(t, publisher.pages)
}

func TestDocument(t *testing.T) {
	publisher := &mockPublisher{id: "docs/changes/20240305-code-changes.mdx"}
	a := newTestAgent(&mockSource{records: sampleRecords()}, publisher)

	result, err := a.Document(context.Background(), types.Selector{})
	require.NoError(t, err)

	assert.Equal(t, "docs/changes/20240305-code-changes.mdx", result.PageID)
	require.Len(t, publisher.pages, 1)
	assert.Equal(t, result.Page, publisher.pages[0])
}

func TestDocument_NoChanges(t *testing.T) {
	publisher := &mockPublisher{id: "page"}
	a := newTestAgent(&mockSource{}, publisher)

	result, err := a.Document(context.Background(), types.Selector{})
	require.NoError(t, err)

	assert.Empty(t, result.Changes)
	assert.Empty(t, result.PageID)
	assert.Empty(t, publisher.pages)
}

func TestDocument_ErrorsPropagate(t *testing.T) {
	sourceErr := fmt.Errorf("%w: git diff: exit status 128", types.ErrSourceUnavailable)
	publishErr := fmt.Errorf("%w: status 401", types.ErrPublishFailure)

	tests := []struct {
		name      string
		source    *mockSource
		publisher *mockPublisher
		want      error
	}{
		{
			name:      "source unavailable",
			source:    &mockSource{err: sourceErr},
			publisher: &mockPublisher{},
			want:      types.ErrSourceUnavailable,
		},
		{
			name:      "invalid record",
			source:    &mockSource{records: []types.ChangeRecord{{FilePath: "", Kind: types.ChangeModified}}},
			publisher: &mockPublisher{},
			want:      types.ErrInvalidInput,
		},
		{
			name:      "publish failure",
			source:    &mockSource{records: sampleRecords()},
			publisher: &mockPublisher{err: publishErr},
			want:      types.ErrPublishFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAgent(tt.source, tt.publisher)

			result, err := a.Document(context.Background(), types.Selector{})
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestPublish_AfterPreview(t *testing.T) {
	publisher := &mockPublisher{id: "42"}
	a := newTestAgent(&mockSource{records: sampleRecords()}, publisher)

	result, err := a.Preview(context.Background(), types.Selector{})
	require.NoError(t, err)

	id, err := a.Publish(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, "42", id)
	assert.Equal(t, "42", result.PageID)
}
