package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agusespa/diffscribe/internal/report"
	"github.com/agusespa/diffscribe/internal/types"
)

func newTestDocumentPublisher(t *testing.T, now time.Time) (*DocumentPublisher, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "docs", "changes")
	p := NewDocumentPublisher(dir, nil)
	p.now = func() time.Time { return now }
	return p, dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestDocumentPublisher_Create(t *testing.T) {
	p, dir := newTestDocumentPublisher(t, time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC))

	path, err := p.Publish(context.Background(), report.Page{Title: "Code Changes Documentation - 2024-03-05", Body: "first"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "20240305-code-changes.mdx"), path)
	assert.Equal(t, "first", readFile(t, path))

	index := readFile(t, filepath.Join(dir, IndexFile))
	assert.Contains(t, index, "# Code Changes Documentation\n")
	assert.Contains(t, index, "## Recent Changes\n")
	assert.Contains(t, index, "- [Code Changes Documentation - 2024-03-05](./20240305-code-changes.mdx)")

	entries, err := p.Entries()
	require.NoError(t, err)
	assert.Equal(t, 1, entries["Code Changes Documentation - 2024-03-05"].Version)
}

func TestDocumentPublisher_SameTitleOverwrites(t *testing.T) {
	p, dir := newTestDocumentPublisher(t, time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC))
	page := report.Page{Title: "Code Changes Documentation - 2024-03-05", Body: "first"}

	first, err := p.Publish(context.Background(), page)
	require.NoError(t, err)

	page.Body = "second"
	second, err := p.Publish(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "second", readFile(t, second))

	entries, err := p.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 2, entries[page.Title].Version)

	files, err := filepath.Glob(filepath.Join(dir, "*.mdx"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestDocumentPublisher_IndexNewestFirst(t *testing.T) {
	p, dir := newTestDocumentPublisher(t, time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC))

	_, err := p.Publish(context.Background(), report.Page{Title: "Code Changes Documentation - 2024-03-05", Body: "a"})
	require.NoError(t, err)

	p.now = func() time.Time { return time.Date(2024, time.March, 7, 9, 0, 0, 0, time.UTC) }
	_, err = p.Publish(context.Background(), report.Page{Title: "Code Changes Documentation - 2024-03-07", Body: "b"})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "20240306-code-changes.mdx"), []byte("manual"), 0644))
	p.now = func() time.Time { return time.Date(2024, time.March, 7, 18, 0, 0, 0, time.UTC) }
	_, err = p.Publish(context.Background(), report.Page{Title: "Code Changes Documentation - 2024-03-07", Body: "c"})
	require.NoError(t, err)

	index := readFile(t, filepath.Join(dir, IndexFile))
	newest := strings.Index(index, "20240307-code-changes.mdx")
	manual := strings.Index(index, "[20240306 code changes](./20240306-code-changes.mdx)")
	oldest := strings.Index(index, "20240305-code-changes.mdx")
	assert.True(t, newest >= 0 && manual > newest && oldest > manual)
}

func TestDocumentPublisher_UnwritableDirectory(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	p := NewDocumentPublisher(filepath.Join(blocker, "docs"), nil)
	_, err := p.Publish(context.Background(), report.Page{Title: "t", Body: "b"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrPublishFailure))
}

func TestDocumentPublisher_CancelledContext(t *testing.T) {
	p, dir := newTestDocumentPublisher(t, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Publish(ctx, report.Page{Title: "t", Body: "b"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrPublishFailure))
	assert.NoDirExists(t, dir)
}

func TestDocumentPublisher_IndexFailureKeepsNothing(t *testing.T) {
	p, dir := newTestDocumentPublisher(t, time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, IndexFile), 0755))
	page := report.Page{Title: "Code Changes Documentation - 2024-03-05", Body: "first"}

	_, err := p.Publish(context.Background(), page)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrPublishFailure))

	assert.NoFileExists(t, filepath.Join(dir, "20240305-code-changes.mdx"))
	entries, err := p.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	leftovers2, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, append(leftovers, leftovers2...))

	require.NoError(t, os.Remove(filepath.Join(dir, IndexFile)))
	path, err := p.Publish(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, "first", readFile(t, path))

	entries, err = p.Entries()
	require.NoError(t, err)
	assert.Equal(t, 1, entries[page.Title].Version)
}

func TestDocumentPublisher_IndexFailureRestoresPreviousVersion(t *testing.T) {
	p, dir := newTestDocumentPublisher(t, time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC))
	page := report.Page{Title: "Code Changes Documentation - 2024-03-05", Body: "first"}

	path, err := p.Publish(context.Background(), page)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, IndexFile)))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, IndexFile), 0755))

	page.Body = "second"
	_, err = p.Publish(context.Background(), page)
	require.Error(t, err)

	assert.Equal(t, "first", readFile(t, path))
	entries, err := p.Entries()
	require.NoError(t, err)
	assert.Equal(t, 1, entries[page.Title].Version)
}

func TestDocumentPublisher_FileNameFollowsTitleDate(t *testing.T) {
	p, dir := newTestDocumentPublisher(t, time.Date(2024, time.March, 6, 0, 5, 0, 0, time.UTC))

	path, err := p.Publish(context.Background(), report.Page{Title: "Code Changes Documentation - 2024-03-05", Body: "late"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20240305-code-changes.mdx"), path)

	next, err := p.Publish(context.Background(), report.Page{Title: "Code Changes Documentation - 2024-03-06", Body: "today"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20240306-code-changes.mdx"), next)
	assert.Equal(t, "late", readFile(t, path))
}

func TestDocumentName_WithoutDate(t *testing.T) {
	p, _ := newTestDocumentPublisher(t, time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, "20240306-code-changes.mdx", p.documentName("Release notes"))
	assert.Equal(t, "20240306-code-changes.mdx", p.documentName("Code Changes Documentation - soon"))
}
