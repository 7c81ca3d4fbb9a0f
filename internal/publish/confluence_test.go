package publish

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agusespa/diffscribe/internal/report"
	"github.com/agusespa/diffscribe/internal/types"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Auth   string
	Body   map[string]any
}

type fakeConfluence struct {
	mu       sync.Mutex
	requests []recordedRequest
	existing string
	status   int
}

func (f *fakeConfluence) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  map[string]string{},
			Auth:   r.Header.Get("Authorization"),
		}
		for key := range r.URL.Query() {
			req.Query[key] = r.URL.Query().Get(key)
		}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			assert.NoError(t, json.Unmarshal(data, &req.Body))
		}

		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()

		if f.status != 0 {
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(`{"message":"nope"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			if f.existing == "" {
				_, _ = w.Write([]byte(`{"results":[]}`))
				return
			}
			_, _ = w.Write([]byte(`{"results":[{"id":"` + f.existing + `","version":{"number":4}}]}`))
		case http.MethodPost:
			_, _ = w.Write([]byte(`{"id":"98765"}`))
		case http.MethodPut:
			_, _ = w.Write([]byte(`{"id":"` + f.existing + `"}`))
		}
	}
}

func newTestClient(t *testing.T, fake *fakeConfluence, parent string) *ConfluenceClient {
	t.Helper()
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	return NewConfluenceClient(ConfluenceConfig{
		BaseURL:           server.URL + "/",
		Token:             "secret",
		SpaceKey:          "ENG",
		ParentPageID:      parent,
		Timeout:           5 * time.Second,
		RequestsPerSecond: 1000,
	}, nil)
}

var testPage = report.Page{
	Title:  "Code Changes Documentation - 2024-03-05",
	Body:   "<h1>Code Changes Documentation - 2024-03-05</h1>",
	Labels: []string{"code-changes", "auto-generated", "business-logic"},
}

func TestConfluenceClient_PublishCreates(t *testing.T) {
	fake := &fakeConfluence{}
	client := newTestClient(t, fake, "12345")

	id, err := client.Publish(context.Background(), testPage)
	require.NoError(t, err)
	assert.Equal(t, "98765", id)

	require.Len(t, fake.requests, 2)

	find := fake.requests[0]
	assert.Equal(t, http.MethodGet, find.Method)
	assert.Equal(t, "/rest/api/content", find.Path)
	assert.Equal(t, testPage.Title, find.Query["title"])
	assert.Equal(t, "ENG", find.Query["spaceKey"])
	assert.Equal(t, "version", find.Query["expand"])
	assert.Equal(t, "Bearer secret", find.Auth)

	create := fake.requests[1]
	assert.Equal(t, http.MethodPost, create.Method)
	assert.Equal(t, "/rest/api/content", create.Path)
	assert.Equal(t, "page", create.Body["type"])
	assert.Equal(t, testPage.Title, create.Body["title"])
	assert.Equal(t, map[string]any{"key": "ENG"}, create.Body["space"])
	assert.Equal(t, []any{map[string]any{"id": "12345"}}, create.Body["ancestors"])
	assert.Equal(t, map[string]any{"storage": map[string]any{"value": testPage.Body, "representation": "storage"}}, create.Body["body"])
	assert.Equal(t, map[string]any{"labels": []any{
		map[string]any{"name": "code-changes"},
		map[string]any{"name": "auto-generated"},
		map[string]any{"name": "business-logic"},
	}}, create.Body["metadata"])
}

func TestConfluenceClient_PublishWithoutParent(t *testing.T) {
	fake := &fakeConfluence{}
	client := newTestClient(t, fake, "")

	_, err := client.Publish(context.Background(), testPage)
	require.NoError(t, err)

	require.Len(t, fake.requests, 2)
	assert.NotContains(t, fake.requests[1].Body, "ancestors")
}

func TestConfluenceClient_PublishUpdatesExisting(t *testing.T) {
	fake := &fakeConfluence{existing: "555"}
	client := newTestClient(t, fake, "12345")

	id, err := client.Publish(context.Background(), testPage)
	require.NoError(t, err)
	assert.Equal(t, "555", id)

	require.Len(t, fake.requests, 2)
	update := fake.requests[1]
	assert.Equal(t, http.MethodPut, update.Method)
	assert.Equal(t, "/rest/api/content/555", update.Path)
	assert.Equal(t, map[string]any{"number": float64(5)}, update.Body["version"])
	assert.NotContains(t, update.Body, "ancestors")
}

func TestConfluenceClient_FindPageMissing(t *testing.T) {
	client := newTestClient(t, &fakeConfluence{}, "")

	ref, err := client.FindPage(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Nil(t, ref)
}

func TestConfluenceClient_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"unauthorized", http.StatusUnauthorized},
		{"conflict", http.StatusConflict},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeConfluence{status: tt.status}
			client := newTestClient(t, fake, "")

			id, err := client.Publish(context.Background(), testPage)
			require.Error(t, err)
			assert.Empty(t, id)
			assert.True(t, errors.Is(err, types.ErrPublishFailure))
			assert.Len(t, fake.requests, 1)
		})
	}
}

func TestConfluenceClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client := NewConfluenceClient(ConfluenceConfig{BaseURL: server.URL, SpaceKey: "ENG", Timeout: time.Second}, nil)

	_, err := client.Publish(context.Background(), testPage)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrPublishFailure))
}

func TestConfluenceClient_CancelledContext(t *testing.T) {
	client := newTestClient(t, &fakeConfluence{}, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Publish(ctx, testPage)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrPublishFailure))
}
