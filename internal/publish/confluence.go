package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/agusespa/diffscribe/internal/logging"
	"github.com/agusespa/diffscribe/internal/report"
	"github.com/agusespa/diffscribe/internal/types"
)

const defaultConfluenceTimeout = 30 * time.Second

type ConfluenceConfig struct {
	BaseURL           string
	Token             string
	SpaceKey          string
	ParentPageID      string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// ConfluenceClient publishes pages through the Confluence REST content API
type ConfluenceClient struct {
	baseURL     string
	token       string
	spaceKey    string
	parentID    string
	client      *http.Client
	rateLimiter *rate.Limiter
	logger      logrus.FieldLogger
}

// PageRef identifies an existing page and its current version
type PageRef struct {
	ID      string
	Version int
}

type contentRequest struct {
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Space     *spaceRef       `json:"space,omitempty"`
	Body      contentBody     `json:"body"`
	Ancestors []ancestorRef   `json:"ancestors,omitempty"`
	Version   *versionRef     `json:"version,omitempty"`
	Metadata  contentMetadata `json:"metadata"`
}

type spaceRef struct {
	Key string `json:"key"`
}

type contentBody struct {
	Storage storageBody `json:"storage"`
}

type storageBody struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type ancestorRef struct {
	ID string `json:"id"`
}

type versionRef struct {
	Number int `json:"number"`
}

type contentMetadata struct {
	Labels []labelRef `json:"labels"`
}

type labelRef struct {
	Name string `json:"name"`
}

type contentResponse struct {
	ID      string     `json:"id"`
	Version versionRef `json:"version"`
}

type searchResponse struct {
	Results []contentResponse `json:"results"`
}

func NewConfluenceClient(cfg ConfluenceConfig, logger logrus.FieldLogger) *ConfluenceClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultConfluenceTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if logger == nil {
		logger = logging.Discard()
	}

	return &ConfluenceClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.Token,
		spaceKey:    cfg.SpaceKey,
		parentID:    cfg.ParentPageID,
		client:      &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:      logger,
	}
}

// Publish updates the page titled page.Title in the configured space, or creates it
func (c *ConfluenceClient) Publish(ctx context.Context, page report.Page) (string, error) {
	existing, err := c.FindPage(ctx, page.Title)
	if err != nil {
		return "", err
	}

	if existing != nil {
		if err := c.UpdatePage(ctx, *existing, page); err != nil {
			return "", err
		}
		c.logger.WithFields(logrus.Fields{"title": page.Title, "page_id": existing.ID}).Info("Updated Confluence page")
		return existing.ID, nil
	}

	id, err := c.CreatePage(ctx, page)
	if err != nil {
		return "", err
	}
	c.logger.WithFields(logrus.Fields{"title": page.Title, "page_id": id}).Info("Created Confluence page")
	return id, nil
}

// FindPage returns the page with the given title in the configured space, or nil
func (c *ConfluenceClient) FindPage(ctx context.Context, title string) (*PageRef, error) {
	query := url.Values{}
	query.Set("title", title)
	query.Set("spaceKey", c.spaceKey)
	query.Set("expand", "version")

	var resp searchResponse
	if err := c.do(ctx, http.MethodGet, "/rest/api/content?"+query.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to search for page %q: %w", title, err)
	}

	if len(resp.Results) == 0 {
		return nil, nil
	}
	found := resp.Results[0]
	return &PageRef{ID: found.ID, Version: found.Version.Number}, nil
}

func (c *ConfluenceClient) CreatePage(ctx context.Context, page report.Page) (string, error) {
	req := c.contentRequest(page)
	req.Space = &spaceRef{Key: c.spaceKey}
	if c.parentID != "" {
		req.Ancestors = []ancestorRef{{ID: c.parentID}}
	}

	var resp contentResponse
	if err := c.do(ctx, http.MethodPost, "/rest/api/content", req, &resp); err != nil {
		return "", fmt.Errorf("failed to create page %q: %w", page.Title, err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: create page %q: response carried no page id", types.ErrPublishFailure, page.Title)
	}
	return resp.ID, nil
}

// UpdatePage replaces the content of existing and bumps its version by one
func (c *ConfluenceClient) UpdatePage(ctx context.Context, existing PageRef, page report.Page) error {
	req := c.contentRequest(page)
	req.Version = &versionRef{Number: existing.Version + 1}

	if err := c.do(ctx, http.MethodPut, "/rest/api/content/"+url.PathEscape(existing.ID), req, nil); err != nil {
		return fmt.Errorf("failed to update page %s: %w", existing.ID, err)
	}
	return nil
}

func (c *ConfluenceClient) contentRequest(page report.Page) contentRequest {
	labels := make([]labelRef, 0, len(page.Labels))
	for _, label := range page.Labels {
		labels = append(labels, labelRef{Name: label})
	}

	return contentRequest{
		Type:     "page",
		Title:    page.Title,
		Body:     contentBody{Storage: storageBody{Value: page.Body, Representation: "storage"}},
		Metadata: contentMetadata{Labels: labels},
	}
}

// do sends one request. Every failure is wrapped in types.ErrPublishFailure.
func (c *ConfluenceClient) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %w", types.ErrPublishFailure, err)
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: failed to marshal request: %w", types.ErrPublishFailure, err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: failed to build request: %w", types.ErrPublishFailure, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.WithFields(logrus.Fields{"method": method, "path": path}).Debug("Confluence request")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to make request: %w", types.ErrPublishFailure, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", types.ErrPublishFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: confluence request failed with status %d: %s",
			types.ErrPublishFailure, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: failed to unmarshal response: %w", types.ErrPublishFailure, err)
	}
	return nil
}
