package git

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/agusespa/diffscribe/internal/logging"
	"github.com/agusespa/diffscribe/internal/syntax"
	"github.com/agusespa/diffscribe/internal/types"
)

// NewGitHubClient returns an API client, authenticated when token is set
func NewGitHubClient(token string) *github.Client {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return client
}

// GitHubSource reads changes of a hosted repository through the GitHub API
type GitHubSource struct {
	client      *github.Client
	rateLimiter *rate.Limiter
	owner       string
	repo        string
	grammars    *syntax.Registry
	logger      logrus.FieldLogger
}

// NewGitHubSource builds a source for repository, given as "owner/name".
// requestsPerSecond bounds API calls.
func NewGitHubSource(client *github.Client, repository string, requestsPerSecond float64, grammars *syntax.Registry, logger logrus.FieldLogger) (*GitHubSource, error) {
	owner, name, ok := strings.Cut(strings.Trim(repository, "/"), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("repository must be owner/name, got %q", repository)
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if grammars == nil {
		grammars = syntax.NewRegistry()
	}
	if logger == nil {
		logger = logging.Discard()
	}

	return &GitHubSource{
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		owner:       owner,
		repo:        name,
		grammars:    grammars,
		logger:      logger,
	}, nil
}

// GetChanges compares the selected range, or without one returns the files of the
// latest commit on the selected branch (the default branch when none is given).
func (s *GitHubSource) GetChanges(ctx context.Context, selector types.Selector) ([]types.ChangeRecord, error) {
	if err := selector.Validate(); err != nil {
		return nil, fmt.Errorf("invalid selector: %w", err)
	}

	if selector.IsRange() {
		return s.compare(ctx, selector.From, selector.To)
	}

	ref := selector.Branch
	if ref == "" {
		var err error
		if ref, err = s.defaultBranch(ctx); err != nil {
			return nil, err
		}
	}
	return s.commit(ctx, ref)
}

func (s *GitHubSource) defaultBranch(ctx context.Context) (string, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %w", types.ErrSourceUnavailable, err)
	}

	repo, _, err := s.client.Repositories.Get(ctx, s.owner, s.repo)
	if err != nil {
		return "", fmt.Errorf("%w: fetch repository %s/%s: %w", types.ErrSourceUnavailable, s.owner, s.repo, err)
	}
	return repo.GetDefaultBranch(), nil
}

func (s *GitHubSource) commit(ctx context.Context, ref string) ([]types.ChangeRecord, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", types.ErrSourceUnavailable, err)
	}

	commit, _, err := s.client.Repositories.GetCommit(ctx, s.owner, s.repo, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: get commit %s: %w", types.ErrSourceUnavailable, ref, err)
	}

	author := commit.GetCommit().GetAuthor().GetName()
	date := commit.GetCommit().GetAuthor().GetDate().Time
	return s.records(commit.Files, commit.GetSHA(), author, date), nil
}

func (s *GitHubSource) compare(ctx context.Context, base, head string) ([]types.ChangeRecord, error) {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", types.ErrSourceUnavailable, err)
	}

	comparison, _, err := s.client.Repositories.CompareCommits(ctx, s.owner, s.repo, base, head, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: compare %s...%s: %w", types.ErrSourceUnavailable, base, head, err)
	}

	commitID := head
	var author string
	var date time.Time
	if n := len(comparison.Commits); n > 0 {
		last := comparison.Commits[n-1]
		commitID = last.GetSHA()
		author = last.GetCommit().GetAuthor().GetName()
		date = last.GetCommit().GetAuthor().GetDate().Time
	}

	return s.records(comparison.Files, commitID, author, date), nil
}

func (s *GitHubSource) records(files []*github.CommitFile, commitID, author string, date time.Time) []types.ChangeRecord {
	var records []types.ChangeRecord
	for _, file := range files {
		path := file.GetFilename()
		if !s.grammars.IsSourceFile(path) {
			continue
		}

		records = append(records, types.ChangeRecord{
			FilePath:  path,
			Kind:      kindForStatus(file.GetStatus()),
			Author:    author,
			CommitID:  commitID,
			Timestamp: date,
			Diff:      file.GetPatch(),
		})
	}

	s.logger.WithFields(logrus.Fields{
		"repository": s.owner + "/" + s.repo,
		"files":      len(files),
		"records":    len(records),
	}).Debug("Collected changes from GitHub")

	return records
}

func kindForStatus(status string) types.ChangeKind {
	switch status {
	case "added":
		return types.ChangeAdded
	case "removed":
		return types.ChangeDeleted
	default:
		return types.ChangeModified
	}
}
