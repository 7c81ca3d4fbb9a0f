package git

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agusespa/diffscribe/internal/logging"
	"github.com/agusespa/diffscribe/internal/syntax"
	"github.com/agusespa/diffscribe/internal/types"
)

// ChangeSource produces the change records of one analysis run
type ChangeSource interface {
	GetChanges(ctx context.Context, selector types.Selector) ([]types.ChangeRecord, error)
}

// Source reads changes from a local working tree
type Source struct {
	runner   *Runner
	repoPath string
	grammars *syntax.Registry
	logger   logrus.FieldLogger
}

func NewSource(runner *Runner, repoPath string, grammars *syntax.Registry, logger logrus.FieldLogger) *Source {
	if grammars == nil {
		grammars = syntax.NewRegistry()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Source{
		runner:   runner,
		repoPath: repoPath,
		grammars: grammars,
		logger:   logger,
	}
}

// GetChanges returns one record per changed source file, in diff order. Without a
// range the last commit of the selected branch (or HEAD) is compared to its parent.
func (s *Source) GetChanges(ctx context.Context, selector types.Selector) ([]types.ChangeRecord, error) {
	if err := selector.Validate(); err != nil {
		return nil, fmt.Errorf("invalid selector: %w", err)
	}

	from, to := revisions(selector)

	raw, err := s.runner.Run(ctx, s.repoPath, "diff", "--no-color", "--no-renames", from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get diff %s..%s: %w", from, to, err)
	}

	files, err := SplitDiff(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrSourceUnavailable, err)
	}

	commitID, err := s.runner.Run(ctx, s.repoPath, "rev-parse", to)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", to, err)
	}
	commitID = strings.TrimSpace(commitID)

	author, timestamp, err := s.commitMeta(ctx, commitID)
	if err != nil {
		return nil, err
	}

	var records []types.ChangeRecord
	for _, file := range files {
		if !s.grammars.IsSourceFile(file.Path) {
			s.logger.WithField("path", file.Path).Debug("Skipping non-source file")
			continue
		}

		fileAuthor := author
		if selector.IsRange() && file.Kind != types.ChangeDeleted {
			if a, err := s.fileAuthor(ctx, commitID, file.Path); err == nil && a != "" {
				fileAuthor = a
			}
		}

		records = append(records, types.ChangeRecord{
			FilePath:  file.Path,
			Kind:      file.Kind,
			Author:    fileAuthor,
			CommitID:  commitID,
			Timestamp: timestamp,
			Diff:      file.Diff,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"range":   from + ".." + to,
		"files":   len(files),
		"records": len(records),
	}).Debug("Collected changes")

	return records, nil
}

func revisions(selector types.Selector) (string, string) {
	if selector.IsRange() {
		return selector.From, selector.To
	}
	head := "HEAD"
	if selector.Branch != "" {
		head = selector.Branch
	}
	return head + "~1", head
}

func (s *Source) commitMeta(ctx context.Context, rev string) (string, time.Time, error) {
	out, err := s.runner.Run(ctx, s.repoPath, "log", "-1", "--format=%an%x00%cI", rev)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to read commit %s: %w", rev, err)
	}

	parts := strings.SplitN(strings.TrimSpace(out), "\x00", 2)
	if len(parts) != 2 {
		return "", time.Time{}, fmt.Errorf("%w: unexpected git log output %q", types.ErrSourceUnavailable, out)
	}

	timestamp, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: failed to parse commit date: %w", types.ErrSourceUnavailable, err)
	}
	return parts[0], timestamp, nil
}

func (s *Source) fileAuthor(ctx context.Context, rev, path string) (string, error) {
	out, err := s.runner.Run(ctx, s.repoPath, "log", "-1", "--format=%an", rev, "--", path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
