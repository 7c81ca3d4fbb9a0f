package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agusespa/diffscribe/internal/logging"
	"github.com/agusespa/diffscribe/internal/types"
)

type RepositoryConfig struct {
	URL       string
	Branch    string
	LocalPath string
}

// Repository is a working tree ready for analysis
type Repository struct {
	Path string
	// Cloned is set when the tree was cloned or pulled into the work directory
	Cloned bool
}

// RepositoryService resolves a repository locator to a local working tree,
// cloning remote repositories into a work directory.
type RepositoryService struct {
	runner  *Runner
	workDir string
	logger  logrus.FieldLogger
}

func NewRepositoryService(runner *Runner, workDir string, logger logrus.FieldLogger) *RepositoryService {
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "diffscribe-repos")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &RepositoryService{runner: runner, workDir: workDir, logger: logger}
}

// Prepare returns a working tree for cfg. A URL naming an existing directory is
// used in place and never checked out; anything else is cloned (or pulled when a
// previous clone exists) and switched to cfg.Branch.
func (s *RepositoryService) Prepare(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if cfg.LocalPath == "" && isDir(cfg.URL) {
		if _, err := s.runner.Run(ctx, cfg.URL, "rev-parse", "--git-dir"); err != nil {
			return nil, fmt.Errorf("not a git repository %s: %w", cfg.URL, err)
		}
		return &Repository{Path: cfg.URL}, nil
	}

	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: repository URL is required", types.ErrSourceUnavailable)
	}

	repoPath := cfg.LocalPath
	if repoPath == "" {
		repoPath = filepath.Join(s.workDir, repositoryName(cfg.URL))
	}

	log := s.logger.WithFields(logrus.Fields{"url": cfg.URL, "path": repoPath})

	if isDir(repoPath) {
		origin, err := s.runner.Run(ctx, repoPath, "remote", "get-url", "origin")
		if err != nil {
			return nil, fmt.Errorf("failed to read origin of %s: %w", repoPath, err)
		}
		if strings.TrimSpace(origin) != cfg.URL {
			return nil, fmt.Errorf("%w: %s holds a clone of %s, not %s",
				types.ErrSourceUnavailable, repoPath, strings.TrimSpace(origin), cfg.URL)
		}

		log.Info("Repository already exists, pulling latest changes")
		if _, err := s.runner.Run(ctx, repoPath, "pull"); err != nil {
			return nil, fmt.Errorf("failed to pull %s: %w", cfg.URL, err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(repoPath), 0755); err != nil {
			return nil, fmt.Errorf("%w: failed to create work directory: %w", types.ErrSourceUnavailable, err)
		}
		log.Info("Cloning repository")
		if _, err := s.runner.Run(ctx, "", "clone", cfg.URL, repoPath); err != nil {
			return nil, fmt.Errorf("failed to clone %s: %w", cfg.URL, err)
		}
	}

	if cfg.Branch != "" {
		if _, err := s.runner.Run(ctx, repoPath, "checkout", cfg.Branch); err != nil {
			return nil, fmt.Errorf("failed to checkout %s: %w", cfg.Branch, err)
		}
	}

	return &Repository{Path: repoPath, Cloned: true}, nil
}

// Cleanup removes a cloned working tree. Trees used in place are left alone.
func (s *RepositoryService) Cleanup(repo *Repository) error {
	if repo == nil || !repo.Cloned {
		return nil
	}
	if err := os.RemoveAll(repo.Path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", repo.Path, err)
	}
	return nil
}

// CommitHistory returns the latest limit commits reachable from rev, newest first.
// An empty rev reads the checked-out HEAD; the working tree is never switched.
func (s *RepositoryService) CommitHistory(ctx context.Context, repoPath, rev string, limit int) ([]types.Commit, error) {
	if limit <= 0 {
		limit = 10
	}

	args := []string{"log", "-n", strconv.Itoa(limit), "--pretty=format:%H|%s|%an|%aI"}
	if rev != "" {
		args = append(args, rev, "--")
	}
	out, err := s.runner.Run(ctx, repoPath, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit history: %w", err)
	}

	return ParseCommitLog(out)
}

// ParseCommitLog parses "hash|subject|author|date" lines. Subjects may contain '|'.
func ParseCommitLog(out string) ([]types.Commit, error) {
	var commits []types.Commit
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 4 {
			return nil, fmt.Errorf("malformed log line %q", line)
		}

		n := len(parts)
		date, err := time.Parse(time.RFC3339, strings.TrimSpace(parts[n-1]))
		if err != nil {
			return nil, fmt.Errorf("failed to parse date in %q: %w", line, err)
		}

		commits = append(commits, types.Commit{
			Hash:    parts[0],
			Subject: strings.Join(parts[1:n-2], "|"),
			Author:  parts[n-2],
			Date:    date,
		})
	}
	return commits, nil
}

// repositoryName turns a clone URL into a work directory name that keeps the host
// and owner, so same-named repositories of different owners do not collide.
func repositoryName(url string) string {
	name := url
	if i := strings.Index(name, "://"); i >= 0 {
		name = name[i+3:]
	}
	if at := strings.Index(name, "@"); at >= 0 && !strings.Contains(name[:at], "/") {
		name = name[at+1:]
	}
	name = strings.TrimSuffix(strings.Trim(name, "/"), ".git")
	name = strings.Trim(strings.NewReplacer("/", "-", ":", "-").Replace(name), "-.")
	if name == "" {
		return "repo"
	}
	return name
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
