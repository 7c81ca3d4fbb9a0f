package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agusespa/diffscribe/internal/logging"
	"github.com/agusespa/diffscribe/internal/types"
)

const DefaultTimeout = 60 * time.Second

// Runner executes git commands. Every failure wraps types.ErrSourceUnavailable.
type Runner struct {
	timeout time.Duration
	logger  logrus.FieldLogger
}

func NewRunner(timeout time.Duration, logger logrus.FieldLogger) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runner{timeout: timeout, logger: logger}
}

// Run executes git with args in dir and returns its standard output
func (r *Runner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logger.WithFields(logrus.Fields{"dir": dir, "args": strings.Join(args, " ")}).Debug("Running git")

	output, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("%w: git %s: %w", types.ErrSourceUnavailable, args[0], err)
		}
		return "", fmt.Errorf("%w: git %s: %w: %s", types.ErrSourceUnavailable, args[0], err, msg)
	}

	return string(output), nil
}
