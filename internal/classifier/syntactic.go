package classifier

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/agusespa/diffscribe/internal/syntax"
)

var errNoGrammar = errors.New("no grammar registered")

// syntacticResult is the outcome of the syntactic tier. A degraded result carries
// lexical matches on the raw text instead of declarations found in a tree.
type syntacticResult struct {
	signals  []string
	degraded bool
	cause    error
}

func (e *Engine) syntacticTier(filePath, text string) syntacticResult {
	source, err := postImage(text)
	if err != nil {
		return e.degrade(text, err)
	}
	if strings.TrimSpace(source) == "" {
		return syntacticResult{}
	}

	grammar := e.grammars.GrammarFor(filePath)
	if grammar == nil {
		return e.degrade(text, errNoGrammar)
	}

	var signals []string
	seen := make(map[string]bool)
	add := func(signal string) {
		if !seen[signal] {
			seen[signal] = true
			signals = append(signals, signal)
		}
	}

	profile := grammar.Profile()
	err = grammar.Parse([]byte(source), func(root syntax.Node) {
		syntax.Walk(root, func(n syntax.Node) {
			if profile.IsFunction(n) {
				if name := profile.FunctionName(n); e.rules.matchName(name) {
					add(functionPrefix + name)
				}
			}
			if profile.IsDecorator(n) {
				if name := profile.DecoratorName(n); e.rules.matchName(name) {
					add(decoratorPrefix + name)
				}
			}
		})
	})
	if err != nil {
		return e.degrade(text, err)
	}

	return syntacticResult{signals: signals}
}

// degrade re-runs the lexical checks on the raw text, so a parse failure never
// silences the tier.
func (e *Engine) degrade(text string, cause error) syntacticResult {
	return syntacticResult{
		signals:  prefixed(fallbackPrefix, e.rules.matchLexical(text)),
		degraded: true,
		cause:    cause,
	}
}

// postImage returns the text to parse. Plain source passes through unchanged; a
// unified diff is reduced to its context and added lines.
func postImage(text string) (string, error) {
	start := hunkStart(text)
	if start < 0 {
		return text, nil
	}

	hunks, err := diff.ParseHunks([]byte(text[start:]))
	if err != nil {
		return "", fmt.Errorf("failed to parse diff hunks: %w", err)
	}

	var b strings.Builder
	for _, hunk := range hunks {
		for _, line := range strings.Split(string(hunk.Body), "\n") {
			switch {
			case strings.HasPrefix(line, "+"), strings.HasPrefix(line, " "):
				b.WriteString(line[1:])
				b.WriteByte('\n')
			case line == "":
				b.WriteByte('\n')
			}
		}
	}
	return b.String(), nil
}

// hunkStart returns the offset of the first hunk header line, or -1
func hunkStart(text string) int {
	if strings.HasPrefix(text, "@@ ") {
		return 0
	}
	if i := strings.Index(text, "\n@@ "); i >= 0 {
		return i + 1
	}
	return -1
}
