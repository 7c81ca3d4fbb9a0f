package git

import (
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/agusespa/diffscribe/internal/types"
)

const devNull = "/dev/null"

// FileChange is one file's slice of a multi-file unified diff
type FileChange struct {
	Path string
	Kind types.ChangeKind
	Diff string
}

// SplitDiff splits the output of git diff into per-file changes
func SplitDiff(raw string) ([]FileChange, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	fileDiffs, err := diff.NewMultiFileDiffReader(strings.NewReader(raw)).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	changes := make([]FileChange, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		kind, path := classifyFileDiff(fd)
		if path == "" {
			continue
		}

		text, err := diff.PrintFileDiff(fd)
		if err != nil {
			return nil, fmt.Errorf("failed to print diff for %s: %w", path, err)
		}

		changes = append(changes, FileChange{
			Path: path,
			Kind: kind,
			Diff: string(text),
		})
	}
	return changes, nil
}

func classifyFileDiff(fd *diff.FileDiff) (types.ChangeKind, string) {
	orig, updated := fd.OrigName, fd.NewName
	if orig == "" && updated == "" {
		orig, updated = namesFromHeader(fd.Extended)
	}

	switch {
	case orig == devNull || hasExtended(fd, "new file mode"):
		return types.ChangeAdded, stripPrefix(updated)
	case updated == devNull || hasExtended(fd, "deleted file mode"):
		return types.ChangeDeleted, stripPrefix(orig)
	default:
		return types.ChangeModified, stripPrefix(updated)
	}
}

// namesFromHeader reads both names from a "diff --git a/x b/x" line
func namesFromHeader(extended []string) (string, string) {
	for _, line := range extended {
		if !strings.HasPrefix(line, "diff --git ") {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, "diff --git "))
		if len(fields) == 2 {
			return fields[0], fields[1]
		}
	}
	return "", ""
}

func hasExtended(fd *diff.FileDiff, prefix string) bool {
	for _, line := range fd.Extended {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func stripPrefix(name string) string {
	if name == devNull {
		return ""
	}
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		return name[2:]
	}
	return name
}
