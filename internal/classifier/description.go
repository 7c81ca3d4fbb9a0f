package classifier

import (
	"fmt"
	"strings"

	"github.com/agusespa/diffscribe/internal/types"
)

// describe renders the impact description. It depends only on its arguments, so
// the same record always yields the same text.
func describe(record types.ChangeRecord, signals []string) string {
	if record.Kind == types.ChangeDeleted {
		return fmt.Sprintf("File %s was deleted.", record.FilePath)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s file: %s.", record.Kind.Title(), record.FilePath)

	if len(signals) == 0 {
		b.WriteString(" This change does not appear to directly impact business logic.")
		return b.String()
	}

	b.WriteString(" This change impacts business logic.")
	if hasPrefix(signals, pathPrefix) {
		b.WriteString(" The file is located in a business logic directory, suggesting core functionality changes.")
	}
	return b.String()
}

func hasPrefix(signals []string, prefix string) bool {
	for _, s := range signals {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
