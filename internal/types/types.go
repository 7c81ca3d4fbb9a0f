package types

import (
	"fmt"
	"strings"
	"time"
)

// ChangeKind is how a file changed within one analysis run
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
)

func ParseChangeKind(s string) (ChangeKind, error) {
	kind := ChangeKind(strings.ToLower(strings.TrimSpace(s)))
	if err := kind.Validate(); err != nil {
		return "", err
	}
	return kind, nil
}

func (k ChangeKind) Validate() error {
	switch k {
	case ChangeAdded, ChangeModified, ChangeDeleted:
		return nil
	default:
		return fmt.Errorf("%w: unrecognized change kind %q", ErrInvalidInput, string(k))
	}
}

// Title returns the kind with its first letter upper-cased, as used in descriptions.
func (k ChangeKind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// ChangeRecord is one modified file within one analysis run. Records are produced
// by a change source and never mutated afterwards.
type ChangeRecord struct {
	FilePath  string     `json:"file_path"`
	Kind      ChangeKind `json:"change_kind"`
	Author    string     `json:"author"`
	CommitID  string     `json:"commit_id"`
	Timestamp time.Time  `json:"timestamp"`
	Diff      string     `json:"diff"`
}

// Verdict is the classification engine's output for one ChangeRecord
type Verdict struct {
	BusinessLogicImpacted bool     `json:"business_logic_impacted"`
	Signals               []string `json:"signals"`
	Description           string   `json:"impact_description"`
	// Degraded is set when the syntactic tier could not parse the diff and fell
	// back to lexical matching.
	Degraded bool `json:"degraded,omitempty"`
}

// ClassifiedChange is a ChangeRecord merged with its Verdict
type ClassifiedChange struct {
	ChangeRecord
	Verdict
}

// Selector identifies which changes a change source should return. Both revisions
// empty means "changes since the previous revision"; both set means a range.
type Selector struct {
	Branch string
	From   string
	To     string
}

func (s Selector) IsRange() bool {
	return s.From != "" && s.To != ""
}

func (s Selector) Validate() error {
	if (s.From == "") != (s.To == "") {
		return fmt.Errorf("both start and end revisions are required for a range, got start=%q end=%q", s.From, s.To)
	}
	return nil
}

func (s Selector) String() string {
	if s.IsRange() {
		return s.From + ".." + s.To
	}
	return "HEAD~1..HEAD"
}

// Commit is one entry of a repository's commit history
type Commit struct {
	Hash    string    `json:"hash"`
	Subject string    `json:"subject"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
}
