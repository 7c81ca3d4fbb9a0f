package report

import (
	"time"

	"github.com/agusespa/diffscribe/internal/types"
)

const (
	LabelCodeChanges   = "code-changes"
	LabelAutoGenerated = "auto-generated"
	LabelBusinessLogic = "business-logic"

	titlePrefix = "Code Changes Documentation"
)

// Page is a rendered report ready to be published. Title is the upsert key.
type Page struct {
	Title  string
	Body   string
	Labels []string
}

// Meta carries the run-level values a renderer stamps into a page
type Meta struct {
	Generated time.Time
	RunID     string
}

type Renderer interface {
	Render(changes []types.ClassifiedChange, meta Meta) Page
}

// Partition splits changes into business-logic and other changes, keeping input
// order inside each group.
func Partition(changes []types.ClassifiedChange) (business, other []types.ClassifiedChange) {
	for _, change := range changes {
		if change.BusinessLogicImpacted {
			business = append(business, change)
		} else {
			other = append(other, change)
		}
	}
	return business, other
}

func Labels(changes []types.ClassifiedChange) []string {
	labels := []string{LabelCodeChanges, LabelAutoGenerated}
	for _, change := range changes {
		if change.BusinessLogicImpacted {
			return append(labels, LabelBusinessLogic)
		}
	}
	return labels
}

func Title(now time.Time) string {
	return titlePrefix + " - " + now.Format(time.DateOnly)
}

// Authors returns the distinct non-empty authors in first-seen order
func Authors(changes []types.ClassifiedChange) []string {
	seen := make(map[string]bool)
	var authors []string
	for _, change := range changes {
		if change.Author == "" || seen[change.Author] {
			continue
		}
		seen[change.Author] = true
		authors = append(authors, change.Author)
	}
	return authors
}
