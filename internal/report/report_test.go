package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/agusespa/diffscribe/internal/types"
)

func change(path string, impacted bool, author string) types.ClassifiedChange {
	kind := types.ChangeModified
	description := "Modified file: " + path + "."
	if impacted {
		description += " This change impacts business logic."
	} else {
		description += " This change does not appear to directly impact business logic."
	}

	return types.ClassifiedChange{
		ChangeRecord: types.ChangeRecord{
			FilePath: path,
			Kind:     kind,
			Author:   author,
			CommitID: "abc123",
			Diff:     "+const x = 1;\n",
		},
		Verdict: types.Verdict{
			BusinessLogicImpacted: impacted,
			Description:           description,
		},
	}
}

func TestPartition(t *testing.T) {
	changes := []types.ClassifiedChange{
		change("a.ts", false, "ann"),
		change("b.ts", true, "bob"),
		change("c.ts", false, "ann"),
		change("d.ts", true, "cid"),
	}

	business, other := Partition(changes)

	assert.Equal(t, []string{"b.ts", "d.ts"}, paths(business))
	assert.Equal(t, []string{"a.ts", "c.ts"}, paths(other))
}

func TestPartition_Empty(t *testing.T) {
	business, other := Partition(nil)
	assert.Empty(t, business)
	assert.Empty(t, other)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, []string{"code-changes", "auto-generated"}, Labels([]types.ClassifiedChange{change("a.ts", false, "")}))
	assert.Equal(t, []string{"code-changes", "auto-generated", "business-logic"},
		Labels([]types.ClassifiedChange{change("a.ts", false, ""), change("b.ts", true, ""), change("c.ts", true, "")}))
	assert.Equal(t, []string{"code-changes", "auto-generated"}, Labels(nil))
}

func TestTitle(t *testing.T) {
	now := time.Date(2024, time.March, 5, 23, 10, 0, 0, time.UTC)
	assert.Equal(t, "Code Changes Documentation - 2024-03-05", Title(now))
}

func TestAuthors(t *testing.T) {
	changes := []types.ClassifiedChange{
		change("a.ts", false, "ann"),
		change("b.ts", true, ""),
		change("c.ts", false, "bob"),
		change("d.ts", false, "ann"),
	}
	assert.Equal(t, []string{"ann", "bob"}, Authors(changes))
}

func paths(changes []types.ClassifiedChange) []string {
	var out []string
	for _, c := range changes {
		out = append(out, c.FilePath)
	}
	return out
}
