package report

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agusespa/diffscribe/internal/types"
)

type frontMatter struct {
	Title   string   `yaml:"title"`
	Date    string   `yaml:"date"`
	Authors []string `yaml:"authors"`
	Tags    []string `yaml:"tags"`
}

// MDXRenderer renders a page as an MDX document with YAML front matter
type MDXRenderer struct{}

func NewMDXRenderer() *MDXRenderer {
	return &MDXRenderer{}
}

func (r *MDXRenderer) Render(changes []types.ClassifiedChange, meta Meta) Page {
	title := Title(meta.Generated)
	labels := Labels(changes)
	business, other := Partition(changes)

	var b strings.Builder
	b.WriteString(renderFrontMatter(changes, title, meta.Generated, len(business) > 0))

	b.WriteString("# Code Changes Documentation\n\n")
	fmt.Fprintf(&b, "Documentation generated on %s for recent code changes.\n\n", meta.Generated.Format("January 2, 2006"))

	b.WriteString("## Summary\n\n")
	b.WriteString(":::info\n")
	fmt.Fprintf(&b, "Total changes detected: %d\n", len(changes))
	fmt.Fprintf(&b, "Business logic changes: %d\n", len(business))
	b.WriteString(":::\n\n")

	b.WriteString("## Business Logic Changes\n\n")
	writeMDXList(&b, business, "No business logic changes detected.")
	b.WriteString("## Other Changes\n\n")
	writeMDXList(&b, other, "No other changes detected.")

	b.WriteString("## Detailed Changes\n")
	for _, change := range changes {
		impact := "Other"
		if change.BusinessLogicImpacted {
			impact = "Business Logic"
		}

		fmt.Fprintf(&b, "\n### %s\n\n", mdxEscape(change.FilePath))
		fmt.Fprintf(&b, "* Type: %s\n", change.Kind)
		fmt.Fprintf(&b, "* Author: %s\n", mdxEscape(change.Author))
		fmt.Fprintf(&b, "* Impact: %s\n", impact)
		fmt.Fprintf(&b, "* Description: %s\n\n", mdxEscape(change.Description))

		fence := codeFence(change.Diff)
		fmt.Fprintf(&b, "%sdiff\n%s", fence, change.Diff)
		if !strings.HasSuffix(change.Diff, "\n") {
			b.WriteString("\n")
		}
		b.WriteString(fence + "\n")
	}

	if meta.RunID != "" {
		fmt.Fprintf(&b, "\n{/* run %s */}\n", meta.RunID)
	}

	return Page{Title: title, Body: b.String(), Labels: labels}
}

func renderFrontMatter(changes []types.ClassifiedChange, title string, generated time.Time, business bool) string {
	tags := []string{LabelCodeChanges}
	if business {
		tags = append(tags, LabelBusinessLogic)
	}
	tags = append(tags, "documentation")

	authors := Authors(changes)
	if authors == nil {
		authors = []string{}
	}

	out, err := yaml.Marshal(frontMatter{
		Title:   title,
		Date:    generated.UTC().Format(time.RFC3339),
		Authors: authors,
		Tags:    tags,
	})
	if err != nil {
		// only plain strings are marshalled
		panic(fmt.Sprintf("BUG: failed to marshal front matter: %v", err))
	}
	return "---\n" + string(out) + "---\n\n"
}

func writeMDXList(b *strings.Builder, changes []types.ClassifiedChange, empty string) {
	if len(changes) == 0 {
		b.WriteString(empty + "\n\n")
		return
	}
	for _, change := range changes {
		fmt.Fprintf(b, "- **%s** - %s\n", mdxEscape(change.FilePath), mdxEscape(change.Description))
	}
	b.WriteString("\n")
}

var mdxReplacer = strings.NewReplacer(
	`\`, `\\`,
	"{", `\{`,
	"}", `\}`,
	"<", `\<`,
	">", `\>`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
)

// mdxEscape escapes text placed outside code blocks so MDX reads it literally
func mdxEscape(s string) string {
	return mdxReplacer.Replace(s)
}

// codeFence returns a backtick fence longer than any backtick run inside text
func codeFence(text string) string {
	longest, run := 0, 0
	for _, r := range text {
		if r == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return strings.Repeat("`", max(3, longest+1))
}
