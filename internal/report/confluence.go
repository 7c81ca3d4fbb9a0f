package report

import (
	"fmt"
	"html"
	"strings"

	"github.com/agusespa/diffscribe/internal/syntax"
	"github.com/agusespa/diffscribe/internal/types"
)

const confluenceNotice = "This documentation was automatically generated to track code changes that affect business logic."

// ConfluenceRenderer renders a page in Confluence storage format
type ConfluenceRenderer struct{}

func NewConfluenceRenderer() *ConfluenceRenderer {
	return &ConfluenceRenderer{}
}

func (r *ConfluenceRenderer) Render(changes []types.ClassifiedChange, meta Meta) Page {
	title := Title(meta.Generated)
	labels := Labels(changes)
	business, other := Partition(changes)

	var b strings.Builder
	b.WriteString(`<ac:structured-macro ac:name="info"><ac:rich-text-body>`)
	fmt.Fprintf(&b, "<p>%s</p>", confluenceNotice)
	b.WriteString("</ac:rich-text-body></ac:structured-macro>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", escape(title))

	b.WriteString("<h2>Business Logic Changes</h2>\n")
	writeConfluenceSection(&b, business, "No business logic changes detected.")
	b.WriteString("<h2>Other Changes</h2>\n")
	writeConfluenceSection(&b, other, "No other changes detected.")

	writeCodeMacro(&b, "none", "Labels: "+strings.Join(labels, ", "))
	if meta.RunID != "" {
		fmt.Fprintf(&b, "<p><em>Run %s</em></p>\n", escape(meta.RunID))
	}

	return Page{Title: title, Body: b.String(), Labels: labels}
}

func writeConfluenceSection(b *strings.Builder, changes []types.ClassifiedChange, empty string) {
	if len(changes) == 0 {
		fmt.Fprintf(b, "<p>%s</p>\n", empty)
		return
	}

	b.WriteString("<table><thead><tr><th>File</th><th>Type</th><th>Description</th><th>Author</th></tr></thead><tbody>\n")
	for _, change := range changes {
		fmt.Fprintf(b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			escape(change.FilePath), escape(string(change.Kind)), escape(change.Description), escape(change.Author))
	}
	b.WriteString("</tbody></table>\n")

	b.WriteString("<h3>Detailed Changes</h3>\n")
	for _, change := range changes {
		fmt.Fprintf(b, "<h4>%s</h4>\n", escape(change.FilePath))
		language := syntax.LanguageName(change.FilePath)
		if language == "" {
			language = "none"
		}
		writeCodeMacro(b, language, change.Diff)
	}
}

func writeCodeMacro(b *strings.Builder, language, text string) {
	b.WriteString(`<ac:structured-macro ac:name="code">`)
	fmt.Fprintf(b, `<ac:parameter ac:name="language">%s</ac:parameter>`, escape(language))
	fmt.Fprintf(b, "<ac:plain-text-body><![CDATA[%s]]></ac:plain-text-body>", cdata(text))
	b.WriteString("</ac:structured-macro>\n")
}

func escape(s string) string {
	return html.EscapeString(s)
}

// cdata splits any "]]>" so the text cannot terminate its CDATA section
func cdata(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}
