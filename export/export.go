// Package export renders parsed documents for downstream indexing surfaces.
package export

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	openparse "github.com/DivinciApp/open-parse"
)

// Markdown renders the document as Markdown: nodes become paragraphs
// separated by blank lines, and short bold-font nodes render as headings.
func Markdown(doc openparse.ParsedDocument) string {
	var b strings.Builder
	for i, n := range doc.Nodes {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if isHeadingNode(n) {
			b.WriteString("## ")
		}
		b.WriteString(n.Text)
	}
	return b.String()
}

// HTML renders the document as HTML via goldmark (GFM tables and
// strikethrough enabled), using the Markdown rendering as input.
func HTML(doc openparse.ParsedDocument) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(doc)), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func isHeadingNode(n openparse.Node) bool {
	return n.Font.Bold && n.Tokens <= 12 && !strings.ContainsAny(n.Text, "\n")
}
