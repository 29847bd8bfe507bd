// Package render projects a parsed Block sequence into HTML.
//
// Rendering is stateless: output depends only on the input blocks and the
// static Options. Fenced-example text is escaped but never reflowed; the
// highlight theme is emitted as markup for an external syntax highlighter.
package render

import (
	"fmt"
	"html"
	"strings"

	"git.home.luguber.info/inful/contentpress/internal/parser"

	"git.home.luguber.info/inful/contentpress/internal/document"
)

// Options is the static renderer configuration.
type Options struct {
	// HighlightTheme names the syntax-highlight theme emitted as a data
	// attribute on fenced examples. The highlighter itself runs client-side.
	HighlightTheme string

	// ClassPrefix namespaces the CSS classes the renderer emits.
	ClassPrefix string
}

func (o Options) withDefaults() Options {
	if o.HighlightTheme == "" {
		o.HighlightTheme = "github"
	}
	if o.ClassPrefix == "" {
		o.ClassPrefix = "cp"
	}
	return o
}

// Blocks renders a block sequence into an HTML fragment, preserving block
// order, table structure and fenced-example content.
func Blocks(blocks []parser.Block, opts Options) string {
	opts = opts.withDefaults()

	var sb strings.Builder
	for _, b := range blocks {
		switch b.Kind {
		case parser.KindHeading:
			rank := b.Rank
			if rank < 1 || rank > 6 {
				rank = 6
			}
			fmt.Fprintf(&sb, "<h%d>%s</h%d>\n", rank, html.EscapeString(b.Text), rank)

		case parser.KindParagraph:
			fmt.Fprintf(&sb, "<p>%s</p>\n", html.EscapeString(b.Text))

		case parser.KindList:
			tag := "ul"
			if b.Ordered {
				tag = "ol"
			}
			fmt.Fprintf(&sb, "<%s>\n", tag)
			for _, item := range b.Items {
				fmt.Fprintf(&sb, "<li>%s</li>\n", html.EscapeString(item))
			}
			fmt.Fprintf(&sb, "</%s>\n", tag)

		case parser.KindTable:
			renderTable(&sb, b)

		case parser.KindFencedExample:
			renderFencedExample(&sb, b, opts)

		case parser.KindLink:
			// Reference definitions produce no visible output.
		}
	}
	return sb.String()
}

func renderTable(sb *strings.Builder, b parser.Block) {
	sb.WriteString("<table>\n<thead>\n<tr>\n")
	for _, col := range b.Columns {
		fmt.Fprintf(sb, "<th>%s</th>\n", html.EscapeString(col))
	}
	sb.WriteString("</tr>\n</thead>\n<tbody>\n")
	for _, row := range b.Rows {
		sb.WriteString("<tr>\n")
		for _, cell := range row {
			fmt.Fprintf(sb, "<td>%s</td>\n", html.EscapeString(cell))
		}
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("</tbody>\n</table>\n")
}

func renderFencedExample(sb *strings.Builder, b parser.Block, opts Options) {
	class := opts.ClassPrefix + "-example"
	codeClass := ""
	if b.Label != "" {
		codeClass = fmt.Sprintf(` class="language-%s"`, html.EscapeString(b.Label))
	}
	fmt.Fprintf(sb, `<pre class="%s" data-highlight-theme="%s"><code%s>%s</code></pre>`,
		html.EscapeString(class),
		html.EscapeString(opts.HighlightTheme),
		codeClass,
		html.EscapeString(b.Literal))
	sb.WriteString("\n")
}

// Page wraps a rendered fragment into a complete HTML page for a document.
func Page(doc *document.Document, blocks []parser.Block, opts Options) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&sb, `<html lang="%s">`+"\n", html.EscapeString(doc.Locale))
	sb.WriteString("<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(doc.Title))
	if doc.Description != "" {
		fmt.Fprintf(&sb, `<meta name="description" content="%s">`+"\n", html.EscapeString(doc.Description))
	}
	sb.WriteString("</head>\n<body>\n<main>\n")
	sb.WriteString(Blocks(blocks, opts))
	sb.WriteString("</main>\n</body>\n</html>\n")
	return sb.String()
}
