package parser

import "strings"

// BlockKind enumerates the structural element kinds a body parses into.
type BlockKind string

const (
	KindHeading       BlockKind = "heading"
	KindParagraph     BlockKind = "paragraph"
	KindList          BlockKind = "list"
	KindTable         BlockKind = "table"
	KindFencedExample BlockKind = "fenced_example"
	KindLink          BlockKind = "link"
)

// LinkKind distinguishes how a link appeared in the source.
type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindAuto                LinkKind = "auto"
	LinkKindImage               LinkKind = "image"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

// Link is a link occurrence inside a block.
type Link struct {
	Kind        LinkKind
	Destination string
	Text        string
}

// Block is one parsed structural element of a document body. Blocks form an
// ordered sequence matching reading order.
//
// Kind selects which fields are populated:
//
//	heading        Rank, Text, Links
//	paragraph      Text, Links
//	list           Ordered, Items, Links
//	table          Columns, Rows, Links
//	fenced_example Label, Literal
//	link           Links (standalone reference definitions, no visible text)
type Block struct {
	Kind BlockKind

	// Heading
	Rank int

	// Visible text content (heading, paragraph, list items joined)
	Text string

	// List
	Ordered bool
	Items   []string

	// Table (rows × named columns)
	Columns []string
	Rows    [][]string

	// FencedExample: Label is the nominal language tag, Literal is the exact
	// byte content between the fence markers. Never executed, never reflowed.
	Label   string
	Literal string

	// Link occurrences within this block, in reading order.
	Links []Link
}

// VisibleText returns the concatenated literal text of a block sequence.
// Fenced-example content is included verbatim.
func VisibleText(blocks []Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		switch b.Kind {
		case KindFencedExample:
			sb.WriteString(b.Literal)
		case KindList:
			for _, item := range b.Items {
				sb.WriteString(item)
				sb.WriteString("\n")
			}
		case KindTable:
			for _, col := range b.Columns {
				sb.WriteString(col)
				sb.WriteString("\n")
			}
			for _, row := range b.Rows {
				for _, cell := range row {
					sb.WriteString(cell)
					sb.WriteString("\n")
				}
			}
		case KindLink:
			// Reference definitions have no visible text.
		default:
			sb.WriteString(b.Text)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// AllLinks returns every link occurrence in a block sequence, in order.
func AllLinks(blocks []Block) []Link {
	var links []Link
	for _, b := range blocks {
		links = append(links, b.Links...)
	}
	return links
}
