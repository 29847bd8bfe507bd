// Package parser converts a raw Markdown body into an ordered Block sequence.
//
// The parser is lenient in the same places common Markdown tooling is: heading
// ranks do not have to nest strictly, and unknown constructs degrade to
// paragraphs. The one structural error it enforces is an unterminated fenced
// region, which fails the document with MalformedBlockError.
package parser

import (
	"bytes"
	"sort"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	gmparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Parse produces the ordered Block sequence for a Markdown body (front matter
// already removed). On a structural error no Block sequence is returned.
func Parse(body []byte) ([]Block, error) {
	if err := checkFences(body); err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	ctx := gmparser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), gmparser.WithContext(ctx))

	blocks := make([]Block, 0)
	for child := root.FirstChild(); child != nil; child = child.NextSibling() {
		if b, ok := convertNode(child, body); ok {
			blocks = append(blocks, b)
		}
	}

	// Reference definitions live in the parse context, not the AST. They have
	// no visible text, so they are appended as standalone link blocks.
	refs := ctx.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		blocks = append(blocks, Block{
			Kind: KindLink,
			Links: []Link{{
				Kind:        LinkKindReferenceDefinition,
				Destination: string(ref.Destination()),
				Text:        string(ref.Label()),
			}},
		})
	}

	return blocks, nil
}

func convertNode(n gmast.Node, source []byte) (Block, bool) {
	switch node := n.(type) {
	case *gmast.Heading:
		return Block{
			Kind:  KindHeading,
			Rank:  node.Level,
			Text:  textOf(node, source),
			Links: linksOf(node, source),
		}, true

	case *gmast.Paragraph, *gmast.TextBlock, *gmast.Blockquote:
		return Block{
			Kind:  KindParagraph,
			Text:  textOf(n, source),
			Links: linksOf(n, source),
		}, true

	case *gmast.List:
		items := make([]string, 0)
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			items = append(items, textOf(item, source))
		}
		return Block{
			Kind:    KindList,
			Ordered: node.IsOrdered(),
			Items:   items,
			Links:   linksOf(node, source),
		}, true

	case *extast.Table:
		return convertTable(node, source), true

	case *gmast.FencedCodeBlock:
		return Block{
			Kind:    KindFencedExample,
			Label:   string(node.Language(source)),
			Literal: literalOf(node, source),
		}, true

	case *gmast.CodeBlock:
		// Indented code blocks carry no language label.
		return Block{
			Kind:    KindFencedExample,
			Literal: literalOf(node, source),
		}, true

	case *gmast.HTMLBlock:
		return Block{
			Kind: KindParagraph,
			Text: literalOf(node, source),
		}, true

	case *gmast.ThematicBreak:
		return Block{}, false

	default:
		return Block{}, false
	}
}

func convertTable(table *extast.Table, source []byte) Block {
	block := Block{Kind: KindTable, Links: linksOf(table, source)}

	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		cells := make([]string, 0)
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, textOf(cell, source))
		}
		if _, isHeader := row.(*extast.TableHeader); isHeader {
			block.Columns = cells
			continue
		}
		block.Rows = append(block.Rows, cells)
	}

	return block
}

// textOf collects the visible text of a node and its descendants.
func textOf(n gmast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = gmast.Walk(n, func(child gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *gmast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *gmast.String:
			buf.Write(t.Value)
		case *gmast.AutoLink:
			buf.Write(t.Label(source))
		}
		return gmast.WalkContinue, nil
	})
	return buf.String()
}

// linksOf collects link occurrences within a node, in reading order.
func linksOf(n gmast.Node, source []byte) []Link {
	var links []Link
	_ = gmast.Walk(n, func(child gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := child.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{
				Kind:        LinkKindAuto,
				Destination: string(node.URL(source)),
				Text:        string(node.Label(source)),
			})
		case *gmast.Image:
			links = append(links, Link{
				Kind:        LinkKindImage,
				Destination: string(node.Destination),
				Text:        textOf(node, source),
			})
		case *gmast.Link:
			// Goldmark resolves reference-style links to a Link node with a
			// Destination, so these cover both inline and reference usage.
			links = append(links, Link{
				Kind:        LinkKindInline,
				Destination: string(node.Destination),
				Text:        textOf(node, source),
			})
		}
		return gmast.WalkContinue, nil
	})
	return links
}

// literalOf returns the exact source bytes of a node's content lines.
func literalOf(n gmast.Node, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}
