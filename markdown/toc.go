package markdown

import (
	"strconv"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

const tocMarker = "[TOC]"

// tocTransformer replaces a paragraph consisting only of [TOC] with a list
// of links to the document's headings.
type tocTransformer struct{}

func (tocTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()

	var markers []ast.Node
	var headings []*ast.Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Paragraph:
			if string(node.Text(source)) == tocMarker {
				markers = append(markers, node)
			}
			return ast.WalkSkipChildren, nil
		case *ast.Heading:
			headings = append(headings, node)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	for _, m := range markers {
		parent := m.Parent()
		if len(headings) == 0 {
			parent.RemoveChild(parent, m)
			continue
		}
		parent.ReplaceChild(parent, m, tocList(headings, source))
	}
}

func tocList(headings []*ast.Heading, source []byte) *ast.List {
	list := ast.NewList('-')
	list.IsTight = true
	list.SetAttributeString("class", []byte("toc"))
	for _, h := range headings {
		item := ast.NewListItem(2)
		item.SetAttributeString("class", []byte("toc-h"+strconv.Itoa(h.Level)))
		block := ast.NewTextBlock()
		label := ast.NewString(h.Text(source))
		if id, ok := h.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				link := ast.NewLink()
				link.Destination = append([]byte("#"), b...)
				link.AppendChild(link, label)
				block.AppendChild(block, link)
				item.AppendChild(item, block)
				list.AppendChild(list, item)
				continue
			}
		}
		block.AppendChild(block, label)
		item.AppendChild(item, block)
		list.AppendChild(list, item)
	}
	return list
}
