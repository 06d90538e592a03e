package pipeline

import (
	"io"

	"github.com/PuerkitoBio/goquery"
)

// Node is the slice of DOM behaviour the extractors rely on. Extractors
// never touch goquery directly so the HTML parser stays swappable.
type Node interface {
	FindAll(selector string) []Node
	Attr(name string) (string, bool)
	Text() string
	HTML() (string, error)
}

// Document is the root node of a parsed page.
type Document interface {
	Node
}

type selectionNode struct {
	sel *goquery.Selection
}

func NewDocument(r io.Reader) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return selectionNode{sel: doc.Selection}, nil
}

// FromSelection wraps an already parsed goquery selection. Only the first
// element of a multi-element selection is used.
func FromSelection(sel *goquery.Selection) Node {
	return selectionNode{sel: sel.First()}
}

func (n selectionNode) FindAll(selector string) []Node {
	found := n.sel.Find(selector)
	out := make([]Node, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		out = append(out, selectionNode{sel: s})
	})
	return out
}

func (n selectionNode) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

func (n selectionNode) Text() string {
	return n.sel.Text()
}

func (n selectionNode) HTML() (string, error) {
	return goquery.OuterHtml(n.sel)
}

func first(n Node, selector string) Node {
	found := n.FindAll(selector)
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

func last(n Node, selector string) Node {
	found := n.FindAll(selector)
	if len(found) == 0 {
		return nil
	}
	return found[len(found)-1]
}

func has(n Node, selector string) bool {
	return len(n.FindAll(selector)) > 0
}
