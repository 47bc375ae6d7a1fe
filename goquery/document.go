// Package goquery implements harvest.Parser on top of PuerkitoBio/goquery.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/harvest"
)

// Ensure Parser implements harvest.Parser at compile time.
var _ harvest.Parser = (*Parser)(nil)

// Parser parses HTML into goquery-backed documents.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses html. baseURL may be empty; when set it must be absolute.
func (p *Parser) Parse(html string, baseURL string) (harvest.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, harvest.Errorf(harvest.EEXTRACT, "failed to parse HTML: %v", err)
	}

	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, harvest.Errorf(harvest.EINVALID, "invalid base URL: %v", err)
		}
		doc.Url = u
	}

	return &Document{doc: doc}, nil
}

// Document adapts *goquery.Document to harvest.Document.
type Document struct {
	doc *goquery.Document
}

// URL returns the document's base URL, or "" when unknown.
func (d *Document) URL() string {
	if d.doc.Url == nil {
		return ""
	}
	return d.doc.Url.String()
}

// SelectFirst returns the first element matching selector.
func (d *Document) SelectFirst(selector string) harvest.Node {
	return first(d.doc.Find(selector))
}

// SelectAll returns every element matching selector.
func (d *Document) SelectAll(selector string) []harvest.Node {
	return all(d.doc.Find(selector))
}

// Node adapts a single-element *goquery.Selection to harvest.Node.
type Node struct {
	sel *goquery.Selection
}

// Text returns the combined text of the element and its descendants.
func (n *Node) Text() string {
	return n.sel.Text()
}

// Attr returns the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

// HTML returns the inner HTML, or "" if it cannot be rendered.
func (n *Node) HTML() string {
	html, err := n.sel.Html()
	if err != nil {
		return ""
	}
	return html
}

// SelectFirst returns the first descendant matching selector.
func (n *Node) SelectFirst(selector string) harvest.Node {
	return first(n.sel.Find(selector))
}

// SelectAll returns every descendant matching selector.
func (n *Node) SelectAll(selector string) []harvest.Node {
	return all(n.sel.Find(selector))
}

// first returns nil rather than a typed nil so callers can compare the
// interface against nil.
func first(sel *goquery.Selection) harvest.Node {
	if sel.Length() == 0 {
		return nil
	}
	return &Node{sel: sel.First()}
}

func all(sel *goquery.Selection) []harvest.Node {
	nodes := make([]harvest.Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &Node{sel: s})
	})
	return nodes
}
