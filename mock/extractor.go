package mock

import "github.com/fwojciec/harvest"

var _ harvest.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of harvest.Extractor.
type Extractor struct {
	ExtractFn func(doc harvest.Document) (*harvest.Listing, error)
}

func (e *Extractor) Extract(doc harvest.Document) (*harvest.Listing, error) {
	return e.ExtractFn(doc)
}

var _ harvest.Parser = (*Parser)(nil)

// Parser is a mock implementation of harvest.Parser.
type Parser struct {
	ParseFn func(html string, baseURL string) (harvest.Document, error)
}

func (p *Parser) Parse(html string, baseURL string) (harvest.Document, error) {
	return p.ParseFn(html, baseURL)
}

var _ harvest.Document = (*Document)(nil)

// Document is a mock implementation of harvest.Document.
type Document struct {
	URLFn         func() string
	SelectFirstFn func(selector string) harvest.Node
	SelectAllFn   func(selector string) []harvest.Node
}

func (d *Document) URL() string {
	return d.URLFn()
}

func (d *Document) SelectFirst(selector string) harvest.Node {
	return d.SelectFirstFn(selector)
}

func (d *Document) SelectAll(selector string) []harvest.Node {
	return d.SelectAllFn(selector)
}
