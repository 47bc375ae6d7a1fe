package harvest

// Document is a parsed HTML page queried with CSS selectors.
type Document interface {
	Selector

	// URL returns the address the document was fetched from, used to
	// resolve relative links. Empty when unknown.
	URL() string
}

// Selector queries descendants with CSS selectors.
type Selector interface {
	// SelectFirst returns the first match, or nil if nothing matches.
	SelectFirst(selector string) Node

	// SelectAll returns every match in document order.
	SelectAll(selector string) []Node
}

// Node is a single element within a Document.
type Node interface {
	Selector

	// Text returns the combined text of the node and its descendants.
	Text() string

	// Attr returns the named attribute and whether it was present.
	Attr(name string) (string, bool)

	// HTML returns the inner HTML of the node.
	HTML() string
}

// Parser turns raw HTML into a queryable Document.
type Parser interface {
	// Parse parses html fetched from baseURL.
	Parse(html string, baseURL string) (Document, error)
}
