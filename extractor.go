package harvest

// Extractor maps a parsed listing page to a Listing.
type Extractor interface {
	// Extract computes every listing field from doc. Missing fields get
	// their sentinel values; only unexpected failures return an error,
	// which always has code EEXTRACT.
	// The returned listing has no SourceURL and no Error.
	Extract(doc Document) (*Listing, error)
}
