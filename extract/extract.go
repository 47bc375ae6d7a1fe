// Package extract maps parsed listing pages to harvest.Listing values.
//
// Each field is owned by one Rule with its own selectors, fallbacks, and
// sentinel. Rules are independent of each other, so a change in the vendor
// markup for one field only requires replacing that field's rule.
package extract

import (
	"github.com/fwojciec/harvest"
)

// Ensure Extractor implements harvest.Extractor at compile time.
var _ harvest.Extractor = (*Extractor)(nil)

// Rule computes one listing field from a document.
// A rule sets its sentinel when the field is absent; it returns an error
// only for unexpected failures.
type Rule interface {
	Field() string
	Apply(doc harvest.Document, l *harvest.Listing) error
}

// Extractor applies an ordered list of rules.
type Extractor struct {
	rules []Rule
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRules replaces the rule set.
func WithRules(rules ...Rule) Option {
	return func(e *Extractor) {
		e.rules = rules
	}
}

// NewExtractor creates an Extractor using DefaultRules unless overridden.
// conv renders the description block and may be nil.
func NewExtractor(conv harvest.Converter, opts ...Option) *Extractor {
	e := &Extractor{rules: DefaultRules(conv)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultRules returns the rules for the dealer's detail page template.
func DefaultRules(conv harvest.Converter) []Rule {
	return []Rule{
		CategoryRule(),
		RegistrationRule(),
		&PriceRule{Selector: "p.vcash > span.red"},
		&ModelYearRule{EntrySelector: ".car-detail dl dd", NumberSelector: "strong.number"},
		&OdometerRule{EntrySelector: ".car-detail dl dd", NumberSelector: "strong.red.number", Unit: "km"},
		&DisplayNameRule{
			Selector:         ".vcontent p font span b span",
			Marker:           "차명:",
			FallbackSelector: "p.vname",
		},
		NewOptionsRule(".vcontent"),
		&ImagesRule{
			HoverSelector:   `.sumnail ul li img[onmouseover*="changeImg"]`,
			HoverAttr:       "onmouseover",
			ImageSelector:   ".sumnail img",
			Placeholder:     "blank",
			ThumbnailSuffix: "_th",
		},
		&DescriptionRule{Selector: ".vcontent", Converter: conv},
	}
}

// Extract applies every rule to doc. Any rule error or panic is reported as
// a single EEXTRACT error and no listing is returned.
func (e *Extractor) Extract(doc harvest.Document) (listing *harvest.Listing, err error) {
	var field string
	defer func() {
		if r := recover(); r != nil {
			listing = nil
			err = harvest.Errorf(harvest.EEXTRACT, "extraction failed at %s: %v", field, r)
		}
	}()

	l := &harvest.Listing{Images: []string{}}
	for _, rule := range e.rules {
		field = rule.Field()
		if err := rule.Apply(doc, l); err != nil {
			return nil, harvest.Errorf(harvest.EEXTRACT, "extraction failed at %s: %s", field, harvest.ErrorMessage(err))
		}
	}
	fillSentinels(l)

	return l, nil
}

// fillSentinels covers fields that no rule in a custom rule set produced.
func fillSentinels(l *harvest.Listing) {
	set := func(field *string, sentinel string) {
		if *field == "" {
			*field = sentinel
		}
	}
	set(&l.CategoryName, harvest.NoCategoryName)
	set(&l.RegistrationNumber, harvest.NoRegistrationNumber)
	set(&l.DisplayName, l.CategoryName)
	set(&l.ModelYear, harvest.NoModelYear)
	set(&l.Odometer, harvest.NoOdometer)
	set(&l.Options, harvest.NoOptions)
	set(&l.Description, harvest.NoDescription)
	if l.Price.Label == "" {
		l.Price = harvest.NewPrice(l.Price.AmountTenThousandWon)
	}
}
