package extract

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/fwojciec/harvest"
)

// TextRule copies the trimmed text of a single element into a field.
type TextRule struct {
	Name     string
	Selector string
	Sentinel string
	Set      func(l *harvest.Listing, value string)
}

// CategoryRule reads the raw vehicle category.
func CategoryRule() *TextRule {
	return &TextRule{
		Name:     "categoryName",
		Selector: "p.vname",
		Sentinel: harvest.NoCategoryName,
		Set:      func(l *harvest.Listing, v string) { l.CategoryName = v },
	}
}

// RegistrationRule reads the vehicle registration number.
func RegistrationRule() *TextRule {
	return &TextRule{
		Name:     "registrationNumber",
		Selector: "p.vnumber",
		Sentinel: harvest.NoRegistrationNumber,
		Set:      func(l *harvest.Listing, v string) { l.RegistrationNumber = v },
	}
}

func (r *TextRule) Field() string { return r.Name }

func (r *TextRule) Apply(doc harvest.Document, l *harvest.Listing) error {
	value := r.Sentinel
	if text := textOf(doc.SelectAll(r.Selector)); text != "" {
		value = text
	}
	r.Set(l, value)
	return nil
}

// PriceRule reads the highlighted amount in 만원.
type PriceRule struct {
	Selector string
}

func (r *PriceRule) Field() string { return "price" }

func (r *PriceRule) Apply(doc harvest.Document, l *harvest.Listing) error {
	amount := 0
	if n := doc.SelectFirst(r.Selector); n != nil {
		amount = harvest.ParsePriceText(strings.TrimSpace(n.Text()))
	}
	l.Price = harvest.NewPrice(amount)
	return nil
}

var yearRe = regexp.MustCompile(`^\d{4}$`)

// ModelYearRule reads the four-digit year from the first detail entry.
type ModelYearRule struct {
	EntrySelector  string
	NumberSelector string
}

func (r *ModelYearRule) Field() string { return "modelYear" }

func (r *ModelYearRule) Apply(doc harvest.Document, l *harvest.Listing) error {
	l.ModelYear = harvest.NoModelYear

	entry := doc.SelectFirst(r.EntrySelector)
	if entry == nil {
		return nil
	}
	number := entry.SelectFirst(r.NumberSelector)
	if number == nil {
		return nil
	}
	if year := strings.TrimSpace(number.Text()); yearRe.MatchString(year) {
		l.ModelYear = year
	}
	return nil
}

// OdometerRule reads the distinguished number of the first detail entry
// that mentions the distance unit.
type OdometerRule struct {
	EntrySelector  string
	NumberSelector string
	Unit           string
}

func (r *OdometerRule) Field() string { return "odometerReading" }

func (r *OdometerRule) Apply(doc harvest.Document, l *harvest.Listing) error {
	l.Odometer = harvest.NoOdometer

	for _, entry := range doc.SelectAll(r.EntrySelector) {
		numbers := entry.SelectAll(r.NumberSelector)
		if len(numbers) == 0 {
			continue
		}
		reading := textOf(numbers)
		if reading != "" && strings.Contains(entry.Text(), r.Unit) {
			l.Odometer = reading + r.Unit
			return nil
		}
	}
	return nil
}

// DisplayNameRule reads the first non-empty "차명:" label from the
// free-text block, falling back to the category text.
type DisplayNameRule struct {
	Selector         string
	Marker           string
	FallbackSelector string
}

func (r *DisplayNameRule) Field() string { return "displayName" }

func (r *DisplayNameRule) Apply(doc harvest.Document, l *harvest.Listing) error {
	for _, n := range doc.SelectAll(r.Selector) {
		text := strings.TrimSpace(n.Text())
		if !strings.HasPrefix(text, r.Marker) {
			continue
		}
		if name := strings.TrimSpace(strings.TrimPrefix(text, r.Marker)); name != "" {
			l.DisplayName = name
			return nil
		}
	}

	l.DisplayName = harvest.NoCategoryName
	if text := textOf(doc.SelectAll(r.FallbackSelector)); text != "" {
		l.DisplayName = text
	}
	return nil
}

var (
	optionsMarkerRe = regexp.MustCompile(`(?i)▶[\s\x{00a0}]*추가장착[\s\x{00a0}]*옵션[\s\x{00a0}]*::[\s\x{00a0}]*([^<]*)`)
	commaRe         = regexp.MustCompile(`,\s*`)
)

// OptionsRule captures the "▶ 추가장착 옵션 ::" line of the free-text block.
// The capture runs to the next <br> or the end of the block; a marker
// followed by any other tag is ignored.
type OptionsRule struct {
	Selector string
	Marker   *regexp.Regexp
}

// NewOptionsRule creates an OptionsRule for the block matched by selector.
func NewOptionsRule(selector string) *OptionsRule {
	return &OptionsRule{Selector: selector, Marker: optionsMarkerRe}
}

func (r *OptionsRule) Field() string { return "optionsText" }

func (r *OptionsRule) Apply(doc harvest.Document, l *harvest.Listing) error {
	l.Options = harvest.NoOptions

	block := doc.SelectFirst(r.Selector)
	if block == nil {
		return nil
	}
	markup := block.HTML()

	for _, m := range r.Marker.FindAllStringSubmatchIndex(markup, -1) {
		rest := markup[m[1]:]
		if rest != "" && !strings.HasPrefix(strings.ToLower(rest), "<br") {
			continue
		}
		captured := strings.TrimSpace(html.UnescapeString(markup[m[2]:m[3]]))
		if captured == "" {
			return nil
		}
		l.Options = strings.TrimSpace(commaRe.ReplaceAllString(captured, " / "))
		return nil
	}
	return nil
}

var changeImgRe = regexp.MustCompile(`changeImg\(['"](.*?)['"]`)

// ImagesRule collects full-size image URLs from the thumbnail strip.
// The primary pass reads the changeImg(...) hover handlers; the fallback
// pass reads img src attributes that are not thumbnails. Placeholders are
// skipped and the result keeps first-seen order without duplicates.
type ImagesRule struct {
	HoverSelector   string
	HoverAttr       string
	ImageSelector   string
	Placeholder     string
	ThumbnailSuffix string
}

func (r *ImagesRule) Field() string { return "images" }

func (r *ImagesRule) Apply(doc harvest.Document, l *harvest.Listing) error {
	var base *url.URL
	if raw := doc.URL(); raw != "" {
		base, _ = url.Parse(raw)
	}

	images := []string{}
	seen := make(map[string]bool)
	add := func(raw string) {
		resolved := resolve(base, raw)
		if resolved == "" || seen[resolved] || r.isPlaceholder(resolved) {
			return
		}
		seen[resolved] = true
		images = append(images, resolved)
	}

	for _, n := range doc.SelectAll(r.HoverSelector) {
		handler, ok := n.Attr(r.HoverAttr)
		if !ok {
			continue
		}
		m := changeImgRe.FindStringSubmatch(handler)
		if m == nil {
			continue
		}
		add(m[1])
	}

	for _, n := range doc.SelectAll(r.ImageSelector) {
		src, ok := n.Attr("src")
		if !ok || src == "" {
			continue
		}
		if containsFold(src, r.ThumbnailSuffix) {
			continue
		}
		add(src)
	}

	l.Images = images
	return nil
}

func (r *ImagesRule) isPlaceholder(u string) bool {
	return containsFold(u, r.Placeholder)
}

// DescriptionRule renders the free-text block as Markdown. Without a
// converter, or when conversion fails, the plain text is used.
type DescriptionRule struct {
	Selector  string
	Converter harvest.Converter
}

func (r *DescriptionRule) Field() string { return "description" }

func (r *DescriptionRule) Apply(doc harvest.Document, l *harvest.Listing) error {
	l.Description = harvest.NoDescription

	block := doc.SelectFirst(r.Selector)
	if block == nil {
		return nil
	}

	var description string
	if r.Converter != nil {
		if md, err := r.Converter.Convert(block.HTML()); err == nil {
			description = strings.TrimSpace(md)
		}
	}
	if description == "" {
		description = strings.TrimSpace(block.Text())
	}
	if description != "" {
		l.Description = description
	}
	return nil
}

// textOf returns the trimmed combined text of nodes.
func textOf(nodes []harvest.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.Text())
	}
	return strings.TrimSpace(b.String())
}

func resolve(base *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

func containsFold(s, substr string) bool {
	return substr != "" && strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
