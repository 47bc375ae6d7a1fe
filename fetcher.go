package harvest

import (
	"context"
	"strings"
)

// DefaultUserAgent is sent by every fetcher; the dealer site rejects
// clients that do not look like a desktop browser.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// DefaultLocale is the browser locale listing pages are requested in.
const DefaultLocale = "ko-KR"

// AcceptLanguage returns the Accept-Language header preferring locale,
// then its base language, then English: "ko-KR" gives
// "ko-KR,ko;q=0.9,en;q=0.8".
func AcceptLanguage(locale string) string {
	lang, _, found := strings.Cut(locale, "-")
	switch {
	case lang == "en" && found:
		return locale + ",en;q=0.9"
	case lang == "en":
		return locale
	case found:
		return locale + "," + lang + ";q=0.9,en;q=0.8"
	default:
		return locale + ",en;q=0.8"
	}
}

// Fetcher retrieves listing pages as HTML.
type Fetcher interface {
	// Fetch retrieves the page at url and returns its HTML decoded to UTF-8.
	// Returns EFETCH for network failures, timeouts, and non-2xx responses,
	// and EBLOCKED when the body looks like an anti-bot challenge page.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources held by the fetcher.
	Close() error
}

// ImageFetcher downloads listing images.
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
