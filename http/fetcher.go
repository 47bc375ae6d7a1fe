// Package http provides net/http implementations of harvest.Fetcher and
// harvest.ImageFetcher for the dealer site, which serves static pages.
package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/harvest"
	"golang.org/x/net/html/charset"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
// Kept consistent with harvest.TierLocal.PerRequestTimeout.
const DefaultFetchTimeout = 10 * time.Second

// Ensure Fetcher implements harvest.Fetcher at compile time.
var _ harvest.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves listing pages using HTTP requests.
// Bodies are decoded to UTF-8 from the charset declared by the server or
// the page (the dealer site serves EUC-KR).
type Fetcher struct {
	client        *http.Client
	timeout       time.Duration
	userAgent     string
	minBodyLength int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent overrides harvest.DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMinBodyLength sets the shortest body accepted as a real page.
// Defaults to harvest.DefaultMinBodyLength; zero disables the check.
func WithMinBodyLength(n int) Option {
	return func(f *Fetcher) {
		f.minBodyLength = n
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:       DefaultFetchTimeout,
		userAgent:     harvest.DefaultUserAgent,
		minBodyLength: harvest.DefaultMinBodyLength,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the HTML content from the given URL.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := f.get(ctx, url, "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	r, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", harvest.Errorf(harvest.EFETCH, "decoding %s: %v", url, err)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return "", requestError(ctx, url, err)
	}

	html := string(body)
	if err := harvest.DetectChallenge(html, f.minBodyLength); err != nil {
		return "", err
	}

	return html, nil
}

// Close releases resources. For HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}

// get performs a GET with browser-like headers and rejects non-2xx responses.
// The caller closes the response body.
func (f *Fetcher) get(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, harvest.Errorf(harvest.EFETCH, "invalid request for %s: %v", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", harvest.AcceptLanguage(harvest.DefaultLocale))
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, requestError(ctx, url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, harvest.Errorf(harvest.EFETCH, "HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return resp, nil
}

// requestError classifies a transport error. Caller cancellation is
// ECANCELED; timeouts and network failures are EFETCH.
func requestError(ctx context.Context, url string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return harvest.Errorf(harvest.ECANCELED, "fetch %s canceled", url)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err) {
		return harvest.Errorf(harvest.EFETCH, "fetch %s timed out", url)
	}
	return harvest.Errorf(harvest.EFETCH, "HTTP fetch failed: %v", err)
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
