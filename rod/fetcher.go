// Package rod provides a headless Chrome implementation of harvest.Fetcher
// for listing pages that only render behind a JavaScript challenge.
package rod

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout bounds a single page load when the caller's context
// has no earlier deadline.
const DefaultFetchTimeout = 10 * time.Second

// Ensure Fetcher implements harvest.Fetcher at compile time.
var _ harvest.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager       *BrowserManager
	timeout       time.Duration
	userAgent     string
	minBodyLength int
	maxPages      int64
	closed        atomic.Bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout sets the per-page timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent overrides harvest.DefaultUserAgent. An empty string keeps
// the browser default.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMinBodyLength sets the shortest rendered page accepted as real.
// Zero disables the check.
func WithMinBodyLength(n int) Option {
	return func(f *Fetcher) {
		f.minBodyLength = n
	}
}

// WithRecycleAfter sets how many pages are rendered before the browser is
// restarted.
func WithRecycleAfter(n int64) Option {
	return func(f *Fetcher) {
		f.maxPages = n
	}
}

// NewFetcher creates a new Fetcher that launches a headless Chrome browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:       DefaultFetchTimeout,
		userAgent:     harvest.DefaultUserAgent,
		minBodyLength: harvest.DefaultMinBodyLength,
		maxPages:      DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(f)
	}

	manager, err := NewBrowserManager(
		WithMaxPages(f.maxPages),
		WithBrowserLocale(harvest.DefaultLocale),
		WithBrowserUserAgent(f.userAgent),
	)
	if err != nil {
		return nil, err
	}
	f.manager = manager

	return f, nil
}

// Fetch navigates to the URL and returns the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.closed.Load() {
		return "", harvest.Errorf(harvest.EINVALID, "fetcher is closed")
	}
	if err := ctx.Err(); err != nil {
		return "", pageError(ctx, url, err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	browser := f.manager.Browser()
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", harvest.Errorf(harvest.EFETCH, "opening page: %v", err)
	}
	defer page.Close()
	defer f.manager.IncrementPageCount()

	page = page.Context(ctx)

	if f.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      f.userAgent,
			AcceptLanguage: harvest.AcceptLanguage(harvest.DefaultLocale),
		}); err != nil {
			return "", pageError(ctx, url, err)
		}
	}

	status := 0
	waitStatus := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		status = e.Response.Status
		return true
	})

	if err := page.Navigate(url); err != nil {
		return "", pageError(ctx, url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", pageError(ctx, url, err)
	}
	waitStatus()

	if status != 0 && (status < 200 || status > 299) {
		return "", harvest.Errorf(harvest.EFETCH, "HTTP %d", status)
	}

	html, err := page.HTML()
	if err != nil {
		return "", pageError(ctx, url, err)
	}

	if err := harvest.DetectChallenge(html, f.minBodyLength); err != nil {
		f.manager.Discard()
		return "", err
	}

	return html, nil
}

// pageError classifies a browser error, keeping context errors wrapped so
// callers can match them.
func pageError(ctx context.Context, url string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return &fetchError{code: harvest.ECANCELED, msg: "fetch " + url + " canceled", err: context.Canceled}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &fetchError{code: harvest.EFETCH, msg: "fetch " + url + " timed out", err: context.DeadlineExceeded}
	}
	return harvest.Errorf(harvest.EFETCH, "browser fetch failed: %v", err)
}

// fetchError carries a harvest error code while unwrapping to the
// underlying context error.
type fetchError struct {
	code string
	msg  string
	err  error
}

func (e *fetchError) Error() string { return e.msg }
func (e *fetchError) Unwrap() []error {
	return []error{harvest.Errorf(e.code, "%s", e.msg), e.err}
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.manager.Close()
}

// LauncherPID returns the process ID of the browser launcher.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}
