package http

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/fwojciec/harvest"
)

// MaxImageBytes caps a single downloaded image.
const MaxImageBytes = 20 << 20

// Ensure ImageFetcher implements harvest.ImageFetcher at compile time.
var _ harvest.ImageFetcher = (*ImageFetcher)(nil)

// ImageFetcher downloads listing photos with the same browser headers as
// Fetcher. Requests are paced per host when a limiter is set.
type ImageFetcher struct {
	fetcher *Fetcher
	limiter harvest.DomainLimiter
}

// NewImageFetcher creates an ImageFetcher. limiter may be nil.
func NewImageFetcher(limiter harvest.DomainLimiter, opts ...Option) *ImageFetcher {
	return &ImageFetcher{
		fetcher: NewFetcher(opts...),
		limiter: limiter,
	}
}

// FetchImage returns the raw bytes at url.
func (f *ImageFetcher) FetchImage(ctx context.Context, rawURL string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, host(rawURL)); err != nil {
			return nil, requestError(ctx, rawURL, err)
		}
	}

	resp, err := f.fetcher.get(ctx, rawURL, "image/avif,image/webp,image/*,*/*;q=0.8")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, requestError(ctx, rawURL, err)
	}
	if len(data) > MaxImageBytes {
		return nil, harvest.Errorf(harvest.EFETCH, "image %s exceeds %d bytes", rawURL, MaxImageBytes)
	}
	if len(data) == 0 {
		return nil, harvest.Errorf(harvest.EFETCH, "image %s is empty", rawURL)
	}

	return data, nil
}

func host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.ToLower(u.Hostname())
}
