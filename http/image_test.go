package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/fwojciec/harvest"
	harvesthttp "github.com/fwojciec/harvest/http"
	"github.com/fwojciec/harvest/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageFetcher_FetchImage(t *testing.T) {
	t.Parallel()

	t.Run("returns image bytes", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte{0xff, 0xd8, 0xff, 0xe0})
		}))
		defer server.Close()

		data, err := harvesthttp.NewImageFetcher(nil).FetchImage(context.Background(), server.URL+"/a.jpg")
		require.NoError(t, err)
		assert.Equal(t, []byte{0xff, 0xd8, 0xff, 0xe0}, data)
	})

	t.Run("waits on limiter keyed by host", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("img"))
		}))
		defer server.Close()

		var domains []string
		limiter := &mock.DomainLimiter{
			WaitFn: func(_ context.Context, domain string) error {
				domains = append(domains, domain)
				return nil
			},
		}

		_, err := harvesthttp.NewImageFetcher(limiter).FetchImage(context.Background(), server.URL+"/a.jpg")
		require.NoError(t, err)

		u, err := url.Parse(server.URL)
		require.NoError(t, err)
		assert.Equal(t, []string{u.Hostname()}, domains)
	})

	t.Run("returns EFETCH for server errors", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := harvesthttp.NewImageFetcher(nil).FetchImage(context.Background(), server.URL+"/a.jpg")
		require.Error(t, err)
		assert.Equal(t, harvest.EFETCH, harvest.ErrorCode(err))
	})

	t.Run("returns EFETCH for empty bodies", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer server.Close()

		_, err := harvesthttp.NewImageFetcher(nil).FetchImage(context.Background(), server.URL+"/a.jpg")
		assert.Equal(t, harvest.EFETCH, harvest.ErrorCode(err))
	})
}
