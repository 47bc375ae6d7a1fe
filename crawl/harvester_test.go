package crawl_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/crawl"
	"github.com/fwojciec/harvest/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailURL = "http://www.truck-no1.co.kr/model/DetailView.asp?ShopNo=1&MemberNo=2&OnCarNo="

func urls(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = detailURL + string(rune('a'+i))
	}
	return out
}

// newHarvester wires mocks whose extractor returns a listing carrying the
// fetched html as its registration number.
func newHarvester(fetch func(ctx context.Context, url string) (string, error)) *crawl.Harvester {
	return &crawl.Harvester{
		Fetcher: &mock.Fetcher{FetchFn: fetch},
		Parser: &mock.Parser{
			ParseFn: func(html, baseURL string) (harvest.Document, error) {
				return &mock.Document{URLFn: func() string { return html }}, nil
			},
		},
		Extractor: &mock.Extractor{
			ExtractFn: func(doc harvest.Document) (*harvest.Listing, error) {
				return &harvest.Listing{
					CategoryName:       "카고",
					RegistrationNumber: doc.URL(),
					Price:              harvest.NewPrice(1500),
					Images:             []string{},
				}, nil
			},
		},
	}
}

func request(n int) harvest.BatchRequest {
	return harvest.BatchRequest{
		URLs:              urls(n),
		InterRequestDelay: harvest.MinInterRequestDelay,
		PerRequestTimeout: harvest.MinPerRequestTimeout,
	}
}

func TestHarvester_Run(t *testing.T) {
	t.Parallel()

	t.Run("returns one record per URL in order", func(t *testing.T) {
		t.Parallel()

		h := newHarvester(func(_ context.Context, url string) (string, error) {
			return "reg-" + url[len(url)-1:], nil
		})

		result, err := h.Run(context.Background(), request(3), nil)
		require.NoError(t, err)
		require.Len(t, result.Records, 3)
		for i, r := range result.Records {
			assert.Equal(t, urls(3)[i], r.SourceURL)
			assert.Equal(t, "reg-"+string(rune('a'+i)), r.RegistrationNumber)
			assert.False(t, r.Failed())
		}
		assert.Equal(t, 3, result.Summary.Total)
		assert.Equal(t, 3, result.Summary.Succeeded)
		assert.Equal(t, 0, result.Summary.Failed)
	})

	t.Run("rejects invalid request without fetching", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		h := newHarvester(func(context.Context, string) (string, error) {
			calls.Add(1)
			return "", nil
		})

		_, err := h.Run(context.Background(), harvest.BatchRequest{
			InterRequestDelay: harvest.MinInterRequestDelay,
			PerRequestTimeout: harvest.MinPerRequestTimeout,
		}, nil)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))

		req := request(2)
		req.InterRequestDelay = 10 * time.Millisecond
		_, err = h.Run(context.Background(), req, nil)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))

		assert.Zero(t, calls.Load())
	})

	t.Run("paces requests by the inter-request delay", func(t *testing.T) {
		t.Parallel()

		var starts []time.Time
		h := newHarvester(func(context.Context, string) (string, error) {
			starts = append(starts, time.Now())
			return "reg", nil
		})

		begin := time.Now()
		_, err := h.Run(context.Background(), request(3), nil)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, time.Since(begin), 200*time.Millisecond)
		require.Len(t, starts, 3)
		assert.Less(t, starts[0].Sub(begin), 50*time.Millisecond, "first item should not wait")
		assert.GreaterOrEqual(t, starts[1].Sub(starts[0]), 100*time.Millisecond)
		assert.GreaterOrEqual(t, starts[2].Sub(starts[1]), 100*time.Millisecond)
	})

	t.Run("records budget failures for items that cannot fit", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		h := newHarvester(func(context.Context, string) (string, error) {
			calls.Add(1)
			time.Sleep(300 * time.Millisecond)
			return "reg", nil
		})
		h.Budget = 1500 * time.Millisecond

		result, err := h.Run(context.Background(), request(4), nil)
		require.NoError(t, err)
		require.Len(t, result.Records, 4)

		assert.Equal(t, int32(2), calls.Load())
		assert.False(t, result.Records[0].Failed())
		assert.False(t, result.Records[1].Failed())
		for _, r := range result.Records[2:] {
			assert.Equal(t, harvest.EBUDGET, r.ErrorCode)
			assert.Equal(t, crawl.MsgBudgetInsufficient, r.Error)
			assert.Equal(t, harvest.ErrorValue, r.RegistrationNumber)
		}
		assert.Equal(t, 2, result.Summary.Succeeded)
		assert.Equal(t, 2, result.Summary.Failed)
	})

	t.Run("records expired budget after a slow item", func(t *testing.T) {
		t.Parallel()

		// The first fetch ignores its timeout and outlives the whole budget.
		var calls atomic.Int32
		h := newHarvester(func(context.Context, string) (string, error) {
			calls.Add(1)
			time.Sleep(1300 * time.Millisecond)
			return "reg", nil
		})
		h.Budget = 1200 * time.Millisecond

		result, err := h.Run(context.Background(), request(4), nil)
		require.NoError(t, err)
		require.Len(t, result.Records, 4)

		assert.Equal(t, int32(1), calls.Load(), "no fetch after the budget expired")
		assert.False(t, result.Records[0].Failed())
		for i, r := range result.Records[1:] {
			assert.Equal(t, urls(4)[i+1], r.SourceURL)
			assert.Equal(t, harvest.EBUDGET, r.ErrorCode)
			assert.Equal(t, crawl.MsgBudgetExpired, r.Error)
		}
		assert.Equal(t, 1, result.Summary.Succeeded)
		assert.Equal(t, 3, result.Summary.Failed)
	})

	t.Run("records fetch failures and continues", func(t *testing.T) {
		t.Parallel()

		u := urls(3)
		h := newHarvester(func(_ context.Context, url string) (string, error) {
			if url == u[1] {
				return "", harvest.Errorf(harvest.EFETCH, "HTTP 404: Not Found")
			}
			return "reg", nil
		})

		result, err := h.Run(context.Background(), request(3), nil)
		require.NoError(t, err)

		failed := result.Records[1]
		assert.Equal(t, u[1], failed.SourceURL)
		assert.Equal(t, "HTTP 404: Not Found", failed.Error)
		assert.Equal(t, harvest.EFETCH, failed.ErrorCode)
		assert.Equal(t, harvest.ErrorValue, failed.CategoryName)
		assert.Equal(t, harvest.ErrorValue, failed.ModelYear)
		assert.Equal(t, harvest.ErrorValue, failed.Options)
		assert.Equal(t, 0, failed.Price.AmountTenThousandWon)
		assert.Equal(t, "0만원", failed.Price.Label)
		assert.Empty(t, failed.Images)

		assert.Equal(t, 2, result.Summary.Succeeded)
		assert.Equal(t, 1, result.Summary.Failed)
		assert.Equal(t, result.Summary.Total, result.Summary.Succeeded+result.Summary.Failed)
	})

	t.Run("prefixes extraction failures", func(t *testing.T) {
		t.Parallel()

		h := newHarvester(func(context.Context, string) (string, error) { return "reg", nil })
		h.Extractor = &mock.Extractor{
			ExtractFn: func(harvest.Document) (*harvest.Listing, error) {
				return nil, harvest.Errorf(harvest.EEXTRACT, "extraction failed at price: boom")
			},
		}

		result, err := h.Run(context.Background(), request(1), nil)
		require.NoError(t, err)
		assert.Equal(t, harvest.EEXTRACT, result.Records[0].ErrorCode)
		assert.Equal(t, crawl.ExtractFailurePrefix+"extraction failed at price: boom", result.Records[0].Error)
	})

	t.Run("applies per-item timeout", func(t *testing.T) {
		t.Parallel()

		h := newHarvester(func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})

		begin := time.Now()
		result, err := h.Run(context.Background(), request(1), nil)
		require.NoError(t, err)
		assert.Less(t, time.Since(begin), 2*time.Second)
		assert.Equal(t, harvest.EFETCH, result.Records[0].ErrorCode)
		assert.Contains(t, result.Records[0].Error, "timed out")
	})

	t.Run("records remaining URLs when canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var calls atomic.Int32
		h := newHarvester(func(ctx context.Context, _ string) (string, error) {
			if calls.Add(1) == 2 {
				cancel()
				<-ctx.Done()
				return "", harvest.Errorf(harvest.ECANCELED, "fetch canceled")
			}
			return "reg", nil
		})

		result, err := h.Run(ctx, request(4), nil)
		require.Error(t, err)
		assert.Equal(t, harvest.ECANCELED, harvest.ErrorCode(err))

		require.NotNil(t, result)
		require.Len(t, result.Records, 4)
		assert.False(t, result.Records[0].Failed())
		assert.Equal(t, harvest.ECANCELED, result.Records[1].ErrorCode)
		assert.Equal(t, "fetch canceled", result.Records[1].Error)
		for _, r := range result.Records[2:] {
			assert.Equal(t, harvest.ECANCELED, r.ErrorCode)
			assert.Equal(t, crawl.MsgCanceled, r.Error)
		}
		assert.Equal(t, int32(2), calls.Load())
		assert.Equal(t, 3, result.Summary.Failed)
	})

	t.Run("reports progress after each record", func(t *testing.T) {
		t.Parallel()

		h := newHarvester(func(context.Context, string) (string, error) { return "reg", nil })

		var events []harvest.BatchProgress
		_, err := h.Run(context.Background(), request(3), func(p harvest.BatchProgress) {
			events = append(events, p)
		})
		require.NoError(t, err)

		require.Len(t, events, 3)
		for i, e := range events {
			assert.Equal(t, i+1, e.Completed)
			assert.Equal(t, 3, e.Total)
			assert.Equal(t, urls(3)[i], e.URL)
			require.NotNil(t, e.Listing)
		}
	})
}
