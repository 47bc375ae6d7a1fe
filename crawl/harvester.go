// Package crawl orchestrates batch harvesting of listing pages.
// Items are processed strictly one after another with pacing between
// requests, a per-item timeout and an overall time budget.
package crawl

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
)

// Record messages for items that were never attempted.
const (
	MsgBudgetExpired      = "전체 실행 시간 초과로 인한 중단"
	MsgBudgetInsufficient = "남은 실행 시간 부족으로 인한 중단"
	MsgCanceled           = "요청 취소로 인한 중단"
)

// ExtractFailurePrefix is prepended to parse and extraction failures.
const ExtractFailurePrefix = "파싱 실패: "

var _ harvest.Harvester = (*Harvester)(nil)

// Harvester fetches and extracts a batch of listing URLs serially.
type Harvester struct {
	Fetcher   harvest.Fetcher
	Parser    harvest.Parser
	Extractor harvest.Extractor

	// Budget bounds the whole run. Zero means unbounded.
	Budget time.Duration

	// Logger receives one entry per item. Nil discards.
	Logger *slog.Logger
}

// Run processes req.URLs in order and returns one record per URL.
func (h *Harvester) Run(ctx context.Context, req harvest.BatchRequest, progress harvest.BatchProgressFunc) (*harvest.BatchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	logger := h.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	start := time.Now()
	var deadline time.Time
	if h.Budget > 0 {
		deadline = start.Add(h.Budget)
	}

	total := len(req.URLs)
	records := make([]*harvest.Listing, 0, total)
	record := func(l *harvest.Listing) {
		records = append(records, l)
		if progress != nil {
			progress(harvest.BatchProgress{
				URL:       l.SourceURL,
				Completed: len(records),
				Total:     total,
				Listing:   l,
			})
		}
	}
	// abandon records every URL from i on with the same error.
	abandon := func(i int, code, msg string) {
		for _, u := range req.URLs[i:] {
			l := harvest.NewErrorListing(u, msg)
			l.ErrorCode = code
			record(l)
		}
	}

	var runErr error
	for i, u := range req.URLs {
		if ctx.Err() != nil {
			abandon(i, harvest.ECANCELED, MsgCanceled)
			runErr = harvest.Errorf(harvest.ECANCELED, "batch canceled after %d of %d", i, total)
			break
		}

		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				logger.Warn("budget expired", "url", u, "remaining", total-i)
				abandon(i, harvest.EBUDGET, MsgBudgetExpired)
				break
			}
			if remaining < req.PerRequestTimeout+req.InterRequestDelay {
				logger.Warn("budget insufficient", "url", u, "remaining", total-i, "left", remaining)
				abandon(i, harvest.EBUDGET, MsgBudgetInsufficient)
				break
			}
		}

		if i > 0 {
			if err := sleep(ctx, req.InterRequestDelay); err != nil {
				abandon(i, harvest.ECANCELED, MsgCanceled)
				runErr = harvest.Errorf(harvest.ECANCELED, "batch canceled after %d of %d", i, total)
				break
			}
		}

		itemStart := time.Now()
		l, err := h.process(ctx, u, req.PerRequestTimeout)
		if err != nil {
			l = harvest.ListingFromError(u, err)
			logger.Warn("item failed", "url", u, "code", l.ErrorCode, "err", l.Error, "duration", time.Since(itemStart))
		} else {
			logger.Info("item harvested", "url", u, "registration", l.RegistrationNumber, "images", len(l.Images), "duration", time.Since(itemStart))
		}
		record(l)

		if ctx.Err() != nil && i+1 < total {
			abandon(i+1, harvest.ECANCELED, MsgCanceled)
			runErr = harvest.Errorf(harvest.ECANCELED, "batch canceled after %d of %d", i+1, total)
			break
		}
	}

	result := &harvest.BatchResult{
		Records: records,
		Summary: harvest.Summarize(records, time.Since(start)),
	}
	if runErr == nil && ctx.Err() != nil {
		runErr = harvest.Errorf(harvest.ECANCELED, "batch canceled after %d of %d", total, total)
	}
	logger.Info("batch finished",
		"total", result.Summary.Total,
		"succeeded", result.Summary.Succeeded,
		"failed", result.Summary.Failed,
		"duration", result.Summary.ExecutionTime)

	return result, runErr
}

// process makes a single attempt at one URL.
func (h *Harvester) process(ctx context.Context, url string, timeout time.Duration) (*harvest.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	html, err := h.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fetchError(ctx, url, err)
	}

	doc, err := h.Parser.Parse(html, url)
	if err != nil {
		return nil, harvest.Errorf(harvest.EEXTRACT, "%s%s", ExtractFailurePrefix, harvest.ErrorMessage(err))
	}

	l, err := h.Extractor.Extract(doc)
	if err != nil {
		return nil, harvest.Errorf(harvest.EEXTRACT, "%s%s", ExtractFailurePrefix, harvest.ErrorMessage(err))
	}
	l.SourceURL = url
	return l, nil
}

// fetchError normalizes errors from fetchers that return raw context errors.
func fetchError(ctx context.Context, url string, err error) error {
	var e *harvest.Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return harvest.Errorf(harvest.EFETCH, "fetch %s timed out", url)
	}
	if errors.Is(err, context.Canceled) {
		return harvest.Errorf(harvest.ECANCELED, "fetch %s canceled", url)
	}
	return harvest.Errorf(harvest.EFETCH, "fetch %s: %v", url, err)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
