package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
)

// Ensure LoggingBundleStore implements harvest.BundleStore.
var _ harvest.BundleStore = (*LoggingBundleStore)(nil)

// LoggingBundleStore wraps a BundleStore with logging of every saved
// bundle and of image downloads that were skipped.
type LoggingBundleStore struct {
	next   harvest.BundleStore
	logger *slog.Logger
}

// NewLoggingBundleStore creates a new LoggingBundleStore.
func NewLoggingBundleStore(next harvest.BundleStore, logger *slog.Logger) *LoggingBundleStore {
	return &LoggingBundleStore{next: next, logger: logger}
}

// Save logs the written bundle and delegates to the wrapped store.
func (s *LoggingBundleStore) Save(ctx context.Context, listing *harvest.Listing) (report *harvest.BundleReport, err error) {
	defer func(begin time.Time) {
		if err != nil {
			s.logger.Error("save bundle", "url", listing.SourceURL, "duration", time.Since(begin), "err", err)
			return
		}
		s.logger.Info("save bundle",
			"name", report.Name,
			"images", report.Images,
			"duration", time.Since(begin),
		)
		for _, u := range report.FailedImages {
			s.logger.Warn("image skipped", "name", report.Name, "url", u)
		}
	}(time.Now())
	return s.next.Save(ctx, listing)
}

// Commit delegates to the wrapped store.
func (s *LoggingBundleStore) Commit() error {
	err := s.next.Commit()
	s.logger.Debug("commit bundles", "err", err)
	return err
}

// Abort delegates to the wrapped store.
func (s *LoggingBundleStore) Abort() error {
	err := s.next.Abort()
	s.logger.Debug("abort bundles", "err", err)
	return err
}
