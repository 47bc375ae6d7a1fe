package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var _ harvest.BundleStore = (*BundleStore)(nil)

// BundleStore is a mock implementation of harvest.BundleStore.
type BundleStore struct {
	SaveFn   func(ctx context.Context, listing *harvest.Listing) (*harvest.BundleReport, error)
	CommitFn func() error
	AbortFn  func() error
}

func (s *BundleStore) Save(ctx context.Context, listing *harvest.Listing) (*harvest.BundleReport, error) {
	return s.SaveFn(ctx, listing)
}

func (s *BundleStore) Commit() error {
	return s.CommitFn()
}

func (s *BundleStore) Abort() error {
	return s.AbortFn()
}

var _ harvest.ListingArchive = (*ListingArchive)(nil)

// ListingArchive is a mock implementation of harvest.ListingArchive.
type ListingArchive struct {
	SaveBatchFn    func(ctx context.Context, result *harvest.BatchResult) error
	FindBatchesFn  func(ctx context.Context, filter harvest.BatchFilter) ([]*harvest.BatchInfo, error)
	FindListingsFn func(ctx context.Context, filter harvest.ListingFilter) ([]*harvest.Listing, error)

	ManuscriptStatusFn func(ctx context.Context, l *harvest.Listing) (harvest.ManuscriptStatus, error)
}

func (a *ListingArchive) SaveBatch(ctx context.Context, result *harvest.BatchResult) error {
	return a.SaveBatchFn(ctx, result)
}

func (a *ListingArchive) FindBatches(ctx context.Context, filter harvest.BatchFilter) ([]*harvest.BatchInfo, error) {
	return a.FindBatchesFn(ctx, filter)
}

func (a *ListingArchive) FindListings(ctx context.Context, filter harvest.ListingFilter) ([]*harvest.Listing, error) {
	return a.FindListingsFn(ctx, filter)
}

func (a *ListingArchive) ManuscriptStatus(ctx context.Context, l *harvest.Listing) (harvest.ManuscriptStatus, error) {
	return a.ManuscriptStatusFn(ctx, l)
}
