package harvest

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// BundleReport describes what was written for one listing.
type BundleReport struct {
	Name         string   `json:"name"`
	Images       int      `json:"images"`
	FailedImages []string `json:"failedImages,omitempty"`
}

// BundleStore writes listings as output bundles with atomic semantics.
// Save stages a listing; Commit makes all staged bundles permanent;
// Abort discards them.
type BundleStore interface {
	// Save writes the manuscript and images of a listing.
	// Returns EINVALID for failed listings. Images that cannot be
	// downloaded are skipped and reported, not returned as errors.
	Save(ctx context.Context, listing *Listing) (*BundleReport, error)
	Commit() error
	Abort() error
}

// ListingArchive keeps finished batches for later lookup.
type ListingArchive interface {
	// SaveBatch stores a finished batch and assigns result.ID.
	SaveBatch(ctx context.Context, result *BatchResult) error

	// FindBatches returns stored batch summaries, newest first.
	FindBatches(ctx context.Context, filter BatchFilter) ([]*BatchInfo, error)

	// FindListings returns archived listings matching the filter.
	FindListings(ctx context.Context, filter ListingFilter) ([]*Listing, error)

	// ManuscriptStatus compares the manuscript of a successful listing with
	// the newest archived one of the same registration number.
	ManuscriptStatus(ctx context.Context, l *Listing) (ManuscriptStatus, error)
}

// ManuscriptStatus tells whether a listing's manuscript differs from the
// archived one.
type ManuscriptStatus string

// Manuscript statuses.
const (
	ManuscriptNew       ManuscriptStatus = "new"
	ManuscriptChanged   ManuscriptStatus = "changed"
	ManuscriptUnchanged ManuscriptStatus = "unchanged"
)

// BatchInfo is an archived batch without its records.
type BatchInfo struct {
	ID        string
	Summary   BatchSummary
	CreatedAt time.Time
}

// BatchFilter represents a filter for FindBatches.
type BatchFilter struct {
	ID *string

	Offset int
	Limit  int
}

// ListingFilter represents a filter for FindListings.
type ListingFilter struct {
	BatchID            *string
	RegistrationNumber *string
	IncludeFailed      bool

	Offset int
	Limit  int
}

var unsafeNameChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_",
	`\`, "_", "|", "_", "?", "_", "*", "_",
)

// BundleName returns a filesystem-safe folder name for a listing.
func BundleName(l *Listing) string {
	return unsafeNameChars.Replace(l.RegistrationNumber)
}

// ManuscriptFileName returns the name of the listing's text file.
func ManuscriptFileName(l *Listing) string {
	return BundleName(l) + " 원고.txt"
}

// ImageFileName returns the bundle file name of the i-th image (0-based).
func ImageFileName(i int) string {
	return fmt.Sprintf("K-%03d.jpg", i+1)
}
