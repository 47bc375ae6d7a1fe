// Package zip writes listing bundles into a single ZIP archive.
package zip

import (
	"archive/zip"
	"context"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/crawl"
)

// ArchiveName returns the archive file name for a run on day t.
func ArchiveName(t time.Time) string {
	return "truck-data-" + t.Format("2006-01-02") + ".zip"
}

// Ensure BundleStore implements harvest.BundleStore at compile time.
var _ harvest.BundleStore = (*BundleStore)(nil)

// BundleStore writes every listing as a folder inside one ZIP archive.
// The archive is written to a temporary file and renamed on Commit.
type BundleStore struct {
	path      string
	assembler *crawl.Assembler

	mu    sync.Mutex
	file  *os.File
	w     *zip.Writer
	names crawl.BundleNames
}

// NewBundleStore creates a BundleStore writing to path.
func NewBundleStore(path string, assembler *crawl.Assembler) *BundleStore {
	return &BundleStore{
		path:      path,
		assembler: assembler,
	}
}

func (s *BundleStore) tempPath() string {
	return s.path + ".tmp"
}

// Save assembles the listing bundle and appends it to the archive.
// A name already present in the archive gets a numeric suffix.
func (s *BundleStore) Save(ctx context.Context, listing *harvest.Listing) (*harvest.BundleReport, error) {
	b, err := s.assembler.Assemble(ctx, listing)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return nil, err
	}
	b.Name = s.names.Claim(b.Name)

	modified := time.Now()
	for _, f := range b.Files {
		w, err := s.w.CreateHeader(&zip.FileHeader{
			Name:     path.Join(b.Name, f.Name),
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, err
		}
	}

	return b.Report(), nil
}

func (s *BundleStore) open() error {
	if s.w != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	f, err := os.Create(s.tempPath())
	if err != nil {
		return err
	}
	s.file = f
	s.w = zip.NewWriter(f)
	return nil
}

// Commit finishes the archive and moves it into place.
// It is a no-op when nothing was saved.
func (s *BundleStore) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w == nil {
		return nil
	}
	if err := s.close(); err != nil {
		return err
	}
	return os.Rename(s.tempPath(), s.path)
}

// Abort discards the archive.
func (s *BundleStore) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w == nil {
		return nil
	}
	_ = s.close()
	return os.Remove(s.tempPath())
}

func (s *BundleStore) close() error {
	werr := s.w.Close()
	ferr := s.file.Close()
	s.w, s.file = nil, nil
	s.names = crawl.BundleNames{}
	if werr != nil {
		return werr
	}
	return ferr
}

// Path returns the archive path written on Commit.
func (s *BundleStore) Path() string {
	return s.path
}
