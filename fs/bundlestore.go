// Package fs writes listing bundles as folders on the local filesystem.
package fs

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/crawl"
)

// Ensure BundleStore implements harvest.BundleStore at compile time.
var _ harvest.BundleStore = (*BundleStore)(nil)

// BundleStore implements harvest.BundleStore with atomic update semantics.
// Bundles are saved to a temporary directory, then moved into place on
// Commit. A listing folder that already exists from an earlier run is
// replaced. Listings sharing a name within one store get suffixed folders.
type BundleStore struct {
	baseDir   string
	name      string
	assembler *crawl.Assembler

	mu    sync.Mutex
	names crawl.BundleNames
	saved []string
}

// NewBundleStore creates a new BundleStore.
// baseDir is the parent directory, name is the output directory name.
// Bundles are saved to baseDir/name.tmp and moved to baseDir/name on Commit.
func NewBundleStore(baseDir, name string, assembler *crawl.Assembler) *BundleStore {
	return &BundleStore{
		baseDir:   baseDir,
		name:      name,
		assembler: assembler,
	}
}

func (s *BundleStore) tempDir() string {
	return filepath.Join(s.baseDir, s.name+".tmp")
}

func (s *BundleStore) finalDir() string {
	return filepath.Join(s.baseDir, s.name)
}

// Save assembles the listing bundle and writes it under the temp directory.
func (s *BundleStore) Save(ctx context.Context, listing *harvest.Listing) (*harvest.BundleReport, error) {
	b, err := s.assembler.Assemble(ctx, listing)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	b.Name = s.names.Claim(b.Name)
	s.mu.Unlock()

	dir := filepath.Join(s.tempDir(), b.Name)
	if err := os.RemoveAll(dir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	for _, f := range b.Files {
		if err := os.WriteFile(filepath.Join(dir, f.Name), f.Data, 0644); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.saved = append(s.saved, b.Name)
	s.mu.Unlock()

	return b.Report(), nil
}

// Commit moves every saved bundle into the final directory.
func (s *BundleStore) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.finalDir(), 0755); err != nil {
		return err
	}
	for _, name := range s.saved {
		final := filepath.Join(s.finalDir(), name)
		if err := os.RemoveAll(final); err != nil {
			return err
		}
		if err := os.Rename(filepath.Join(s.tempDir(), name), final); err != nil {
			return err
		}
	}
	s.saved = nil

	return os.RemoveAll(s.tempDir())
}

// Abort discards every saved bundle.
func (s *BundleStore) Abort() error {
	s.mu.Lock()
	s.saved = nil
	s.mu.Unlock()
	return os.RemoveAll(s.tempDir())
}

// Dir returns the directory bundles are committed to.
func (s *BundleStore) Dir() string {
	return s.finalDir()
}
