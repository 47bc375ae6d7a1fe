package crawl

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/harvest"
	"golang.org/x/sync/errgroup"
)

// DefaultImageConcurrency bounds parallel image downloads per listing.
const DefaultImageConcurrency = 4

// ManifestFileName is the machine-readable summary written into every bundle.
const ManifestFileName = "listing.json"

// BundleFile is one file of an assembled bundle, relative to its folder.
type BundleFile struct {
	Name string
	Data []byte
}

// Bundle holds every file for one listing, ready to be written.
type Bundle struct {
	Name         string
	Files        []BundleFile
	Images       int
	FailedImages []string
}

// Report returns the harvest.BundleReport describing b.
func (b *Bundle) Report() *harvest.BundleReport {
	return &harvest.BundleReport{
		Name:         b.Name,
		Images:       b.Images,
		FailedImages: b.FailedImages,
	}
}

// ManifestImage describes one image entry of listing.json.
type ManifestImage struct {
	File     string `json:"file"`
	URL      string `json:"url"`
	Bytes    int    `json:"bytes,omitempty"`
	Checksum string `json:"xxhash,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Manifest is the content of listing.json.
type Manifest struct {
	Listing *harvest.Listing `json:"listing"`
	Images  []ManifestImage  `json:"images"`
}

// Assembler downloads listing images and renders bundle files.
type Assembler struct {
	Images      harvest.ImageFetcher
	Concurrency int
}

// Assemble builds the bundle for l: the manuscript, every image that could
// be downloaded, and listing.json. Images keep the file name of their
// position in l.Images even when earlier downloads fail.
// Returns EINVALID for failed listings and ECANCELED if ctx is canceled.
func (a *Assembler) Assemble(ctx context.Context, l *harvest.Listing) (*Bundle, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	concurrency := a.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultImageConcurrency
	}

	data := make([][]byte, len(l.Images))
	errs := make([]error, len(l.Images))
	var fetched atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, u := range l.Images {
		g.Go(func() error {
			if a.Images == nil {
				errs[i] = harvest.Errorf(harvest.EINTERNAL, "no image fetcher configured")
				return nil
			}
			b, err := a.Images.FetchImage(gctx, u)
			if err != nil {
				errs[i] = err
				return nil
			}
			data[i] = b
			fetched.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	if ctx.Err() != nil {
		return nil, harvest.Errorf(harvest.ECANCELED, "bundle %s canceled", harvest.BundleName(l))
	}

	b := &Bundle{
		Name:   harvest.BundleName(l),
		Images: int(fetched.Load()),
		Files: []BundleFile{{
			Name: harvest.ManuscriptFileName(l),
			Data: []byte(harvest.FormatManuscript(l)),
		}},
	}

	manifest := Manifest{Listing: l, Images: make([]ManifestImage, len(l.Images))}
	for i, u := range l.Images {
		name := harvest.ImageFileName(i)
		manifest.Images[i] = ManifestImage{File: name, URL: u}
		if errs[i] != nil {
			b.FailedImages = append(b.FailedImages, u)
			manifest.Images[i].Error = harvest.ErrorMessage(errs[i])
			continue
		}
		b.Files = append(b.Files, BundleFile{Name: name, Data: data[i]})
		manifest.Images[i].Bytes = len(data[i])
		manifest.Images[i].Checksum = Checksum(data[i])
	}

	buf, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	b.Files = append(b.Files, BundleFile{Name: ManifestFileName, Data: buf})

	return b, nil
}

// Checksum returns the hex xxhash64 digest of data.
func Checksum(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// BundleNames hands out unique bundle names within one output. Listings
// sharing a registration number keep their own folders: the second "x"
// becomes "x-2", the third "x-3". The zero value is ready to use and is
// not safe for concurrent use.
type BundleNames struct {
	taken map[string]bool
}

// Claim returns name, or the first free suffixed form of it, and marks
// the result as taken.
func (n *BundleNames) Claim(name string) string {
	if n.taken == nil {
		n.taken = make(map[string]bool)
	}
	claimed := name
	for i := 2; n.taken[claimed]; i++ {
		claimed = name + "-" + strconv.Itoa(i)
	}
	n.taken[claimed] = true
	return claimed
}
