package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/sqlite"
	"github.com/stretchr/testify/require"
)

// BenchmarkSaveBatch measures archiving a full batch of listings.
func BenchmarkSaveBatch(b *testing.B) {
	const listingsPerBatch = 50

	db := sqlite.NewDB(filepath.Join(b.TempDir(), "bench.db"))
	require.NoError(b, db.Open())
	defer db.Close()

	archive := sqlite.NewListingArchive(db)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		records := make([]*harvest.Listing, listingsPerBatch)
		for j := range records {
			records[j] = &harvest.Listing{
				SourceURL:          fmt.Sprintf("http://www.truck-no1.co.kr/model/DetailView.asp?OnCarNo=%d", j),
				CategoryName:       "카고",
				RegistrationNumber: fmt.Sprintf("서울%02d가%04d", j%100, i),
				Price:              harvest.NewPrice(1000 + j),
				Images:             []string{"https://img.example.com/1.jpg", "https://img.example.com/2.jpg"},
			}
		}
		result := &harvest.BatchResult{Records: records, Summary: harvest.Summarize(records, 0)}
		if err := archive.SaveBatch(ctx, result); err != nil {
			b.Fatal(err)
		}
	}
}
