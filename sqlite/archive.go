package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/harvest"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ harvest.ListingArchive = (*ListingArchive)(nil)

// ListingArchive implements harvest.ListingArchive using SQLite.
type ListingArchive struct {
	db *DB
}

// NewListingArchive creates a new ListingArchive.
func NewListingArchive(db *DB) *ListingArchive {
	return &ListingArchive{db: db}
}

// hashManuscript computes xxHash of the listing manuscript and returns a
// hex string. Failed listings have no manuscript.
func hashManuscript(l *harvest.Listing) string {
	if l.Failed() {
		return ""
	}
	b := binary.BigEndian.AppendUint64(nil, xxhash.Sum64String(harvest.FormatManuscript(l)))
	return hex.EncodeToString(b)
}

// SaveBatch stores result and every record in one transaction.
func (a *ListingArchive) SaveBatch(ctx context.Context, result *harvest.BatchResult) error {
	if result == nil || len(result.Records) == 0 {
		return harvest.Errorf(harvest.EINVALID, "batch has no records")
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	id := uuid.New().String()
	s := result.Summary
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO batches (id, total, succeeded, failed, execution_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, s.Total, s.Succeeded, s.Failed, s.ExecutionTime.Milliseconds(),
		time.Now().UTC().Format(timeFormat)); err != nil {
		return err
	}

	for i, l := range result.Records {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO listings (batch_id, position, source_url, category_name, display_name,
				registration_number, price, model_year, odometer, options, description,
				error, error_code, manuscript_hash)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, i, l.SourceURL, l.CategoryName, l.DisplayName, l.RegistrationNumber,
			l.Price.AmountTenThousandWon, l.ModelYear, l.Odometer, l.Options, l.Description,
			l.Error, l.ErrorCode, hashManuscript(l))
		if err != nil {
			return err
		}
		listingID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for j, u := range l.Images {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO listing_images (listing_id, position, url) VALUES (?, ?, ?)
			`, listingID, j, u); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	result.ID = id
	return nil
}

// FindBatches retrieves batch summaries, newest first.
func (a *ListingArchive) FindBatches(ctx context.Context, filter harvest.BatchFilter) ([]*harvest.BatchInfo, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, total, succeeded, failed, execution_ms, created_at FROM batches WHERE 1=1")
	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	query.WriteString(" ORDER BY created_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := a.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []*harvest.BatchInfo
	for rows.Next() {
		var b harvest.BatchInfo
		var executionMs int64
		var createdAt string
		if err := rows.Scan(&b.ID, &b.Summary.Total, &b.Summary.Succeeded, &b.Summary.Failed,
			&executionMs, &createdAt); err != nil {
			return nil, err
		}
		b.Summary.ExecutionTime = time.Duration(executionMs) * time.Millisecond
		if b.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		batches = append(batches, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if filter.ID != nil && len(batches) == 0 {
		return nil, harvest.Errorf(harvest.ENOTFOUND, "batch not found")
	}
	return batches, nil
}

// FindListings retrieves archived listings in batch order. Failed records
// are skipped unless filter.IncludeFailed is set.
func (a *ListingArchive) FindListings(ctx context.Context, filter harvest.ListingFilter) ([]*harvest.Listing, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`SELECT l.id, l.source_url, l.category_name, l.display_name, l.registration_number,
		l.price, l.model_year, l.odometer, l.options, l.description, l.error, l.error_code
		FROM listings l JOIN batches b ON b.id = l.batch_id WHERE 1=1`)
	if filter.BatchID != nil {
		query.WriteString(" AND l.batch_id = ?")
		args = append(args, *filter.BatchID)
	}
	if filter.RegistrationNumber != nil {
		query.WriteString(" AND l.registration_number = ?")
		args = append(args, *filter.RegistrationNumber)
	}
	if !filter.IncludeFailed {
		query.WriteString(" AND l.error = ''")
	}
	query.WriteString(" ORDER BY b.created_at DESC, l.batch_id, l.position")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := a.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	var listings []*harvest.Listing
	for rows.Next() {
		var id int64
		var price int
		l := &harvest.Listing{Images: []string{}}
		if err := rows.Scan(&id, &l.SourceURL, &l.CategoryName, &l.DisplayName, &l.RegistrationNumber,
			&price, &l.ModelYear, &l.Odometer, &l.Options, &l.Description, &l.Error, &l.ErrorCode); err != nil {
			return nil, err
		}
		l.Price = harvest.NewPrice(price)
		ids = append(ids, id)
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i, id := range ids {
		if err := a.loadImages(ctx, id, listings[i]); err != nil {
			return nil, err
		}
	}
	return listings, nil
}

func (a *ListingArchive) loadImages(ctx context.Context, listingID int64, l *harvest.Listing) error {
	rows, err := a.db.QueryContext(ctx,
		"SELECT url FROM listing_images WHERE listing_id = ? ORDER BY position", listingID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return err
		}
		l.Images = append(l.Images, u)
	}
	return rows.Err()
}

// ManuscriptHash returns the stored manuscript hash of the newest archived
// successful listing with the given registration number.
func (a *ListingArchive) ManuscriptHash(ctx context.Context, registrationNumber string) (string, error) {
	var hash string
	err := a.db.QueryRowContext(ctx, `
		SELECT l.manuscript_hash FROM listings l JOIN batches b ON b.id = l.batch_id
		WHERE l.registration_number = ? AND l.error = ''
		ORDER BY b.created_at DESC, l.id DESC LIMIT 1
	`, registrationNumber).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", harvest.Errorf(harvest.ENOTFOUND, "listing not found")
	}
	return hash, err
}

// ManuscriptStatus compares l's manuscript with the newest archived one.
// Call it before SaveBatch stores l itself.
func (a *ListingArchive) ManuscriptStatus(ctx context.Context, l *harvest.Listing) (harvest.ManuscriptStatus, error) {
	if l.Failed() {
		return "", harvest.Errorf(harvest.EINVALID, "listing %s failed", l.SourceURL)
	}
	prev, err := a.ManuscriptHash(ctx, l.RegistrationNumber)
	switch {
	case harvest.ErrorCode(err) == harvest.ENOTFOUND:
		return harvest.ManuscriptNew, nil
	case err != nil:
		return "", err
	case prev == hashManuscript(l):
		return harvest.ManuscriptUnchanged, nil
	default:
		return harvest.ManuscriptChanged, nil
	}
}
