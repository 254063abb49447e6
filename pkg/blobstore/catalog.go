package blobstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/logline-foundation/atomic-core/pkg/atomtypes"
)

// CatalogRecord is a single blob catalog entry: cid, dimension, size, which
// backend holds it, and when it was stored.
type CatalogRecord struct {
	Cid      atomtypes.Cid32
	Dim      uint16
	Size     int64
	Backend  string
	StoredAt time.Time
}

// Catalog answers "have I already stored this CID" without a network
// round-trip to the blob backend itself.
type Catalog struct {
	db       *sql.DB
	postgres bool // selects $1,$2,... placeholders instead of sqlite's ?
}

// NewCatalog wraps an already-open sqlite *sql.DB and ensures the catalog
// table exists.
func NewCatalog(db *sql.DB) (*Catalog, error) {
	c := &Catalog{db: db}
	if err := c.migrate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewPostgresCatalog wraps an already-open postgres *sql.DB and ensures the
// catalog table exists.
func NewPostgresCatalog(db *sql.DB) (*Catalog, error) {
	c := &Catalog{db: db, postgres: true}
	if err := c.migrate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ph renders the nth (1-indexed) placeholder for the catalog's dialect.
func (c *Catalog) ph(n int) string {
	if c.postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (c *Catalog) migrate() error {
	_, err := c.db.ExecContext(context.Background(), `
		CREATE TABLE IF NOT EXISTS blob_catalog (
			cid TEXT PRIMARY KEY,
			dim INTEGER NOT NULL,
			size INTEGER NOT NULL,
			backend TEXT NOT NULL,
			stored_at TIMESTAMP NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("blobstore: migrate catalog: %w", err)
	}
	return nil
}

// Record inserts or replaces a CatalogRecord for rec.Cid. Implemented as a
// delete-then-insert within a transaction rather than an upsert, since the
// catalog is meant to run against either sqlite or postgres and the two
// dialects disagree on upsert syntax.
func (c *Catalog) Record(ctx context.Context, rec CatalogRecord) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("blobstore: begin catalog tx: %w", err)
	}
	defer tx.Rollback()

	deleteQuery := fmt.Sprintf(`DELETE FROM blob_catalog WHERE cid = %s`, c.ph(1))
	if _, err := tx.ExecContext(ctx, deleteQuery, rec.Cid.String()); err != nil {
		return fmt.Errorf("blobstore: clear stale catalog entry %s: %w", rec.Cid, err)
	}
	insertQuery := fmt.Sprintf(
		`INSERT INTO blob_catalog (cid, dim, size, backend, stored_at) VALUES (%s, %s, %s, %s, %s)`,
		c.ph(1), c.ph(2), c.ph(3), c.ph(4), c.ph(5),
	)
	_, err = tx.ExecContext(ctx, insertQuery,
		rec.Cid.String(), rec.Dim, rec.Size, rec.Backend, rec.StoredAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("blobstore: record catalog entry %s: %w", rec.Cid, err)
	}
	return tx.Commit()
}

// Lookup returns the catalog entry for cid, if any.
func (c *Catalog) Lookup(ctx context.Context, cid atomtypes.Cid32) (*CatalogRecord, error) {
	query := fmt.Sprintf(`SELECT cid, dim, size, backend, stored_at FROM blob_catalog WHERE cid = %s`, c.ph(1))
	row := c.db.QueryRowContext(ctx, query, cid.String())

	var (
		cidHex   string
		dim      uint16
		size     int64
		backend  string
		storedAt string
	)
	if err := row.Scan(&cidHex, &dim, &size, &backend, &storedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("blobstore: lookup %s: %w", cid, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, storedAt)
	if err != nil {
		ts, err = time.Parse(time.RFC3339, storedAt)
		if err != nil {
			ts = time.Time{}
		}
	}
	got, err := atomtypes.CidFromHex(cidHex)
	if err != nil {
		return nil, fmt.Errorf("blobstore: parse stored cid: %w", err)
	}
	return &CatalogRecord{Cid: got, Dim: dim, Size: size, Backend: backend, StoredAt: ts}, nil
}
