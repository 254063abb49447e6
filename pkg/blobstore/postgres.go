package blobstore

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// OpenPostgresCatalog opens a postgres-backed catalog using dsn (a
// "postgres://..." connection string).
func OpenPostgresCatalog(dsn string) (*Catalog, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("blobstore: open postgres: %w", err)
	}
	return NewPostgresCatalog(db)
}
