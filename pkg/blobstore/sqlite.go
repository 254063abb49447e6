package blobstore

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// OpenSQLiteCatalog opens (creating if needed) a sqlite-backed catalog at path.
func OpenSQLiteCatalog(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("blobstore: open sqlite %s: %w", path, err)
	}
	return NewCatalog(db)
}
