// Package manifest records pipeline bookkeeping in sqlite: prepare runs with
// their per-series sample counts, and training runs with per-epoch metrics
// and checkpoint paths. The feature store stays the source of truth for
// array data; the manifest only lets tools enumerate it without walking the
// tree.
package manifest

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the manifest database connection.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the manifest database at path and applies
// any pending migrations.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open manifest db %s: %w", path, err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY during interleaved run/series inserts.
	conn.SetMaxOpenConns(1)

	db := &DB{conn}
	if err := db.Migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}
