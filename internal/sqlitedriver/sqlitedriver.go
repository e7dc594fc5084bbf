// Package sqlitedriver opens the destination/source databases the packer
// and unpacker operate on. It is the "embedded relational engine" spec.md
// §1 treats as an external collaborator: a real SQLite implementation
// gives us ATTACH, temp tables, aggregate queries and the page_size
// pragma, so the packer itself never has to speak the file format's
// bytes directly except in internal/geometry's cost model.
//
// Adapted from the teacher's core/sqlite package: same pure-Go/CGO driver
// split (driver_purego.go / driver_cgo.go), same unified Open, narrowed
// to the one DSN shape this tool needs (a plain file path, read-write,
// created if missing, with the source attached afterward by a plain
// ATTACH, which does not open it read-only).
package sqlitedriver

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/blgl/blobpack/internal/failure"
)

// DriverName returns the database/sql driver name to use. Always
// "sqlite" or "sqlite3" depending on which implementation was compiled
// in; callers should use Open rather than sql.Open directly.
func DriverName() string {
	return driverName
}

// DriverType identifies the underlying implementation: "cgo" for
// mattn/go-sqlite3, "purego" for modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// Open opens a writable destination database at path, creating it if it
// doesn't exist, and attaches the source database at srcPath under the
// schema name "source" — the same alias the original C implementation
// and its embedded SQL use. The ATTACH takes the plain path, so the
// source is attached read-write; it is not opened read-only.
//
// The returned *sql.DB has a single open connection: pages, temp tables
// and ATTACHed databases are connection-scoped, and spec.md §5 requires
// the entire job to be single-threaded against one transaction.
func Open(ctx context.Context, dstPath, srcPath string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dstPath)
	if err != nil {
		return nil, failure.New(failure.StorageOpen, "open destination "+dstPath, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `ATTACH DATABASE ? AS source`, srcPath); err != nil {
		db.Close()
		return nil, failure.New(failure.StorageOpen, "attach source "+srcPath, err)
	}
	return db, nil
}

// SetPageSize sets the destination database's page_size pragma. It must
// be called before any table is created in the destination (spec.md §5:
// "the destination page size is fixed before any write and never
// changed").
func SetPageSize(ctx context.Context, db *sql.DB, pageSize int64) error {
	stmt := fmt.Sprintf(`PRAGMA page_size = %d`, pageSize)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return failure.New(failure.StorageOpen, "set page_size", err)
	}
	return nil
}

// ReadPageSize reads the source database's configured page_size pragma,
// for use as the destination's default when --page-size wasn't given.
func ReadPageSize(ctx context.Context, db *sql.DB) (int64, error) {
	var pageSize int64
	row := db.QueryRowContext(ctx, `PRAGMA source.page_size`)
	if err := row.Scan(&pageSize); err != nil {
		return 0, failure.New(failure.StorageOpen, "read source page_size", err)
	}
	return pageSize, nil
}
