package sqlitedriver

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/blgl/blobpack/internal/failure"
)

// DiscoverBlobTable finds the one table in the attached source database
// matching the shape spec.md §1 accepts: `(id INTEGER PRIMARY KEY, val
// BLOB)`. A table matches when it has a column named id that is its first
// primary-key column and a column named val; declared column types and
// any further columns are not checked. Exactly one such table must exist;
// zero or more than one is a storage-open failure, since the tool has no
// CLI flag naming a table.
func DiscoverBlobTable(ctx context.Context, db *sql.DB) (string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM source.sqlite_master WHERE type = 'table'`)
	if err != nil {
		return "", failure.New(failure.StorageOpen, "list source tables", err)
	}
	defer rows.Close()

	var candidates []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return "", failure.New(failure.StorageOpen, "scan source table name", err)
		}
		candidates = append(candidates, name)
	}
	if err := rows.Err(); err != nil {
		return "", failure.New(failure.StorageOpen, "list source tables", err)
	}

	var matches []string
	for _, name := range candidates {
		ok, err := tableMatchesBlobShape(ctx, db, name)
		if err != nil {
			return "", err
		}
		if ok {
			matches = append(matches, name)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", failure.New(failure.StorageOpen, "discover blob table", fmt.Errorf("no table of shape (id INTEGER PRIMARY KEY, val BLOB) found in source"))
	default:
		return "", failure.New(failure.StorageOpen, "discover blob table", fmt.Errorf("multiple candidate blob tables in source: %v", matches))
	}
}

func tableMatchesBlobShape(ctx context.Context, db *sql.DB, table string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA source.table_info(%q)`, table))
	if err != nil {
		return false, failure.New(failure.StorageOpen, "inspect table "+table, err)
	}
	defer rows.Close()

	var hasIDPK, hasVal bool
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return false, failure.New(failure.StorageOpen, "inspect table "+table, err)
		}
		switch name {
		case "id":
			hasIDPK = pk == 1
		case "val":
			hasVal = true
		}
	}
	if err := rows.Err(); err != nil {
		return false, failure.New(failure.StorageOpen, "inspect table "+table, err)
	}
	return hasIDPK && hasVal, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx, so CreateOutputTables
// can run against a plain connection or, as spec.md §5 requires for the
// rest of the job, inside the job's single transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateOutputTables creates the destination's persistent splits/frags
// tables (spec.md §3's "Output tables"). Must run after SetPageSize, and
// inside the same transaction P2-P5 run under.
func CreateOutputTables(ctx context.Context, db execer) error {
	for _, stmt := range []string{
		`CREATE TABLE splits (id INTEGER PRIMARY KEY, val BLOB)`,
		`CREATE TABLE frags (id INTEGER PRIMARY KEY, val BLOB)`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return failure.New(failure.StorageOpen, "create output tables", err)
		}
	}
	return nil
}
