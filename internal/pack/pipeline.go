package pack

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/blgl/blobpack/internal/failure"
)

// Logger is the subset of *runlog.Logger the pipeline needs. Declared
// here rather than imported directly so pack never depends on runlog's
// concrete logging stack — see spec.md §9's "pass this context
// explicitly" note, which applies just as much to the logger as to page
// size and paths.
type Logger interface {
	Banner(msg string)
	Info(msg string, args ...any)
}

// Run executes passes P2 through P5 against an already-open, already-paged
// destination transaction with table the name of the source blob table.
// Callers (cmd/blobpack) are responsible for P1 (open/attach/page-size)
// and the final commit; Run covers P2 through P5.
func Run(ctx context.Context, tx *sql.Tx, log Logger, table string, pageSize int64) error {
	log.Banner("Generating fragments...")
	blobs, err := loadBlobs(ctx, tx, table)
	if err != nil {
		return err
	}
	splits, frags := GenerateFragments(blobs, pageSize)
	log.Info("fragments generated", "splits", len(splits), "fragments", len(frags))

	log.Banner("Packing fragments into pages...")
	frags, pages := FillPages(frags, pageSize)
	log.Info("pages filled", "pages", len(pages))

	// Null-blob splits have no fragments, so they never expand a
	// frontier: OrderComponents still seeds them (any split with no
	// final_id is a valid seed) and they form their own singleton
	// component, consuming one split final_id and nothing else.
	log.Banner("Ordering pages...")
	OrderComponents(splits, pages, frags)

	log.Banner("Ordering fragments...")
	OrderFragments(frags, pages)

	src := &sqlSourceReader{tx: tx, table: table}

	log.Banner("Writing output splits...")
	if err := WriteSplits(ctx, tx, src, splits, frags); err != nil {
		return err
	}

	log.Banner("Writing output fragments...")
	if err := WriteFrags(ctx, tx, src, splits, frags); err != nil {
		return err
	}

	return nil
}

func loadBlobs(ctx context.Context, tx *sql.Tx, table string) ([]Blob, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(`SELECT id, length(val) FROM source.%q ORDER BY id`, table))
	if err != nil {
		return nil, failure.Wrap(failure.StorageStep, "load source blobs", err)
	}
	defer rows.Close()

	var blobs []Blob
	for rows.Next() {
		var id int64
		var size sql.NullInt64
		if err := rows.Scan(&id, &size); err != nil {
			return nil, failure.Wrap(failure.StorageStep, "scan source blob", err)
		}
		b := Blob{ID: id}
		if size.Valid {
			b.Size = &size.Int64
		}
		blobs = append(blobs, b)
	}
	if err := rows.Err(); err != nil {
		return nil, failure.Wrap(failure.StorageStep, "load source blobs", err)
	}
	return blobs, nil
}

// sqlSourceReader reads blob byte ranges from the source table, attached
// under the "source" schema name (a plain ATTACH, not opened read-only;
// this reader only issues SELECTs). substr is 1-indexed in
// SQLite; fragment offsets are 0-indexed, hence the +1.
type sqlSourceReader struct {
	tx    *sql.Tx
	table string
}

func (r *sqlSourceReader) ReadRange(ctx context.Context, blobID, offset, size int64) ([]byte, error) {
	query := fmt.Sprintf(`SELECT substr(val, ?, ?) FROM source.%q WHERE id = ?`, r.table)
	var val []byte
	row := r.tx.QueryRowContext(ctx, query, offset+1, size, blobID)
	if err := row.Scan(&val); err != nil {
		return nil, failure.Wrap(failure.StorageStep, "read blob range", err)
	}
	return val, nil
}
