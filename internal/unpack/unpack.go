// Package unpack reverses blobpack's transformation: for every row in
// the packed splits table, it reconstructs the original blob from the
// splits.val/frags.val pair and writes it to the destination's blob
// table, per spec.md §6's reconstruction rule.
package unpack

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/blgl/blobpack/internal/failure"
)

// Logger is the subset of *runlog.Logger unpack needs.
type Logger interface {
	Banner(msg string)
	Info(msg string, args ...any)
}

// Run reconstructs every blob from the source's splits/frags tables and
// writes (id, val) rows into a freshly created table of that name in
// the destination.
func Run(ctx context.Context, tx *sql.Tx, log Logger, table string) error {
	log.Banner("Reconstructing blobs...")

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(
		`CREATE TABLE %q (id INTEGER PRIMARY KEY, val BLOB)`, table)); err != nil {
		return failure.Wrap(failure.StorageOpen, "create destination blob table", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT s.id, s.val, f.val
		FROM source.splits s
		LEFT JOIN source.frags f ON f.id = s.id
		ORDER BY s.id`)
	if err != nil {
		return failure.Wrap(failure.StorageStep, "read splits/frags", err)
	}
	defer rows.Close()

	insert, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %q (id, val) VALUES (?, ?)`, table))
	if err != nil {
		return failure.Wrap(failure.StoragePrepare, "prepare blob insert", err)
	}
	defer insert.Close()

	var count int
	for rows.Next() {
		var id int64
		var splitVal, fragVal []byte
		if err := rows.Scan(&id, &splitVal, &fragVal); err != nil {
			return failure.Wrap(failure.StorageStep, "scan splits/frags row", err)
		}

		val, err := Reconstruct(splitVal, fragVal)
		if err != nil {
			return err
		}

		if _, err := insert.ExecContext(ctx, id, val); err != nil {
			return failure.Wrap(failure.StorageStep, "write blob row", err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return failure.Wrap(failure.StorageStep, "read splits/frags", err)
	}

	log.Info("blobs reconstructed", "count", count)
	return nil
}

// Reconstruct implements spec.md §6's reconstruction rule for a single
// row: nil splitVal with nil/absent fragVal reproduces a nil blob; a nil
// splitVal with a non-nil fragVal yields fragVal alone; a non-nil
// splitVal with nil/absent fragVal yields splitVal alone; otherwise the
// concatenation splitVal ∥ fragVal.
//
// The concatenation allocates one new slice sized to both halves; a
// failure to allocate it is spec.md §7's allocation failure class, which
// surfaces in Go as a runtime out-of-memory panic rather than an error
// return, so it is recovered here and reported through the same error
// path as every other failure kind.
func Reconstruct(splitVal, fragVal []byte) (result []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = failure.New(failure.Allocation, "concatenate blob fragments", fmt.Errorf("%v", r))
		}
	}()

	switch {
	case splitVal == nil && fragVal == nil:
		return nil, nil
	case splitVal == nil:
		return fragVal, nil
	case fragVal == nil:
		return splitVal, nil
	default:
		out := make([]byte, 0, len(splitVal)+len(fragVal))
		out = append(out, splitVal...)
		out = append(out, fragVal...)
		return out, nil
	}
}
