package pack

import (
	"context"
	"database/sql"
	"sort"

	"github.com/blgl/blobpack/internal/failure"
)

// SourceReader reads byte ranges of the original blobs out of the
// attached source database. Run supplies the concrete implementation,
// sqlSourceReader in pipeline.go, which issues one `SELECT substr(val, ?,
// ?) FROM source.<table> WHERE id = ?` query per range.
type SourceReader interface {
	ReadRange(ctx context.Context, blobID, offset, size int64) ([]byte, error)
}

// WriteSplits runs the first half of P5: populate the destination splits
// table in final_id order (spec.md §4.5). val is the head fragment's
// bytes, or nil if the split's blob was nil.
func WriteSplits(ctx context.Context, db *sql.Tx, src SourceReader, splits []*Split, frags []*Fragment) error {
	head := make(map[int64]*Fragment, len(splits))
	for _, f := range frags {
		if f.Offset == 0 {
			head[f.SplitID] = f
		}
	}

	ordered := append([]*Split(nil), splits...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].FinalID < ordered[j].FinalID })

	insert, err := db.PrepareContext(ctx, `INSERT INTO splits (id, val) VALUES (?, ?)`)
	if err != nil {
		return failure.Wrap(failure.StoragePrepare, "writeout: prepare splits insert", err)
	}
	defer insert.Close()

	for _, s := range ordered {
		h, ok := head[s.ID]
		var val []byte
		if ok {
			val, err = src.ReadRange(ctx, s.ID, h.Offset, h.Size)
			if err != nil {
				return failure.Wrap(failure.StorageStep, "writeout: read split head", err)
			}
		}
		if _, err := insert.ExecContext(ctx, s.FinalID, nullableBytes(ok, val)); err != nil {
			return failure.Wrap(failure.StorageStep, "writeout: write splits row", err)
		}
	}
	return nil
}

// WriteFrags runs the second half of P5: populate the destination frags
// table in final_id order (spec.md §4.5). Only the tail fragment of a
// split produces a row; splits that were never divided, or whose split
// was undone in P3, produce none. A split's fragment rows are read from
// the source a second time here — the source blob's head was already
// read once by WriteSplits — which spec.md §4.5 accepts as the price of
// never needing a vacuum pass over the destination.
func WriteFrags(ctx context.Context, db *sql.Tx, src SourceReader, splits []*Split, frags []*Fragment) error {
	splitFinalByID := make(map[int64]int64, len(splits))
	for _, s := range splits {
		splitFinalByID[s.ID] = s.FinalID
	}

	tail := make(map[int64]*Fragment, len(splits))
	for _, f := range frags {
		if f.Offset != 0 {
			tail[f.SplitID] = f
		}
	}

	ordered := append([]*Fragment(nil), frags...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].FinalID < ordered[j].FinalID })

	insert, err := db.PrepareContext(ctx, `INSERT INTO frags (id, val) VALUES (?, ?)`)
	if err != nil {
		return failure.Wrap(failure.StoragePrepare, "writeout: prepare frags insert", err)
	}
	defer insert.Close()

	for _, f := range ordered {
		if tail[f.SplitID] != f {
			continue // only the tail fragment of each split gets a frags row
		}
		val, err := src.ReadRange(ctx, f.SplitID, f.Offset, f.Size)
		if err != nil {
			return failure.Wrap(failure.StorageStep, "writeout: read split tail", err)
		}
		if _, err := insert.ExecContext(ctx, splitFinalByID[f.SplitID], val); err != nil {
			return failure.Wrap(failure.StorageStep, "writeout: write frags row", err)
		}
	}
	return nil
}

func nullableBytes(present bool, val []byte) any {
	if !present {
		return nil
	}
	return val
}
