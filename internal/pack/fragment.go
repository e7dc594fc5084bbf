package pack

import (
	"github.com/blgl/blobpack/internal/geometry"
)

// estimateRowid is the placeholder rowid spec.md §4.2 step 2 uses for
// classification: "rowid -1 is a conservative upper bound on varint
// cost". The same placeholder is reused for the binary search and for
// the cell sizes the emitted fragments carry forward into Fill (P3):
// VarintLen(rowid) is an additive term common to both sides of every
// head-vs-tail comparison the search makes, so it cancels out of the
// decision regardless of which placeholder is used — only the
// classification threshold and the recorded CellSize values are
// sensitive to it, and spec.md gives only the one formula.
const estimateRowid = -1

// GenerateFragments runs P2 over every input blob, returning one Split
// per blob and the Fragments that survive classification. Null blobs
// produce a Split with no Fragments (spec.md §4.2 step 6).
func GenerateFragments(blobs []Blob, pageSize int64) ([]*Split, []*Fragment) {
	splits := make([]*Split, 0, len(blobs))
	var frags []*Fragment
	var nextFragID int64 = 1

	for _, b := range blobs {
		split := &Split{ID: b.ID}
		splits = append(splits, split)

		if b.Size == nil {
			continue
		}
		size := *b.Size

		lo, hi := splitRange(size, pageSize)

		head := binarySearchHead(size, lo, hi, pageSize)

		headSpace := geometry.Cost(estimateRowid, head, pageSize)
		assertNoUnusedSpace(headSpace)
		frags = append(frags, &Fragment{
			ID:       nextFragID,
			Offset:   0,
			Size:     head,
			CellSize: narrowCellSize(headSpace.CellSize),
			SplitID:  split.ID,
		})
		nextFragID++

		if head < size {
			tailSize := size - head
			tailSpace := geometry.Cost(estimateRowid, tailSize, pageSize)
			assertNoUnusedSpace(tailSpace)
			frags = append(frags, &Fragment{
				ID:       nextFragID,
				Offset:   head,
				Size:     tailSize,
				CellSize: narrowCellSize(tailSpace.CellSize),
				SplitID:  split.ID,
			})
			nextFragID++
		}
	}

	return splits, frags
}

// splitRange picks the binary-search bracket for a blob of the given
// size, per spec.md §4.2 step 3's Subset A / Subset B / Neither
// classification. The Neither case folds lo=hi=size, which makes the
// search below a no-op and GenerateFragments emit a single unsplit
// fragment — the same trick the original C implementation uses instead
// of special-casing the "don't split" branch separately.
func splitRange(size, pageSize int64) (lo, hi int64) {
	half := (pageSize - 8) / 2
	headSpace := geometry.Cost(estimateRowid, size, pageSize)

	switch {
	case headSpace.CellSize > half:
		// Subset A: the unsplit record would monopolize a leaf page.
		return pageSize / 8, pageSize * 5 / 8
	case headSpace.UnusedSpace > 0:
		// Subset B: splitting may eliminate one overflow page.
		return pageSize * 17 / 32, pageSize * 19 / 32
	default:
		return size, size
	}
}

// binarySearchHead implements spec.md §4.2 step 4 exactly: narrow
// [lo,hi] until hi-lo<=1, moving hi down whenever the tail fragment
// would be smaller than the head fragment at the midpoint.
func binarySearchHead(size, lo, hi, pageSize int64) int64 {
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		headCost := geometry.Cost(estimateRowid, mid, pageSize).CellSize
		tailCost := geometry.Cost(estimateRowid, size-mid, pageSize).CellSize
		if tailCost < headCost {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo
}

// assertNoUnusedSpace enforces spec.md §4.2's post-condition: both
// fragments emitted by fragment generation must land with zero unused
// overflow-page space. A violation means the binary search above, or
// the cost model it calls, has a bug — this is a programming error, not
// a runtime condition callers should handle.
func assertNoUnusedSpace(s geometry.Space) {
	if s.UnusedSpace != 0 {
		panic("pack: fragment generation produced nonzero unused_space")
	}
}

// narrowCellSize asserts the 64-bit cell size computed by the cost model
// fits the int32 field spec.md §3 declares for Fragment.CellSize
// (spec.md §9: "only page counts within a single record are narrowed to
// 32 bits, asserted to not overflow").
func narrowCellSize(v int64) int32 {
	n := int32(v)
	if int64(n) != v {
		panic("pack: cell size overflows int32")
	}
	return n
}
