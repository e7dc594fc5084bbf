// Package pack implements packing passes P2 through P5 of spec.md §2: P2
// fragment generation, P3 page fill, P4 ordering, and P5 write-out (P1,
// the open/attach/page-size/transaction pass, and the final commit live
// in internal/sqlitedriver and cmd/blobpack).
//
// The reference implementation expresses P3's undo step, P4's BFS and
// P5 as SQL against temp tables (spec.md §9). This port takes the
// alternative spec.md explicitly allows: in-memory structures — sorted
// slices and maps for best-fit, adjacency lists for the BFS — which are
// easier to unit-test without a live database connection. The behavioral
// contracts of spec.md §4 are reproduced exactly; only the mechanism
// (SQL vs. Go slices) differs.
package pack

// Blob is one input row: (id, size). A nil Size means a NULL blob.
type Blob struct {
	ID   int64
	Size *int64
}

// Split is the logical predecessor of one or two Fragments — one per
// surviving input blob. FinalID is 0 until assigned by OrderComponents
// (P4); its counter starts at 1, so 0 is a safe "unassigned" sentinel.
type Split struct {
	ID      int64 // equals the source blob's id
	FinalID int64
}

// Fragment is a contiguous slice of a blob: one or two per Split.
// Invariant (spec.md §3): for a given SplitID, either one Fragment
// exists with Offset=0, Size=blob size, or two with disjoint ranges
// [0,h) and [h,size).
type Fragment struct {
	ID       int64
	Offset   int64
	Size     int64
	CellSize int32
	SplitID  int64
	PageID   int64 // 0 until assigned by FillPages (P3)
	FinalID  int64 // 0 until assigned by OrderFragments (P4)
}

// Page is a leaf page candidate for additional cells during FillPages (P3).
type Page struct {
	ID        int64
	FreeSpace int64
	Candidate bool // false once FreeSpace is no longer meaningful (spec.md: "nil")
	FinalID   int64
}
