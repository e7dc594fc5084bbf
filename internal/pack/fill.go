package pack

import "sort"

// FillPages runs P3 over frags (in the order given — spec.md §4.3 allows
// "arbitrary order"), assigning each a PageID via best-fit bin packing,
// then undoes any split that bought nothing. It sets PageID on each
// fragment in place, then returns a new fragment slice in which each
// undone split's pair is replaced by one merged fragment, together with
// the set of pages that still hold at least one cell.
//
// Best-fit is driven by iterating fragments and indexing pages (spec.md
// §4.3's rationale: O(f log p) beats O((f+p) log f) since p<=f). The
// index here is a slice of page pointers kept sorted by (FreeSpace, ID)
// — the tie-break decided in SPEC_FULL.md's Open Questions section is
// "smallest page id among pages tied for smallest sufficient
// free_space", which falls out for free from sorting by (FreeSpace, ID).
func FillPages(frags []*Fragment, pageSize int64) ([]*Fragment, []*Page) {
	maxSpace := pageSize - 8
	minSize := minCellSize(frags)

	var candidates []*Page // sorted ascending by (FreeSpace, ID); Candidate==true only
	var allPages []*Page
	var nextPageID int64

	for _, f := range frags {
		cellSize := int64(f.CellSize)

		i := sort.Search(len(candidates), func(i int) bool {
			return candidates[i].FreeSpace >= cellSize
		})

		var page *Page
		if i < len(candidates) {
			page = candidates[i]
			candidates = append(candidates[:i], candidates[i+1:]...)
		} else {
			nextPageID++
			page = &Page{ID: nextPageID, FreeSpace: maxSpace, Candidate: true}
			allPages = append(allPages, page)
		}

		page.FreeSpace -= cellSize
		if page.FreeSpace < minSize {
			page.Candidate = false
		} else {
			insertCandidate(&candidates, page)
		}

		f.PageID = page.ID
	}

	return undoUselessSplits(frags, allPages)
}

func minCellSize(frags []*Fragment) int64 {
	if len(frags) == 0 {
		return 0
	}
	min := int64(frags[0].CellSize)
	for _, f := range frags[1:] {
		if int64(f.CellSize) < min {
			min = int64(f.CellSize)
		}
	}
	return min
}

func insertCandidate(candidates *[]*Page, page *Page) {
	c := *candidates
	i := sort.Search(len(c), func(i int) bool {
		if c[i].FreeSpace != page.FreeSpace {
			return c[i].FreeSpace > page.FreeSpace
		}
		return c[i].ID >= page.ID
	})
	c = append(c, nil)
	copy(c[i+1:], c[i:])
	c[i] = page
	*candidates = c
}

// undoUselessSplits implements spec.md §4.3's undo-split pass: a split
// whose two fragments either landed on the same page, or each ended up
// the sole cell on its own page, is merged back into a single
// offset=0,size=S fragment — the split bought nothing.
func undoUselessSplits(frags []*Fragment, pages []*Page) ([]*Fragment, []*Page) {
	cellCount := make(map[int64]int, len(pages))
	for _, f := range frags {
		cellCount[f.PageID]++
	}

	var order []int64
	groups := make(map[int64][]*Fragment)
	for _, f := range frags {
		if _, ok := groups[f.SplitID]; !ok {
			order = append(order, f.SplitID)
		}
		groups[f.SplitID] = append(groups[f.SplitID], f)
	}

	result := make([]*Fragment, 0, len(frags))
	for _, splitID := range order {
		group := groups[splitID]
		if len(group) == 1 {
			result = append(result, group[0])
			continue
		}

		a, b := group[0], group[1]
		samePage := a.PageID == b.PageID
		soleEach := !samePage && cellCount[a.PageID] == 1 && cellCount[b.PageID] == 1

		if !samePage && !soleEach {
			result = append(result, a, b)
			continue
		}

		survivingPage := a.PageID
		if b.PageID < survivingPage {
			survivingPage = b.PageID
		}
		result = append(result, &Fragment{
			ID:      a.ID,
			Offset:  0,
			Size:    a.Size + b.Size,
			SplitID: a.SplitID,
			PageID:  survivingPage,
		})
	}

	used := make(map[int64]bool, len(pages))
	for _, f := range result {
		used[f.PageID] = true
	}
	surviving := pages[:0:0]
	for _, p := range pages {
		if used[p.ID] {
			surviving = append(surviving, p)
		}
	}
	return result, surviving
}
