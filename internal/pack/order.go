package pack

import "sort"

// OrderComponents runs the bipartite BFS half of P4 (spec.md §4.4),
// assigning FinalID to every split and page.
//
// Splits and pages are modeled as the two vertex sets of a bipartite
// graph, fragments as the edges. Each connected component is visited
// breadth-first, alternating a page-expansion layer and a split-
// expansion layer, seeding the next component with the lowest-id
// unvisited split once the current one is exhausted. Both layers and
// component seeds are processed in strictly increasing original-id
// order, which is what makes the traversal deterministic.
//
// Final ids are two independent dense counters, `page_cnt` and
// `split_cnt` in spec.md's own naming, each starting at 1 and
// incrementing once per vertex of that kind in visitation order — not a
// permutation of the original split/page ids. A component's vertices
// generally do not keep their original ids; spec.md's round-trip
// property is about reconstructed content, not about final ids matching
// original ones.
func OrderComponents(splits []*Split, pages []*Page, frags []*Fragment) {
	splitByID := make(map[int64]*Split, len(splits))
	for _, s := range splits {
		splitByID[s.ID] = s
	}
	pageByID := make(map[int64]*Page, len(pages))
	for _, p := range pages {
		pageByID[p.ID] = p
	}

	splitFrags := make(map[int64][]*Fragment, len(splits))
	pageFrags := make(map[int64][]*Fragment, len(pages))
	for _, f := range frags {
		splitFrags[f.SplitID] = append(splitFrags[f.SplitID], f)
		pageFrags[f.PageID] = append(pageFrags[f.PageID], f)
	}

	sortedSplits := append([]*Split(nil), splits...)
	sort.Slice(sortedSplits, func(i, j int) bool { return sortedSplits[i].ID < sortedSplits[j].ID })

	var nextSplitID, nextPageID int64 = 1, 1
	visitedSplit := make(map[int64]bool, len(splits))
	visitedPage := make(map[int64]bool, len(pages))

	for _, seed := range sortedSplits {
		if visitedSplit[seed.ID] {
			continue
		}

		splitFrontier := []*Split{seed}
		visitedSplit[seed.ID] = true
		seed.FinalID = nextSplitID
		nextSplitID++

		for len(splitFrontier) > 0 {
			// Expand: pages reachable from the current split frontier.
			var discoveredPages []*Page
			for _, s := range splitFrontier {
				for _, f := range splitFrags[s.ID] {
					p := pageByID[f.PageID]
					if !visitedPage[p.ID] {
						visitedPage[p.ID] = true
						discoveredPages = append(discoveredPages, p)
					}
				}
			}
			sort.Slice(discoveredPages, func(i, j int) bool { return discoveredPages[i].ID < discoveredPages[j].ID })
			for _, p := range discoveredPages {
				p.FinalID = nextPageID
				nextPageID++
			}

			// Expand: splits reachable from the newly discovered pages.
			var discoveredSplits []*Split
			for _, p := range discoveredPages {
				for _, f := range pageFrags[p.ID] {
					s := splitByID[f.SplitID]
					if !visitedSplit[s.ID] {
						visitedSplit[s.ID] = true
						discoveredSplits = append(discoveredSplits, s)
					}
				}
			}
			sort.Slice(discoveredSplits, func(i, j int) bool { return discoveredSplits[i].ID < discoveredSplits[j].ID })
			for _, s := range discoveredSplits {
				s.FinalID = nextSplitID
				nextSplitID++
			}

			splitFrontier = discoveredSplits
		}
	}
}

// OrderFragments assigns fragment final ids in (final page id,
// position-within-page) order, per spec.md §4.4's closing paragraph.
// Position-within-page uses the fragment's own (pre-ordering) id, which
// spec.md calls out as one acceptable deterministic tiebreak. Must run
// after OrderComponents has assigned every page's FinalID.
func OrderFragments(frags []*Fragment, pages []*Page) {
	pageByID := make(map[int64]*Page, len(pages))
	for _, p := range pages {
		pageByID[p.ID] = p
	}

	ordered := append([]*Fragment(nil), frags...)
	sort.Slice(ordered, func(i, j int) bool {
		pi, pj := pageByID[ordered[i].PageID].FinalID, pageByID[ordered[j].PageID].FinalID
		if pi != pj {
			return pi < pj
		}
		return ordered[i].ID < ordered[j].ID
	})
	for i, f := range ordered {
		f.FinalID = int64(i) + 1
	}
}
