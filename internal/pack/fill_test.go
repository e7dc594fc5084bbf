package pack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFillPagesBestFitInvariant(t *testing.T) {
	pageSize := int64(4096)
	frags := []*Fragment{
		{ID: 1, SplitID: 1, CellSize: 1000},
		{ID: 2, SplitID: 2, CellSize: 1000},
		{ID: 3, SplitID: 3, CellSize: 3000},
		{ID: 4, SplitID: 4, CellSize: 500},
	}
	frags, pages := FillPages(frags, pageSize)

	maxSpace := pageSize - 8
	minSize := minCellSize(frags)
	byID := make(map[int64]*Page, len(pages))
	used := make(map[int64]int64)
	for _, p := range pages {
		byID[p.ID] = p
	}
	for _, f := range frags {
		used[f.PageID] += int64(f.CellSize)
	}
	for id, total := range used {
		p := byID[id]
		require.NotNil(t, p)
		require.LessOrEqual(t, total, maxSpace)
		if p.Candidate {
			require.GreaterOrEqual(t, p.FreeSpace, minSize)
		} else {
			require.Less(t, p.FreeSpace, minSize)
		}
	}
}

func TestFillPagesSingleFragmentPerPageWhenOversized(t *testing.T) {
	pageSize := int64(4096)
	maxSpace := pageSize - 8
	frags := []*Fragment{
		{ID: 1, SplitID: 1, CellSize: int32(maxSpace)},
		{ID: 2, SplitID: 2, CellSize: int32(maxSpace)},
	}
	frags, pages := FillPages(frags, pageSize)
	require.Len(t, pages, 2)
	require.NotEqual(t, frags[0].PageID, frags[1].PageID)
}

func TestUndoUselessSplitsMergesSamePageFragments(t *testing.T) {
	frags := []*Fragment{
		{ID: 1, SplitID: 1, Offset: 0, Size: 100, CellSize: 60, PageID: 1},
		{ID: 2, SplitID: 1, Offset: 100, Size: 50, CellSize: 40, PageID: 1},
		{ID: 3, SplitID: 2, Offset: 0, Size: 200, CellSize: 80, PageID: 2},
	}
	pages := []*Page{{ID: 1}, {ID: 2}}
	result, surviving := undoUselessSplits(frags, pages)

	require.Len(t, result, 2)
	var split1 *Fragment
	for _, f := range result {
		if f.SplitID == 1 {
			split1 = f
		}
	}
	require.NotNil(t, split1)
	require.Equal(t, int64(0), split1.Offset)
	require.Equal(t, int64(150), split1.Size)
	require.Len(t, surviving, 2)
}

func TestUndoUselessSplitsMergesSoleCellPair(t *testing.T) {
	frags := []*Fragment{
		{ID: 1, SplitID: 1, Offset: 0, Size: 100, CellSize: 60, PageID: 1},
		{ID: 2, SplitID: 1, Offset: 100, Size: 50, CellSize: 40, PageID: 2},
	}
	pages := []*Page{{ID: 1}, {ID: 2}}
	result, surviving := undoUselessSplits(frags, pages)

	require.Len(t, result, 1)
	require.Equal(t, int64(150), result[0].Size)
	require.Len(t, surviving, 1)
	require.Equal(t, int64(1), surviving[0].ID) // smaller page id wins
}

func TestUndoUselessSplitsKeepsGenuineSplit(t *testing.T) {
	frags := []*Fragment{
		{ID: 1, SplitID: 1, Offset: 0, Size: 100, CellSize: 60, PageID: 1},
		{ID: 2, SplitID: 1, Offset: 100, Size: 50, CellSize: 40, PageID: 2},
		{ID: 3, SplitID: 2, Offset: 0, Size: 10, CellSize: 30, PageID: 2},
	}
	pages := []*Page{{ID: 1}, {ID: 2}}
	result, surviving := undoUselessSplits(frags, pages)

	require.Len(t, result, 3)
	require.Len(t, surviving, 2)
}
