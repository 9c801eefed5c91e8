package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func instrs(data ...InstrData) []Instr {
	out := make([]Instr, len(data))
	for i, d := range data {
		out[i] = Instr{Data: d}
	}
	return out
}

func cfgFunc() *Func {
	// 0 -> {1 (branch), 2 (fallthrough)}; both -> 3.
	return &Func{
		Name: "diamond",
		Blocks: []*Block{
			{ID: 0, Instrs: instrs(Int{Value: 1}, JmpZ{Target: 1}), Fallthrough: 2, ExnNode: NoExnID},
			{ID: 1, Instrs: instrs(Int{Value: 2}), Fallthrough: 3, ExnNode: NoExnID},
			{ID: 2, Instrs: instrs(Int{Value: 3}), Fallthrough: 3, ExnNode: NoExnID},
			{ID: 3, Instrs: instrs(RetC{}), Fallthrough: NoBlockID, ExnNode: NoExnID},
		},
		MainEntry: 0,
	}
}

func TestRPOSortFromMain(t *testing.T) {
	fn := cfgFunc()
	sorted := fn.RPOSortFromMain()
	require.Len(t, sorted, 4)
	require.Equal(t, BlockID(0), sorted[0].ID)

	// The join appears after both of its predecessors.
	pos := map[BlockID]int{}
	for i, b := range sorted {
		pos[b.ID] = i
	}
	require.Greater(t, pos[3], pos[1])
	require.Greater(t, pos[3], pos[2])
}

func TestRPOSortSkipsUnreachable(t *testing.T) {
	fn := cfgFunc()
	fn.Blocks = append(fn.Blocks, &Block{
		ID: 4, Instrs: instrs(RetC{}), Fallthrough: NoBlockID, ExnNode: NoExnID,
	})
	sorted := fn.RPOSortFromMain()
	require.Len(t, sorted, 4)
	for _, b := range sorted {
		require.NotEqual(t, BlockID(4), b.ID)
	}
}

func TestRPOSortSkipsFreedBlocks(t *testing.T) {
	fn := cfgFunc()
	// Block 1 was freed upstream; the dangling edge from block 0 must be
	// skipped, not dereferenced.
	fn.Blocks[1] = nil
	sorted := fn.RPOSortFromMain()
	require.Len(t, sorted, 3)
	for _, b := range sorted {
		require.NotNil(t, b)
		require.NotEqual(t, BlockID(1), b.ID)
	}
}

func TestRPOSortAddDVs(t *testing.T) {
	fn := cfgFunc()
	fn.Blocks = append(fn.Blocks, &Block{
		ID:          4,
		Instrs:      instrs(Int{Value: 9}, SetL{Local: 0}, PopC{}),
		Fallthrough: 0,
		ExnNode:     NoExnID,
	})
	fn.Params = []Param{{Name: "x", DVEntry: 4, HasDefault: true}}
	fn.Locals = []Local{{Name: "x"}}

	withDVs := fn.RPOSortAddDVs()
	require.Len(t, withDVs, 5)
	// DV-only blocks come before the main body in this ordering; the
	// layout planner slices them off and appends them at the end.
	require.Equal(t, BlockID(4), withDVs[0].ID)
	require.Equal(t, BlockID(0), withDVs[1].ID)
}

func TestRPOSortIncludesFactoredExits(t *testing.T) {
	fn := cfgFunc()
	fn.Blocks[1].FactoredExits = []BlockID{4}
	fn.Blocks = append(fn.Blocks, &Block{
		ID: 4, Section: SectionFaultFunclet,
		Instrs: instrs(Unwind{}), Fallthrough: NoBlockID, ExnNode: NoExnID,
	})
	sorted := fn.RPOSortFromMain()
	require.Len(t, sorted, 5)
}

func TestRPOSortDeepGraphIterative(t *testing.T) {
	// A long fallthrough chain; the traversal must not recurse.
	const n = 50000
	blocks := make([]*Block, n)
	for i := 0; i < n-1; i++ {
		blocks[i] = &Block{
			ID: BlockID(i), Instrs: instrs(Nop{}),
			Fallthrough: BlockID(i + 1), ExnNode: NoExnID,
		}
	}
	blocks[n-1] = &Block{
		ID: n - 1, Instrs: instrs(Null{}, RetC{}),
		Fallthrough: NoBlockID, ExnNode: NoExnID,
	}
	fn := &Func{Name: "deep", Blocks: blocks, MainEntry: 0}
	sorted := fn.RPOSortFromMain()
	require.Len(t, sorted, n)
	require.Equal(t, BlockID(0), sorted[0].ID)
	require.Equal(t, BlockID(n-1), sorted[n-1].ID)
}

func TestIsSingleNop(t *testing.T) {
	require.True(t, IsSingleNop(&Block{Instrs: instrs(Nop{})}))
	require.False(t, IsSingleNop(&Block{Instrs: instrs(Nop{}, Nop{})}))
	require.False(t, IsSingleNop(&Block{Instrs: instrs(EntryNop{})}))
	require.False(t, IsSingleNop(&Block{}))
}

func TestLiveLocalCount(t *testing.T) {
	fn := &Func{Locals: []Local{{Name: "a"}, {Name: "b", Killed: true}, {}}}
	require.Equal(t, 2, fn.LiveLocalCount())
}
