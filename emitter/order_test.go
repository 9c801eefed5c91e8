package emitter

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/ember/ir"
)

func layoutIDs(l blockLayout) []ir.BlockID {
	ids := make([]ir.BlockID, len(l.blocks))
	for i, b := range l.blocks {
		ids[i] = b.ID
	}
	return ids
}

func TestOrderBlocksStraightLine(t *testing.T) {
	fn := testFunc("straight",
		fallsTo(block(0, ir.Int{Value: 1}), 1),
		fallsTo(block(1, ir.Int{Value: 2}), 2),
		block(2, ir.RetC{}),
	)
	layout := orderBlocks(fn, zerolog.Nop())
	require.Equal(t, []ir.BlockID{0, 1, 2}, layoutIDs(layout))
	require.False(t, layout.entryMarker)
}

func TestOrderBlocksDeterministic(t *testing.T) {
	fn := testFunc("diamond",
		fallsTo(block(0, ir.Int{Value: 1}, ir.JmpZ{Target: 2}), 1),
		fallsTo(block(1, ir.Int{Value: 2}), 3),
		fallsTo(block(2, ir.Int{Value: 3}), 3),
		block(3, ir.RetC{}),
	)
	first := layoutIDs(orderBlocks(fn, zerolog.Nop()))
	for i := 0; i < 10; i++ {
		require.Equal(t, first, layoutIDs(orderBlocks(fn, zerolog.Nop())))
	}
	require.Equal(t, ir.BlockID(0), first[0])
}

func TestOrderBlocksFuncletsLast(t *testing.T) {
	// Block 1 is a fault funclet wedged between main-section blocks by id.
	handler := inFunclet(block(1, ir.Unwind{}))
	b0 := fallsTo(block(0, ir.Int{Value: 1}), 2)
	b0.FactoredExits = []ir.BlockID{1}
	fn := testFunc("cleanup", b0, handler, block(2, ir.RetC{}))
	fn.ExnNodes = []*ir.ExnNode{{ID: 0, Parent: ir.NoExnID, Depth: 1, Kind: ir.RegionFault, Entry: 1}}
	b0.ExnNode = 0

	layout := orderBlocks(fn, zerolog.Nop())
	ids := layoutIDs(layout)
	require.Equal(t, []ir.BlockID{0, 2, 1}, ids)
	require.Equal(t, ir.SectionFaultFunclet, layout.blocks[len(ids)-1].Section)
}

func TestOrderBlocksDVSuffix(t *testing.T) {
	// Block 2 is only reachable as parameter 0's default-value entry; it
	// belongs after the primary body.
	fn := testFunc("dv",
		fallsTo(block(0, ir.Int{Value: 1}), 1),
		block(1, ir.RetC{}),
		fallsTo(block(2, ir.Int{Value: 9}, ir.SetL{Local: 0}, ir.PopC{}), 0),
	)
	fn.Params = []ir.Param{{Name: "x", DVEntry: 2, HasDefault: true, DefaultValue: int64(9)}}
	fn.Locals = []ir.Local{{Name: "x"}}

	layout := orderBlocks(fn, zerolog.Nop())
	require.Equal(t, []ir.BlockID{0, 1, 2}, layoutIDs(layout))
}

func TestOrderBlocksEntryMarker(t *testing.T) {
	// A loop header that is nothing but a placeholder Nop: the layout
	// flags it so the encoder emits the entry marker instead.
	fn := testFunc("loop",
		fallsTo(block(0, ir.Nop{}), 1),
		fallsTo(block(1, ir.Int{Value: 1}, ir.JmpNZ{Target: 0}), 2),
		block(2, ir.Null{}, ir.RetC{}),
	)
	layout := orderBlocks(fn, zerolog.Nop())
	require.True(t, layout.entryMarker)
	require.Equal(t, ir.BlockID(0), layout.blocks[0].ID)
}
