package emitter

import (
	"github.com/cloudcmds/ember/ir"
)

// block builds a test block with the given instructions and no
// fallthrough, region or factored exits.
func block(id ir.BlockID, instrs ...ir.InstrData) *ir.Block {
	b := &ir.Block{ID: id, Fallthrough: ir.NoBlockID, ExnNode: ir.NoExnID}
	for _, d := range instrs {
		b.Instrs = append(b.Instrs, ir.Instr{Data: d})
	}
	return b
}

func fallsTo(b *ir.Block, target ir.BlockID) *ir.Block {
	b.Fallthrough = target
	return b
}

func inRegion(b *ir.Block, region ir.ExnID) *ir.Block {
	b.ExnNode = region
	return b
}

func inFunclet(b *ir.Block) *ir.Block {
	b.Section = ir.SectionFaultFunclet
	return b
}

func testFunc(name string, blocks ...*ir.Block) *ir.Func {
	return &ir.Func{
		Name:      name,
		Blocks:    blocks,
		MainEntry: 0,
	}
}

// testState returns a fresh unit emission state with default config.
func testState() *unitState {
	return newUnitState(&ir.Unit{}, nil)
}
