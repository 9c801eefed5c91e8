// Package ir defines the control-flow-graph representation of Ember
// functions, classes and units as produced by the upstream optimizer.
//
// Values in this package are inputs to the emitter and are treated as
// read-only: the emitter never mutates a Func, Block or ExnNode. Blocks
// and region nodes are arena-allocated on their Func and addressed by
// integer ids, so back-references (a block's region, a region's parent)
// are id lookups rather than pointers.
package ir

import "math"

// BlockID identifies a Block within its Func.
type BlockID uint32

// LocalID identifies a local variable within its Func.
type LocalID uint32

// IterID identifies an iterator slot within its Func.
type IterID uint32

// ExnID identifies an ExnNode within its Func.
type ExnID uint32

// ClassID identifies a Class within its Unit.
type ClassID uint32

const (
	// NoBlockID marks an absent block reference (no fallthrough, no DV entry).
	NoBlockID = BlockID(math.MaxUint32)
	// NoExnID marks a block outside any protected region.
	NoExnID = ExnID(math.MaxUint32)
)

// Section tags a block as part of the primary function body or of a fault
// funclet. Funclet blocks are laid out after all main-section blocks.
type Section uint8

const (
	SectionMain Section = iota
	SectionFaultFunclet
)

// SrcLoc is a half-open source range. The zero value means "unknown".
type SrcLoc struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// IsValid returns true if the location refers to actual source text.
func (s SrcLoc) IsValid() bool {
	return s.StartLine > 0
}

// Block is a straight-line run of instructions with at most one fallthrough
// successor and zero or more factored exception successors.
type Block struct {
	ID      BlockID
	Section Section
	Instrs  []Instr

	// Fallthrough is the implicit successor, or NoBlockID for none.
	Fallthrough BlockID

	// FallthroughNS requests the non-surprise jump variant if the emitter
	// has to materialize the fallthrough as an explicit jump.
	FallthroughNS bool

	// ExnNode is the innermost protected region covering this block, or
	// NoExnID if the block is not covered by any region.
	ExnNode ExnID

	// FactoredExits are the exceptional successors of this block.
	FactoredExits []BlockID
}

// RegionKind distinguishes catch regions from fault regions.
type RegionKind uint8

const (
	RegionCatch RegionKind = iota
	RegionFault
)

// ExnNode is one node of a function's protected-region tree.
type ExnNode struct {
	ID     ExnID
	Parent ExnID // NoExnID for roots
	Depth  uint32

	Kind  RegionKind
	Entry BlockID // handler entry block
	Iter  IterID
	ItRef bool
}

// Local is a declared local variable slot. Locals proven dead carry the
// Killed flag and are excluded from the emitted local numbering.
type Local struct {
	Name   string // empty for unnamed locals
	Killed bool
}

// Param describes one declared parameter.
type Param struct {
	Name     string
	ByRef    bool
	Variadic bool
	TypeHint string

	// DVEntry is the entry block of the parameter's default-value
	// initializer, or NoBlockID if the parameter has no default.
	DVEntry BlockID

	// DefaultValue is the statically-known default, if any.
	DefaultValue any
	HasDefault   bool
}

// StaticLocal is a function-static variable declaration.
type StaticLocal struct {
	Name string
}

// Func is an optimized function body ready for emission.
type Func struct {
	Name    string
	ClsName string // empty for free functions and the pseudomain

	// Blocks is indexed by BlockID. Entries may be nil for ids freed by
	// upstream passes; the emitter only visits reachable blocks.
	Blocks []*Block

	// ExnNodes is indexed by ExnID.
	ExnNodes []*ExnNode

	MainEntry BlockID

	// Params occupy the first len(Params) local slots, in order.
	Params []Param
	Locals []Local

	StaticLocals []StaticLocal

	NumIters int

	IsClosureBody bool
	IsAsync       bool
	IsGenerator   bool
	Top           bool

	Loc SrcLoc
}

// Block returns the block with the given id, or nil if out of range.
func (f *Func) Block(id BlockID) *Block {
	if int(id) >= len(f.Blocks) {
		return nil
	}
	return f.Blocks[id]
}

// Exn returns the region node with the given id, or nil.
func (f *Func) Exn(id ExnID) *ExnNode {
	if id == NoExnID || int(id) >= len(f.ExnNodes) {
		return nil
	}
	return f.ExnNodes[id]
}

// LiveLocalCount returns the number of locals that survive emission.
func (f *Func) LiveLocalCount() int {
	n := 0
	for _, loc := range f.Locals {
		if !loc.Killed {
			n++
		}
	}
	return n
}
