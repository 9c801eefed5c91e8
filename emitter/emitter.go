// Package emitter linearizes optimized control-flow graphs into Ember
// bytecode units.
//
// Emission runs in five stages per function: block layout planning,
// streaming instruction encoding with deferred forward-branch resolution,
// exception-region reconstruction over the final layout, function
// assembly, and unit assembly. The input graphs (package ir) are never
// mutated; all output lands in immutable package bytecode values.
//
// The emitter verifies two abstract-interpretation invariants while it
// encodes: the operand-stack depth and the call-site nesting depth must be
// identical along every path into a block. A violation means the upstream
// optimizer produced a malformed graph and aborts emission of the unit.
package emitter

import (
	"github.com/rs/zerolog"

	"github.com/cloudcmds/ember/bytecode"
	"github.com/cloudcmds/ember/ir"
)

// TypeFacts answers type queries against the whole-program analysis
// results. Answers are read-only snapshots for the duration of one
// compilation run and must be safe for concurrent lookups.
type TypeFacts interface {
	// FuncReturnType returns the function's inferred return type and, when
	// the return type is a specialized awaitable, the awaited inner type.
	FuncReturnType(fn *ir.Func) (ret bytecode.TypeProfile, awaited *bytecode.TypeProfile)

	// ClosureUseVars returns the captured-variable types of a closure's
	// invoke method, in declaration order.
	ClosureUseVars(fn *ir.Func) []bytecode.TypeProfile

	// PropertyType returns the best-known type of a declared property.
	PropertyType(cls *ir.Class, prop string) bytecode.TypeProfile

	// IfaceSlot returns the interface dispatch slot for the class, or -1.
	IfaceSlot(cls *ir.Class) int
}

// NopFacts is the TypeFacts used when no analysis results are available.
// Everything is the unconstrained top type.
type NopFacts struct{}

func (NopFacts) FuncReturnType(*ir.Func) (bytecode.TypeProfile, *bytecode.TypeProfile) {
	return bytecode.TypeProfile{Tag: bytecode.TagTop}, nil
}

func (NopFacts) ClosureUseVars(*ir.Func) []bytecode.TypeProfile { return nil }

func (NopFacts) PropertyType(*ir.Class, string) bytecode.TypeProfile {
	return bytecode.TypeProfile{Tag: bytecode.TagTop}
}

func (NopFacts) IfaceSlot(*ir.Class) int { return -1 }

// Config holds emitter configuration options.
type Config struct {
	// Facts supplies inferred type information. Defaults to NopFacts.
	Facts TypeFacts

	// Logger receives emission trace output. Defaults to a disabled
	// logger. There is no ambient logging state; everything the emitter
	// reports goes through this value.
	Logger zerolog.Logger
}

func (c *Config) facts() TypeFacts {
	if c == nil || c.Facts == nil {
		return NopFacts{}
	}
	return c.Facts
}

func (c *Config) logger() zerolog.Logger {
	if c == nil {
		return zerolog.Nop()
	}
	return c.Logger
}

// unitState is the per-unit emission state shared by the function and
// class assemblers: the unit-wide byte stream, the interning tables, and
// the class-definition offset map patched at the end of unit assembly.
type unitState struct {
	facts TypeFacts
	log   zerolog.Logger

	w       *bcWriter
	strings *bytecode.StringTable
	arrays  *bytecode.ArrayTable

	// defClsMap records where each class's defining instruction was
	// emitted, indexed by ir.ClassID. bytecode.InvalidOffset until seen.
	defClsMap []int
}

func newUnitState(unit *ir.Unit, cfg *Config) *unitState {
	defClsMap := make([]int, len(unit.Classes))
	for i := range defClsMap {
		defClsMap[i] = bytecode.InvalidOffset
	}
	return &unitState{
		facts:     cfg.facts(),
		log:       cfg.logger(),
		w:         &bcWriter{},
		strings:   bytecode.NewStringTable(),
		arrays:    bytecode.NewArrayTable(),
		defClsMap: defClsMap,
	}
}

// internProfile registers any class name referenced by the profile in the
// unit's shared string table.
func (us *unitState) internProfile(p bytecode.TypeProfile) {
	if p.HasClassName() {
		us.strings.Intern(p.ClassName)
	}
}
