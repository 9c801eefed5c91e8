// Package bytecode provides immutable representations of emitted Ember
// units.
//
// This package defines the output of emission: pure data structures that
// represent the linearized instruction stream and the auxiliary tables the
// loader needs (parameters, locals, call-site regions, exception regions,
// line tables, type profiles). These types are created once by the emitter
// and are then safe to share across goroutines.
//
// # Key Types
//
//   - [Unit]: one emitted compilation unit and its shared byte stream
//   - [Function]: one function's tables plus its [base, past) range
//   - [Class]: constant/property/interface/trait tables plus methods
//   - [EHEnt], [FPIEnt], [Param], [Local], [LineEntry]: table entries
//   - [StringTable], [ArrayTable]: concurrent interning tables
//
// All aggregate types are immutable after construction: fields are
// unexported, constructors copy input slices, and access is index-based.
// Table entries are small value types.
//
// A Unit can be serialized with [Marshal] and restored with [Unmarshal]
// for caching or distribution.
package bytecode
