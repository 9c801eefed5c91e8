package ir

import "github.com/cloudcmds/ember/op"

// Instr pairs one instruction with its source location. The Data field is
// the tagged operand payload; Loc may be the zero value when the upstream
// pass recorded no location.
type Instr struct {
	Data InstrData
	Loc  SrcLoc
}

// InstrData is the sealed set of instruction payloads. Exactly one struct
// exists per opcode, carrying that opcode's typed immediates. The emitter
// performs encoding, stack effects and call-site effects in a single
// exhaustive type switch over this interface.
type InstrData interface {
	Op() op.Code
}

// MemberKey is the typed form of a KA immediate.
type MemberKey struct {
	Mode op.MemberMode

	// Idx is the stack-cell index for MemberElemCell / MemberPropCell.
	Idx int64

	// Local is the unmapped local id for MemberElemLocal / MemberPropLocal.
	Local LocalID

	// Str is the key string for the string-keyed modes.
	Str string

	// Int is the key for MemberElemInt.
	Int int64
}

// LocalRange is the typed form of a LAR immediate: Count locals starting
// at First, which must be declared consecutively.
type LocalRange struct {
	First LocalID
	Count uint32
}

// SSwitchCase is one arm of a string switch. The final case of an SSwitch
// is the default and its Str is ignored.
type SSwitchCase struct {
	Str    string
	Target BlockID
}

// No-ops

type Nop struct{}
type EntryNop struct{}

// Stack

type PopC struct{}
type Dup struct{}

// Push constants

type Null struct{}
type True struct{}
type False struct{}

type Int struct{ Value int64 }
type Double struct{ Value float64 }
type String struct{ Value string }
type Array struct{ Value any }

// Locals

type CGetL struct{ Local LocalID }
type PushL struct{ Local LocalID }
type SetL struct{ Local LocalID }
type UnsetL struct{ Local LocalID }

// Operations

type BinOp struct{ Kind op.BinOpType }
type Concat struct{}
type Not struct{}

// Control flow

type Jmp struct{ Target BlockID }
type JmpNS struct{ Target BlockID }
type JmpZ struct{ Target BlockID }
type JmpNZ struct{ Target BlockID }

type Switch struct{ Targets []BlockID }
type SSwitch struct{ Cases []SSwitchCase }

// Terminals

type RetC struct{}
type Fatal struct{ Kind op.FatalKind }
type Throw struct{}
type Unwind struct{}

// Calls

type FPushFuncD struct {
	NumArgs uint32
	Func    string
}

type FPushFunc struct{ NumArgs uint32 }

type FCall struct{ NumArgs uint32 }

// Iterators

type IterInit struct {
	Iter   IterID
	Target BlockID
}

type IterNext struct {
	Iter   IterID
	Target BlockID
}

type IterFree struct{ Iter IterID }

// Member operations

type BaseL struct {
	Local LocalID
	Mode  uint8
}

type QueryM struct {
	NumStack uint32
	Key      MemberKey
}

type SetM struct {
	NumStack uint32
	Key      MemberKey
}

// Memoization

type MemoGet struct{ Range LocalRange }
type MemoSet struct{ Range LocalRange }

// Definitions

type DefCls struct{ Cls ClassID }
type DefClsNop struct{ Cls ClassID }

type StaticLocInit struct {
	Local LocalID
	Name  string
}

// Closures

type CreateCl struct {
	NumArgs uint32
	Cls     ClassID
}

func (Nop) Op() op.Code           { return op.Nop }
func (EntryNop) Op() op.Code      { return op.EntryNop }
func (PopC) Op() op.Code          { return op.PopC }
func (Dup) Op() op.Code           { return op.Dup }
func (Null) Op() op.Code          { return op.Null }
func (True) Op() op.Code          { return op.True }
func (False) Op() op.Code         { return op.False }
func (Int) Op() op.Code           { return op.Int }
func (Double) Op() op.Code        { return op.Double }
func (String) Op() op.Code        { return op.String }
func (Array) Op() op.Code         { return op.Array }
func (CGetL) Op() op.Code         { return op.CGetL }
func (PushL) Op() op.Code         { return op.PushL }
func (SetL) Op() op.Code          { return op.SetL }
func (UnsetL) Op() op.Code        { return op.UnsetL }
func (BinOp) Op() op.Code         { return op.BinOp }
func (Concat) Op() op.Code        { return op.Concat }
func (Not) Op() op.Code           { return op.Not }
func (Jmp) Op() op.Code           { return op.Jmp }
func (JmpNS) Op() op.Code         { return op.JmpNS }
func (JmpZ) Op() op.Code          { return op.JmpZ }
func (JmpNZ) Op() op.Code         { return op.JmpNZ }
func (Switch) Op() op.Code        { return op.Switch }
func (SSwitch) Op() op.Code       { return op.SSwitch }
func (RetC) Op() op.Code          { return op.RetC }
func (Fatal) Op() op.Code         { return op.Fatal }
func (Throw) Op() op.Code         { return op.Throw }
func (Unwind) Op() op.Code        { return op.Unwind }
func (FPushFuncD) Op() op.Code    { return op.FPushFuncD }
func (FPushFunc) Op() op.Code     { return op.FPushFunc }
func (FCall) Op() op.Code         { return op.FCall }
func (IterInit) Op() op.Code      { return op.IterInit }
func (IterNext) Op() op.Code      { return op.IterNext }
func (IterFree) Op() op.Code      { return op.IterFree }
func (BaseL) Op() op.Code         { return op.BaseL }
func (QueryM) Op() op.Code        { return op.QueryM }
func (SetM) Op() op.Code          { return op.SetM }
func (MemoGet) Op() op.Code       { return op.MemoGet }
func (MemoSet) Op() op.Code       { return op.MemoSet }
func (DefCls) Op() op.Code        { return op.DefCls }
func (DefClsNop) Op() op.Code     { return op.DefClsNop }
func (StaticLocInit) Op() op.Code { return op.StaticLocInit }
func (CreateCl) Op() op.Code      { return op.CreateCl }

// IsSingleNop reports whether the block consists of exactly one plain Nop.
// Such a block at the head of the layout must be rewritten to EntryNop so
// the function entry is not ambiguous with a jump target.
func IsSingleNop(b *Block) bool {
	if len(b.Instrs) != 1 {
		return false
	}
	_, ok := b.Instrs[0].Data.(Nop)
	return ok
}
