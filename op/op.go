// Package op defines the opcodes emitted by the Ember backend and executed
// by the Ember virtual machine.
package op

// Code is an integer opcode that indicates an operation to execute.
type Code uint8

const (
	Invalid Code = 0

	// No-ops
	Nop      Code = 1
	EntryNop Code = 2 // marks the function entry; never optimized away

	// Stack
	PopC Code = 5
	Dup  Code = 6

	// Push constants
	Null   Code = 10
	True   Code = 11
	False  Code = 12
	Int    Code = 13
	Double Code = 14
	String Code = 15
	Array  Code = 16

	// Locals
	CGetL  Code = 20
	PushL  Code = 21
	SetL   Code = 22
	UnsetL Code = 23

	// Operations
	BinOp  Code = 30
	Concat Code = 31
	Not    Code = 32

	// Control flow
	Jmp     Code = 40
	JmpNS   Code = 41 // non-surprise jump: skips surprise-flag checks
	JmpZ    Code = 42
	JmpNZ   Code = 43
	Switch  Code = 44
	SSwitch Code = 45

	// Terminals
	RetC   Code = 50
	Fatal  Code = 51
	Throw  Code = 52
	Unwind Code = 53

	// Calls
	FPushFuncD Code = 60
	FPushFunc  Code = 61
	FCall      Code = 62

	// Iterators
	IterInit Code = 70
	IterNext Code = 71
	IterFree Code = 72

	// Member operations
	BaseL  Code = 80
	QueryM Code = 81
	SetM   Code = 82

	// Memoization
	MemoGet Code = 90
	MemoSet Code = 91

	// Definitions
	DefCls        Code = 100
	DefClsNop     Code = 101
	StaticLocInit Code = 102

	// Closures
	CreateCl Code = 110
)

// ImmKind identifies the encoding of one immediate operand.
type ImmKind uint8

const (
	// IVA is a variable-length signed integer (1, 2 or 4 bytes).
	IVA ImmKind = iota + 1
	// I64 is a 64-bit integer, little-endian.
	I64
	// DBL is an IEEE-754 double, 8 bytes little-endian.
	DBL
	// SA is an interned string id, int32 little-endian.
	SA
	// AA is an interned array id, int32 little-endian.
	AA
	// LA is a local-variable slot, IVA-encoded after remapping.
	LA
	// IA is an iterator id, IVA-encoded.
	IA
	// BA is a branch target, int32 offset relative to the instruction start.
	BA
	// BLA is a switch table: int32 count followed by count branches.
	BLA
	// SLA is a string-switch table: int32 count, (string id, branch) pairs,
	// then a -1 marker and the default branch.
	SLA
	// KA is a member key: mode byte plus a mode-specific payload.
	KA
	// LAR is a local range: IVA first slot (remapped), IVA count.
	LAR
	// OA is a sub-opcode, 1 byte.
	OA
)

// Flags describe structural properties of an opcode that the emitter and
// disassembler care about.
type Flags uint8

const (
	// TF marks a terminal instruction: control never falls through.
	TF Flags = 1 << iota
	// PushesFrame marks an instruction that opens a call-site region.
	PushesFrame
	// ClosesFrame marks an instruction that completes a call.
	ClosesFrame
	// Ret marks a return instruction.
	Ret
)

// BinOpType is the sub-opcode immediate carried by BinOp.
type BinOpType uint8

const (
	Add BinOpType = 1
	Sub BinOpType = 2
	Mul BinOpType = 3
	Div BinOpType = 4
	Mod BinOpType = 5
)

// String returns the operator spelling, such as "+" for Add.
func (b BinOpType) String() string {
	switch b {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Mod:
		return "%"
	default:
		return ""
	}
}

// FatalKind is the sub-opcode immediate carried by Fatal.
type FatalKind uint8

const (
	FatalRuntime FatalKind = 0
	FatalParse   FatalKind = 1
)

// MemberMode is the mode byte of a KA immediate.
type MemberMode uint8

const (
	// MemberElemCell addresses an element by a stack cell (IVA index payload).
	MemberElemCell MemberMode = 1
	// MemberElemLocal addresses an element by a local (LA payload).
	MemberElemLocal MemberMode = 2
	// MemberElemString addresses an element by an interned string (SA payload).
	MemberElemString MemberMode = 3
	// MemberElemInt addresses an element by an integer key (I64 payload).
	MemberElemInt MemberMode = 4
	// MemberPropCell addresses a property by a stack cell (IVA index payload).
	MemberPropCell MemberMode = 5
	// MemberPropLocal addresses a property by a local (LA payload).
	MemberPropLocal MemberMode = 6
	// MemberPropString addresses a property by an interned string (SA payload).
	MemberPropString MemberMode = 7
	// MemberNewElem addresses the append position; no payload.
	MemberNewElem MemberMode = 8
)

// Info describes the name, immediate layout and flags of an opcode.
type Info struct {
	Code  Code
	Name  string
	Imms  []ImmKind
	Flags Flags
}

var infos = make([]Info, 256)

func init() {
	ops := []Info{
		{Nop, "NOP", nil, 0},
		{EntryNop, "ENTRY_NOP", nil, 0},
		{PopC, "POP_C", nil, 0},
		{Dup, "DUP", nil, 0},
		{Null, "NULL", nil, 0},
		{True, "TRUE", nil, 0},
		{False, "FALSE", nil, 0},
		{Int, "INT", []ImmKind{I64}, 0},
		{Double, "DOUBLE", []ImmKind{DBL}, 0},
		{String, "STRING", []ImmKind{SA}, 0},
		{Array, "ARRAY", []ImmKind{AA}, 0},
		{CGetL, "C_GET_L", []ImmKind{LA}, 0},
		{PushL, "PUSH_L", []ImmKind{LA}, 0},
		{SetL, "SET_L", []ImmKind{LA}, 0},
		{UnsetL, "UNSET_L", []ImmKind{LA}, 0},
		{BinOp, "BIN_OP", []ImmKind{OA}, 0},
		{Concat, "CONCAT", nil, 0},
		{Not, "NOT", nil, 0},
		{Jmp, "JMP", []ImmKind{BA}, TF},
		{JmpNS, "JMP_NS", []ImmKind{BA}, TF},
		{JmpZ, "JMP_Z", []ImmKind{BA}, 0},
		{JmpNZ, "JMP_NZ", []ImmKind{BA}, 0},
		{Switch, "SWITCH", []ImmKind{BLA}, TF},
		{SSwitch, "S_SWITCH", []ImmKind{SLA}, TF},
		{RetC, "RET_C", nil, TF | Ret},
		{Fatal, "FATAL", []ImmKind{OA}, TF},
		{Throw, "THROW", nil, TF},
		{Unwind, "UNWIND", nil, TF},
		{FPushFuncD, "F_PUSH_FUNC_D", []ImmKind{IVA, SA}, PushesFrame},
		{FPushFunc, "F_PUSH_FUNC", []ImmKind{IVA}, PushesFrame},
		{FCall, "F_CALL", []ImmKind{IVA}, ClosesFrame},
		{IterInit, "ITER_INIT", []ImmKind{IA, BA}, 0},
		{IterNext, "ITER_NEXT", []ImmKind{IA, BA}, 0},
		{IterFree, "ITER_FREE", []ImmKind{IA}, 0},
		{BaseL, "BASE_L", []ImmKind{LA, OA}, 0},
		{QueryM, "QUERY_M", []ImmKind{IVA, KA}, 0},
		{SetM, "SET_M", []ImmKind{IVA, KA}, 0},
		{MemoGet, "MEMO_GET", []ImmKind{LAR}, 0},
		{MemoSet, "MEMO_SET", []ImmKind{LAR}, 0},
		{DefCls, "DEF_CLS", []ImmKind{IVA}, 0},
		{DefClsNop, "DEF_CLS_NOP", []ImmKind{IVA}, 0},
		{StaticLocInit, "STATIC_LOC_INIT", []ImmKind{LA, SA}, 0},
		{CreateCl, "CREATE_CL", []ImmKind{IVA, IVA}, 0},
	}
	for _, o := range ops {
		infos[o.Code] = o
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(code Code) Info {
	return infos[code]
}

// IsTerminal returns true if control never falls through the opcode.
func IsTerminal(code Code) bool {
	return infos[code].Flags&TF != 0
}
