package bytecode

import "github.com/gofrs/uuid"

// Unit represents one emitted compilation unit: the shared byte stream,
// every function and class, the type-alias table, and the interned string
// and array pools. Immutable after creation.
type Unit struct {
	id       uuid.UUID
	filename string

	bc []byte

	pseudomain *Function
	funcs      []*Function
	classes    []*Class

	typeAliases []TypeAlias

	strings []string
	arrays  []any

	// mergeOnly marks a unit as eagerly fully mergeable at load time.
	// Only system-library units get this.
	mergeOnly  bool
	mainReturn any
	returnSeen bool
}

// UnitParams contains parameters for creating a new Unit.
type UnitParams struct {
	ID       uuid.UUID
	Filename string

	BC []byte

	Pseudomain *Function
	Funcs      []*Function
	Classes    []*Class

	TypeAliases []TypeAlias

	Strings []string
	Arrays  []any

	MergeOnly  bool
	MainReturn any
	ReturnSeen bool
}

// NewUnit creates a new immutable Unit. Input slices are copied.
func NewUnit(params UnitParams) *Unit {
	return &Unit{
		id:          params.ID,
		filename:    params.Filename,
		bc:          copySlice(params.BC),
		pseudomain:  params.Pseudomain,
		funcs:       copySlice(params.Funcs),
		classes:     copySlice(params.Classes),
		typeAliases: copySlice(params.TypeAliases),
		strings:     copySlice(params.Strings),
		arrays:      copySlice(params.Arrays),
		mergeOnly:   params.MergeOnly,
		mainReturn:  params.MainReturn,
		returnSeen:  params.ReturnSeen,
	}
}

// ID returns the unit's build id.
func (u *Unit) ID() uuid.UUID { return u.id }

// Filename returns the source filename the unit was compiled from.
func (u *Unit) Filename() string { return u.filename }

// BCLen returns the length of the unit's byte stream.
func (u *Unit) BCLen() int { return len(u.bc) }

// BCAt returns the byte at the given offset.
func (u *Unit) BCAt(off int) byte { return u.bc[off] }

// BCRange returns a copy of the byte stream in [base, past).
func (u *Unit) BCRange(base, past int) []byte {
	out := make([]byte, past-base)
	copy(out, u.bc[base:past])
	return out
}

// Pseudomain returns the unit's implicit top-level code.
func (u *Unit) Pseudomain() *Function { return u.pseudomain }

// FuncCount returns the number of free functions.
func (u *Unit) FuncCount() int { return len(u.funcs) }

// FuncAt returns the free function at the given index.
func (u *Unit) FuncAt(i int) *Function { return u.funcs[i] }

// ClassCount returns the number of classes.
func (u *Unit) ClassCount() int { return len(u.classes) }

// ClassAt returns the class at the given index.
func (u *Unit) ClassAt(i int) *Class { return u.classes[i] }

// TypeAliasCount returns the number of type aliases.
func (u *Unit) TypeAliasCount() int { return len(u.typeAliases) }

// TypeAliasAt returns the type alias at the given index.
func (u *Unit) TypeAliasAt(i int) TypeAlias { return u.typeAliases[i] }

// StringCount returns the number of interned strings.
func (u *Unit) StringCount() int { return len(u.strings) }

// StringAt returns the interned string with the given id.
func (u *Unit) StringAt(id StringID) string { return u.strings[id] }

// ArrayCount returns the number of interned arrays.
func (u *Unit) ArrayCount() int { return len(u.arrays) }

// ArrayAt returns the interned array value with the given id.
func (u *Unit) ArrayAt(id ArrayID) any { return u.arrays[id] }

// MergeOnly returns true if the unit is eagerly fully mergeable.
func (u *Unit) MergeOnly() bool { return u.mergeOnly }

// MainReturn returns the synthetic top-level return value, if any.
func (u *Unit) MainReturn() any { return u.mainReturn }

// ReturnSeen returns true if a top-level return was observed. The loader's
// hoisting logic depends on this flag.
func (u *Unit) ReturnSeen() bool { return u.returnSeen }
