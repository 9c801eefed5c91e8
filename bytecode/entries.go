package bytecode

// StringID identifies an interned string within a unit.
type StringID int32

// ArrayID identifies an interned array value within a unit.
type ArrayID int32

// InvalidOffset marks an offset that was never resolved.
const InvalidOffset = -1

// Stack-storage sizing factors used for MaxStackCells.
const (
	// CellsPerIter is the storage an active iterator occupies.
	CellsPerIter = 2
	// CellsPerActRec is the storage an in-flight call frame occupies.
	CellsPerActRec = 3
)

// SourceRange is a half-open source span. The zero value means "unknown".
type SourceRange struct {
	StartLine int `cbor:"1,keyasint"`
	StartCol  int `cbor:"2,keyasint"`
	EndLine   int `cbor:"3,keyasint"`
	EndCol    int `cbor:"4,keyasint"`
}

// IsValid returns true if the range refers to actual source text.
func (s SourceRange) IsValid() bool {
	return s.StartLine > 0
}

// LineEntry maps one instruction start offset to its source range. The
// table is sorted by offset; an entry covers the stream until the next
// entry's offset.
type LineEntry struct {
	Offset int         `cbor:"1,keyasint"`
	Loc    SourceRange `cbor:"2,keyasint"`
}

// EHKind distinguishes catch handlers from fault handlers.
type EHKind uint8

const (
	EHCatch EHKind = iota
	EHFault
)

// String returns "catch" or "fault".
func (k EHKind) String() string {
	if k == EHFault {
		return "fault"
	}
	return "catch"
}

// EHEnt is one protected-region interval in a function's exception table.
// The table is sorted so that an enclosing region always precedes the
// regions nested within it; ParentIndex points into the same table.
type EHEnt struct {
	Base        int    `cbor:"1,keyasint"`
	Past        int    `cbor:"2,keyasint"`
	Kind        EHKind `cbor:"3,keyasint"`
	Handler     int    `cbor:"4,keyasint"`
	ParentIndex int    `cbor:"5,keyasint"` // -1 for root regions
	Iter        int    `cbor:"6,keyasint"`
	ItRef       bool   `cbor:"7,keyasint"`
}

// FPIEnt is one call-site region: the span between opening a call's
// argument sequence and completing the call, plus the operand-stack depth
// at the open.
type FPIEnt struct {
	FPushOff  int `cbor:"1,keyasint"`
	FPIEndOff int `cbor:"2,keyasint"`
	FPOff     int `cbor:"3,keyasint"`
}

// Param is one parameter-table entry.
type Param struct {
	Name         string `cbor:"1,keyasint"`
	ByRef        bool   `cbor:"2,keyasint"`
	Variadic     bool   `cbor:"3,keyasint"`
	TypeHint     string `cbor:"4,keyasint,omitempty"`
	HasDefault   bool   `cbor:"5,keyasint"`
	DefaultValue any    `cbor:"6,keyasint,omitempty"`

	// DVEntryOffset is the emitted offset of the parameter's
	// default-value initializer, or InvalidOffset if it has none.
	DVEntryOffset int `cbor:"7,keyasint"`
}

// Local is one local-table entry. Unnamed locals have an empty name.
type Local struct {
	Name string `cbor:"1,keyasint,omitempty"`
}

// StaticVar is one function-static variable declaration.
type StaticVar struct {
	Name string `cbor:"1,keyasint"`
}

// TypeAlias is one unit-level type alias.
type TypeAlias struct {
	Name string `cbor:"1,keyasint"`
	Type string `cbor:"2,keyasint"`
}

// TypeTag is the coarse shape of a TypeProfile.
type TypeTag uint8

const (
	// TagTop is the unconstrained type; a top profile asserts nothing.
	TagTop TypeTag = iota
	// TagBottom is the unreachable type; no profile is emitted for it.
	TagBottom
	TagNull
	TagBool
	TagInt
	TagDouble
	TagString
	TagArray
	TagObject
	// TagSubObject asserts an instance of ClassName or a subclass.
	TagSubObject
	// TagExactObject asserts an instance of exactly ClassName.
	TagExactObject
)

// TypeProfile is a compact, repeatable type assertion embedded alongside a
// function or property for later verification by the runtime.
type TypeProfile struct {
	Tag       TypeTag `cbor:"1,keyasint"`
	ClassName string  `cbor:"2,keyasint,omitempty"`
}

// HasClassName returns true if the profile's tag references a class name.
func (p TypeProfile) HasClassName() bool {
	return p.Tag == TagSubObject || p.Tag == TagExactObject
}
