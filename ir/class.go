package ir

// PropAttrs are property attribute bits.
type PropAttrs uint16

const (
	AttrPublic PropAttrs = 1 << iota
	AttrProtected
	AttrPrivate
	AttrStatic
)

// Const is a class constant. A constant without a value is abstract. A
// constant whose value is deferred (computed by the class's synthetic
// static initializer) has HasValue set and Deferred set.
type Const struct {
	Name        string
	Value       any
	HasValue    bool
	Deferred    bool
	TypeHint    string
	IsTypeConst bool
}

// Prop is a declared property.
type Prop struct {
	Name         string
	Attrs        PropAttrs
	DefaultValue any
	TypeHint     string
}

// Class is an optimized class ready for emission.
type Class struct {
	ID         ClassID
	Name       string
	ParentName string

	Interfaces []string
	UsedTraits []string

	Constants  []Const
	Properties []Prop
	Methods    []*Func

	// IsClosure marks the synthetic class backing a closure. Its
	// properties bind the captured variables in declaration order.
	IsClosure bool

	EnumBaseType string

	Loc SrcLoc
}

// TypeAlias is a unit-level type alias declaration.
type TypeAlias struct {
	Name string
	Type string
}

// Unit is one compilation unit: the implicit top-level code plus every
// class, free function and type alias declared in one source file.
type Unit struct {
	Filename string

	// Pseudomain is the implicit top-level code.
	Pseudomain *Func

	// Classes is indexed by ClassID.
	Classes []*Class

	Funcs       []*Func
	TypeAliases []TypeAlias
}

// systemLibPrefix marks units belonging to the system library. Those units
// are fully mergeable at load time and get a synthetic trivial return.
const systemLibPrefix = "/:systemlib"

// IsSystemLib reports whether the unit is part of the system library.
func (u *Unit) IsSystemLib() bool {
	return len(u.Filename) >= len(systemLibPrefix) &&
		u.Filename[:len(systemLibPrefix)] == systemLibPrefix
}
