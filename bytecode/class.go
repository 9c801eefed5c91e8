package bytecode

// Constant is one class-constant entry. An abstract constant has no value;
// a deferred constant has a value computed by the class's static
// initializer at load time.
type Constant struct {
	Name        string `cbor:"1,keyasint"`
	Value       any    `cbor:"2,keyasint,omitempty"`
	HasValue    bool   `cbor:"3,keyasint"`
	Deferred    bool   `cbor:"4,keyasint"`
	TypeHint    string `cbor:"5,keyasint,omitempty"`
	IsTypeConst bool   `cbor:"6,keyasint"`
}

// Property is one property-table entry with its best-known type profile.
type Property struct {
	Name         string      `cbor:"1,keyasint"`
	Attrs        uint16      `cbor:"2,keyasint"`
	TypeHint     string      `cbor:"3,keyasint,omitempty"`
	DefaultValue any         `cbor:"4,keyasint,omitempty"`
	Profile      TypeProfile `cbor:"5,keyasint"`
}

// Class represents one emitted class. Immutable after creation.
type Class struct {
	name       string
	parentName string

	interfaces []string
	usedTraits []string

	constants  []Constant
	properties []Property
	methods    []*Function

	ifaceSlot    int
	enumBaseType string

	// defOffset is the byte offset of the class's defining instruction in
	// the unit stream, or InvalidOffset if the definition site was
	// eliminated upstream.
	defOffset int

	loc SourceRange
}

// ClassParams contains parameters for creating a new Class.
type ClassParams struct {
	Name       string
	ParentName string

	Interfaces []string
	UsedTraits []string

	Constants  []Constant
	Properties []Property
	Methods    []*Function

	IfaceSlot    int
	EnumBaseType string

	DefOffset int

	Loc SourceRange
}

// NewClass creates a new immutable Class. Input slices are copied.
func NewClass(params ClassParams) *Class {
	return &Class{
		name:         params.Name,
		parentName:   params.ParentName,
		interfaces:   copySlice(params.Interfaces),
		usedTraits:   copySlice(params.UsedTraits),
		constants:    copySlice(params.Constants),
		properties:   copySlice(params.Properties),
		methods:      copySlice(params.Methods),
		ifaceSlot:    params.IfaceSlot,
		enumBaseType: params.EnumBaseType,
		defOffset:    params.DefOffset,
		loc:          params.Loc,
	}
}

// Name returns the class name.
func (c *Class) Name() string { return c.name }

// ParentName returns the parent class name, or "".
func (c *Class) ParentName() string { return c.parentName }

// InterfaceCount returns the number of implemented interfaces.
func (c *Class) InterfaceCount() int { return len(c.interfaces) }

// InterfaceAt returns the interface name at the given index.
func (c *Class) InterfaceAt(i int) string { return c.interfaces[i] }

// UsedTraitCount returns the number of used traits.
func (c *Class) UsedTraitCount() int { return len(c.usedTraits) }

// UsedTraitAt returns the trait name at the given index.
func (c *Class) UsedTraitAt(i int) string { return c.usedTraits[i] }

// ConstantCount returns the number of class constants.
func (c *Class) ConstantCount() int { return len(c.constants) }

// ConstantAt returns the class constant at the given index.
func (c *Class) ConstantAt(i int) Constant { return c.constants[i] }

// PropertyCount returns the number of properties.
func (c *Class) PropertyCount() int { return len(c.properties) }

// PropertyAt returns the property at the given index.
func (c *Class) PropertyAt(i int) Property { return c.properties[i] }

// MethodCount returns the number of emitted methods.
func (c *Class) MethodCount() int { return len(c.methods) }

// MethodAt returns the method at the given index.
func (c *Class) MethodAt(i int) *Function { return c.methods[i] }

// IfaceSlot returns the interface dispatch slot, or -1 if none.
func (c *Class) IfaceSlot() int { return c.ifaceSlot }

// EnumBaseType returns the enum base type, or "".
func (c *Class) EnumBaseType() string { return c.enumBaseType }

// DefOffset returns the offset of the class's defining instruction, or
// InvalidOffset if it has none.
func (c *Class) DefOffset() int { return c.defOffset }

// Loc returns the class's source range.
func (c *Class) Loc() SourceRange { return c.loc }
