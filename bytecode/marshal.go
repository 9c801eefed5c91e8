package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/gofrs/uuid"
)

// Serialization state mirrors of the immutable types. Field numbers are
// part of the artifact format; append only.

type functionState struct {
	Name           string      `cbor:"1,keyasint"`
	ClsName        string      `cbor:"2,keyasint,omitempty"`
	Base           int         `cbor:"3,keyasint"`
	Past           int         `cbor:"4,keyasint"`
	Params         []Param     `cbor:"5,keyasint,omitempty"`
	Locals         []Local     `cbor:"6,keyasint,omitempty"`
	Statics        []StaticVar `cbor:"7,keyasint,omitempty"`
	NumIters       int         `cbor:"8,keyasint"`
	EHTab          []EHEnt     `cbor:"9,keyasint,omitempty"`
	FPITab         []FPIEnt    `cbor:"10,keyasint,omitempty"`
	Lines          []LineEntry `cbor:"11,keyasint,omitempty"`
	MaxStackDepth  int         `cbor:"12,keyasint"`
	MaxFPIDepth    int         `cbor:"13,keyasint"`
	MaxStackCells  int         `cbor:"14,keyasint"`
	ContainsCalls  bool        `cbor:"15,keyasint"`
	IsClosureBody  bool        `cbor:"16,keyasint"`
	IsAsync        bool        `cbor:"17,keyasint"`
	IsGenerator    bool        `cbor:"18,keyasint"`
	Top            bool        `cbor:"19,keyasint"`
	RetProfile     TypeProfile `cbor:"20,keyasint"`
	HasRetProfile  bool        `cbor:"21,keyasint"`
	AwaitedProfile TypeProfile `cbor:"22,keyasint"`
	HasAwaited     bool        `cbor:"23,keyasint"`
	Loc            SourceRange `cbor:"24,keyasint"`
}

type classState struct {
	Name         string          `cbor:"1,keyasint"`
	ParentName   string          `cbor:"2,keyasint,omitempty"`
	Interfaces   []string        `cbor:"3,keyasint,omitempty"`
	UsedTraits   []string        `cbor:"4,keyasint,omitempty"`
	Constants    []Constant      `cbor:"5,keyasint,omitempty"`
	Properties   []Property      `cbor:"6,keyasint,omitempty"`
	Methods      []functionState `cbor:"7,keyasint,omitempty"`
	IfaceSlot    int             `cbor:"8,keyasint"`
	EnumBaseType string          `cbor:"9,keyasint,omitempty"`
	DefOffset    int             `cbor:"10,keyasint"`
	Loc          SourceRange     `cbor:"11,keyasint"`
}

type unitState struct {
	ID          []byte          `cbor:"1,keyasint"`
	Filename    string          `cbor:"2,keyasint"`
	BC          []byte          `cbor:"3,keyasint"`
	Pseudomain  *functionState  `cbor:"4,keyasint"`
	Funcs       []functionState `cbor:"5,keyasint,omitempty"`
	Classes     []classState    `cbor:"6,keyasint,omitempty"`
	TypeAliases []TypeAlias     `cbor:"7,keyasint,omitempty"`
	Strings     []string        `cbor:"8,keyasint,omitempty"`
	Arrays      []any           `cbor:"9,keyasint,omitempty"`
	MergeOnly   bool            `cbor:"10,keyasint"`
	MainReturn  any             `cbor:"11,keyasint,omitempty"`
	ReturnSeen  bool            `cbor:"12,keyasint"`
}

func stateFromFunction(f *Function) functionState {
	return functionState{
		Name:           f.name,
		ClsName:        f.clsName,
		Base:           f.base,
		Past:           f.past,
		Params:         f.params,
		Locals:         f.locals,
		Statics:        f.statics,
		NumIters:       f.numIters,
		EHTab:          f.ehTab,
		FPITab:         f.fpiTab,
		Lines:          f.lines,
		MaxStackDepth:  f.maxStackDepth,
		MaxFPIDepth:    f.maxFPIDepth,
		MaxStackCells:  f.maxStackCells,
		ContainsCalls:  f.containsCalls,
		IsClosureBody:  f.isClosureBody,
		IsAsync:        f.isAsync,
		IsGenerator:    f.isGenerator,
		Top:            f.top,
		RetProfile:     f.retProfile,
		HasRetProfile:  f.hasRetProfile,
		AwaitedProfile: f.awaitedProfile,
		HasAwaited:     f.hasAwaited,
		Loc:            f.loc,
	}
}

func functionFromState(s functionState) *Function {
	return NewFunction(FunctionParams{
		Name:           s.Name,
		ClsName:        s.ClsName,
		Base:           s.Base,
		Past:           s.Past,
		Params:         s.Params,
		Locals:         s.Locals,
		Statics:        s.Statics,
		NumIters:       s.NumIters,
		EHTab:          s.EHTab,
		FPITab:         s.FPITab,
		Lines:          s.Lines,
		MaxStackDepth:  s.MaxStackDepth,
		MaxFPIDepth:    s.MaxFPIDepth,
		MaxStackCells:  s.MaxStackCells,
		ContainsCalls:  s.ContainsCalls,
		IsClosureBody:  s.IsClosureBody,
		IsAsync:        s.IsAsync,
		IsGenerator:    s.IsGenerator,
		Top:            s.Top,
		RetProfile:     s.RetProfile,
		HasRetProfile:  s.HasRetProfile,
		AwaitedProfile: s.AwaitedProfile,
		HasAwaited:     s.HasAwaited,
		Loc:            s.Loc,
	})
}

func stateFromClass(c *Class) classState {
	methods := make([]functionState, len(c.methods))
	for i, m := range c.methods {
		methods[i] = stateFromFunction(m)
	}
	return classState{
		Name:         c.name,
		ParentName:   c.parentName,
		Interfaces:   c.interfaces,
		UsedTraits:   c.usedTraits,
		Constants:    c.constants,
		Properties:   c.properties,
		Methods:      methods,
		IfaceSlot:    c.ifaceSlot,
		EnumBaseType: c.enumBaseType,
		DefOffset:    c.defOffset,
		Loc:          c.loc,
	}
}

func classFromState(s classState) *Class {
	methods := make([]*Function, len(s.Methods))
	for i, m := range s.Methods {
		methods[i] = functionFromState(m)
	}
	return NewClass(ClassParams{
		Name:         s.Name,
		ParentName:   s.ParentName,
		Interfaces:   s.Interfaces,
		UsedTraits:   s.UsedTraits,
		Constants:    s.Constants,
		Properties:   s.Properties,
		Methods:      methods,
		IfaceSlot:    s.IfaceSlot,
		EnumBaseType: s.EnumBaseType,
		DefOffset:    s.DefOffset,
		Loc:          s.Loc,
	})
}

// Marshal serializes the unit for caching or distribution.
func Marshal(u *Unit) ([]byte, error) {
	state := unitState{
		ID:          u.id.Bytes(),
		Filename:    u.filename,
		BC:          u.bc,
		TypeAliases: u.typeAliases,
		Strings:     u.strings,
		Arrays:      u.arrays,
		MergeOnly:   u.mergeOnly,
		MainReturn:  u.mainReturn,
		ReturnSeen:  u.returnSeen,
	}
	if u.pseudomain != nil {
		pm := stateFromFunction(u.pseudomain)
		state.Pseudomain = &pm
	}
	for _, f := range u.funcs {
		state.Funcs = append(state.Funcs, stateFromFunction(f))
	}
	for _, c := range u.classes {
		state.Classes = append(state.Classes, stateFromClass(c))
	}
	return canonicalEnc.Marshal(state)
}

// Unmarshal restores a unit serialized with Marshal.
func Unmarshal(data []byte) (*Unit, error) {
	var state unitState
	if err := cbor.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal unit: %w", err)
	}
	id, err := uuid.FromBytes(state.ID)
	if err != nil {
		return nil, fmt.Errorf("unmarshal unit id: %w", err)
	}
	params := UnitParams{
		ID:          id,
		Filename:    state.Filename,
		BC:          state.BC,
		TypeAliases: state.TypeAliases,
		Strings:     state.Strings,
		Arrays:      state.Arrays,
		MergeOnly:   state.MergeOnly,
		MainReturn:  state.MainReturn,
		ReturnSeen:  state.ReturnSeen,
	}
	if state.Pseudomain != nil {
		params.Pseudomain = functionFromState(*state.Pseudomain)
	}
	for _, f := range state.Funcs {
		params.Funcs = append(params.Funcs, functionFromState(f))
	}
	for _, c := range state.Classes {
		params.Classes = append(params.Classes, classFromState(c))
	}
	return NewUnit(params), nil
}
