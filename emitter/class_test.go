package emitter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/ember/bytecode"
	"github.com/cloudcmds/ember/ir"
)

func method(name string) *ir.Func {
	fn := testFunc(name, block(0, ir.Null{}, ir.RetC{}))
	fn.ClsName = "C"
	return fn
}

func TestEmitClassSkipsUnusedCinit(t *testing.T) {
	cls := &ir.Class{
		ID:   0,
		Name: "C",
		Constants: []ir.Const{
			{Name: "K", Value: int64(3), HasValue: true},
		},
		Methods: []*ir.Func{method(cinitName), method("run")},
	}
	us := testState()
	cp, err := us.emitClass(cls)
	require.NoError(t, err)
	require.Len(t, cp.Methods, 1)
	require.Equal(t, "run", cp.Methods[0].Name())
}

func TestEmitClassKeepsCinitForDeferredConst(t *testing.T) {
	cls := &ir.Class{
		ID:   0,
		Name: "C",
		Constants: []ir.Const{
			{Name: "K", HasValue: true, Deferred: true},
		},
		Methods: []*ir.Func{method(cinitName), method("run")},
	}
	us := testState()
	cp, err := us.emitClass(cls)
	require.NoError(t, err)
	require.Len(t, cp.Methods, 2)
	require.Equal(t, cinitName, cp.Methods[0].Name())
}

func TestEmitClassConstantTable(t *testing.T) {
	cls := &ir.Class{
		ID:   0,
		Name: "C",
		Constants: []ir.Const{
			{Name: "LIMIT", Value: int64(10), HasValue: true, TypeHint: "int"},
			{Name: "ABSTRACT"},
			{Name: "T", HasValue: true, IsTypeConst: true, Value: "string"},
		},
	}
	us := testState()
	cp, err := us.emitClass(cls)
	require.NoError(t, err)

	require.Len(t, cp.Constants, 3)
	require.Equal(t, int64(10), cp.Constants[0].Value)
	require.False(t, cp.Constants[1].HasValue)
	require.True(t, cp.Constants[2].IsTypeConst)
}

func TestEmitClassPropertyProfiles(t *testing.T) {
	facts := &fixedFacts{
		ret: bytecode.TypeProfile{Tag: bytecode.TagTop},
		props: map[string]bytecode.TypeProfile{
			"count": {Tag: bytecode.TagInt},
			"owner": {Tag: bytecode.TagExactObject, ClassName: "User"},
		},
		slot: 4,
	}
	cls := &ir.Class{
		ID:   0,
		Name: "C",
		Properties: []ir.Prop{
			{Name: "count", Attrs: ir.AttrPrivate, DefaultValue: int64(0)},
			{Name: "owner", Attrs: ir.AttrPublic},
			{Name: "misc", Attrs: ir.AttrPublic | ir.AttrStatic},
		},
	}
	us := factsState(facts)
	cp, err := us.emitClass(cls)
	require.NoError(t, err)

	require.Len(t, cp.Properties, 3)
	require.Equal(t, bytecode.TagInt, cp.Properties[0].Profile.Tag)
	require.Equal(t, "User", cp.Properties[1].Profile.ClassName)
	require.Equal(t, bytecode.TagTop, cp.Properties[2].Profile.Tag)
	require.Equal(t, 4, cp.IfaceSlot)

	// Profile class names are registered in the unit string table.
	require.Contains(t, us.strings.Snapshot(), "User")
}

func TestEmitClosureUseVarProfiles(t *testing.T) {
	invoke := method("__invoke")
	invoke.IsClosureBody = true
	facts := &fixedFacts{
		ret: bytecode.TypeProfile{Tag: bytecode.TagTop},
		useVars: []bytecode.TypeProfile{
			{Tag: bytecode.TagInt},
			{Tag: bytecode.TagString},
		},
		slot: -1,
	}
	cls := &ir.Class{
		ID:        0,
		Name:      "Closure$main",
		IsClosure: true,
		Properties: []ir.Prop{
			{Name: "n", Attrs: ir.AttrPrivate},
			{Name: "s", Attrs: ir.AttrPrivate},
		},
		Methods: []*ir.Func{invoke},
	}
	us := factsState(facts)
	cp, err := us.emitClass(cls)
	require.NoError(t, err)

	// Capture properties bind to the use-var types in declaration order.
	require.Equal(t, bytecode.TagInt, cp.Properties[0].Profile.Tag)
	require.Equal(t, bytecode.TagString, cp.Properties[1].Profile.Tag)
}
