package emitter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/ember/errz"
	"github.com/cloudcmds/ember/ir"
)

func testUnit() *ir.Unit {
	pm := testFunc("",
		block(0,
			ir.DefCls{Cls: 0},
			ir.Int{Value: 1},
			ir.RetC{},
		),
	)
	cls := &ir.Class{
		ID:      0,
		Name:    "Greeter",
		Methods: []*ir.Func{method("greet")},
	}
	free := testFunc("main", block(0, ir.String{Value: "hi"}, ir.RetC{}))
	return &ir.Unit{
		Filename:    "greeter.mbr",
		Pseudomain:  pm,
		Classes:     []*ir.Class{cls},
		Funcs:       []*ir.Func{free},
		TypeAliases: []ir.TypeAlias{{Name: "Id", Type: "int"}},
	}
}

func TestEmitUnit(t *testing.T) {
	unit, err := EmitUnit(testUnit(), nil)
	require.NoError(t, err)

	require.Equal(t, "greeter.mbr", unit.Filename())
	require.NotEqual(t, unit.ID().String(), "00000000-0000-0000-0000-000000000000")
	require.NotNil(t, unit.Pseudomain())
	require.Equal(t, 1, unit.ClassCount())
	require.Equal(t, 1, unit.FuncCount())
	require.Equal(t, 1, unit.TypeAliasCount())
	require.Equal(t, "Id", unit.TypeAliasAt(0).Name)

	// The pseudomain's DefCls is the first instruction, so the class's
	// definition site is offset zero.
	require.Equal(t, 0, unit.ClassAt(0).DefOffset())

	require.False(t, unit.MergeOnly())
	require.True(t, unit.ReturnSeen())
	require.Nil(t, unit.MainReturn())

	// Code ranges partition the stream in emission order: pseudomain,
	// methods, free functions.
	pm := unit.Pseudomain()
	require.Equal(t, 0, pm.Base())
	require.Equal(t, pm.Past(), unit.ClassAt(0).MethodAt(0).Base())
	require.Equal(t, unit.ClassAt(0).MethodAt(0).Past(), unit.FuncAt(0).Base())
	require.Equal(t, unit.FuncAt(0).Past(), unit.BCLen())
}

func TestEmitUnitSystemLib(t *testing.T) {
	u := testUnit()
	u.Filename = "/:systemlib/greeter.mbr"
	unit, err := EmitUnit(u, nil)
	require.NoError(t, err)

	require.True(t, unit.MergeOnly())
	require.Equal(t, int64(1), unit.MainReturn())
	require.False(t, unit.ReturnSeen())
}

func TestEmitUnitStringTable(t *testing.T) {
	unit, err := EmitUnit(testUnit(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, unit.StringCount())
	require.Equal(t, "hi", unit.StringAt(0))
}

func TestEmitUnitUndefinedClassKeepsInvalidOffset(t *testing.T) {
	u := testUnit()
	// Drop the defining instruction; the class stays but its definition
	// site is unresolved.
	u.Pseudomain = testFunc("", block(0, ir.Int{Value: 1}, ir.RetC{}))
	unit, err := EmitUnit(u, nil)
	require.NoError(t, err)
	require.Equal(t, -1, unit.ClassAt(0).DefOffset())
}

func TestEmitUnitRejectsMalformedGraph(t *testing.T) {
	u := testUnit()
	u.Funcs[0].Blocks[0].Fallthrough = 99

	_, err := EmitUnit(u, nil)
	require.Error(t, err)
	var emitErr *errz.EmitError
	require.ErrorAs(t, err, &emitErr)
	require.Equal(t, errz.ErrMalformedGraph, emitErr.Kind)
}

func TestEmitUnitAbortsOnInvariantViolation(t *testing.T) {
	u := testUnit()
	// Structurally valid but semantically broken: a pop from an empty
	// stack.
	u.Funcs[0].Blocks[0].Instrs = []ir.Instr{
		{Data: ir.PopC{}},
		{Data: ir.Null{}},
		{Data: ir.RetC{}},
	}
	_, err := EmitUnit(u, nil)
	var emitErr *errz.EmitError
	require.ErrorAs(t, err, &emitErr)
	require.Equal(t, errz.ErrInvariant, emitErr.Kind)
	require.Equal(t, "main", emitErr.FuncName)
}

func TestEmitUnitDeterministicLayout(t *testing.T) {
	first, err := EmitUnit(testUnit(), nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		next, err := EmitUnit(testUnit(), nil)
		require.NoError(t, err)
		require.Equal(t, first.BCLen(), next.BCLen())
		for off := 0; off < first.BCLen(); off++ {
			require.Equal(t, first.BCAt(off), next.BCAt(off))
		}
	}
}
