package emitter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudcmds/ember/bytecode"
	"github.com/cloudcmds/ember/ir"
	"github.com/cloudcmds/ember/op"
)

// fixedFacts returns canned answers for every query.
type fixedFacts struct {
	ret     bytecode.TypeProfile
	awaited *bytecode.TypeProfile
	useVars []bytecode.TypeProfile
	props   map[string]bytecode.TypeProfile
	slot    int
}

func (f *fixedFacts) FuncReturnType(*ir.Func) (bytecode.TypeProfile, *bytecode.TypeProfile) {
	return f.ret, f.awaited
}

func (f *fixedFacts) ClosureUseVars(*ir.Func) []bytecode.TypeProfile { return f.useVars }

func (f *fixedFacts) PropertyType(_ *ir.Class, name string) bytecode.TypeProfile {
	if p, ok := f.props[name]; ok {
		return p
	}
	return bytecode.TypeProfile{Tag: bytecode.TagTop}
}

func (f *fixedFacts) IfaceSlot(*ir.Class) int { return f.slot }

func factsState(facts TypeFacts) *unitState {
	return newUnitState(&ir.Unit{}, &Config{Facts: facts})
}

func dvFunc() *ir.Func {
	fn := testFunc("withDefault",
		block(0, ir.Int{Value: 1}, ir.RetC{}),
		fallsTo(block(1, ir.Int{Value: 9}, ir.SetL{Local: 0}, ir.PopC{}), 0),
	)
	fn.Params = []ir.Param{{Name: "x", DVEntry: 1, HasDefault: true, DefaultValue: int64(9)}}
	fn.Locals = []ir.Local{
		{Name: "x"},
		{Name: "dead", Killed: true},
		{Name: "tmp"},
		{Name: ""},
	}
	fn.NumIters = 2
	return fn
}

func TestEmitFuncParamTables(t *testing.T) {
	us := testState()
	fn, err := us.emitFunc(dvFunc())
	require.NoError(t, err)

	require.Equal(t, 1, fn.ParamCount())
	p := fn.ParamAt(0)
	require.Equal(t, "x", p.Name)
	require.True(t, p.HasDefault)
	require.Equal(t, int64(9), p.DefaultValue)
	// The DV initializer is laid out after the primary body, which is
	// Int+RetC, ten bytes.
	require.Equal(t, 10, p.DVEntryOffset)

	// Killed locals are excluded; params do not repeat in the local
	// table.
	require.Equal(t, 2, fn.LocalCount())
	require.Equal(t, "tmp", fn.LocalAt(0).Name)
	require.Equal(t, "", fn.LocalAt(1).Name)
}

func TestEmitFuncMaxStackCells(t *testing.T) {
	us := testState()
	fn, err := us.emitFunc(dvFunc())
	require.NoError(t, err)

	require.Equal(t, 1, fn.MaxStackDepth())
	require.Equal(t, 0, fn.MaxFPIDepth())
	// depth + live locals + iterators.
	want := 1 + 3 + 2*bytecode.CellsPerIter
	require.Equal(t, want, fn.MaxStackCells())
}

func TestEmitFuncNoDefaultParam(t *testing.T) {
	fn := testFunc("plain", block(0, ir.True{}, ir.RetC{}))
	fn.Params = []ir.Param{{Name: "y", DVEntry: ir.NoBlockID}}
	fn.Locals = []ir.Local{{Name: "y"}}

	us := testState()
	emitted, err := us.emitFunc(fn)
	require.NoError(t, err)
	require.Equal(t, bytecode.InvalidOffset, emitted.ParamAt(0).DVEntryOffset)
}

func TestEmitFuncReturnProfile(t *testing.T) {
	facts := &fixedFacts{
		ret:  bytecode.TypeProfile{Tag: bytecode.TagSubObject, ClassName: "Awaitable"},
		slot: -1,
	}
	facts.awaited = &bytecode.TypeProfile{Tag: bytecode.TagInt}

	us := factsState(facts)
	fn, err := us.emitFunc(testFunc("typed", block(0, ir.Null{}, ir.RetC{})))
	require.NoError(t, err)

	ret, ok := fn.RetProfile()
	require.True(t, ok)
	require.Equal(t, bytecode.TagSubObject, ret.Tag)
	require.Equal(t, "Awaitable", ret.ClassName)

	awaited, ok := fn.AwaitedProfile()
	require.True(t, ok)
	require.Equal(t, bytecode.TagInt, awaited.Tag)

	// The referenced class name lands in the unit's string table.
	require.Equal(t, []string{"Awaitable"}, us.strings.Snapshot())
}

func TestEmitFuncBottomReturnSkipsProfile(t *testing.T) {
	facts := &fixedFacts{ret: bytecode.TypeProfile{Tag: bytecode.TagBottom}, slot: -1}
	us := factsState(facts)
	fn, err := us.emitFunc(testFunc("noreturn",
		block(0, ir.String{Value: "nope"}, ir.Fatal{Kind: op.FatalRuntime}),
	))
	require.NoError(t, err)
	_, ok := fn.RetProfile()
	require.False(t, ok)
	_, ok = fn.AwaitedProfile()
	require.False(t, ok)
}

func TestEmitFuncStaticsAndFlags(t *testing.T) {
	src := testFunc("gen", block(0, ir.Null{}, ir.RetC{}))
	src.StaticLocals = []ir.StaticLocal{{Name: "cache"}}
	src.IsGenerator = true
	src.IsAsync = true
	src.Top = true
	src.Loc = ir.SrcLoc{StartLine: 12, StartCol: 1, EndLine: 20, EndCol: 2}

	us := testState()
	fn, err := us.emitFunc(src)
	require.NoError(t, err)

	require.Equal(t, 1, fn.StaticCount())
	require.Equal(t, "cache", fn.StaticAt(0).Name)
	require.True(t, fn.IsGenerator())
	require.True(t, fn.IsAsync())
	require.True(t, fn.Top())
	require.Equal(t, 12, fn.Loc().StartLine)
}
