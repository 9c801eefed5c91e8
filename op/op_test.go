package op

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo(Jmp)
	require.Equal(t, "JMP", info.Name)
	require.Equal(t, []ImmKind{BA}, info.Imms)
	require.True(t, info.Flags&TF != 0)

	info = GetInfo(FPushFuncD)
	require.Equal(t, "F_PUSH_FUNC_D", info.Name)
	require.Equal(t, []ImmKind{IVA, SA}, info.Imms)
	require.True(t, info.Flags&PushesFrame != 0)
	require.True(t, info.Flags&TF == 0)
}

func TestIsTerminal(t *testing.T) {
	for _, code := range []Code{Jmp, JmpNS, Switch, SSwitch, RetC, Fatal, Throw, Unwind} {
		require.True(t, IsTerminal(code), GetInfo(code).Name)
	}
	for _, code := range []Code{Nop, JmpZ, JmpNZ, FCall, IterInit, SetL} {
		require.False(t, IsTerminal(code), GetInfo(code).Name)
	}
}

func TestInfoRegistered(t *testing.T) {
	// Every named opcode has a registered Info entry.
	codes := []Code{
		Nop, EntryNop, PopC, Dup, Null, True, False, Int, Double, String,
		Array, CGetL, PushL, SetL, UnsetL, BinOp, Concat, Not, Jmp, JmpNS,
		JmpZ, JmpNZ, Switch, SSwitch, RetC, Fatal, Throw, Unwind,
		FPushFuncD, FPushFunc, FCall, IterInit, IterNext, IterFree, BaseL,
		QueryM, SetM, MemoGet, MemoSet, DefCls, DefClsNop, StaticLocInit,
		CreateCl,
	}
	seen := map[string]bool{}
	for _, code := range codes {
		info := GetInfo(code)
		require.NotEmpty(t, info.Name)
		require.Equal(t, code, info.Code)
		require.False(t, seen[info.Name], info.Name)
		seen[info.Name] = true
	}
}

func TestBinOpString(t *testing.T) {
	require.Equal(t, "+", Add.String())
	require.Equal(t, "%", Mod.String())
	require.Equal(t, "", BinOpType(99).String())
}
