package emitter

import (
	"github.com/cloudcmds/ember/bytecode"
	"github.com/cloudcmds/ember/errz"
	"github.com/cloudcmds/ember/ir"
)

func sourceRange(loc ir.SrcLoc) bytecode.SourceRange {
	return bytecode.SourceRange{
		StartLine: loc.StartLine,
		StartCol:  loc.StartCol,
		EndLine:   loc.EndLine,
		EndCol:    loc.EndCol,
	}
}

// emitParams builds the parameter table, resolving each default-value
// initializer to its emitted entry offset.
func emitParams(fn *ir.Func, info *emitBcInfo) ([]bytecode.Param, error) {
	if len(fn.Params) == 0 {
		return nil, nil
	}
	out := make([]bytecode.Param, 0, len(fn.Params))
	for i, p := range fn.Params {
		dv := bytecode.InvalidOffset
		if p.DVEntry != ir.NoBlockID {
			dv = info.blockInfo[p.DVEntry].offset
			if dv == bytecode.InvalidOffset {
				return nil, errz.Invariant(fn.Name, int(p.DVEntry), -1,
					"default-value entry for parameter %d was never emitted", i)
			}
		}
		out = append(out, bytecode.Param{
			Name:          p.Name,
			ByRef:         p.ByRef,
			Variadic:      p.Variadic,
			TypeHint:      p.TypeHint,
			HasDefault:    p.HasDefault,
			DefaultValue:  p.DefaultValue,
			DVEntryOffset: dv,
		})
	}
	return out, nil
}

// emitLocals builds the local table: the live non-parameter locals in
// declaration order. Killed locals were removed from the numbering by the
// encoder's remap, so they get no entry here either.
func emitLocals(fn *ir.Func) []bytecode.Local {
	var out []bytecode.Local
	for i, loc := range fn.Locals {
		if i < len(fn.Params) || loc.Killed {
			continue
		}
		out = append(out, bytecode.Local{Name: loc.Name})
	}
	return out
}

// emitFunc encodes one function into the unit stream and assembles its
// tables into an immutable bytecode.Function.
func (us *unitState) emitFunc(fn *ir.Func) (*bytecode.Function, error) {
	us.log.Debug().Str("func", fn.Name).Msg("emitting function")

	info, err := us.emitBytecode(fn)
	if err != nil {
		return nil, err
	}
	ehTab, err := emitEHTree(fn, info)
	if err != nil {
		return nil, err
	}
	params, err := emitParams(fn, info)
	if err != nil {
		return nil, err
	}

	var statics []bytecode.StaticVar
	for _, s := range fn.StaticLocals {
		statics = append(statics, bytecode.StaticVar{Name: s.Name})
	}

	p := bytecode.FunctionParams{
		Name:    fn.Name,
		ClsName: fn.ClsName,

		Base: info.base,
		Past: info.past,

		Params:  params,
		Locals:  emitLocals(fn),
		Statics: statics,

		NumIters: fn.NumIters,

		EHTab:  ehTab,
		FPITab: info.fpiRegions,
		Lines:  info.lines,

		MaxStackDepth: info.maxStackDepth,
		MaxFPIDepth:   info.maxFPIDepth,
		MaxStackCells: info.maxStackDepth +
			fn.LiveLocalCount() +
			fn.NumIters*bytecode.CellsPerIter +
			info.maxFPIDepth*bytecode.CellsPerActRec,

		ContainsCalls: info.containsCalls,
		IsClosureBody: fn.IsClosureBody,
		IsAsync:       fn.IsAsync,
		IsGenerator:   fn.IsGenerator,
		Top:           fn.Top,

		Loc: sourceRange(fn.Loc),
	}

	// A bottom return type means the function never returns normally;
	// asserting it would reject every value, so no profile is recorded.
	ret, awaited := us.facts.FuncReturnType(fn)
	if ret.Tag != bytecode.TagBottom {
		us.internProfile(ret)
		p.RetProfile = ret
		p.HasRetProfile = true
	}
	if awaited != nil && awaited.Tag != bytecode.TagBottom {
		us.internProfile(*awaited)
		p.AwaitedProfile = *awaited
		p.HasAwaited = true
	}

	return bytecode.NewFunction(p), nil
}
