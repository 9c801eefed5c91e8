package emitter

import (
	"github.com/cloudcmds/ember/bytecode"
	"github.com/cloudcmds/ember/errz"
	"github.com/cloudcmds/ember/ir"
	"github.com/cloudcmds/ember/op"
)

// fpi is an in-progress call-site region.
type fpi struct {
	fpushOff  int
	fpiEndOff int
	fpDelta   int
}

// jmpFixup records a forward branch awaiting its target's offset:
// instrOff is the branch instruction's start, immedOff the position of
// its int32 branch immediate.
type jmpFixup struct {
	instrOff int
	immedOff int
}

// blockInfo is per-block metadata learned during encoding.
type blockInfo struct {
	// offset of the block once emitted, bytecode.InvalidOffset before.
	offset int

	// past is the offset just past the end of the block.
	past int

	// regionsToPop is how many protected regions the jump at the end of
	// this block is leaving. 0 if there is no jump or the jump stays in
	// the same region or a child.
	regionsToPop int

	forwardJumps []jmpFixup

	// Stack depth recorded the first time any path reaches this block.
	// Every later path must match exactly.
	expectedStackDepth    int
	hasExpectedStackDepth bool

	// Same for the call-site nesting depth; needed to deal with terminal
	// instructions that end a call-site region.
	expectedFPIDepth    int
	hasExpectedFPIDepth bool
}

// emitBcInfo is everything the function assembler needs after encoding.
type emitBcInfo struct {
	layout blockLayout

	base int
	past int

	maxStackDepth int
	maxFPIDepth   int
	containsCalls bool

	fpiRegions []bytecode.FPIEnt
	blockInfo  []blockInfo
	lines      []bytecode.LineEntry
}

// bcEmitter is the transient per-function encoding state.
type bcEmitter struct {
	us   *unitState
	fn   *ir.Func
	info *emitBcInfo

	currentStackDepth int
	fpiStack          []fpi

	// localMap remaps declared local ids to emitted slots. Killed locals
	// map to -1 and must never be referenced.
	localMap []int32

	// lastOff is the start offset of the most recent instruction.
	lastOff int

	// Current position, for error context.
	curBlock ir.BlockID
	startOff int
}

func (e *bcEmitter) invariant(format string, args ...any) error {
	return errz.Invariant(e.fn.Name, int(e.curBlock), e.us.w.pos(), format, args...)
}

// buildLocalMap numbers the live locals, skipping killed ones. The
// mapping is injective and monotonic in declaration order.
func buildLocalMap(fn *ir.Func) []int32 {
	m := make([]int32, len(fn.Locals))
	next := int32(0)
	for i, loc := range fn.Locals {
		if loc.Killed {
			m[i] = -1
			continue
		}
		m[i] = next
		next++
	}
	return m
}

func (e *bcEmitter) mapLocal(id ir.LocalID) (int32, error) {
	if int(id) >= len(e.localMap) {
		return 0, e.invariant("local %d out of range", id)
	}
	mapped := e.localMap[id]
	if mapped < 0 {
		return 0, e.invariant("reference to killed local %d", id)
	}
	return mapped, nil
}

// endFPI closes the innermost open call-site region at the given offset.
func (e *bcEmitter) endFPI(off int) {
	top := e.fpiStack[len(e.fpiStack)-1]
	e.fpiStack = e.fpiStack[:len(e.fpiStack)-1]
	e.info.fpiRegions = append(e.info.fpiRegions, bytecode.FPIEnt{
		FPushOff:  top.fpushOff,
		FPIEndOff: off,
		FPOff:     top.fpDelta,
	})
}

// setExpectedDepth records, or checks, the stack and call-site depth every
// path into the block must arrive with.
func (e *bcEmitter) setExpectedDepth(info *blockInfo, target ir.BlockID) error {
	if info.hasExpectedStackDepth {
		if info.expectedStackDepth != e.currentStackDepth {
			return e.invariant(
				"stack depth mismatch entering block %d: recorded %d, got %d",
				target, info.expectedStackDepth, e.currentStackDepth)
		}
	} else {
		info.expectedStackDepth = e.currentStackDepth
		info.hasExpectedStackDepth = true
	}
	if info.hasExpectedFPIDepth {
		if info.expectedFPIDepth != len(e.fpiStack) {
			return e.invariant(
				"call-site depth mismatch entering block %d: recorded %d, got %d",
				target, info.expectedFPIDepth, len(e.fpiStack))
		}
	} else {
		info.expectedFPIDepth = len(e.fpiStack)
		info.hasExpectedFPIDepth = true
	}
	return nil
}

func (e *bcEmitter) pop(n int) error {
	e.currentStackDepth -= n
	if e.currentStackDepth < 0 {
		return e.invariant("pop of %d drives stack depth negative", n)
	}
	return nil
}

func (e *bcEmitter) push(n int) {
	e.currentStackDepth += n
	if e.currentStackDepth > e.info.maxStackDepth {
		e.info.maxStackDepth = e.currentStackDepth
	}
}

// emitBranch resolves a branch immediate: a direct signed offset for
// already-emitted targets, a zero placeholder plus a fixup otherwise.
func (e *bcEmitter) emitBranch(target ir.BlockID) error {
	if int(target) >= len(e.info.blockInfo) {
		return e.invariant("branch to invalid block %d", target)
	}
	info := &e.info.blockInfo[target]
	if err := e.setExpectedDepth(info, target); err != nil {
		return err
	}
	if info.offset != bytecode.InvalidOffset {
		e.us.w.writeInt32(int32(info.offset - e.startOff))
		return nil
	}
	info.forwardJumps = append(info.forwardJumps, jmpFixup{
		instrOff: e.startOff,
		immedOff: e.us.w.pos(),
	})
	e.us.w.writeInt32(0)
	return nil
}

func (e *bcEmitter) emitSwitch(targets []ir.BlockID) error {
	e.us.w.writeInt32(int32(len(targets)))
	for _, t := range targets {
		if err := e.emitBranch(t); err != nil {
			return err
		}
	}
	return nil
}

func (e *bcEmitter) emitSSwitch(cases []ir.SSwitchCase) error {
	if len(cases) == 0 {
		return e.invariant("string switch with no cases")
	}
	e.us.w.writeInt32(int32(len(cases)))
	for _, c := range cases[:len(cases)-1] {
		e.us.w.writeInt32(int32(e.us.strings.Intern(c.Str)))
		if err := e.emitBranch(c.Target); err != nil {
			return err
		}
	}
	e.us.w.writeInt32(-1)
	return e.emitBranch(cases[len(cases)-1].Target)
}

func (e *bcEmitter) emitMemberKey(key ir.MemberKey) error {
	e.us.w.writeByte(byte(key.Mode))
	switch key.Mode {
	case op.MemberElemCell, op.MemberPropCell:
		e.us.w.writeIVA(int32(key.Idx))
	case op.MemberElemLocal, op.MemberPropLocal:
		mapped, err := e.mapLocal(key.Local)
		if err != nil {
			return err
		}
		e.us.w.writeIVA(mapped)
	case op.MemberElemString, op.MemberPropString:
		e.us.w.writeInt32(int32(e.us.strings.Intern(key.Str)))
	case op.MemberElemInt:
		e.us.w.writeInt64(key.Int)
	case op.MemberNewElem:
	default:
		return e.invariant("invalid member key mode %d", key.Mode)
	}
	return nil
}

func (e *bcEmitter) emitLocalRange(r ir.LocalRange) error {
	first, err := e.mapLocal(r.First)
	if err != nil {
		return err
	}
	last, err := e.mapLocal(r.First + ir.LocalID(r.Count))
	if err != nil {
		return err
	}
	if last-first != int32(r.Count) {
		return e.invariant("local range %d+%d is not contiguous after remapping",
			r.First, r.Count)
	}
	e.us.w.writeIVA(first)
	e.us.w.writeIVA(int32(r.Count))
	return nil
}

func (e *bcEmitter) recordSrcLoc(loc ir.SrcLoc) {
	if !loc.IsValid() {
		return
	}
	entry := bytecode.LineEntry{
		Offset: e.startOff,
		Loc: bytecode.SourceRange{
			StartLine: loc.StartLine,
			StartCol:  loc.StartCol,
			EndLine:   loc.EndLine,
			EndCol:    loc.EndCol,
		},
	}
	if n := len(e.info.lines); n > 0 && e.info.lines[n-1].Loc == entry.Loc {
		return
	}
	e.info.lines = append(e.info.lines, entry)
}

// emitInstr encodes one instruction: the opcode byte, its stack and
// call-site effects, and its immediates, in that order. The type switch is
// exhaustive over ir.InstrData; plain Nops are dropped entirely.
func (e *bcEmitter) emitInstr(inst ir.Instr) error {
	if _, ok := inst.Data.(ir.Nop); ok {
		return nil
	}

	w := e.us.w
	e.startOff = w.pos()
	e.lastOff = e.startOff

	code := inst.Data.Op()
	w.writeByte(byte(code))

	e.us.log.Trace().
		Int("depth", e.currentStackDepth).
		Str("op", op.GetInfo(code).Name).
		Int("offset", e.startOff).
		Msg("emit")

	switch data := inst.Data.(type) {
	case ir.EntryNop:

	case ir.PopC:
		if err := e.pop(1); err != nil {
			return err
		}
	case ir.Dup:
		e.push(1)

	case ir.Null, ir.True, ir.False:
		e.push(1)
	case ir.Int:
		e.push(1)
		w.writeInt64(data.Value)
	case ir.Double:
		e.push(1)
		w.writeDouble(data.Value)
	case ir.String:
		e.push(1)
		w.writeInt32(int32(e.us.strings.Intern(data.Value)))
	case ir.Array:
		e.push(1)
		id, err := e.us.arrays.Intern(data.Value)
		if err != nil {
			return e.invariant("unencodable array literal: %v", err)
		}
		w.writeInt32(int32(id))

	case ir.CGetL:
		e.push(1)
		mapped, err := e.mapLocal(data.Local)
		if err != nil {
			return err
		}
		w.writeIVA(mapped)
	case ir.PushL:
		e.push(1)
		mapped, err := e.mapLocal(data.Local)
		if err != nil {
			return err
		}
		w.writeIVA(mapped)
	case ir.SetL:
		if err := e.pop(1); err != nil {
			return err
		}
		e.push(1)
		mapped, err := e.mapLocal(data.Local)
		if err != nil {
			return err
		}
		w.writeIVA(mapped)
	case ir.UnsetL:
		mapped, err := e.mapLocal(data.Local)
		if err != nil {
			return err
		}
		w.writeIVA(mapped)

	case ir.BinOp:
		if err := e.pop(2); err != nil {
			return err
		}
		e.push(1)
		w.writeByte(byte(data.Kind))
	case ir.Concat:
		if err := e.pop(2); err != nil {
			return err
		}
		e.push(1)
	case ir.Not:
		if err := e.pop(1); err != nil {
			return err
		}
		e.push(1)

	case ir.Jmp:
		if err := e.emitBranch(data.Target); err != nil {
			return err
		}
	case ir.JmpNS:
		if err := e.emitBranch(data.Target); err != nil {
			return err
		}
	case ir.JmpZ:
		if err := e.pop(1); err != nil {
			return err
		}
		if err := e.emitBranch(data.Target); err != nil {
			return err
		}
	case ir.JmpNZ:
		if err := e.pop(1); err != nil {
			return err
		}
		if err := e.emitBranch(data.Target); err != nil {
			return err
		}
	case ir.Switch:
		if err := e.pop(1); err != nil {
			return err
		}
		if err := e.emitSwitch(data.Targets); err != nil {
			return err
		}
	case ir.SSwitch:
		if err := e.pop(1); err != nil {
			return err
		}
		if err := e.emitSSwitch(data.Cases); err != nil {
			return err
		}

	case ir.RetC:
		if e.currentStackDepth != 1 {
			return e.invariant("return with stack depth %d", e.currentStackDepth)
		}
		if err := e.pop(1); err != nil {
			return err
		}
	case ir.Fatal:
		if err := e.pop(1); err != nil {
			return err
		}
		w.writeByte(byte(data.Kind))
	case ir.Throw:
		if err := e.pop(1); err != nil {
			return err
		}
	case ir.Unwind:

	case ir.FPushFuncD:
		w.writeIVA(int32(data.NumArgs))
		w.writeInt32(int32(e.us.strings.Intern(data.Func)))
	case ir.FPushFunc:
		if err := e.pop(1); err != nil {
			return err
		}
		w.writeIVA(int32(data.NumArgs))
	case ir.FCall:
		if err := e.pop(int(data.NumArgs)); err != nil {
			return err
		}
		e.push(1)
		w.writeIVA(int32(data.NumArgs))

	case ir.IterInit:
		if err := e.pop(1); err != nil {
			return err
		}
		w.writeIVA(int32(data.Iter))
		if err := e.emitBranch(data.Target); err != nil {
			return err
		}
	case ir.IterNext:
		w.writeIVA(int32(data.Iter))
		if err := e.emitBranch(data.Target); err != nil {
			return err
		}
	case ir.IterFree:
		w.writeIVA(int32(data.Iter))

	case ir.BaseL:
		mapped, err := e.mapLocal(data.Local)
		if err != nil {
			return err
		}
		w.writeIVA(mapped)
		w.writeByte(data.Mode)
	case ir.QueryM:
		if err := e.pop(int(data.NumStack)); err != nil {
			return err
		}
		e.push(1)
		w.writeIVA(int32(data.NumStack))
		if err := e.emitMemberKey(data.Key); err != nil {
			return err
		}
	case ir.SetM:
		if err := e.pop(int(data.NumStack) + 1); err != nil {
			return err
		}
		e.push(1)
		w.writeIVA(int32(data.NumStack))
		if err := e.emitMemberKey(data.Key); err != nil {
			return err
		}

	case ir.MemoGet:
		e.push(1)
		if err := e.emitLocalRange(data.Range); err != nil {
			return err
		}
	case ir.MemoSet:
		if err := e.pop(1); err != nil {
			return err
		}
		e.push(1)
		if err := e.emitLocalRange(data.Range); err != nil {
			return err
		}

	case ir.DefCls:
		if err := e.recordDefCls(data.Cls); err != nil {
			return err
		}
		w.writeIVA(int32(data.Cls))
	case ir.DefClsNop:
		if err := e.recordDefCls(data.Cls); err != nil {
			return err
		}
		w.writeIVA(int32(data.Cls))
	case ir.StaticLocInit:
		if err := e.pop(1); err != nil {
			return err
		}
		mapped, err := e.mapLocal(data.Local)
		if err != nil {
			return err
		}
		w.writeIVA(mapped)
		w.writeInt32(int32(e.us.strings.Intern(data.Name)))

	case ir.CreateCl:
		if err := e.pop(int(data.NumArgs)); err != nil {
			return err
		}
		e.push(1)
		w.writeIVA(int32(data.NumArgs))
		w.writeIVA(int32(data.Cls))

	default:
		return e.invariant("unknown instruction %T", inst.Data)
	}

	flags := op.GetInfo(code).Flags
	if flags&op.PushesFrame != 0 {
		e.fpiStack = append(e.fpiStack, fpi{
			fpushOff:  e.startOff,
			fpiEndOff: bytecode.InvalidOffset,
			fpDelta:   e.currentStackDepth,
		})
		if len(e.fpiStack) > e.info.maxFPIDepth {
			e.info.maxFPIDepth = len(e.fpiStack)
		}
	}
	if flags&op.ClosesFrame != 0 {
		if len(e.fpiStack) == 0 {
			return e.invariant("call completion with no open call-site")
		}
		e.endFPI(e.startOff)
		e.info.containsCalls = true
	}
	if flags&op.TF != 0 {
		e.currentStackDepth = 0
	}

	e.recordSrcLoc(inst.Loc)
	return nil
}

func (e *bcEmitter) recordDefCls(id ir.ClassID) error {
	if int(id) >= len(e.us.defClsMap) {
		return e.invariant("definition of invalid class %d", id)
	}
	if e.us.defClsMap[id] != bytecode.InvalidOffset {
		return e.invariant("duplicate definition site for class %d", id)
	}
	e.us.defClsMap[id] = e.startOff
	return nil
}

// emitBytecode walks the planned block order and encodes the function
// into the unit's byte stream, producing the per-block metadata the
// region reconstructor and function assembler consume.
func (us *unitState) emitBytecode(fn *ir.Func) (*emitBcInfo, error) {
	layout := orderBlocks(fn, us.log)

	info := &emitBcInfo{
		layout:    layout,
		base:      us.w.pos(),
		blockInfo: make([]blockInfo, len(fn.Blocks)),
	}
	for i := range info.blockInfo {
		info.blockInfo[i].offset = bytecode.InvalidOffset
		info.blockInfo[i].past = bytecode.InvalidOffset
	}

	e := &bcEmitter{
		us:       us,
		fn:       fn,
		info:     info,
		localMap: buildLocalMap(fn),
		curBlock: fn.MainEntry,
	}

	for i, b := range layout.blocks {
		bi := &info.blockInfo[b.ID]
		bi.offset = us.w.pos()
		e.curBlock = b.ID

		us.log.Debug().
			Uint32("block", uint32(b.ID)).
			Int("offset", bi.offset).
			Msg("emit block")

		for _, fixup := range bi.forwardJumps {
			us.w.patchInt32(fixup.immedOff, int32(bi.offset-fixup.instrOff))
		}

		// No recorded depth means the block is unreachable or a genuine
		// entry point; both start at depth zero.
		if !bi.hasExpectedStackDepth {
			bi.expectedStackDepth = 0
			bi.hasExpectedStackDepth = true
		}
		e.currentStackDepth = bi.expectedStackDepth

		if !bi.hasExpectedFPIDepth {
			bi.expectedFPIDepth = 0
			bi.hasExpectedFPIDepth = true
		}

		// Close call-site regions that were ended by terminal
		// instructions on the paths into this block.
		if bi.expectedFPIDepth > len(e.fpiStack) {
			return nil, e.invariant(
				"expected call-site depth %d exceeds open count %d entering block %d",
				bi.expectedFPIDepth, len(e.fpiStack), b.ID)
		}
		for bi.expectedFPIDepth < len(e.fpiStack) {
			e.endFPI(e.lastOff)
		}

		if i == 0 && layout.entryMarker {
			var loc ir.SrcLoc
			if len(b.Instrs) > 0 {
				loc = b.Instrs[0].Loc
			}
			if err := e.emitInstr(ir.Instr{Data: ir.EntryNop{}, Loc: loc}); err != nil {
				return nil, err
			}
		} else {
			for _, inst := range b.Instrs {
				if err := e.emitInstr(inst); err != nil {
					return nil, err
				}
			}
		}

		// past excludes any materialized fallthrough jump below: regions
		// popped by that jump close before its first byte.
		bi.past = us.w.pos()

		if b.Fallthrough != ir.NoBlockID {
			target := fn.Block(b.Fallthrough)
			if target == nil || int(b.Fallthrough) >= len(info.blockInfo) {
				return nil, e.invariant("invalid fallthrough block %d", b.Fallthrough)
			}
			if err := e.setExpectedDepth(&info.blockInfo[b.Fallthrough], b.Fallthrough); err != nil {
				return nil, err
			}
			if i+1 == len(layout.blocks) || layout.blocks[i+1].ID != b.Fallthrough {
				var jump ir.InstrData = ir.Jmp{Target: b.Fallthrough}
				if b.FallthroughNS {
					jump = ir.JmpNS{Target: b.Fallthrough}
				}
				if err := e.emitInstr(ir.Instr{Data: jump}); err != nil {
					return nil, err
				}

				// The jump may leave protected regions: pop from the
				// current region down to the common ancestor with the
				// target's region. No common ancestor pops them all.
				pops, err := e.regionsExited(b, target)
				if err != nil {
					return nil, err
				}
				bi.regionsToPop = pops
				us.log.Trace().
					Int("count", pops).
					Msg("popped fault regions")
			}
		}
	}

	for len(e.fpiStack) > 0 {
		e.endFPI(e.lastOff)
	}

	info.past = us.w.pos()
	return info, nil
}

// regionsExited computes how many protected regions the jump at the end
// of block b leaves when branching to target.
func (e *bcEmitter) regionsExited(b, target *ir.Block) (int, error) {
	cur := e.fn.Exn(b.ExnNode)
	if cur == nil {
		return 0, nil
	}
	parent, err := e.commonParent(e.fn.Exn(target.ExnNode), cur)
	if err != nil {
		return 0, err
	}
	parentDepth := uint32(0)
	if parent != nil {
		parentDepth = parent.Depth
	}
	if cur.Depth < parentDepth {
		return 0, e.invariant("region %d shallower than its common ancestor", cur.ID)
	}
	return int(cur.Depth - parentDepth), nil
}
