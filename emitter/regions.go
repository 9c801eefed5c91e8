package emitter

import (
	"sort"

	"github.com/cloudcmds/ember/bytecode"
	"github.com/cloudcmds/ember/errz"
	"github.com/cloudcmds/ember/ir"
)

// ehRegion is one contiguous interval during which a protected region is
// active. A region that is interrupted by the block layout, for example
// when a jump leaves it and a later block re-enters it, gets a separate
// interval per stretch.
type ehRegion struct {
	node   *ir.ExnNode
	parent *ehRegion
	start  int
	past   int
}

// handleEquivalent reports whether two protected regions would unwind to
// the same handlers. Since a region's handlers sit above it in the tree,
// equality of the entry blocks up the parent chain is what matters.
func handleEquivalent(fn *ir.Func, a, b ir.ExnID) (bool, error) {
	limit := len(fn.ExnNodes) + 1
	for a != b {
		if limit--; limit < 0 {
			return false, errz.Invariant(fn.Name, -1, -1, "cycle in protected-region tree")
		}
		na, nb := fn.Exn(a), fn.Exn(b)
		if na == nil || nb == nil {
			return false, nil
		}
		if na.Entry != nb.Entry {
			return false, nil
		}
		a, b = na.Parent, nb.Parent
	}
	return true, nil
}

// commonParent finds the deepest ancestor shared by both regions, treating
// handle-equivalent regions as the same region. Either argument may be
// nil; a nil result means the regions share no ancestor.
func (e *bcEmitter) commonParent(a, b *ir.ExnNode) (*ir.ExnNode, error) {
	if a == nil || b == nil {
		return nil, nil
	}
	limit := len(e.fn.ExnNodes) + 1
	for a.Depth > b.Depth {
		if limit--; limit < 0 {
			return nil, e.invariant("cycle in protected-region tree")
		}
		a = e.fn.Exn(a.Parent)
		if a == nil {
			return nil, nil
		}
	}
	for b.Depth > a.Depth {
		if limit--; limit < 0 {
			return nil, e.invariant("cycle in protected-region tree")
		}
		b = e.fn.Exn(b.Parent)
		if b == nil {
			return nil, nil
		}
	}
	for {
		eq, err := handleEquivalent(e.fn, a.ID, b.ID)
		if err != nil {
			return nil, err
		}
		if eq {
			return a, nil
		}
		if limit--; limit < 0 {
			return nil, e.invariant("cycle in protected-region tree")
		}
		a, b = e.fn.Exn(a.Parent), e.fn.Exn(b.Parent)
		if a == nil || b == nil {
			return nil, nil
		}
	}
}

// exnPath returns the chain of regions from the root down to id. An
// invalid id yields an empty path.
func exnPath(fn *ir.Func, id ir.ExnID) ([]*ir.ExnNode, error) {
	var path []*ir.ExnNode
	for n := fn.Exn(id); n != nil; n = fn.Exn(n.Parent) {
		if len(path) > len(fn.ExnNodes) {
			return nil, errz.Invariant(fn.Name, -1, -1, "cycle in protected-region tree")
		}
		path = append(path, n)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// emitEHTree reconstructs the function's exception table from the planned
// block order and the per-block offsets learned during encoding.
//
// Walking the layout, it maintains the list of currently active regions
// as a stack: entering a block whose region path diverges from the active
// list closes the divergent suffix at the block's offset and opens the
// block's own suffix there, and a jump that left regions at the end of
// the previous block closes them at that block's end. Each interval
// becomes one table entry; zero-length intervals are dropped.
func emitEHTree(fn *ir.Func, info *emitBcInfo) ([]bytecode.EHEnt, error) {
	var all []*ehRegion
	var active []*ehRegion

	popActive := func(past int) {
		r := active[len(active)-1]
		active = active[:len(active)-1]
		r.past = past
	}
	pushActive := func(node *ir.ExnNode, start int) {
		var parent *ehRegion
		if len(active) > 0 {
			parent = active[len(active)-1]
		}
		r := &ehRegion{node: node, parent: parent, start: start, past: bytecode.InvalidOffset}
		all = append(all, r)
		active = append(active, r)
	}

	for _, b := range info.layout.blocks {
		bi := &info.blockInfo[b.ID]

		path, err := exnPath(fn, b.ExnNode)
		if err != nil {
			return nil, err
		}
		shared := 0
		for shared < len(active) && shared < len(path) && active[shared].node == path[shared] {
			shared++
		}
		for len(active) > shared {
			popActive(bi.offset)
		}
		for _, node := range path[shared:] {
			pushActive(node, bi.offset)
		}

		for i := 0; i < bi.regionsToPop; i++ {
			if len(active) == 0 {
				return nil, errz.Invariant(fn.Name, int(b.ID), bi.past,
					"jump leaves more regions than are active")
			}
			popActive(bi.past)
		}
	}
	for len(active) > 0 {
		popActive(info.past)
	}

	// Outermost first, then widest; a parent interval always precedes the
	// intervals nested within it.
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.start != b.start {
			return a.start < b.start
		}
		if a.past != b.past {
			return a.past > b.past
		}
		for p := b.parent; p != nil; p = p.parent {
			if p == a {
				return true
			}
		}
		return false
	})

	var tab []bytecode.EHEnt
	index := make(map[*ehRegion]int)
	for _, r := range all {
		if r.start == r.past {
			continue
		}
		ent := bytecode.EHEnt{
			Base:        r.start,
			Past:        r.past,
			ParentIndex: -1,
			Iter:        -1,
		}
		if r.parent != nil {
			pi, ok := index[r.parent]
			if !ok {
				return nil, errz.Invariant(fn.Name, -1, r.start,
					"nested region emitted before its parent")
			}
			ent.ParentIndex = pi
		}
		handler := info.blockInfo[r.node.Entry].offset
		if handler == bytecode.InvalidOffset {
			return nil, errz.Invariant(fn.Name, int(r.node.Entry), r.start,
				"handler block for region %d was never emitted", r.node.ID)
		}
		ent.Handler = handler
		switch r.node.Kind {
		case ir.RegionCatch:
			ent.Kind = bytecode.EHCatch
		case ir.RegionFault:
			ent.Kind = bytecode.EHFault
			ent.Iter = int(r.node.Iter)
			ent.ItRef = r.node.ItRef
		default:
			return nil, errz.Invariant(fn.Name, int(r.node.Entry), r.start,
				"unknown region kind %d", r.node.Kind)
		}
		index[r] = len(tab)
		tab = append(tab, ent)
	}
	return tab, nil
}
