package ir

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Validate checks the structural well-formedness the emitter relies on:
// valid block references, local indices within the declared count, and an
// acyclic, properly rooted region tree. All findings are collected so a
// malformed graph is reported in one pass.
func (f *Func) Validate() error {
	var result *multierror.Error

	badBlock := func(id BlockID) bool {
		return int(id) >= len(f.Blocks) || f.Blocks[id] == nil
	}

	if f.MainEntry == NoBlockID || badBlock(f.MainEntry) {
		result = multierror.Append(result,
			fmt.Errorf("func %s: invalid main entry block %d", f.Name, f.MainEntry))
		return result.ErrorOrNil()
	}

	for _, p := range f.Params {
		if p.DVEntry != NoBlockID && badBlock(p.DVEntry) {
			result = multierror.Append(result,
				fmt.Errorf("func %s: param %q: invalid DV entry block %d",
					f.Name, p.Name, p.DVEntry))
		}
	}

	checkLocal := func(b *Block, id LocalID) {
		if int(id) >= len(f.Locals) {
			result = multierror.Append(result,
				fmt.Errorf("func %s: block %d: local %d out of range",
					f.Name, b.ID, id))
		}
	}

	for _, b := range f.Blocks {
		if b == nil {
			continue
		}
		if b.Fallthrough != NoBlockID && badBlock(b.Fallthrough) {
			result = multierror.Append(result,
				fmt.Errorf("func %s: block %d: invalid fallthrough %d",
					f.Name, b.ID, b.Fallthrough))
		}
		f.forEachSuccessor(b, func(id BlockID) {
			if badBlock(id) {
				result = multierror.Append(result,
					fmt.Errorf("func %s: block %d: invalid branch target %d",
						f.Name, b.ID, id))
			}
		})
		if b.ExnNode != NoExnID && f.Exn(b.ExnNode) == nil {
			result = multierror.Append(result,
				fmt.Errorf("func %s: block %d: invalid region node %d",
					f.Name, b.ID, b.ExnNode))
		}
		for _, inst := range b.Instrs {
			switch data := inst.Data.(type) {
			case CGetL:
				checkLocal(b, data.Local)
			case PushL:
				checkLocal(b, data.Local)
			case SetL:
				checkLocal(b, data.Local)
			case UnsetL:
				checkLocal(b, data.Local)
			case BaseL:
				checkLocal(b, data.Local)
			case StaticLocInit:
				checkLocal(b, data.Local)
			case MemoGet:
				checkLocal(b, data.Range.First+LocalID(data.Range.Count))
			case MemoSet:
				checkLocal(b, data.Range.First+LocalID(data.Range.Count))
			}
		}
	}

	for _, node := range f.ExnNodes {
		if node == nil {
			continue
		}
		if badBlock(node.Entry) {
			result = multierror.Append(result,
				fmt.Errorf("func %s: region %d: invalid handler entry %d",
					f.Name, node.ID, node.Entry))
		}
		if node.Parent == NoExnID {
			if node.Depth != 1 {
				result = multierror.Append(result,
					fmt.Errorf("func %s: region %d: root depth %d, want 1",
						f.Name, node.ID, node.Depth))
			}
			continue
		}
		parent := f.Exn(node.Parent)
		if parent == nil {
			result = multierror.Append(result,
				fmt.Errorf("func %s: region %d: invalid parent %d",
					f.Name, node.ID, node.Parent))
			continue
		}
		if node.Depth != parent.Depth+1 {
			result = multierror.Append(result,
				fmt.Errorf("func %s: region %d: depth %d, parent depth %d",
					f.Name, node.ID, node.Depth, parent.Depth))
		}
	}

	return result.ErrorOrNil()
}

// Validate checks every function and method in the unit.
func (u *Unit) Validate() error {
	var result *multierror.Error
	if u.Pseudomain == nil {
		result = multierror.Append(result,
			fmt.Errorf("unit %s: missing pseudomain", u.Filename))
	} else if err := u.Pseudomain.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	for i, cls := range u.Classes {
		// Classes is indexed by ClassID; DefCls offsets recorded during
		// emission are patched back by that id.
		if cls.ID != ClassID(i) {
			result = multierror.Append(result,
				fmt.Errorf("unit %s: class %q: id %d at index %d",
					u.Filename, cls.Name, cls.ID, i))
		}
		for _, m := range cls.Methods {
			if err := m.Validate(); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	for _, fn := range u.Funcs {
		if err := fn.Validate(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
