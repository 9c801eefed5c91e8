package ir

// forEachSuccessor visits every successor edge of the block in a fixed
// order: branch targets of the instructions first, then the fallthrough,
// then the factored exception exits. The fixed order is what makes block
// layout deterministic.
func (f *Func) forEachSuccessor(b *Block, fn func(BlockID)) {
	for _, inst := range b.Instrs {
		switch data := inst.Data.(type) {
		case Jmp:
			fn(data.Target)
		case JmpNS:
			fn(data.Target)
		case JmpZ:
			fn(data.Target)
		case JmpNZ:
			fn(data.Target)
		case Switch:
			for _, t := range data.Targets {
				fn(t)
			}
		case SSwitch:
			for _, c := range data.Cases {
				fn(c.Target)
			}
		case IterInit:
			fn(data.Target)
		case IterNext:
			fn(data.Target)
		}
	}
	if b.Fallthrough != NoBlockID {
		fn(b.Fallthrough)
	}
	for _, t := range b.FactoredExits {
		fn(t)
	}
}

// postorder appends the postorder traversal from the given root to out,
// skipping blocks already marked in visited. The traversal is iterative;
// each stack frame tracks how many successors have been expanded.
func (f *Func) postorder(root BlockID, visited []bool, out []*Block) []*Block {
	if root == NoBlockID || int(root) >= len(f.Blocks) ||
		visited[root] || f.Blocks[root] == nil {
		return out
	}
	type frame struct {
		block *Block
		succs []BlockID
		next  int
	}
	succsOf := func(b *Block) []BlockID {
		var succs []BlockID
		f.forEachSuccessor(b, func(id BlockID) {
			succs = append(succs, id)
		})
		return succs
	}
	visited[root] = true
	stack := []frame{{block: f.Blocks[root], succs: succsOf(f.Blocks[root])}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.succs) {
			id := top.succs[top.next]
			top.next++
			// Freed slots are nil; the emitter reports the dangling edge.
			if int(id) < len(f.Blocks) && !visited[id] && f.Blocks[id] != nil {
				visited[id] = true
				stack = append(stack, frame{
					block: f.Blocks[id],
					succs: succsOf(f.Blocks[id]),
				})
			}
			continue
		}
		out = append(out, top.block)
		stack = stack[:len(stack)-1]
	}
	return out
}

func reverseBlocks(blocks []*Block) {
	for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}
}

// RPOSortFromMain returns the blocks reachable from the main entry in
// reverse postorder. Parameter default-value entry points are not
// traversal roots here, so blocks only reachable from DV entries are
// absent from the result.
func (f *Func) RPOSortFromMain() []*Block {
	visited := make([]bool, len(f.Blocks))
	post := f.postorder(f.MainEntry, visited, nil)
	reverseBlocks(post)
	return post
}

// RPOSortAddDVs returns reverse postorder over the blocks reachable from
// the main entry or from any parameter's default-value entry. The main
// entry is the first traversal root, then each DV entry in parameter
// order, which places all DV-only blocks before the main body in the
// reversed result.
func (f *Func) RPOSortAddDVs() []*Block {
	visited := make([]bool, len(f.Blocks))
	post := f.postorder(f.MainEntry, visited, nil)
	for _, p := range f.Params {
		post = f.postorder(p.DVEntry, visited, post)
	}
	reverseBlocks(post)
	return post
}
