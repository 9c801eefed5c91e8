package emitter

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cloudcmds/ember/ir"
)

// blockLayout is the planned linear order of a function's blocks.
type blockLayout struct {
	blocks []*ir.Block

	// entryMarker is set when the first block is a single plain Nop. The
	// encoder emits a distinguished EntryNop instead, so the stream head
	// is never ambiguous with a plain fallthrough target.
	entryMarker bool
}

// orderBlocks plans the emission order of a function's blocks.
//
// Rules about block order:
//
//   - The primary function body comes first: all blocks that are not part
//     of a fault funclet.
//   - Each funclet has all of its blocks contiguous, entry block first.
//   - The main entry point is the first block.
//
// Default-value entry points are placed after the rest of the primary
// body: the normal case is each DV initializer falling through to the
// next, with the last jumping back to the main entry.
func orderBlocks(fn *ir.Func, log zerolog.Logger) blockLayout {
	sorted := fn.RPOSortFromMain()

	// Get the DV-only blocks, without the rest of the primary body, and
	// add them at the end.
	withDVs := fn.RPOSortAddDVs()
	for i, b := range withDVs {
		if b == sorted[0] {
			withDVs = withDVs[:i]
			break
		}
	}
	sorted = append(sorted, withDVs...)

	// The stable sort keeps blocks only reachable from DV entries after
	// all other main code, and moves fault funclets after all of that,
	// without disturbing the reachability order within each section.
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Section < sorted[j].Section
	})

	// A plain Nop at the head means some block jumps to the second block.
	// Mark it for rewrite to EntryNop so it cannot be optimized away.
	entryMarker := ir.IsSingleNop(sorted[0])
	if entryMarker {
		log.Debug().Uint32("block", uint32(sorted[0].ID)).
			Msg("changing Nop to EntryNop")
	}

	if log.GetLevel() <= zerolog.DebugLevel {
		var order strings.Builder
		for _, b := range sorted {
			order.WriteByte(' ')
			if b.Section != ir.SectionMain {
				order.WriteByte('f')
			}
			order.WriteString(strconv.Itoa(int(b.ID)))
		}
		log.Debug().Str("order", order.String()).Msg("block order")
	}

	return blockLayout{blocks: sorted, entryMarker: entryMarker}
}
