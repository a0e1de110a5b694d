package canvas

// Snapshot is a serialized drawing surface, opaque to this package. The
// browser sends data-URL blobs; tests use short byte strings.
type Snapshot []byte

// MaxHistory is the default undo depth.
const MaxHistory = 50

// History is a linear undo/redo stack of surface snapshots. The undo side
// is bounded with FIFO eviction; the redo side is cleared whenever a new
// state is saved, so there is never a branching history.
type History struct {
	undo []Snapshot
	redo []Snapshot
	max  int
}

func NewHistory(max int) *History {
	if max <= 0 {
		max = MaxHistory
	}
	return &History{max: max}
}

// SaveState pushes the state prior to an upcoming mutation. Call it before
// the mutation it guards.
func (h *History) SaveState(cur Snapshot) {
	if len(h.undo) >= h.max {
		h.undo = h.undo[1:]
	}
	h.undo = append(h.undo, cur)
	h.redo = h.redo[:0]
}

// Undo swaps the current snapshot for the most recently saved one. The
// second result is false when there is nothing to undo; the stack is left
// untouched in that case.
func (h *History) Undo(cur Snapshot) (Snapshot, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, cur)
	return prev, true
}

// Redo is the inverse of Undo.
func (h *History) Redo(cur Snapshot) (Snapshot, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, cur)
	return next, true
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }

func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Depth reports how many undo steps are currently available.
func (h *History) Depth() int { return len(h.undo) }
