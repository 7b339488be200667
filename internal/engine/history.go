package engine

import (
	"slices"

	"github.com/inamate/timeline/backend-go/internal/document"
)

type snapshot struct {
	label     string
	tracks    []document.Track
	selection []string
}

// History is a bounded command log of pre-mutation snapshots. While a
// gesture is open, only the snapshot taken at its start is kept, so the
// whole gesture undoes as one step.
type History struct {
	limit int
	undo  []snapshot
	redo  []snapshot

	gesture      *snapshot
	gestureDirty bool
}

func NewHistory(limit int) *History {
	return &History{limit: limit}
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Reset drops every entry and any open gesture.
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
	h.gesture = nil
	h.gestureDirty = false
}

func (h *History) push(s snapshot) {
	h.undo = append(h.undo, s)
	if len(h.undo) > h.limit {
		h.undo = slices.Delete(h.undo, 0, len(h.undo)-h.limit)
	}
	h.redo = nil
}

func (e *Engine) capture(label string) snapshot {
	return snapshot{
		label:     label,
		tracks:    e.Tracks(),
		selection: slices.Clone(e.selection),
	}
}

func (e *Engine) restore(s snapshot) {
	e.tracks = s.tracks
	e.selection = s.selection
	e.pruneSelection()
}

// mutate runs fn and records an undo entry when it succeeds. fn must
// validate before touching state so a failure leaves nothing behind.
func (e *Engine) mutate(label string, fn func() error) error {
	if e.history.gesture != nil {
		if err := fn(); err != nil {
			return err
		}
		e.history.gestureDirty = true
		return nil
	}

	before := e.capture(label)
	if err := fn(); err != nil {
		return err
	}
	e.history.push(before)
	return nil
}

// BeginGesture groups the following mutations into one undo step until
// EndGesture is called. Nested calls are ignored.
func (e *Engine) BeginGesture(label string) {
	if e.history.gesture != nil {
		return
	}
	s := e.capture(label)
	e.history.gesture = &s
	e.history.gestureDirty = false
}

// EndGesture closes the open gesture. Mutations already applied stay
// applied; an entry is recorded only if something changed.
func (e *Engine) EndGesture() {
	g := e.history.gesture
	if g == nil {
		return
	}
	e.history.gesture = nil
	if e.history.gestureDirty {
		e.history.push(*g)
	}
	e.history.gestureDirty = false
}

// InGesture reports whether a gesture is open.
func (e *Engine) InGesture() bool {
	return e.history.gesture != nil
}

// Undo reverts the last recorded mutation. It returns the entry's label
// and false when there is nothing to undo.
func (e *Engine) Undo() (string, bool) {
	e.EndGesture()
	if !e.history.CanUndo() {
		return "", false
	}
	last := e.history.undo[len(e.history.undo)-1]
	e.history.undo = e.history.undo[:len(e.history.undo)-1]
	e.history.redo = append(e.history.redo, e.capture(last.label))
	e.restore(last)
	return last.label, true
}

// Redo re-applies the last undone mutation.
func (e *Engine) Redo() (string, bool) {
	e.EndGesture()
	if !e.history.CanRedo() {
		return "", false
	}
	next := e.history.redo[len(e.history.redo)-1]
	e.history.redo = e.history.redo[:len(e.history.redo)-1]
	e.history.undo = append(e.history.undo, e.capture(next.label))
	e.restore(next)
	return next.label, true
}

// CanUndo reports whether Undo would do anything.
func (e *Engine) CanUndo() bool { return e.history.CanUndo() || e.history.gestureDirty }

// CanRedo reports whether Redo would do anything.
func (e *Engine) CanRedo() bool { return e.history.CanRedo() }
