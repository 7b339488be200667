package interact

import "strings"

type KeyEvent struct {
	Key string `json:"key"`
	Modifiers
}

// KeyDown dispatches a keyboard shortcut and reports whether it was
// handled. Shortcuts act on the current selection; they are one-shot and
// do not touch the pointer gesture except Escape, which ends it.
func (c *Controller) KeyDown(ev KeyEvent) bool {
	key := strings.ToLower(ev.Key)

	if ev.command() {
		switch key {
		case "c":
			c.duplicateSelected()
		case "s":
			c.splitSelected()
		case "z":
			c.end()
			if ev.Shift {
				c.eng.Redo()
			} else {
				c.eng.Undo()
			}
		case "y":
			c.end()
			c.eng.Redo()
		default:
			return false
		}
		return true
	}

	switch key {
	case " ", "space", "spacebar":
		c.eng.TogglePlay()
	case "delete", "backspace":
		c.removeSelected()
	case "escape", "esc":
		c.Cancel()
		c.eng.ClearSelection()
	case "g":
		c.eng.ToggleSnapToGrid()
	case "m":
		c.eng.ToggleMagneticSnap()
	case "r":
		c.eng.ToggleRippleEdit()
	default:
		return false
	}
	return true
}

// Bulk shortcuts end any pointer gesture, group their per-clip operations
// into one undo step and skip clips the engine rejects.

func (c *Controller) removeSelected() {
	c.end()
	c.eng.BeginGesture("delete clips")
	defer c.eng.EndGesture()
	for _, id := range c.eng.SelectedClipIDs() {
		_ = c.eng.RemoveClip(id)
	}
}

func (c *Controller) duplicateSelected() {
	c.end()
	c.eng.BeginGesture("duplicate clips")
	defer c.eng.EndGesture()
	for _, id := range c.eng.SelectedClipIDs() {
		_, _ = c.eng.DuplicateClip(id)
	}
}

func (c *Controller) splitSelected() {
	c.end()
	c.eng.BeginGesture("split clips")
	defer c.eng.EndGesture()
	t := c.eng.CurrentTime()
	for _, id := range c.eng.SelectedClipIDs() {
		_, _, _ = c.eng.SplitClip(id, t)
	}
}
