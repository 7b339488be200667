package interact

import (
	"math"

	"github.com/inamate/timeline/backend-go/internal/document"
	"github.com/inamate/timeline/backend-go/internal/engine"
)

// Gesture is the state of the pointer state machine.
type Gesture int

const (
	Idle Gesture = iota
	DraggingClip
	ResizingLeft
	ResizingRight
	ScrubbingPlayhead
)

func (g Gesture) String() string {
	switch g {
	case DraggingClip:
		return "dragging-clip"
	case ResizingLeft:
		return "resizing-left"
	case ResizingRight:
		return "resizing-right"
	case ScrubbingPlayhead:
		return "scrubbing-playhead"
	default:
		return "idle"
	}
}

type Modifiers struct {
	Shift bool `json:"shift"`
	Ctrl  bool `json:"ctrl"`
	Meta  bool `json:"meta"`
	Alt   bool `json:"alt"`
}

// command reports ctrl on most platforms and cmd on macOS.
func (m Modifiers) command() bool { return m.Ctrl || m.Meta }

// PointerEvent carries coordinates relative to the top-left corner of the
// timeline surface (ruler included).
type PointerEvent struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Modifiers
}

// origin is recorded on pointer-down for the active gesture.
type origin struct {
	clipID   string
	x, y     float64
	start    float64
	duration float64
	offset   float64
	speed    float64
}

// Controller turns pointer and keyboard input into engine operations.
// Drags apply continuously: every pointer-move calls MoveClip, and the
// whole gesture is grouped into one undo step. Ending a gesture (pointer-up
// or Escape) never rolls back what was applied.
type Controller struct {
	eng    *engine.Engine
	layout Layout

	// OnEdit receives double-clicked clips.
	OnEdit func(document.Clip)

	gesture Gesture
	origin  origin
}

func NewController(eng *engine.Engine, layout Layout) *Controller {
	return &Controller{eng: eng, layout: layout}
}

func (c *Controller) Gesture() Gesture { return c.gesture }

func (c *Controller) Layout() Layout { return c.layout }

// Frame projects the current engine state.
func (c *Controller) Frame() Frame {
	return Project(c.eng.State(), c.eng.Mapper(), c.layout)
}

// PointerDown starts a gesture according to what is under the pointer and
// returns the hit.
func (c *Controller) PointerDown(ev PointerEvent) Hit {
	if c.gesture != Idle {
		c.end()
	}

	hit := c.Frame().HitTest(ev.X, ev.Y)
	switch hit.Kind {
	case HitPlayhead:
		c.gesture = ScrubbingPlayhead

	case HitRuler:
		c.gesture = ScrubbingPlayhead
		c.scrub(ev.X)

	case HitLeftHandle, HitRightHandle:
		if !c.begin(hit.ClipID, ev, "trim clip") {
			return hit
		}
		if hit.Kind == HitLeftHandle {
			c.gesture = ResizingLeft
		} else {
			c.gesture = ResizingRight
		}

	case HitClip:
		multi := ev.Shift || ev.command()
		if multi || !c.eng.IsSelected(hit.ClipID) {
			_ = c.eng.SelectClip(hit.ClipID, multi)
		}
		if multi && !c.eng.IsSelected(hit.ClipID) {
			return hit
		}
		if c.begin(hit.ClipID, ev, "move clip") {
			c.gesture = DraggingClip
		}

	default:
		c.eng.ClearSelection()
	}
	return hit
}

// begin records the drag origin for an unlocked clip and opens a history
// gesture. It reports false for locked or missing clips.
func (c *Controller) begin(clipID string, ev PointerEvent, label string) bool {
	clip, ok := c.eng.Clip(clipID)
	if !ok || clip.Locked {
		return false
	}
	if tr, ok := c.eng.Track(clip.TrackID); !ok || tr.Locked {
		return false
	}
	c.origin = origin{
		clipID:   clipID,
		x:        ev.X,
		y:        ev.Y,
		start:    clip.StartTime,
		duration: clip.Duration,
		offset:   clip.SourceOffset,
		speed:    clip.Speed,
	}
	c.eng.BeginGesture(label)
	return true
}

// PointerMove advances the active gesture.
func (c *Controller) PointerMove(ev PointerEvent) {
	switch c.gesture {
	case DraggingClip:
		c.drag(ev)
	case ResizingLeft:
		c.resizeLeft(ev)
	case ResizingRight:
		c.resizeRight(ev)
	case ScrubbingPlayhead:
		c.scrub(ev.X)
	}
}

// PointerUp ends the active gesture. The last applied state is final.
func (c *Controller) PointerUp(PointerEvent) {
	c.end()
}

// Cancel stops the active gesture without undoing it.
func (c *Controller) Cancel() {
	c.end()
}

// DoubleClick emits an edit intent for the clip under the pointer.
func (c *Controller) DoubleClick(ev PointerEvent) bool {
	hit := c.Frame().HitTest(ev.X, ev.Y)
	switch hit.Kind {
	case HitClip, HitLeftHandle, HitRightHandle:
	default:
		return false
	}
	clip, ok := c.eng.Clip(hit.ClipID)
	if !ok {
		return false
	}
	if c.OnEdit != nil {
		c.OnEdit(clip)
	}
	return true
}

func (c *Controller) end() {
	if c.gesture == DraggingClip || c.gesture == ResizingLeft || c.gesture == ResizingRight {
		c.eng.EndGesture()
	}
	c.gesture = Idle
	c.origin = origin{}
}

func (c *Controller) delta(x float64) float64 {
	return c.eng.Mapper().DeltaTime(x - c.origin.x)
}

func (c *Controller) drag(ev PointerEvent) {
	clip, ok := c.eng.Clip(c.origin.clipID)
	if !ok {
		c.end()
		return
	}

	raw := c.origin.start + c.delta(ev.X)
	target, ok := c.Frame().TrackAt(ev.Y)
	if !ok {
		target = clip.TrackID
	}

	if _, err := c.eng.MoveClip(clip.ID, target, raw); err != nil && target != clip.TrackID {
		// Drop target refused the clip; keep it on its lane.
		_, _ = c.eng.MoveClip(clip.ID, clip.TrackID, raw)
	}
}

func (c *Controller) resizeLeft(ev PointerEvent) {
	o := c.origin
	end := o.start + o.duration

	start := math.Max(0, c.eng.SnapTime(o.start+c.delta(ev.X), o.clipID))
	duration := end - start
	if duration < c.eng.Settings().MinClipDuration {
		return
	}
	offset := math.Max(0, o.offset+(start-o.start)*o.speed)

	_, _ = c.eng.UpdateClip(o.clipID, document.ClipPatch{
		StartTime:    &start,
		Duration:     &duration,
		SourceOffset: &offset,
	})
}

func (c *Controller) resizeRight(ev PointerEvent) {
	o := c.origin
	end := c.eng.SnapTime(o.start+o.duration+c.delta(ev.X), o.clipID)
	duration := end - o.start
	if duration < c.eng.Settings().MinClipDuration {
		return
	}

	_, _ = c.eng.UpdateClip(o.clipID, document.ClipPatch{Duration: &duration})
}

func (c *Controller) scrub(x float64) {
	t := c.eng.Mapper().PixelsToTime(x)
	c.eng.SetCurrentTime(c.eng.SnapTime(t, ""))
}
