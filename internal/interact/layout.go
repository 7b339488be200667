package interact

import "github.com/inamate/timeline/backend-go/internal/engine"

// Layout holds the fixed pixel metrics of the timeline surface. Track
// bands are stacked directly under the ruler.
type Layout struct {
	RulerHeight  float64 `json:"rulerHeight"`
	HandleWidth  float64 `json:"handleWidth"`
	PlayheadGrab float64 `json:"playheadGrab"`
}

func DefaultLayout() Layout {
	return Layout{
		RulerHeight:  24,
		HandleWidth:  6,
		PlayheadGrab: 5,
	}
}

// TrackBand is the vertical extent of one track.
type TrackBand struct {
	TrackID string  `json:"trackId"`
	Y       float64 `json:"y"`
	Height  float64 `json:"height"`
	Locked  bool    `json:"locked"`
}

// ClipBox is the on-screen rectangle of a clip.
type ClipBox struct {
	ClipID   string  `json:"clipId"`
	TrackID  string  `json:"trackId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Selected bool    `json:"selected"`
	Locked   bool    `json:"locked"`
}

// Frame is the projected geometry of one engine state.
type Frame struct {
	Bands     []TrackBand `json:"bands"`
	Clips     []ClipBox   `json:"clips"`
	PlayheadX float64     `json:"playheadX"`
	layout    Layout
}

// Project lays out every track and clip of st. Clips are emitted in store
// order, which is also paint order (later clips on top).
func Project(st engine.State, m engine.Mapper, l Layout) Frame {
	f := Frame{
		Bands:     make([]TrackBand, 0, len(st.Tracks)),
		PlayheadX: m.TimeToPixels(st.CurrentTime),
		layout:    l,
	}

	y := l.RulerHeight
	for _, tr := range st.Tracks {
		f.Bands = append(f.Bands, TrackBand{TrackID: tr.ID, Y: y, Height: tr.Height, Locked: tr.Locked})
		for _, c := range tr.Clips {
			x := m.TimeToPixels(c.StartTime)
			f.Clips = append(f.Clips, ClipBox{
				ClipID:   c.ID,
				TrackID:  tr.ID,
				X:        x,
				Y:        y,
				Width:    m.TimeToPixels(c.EndTime()) - x,
				Height:   tr.Height,
				Selected: c.Selected,
				Locked:   c.Locked || tr.Locked,
			})
		}
		y += tr.Height
	}
	return f
}

// TrackAt returns the track whose band contains y.
func (f Frame) TrackAt(y float64) (string, bool) {
	for _, b := range f.Bands {
		if y >= b.Y && y < b.Y+b.Height {
			return b.TrackID, true
		}
	}
	return "", false
}

// HitKind classifies what lies under a pointer.
type HitKind int

const (
	HitNone HitKind = iota
	HitRuler
	HitPlayhead
	HitTrack
	HitClip
	HitLeftHandle
	HitRightHandle
)

func (k HitKind) String() string {
	switch k {
	case HitRuler:
		return "ruler"
	case HitPlayhead:
		return "playhead"
	case HitTrack:
		return "track"
	case HitClip:
		return "clip"
	case HitLeftHandle:
		return "left-handle"
	case HitRightHandle:
		return "right-handle"
	default:
		return "none"
	}
}

// MarshalText encodes the kind by name for JSON consumers.
func (k HitKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

type Hit struct {
	Kind    HitKind `json:"kind"`
	ClipID  string  `json:"clipId,omitempty"`
	TrackID string  `json:"trackId,omitempty"`
}

// HitTest returns the topmost element at (x, y). Resize handles exist only
// on selected, unlocked clips.
func (f Frame) HitTest(x, y float64) Hit {
	if y < 0 {
		return Hit{}
	}
	if y < f.layout.RulerHeight {
		if x >= f.PlayheadX-f.layout.PlayheadGrab && x <= f.PlayheadX+f.layout.PlayheadGrab {
			return Hit{Kind: HitPlayhead}
		}
		return Hit{Kind: HitRuler}
	}

	// Front to back
	for i := len(f.Clips) - 1; i >= 0; i-- {
		b := f.Clips[i]
		if x < b.X || x > b.X+b.Width || y < b.Y || y >= b.Y+b.Height {
			continue
		}
		hit := Hit{Kind: HitClip, ClipID: b.ClipID, TrackID: b.TrackID}
		if b.Selected && !b.Locked {
			switch {
			case x <= b.X+f.layout.HandleWidth:
				hit.Kind = HitLeftHandle
			case x >= b.X+b.Width-f.layout.HandleWidth:
				hit.Kind = HitRightHandle
			}
		}
		return hit
	}

	if id, ok := f.TrackAt(y); ok {
		return Hit{Kind: HitTrack, TrackID: id}
	}
	return Hit{}
}
