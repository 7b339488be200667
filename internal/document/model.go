package document

import "strings"

type ClipKind string

const (
	ClipKindVideo  ClipKind = "video"
	ClipKindAudio  ClipKind = "audio"
	ClipKindImage  ClipKind = "image"
	ClipKindText   ClipKind = "text"
	ClipKindShape  ClipKind = "shape"
	ClipKindEffect ClipKind = "effect"
)

type TrackKind string

const (
	TrackKindVideo  TrackKind = "video"
	TrackKindAudio  TrackKind = "audio"
	TrackKindImage  TrackKind = "image"
	TrackKindText   TrackKind = "text"
	TrackKindShape  TrackKind = "shape"
	TrackKindEffect TrackKind = "effect"
	TrackKindGroup  TrackKind = "group"
)

type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

type Transition struct {
	Kind     string  `json:"kind" yaml:"kind"`
	Duration float64 `json:"duration" yaml:"duration"`
}

// Clip is a media segment placed on a track. Selected is only filled in
// snapshots; the engine's selection set is authoritative.
type Clip struct {
	ID            string      `json:"id"`
	Kind          ClipKind    `json:"kind"`
	Name          string      `json:"name"`
	TrackID       string      `json:"trackId"`
	StartTime     float64     `json:"startTime"`
	Duration      float64     `json:"duration"`
	Source        string      `json:"source,omitempty"`
	SourceOffset  float64     `json:"sourceOffset"`
	Muted         bool        `json:"muted"`
	Locked        bool        `json:"locked"`
	Visible       bool        `json:"visible"`
	Volume        float64     `json:"volume"`
	Opacity       float64     `json:"opacity"`
	Speed         float64     `json:"speed"`
	Position      Position    `json:"position"`
	Effects       []string    `json:"effects"`
	TransitionIn  *Transition `json:"transitionIn,omitempty"`
	TransitionOut *Transition `json:"transitionOut,omitempty"`
	Selected      bool        `json:"selected"`
}

// EndTime returns StartTime + Duration.
func (c Clip) EndTime() float64 {
	return c.StartTime + c.Duration
}

// Clone returns a copy that shares no slices or pointers with c.
func (c Clip) Clone() Clip {
	out := c
	out.Effects = append([]string{}, c.Effects...)
	if c.TransitionIn != nil {
		t := *c.TransitionIn
		out.TransitionIn = &t
	}
	if c.TransitionOut != nil {
		t := *c.TransitionOut
		out.TransitionOut = &t
	}
	return out
}

type Track struct {
	ID      string    `json:"id"`
	Kind    TrackKind `json:"kind"`
	Name    string    `json:"name"`
	Color   string    `json:"color"`
	Height  float64   `json:"height"`
	Muted   bool      `json:"muted"`
	Solo    bool      `json:"solo"`
	Locked  bool      `json:"locked"`
	Visible bool      `json:"visible"`
	Volume  float64   `json:"volume"`
	Pan     float64   `json:"pan"`
	Clips   []Clip    `json:"clips"`
}

// Clone deep-copies the track and its clips.
func (t Track) Clone() Track {
	out := t
	out.Clips = make([]Clip, len(t.Clips))
	for i, c := range t.Clips {
		out.Clips[i] = c.Clone()
	}
	return out
}

// ClipInput describes a clip to create. Nil optional fields take defaults.
type ClipInput struct {
	Kind          ClipKind    `json:"kind" yaml:"kind"`
	Name          string      `json:"name,omitempty" yaml:"name,omitempty"`
	StartTime     float64     `json:"startTime" yaml:"startTime"`
	Duration      float64     `json:"duration" yaml:"duration"`
	Source        string      `json:"source,omitempty" yaml:"source,omitempty"`
	SourceOffset  float64     `json:"sourceOffset,omitempty" yaml:"sourceOffset,omitempty"`
	Muted         bool        `json:"muted,omitempty" yaml:"muted,omitempty"`
	Locked        bool        `json:"locked,omitempty" yaml:"locked,omitempty"`
	Visible       *bool       `json:"visible,omitempty" yaml:"visible,omitempty"`
	Volume        *float64    `json:"volume,omitempty" yaml:"volume,omitempty"`
	Opacity       *float64    `json:"opacity,omitempty" yaml:"opacity,omitempty"`
	Speed         *float64    `json:"speed,omitempty" yaml:"speed,omitempty"`
	Position      *Position   `json:"position,omitempty" yaml:"position,omitempty"`
	Effects       []string    `json:"effects,omitempty" yaml:"effects,omitempty"`
	TransitionIn  *Transition `json:"transitionIn,omitempty" yaml:"transitionIn,omitempty"`
	TransitionOut *Transition `json:"transitionOut,omitempty" yaml:"transitionOut,omitempty"`
}

// ClipPatch is a shallow partial update. A transition with an empty kind
// removes the transition.
type ClipPatch struct {
	Name          *string     `json:"name,omitempty" yaml:"name,omitempty"`
	StartTime     *float64    `json:"startTime,omitempty" yaml:"startTime,omitempty"`
	Duration      *float64    `json:"duration,omitempty" yaml:"duration,omitempty"`
	Source        *string     `json:"source,omitempty" yaml:"source,omitempty"`
	SourceOffset  *float64    `json:"sourceOffset,omitempty" yaml:"sourceOffset,omitempty"`
	Muted         *bool       `json:"muted,omitempty" yaml:"muted,omitempty"`
	Locked        *bool       `json:"locked,omitempty" yaml:"locked,omitempty"`
	Visible       *bool       `json:"visible,omitempty" yaml:"visible,omitempty"`
	Volume        *float64    `json:"volume,omitempty" yaml:"volume,omitempty"`
	Opacity       *float64    `json:"opacity,omitempty" yaml:"opacity,omitempty"`
	Speed         *float64    `json:"speed,omitempty" yaml:"speed,omitempty"`
	Position      *Position   `json:"position,omitempty" yaml:"position,omitempty"`
	Effects       *[]string   `json:"effects,omitempty" yaml:"effects,omitempty"`
	TransitionIn  *Transition `json:"transitionIn,omitempty" yaml:"transitionIn,omitempty"`
	TransitionOut *Transition `json:"transitionOut,omitempty" yaml:"transitionOut,omitempty"`
}

// OnlyLocks reports whether the patch touches nothing but the locked flag.
func (p ClipPatch) OnlyLocks() bool {
	return p.Locked != nil && p == ClipPatch{Locked: p.Locked}
}

type TrackPatch struct {
	Name    *string  `json:"name,omitempty" yaml:"name,omitempty"`
	Color   *string  `json:"color,omitempty" yaml:"color,omitempty"`
	Height  *float64 `json:"height,omitempty" yaml:"height,omitempty"`
	Muted   *bool    `json:"muted,omitempty" yaml:"muted,omitempty"`
	Solo    *bool    `json:"solo,omitempty" yaml:"solo,omitempty"`
	Locked  *bool    `json:"locked,omitempty" yaml:"locked,omitempty"`
	Visible *bool    `json:"visible,omitempty" yaml:"visible,omitempty"`
	Volume  *float64 `json:"volume,omitempty" yaml:"volume,omitempty"`
	Pan     *float64 `json:"pan,omitempty" yaml:"pan,omitempty"`
}

// Suggestion is an externally supplied marker (e.g. an AI cut suggestion).
type Suggestion struct {
	Timestamp   float64 `json:"timestamp"`
	Kind        string  `json:"kind"`
	Description string  `json:"description"`
}

// Timeline is the track list a session starts from.
type Timeline struct {
	Tracks []Track `json:"tracks"`
}

var trackStyles = map[TrackKind]struct {
	color  string
	height float64
}{
	TrackKindVideo:  {"#3b82f6", 80},
	TrackKindAudio:  {"#10b981", 60},
	TrackKindImage:  {"#8b5cf6", 60},
	TrackKindText:   {"#f59e0b", 50},
	TrackKindShape:  {"#ec4899", 50},
	TrackKindEffect: {"#ef4444", 40},
	TrackKindGroup:  {"#6b7280", 80},
}

// DefaultTrackStyle returns the color and height a new track of kind gets.
func DefaultTrackStyle(kind TrackKind) (string, float64) {
	if s, ok := trackStyles[kind]; ok {
		return s.color, s.height
	}
	return "#6b7280", 60
}

// NewTrack builds a track with kind defaults.
func NewTrack(id string, kind TrackKind, name string) Track {
	color, height := DefaultTrackStyle(kind)
	return Track{
		ID:      id,
		Kind:    kind,
		Name:    name,
		Color:   color,
		Height:  height,
		Visible: true,
		Volume:  1,
		Clips:   []Clip{},
	}
}

// Accepts reports whether a track of kind t may hold a clip of kind c.
func Accepts(t TrackKind, c ClipKind) bool {
	switch t {
	case TrackKindGroup:
		return true
	case TrackKindVideo, TrackKindImage:
		return c == ClipKindVideo || c == ClipKindImage
	default:
		return string(t) == string(c)
	}
}

// ValidClipKind reports whether k is one of the known clip kinds.
func ValidClipKind(k ClipKind) bool {
	switch k {
	case ClipKindVideo, ClipKindAudio, ClipKindImage, ClipKindText, ClipKindShape, ClipKindEffect:
		return true
	}
	return false
}

// ValidTrackKind reports whether k is one of the known track kinds.
func ValidTrackKind(k TrackKind) bool {
	_, ok := trackStyles[k]
	return ok
}

// Title returns a display form of a kind, e.g. "video" -> "Video".
func Title(kind string) string {
	if kind == "" {
		return ""
	}
	return strings.ToUpper(kind[:1]) + kind[1:]
}
