// Package script loads YAML edit scripts and replays them against a fresh
// engine. Scripts are used for reproducing editing sessions and as
// end-to-end fixtures.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inamate/timeline/backend-go/internal/command"
	"github.com/inamate/timeline/backend-go/internal/document"
	"github.com/inamate/timeline/backend-go/internal/engine"
)

var ErrInvalidScript = errors.New("invalid script")

// Script is a starting timeline plus an ordered list of steps.
type Script struct {
	Name     string   `yaml:"name"`
	Sample   bool     `yaml:"sample"`
	Settings Settings `yaml:"settings"`
	Steps    []Step   `yaml:"steps"`
}

// Settings overrides engine defaults. Zero values keep the default.
type Settings struct {
	MinZoom           float64 `yaml:"minZoom"`
	MaxZoom           float64 `yaml:"maxZoom"`
	SnapThreshold     float64 `yaml:"snapThreshold"`
	GridSize          float64 `yaml:"gridSize"`
	TrackAreaWidth    float64 `yaml:"trackAreaWidth"`
	MinClipDuration   float64 `yaml:"minClipDuration"`
	Duration          float64 `yaml:"duration"`
	ViewportSpan      float64 `yaml:"viewportSpan"`
	HistoryLimit      int     `yaml:"historyLimit"`
	EnforceTrackKinds *bool   `yaml:"enforceTrackKinds"`
}

// Engine returns the engine settings the script asks for.
func (s Settings) Engine() engine.Settings {
	out := engine.DefaultSettings()
	set := func(dst *float64, v float64) {
		if v > 0 {
			*dst = v
		}
	}
	set(&out.MinZoom, s.MinZoom)
	set(&out.MaxZoom, s.MaxZoom)
	set(&out.SnapThreshold, s.SnapThreshold)
	set(&out.GridSize, s.GridSize)
	set(&out.TrackAreaWidth, s.TrackAreaWidth)
	set(&out.MinClipDuration, s.MinClipDuration)
	set(&out.Duration, s.Duration)
	set(&out.ViewportSpan, s.ViewportSpan)
	if s.HistoryLimit > 0 {
		out.HistoryLimit = s.HistoryLimit
	}
	if s.EnforceTrackKinds != nil {
		out.EnforceTrackKinds = *s.EnforceTrackKinds
	}
	return out
}

// Step is one operation, pointer event or key press. Expect names the
// error code the step should fail with; empty means it must succeed.
type Step struct {
	command.Operation `yaml:",inline"`

	Pointer *PointerStep `yaml:"pointer,omitempty"`
	Key     *KeyStep     `yaml:"key,omitempty"`

	// Ref names the clip or track the step creates so later steps can
	// refer to it as "$name" in clipId/trackId.
	Ref    string `yaml:"ref,omitempty"`
	Expect string `yaml:"expect,omitempty"`
}

// PointerStep drives the interaction controller. Event is down, move, up,
// cancel or dblclick.
type PointerStep struct {
	Event string  `yaml:"event"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Shift bool    `yaml:"shift,omitempty"`
	Ctrl  bool    `yaml:"ctrl,omitempty"`
}

type KeyStep struct {
	Key   string `yaml:"key"`
	Shift bool   `yaml:"shift,omitempty"`
	Ctrl  bool   `yaml:"ctrl,omitempty"`
	Meta  bool   `yaml:"meta,omitempty"`
}

func (s Step) kind() string {
	switch {
	case s.Pointer != nil:
		return "pointer." + s.Pointer.Event
	case s.Key != nil:
		return "key." + s.Key.Key
	default:
		return s.Type
	}
}

// Load reads and validates a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a script. Unknown fields are rejected so typos surface
// instead of silently dropping a step's arguments.
func Parse(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			return nil, fmt.Errorf("%w: step %d: %w", ErrInvalidScript, i+1, err)
		}
	}
	return &s, nil
}

func (s Step) validate() error {
	n := 0
	if s.Type != "" {
		n++
	}
	if s.Pointer != nil {
		n++
		switch s.Pointer.Event {
		case "down", "move", "up", "cancel", "dblclick":
		default:
			return fmt.Errorf("unknown pointer event %q", s.Pointer.Event)
		}
	}
	if s.Key != nil {
		n++
		if s.Key.Key == "" {
			return errors.New("key step without key")
		}
	}
	if n != 1 {
		return errors.New("step needs exactly one of type, pointer or key")
	}
	return nil
}

// Write encodes s as YAML.
func Write(s *Script, path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// newEngine builds the starting engine for s.
func (s *Script) newEngine() (*engine.Engine, error) {
	eng := engine.New(s.Settings.Engine())
	if s.Sample {
		if err := eng.Load(document.NewSampleTimeline()); err != nil {
			return nil, err
		}
	}
	return eng, nil
}
