package script

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/inamate/timeline/backend-go/internal/command"
	"github.com/inamate/timeline/backend-go/internal/engine"
	"github.com/inamate/timeline/backend-go/internal/interact"
)

// ErrStepFailed is returned when a step's outcome differs from its Expect.
var ErrStepFailed = errors.New("step failed")

type ReplayOptions struct {
	// ContinueOnError keeps going after a failed step and reports every
	// failure instead of stopping at the first.
	ContinueOnError bool

	// IDs overrides id generation, mostly for deterministic output.
	IDs func(prefix string) string
}

type StepResult struct {
	Index int    `json:"index"`
	Type  string `json:"type"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
	OK    bool   `json:"ok"`
}

// Report is the outcome of a replay.
type Report struct {
	Name   string       `json:"name,omitempty"`
	Steps  []StepResult `json:"steps"`
	Failed int          `json:"failed"`
	State  engine.State `json:"state"`
}

// Replay runs every step of s against a fresh engine. Operations go
// through command.Apply; pointer and key steps go through an interaction
// controller with the default layout.
func Replay(s *Script, opts ReplayOptions) (*Report, error) {
	eng, err := s.newEngine()
	if err != nil {
		return nil, err
	}
	if opts.IDs != nil {
		eng.SetIDGenerator(opts.IDs)
	}

	r := &replayer{
		eng:  eng,
		ctl:  interact.NewController(eng, interact.DefaultLayout()),
		refs: make(map[string]string),
	}
	report := &Report{Name: s.Name}

	var firstErr error
	for i, st := range s.Steps {
		res := StepResult{Index: i + 1, Type: st.kind()}
		err := r.run(st)
		res.Code = command.Code(err)
		if err != nil {
			res.Error = err.Error()
		}
		res.OK = res.Code == st.Expect

		report.Steps = append(report.Steps, res)
		if res.OK {
			continue
		}

		report.Failed++
		slog.Debug("script step failed", "step", res.Index, "type", res.Type, "code", res.Code, "expect", st.Expect)
		if firstErr == nil {
			firstErr = fmt.Errorf("step %d (%s): %w", res.Index, res.Type, stepError(st.Expect, res.Code, err))
		}
		if !opts.ContinueOnError {
			break
		}
	}

	report.State = eng.State()
	return report, firstErr
}

func stepError(expect, code string, err error) error {
	if expect == "" {
		return fmt.Errorf("%w: %w", ErrStepFailed, err)
	}
	if code == "" {
		return fmt.Errorf("%w: expected %s, succeeded", ErrStepFailed, expect)
	}
	return fmt.Errorf("%w: expected %s, got %s", ErrStepFailed, expect, code)
}

type replayer struct {
	eng  *engine.Engine
	ctl  *interact.Controller
	refs map[string]string
}

func (r *replayer) run(st Step) error {
	switch {
	case st.Pointer != nil:
		r.pointer(*st.Pointer)
		return nil
	case st.Key != nil:
		k := st.Key
		r.ctl.KeyDown(interact.KeyEvent{
			Key:       k.Key,
			Modifiers: interact.Modifiers{Shift: k.Shift, Ctrl: k.Ctrl, Meta: k.Meta},
		})
		return nil
	}

	op := st.Operation
	var err error
	if op.TrackID, err = r.resolve(op.TrackID); err != nil {
		return err
	}
	if op.ClipID, err = r.resolve(op.ClipID); err != nil {
		return err
	}
	if len(op.ClipIDs) > 0 {
		ids := make([]string, len(op.ClipIDs))
		for i, id := range op.ClipIDs {
			if ids[i], err = r.resolve(id); err != nil {
				return err
			}
		}
		op.ClipIDs = ids
	}

	// An operation landing mid-drag closes the drag so each gets its own
	// undo step.
	if r.eng.InGesture() {
		r.ctl.Cancel()
	}
	res, err := command.Apply(r.eng, op)
	if err != nil {
		return err
	}
	if st.Ref != "" {
		switch {
		case res.Track != nil:
			r.refs[st.Ref] = res.Track.ID
		case len(res.Clips) > 0:
			r.refs[st.Ref] = res.Clips[0].ID
		}
	}
	return nil
}

func (r *replayer) pointer(p PointerStep) {
	ev := interact.PointerEvent{
		X:         p.X,
		Y:         p.Y,
		Modifiers: interact.Modifiers{Shift: p.Shift, Ctrl: p.Ctrl},
	}
	switch p.Event {
	case "down":
		r.ctl.PointerDown(ev)
	case "move":
		r.ctl.PointerMove(ev)
	case "up":
		r.ctl.PointerUp(ev)
	case "cancel":
		r.ctl.Cancel()
	case "dblclick":
		r.ctl.DoubleClick(ev)
	}
}

// resolve expands "$name" references recorded by earlier steps.
func (r *replayer) resolve(id string) (string, error) {
	name, ok := strings.CutPrefix(id, "$")
	if !ok {
		return id, nil
	}
	got, ok := r.refs[name]
	if !ok {
		return "", fmt.Errorf("%w: unknown reference %q", command.ErrInvalid, id)
	}
	return got, nil
}
