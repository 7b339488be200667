//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inamate/timeline/backend-go/internal/command"
	"github.com/inamate/timeline/backend-go/internal/document"
	"github.com/inamate/timeline/backend-go/internal/engine"
	"github.com/inamate/timeline/backend-go/internal/interact"
)

var (
	eng *engine.Engine
	ctl *interact.Controller

	// onEdit is the JS callback for double-clicked clips.
	onEdit js.Value
)

func main() {
	eng = engine.New(engine.DefaultSettings())
	ctl = interact.NewController(eng, interact.DefaultLayout())
	ctl.OnEdit = func(c document.Clip) {
		if onEdit.Type() == js.TypeFunction {
			onEdit.Invoke(toJSON(c))
		}
	}

	// Create the engine API object
	timelineEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	timelineEngine.Set("loadTimeline", js.FuncOf(loadTimeline))
	timelineEngine.Set("loadSampleTimeline", js.FuncOf(loadSampleTimeline))
	timelineEngine.Set("apply", js.FuncOf(apply))
	timelineEngine.Set("tick", js.FuncOf(tick))
	timelineEngine.Set("pointerDown", js.FuncOf(pointerDown))
	timelineEngine.Set("pointerMove", js.FuncOf(pointerMove))
	timelineEngine.Set("pointerUp", js.FuncOf(pointerUp))
	timelineEngine.Set("cancelGesture", js.FuncOf(cancelGesture))
	timelineEngine.Set("doubleClick", js.FuncOf(doubleClick))
	timelineEngine.Set("keyDown", js.FuncOf(keyDown))
	timelineEngine.Set("setOnEdit", js.FuncOf(setOnEdit))

	// --- Queries (frontend ← engine) ---
	timelineEngine.Set("getState", js.FuncOf(getState))
	timelineEngine.Set("getFrame", js.FuncOf(getFrame))
	timelineEngine.Set("hitTest", js.FuncOf(hitTest))
	timelineEngine.Set("getGesture", js.FuncOf(getGesture))
	timelineEngine.Set("timeToPixels", js.FuncOf(timeToPixels))
	timelineEngine.Set("pixelsToTime", js.FuncOf(pixelsToTime))
	timelineEngine.Set("positionSuggestions", js.FuncOf(positionSuggestions))

	// Register on global scope
	js.Global().Set("timelineEngine", timelineEngine)

	// Signal that WASM is ready
	js.Global().Set("timelineWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return `{"error":"marshal failed"}`
	}
	return string(data)
}

func errorResult(msg, code string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg, "code": code})
}

// --- Command Handlers ---

func loadTimeline(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing timeline JSON", command.CodeInvalid)
	}
	var tl document.Timeline
	if err := json.Unmarshal([]byte(args[0].String()), &tl); err != nil {
		return errorResult(err.Error(), command.CodeInvalid)
	}
	ctl.Cancel()
	if err := eng.Load(tl); err != nil {
		return errorResult(err.Error(), command.Code(err))
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func loadSampleTimeline(this js.Value, args []js.Value) interface{} {
	ctl.Cancel()
	if err := eng.Load(document.NewSampleTimeline()); err != nil {
		return errorResult(err.Error(), command.Code(err))
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// apply takes an operation as JSON and returns the result as JSON.
func apply(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("missing operation JSON", command.CodeInvalid)
	}
	var op command.Operation
	if err := json.Unmarshal([]byte(args[0].String()), &op); err != nil {
		return errorResult(err.Error(), command.CodeInvalid)
	}
	if eng.InGesture() {
		ctl.Cancel()
	}
	res, err := command.Apply(eng, op)
	if err != nil {
		return errorResult(err.Error(), command.Code(err))
	}
	return js.ValueOf(toJSON(res))
}

func tick(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.Tick(args[0].Float())
	return js.ValueOf(eng.CurrentTime())
}

// pointerEvent reads (x, y, shift, ctrl, meta); missing modifiers are false.
func pointerEvent(args []js.Value) (interact.PointerEvent, bool) {
	if len(args) < 2 {
		return interact.PointerEvent{}, false
	}
	return interact.PointerEvent{
		X:         args[0].Float(),
		Y:         args[1].Float(),
		Modifiers: modifiers(args[2:]),
	}, true
}

func modifiers(args []js.Value) interact.Modifiers {
	flag := func(i int) bool { return i < len(args) && args[i].Truthy() }
	return interact.Modifiers{Shift: flag(0), Ctrl: flag(1), Meta: flag(2), Alt: flag(3)}
}

func pointerDown(this js.Value, args []js.Value) interface{} {
	ev, ok := pointerEvent(args)
	if !ok {
		return nil
	}
	return js.ValueOf(toJSON(ctl.PointerDown(ev)))
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	if ev, ok := pointerEvent(args); ok {
		ctl.PointerMove(ev)
	}
	return nil
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	if ev, ok := pointerEvent(args); ok {
		ctl.PointerUp(ev)
	}
	return nil
}

func cancelGesture(this js.Value, args []js.Value) interface{} {
	ctl.Cancel()
	return nil
}

func doubleClick(this js.Value, args []js.Value) interface{} {
	ev, ok := pointerEvent(args)
	if !ok {
		return js.ValueOf(false)
	}
	return js.ValueOf(ctl.DoubleClick(ev))
}

// keyDown takes (key, shift, ctrl, meta, alt) and reports whether the key
// was a shortcut.
func keyDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	return js.ValueOf(ctl.KeyDown(interact.KeyEvent{
		Key:       args[0].String(),
		Modifiers: modifiers(args[1:]),
	}))
}

func setOnEdit(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		onEdit = js.Undefined()
		return nil
	}
	onEdit = args[0]
	return nil
}

// --- Query Handlers ---

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(toJSON(eng.State()))
}

func getFrame(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(toJSON(ctl.Frame()))
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(toJSON(interact.Hit{}))
	}
	return js.ValueOf(toJSON(ctl.Frame().HitTest(args[0].Float(), args[1].Float())))
}

func getGesture(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(ctl.Gesture().String())
}

func timeToPixels(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(0)
	}
	return js.ValueOf(eng.Mapper().TimeToPixels(args[0].Float()))
}

func pixelsToTime(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(0)
	}
	return js.ValueOf(eng.Mapper().PixelsToTime(args[0].Float()))
}

func positionSuggestions(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("[]")
	}
	var in []document.Suggestion
	if err := json.Unmarshal([]byte(args[0].String()), &in); err != nil {
		return errorResult(err.Error(), command.CodeInvalid)
	}
	return js.ValueOf(toJSON(eng.PositionSuggestions(in)))
}
