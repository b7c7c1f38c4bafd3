//go:build js && wasm

// Command neotron-wasm exposes the VGA console to JavaScript as the global
// VGAConsole object, for rendering Neotron output in a browser.
package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"syscall/js"

	vgaconsole "github.com/neotron-os/go-neotron"
)

// Global console registry
var consoles = make(map[int]*consoleInstance)
var nextConsoleID = 1

// consoleInstance wraps a console with its JS handlers
type consoleInstance struct {
	console  *vgaconsole.Console
	handlers *jsHandlers
}

func main() {
	js.Global().Set("VGAConsole", js.ValueOf(map[string]interface{}{
		// Lifecycle
		"create":  js.FuncOf(createConsole),
		"destroy": js.FuncOf(destroyConsole),

		// Input processing
		"write":       js.FuncOf(write),
		"writeString": js.FuncOf(writeString),

		// Geometry
		"changeMode": js.FuncOf(changeMode),
		"clear":      js.FuncOf(clearConsole),
		"rows":       js.FuncOf(rows),
		"cols":       js.FuncOf(cols),

		// Cursor
		"cursorPos":     js.FuncOf(cursorPos),
		"cursorVisible": js.FuncOf(cursorVisible),

		// Content
		"getString":    js.FuncOf(getString),
		"lineContent":  js.FuncOf(lineContent),
		"cell":         js.FuncOf(cell),
		"dump":         js.FuncOf(dump),
		"snapshot":     js.FuncOf(snapshot),
		"snapshotJSON": js.FuncOf(snapshotJSON),
		"screenshot":   js.FuncOf(screenshot),

		// Handler registration
		"onBell":      js.FuncOf(onBell),
		"onResponse":  js.FuncOf(onResponse),
		"onRecording": js.FuncOf(onRecording),
	}))

	// Keep the program running
	select {}
}

// ============================================================================
// Lifecycle
// ============================================================================

func createConsole(_ js.Value, args []js.Value) interface{} {
	rows := vgaconsole.DEFAULT_ROWS
	cols := vgaconsole.DEFAULT_COLS
	if len(args) >= 2 {
		rows = args[0].Int()
		cols = args[1].Int()
	}

	handlers := newJSHandlers()
	c := vgaconsole.New(
		vgaconsole.WithSize(rows, cols),
		vgaconsole.WithBell(handlers.bell),
		vgaconsole.WithResponse(handlers.response),
		vgaconsole.WithRecording(handlers.recording),
	)

	id := nextConsoleID
	nextConsoleID++
	consoles[id] = &consoleInstance{console: c, handlers: handlers}
	return id
}

func destroyConsole(_ js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	delete(consoles, args[0].Int())
	return nil
}

func getInstance(id int) *consoleInstance {
	return consoles[id]
}

func getConsole(args []js.Value, need int) *vgaconsole.Console {
	if len(args) < need {
		return nil
	}
	inst := getInstance(args[0].Int())
	if inst == nil {
		return nil
	}
	return inst.console
}

// ============================================================================
// Input Processing
// ============================================================================

func write(_ js.Value, args []js.Value) interface{} {
	c := getConsole(args, 2)
	if c == nil {
		return -1
	}

	// Get Uint8Array from JS
	data := make([]byte, args[1].Length())
	js.CopyBytesToGo(data, args[1])

	n, _ := c.Write(data)
	return n
}

func writeString(_ js.Value, args []js.Value) interface{} {
	c := getConsole(args, 2)
	if c == nil {
		return -1
	}
	n, _ := c.WriteString(args[1].String())
	return n
}

// ============================================================================
// Geometry
// ============================================================================

func changeMode(_ js.Value, args []js.Value) interface{} {
	c := getConsole(args, 3)
	if c == nil {
		return "no such console"
	}
	if err := c.ChangeMode(vgaconsole.TextMode{Rows: args[1].Int(), Cols: args[2].Int()}); err != nil {
		return err.Error()
	}
	return nil
}

func clearConsole(_ js.Value, args []js.Value) interface{} {
	if c := getConsole(args, 1); c != nil {
		c.Clear()
	}
	return nil
}

func rows(_ js.Value, args []js.Value) interface{} {
	c := getConsole(args, 1)
	if c == nil {
		return 0
	}
	return c.Rows()
}

func cols(_ js.Value, args []js.Value) interface{} {
	c := getConsole(args, 1)
	if c == nil {
		return 0
	}
	return c.Cols()
}

// ============================================================================
// Cursor
// ============================================================================

func cursorPos(_ js.Value, args []js.Value) interface{} {
	c := getConsole(args, 1)
	if c == nil {
		return nil
	}
	row, col := c.CursorPos()
	return map[string]interface{}{
		"row": row,
		"col": col,
	}
}

func cursorVisible(_ js.Value, args []js.Value) interface{} {
	c := getConsole(args, 1)
	if c == nil {
		return false
	}
	return c.CursorWanted()
}

// ============================================================================
// Content
// ============================================================================

func getString(_ js.Value, args []js.Value) interface{} {
	c := getConsole(args, 1)
	if c == nil {
		return ""
	}
	return c.String()
}

func lineContent(_ js.Value, args []js.Value) interface{} {
	c := getConsole(args, 2)
	if c == nil {
		return ""
	}
	return c.LineContent(args[1].Int())
}

func cell(_ js.Value, args []js.Value) interface{} {
	c := getConsole(args, 3)
	if c == nil {
		return nil
	}
	cl := c.Cell(args[1].Int(), args[2].Int())
	if cl == nil {
		return nil
	}
	return map[string]interface{}{
		"char":  string(cl.Rune()),
		"glyph": int(cl.Glyph),
		"fg":    cl.Attr.Foreground().String(),
		"bg":    cl.Attr.Background().String(),
		"blink": cl.Attr.Blink(),
	}
}

// dump returns the (glyph, attribute) pairs of the whole screen as a Uint8Array.
func dump(_ js.Value, args []js.Value) interface{} {
	c := getConsole(args, 1)
	if c == nil {
		return nil
	}
	return bytesToJS(c.Dump())
}

func snapshotDetail(args []js.Value) vgaconsole.SnapshotDetail {
	if len(args) >= 2 {
		switch args[1].String() {
		case "text":
			return vgaconsole.SnapshotDetailText
		case "full":
			return vgaconsole.SnapshotDetailFull
		}
	}
	return vgaconsole.SnapshotDetailStyled
}

func snapshotJSON(_ js.Value, args []js.Value) interface{} {
	c := getConsole(args, 1)
	if c == nil {
		return ""
	}
	data, err := json.Marshal(c.Snapshot(snapshotDetail(args)))
	if err != nil {
		return ""
	}
	return string(data)
}

func snapshot(this js.Value, args []js.Value) interface{} {
	data, _ := snapshotJSON(this, args).(string)
	if data == "" {
		return nil
	}
	return js.Global().Get("JSON").Call("parse", data)
}

// screenshot renders the screen and returns it as PNG bytes.
func screenshot(_ js.Value, args []js.Value) interface{} {
	c := getConsole(args, 1)
	if c == nil {
		return nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, c.Screenshot()); err != nil {
		return nil
	}
	return bytesToJS(buf.Bytes())
}

// ============================================================================
// Handler Registration
// ============================================================================

func onBell(_ js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	if inst := getInstance(args[0].Int()); inst != nil {
		inst.handlers.bell.callback = args[1]
	}
	return nil
}

func onResponse(_ js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	if inst := getInstance(args[0].Int()); inst != nil {
		inst.handlers.response.callback = args[1]
	}
	return nil
}

func onRecording(_ js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	if inst := getInstance(args[0].Int()); inst != nil {
		inst.handlers.recording.callback = args[1]
	}
	return nil
}
