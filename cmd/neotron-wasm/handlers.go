//go:build js && wasm

package main

import (
	"syscall/js"

	vgaconsole "github.com/neotron-os/go-neotron"
)

// jsHandlers holds the JavaScript callbacks for one console.
type jsHandlers struct {
	bell      *jsBellProvider
	response  *jsResponseWriter
	recording *jsRecordingProvider
}

func newJSHandlers() *jsHandlers {
	return &jsHandlers{
		bell:      &jsBellProvider{},
		response:  &jsResponseWriter{},
		recording: &jsRecordingProvider{},
	}
}

func unset(v js.Value) bool {
	return v.IsUndefined() || v.IsNull()
}

func bytesToJS(data []byte) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(arr, data)
	return arr
}

// ============================================================================
// Bell Provider - calls onBell()
// ============================================================================

type jsBellProvider struct {
	callback js.Value
}

func (p *jsBellProvider) Ring() {
	if unset(p.callback) {
		return
	}
	p.callback.Invoke()
}

var _ vgaconsole.BellProvider = (*jsBellProvider)(nil)

// ============================================================================
// Response Writer - calls onResponse(data)
// data: Uint8Array, e.g. a cursor position report
// ============================================================================

type jsResponseWriter struct {
	callback js.Value
}

func (p *jsResponseWriter) Write(data []byte) (int, error) {
	if unset(p.callback) {
		return len(data), nil
	}
	p.callback.Invoke(bytesToJS(data))
	return len(data), nil
}

var _ vgaconsole.ResponseProvider = (*jsResponseWriter)(nil)

// ============================================================================
// Recording Provider - calls onRecording(event, data)
// event: "record", "data", "clear"
// ============================================================================

type jsRecordingProvider struct {
	callback js.Value
}

func (p *jsRecordingProvider) Record(data []byte) {
	if unset(p.callback) {
		return
	}
	p.callback.Invoke("record", bytesToJS(data))
}

func (p *jsRecordingProvider) Data() []byte {
	if unset(p.callback) {
		return nil
	}
	result := p.callback.Invoke("data")
	if unset(result) {
		return nil
	}
	data := make([]byte, result.Length())
	js.CopyBytesToGo(data, result)
	return data
}

func (p *jsRecordingProvider) Clear() {
	if unset(p.callback) {
		return
	}
	p.callback.Invoke("clear")
}

var _ vgaconsole.RecordingProvider = (*jsRecordingProvider)(nil)
