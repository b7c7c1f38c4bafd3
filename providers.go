package vgaconsole

import (
	"io"
	"sync"
)

// ResponseProvider receives replies to queries such as the cursor position report (CSI 6n).
// Typically an io.Writer connected to the console's input queue.
type ResponseProvider = io.Writer

// NoopResponse discards all response data.
type NoopResponse struct{}

func (NoopResponse) Write(p []byte) (n int, err error) {
	return len(p), nil
}

// --- Bell Provider ---

// BellProvider handles bell events triggered by BEL (0x07) characters.
type BellProvider interface {
	// Ring is called when a bell character is received.
	Ring()
}

// NoopBell ignores all bell events.
type NoopBell struct{}

func (NoopBell) Ring() {}

// --- Recording Provider ---

// RecordingProvider captures raw bytes written to the console before they are parsed.
// Mirrors use it to replay the screen to late joiners.
type RecordingProvider interface {
	// Record appends raw bytes to the recording.
	Record(data []byte)
	// Data returns all captured bytes since the last Clear call.
	Data() []byte
	// Clear discards all recorded data.
	Clear()
}

// NoopRecording discards all input recordings.
type NoopRecording struct{}

func (NoopRecording) Record([]byte) {}
func (NoopRecording) Data() []byte  { return nil }
func (NoopRecording) Clear()        {}

// MemoryRecording stores raw console bytes in memory, keeping at most limit bytes.
// A limit of 0 keeps everything.
//
// Example:
//
//	recorder := vgaconsole.NewMemoryRecording(64 * 1024)
//	con := vgaconsole.New(vgaconsole.WithRecording(recorder))
//	// ... write to the console ...
//	data := recorder.Data() // replay to a new viewer
type MemoryRecording struct {
	mu    sync.Mutex
	data  []byte
	limit int
}

// NewMemoryRecording creates a new in-memory recording buffer.
func NewMemoryRecording(limit int) *MemoryRecording {
	return &MemoryRecording{
		data:  make([]byte, 0),
		limit: limit,
	}
}

// Record appends raw bytes to the recording, dropping the oldest bytes past the limit.
func (r *MemoryRecording) Record(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data = append(r.data, data...)
	if r.limit > 0 && len(r.data) > r.limit {
		r.data = append(r.data[:0], r.data[len(r.data)-r.limit:]...)
	}
}

// Data returns a copy of the captured bytes.
func (r *MemoryRecording) Data() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]byte, len(r.data))
	copy(result, r.data)
	return result
}

// Clear discards all recorded data.
func (r *MemoryRecording) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data = make([]byte, 0)
}
