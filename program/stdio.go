package program

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/neotron-os/go-neotron/internal/lock"
)

// InputQueueSize is the capacity of an InputQueue.
const InputQueueSize = 16

// InputQueue buffers keyboard and serial input for standard input.
// Reads never block.
type InputQueue struct {
	mu  sync.Mutex
	buf [InputQueueSize]byte
	len int
}

// NewInputQueue returns an empty queue.
func NewInputQueue() *InputQueue {
	return &InputQueue{}
}

// Push appends b, translating '\n' to '\r'. It returns false if the queue is full.
func (q *InputQueue) Push(b byte) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.len == InputQueueSize {
		return false
	}
	if b == '\n' {
		b = '\r'
	}
	q.buf[q.len] = b
	q.len++
	return true
}

// PushString pushes each byte of s and returns how many fit.
func (q *InputQueue) PushString(s string) int {
	for i := 0; i < len(s); i++ {
		if !q.Push(s[i]) {
			return i
		}
	}
	return len(s)
}

// Write pushes p so console replies reach standard input. Bytes that do not
// fit are dropped.
func (q *InputQueue) Write(p []byte) (int, error) {
	q.PushString(string(p))
	return len(p), nil
}

// Read moves up to len(p) queued bytes into p. It returns 0, nil when empty.
func (q *InputQueue) Read(p []byte) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := copy(p, q.buf[:q.len])
	copy(q.buf[:], q.buf[n:q.len])
	q.len -= n
	return n, nil
}

// Len returns the number of queued bytes.
func (q *InputQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.len
}

// ConsoleWriter writes program output to the console and mirrors it to a
// serial port. Serial failures are logged and otherwise ignored.
type ConsoleWriter struct {
	console *lock.Cell[io.Writer]
	serial  io.Writer
	log     *logrus.Logger
}

// NewConsoleWriter returns a writer to the console held in cell.
// serial may be nil.
func NewConsoleWriter(console *lock.Cell[io.Writer], serial io.Writer, log *logrus.Logger) *ConsoleWriter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ConsoleWriter{console: console, serial: serial, log: log}
}

// SetSerial replaces the serial mirror. nil disables it.
func (w *ConsoleWriter) SetSerial(serial io.Writer) {
	w.serial = serial
}

// Write prints p on the console and the serial mirror. A console that is
// already held means re-entry, which panics, except while the process is
// panicking: then the console copy is dropped and only the mirror sees p.
func (w *ConsoleWriter) Write(p []byte) (int, error) {
	n := len(p)
	var err error
	if g := w.console.Enter(); g != nil {
		n, err = (*g.Value()).Write(p)
		g.Unlock()
	}

	if w.serial != nil {
		if _, serr := w.serial.Write(p); serr != nil {
			w.log.Debugf("program: serial mirror: %v", serr)
		}
	}
	return n, err
}
