package program

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/neotron-os/go-neotron/hostfs"
)

// MaxHandles is the size of the open handle table.
const MaxHandles = 8

// Handle indexes the open handle table. 0, 1 and 2 are standard input, output
// and error for the whole of a program run.
type Handle uint8

const (
	Stdin  Handle = 0
	Stdout Handle = 1
	Stderr Handle = 2
)

// Kind is what an open handle refers to.
type Kind uint8

const (
	KindClosed Kind = iota
	KindStdIn
	KindStdout
	KindStdErr
	KindFile
	KindAudio
)

func (k Kind) String() string {
	switch k {
	case KindClosed:
		return "closed"
	case KindStdIn:
		return "stdin"
	case KindStdout:
		return "stdout"
	case KindStdErr:
		return "stderr"
	case KindFile:
		return "file"
	case KindAudio:
		return "audio"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

type slot struct {
	kind Kind
	file hostfs.File
	name string
}

// HandleTable is the per-run table of open handles.
type HandleTable struct {
	slots [MaxHandles]slot
	log   *logrus.Logger
}

// NewHandleTable returns a table with every slot closed.
func NewHandleTable(log *logrus.Logger) *HandleTable {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &HandleTable{log: log}
}

// Reset closes everything, then opens the three standard handles.
func (t *HandleTable) Reset() {
	t.CloseAll()
	t.slots[Stdin] = slot{kind: KindStdIn}
	t.slots[Stdout] = slot{kind: KindStdout}
	t.slots[Stderr] = slot{kind: KindStdErr}
}

// CloseAll closes every slot, closing any open files.
func (t *HandleTable) CloseAll() {
	for h := range t.slots {
		t.release(Handle(h))
	}
}

// Allocate takes the lowest closed slot.
func (t *HandleTable) Allocate(kind Kind, file hostfs.File, name string) (Handle, error) {
	for h := range t.slots {
		if t.slots[h].kind == KindClosed {
			t.slots[h] = slot{kind: kind, file: file, name: name}
			t.log.Debugf("program: handle %d opened as %v %q", h, kind, name)
			return Handle(h), nil
		}
	}
	return 0, ErrOutOfMemory
}

// Get returns the kind and, for files, the open file behind h.
func (t *HandleTable) Get(h Handle) (Kind, hostfs.File, error) {
	if int(h) >= MaxHandles {
		return KindClosed, nil, ErrBadHandle
	}
	s := t.slots[h]
	return s.kind, s.file, nil
}

// Kind returns the kind of h, KindClosed if h is out of range.
func (t *HandleTable) Kind(h Handle) Kind {
	kind, _, _ := t.Get(h)
	return kind
}

// Release closes h. Releasing a closed handle is a BadHandle error.
func (t *HandleTable) Release(h Handle) error {
	if int(h) >= MaxHandles || t.slots[h].kind == KindClosed {
		return ErrBadHandle
	}
	return t.release(h)
}

// Kinds returns the kind of every slot.
func (t *HandleTable) Kinds() [MaxHandles]Kind {
	var kinds [MaxHandles]Kind
	for h, s := range t.slots {
		kinds[h] = s.kind
	}
	return kinds
}

func (t *HandleTable) release(h Handle) error {
	s := t.slots[h]
	t.slots[h] = slot{}

	if s.kind != KindClosed {
		t.log.Debugf("program: handle %d (%v %q) closed", h, s.kind, s.name)
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			t.log.Warnf("program: closing %q: %v", s.name, err)
			return fsError(err)
		}
	}
	return nil
}
