package program

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/neotron-os/go-neotron/hostfs"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeFile is a hostfs.File that records Close.
type fakeFile struct {
	closed bool
}

func (f *fakeFile) Read(p []byte) (int, error)                   { return 0, io.EOF }
func (f *fakeFile) Write(p []byte) (int, error)                  { return len(p), nil }
func (f *fakeFile) Seek(offset int64, whence int) (int64, error) { return 0, nil }
func (f *fakeFile) Close() error                                 { f.closed = true; return nil }
func (f *fakeFile) Stat() (hostfs.FileInfo, error)               { return hostfs.FileInfo{}, nil }

func TestHandleTableReset(t *testing.T) {
	table := NewHandleTable(quietLogger())
	table.Reset()

	want := [MaxHandles]Kind{KindStdIn, KindStdout, KindStdErr}
	if table.Kinds() != want {
		t.Errorf("expected %v, got %v", want, table.Kinds())
	}
}

func TestHandleTableAllocate(t *testing.T) {
	table := NewHandleTable(quietLogger())
	table.Reset()

	for want := Handle(3); want < MaxHandles; want++ {
		h, err := table.Allocate(KindFile, &fakeFile{}, "F")
		if err != nil {
			t.Fatalf("Allocate: %v", err)
		}
		if h != want {
			t.Errorf("expected handle %d, got %d", want, h)
		}
	}

	if _, err := table.Allocate(KindFile, &fakeFile{}, "F"); !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("expected ErrOutOfMemory, got %v", err)
	}
}

func TestHandleTableReleaseReuses(t *testing.T) {
	table := NewHandleTable(quietLogger())
	table.Reset()

	f := &fakeFile{}
	h, _ := table.Allocate(KindFile, f, "F")
	if err := table.Release(h); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if !f.closed {
		t.Error("expected file closed on release")
	}
	if err := table.Release(h); !errors.Is(err, ErrBadHandle) {
		t.Errorf("expected ErrBadHandle on second release, got %v", err)
	}

	h2, _ := table.Allocate(KindAudio, nil, AudioPath)
	if h2 != h {
		t.Errorf("expected slot %d reused, got %d", h, h2)
	}
}

func TestHandleTableCloseAll(t *testing.T) {
	table := NewHandleTable(quietLogger())
	table.Reset()

	files := []*fakeFile{{}, {}}
	for _, f := range files {
		table.Allocate(KindFile, f, "F")
	}

	table.CloseAll()

	if table.Kinds() != [MaxHandles]Kind{} {
		t.Errorf("expected every slot closed, got %v", table.Kinds())
	}
	for i, f := range files {
		if !f.closed {
			t.Errorf("expected file %d closed", i)
		}
	}
}

func TestHandleTableOutOfRange(t *testing.T) {
	table := NewHandleTable(quietLogger())

	if _, _, err := table.Get(MaxHandles); !errors.Is(err, ErrBadHandle) {
		t.Errorf("expected ErrBadHandle, got %v", err)
	}
	if table.Kind(200) != KindClosed {
		t.Error("expected out of range handle to read as closed")
	}
}

func TestKindString(t *testing.T) {
	if KindAudio.String() != "audio" {
		t.Errorf("expected 'audio', got %q", KindAudio.String())
	}
	if Kind(9).String() != "kind(9)" {
		t.Errorf("expected 'kind(9)', got %q", Kind(9).String())
	}
}
