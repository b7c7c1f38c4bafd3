package tpa

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
)

func newTestArena(t *testing.T, base uint32, size int) *Arena {
	t.Helper()
	a, err := New(Region{Base: base, Mem: make([]byte, size)}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestArenaBounds(t *testing.T) {
	a := newTestArena(t, 0x100, 0x400)

	if a.Bottom() != 0x100 {
		t.Errorf("expected bottom 0x100, got 0x%x", a.Bottom())
	}
	if a.Top() != 0x500 {
		t.Errorf("expected top 0x500, got 0x%x", a.Top())
	}
	if a.Len() != 0x400 {
		t.Errorf("expected len 0x400, got 0x%x", a.Len())
	}
	if !a.Contains(0x100) || a.Contains(0x500) || a.Contains(0xFF) {
		t.Error("Contains disagrees with [bottom, top)")
	}
	if len(a.Bytes()) != 0x400 || len(a.Words()) != 0x100 {
		t.Errorf("expected 0x400 bytes and 0x100 words, got %d and %d", len(a.Bytes()), len(a.Words()))
	}
}

func TestArenaRoundsDownToWords(t *testing.T) {
	a := newTestArena(t, 0, 10)
	if a.Len() != 8 {
		t.Errorf("expected len 8, got %d", a.Len())
	}
}

func TestArenaSystemStart(t *testing.T) {
	mem := make([]byte, 0x100)

	start := uint32(0x1040)
	a, err := New(Region{Base: 0x1000, Mem: mem}, &start)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Bottom() != 0x1040 {
		t.Errorf("expected bottom 0x1040, got 0x%x", a.Bottom())
	}
	if a.Len() != 0xC0 {
		t.Errorf("expected len 0xC0, got 0x%x", a.Len())
	}

	for _, outside := range []uint32{0x0FFC, 0x1100, 0x2000} {
		s := outside
		if _, err := New(Region{Base: 0x1000, Mem: mem}, &s); !errors.Is(err, ErrSystemStartOutside) {
			t.Errorf("expected ErrSystemStartOutside for 0x%x, got %v", outside, err)
		}
	}
}

func TestArenaWords(t *testing.T) {
	a := newTestArena(t, 0, 8)
	copy(a.Bytes(), []byte{0x78, 0x56, 0x34, 0x12, 0xEF, 0xBE, 0xAD, 0xDE})

	words := a.Words()
	if words[0] != 0x12345678 || words[1] != 0xDEADBEEF {
		t.Errorf("expected little-endian words, got 0x%08x 0x%08x", words[0], words[1])
	}
}

func TestArenaCopyProgram(t *testing.T) {
	a := newTestArena(t, 0x100, 16)

	if err := a.CopyProgram([]byte("program")); err != nil {
		t.Fatalf("CopyProgram: %v", err)
	}
	if !bytes.HasPrefix(a.Bytes(), []byte("program")) {
		t.Errorf("expected program at bottom, got %q", a.Bytes())
	}
	if a.LastEntry() != EntryPoint(0x100) {
		t.Errorf("expected entry 0x100, got %v", a.LastEntry())
	}

	if err := a.CopyProgram(make([]byte, 17)); !errors.Is(err, ErrProgramTooLarge) {
		t.Errorf("expected ErrProgramTooLarge, got %v", err)
	}
}

func TestArenaStealRestoreRoundTrip(t *testing.T) {
	a := newTestArena(t, 0x100, 64)
	origTop := a.Top()

	sizes := []uint32{1, 4, 13, 63}
	for _, size := range sizes {
		clear(a.Bytes())
		copy(a.Bytes(), []byte("decoder state"))

		ptr := a.StealTop(size)

		words := (size + 3) / 4
		if a.Top() != origTop-words*4 {
			t.Errorf("size %d: expected top 0x%x, got 0x%x", size, origTop-words*4, a.Top())
		}
		if ptr != a.Top() {
			t.Errorf("size %d: expected pointer at new top 0x%x, got 0x%x", size, a.Top(), ptr)
		}

		stolen := a.Region().Mem[ptr-0x100 : ptr-0x100+size]
		want := []byte("decoder state" + string(make([]byte, 64)))[:size]
		if !bytes.Equal(stolen, want) {
			t.Errorf("size %d: expected moved bytes %q, got %q", size, want, stolen)
		}

		a.RestoreTop(size)
		if a.Top() != origTop {
			t.Errorf("size %d: expected top restored to 0x%x, got 0x%x", size, origTop, a.Top())
		}

		// The relocated bytes are left in place after the restore.
		if !bytes.Equal(a.Region().Mem[ptr-0x100:ptr-0x100+size], want) {
			t.Errorf("size %d: restore disturbed the relocated bytes", size)
		}
	}
}

func TestArenaStealTooLargePanics(t *testing.T) {
	a := newTestArena(t, 0, 16)
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	a.StealTop(16)
}

func TestArenaDoubleStealPanics(t *testing.T) {
	a := newTestArena(t, 0, 64)
	a.StealTop(8)
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	a.StealTop(8)
}

func TestArenaRestoreMismatchPanics(t *testing.T) {
	a := newTestArena(t, 0, 64)
	a.StealTop(8)
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	a.RestoreTop(12)
}

func TestArenaSpan(t *testing.T) {
	a := newTestArena(t, 0x100, 64)

	span, err := a.Span(0x110, 4)
	if err != nil {
		t.Fatalf("Span: %v", err)
	}
	span[0] = 0xAA
	if a.Bytes()[0x10] != 0xAA {
		t.Error("expected span to alias arena memory")
	}

	if _, err := a.Span(0xFC, 8); !errors.Is(err, ErrBadAddress) {
		t.Errorf("expected ErrBadAddress below bottom, got %v", err)
	}
	if _, err := a.Span(0x13C, 8); !errors.Is(err, ErrBadAddress) {
		t.Errorf("expected ErrBadAddress past top, got %v", err)
	}
}

func TestEntryPoint(t *testing.T) {
	a := newTestArena(t, 0x100, 64)

	tests := []struct {
		addr  uint32
		align uint32
		ok    bool
	}{
		{0x100, 1, true},
		{0x101, 1, true},
		{0x101, 2, false},
		{0x104, 4, true},
		{0x13F, 0, true},
		{0x140, 1, false},
		{0x0FF, 1, false},
	}
	for _, tt := range tests {
		e, err := TryNewEntryPoint(tt.addr, a, tt.align)
		if tt.ok {
			if err != nil {
				t.Errorf("0x%x align %d: expected ok, got %v", tt.addr, tt.align, err)
			} else if e.Addr() != tt.addr {
				t.Errorf("expected 0x%x, got %v", tt.addr, e)
			}
		} else if !errors.Is(err, ErrBadAddress) {
			t.Errorf("0x%x align %d: expected ErrBadAddress, got %v", tt.addr, tt.align, err)
		}
	}
}

func TestLastEntry(t *testing.T) {
	a := newTestArena(t, 0x100, 64)
	if a.LastEntry().Valid() {
		t.Error("expected nothing staged")
	}
	a.SetLastEntry(EntryPoint(0x120))
	if a.LastEntry() != 0x120 {
		t.Errorf("expected 0x120, got %v", a.LastEntry())
	}
	a.ClearLastEntry()
	if a.LastEntry().Valid() {
		t.Error("expected entry cleared")
	}
}
