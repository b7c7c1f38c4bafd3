package lock

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
)

func TestTryLock(t *testing.T) {
	c := New(42)

	g, err := c.TryLock()
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if *g.Value() != 42 {
		t.Errorf("expected 42, got %d", *g.Value())
	}

	if _, err := c.TryLock(); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}

	*g.Value() = 7
	g.Unlock()

	g, err = c.TryLock()
	if err != nil {
		t.Fatalf("TryLock after unlock: %v", err)
	}
	defer g.Unlock()
	if *g.Value() != 7 {
		t.Errorf("expected 7, got %d", *g.Value())
	}
}

func TestLockPanicsWhenHeld(t *testing.T) {
	c := New("x")
	g := c.Lock()
	defer g.Unlock()

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	c.Lock()
}

func TestDoubleUnlockPanics(t *testing.T) {
	c := New(0)
	g := c.Lock()
	g.Unlock()

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	g.Unlock()
}

func TestWith(t *testing.T) {
	c := New([]int{})

	err := c.With(func(v *[]int) {
		*v = append(*v, 1)
		if err := c.With(func(*[]int) {}); !errors.Is(err, ErrLocked) {
			t.Errorf("expected nested With to fail with ErrLocked, got %v", err)
		}
	})
	if err != nil {
		t.Fatalf("With: %v", err)
	}

	c.With(func(v *[]int) {
		if len(*v) != 1 {
			t.Errorf("expected 1 element, got %d", len(*v))
		}
	})
}

func TestPanicPrintSkipsWhenHeld(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	PanicPrint(c, "panic: %s\n", "boom")
	if buf.String() != "panic: boom\n" {
		t.Errorf("expected 'panic: boom\\n', got %q", buf.String())
	}

	g := c.Lock()
	PanicPrint(c, "second\n")
	g.Unlock()

	if buf.String() != "panic: boom\n" {
		t.Errorf("expected held lock to suppress output, got %q", buf.String())
	}
}

func TestPanickingFlag(t *testing.T) {
	if Panicking() {
		t.Fatal("expected flag clear at start")
	}
	SetPanicking()
	t.Cleanup(ClearPanicking)
	if !Panicking() {
		t.Error("expected flag set")
	}
}

func TestEnterPanicsOnHeldCell(t *testing.T) {
	c := New(0)
	g := c.Lock()
	defer g.Unlock()

	defer func() {
		if recover() == nil {
			t.Error("expected panic entering a held cell")
		}
	}()
	c.Enter()
}

func TestEnterSkipsHeldCellWhilePanicking(t *testing.T) {
	c := New(0)
	g := c.Lock()
	defer g.Unlock()

	SetPanicking()
	t.Cleanup(ClearPanicking)

	if got := c.Enter(); got != nil {
		t.Error("expected nil guard for a held cell while panicking")
	}
}

func TestEnterTakesFreeCell(t *testing.T) {
	c := New(7)
	g := c.Enter()
	if g == nil {
		t.Fatal("expected a guard")
	}
	if *g.Value() != 7 {
		t.Errorf("expected 7, got %d", *g.Value())
	}
	g.Unlock()
}
