// Package lock provides a try-lock cell for state shared with re-entrant paths
// such as the panic handler. Taking a held lock fails instead of blocking.
package lock

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/pkg/errors"
)

// ErrLocked is returned by TryLock when the cell is already held.
var ErrLocked = errors.New("lock already held")

var panicking atomic.Bool

// Panicking reports whether SetPanicking has been called.
func Panicking() bool {
	return panicking.Load()
}

// SetPanicking marks the process as panicking. From then on Enter skips held
// cells instead of panicking.
func SetPanicking() {
	panicking.Store(true)
}

// ClearPanicking resets the flag set by SetPanicking.
func ClearPanicking() {
	panicking.Store(false)
}

// Cell guards a value of type T.
type Cell[T any] struct {
	held  atomic.Bool
	value T
}

// New returns a cell holding v.
func New[T any](v T) *Cell[T] {
	return &Cell[T]{value: v}
}

// Guard is exclusive access to a cell's value until Unlock.
type Guard[T any] struct {
	cell *Cell[T]
}

// Value returns a pointer to the guarded value. It must not be kept past Unlock.
func (g *Guard[T]) Value() *T {
	return &g.cell.value
}

// Unlock releases the cell. Unlocking twice panics.
func (g *Guard[T]) Unlock() {
	if g.cell == nil {
		panic("lock: unlock of released guard")
	}
	g.cell.held.Store(false)
	g.cell = nil
}

// TryLock takes the cell, or returns ErrLocked if it is held.
func (c *Cell[T]) TryLock() (*Guard[T], error) {
	if !c.held.CompareAndSwap(false, true) {
		return nil, ErrLocked
	}
	return &Guard[T]{cell: c}, nil
}

// Lock takes the cell and panics if it is held.
func (c *Cell[T]) Lock() *Guard[T] {
	g, err := c.TryLock()
	if err != nil {
		panic(err)
	}
	return g
}

// Enter takes the cell for a print path. A held cell panics like Lock, unless
// the process is panicking: then Enter returns nil and the caller skips its output.
func (c *Cell[T]) Enter() *Guard[T] {
	g, err := c.TryLock()
	if err == nil {
		return g
	}
	if Panicking() {
		return nil
	}
	panic(err)
}

// With runs fn with the value locked.
func (c *Cell[T]) With(fn func(v *T)) error {
	g, err := c.TryLock()
	if err != nil {
		return err
	}
	defer g.Unlock()
	fn(g.Value())
	return nil
}

// PanicPrint writes a diagnostic through the writer held in c. If the cell is
// held, for instance because the panic happened mid-print, nothing is written.
func PanicPrint[W io.Writer](c *Cell[W], format string, args ...any) {
	g, err := c.TryLock()
	if err != nil {
		return
	}
	defer g.Unlock()
	fmt.Fprintf(*g.Value(), format, args...)
}
