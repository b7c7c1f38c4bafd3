package tpa

import (
	"fmt"

	"github.com/pkg/errors"
)

// EntryPoint is an address inside the arena at which a loaded program starts.
// The zero value means no program is staged.
type EntryPoint uint32

// TryNewEntryPoint checks that addr lies within the arena and is a multiple of align.
// An align of 0 or 1 accepts any address.
func TryNewEntryPoint(addr uint32, arena *Arena, align uint32) (EntryPoint, error) {
	if !arena.Contains(addr) {
		return 0, errors.Wrapf(ErrBadAddress, "entry 0x%08x outside [0x%08x, 0x%08x)", addr, arena.Bottom(), arena.Top())
	}
	if align > 1 && addr%align != 0 {
		return 0, errors.Wrapf(ErrBadAddress, "entry 0x%08x not aligned to %d", addr, align)
	}
	return EntryPoint(addr), nil
}

// Addr returns the entry address.
func (e EntryPoint) Addr() uint32 {
	return uint32(e)
}

// Valid reports whether an entry point is staged.
func (e EntryPoint) Valid() bool {
	return e != 0
}

func (e EntryPoint) String() string {
	return fmt.Sprintf("0x%08x", uint32(e))
}
