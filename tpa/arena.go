// Package tpa manages the Transient Program Area: the single region of memory a
// foreign program is loaded into and run from, one program at a time.
package tpa

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

const wordSize = 4

// Region is a fixed, contiguous span of memory starting at address Base.
type Region struct {
	Base uint32
	Mem  []byte
}

// End returns the first address past the region, rounded down to a whole word.
func (r Region) End() uint32 {
	return r.Base + uint32(len(r.Mem)/wordSize*wordSize)
}

// Arena tracks the usable [bottom, top) window of a Region and the staged entry point.
type Arena struct {
	region    Region
	bottom    uint32
	top       uint32
	lastEntry EntryPoint

	stolen   uint32
	stealing bool
}

// New creates an arena over region.
// When systemStart is non-nil it must lie within the region and becomes the bottom,
// protecting whatever the system keeps below it.
func New(region Region, systemStart *uint32) (*Arena, error) {
	if len(region.Mem) < wordSize {
		return nil, errors.Errorf("region of %d bytes is too small", len(region.Mem))
	}

	a := &Arena{
		region: region,
		bottom: region.Base,
		top:    region.End(),
	}

	if systemStart != nil {
		start := *systemStart
		if start < a.bottom || start >= a.top {
			return nil, errors.Wrapf(ErrSystemStartOutside, "0x%08x not in [0x%08x, 0x%08x)", start, a.bottom, a.top)
		}
		if start%wordSize != 0 {
			return nil, errors.Wrapf(ErrBadAddress, "system start 0x%08x is not word aligned", start)
		}
		a.bottom = start
	}

	return a, nil
}

// Bottom returns the lowest usable address.
func (a *Arena) Bottom() uint32 {
	return a.bottom
}

// Top returns the first address past the usable window.
func (a *Arena) Top() uint32 {
	return a.top
}

// Len returns the size of the usable window in bytes.
func (a *Arena) Len() uint32 {
	return a.top - a.bottom
}

// Contains reports whether addr lies within [bottom, top).
func (a *Arena) Contains(addr uint32) bool {
	return addr >= a.bottom && addr < a.top
}

// Region returns the backing region.
func (a *Arena) Region() Region {
	return a.region
}

// Bytes returns the usable window. The slice aliases arena memory.
func (a *Arena) Bytes() []byte {
	return a.region.Mem[a.bottom-a.region.Base : a.top-a.region.Base]
}

// Words returns a little-endian word copy of the usable window.
func (a *Arena) Words() []uint32 {
	b := a.Bytes()
	words := make([]uint32, len(b)/wordSize)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*wordSize:])
	}
	return words
}

// Span returns size bytes at addr. The span must lie within [bottom, top).
func (a *Arena) Span(addr, size uint32) ([]byte, error) {
	if addr < a.bottom || uint64(addr)+uint64(size) > uint64(a.top) {
		return nil, errors.Wrapf(ErrBadAddress, "span 0x%08x+%d outside [0x%08x, 0x%08x)", addr, size, a.bottom, a.top)
	}
	off := addr - a.region.Base
	return a.region.Mem[off : off+size], nil
}

// CopyProgram copies a flat program image to the bottom of the arena and stages
// the bottom as its entry point.
func (a *Arena) CopyProgram(p []byte) error {
	if uint64(len(p)) > uint64(a.Len()) {
		return errors.Wrapf(ErrProgramTooLarge, "%d bytes, arena holds %d", len(p), a.Len())
	}
	copy(a.Bytes(), p)
	a.lastEntry = EntryPoint(a.bottom)
	return nil
}

// StealTop carves size bytes off the top of the arena for a subsystem that must
// coexist with a loaded program. The first size bytes of the arena are moved to
// the new top and its address is returned.
// Only one steal may be outstanding, and size must be smaller than Len.
func (a *Arena) StealTop(size uint32) uint32 {
	if a.stealing {
		panic(fmt.Sprintf("tpa: steal of %d bytes while %d bytes are already stolen", size, a.stolen))
	}
	if size >= a.Len() {
		panic(fmt.Sprintf("tpa: cannot steal %d bytes from an arena of %d", size, a.Len()))
	}

	words := (size + wordSize - 1) / wordSize
	newTop := a.top - words*wordSize

	src := a.bottom - a.region.Base
	dst := newTop - a.region.Base
	copy(a.region.Mem[dst:dst+size], a.region.Mem[src:src+size])

	a.top = newTop
	a.stolen = size
	a.stealing = true
	return newTop
}

// RestoreTop returns memory taken by StealTop. size must match the steal.
func (a *Arena) RestoreTop(size uint32) {
	if !a.stealing {
		panic("tpa: restore without a steal")
	}
	if size != a.stolen {
		panic(fmt.Sprintf("tpa: restore of %d bytes does not match steal of %d", size, a.stolen))
	}

	words := (size + wordSize - 1) / wordSize
	a.top += words * wordSize
	a.stolen = 0
	a.stealing = false
}

// Stolen returns the size of the outstanding steal, or 0.
func (a *Arena) Stolen() uint32 {
	return a.stolen
}

// LastEntry returns the staged entry point, or 0 if nothing is loaded.
func (a *Arena) LastEntry() EntryPoint {
	return a.lastEntry
}

// SetLastEntry stages an entry point for the executor.
func (a *Arena) SetLastEntry(e EntryPoint) {
	a.lastEntry = e
}

// ClearLastEntry forgets the staged program; it must be loaded again to run.
func (a *Arena) ClearLastEntry() {
	a.lastEntry = 0
}
