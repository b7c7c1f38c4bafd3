package vgaconsole

import (
	"fmt"
)

// Framebuffer addresses a VGA text-mode buffer: an interleaved (glyph, attr)
// byte array of rows*cols cells. The memory may be supplied by the caller (the
// video subsystem owns it) or allocated by NewFramebuffer when none is given.
//
// Out-of-range access is a programmer error and panics.
type Framebuffer struct {
	rows  int
	cols  int
	mem   []byte
	owned bool
	dirty bool
}

// NewFramebuffer creates a framebuffer of rows x cols cells over mem.
// If mem is nil a buffer is allocated and filled with blank cells.
// Panics if mem is too small for the requested geometry.
func NewFramebuffer(rows, cols int, mem []byte) *Framebuffer {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("vgaconsole: invalid framebuffer geometry %dx%d", cols, rows))
	}
	fb := &Framebuffer{rows: rows, cols: cols, mem: mem}
	if mem == nil {
		fb.mem = make([]byte, rows*cols*2)
		fb.owned = true
		fb.Fill(' ', DefaultAttr)
	}
	if len(fb.mem) < rows*cols*2 {
		panic(fmt.Sprintf("vgaconsole: framebuffer of %d bytes cannot hold %dx%d cells", len(fb.mem), cols, rows))
	}
	return fb
}

// Rows returns the framebuffer height in character rows.
func (fb *Framebuffer) Rows() int {
	return fb.rows
}

// Cols returns the framebuffer width in character columns.
func (fb *Framebuffer) Cols() int {
	return fb.cols
}

// Bytes returns the interleaved (glyph, attr) bytes for the current geometry.
func (fb *Framebuffer) Bytes() []byte {
	return fb.mem[:fb.rows*fb.cols*2]
}

func (fb *Framebuffer) offset(row, col int) int {
	if row < 0 || row >= fb.rows {
		panic(fmt.Sprintf("vgaconsole: row %d out of range [0,%d)", row, fb.rows))
	}
	if col < 0 || col >= fb.cols {
		panic(fmt.Sprintf("vgaconsole: col %d out of range [0,%d)", col, fb.cols))
	}
	return ((row * fb.cols) + col) * 2
}

// WriteAt stores glyph at (row, col) and, if attr is non-nil, the attribute too.
func (fb *Framebuffer) WriteAt(row, col int, glyph byte, attr *Attr) {
	off := fb.offset(row, col)
	fb.mem[off] = glyph
	if attr != nil {
		fb.mem[off+1] = byte(*attr)
	}
	fb.dirty = true
}

// ReadAt returns the glyph at (row, col).
func (fb *Framebuffer) ReadAt(row, col int) byte {
	return fb.mem[fb.offset(row, col)]
}

// AttrAt returns the attribute at (row, col).
func (fb *Framebuffer) AttrAt(row, col int) Attr {
	return Attr(fb.mem[fb.offset(row, col)+1])
}

// CellAt returns the glyph and attribute at (row, col).
func (fb *Framebuffer) CellAt(row, col int) Cell {
	off := fb.offset(row, col)
	return Cell{Glyph: fb.mem[off], Attr: Attr(fb.mem[off+1])}
}

// ScrollPage moves rows [1, rows) up to [0, rows-1) in one copy and blanks the last row.
func (fb *Framebuffer) ScrollPage() {
	stride := fb.cols * 2
	total := fb.rows * stride
	copy(fb.mem[0:total-stride], fb.mem[stride:total])
	fb.fillRange(total-stride, total, ' ', DefaultAttr)
	fb.dirty = true
}

// Fill sets every cell to glyph in attr.
func (fb *Framebuffer) Fill(glyph byte, attr Attr) {
	fb.fillRange(0, fb.rows*fb.cols*2, glyph, attr)
	fb.dirty = true
}

// ClearRange blanks cells on row from startCol (inclusive) to endCol (exclusive).
func (fb *Framebuffer) ClearRange(row, startCol, endCol int) {
	if startCol < 0 {
		startCol = 0
	}
	if endCol > fb.cols {
		endCol = fb.cols
	}
	if startCol >= endCol {
		return
	}
	start := fb.offset(row, startCol)
	fb.fillRange(start, start+(endCol-startCol)*2, ' ', DefaultAttr)
	fb.dirty = true
}

// ClearRow blanks a whole row.
func (fb *Framebuffer) ClearRow(row int) {
	fb.ClearRange(row, 0, fb.cols)
}

func (fb *Framebuffer) fillRange(start, end int, glyph byte, attr Attr) {
	for i := start; i < end; i += 2 {
		fb.mem[i] = glyph
		fb.mem[i+1] = byte(attr)
	}
}

// Resize changes the geometry for a new video mode.
// A framebuffer that owns its memory grows it as needed; caller-supplied memory
// that is too small for the new geometry is an error and leaves the geometry unchanged.
func (fb *Framebuffer) Resize(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("invalid geometry %dx%d", cols, rows)
	}
	need := rows * cols * 2
	if len(fb.mem) < need {
		if !fb.owned {
			return fmt.Errorf("framebuffer of %d bytes cannot hold %dx%d cells", len(fb.mem), cols, rows)
		}
		fb.mem = make([]byte, need)
	}
	fb.rows = rows
	fb.cols = cols
	fb.dirty = true
	return nil
}

// HasDirty returns true if any cell has been written since the last ClearDirty call.
func (fb *Framebuffer) HasDirty() bool {
	return fb.dirty
}

// ClearDirty resets the dirty state.
func (fb *Framebuffer) ClearDirty() {
	fb.dirty = false
}
