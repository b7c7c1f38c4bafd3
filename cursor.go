package vgaconsole

// CursorGlyph is drawn over the cell under the cursor while the overlay is enabled.
const CursorGlyph = '_'

// Position is a 0-based (row, col) screen coordinate.
type Position struct {
	Row int
	Col int
}

// Cursor tracks the write position and the on-screen cursor overlay.
//
// Row and Col may transiently equal the screen height/width: a character written
// to the last cell leaves the cursor one past the edge until the next action
// wraps or scrolls.
type Cursor struct {
	Row int
	Col int

	// Wanted is the DEC private mode 25 state. Off until CSI ?25h.
	Wanted bool

	// depth counts nested cursorDisable calls; the overlay is drawn only at depth 0.
	depth int
	// saved holds the glyph under the drawn cursor. hasSaved is true iff a cursor glyph is on screen.
	saved    byte
	savedAt  Position
	hasSaved bool
}

// NewCursor creates a hidden cursor at the origin.
func NewCursor() *Cursor {
	return &Cursor{}
}

// Drawn returns true if the cursor glyph is currently on screen.
func (c *Cursor) Drawn() bool {
	return c.hasSaved
}

// onScreen reports whether the cursor addresses a real cell of fb.
func (c *Cursor) onScreen(fb *Framebuffer) bool {
	return c.Row >= 0 && c.Row < fb.Rows() && c.Col >= 0 && c.Col < fb.Cols()
}

// disable removes the cursor glyph, restoring the saved cell, and increments the depth.
func (c *Cursor) disable(fb *Framebuffer) {
	if c.hasSaved {
		if c.savedAt.Row < fb.Rows() && c.savedAt.Col < fb.Cols() {
			fb.WriteAt(c.savedAt.Row, c.savedAt.Col, c.saved, nil)
		}
		c.hasSaved = false
	}
	c.depth++
}

// enable decrements the depth and, once it reaches zero, draws the cursor glyph
// if the cursor is wanted and on screen.
func (c *Cursor) enable(fb *Framebuffer) {
	if c.depth > 0 {
		c.depth--
	}
	if c.depth != 0 || !c.Wanted || c.hasSaved || !c.onScreen(fb) {
		return
	}
	c.saved = fb.ReadAt(c.Row, c.Col)
	c.savedAt = Position{Row: c.Row, Col: c.Col}
	c.hasSaved = true
	fb.WriteAt(c.Row, c.Col, CursorGlyph, nil)
}

// assertDisabled panics if a direct cell access happens while the overlay is live.
func (c *Cursor) assertDisabled() {
	if c.depth == 0 {
		panic("vgaconsole: cell access with cursor overlay enabled")
	}
}
