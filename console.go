package vgaconsole

import (
	"fmt"
	"strings"
	"sync"

	"github.com/danielgatis/go-ansicode"
)

// Ensure Console implements ansicode.Handler
var _ ansicode.Handler = (*Console)(nil)

const (
	// DEFAULT_ROWS is the default number of console rows.
	DEFAULT_ROWS = 25
	// DEFAULT_COLS is the default number of console columns.
	DEFAULT_COLS = 80

	tabWidth = 8
)

// TextMode is a character-cell video geometry.
type TextMode struct {
	Rows int
	Cols int
}

// Standard VGA text modes.
var (
	Mode80x25 = TextMode{Rows: 25, Cols: 80}
	Mode80x30 = TextMode{Rows: 30, Cols: 80}
	Mode80x50 = TextMode{Rows: 50, Cols: 80}
	Mode80x60 = TextMode{Rows: 60, Cols: 80}
	Mode40x25 = TextMode{Rows: 25, Cols: 40}
)

// String returns the mode as COLSxROWS.
func (m TextMode) String() string {
	return fmt.Sprintf("%dx%d", m.Cols, m.Rows)
}

// Console interprets a byte stream of text and ANSI/DEC escape sequences into a VGA text framebuffer.
//
// Unlike a general-purpose terminal it implements a deliberately small subset:
// cursor motion, erase, colour/bright/reverse SGR and cursor visibility. Wrapping and
// scrolling are lazy: writing the last cell of the last row leaves the cursor one past
// the edge, and the scroll happens when the next character or control code arrives.
//
// All operations are thread-safe via internal locking.
type Console struct {
	mu sync.RWMutex

	fb     *Framebuffer
	cursor *Cursor

	// attr is the colour pair selected by SGR; bright is applied on top of it,
	// reverse only when a glyph is written.
	attr    Attr
	bright  bool
	reverse bool

	saved savedState

	// Internal ANSI decoder
	decoder *ansicode.Decoder

	// Middleware for handler interception
	middleware *Middleware

	responseProvider  ResponseProvider
	bellProvider      BellProvider
	recordingProvider RecordingProvider

	// construction-time geometry and memory
	rows int
	cols int
	mem  []byte
}

// savedState is the DECSC/SCOSC snapshot.
type savedState struct {
	row, col int
	attr     Attr
	bright   bool
	reverse  bool
}

// Option configures a Console during construction.
type Option func(*Console)

// WithSize sets the console dimensions.
// Values <= 0 are replaced with defaults (25x80).
func WithSize(rows, cols int) Option {
	if rows <= 0 {
		rows = DEFAULT_ROWS
	}
	if cols <= 0 {
		cols = DEFAULT_COLS
	}

	return func(c *Console) {
		c.rows = rows
		c.cols = cols
	}
}

// WithMode sets the console dimensions from a text mode.
func WithMode(m TextMode) Option {
	return WithSize(m.Rows, m.Cols)
}

// WithFramebuffer makes the console draw into caller-owned video memory
// of interleaved (glyph, attr) bytes. The memory is not cleared.
func WithFramebuffer(mem []byte) Option {
	return func(c *Console) {
		c.mem = mem
	}
}

// WithResponse sets the writer for replies such as cursor position reports.
// If nil, queries are ignored.
func WithResponse(p ResponseProvider) Option {
	return func(c *Console) {
		c.responseProvider = p
	}
}

// WithBell sets the handler for bell/beep events.
// Defaults to a no-op if not set.
func WithBell(p BellProvider) Option {
	return func(c *Console) {
		c.bellProvider = p
	}
}

// WithRecording sets the handler that sees raw bytes before parsing.
func WithRecording(p RecordingProvider) Option {
	return func(c *Console) {
		c.recordingProvider = p
	}
}

// WithMiddleware sets functions to intercept ANSI handler calls.
// Each middleware receives the original parameters and a next function to call the default implementation.
func WithMiddleware(mw *Middleware) Option {
	return func(c *Console) {
		if c.middleware == nil {
			c.middleware = &Middleware{}
		}
		c.middleware.Merge(mw)
	}
}

// New creates a console with the given options.
// Defaults to 80x25 with an internally allocated, blank framebuffer.
// Panics if a supplied framebuffer is too small for the geometry.
func New(opts ...Option) *Console {
	c := &Console{
		rows:              DEFAULT_ROWS,
		cols:              DEFAULT_COLS,
		attr:              DefaultAttr,
		bellProvider:      NoopBell{},
		recordingProvider: NoopRecording{},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.fb = NewFramebuffer(c.rows, c.cols, c.mem)
	c.cursor = NewCursor()

	// Create internal decoder
	c.decoder = ansicode.NewDecoder(c)

	return c
}

// Write processes raw bytes, parsing ANSI escape sequences and updating the framebuffer.
// The cursor overlay is removed for the duration of the batch and redrawn afterwards.
// Implements io.Writer.
func (c *Console) Write(data []byte) (int, error) {
	c.recordingProvider.Record(data)

	c.cursorDisable()
	defer c.cursorEnable()

	return c.decoder.Write(data)
}

// WriteString is a convenience method that converts the string to bytes and calls Write.
func (c *Console) WriteString(s string) (int, error) {
	return c.Write([]byte(s))
}

// Clear blanks the screen with the default attribute and homes the cursor.
// SGR state is not changed.
func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cursor.disable(c.fb)
	defer c.cursor.enable(c.fb)

	c.clearLocked()
}

func (c *Console) clearLocked() {
	c.fb.Fill(' ', DefaultAttr)
	c.cursor.Row = 0
	c.cursor.Col = 0
}

// ChangeMode switches to a new text geometry, clears the screen and homes the cursor.
// Fails if caller-supplied video memory cannot hold the new geometry.
func (c *Console) ChangeMode(m TextMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cursor.disable(c.fb)
	defer c.cursor.enable(c.fb)

	if err := c.fb.Resize(m.Rows, m.Cols); err != nil {
		return fmt.Errorf("change mode to %s: %w", m, err)
	}
	c.rows = m.Rows
	c.cols = m.Cols
	c.clearLocked()
	return nil
}

// Mode returns the current text geometry.
func (c *Console) Mode() TextMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return TextMode{Rows: c.rows, Cols: c.cols}
}

// Rows returns the console height in character rows.
func (c *Console) Rows() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rows
}

// Cols returns the console width in character columns.
func (c *Console) Cols() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cols
}

// CursorPos returns the current write position (0-based).
// The column may equal Cols() and the row may equal Rows() while a wrap or scroll is pending.
func (c *Console) CursorPos() (row, col int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursor.Row, c.cursor.Col
}

// CursorWanted returns true if the cursor has been made visible with CSI ?25h.
func (c *Console) CursorWanted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursor.Wanted
}

// CursorDrawn returns true if the cursor glyph is on screen right now.
func (c *Console) CursorDrawn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursor.Drawn()
}

// Attr returns the attribute the next glyph would be stored with, ignoring reverse video.
func (c *Console) Attr() Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.effectiveAttr()
}

// Bright returns true if SGR 1 is in force.
func (c *Console) Bright() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bright
}

// Reverse returns true if SGR 7 is in force.
func (c *Console) Reverse() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reverse
}

// Framebuffer returns the underlying framebuffer. Its bytes include the cursor glyph while it is drawn.
func (c *Console) Framebuffer() *Framebuffer {
	return c.fb
}

// Cell returns the logical content at (row, col), looking through the cursor overlay.
// Returns nil if coordinates are out of bounds.
func (c *Console) Cell(row, col int) *Cell {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if row < 0 || row >= c.rows || col < 0 || col >= c.cols {
		return nil
	}
	cell := c.cellLocked(row, col)
	return &cell
}

func (c *Console) cellLocked(row, col int) Cell {
	cell := c.fb.CellAt(row, col)
	if c.cursor.hasSaved && c.cursor.savedAt == (Position{Row: row, Col: col}) {
		cell.Glyph = c.cursor.saved
	}
	return cell
}

// LineContent returns the text content of a row, trimming trailing spaces.
// Returns empty string if the row contains only spaces or is out of bounds.
func (c *Console) LineContent(row int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lineContentLocked(row)
}

func (c *Console) lineContentLocked(row int) string {
	if row < 0 || row >= c.rows {
		return ""
	}
	var sb strings.Builder
	for col := 0; col < c.cols; col++ {
		sb.WriteRune(c.cellLocked(row, col).Rune())
	}
	return strings.TrimRight(sb.String(), " ")
}

// String returns the visible screen content as a newline-separated string.
// Trailing empty lines are omitted. Implements fmt.Stringer.
func (c *Console) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	lines := make([]string, 0, c.rows)
	lastNonEmpty := -1
	for row := 0; row < c.rows; row++ {
		line := c.lineContentLocked(row)
		lines = append(lines, line)
		if line != "" {
			lastNonEmpty = row
		}
	}

	return strings.Join(lines[:lastNonEmpty+1], "\n")
}

// Dump returns the logical framebuffer as raw (glyph, attr) byte pairs, row-major.
func (c *Console) Dump() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]byte, 0, c.rows*c.cols*2)
	for row := 0; row < c.rows; row++ {
		for col := 0; col < c.cols; col++ {
			cell := c.cellLocked(row, col)
			out = append(out, cell.Glyph, byte(cell.Attr))
		}
	}
	return out
}

// SetResponseProvider sets the writer for query replies.
func (c *Console) SetResponseProvider(p ResponseProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responseProvider = p
}

// SetBellProvider sets the bell handler.
func (c *Console) SetBellProvider(p BellProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bellProvider = p
}

// SetMiddleware replaces the middleware.
func (c *Console) SetMiddleware(mw *Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middleware = mw
}

// Middleware returns the current middleware.
func (c *Console) Middleware() *Middleware {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.middleware
}

// cursorDisable removes the cursor glyph before a batch of writes.
func (c *Console) cursorDisable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursor.disable(c.fb)
}

// cursorEnable redraws the cursor glyph once the outermost batch completes.
func (c *Console) cursorEnable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursor.enable(c.fb)
}

// effectiveAttr is the stored attribute with bright applied (caller must hold lock).
func (c *Console) effectiveAttr() Attr {
	if c.bright {
		return c.attr.Brightened()
	}
	return c.attr
}

// scrollAsRequired resolves a pending wrap or scroll (caller must hold lock).
func (c *Console) scrollAsRequired() {
	if c.cursor.Col >= c.cols {
		c.cursor.Col = 0
		c.cursor.Row++
	}
	if c.cursor.Row >= c.rows {
		c.cursor.Row = c.rows - 1
		c.cursor.assertDisabled()
		c.fb.ScrollPage()
	}
}

// putGlyph stores glyph at the cursor in the current attribute (caller must hold lock).
func (c *Console) putGlyph(glyph byte) {
	c.cursor.assertDisabled()
	attr := c.effectiveAttr()
	if c.reverse {
		attr = attr.Swapped()
	}
	c.fb.WriteAt(c.cursor.Row, c.cursor.Col, glyph, &attr)
}

// writeResponse writes a response back via the response provider if set.
func (c *Console) writeResponse(data []byte) {
	c.mu.RLock()
	provider := c.responseProvider
	c.mu.RUnlock()

	if provider != nil {
		provider.Write(data)
	}
}

// writeResponseString writes a string response back via the writer if set.
func (c *Console) writeResponseString(s string) {
	c.writeResponse([]byte(s))
}

// clamp ensures the value is within the given range.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
