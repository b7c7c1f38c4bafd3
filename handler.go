package vgaconsole

import (
	"fmt"
	"image/color"
	"math"

	"github.com/danielgatis/go-ansicode"
)

// lockCells takes the write lock and lifts the cursor overlay; the returned
// function redraws the overlay and releases the lock.
func (c *Console) lockCells() func() {
	c.mu.Lock()
	c.cursor.disable(c.fb)
	return func() {
		c.cursor.enable(c.fb)
		c.mu.Unlock()
	}
}

// Input writes a character at the cursor position.
// A pending wrap or scroll is resolved first. Every rune takes one cell,
// combining marks included: they are drawn as whatever Glyph maps them to.
func (c *Console) Input(r rune) {
	if c.middleware != nil && c.middleware.Input != nil {
		c.middleware.Input(r, c.inputInternal)
		return
	}
	c.inputInternal(r)
}

func (c *Console) inputInternal(r rune) {
	defer c.lockCells()()

	c.scrollAsRequired()
	c.putGlyph(Glyph(r))
	c.cursor.Col++
}

// Backspace moves the cursor one column left, stopping at column 0.
func (c *Console) Backspace() {
	if c.middleware != nil && c.middleware.Backspace != nil {
		c.middleware.Backspace(c.backspaceInternal)
		return
	}
	c.backspaceInternal()
}

func (c *Console) backspaceInternal() {
	defer c.lockCells()()

	c.scrollAsRequired()
	if c.cursor.Col > 0 {
		c.cursor.Col--
	}
}

// Bell triggers the bell provider if configured.
func (c *Console) Bell() {
	if c.middleware != nil && c.middleware.Bell != nil {
		c.middleware.Bell(c.bellInternal)
		return
	}
	c.bellInternal()
}

func (c *Console) bellInternal() {
	c.mu.RLock()
	provider := c.bellProvider
	c.mu.RUnlock()

	if provider != nil {
		provider.Ring()
	}
}

// CarriageReturn moves the cursor to column 0 of the current row.
func (c *Console) CarriageReturn() {
	if c.middleware != nil && c.middleware.CarriageReturn != nil {
		c.middleware.CarriageReturn(c.carriageReturnInternal)
		return
	}
	c.carriageReturnInternal()
}

func (c *Console) carriageReturnInternal() {
	defer c.lockCells()()

	c.scrollAsRequired()
	c.cursor.Col = 0
}

// LineFeed moves to column 0 of the next row. The scroll, if any, happens on the next action.
func (c *Console) LineFeed() {
	if c.middleware != nil && c.middleware.LineFeed != nil {
		c.middleware.LineFeed(c.lineFeedInternal)
		return
	}
	c.lineFeedInternal()
}

func (c *Console) lineFeedInternal() {
	defer c.lockCells()()

	c.scrollAsRequired()
	c.cursor.Col = 0
	c.cursor.Row++
}

// Tab moves the cursor right to the next n multiples of 8, stopping at the last column.
func (c *Console) Tab(n int) {
	if c.middleware != nil && c.middleware.Tab != nil {
		c.middleware.Tab(n, c.tabInternal)
		return
	}
	c.tabInternal(n)
}

func (c *Console) tabInternal(n int) {
	defer c.lockCells()()

	c.scrollAsRequired()
	for i := 0; i < max(n, 1); i++ {
		c.cursor.Col = min((c.cursor.Col/tabWidth+1)*tabWidth, c.cols-1)
	}
}

// ClearLine erases part of the current row: right of the cursor (inclusive), left of it (inclusive) or all.
// The cursor does not move.
func (c *Console) ClearLine(mode ansicode.LineClearMode) {
	if c.middleware != nil && c.middleware.ClearLine != nil {
		c.middleware.ClearLine(mode, c.clearLineInternal)
		return
	}
	c.clearLineInternal(mode)
}

func (c *Console) clearLineInternal(mode ansicode.LineClearMode) {
	defer c.lockCells()()

	row := c.cursor.Row
	if row >= c.rows {
		return
	}

	switch mode {
	case ansicode.LineClearModeRight:
		c.fb.ClearRange(row, c.cursor.Col, c.cols)
	case ansicode.LineClearModeLeft:
		c.fb.ClearRange(row, 0, c.cursor.Col+1)
	case ansicode.LineClearModeAll:
		c.fb.ClearRow(row)
	}
}

// ClearScreen erases from the cursor to the end, from the start to the cursor, or the whole screen.
// The cursor does not move.
func (c *Console) ClearScreen(mode ansicode.ClearMode) {
	if c.middleware != nil && c.middleware.ClearScreen != nil {
		c.middleware.ClearScreen(mode, c.clearScreenInternal)
		return
	}
	c.clearScreenInternal(mode)
}

func (c *Console) clearScreenInternal(mode ansicode.ClearMode) {
	defer c.lockCells()()

	row, col := c.cursor.Row, c.cursor.Col

	switch mode {
	case ansicode.ClearModeBelow:
		if row < c.rows {
			c.fb.ClearRange(row, col, c.cols)
		}
		for r := row + 1; r < c.rows; r++ {
			c.fb.ClearRow(r)
		}
	case ansicode.ClearModeAbove:
		for r := 0; r < row && r < c.rows; r++ {
			c.fb.ClearRow(r)
		}
		if row < c.rows {
			c.fb.ClearRange(row, 0, col+1)
		}
	case ansicode.ClearModeAll:
		c.fb.Fill(' ', DefaultAttr)
	case ansicode.ClearModeSaved:
		// No scrollback to clear
	}
}

// Goto moves the cursor to (row, col), clamped to the screen.
func (c *Console) Goto(row, col int) {
	if c.middleware != nil && c.middleware.Goto != nil {
		c.middleware.Goto(row, col, c.gotoInternal)
		return
	}
	c.gotoInternal(row, col)
}

func (c *Console) gotoInternal(row, col int) {
	defer c.lockCells()()

	c.cursor.Row = clamp(row, 0, c.rows-1)
	c.cursor.Col = clamp(col, 0, c.cols-1)
}

// GotoLine moves the cursor to the given row, keeping the column.
func (c *Console) GotoLine(row int) {
	if c.middleware != nil && c.middleware.GotoLine != nil {
		c.middleware.GotoLine(row, c.gotoLineInternal)
		return
	}
	c.gotoLineInternal(row)
}

func (c *Console) gotoLineInternal(row int) {
	defer c.lockCells()()

	c.cursor.Row = clamp(row, 0, c.rows-1)
}

// GotoCol moves the cursor to the given column, keeping the row.
func (c *Console) GotoCol(col int) {
	if c.middleware != nil && c.middleware.GotoCol != nil {
		c.middleware.GotoCol(col, c.gotoColInternal)
		return
	}
	c.gotoColInternal(col)
}

func (c *Console) gotoColInternal(col int) {
	defer c.lockCells()()

	c.cursor.Col = clamp(col, 0, c.cols-1)
}

// MoveUp moves the cursor up max(n,1) rows, stopping at the top.
func (c *Console) MoveUp(n int) {
	if c.middleware != nil && c.middleware.MoveUp != nil {
		c.middleware.MoveUp(n, c.moveUpInternal)
		return
	}
	c.moveUpInternal(n)
}

func (c *Console) moveUpInternal(n int) {
	defer c.lockCells()()

	c.cursor.Row = clamp(c.cursor.Row-max(n, 1), 0, c.rows-1)
}

// MoveDown moves the cursor down max(n,1) rows, stopping at the bottom.
func (c *Console) MoveDown(n int) {
	if c.middleware != nil && c.middleware.MoveDown != nil {
		c.middleware.MoveDown(n, c.moveDownInternal)
		return
	}
	c.moveDownInternal(n)
}

func (c *Console) moveDownInternal(n int) {
	defer c.lockCells()()

	c.cursor.Row = clamp(c.cursor.Row+max(n, 1), 0, c.rows-1)
}

// MoveForward moves the cursor right max(n,1) columns, stopping at the last column.
func (c *Console) MoveForward(n int) {
	if c.middleware != nil && c.middleware.MoveForward != nil {
		c.middleware.MoveForward(n, c.moveForwardInternal)
		return
	}
	c.moveForwardInternal(n)
}

func (c *Console) moveForwardInternal(n int) {
	defer c.lockCells()()

	c.cursor.Col = clamp(c.cursor.Col+max(n, 1), 0, c.cols-1)
}

// MoveBackward moves the cursor left max(n,1) columns, stopping at column 0.
func (c *Console) MoveBackward(n int) {
	if c.middleware != nil && c.middleware.MoveBackward != nil {
		c.middleware.MoveBackward(n, c.moveBackwardInternal)
		return
	}
	c.moveBackwardInternal(n)
}

func (c *Console) moveBackwardInternal(n int) {
	defer c.lockCells()()

	c.cursor.Col = clamp(c.cursor.Col-max(n, 1), 0, c.cols-1)
}

// MoveUpCr moves the cursor up and to column 0 (CSI F).
// go-ansicode passes one less than the parameter, so n+1 is the row count.
func (c *Console) MoveUpCr(n int) {
	count := lineCount(n)
	if c.middleware != nil && c.middleware.MoveUpCr != nil {
		c.middleware.MoveUpCr(count, c.moveUpCrInternal)
		return
	}
	c.moveUpCrInternal(count)
}

func (c *Console) moveUpCrInternal(n int) {
	defer c.lockCells()()

	c.cursor.Row = clamp(c.cursor.Row-max(n, 1), 0, c.rows-1)
	c.cursor.Col = 0
}

// MoveDownCr moves the cursor down and to column 0 (CSI E).
// n follows the same convention as MoveUpCr.
func (c *Console) MoveDownCr(n int) {
	count := lineCount(n)
	if c.middleware != nil && c.middleware.MoveDownCr != nil {
		c.middleware.MoveDownCr(count, c.moveDownCrInternal)
		return
	}
	c.moveDownCrInternal(count)
}

func (c *Console) moveDownCrInternal(n int) {
	defer c.lockCells()()

	c.cursor.Row = clamp(c.cursor.Row+max(n, 1), 0, c.rows-1)
	c.cursor.Col = 0
}

// lineCount recovers the CSI E/F row count from the value go-ansicode reports.
// A zero parameter underflows to 65535 there and counts as one row.
func lineCount(n int) int {
	if n < 0 || n >= math.MaxUint16 {
		return 1
	}
	return n + 1
}

// MoveForwardTabs advances n tab stops (CSI I).
func (c *Console) MoveForwardTabs(n int) {
	c.Tab(n)
}

// MoveBackwardTabs moves back n tab stops (CSI Z).
func (c *Console) MoveBackwardTabs(n int) {
	defer c.lockCells()()

	for i := 0; i < max(n, 1) && c.cursor.Col > 0; i++ {
		c.cursor.Col = (c.cursor.Col - 1) / tabWidth * tabWidth
	}
}

// EraseChars blanks n cells from the cursor without moving anything (CSI X).
func (c *Console) EraseChars(n int) {
	if c.middleware != nil && c.middleware.EraseChars != nil {
		c.middleware.EraseChars(n, c.eraseCharsInternal)
		return
	}
	c.eraseCharsInternal(n)
}

func (c *Console) eraseCharsInternal(n int) {
	defer c.lockCells()()

	if c.cursor.Row < c.rows {
		c.fb.ClearRange(c.cursor.Row, c.cursor.Col, c.cursor.Col+max(n, 1))
	}
}

// ScrollUp scrolls the page up n rows (CSI S). The cursor does not move.
func (c *Console) ScrollUp(n int) {
	if c.middleware != nil && c.middleware.ScrollUp != nil {
		c.middleware.ScrollUp(n, c.scrollUpInternal)
		return
	}
	c.scrollUpInternal(n)
}

func (c *Console) scrollUpInternal(n int) {
	defer c.lockCells()()

	for i := 0; i < min(max(n, 1), c.rows); i++ {
		c.fb.ScrollPage()
	}
}

// SetTerminalCharAttribute applies one SGR parameter.
// Colours set the stored attribute; bold and reverse are modifiers kept alongside it.
func (c *Console) SetTerminalCharAttribute(attr ansicode.TerminalCharAttribute) {
	if c.middleware != nil && c.middleware.SetTerminalCharAttribute != nil {
		c.middleware.SetTerminalCharAttribute(attr, c.setTerminalCharAttributeInternal)
		return
	}
	c.setTerminalCharAttributeInternal(attr)
}

func (c *Console) setTerminalCharAttributeInternal(attr ansicode.TerminalCharAttribute) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch attr.Attr {
	case ansicode.CharAttributeReset:
		c.attr = DefaultAttr
		c.bright = false
		c.reverse = false

	case ansicode.CharAttributeBold:
		c.bright = true

	case ansicode.CharAttributeReverse:
		c.reverse = true

	case ansicode.CharAttributeCancelBold, ansicode.CharAttributeCancelBoldDim:
		c.bright = false

	case ansicode.CharAttributeCancelReverse:
		c.reverse = false

	case ansicode.CharAttributeForeground:
		if col, ok := resolveColor(attr); ok {
			c.attr = c.attr.WithForeground(col)
		}

	case ansicode.CharAttributeBackground:
		if col, ok := resolveColor(attr); ok {
			c.attr = c.attr.WithBackground(col)
		}
	}
}

// resolveColor maps an SGR colour to a VGA colour.
// Only the 16 ANSI colours and the two defaults are representable; anything else is ignored.
func resolveColor(attr ansicode.TerminalCharAttribute) (Color, bool) {
	if attr.NamedColor != nil {
		n := int(*attr.NamedColor)
		switch {
		case n >= 0 && n < 16:
			return ansiToVGA[n], true
		case n == int(ansicode.NamedColorForeground), n == int(ansicode.NamedColorBackground):
			return ColorLightGray, true
		}
		return 0, false
	}

	if attr.IndexedColor != nil {
		idx := int(attr.IndexedColor.Index)
		if idx < 16 {
			return ansiToVGA[idx], true
		}
	}

	return 0, false
}

// SetMode enables a DEC private mode. Only cursor visibility (?25) is supported.
func (c *Console) SetMode(mode ansicode.TerminalMode) {
	if c.middleware != nil && c.middleware.SetMode != nil {
		c.middleware.SetMode(mode, c.setModeInternal)
		return
	}
	c.setModeInternal(mode)
}

func (c *Console) setModeInternal(mode ansicode.TerminalMode) {
	defer c.lockCells()()

	if mode == ansicode.TerminalModeShowCursor {
		c.cursor.Wanted = true
	}
}

// UnsetMode disables a DEC private mode. Only cursor visibility (?25) is supported.
func (c *Console) UnsetMode(mode ansicode.TerminalMode) {
	if c.middleware != nil && c.middleware.UnsetMode != nil {
		c.middleware.UnsetMode(mode, c.unsetModeInternal)
		return
	}
	c.unsetModeInternal(mode)
}

func (c *Console) unsetModeInternal(mode ansicode.TerminalMode) {
	defer c.lockCells()()

	if mode == ansicode.TerminalModeShowCursor {
		c.cursor.Wanted = false
	}
}

// DeviceStatus answers a device status report: ready (n=5) or cursor position (n=6).
// Nothing is sent unless a response provider is configured.
func (c *Console) DeviceStatus(n int) {
	if c.middleware != nil && c.middleware.DeviceStatus != nil {
		c.middleware.DeviceStatus(n, c.deviceStatusInternal)
		return
	}
	c.deviceStatusInternal(n)
}

func (c *Console) deviceStatusInternal(n int) {
	c.mu.RLock()
	row := min(c.cursor.Row, c.rows-1)
	col := min(c.cursor.Col, c.cols-1)
	c.mu.RUnlock()

	var response string
	switch n {
	case 5:
		response = "\x1b[0n"
	case 6:
		// Cursor position report (1-based)
		response = fmt.Sprintf("\x1b[%d;%dR", row+1, col+1)
	}

	if response != "" {
		c.writeResponseString(response)
	}
}

// SaveCursorPosition stores the cursor position and SGR state (ESC 7, CSI s).
func (c *Console) SaveCursorPosition() {
	if c.middleware != nil && c.middleware.SaveCursorPosition != nil {
		c.middleware.SaveCursorPosition(c.saveCursorPositionInternal)
		return
	}
	c.saveCursorPositionInternal()
}

func (c *Console) saveCursorPositionInternal() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.saved = savedState{
		row:     c.cursor.Row,
		col:     c.cursor.Col,
		attr:    c.attr,
		bright:  c.bright,
		reverse: c.reverse,
	}
}

// RestoreCursorPosition returns to the state saved by SaveCursorPosition (ESC 8, CSI u).
func (c *Console) RestoreCursorPosition() {
	if c.middleware != nil && c.middleware.RestoreCursorPosition != nil {
		c.middleware.RestoreCursorPosition(c.restoreCursorPositionInternal)
		return
	}
	c.restoreCursorPositionInternal()
}

func (c *Console) restoreCursorPositionInternal() {
	defer c.lockCells()()

	c.cursor.Row = clamp(c.saved.row, 0, c.rows-1)
	c.cursor.Col = clamp(c.saved.col, 0, c.cols-1)
	c.attr = c.saved.attr
	c.bright = c.saved.bright
	c.reverse = c.saved.reverse
}

// ResetState performs a full reset (ESC c): default attribute, hidden cursor, cleared screen.
func (c *Console) ResetState() {
	if c.middleware != nil && c.middleware.ResetState != nil {
		c.middleware.ResetState(c.resetStateInternal)
		return
	}
	c.resetStateInternal()
}

func (c *Console) resetStateInternal() {
	defer c.lockCells()()

	c.attr = DefaultAttr
	c.bright = false
	c.reverse = false
	c.cursor.Wanted = false
	c.saved = savedState{attr: DefaultAttr}
	c.clearLocked()
}

// Decaln fills the screen with 'E' for alignment testing (ESC # 8).
func (c *Console) Decaln() {
	defer c.lockCells()()

	c.fb.Fill('E', DefaultAttr)
}

// TextAreaSizeChars reports the console size in characters (CSI 18 t).
func (c *Console) TextAreaSizeChars() {
	c.mu.RLock()
	rows, cols := c.rows, c.cols
	c.mu.RUnlock()

	c.writeResponseString(fmt.Sprintf("\x1b[8;%d;%dt", rows, cols))
}

// TextAreaSizePixels reports the console size in pixels assuming the 8x16 VGA font (CSI 14 t).
func (c *Console) TextAreaSizePixels() {
	c.mu.RLock()
	rows, cols := c.rows, c.cols
	c.mu.RUnlock()

	c.writeResponseString(fmt.Sprintf("\x1b[4;%d;%dt", rows*16, cols*8))
}

// CellSizePixels reports the 8x16 VGA cell size (CSI 16 t).
func (c *Console) CellSizePixels() {
	c.writeResponseString("\x1b[6;16;8t")
}

// The remaining sequences have no meaning on a VGA text console and are ignored.

func (c *Console) ApplicationCommandReceived(data []byte)                                             {}
func (c *Console) ClearTabs(mode ansicode.TabulationClearMode)                                        {}
func (c *Console) ClipboardLoad(clipboard byte, terminator string)                                    {}
func (c *Console) ClipboardStore(clipboard byte, data []byte)                                         {}
func (c *Console) ConfigureCharset(index ansicode.CharsetIndex, charset ansicode.Charset)             {}
func (c *Console) DeleteChars(n int)                                                                  {}
func (c *Console) DeleteLines(n int)                                                                  {}
func (c *Console) DesktopNotification(payload *ansicode.NotificationPayload)                          {}
func (c *Console) HorizontalTabSet()                                                                  {}
func (c *Console) IdentifyTerminal(b byte)                                                            {}
func (c *Console) InsertBlank(n int)                                                                  {}
func (c *Console) InsertBlankLines(n int)                                                             {}
func (c *Console) PopKeyboardMode(n int)                                                              {}
func (c *Console) PopTitle()                                                                          {}
func (c *Console) PrivacyMessageReceived(data []byte)                                                 {}
func (c *Console) PushKeyboardMode(mode ansicode.KeyboardMode)                                        {}
func (c *Console) PushTitle()                                                                         {}
func (c *Console) ReportKeyboardMode()                                                                {}
func (c *Console) ReportModifyOtherKeys()                                                             {}
func (c *Console) ResetColor(i int)                                                                   {}
func (c *Console) ReverseIndex()                                                                      {}
func (c *Console) ScrollDown(n int)                                                                   {}
func (c *Console) SetActiveCharset(n int)                                                             {}
func (c *Console) SetColor(index int, col color.Color)                                                {}
func (c *Console) SetCursorStyle(style ansicode.CursorStyle)                                          {}
func (c *Console) SetDynamicColor(prefix string, index int, terminator string)                        {}
func (c *Console) SetHyperlink(hyperlink *ansicode.Hyperlink)                                         {}
func (c *Console) SetKeyboardMode(mode ansicode.KeyboardMode, behavior ansicode.KeyboardModeBehavior) {}
func (c *Console) SetKeypadApplicationMode()                                                          {}
func (c *Console) SetModifyOtherKeys(modify ansicode.ModifyOtherKeys)                                 {}
func (c *Console) SetScrollingRegion(top, bottom int)                                                 {}
func (c *Console) SetTitle(title string)                                                              {}
func (c *Console) SetUserVar(name, value string)                                                      {}
func (c *Console) SetWorkingDirectory(uri string)                                                     {}
func (c *Console) ShellIntegrationMark(mark ansicode.ShellIntegrationMark, exitCode int)              {}
func (c *Console) SixelReceived(params [][]uint16, data []byte)                                       {}
func (c *Console) StartOfStringReceived(data []byte)                                                  {}
func (c *Console) Substitute()                                                                        {}
func (c *Console) UnsetKeypadApplicationMode()                                                        {}
