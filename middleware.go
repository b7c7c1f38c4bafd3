package vgaconsole

import (
	"github.com/danielgatis/go-ansicode"
)

// Middleware wraps the console's handlers. A hook receives the decoded
// parameters and next, the built-in behavior; it may alter the parameters,
// call next more than once, or not call it at all. Nil hooks fall through.
type Middleware struct {
	// Printable runes, before CP850 translation.
	Input func(r rune, next func(rune))

	// C0 controls.
	Bell           func(next func())
	Backspace      func(next func())
	CarriageReturn func(next func())
	LineFeed       func(next func())
	Tab            func(n int, next func(int))

	// Erase (CSI J, CSI K, CSI X).
	ClearLine   func(mode ansicode.LineClearMode, next func(ansicode.LineClearMode))
	ClearScreen func(mode ansicode.ClearMode, next func(ansicode.ClearMode))
	EraseChars  func(n int, next func(int))

	// Cursor motion. Positions are zero-based. Counts arrive as written, so 0 still
	// means 1, except MoveUpCr and MoveDownCr which always get the row count.
	Goto         func(row, col int, next func(int, int))
	GotoLine     func(row int, next func(int))
	GotoCol      func(col int, next func(int))
	MoveUp       func(n int, next func(int))
	MoveDown     func(n int, next func(int))
	MoveForward  func(n int, next func(int))
	MoveBackward func(n int, next func(int))
	MoveUpCr     func(n int, next func(int))
	MoveDownCr   func(n int, next func(int))

	ScrollUp func(n int, next func(int))

	// SGR.
	SetTerminalCharAttribute func(attr ansicode.TerminalCharAttribute, next func(ansicode.TerminalCharAttribute))

	// DEC private modes; only cursor visibility has an effect.
	SetMode   func(mode ansicode.TerminalMode, next func(ansicode.TerminalMode))
	UnsetMode func(mode ansicode.TerminalMode, next func(ansicode.TerminalMode))

	// CSI n. The default replies only through a response provider.
	DeviceStatus func(n int, next func(int))

	SaveCursorPosition    func(next func())
	RestoreCursorPosition func(next func())

	// ESC c.
	ResetState func(next func())
}

// Merge sets every hook that is non-nil in other, keeping the rest of m.
func (m *Middleware) Merge(other *Middleware) {
	if other == nil {
		return
	}

	if other.Input != nil {
		m.Input = other.Input
	}
	if other.Bell != nil {
		m.Bell = other.Bell
	}
	if other.Backspace != nil {
		m.Backspace = other.Backspace
	}
	if other.CarriageReturn != nil {
		m.CarriageReturn = other.CarriageReturn
	}
	if other.LineFeed != nil {
		m.LineFeed = other.LineFeed
	}
	if other.Tab != nil {
		m.Tab = other.Tab
	}
	if other.ClearLine != nil {
		m.ClearLine = other.ClearLine
	}
	if other.ClearScreen != nil {
		m.ClearScreen = other.ClearScreen
	}
	if other.Goto != nil {
		m.Goto = other.Goto
	}
	if other.GotoLine != nil {
		m.GotoLine = other.GotoLine
	}
	if other.GotoCol != nil {
		m.GotoCol = other.GotoCol
	}
	if other.MoveUp != nil {
		m.MoveUp = other.MoveUp
	}
	if other.MoveDown != nil {
		m.MoveDown = other.MoveDown
	}
	if other.MoveForward != nil {
		m.MoveForward = other.MoveForward
	}
	if other.MoveBackward != nil {
		m.MoveBackward = other.MoveBackward
	}
	if other.MoveUpCr != nil {
		m.MoveUpCr = other.MoveUpCr
	}
	if other.MoveDownCr != nil {
		m.MoveDownCr = other.MoveDownCr
	}
	if other.EraseChars != nil {
		m.EraseChars = other.EraseChars
	}
	if other.ScrollUp != nil {
		m.ScrollUp = other.ScrollUp
	}
	if other.SetTerminalCharAttribute != nil {
		m.SetTerminalCharAttribute = other.SetTerminalCharAttribute
	}
	if other.SetMode != nil {
		m.SetMode = other.SetMode
	}
	if other.UnsetMode != nil {
		m.UnsetMode = other.UnsetMode
	}
	if other.DeviceStatus != nil {
		m.DeviceStatus = other.DeviceStatus
	}
	if other.SaveCursorPosition != nil {
		m.SaveCursorPosition = other.SaveCursorPosition
	}
	if other.RestoreCursorPosition != nil {
		m.RestoreCursorPosition = other.RestoreCursorPosition
	}
	if other.ResetState != nil {
		m.ResetState = other.ResetState
	}
}
