package main

import (
	"github.com/gdamore/tcell/v2"
	"github.com/unilibs/uniwidth"

	vgaconsole "github.com/neotron-os/go-neotron"
	"github.com/neotron-os/go-neotron/program"
)

// Display paints the console onto a tcell screen and feeds key presses
// into the keyboard queue.
type Display struct {
	screen  tcell.Screen
	console *vgaconsole.Console
	input   *program.InputQueue
}

// NewDisplay creates a display. The screen must already be initialised.
func NewDisplay(screen tcell.Screen, console *vgaconsole.Console, input *program.InputQueue) *Display {
	return &Display{screen: screen, console: console, input: input}
}

// Draw copies every cell of the console to the screen and shows it.
func (d *Display) Draw() {
	rows, cols := d.console.Rows(), d.console.Cols()
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cell := d.console.Cell(row, col)
			if cell == nil {
				continue
			}
			d.screen.SetContent(col, row, screenRune(cell.Rune()), nil, attrStyle(cell.Attr))
		}
	}

	if d.console.CursorDrawn() {
		row, col := d.console.CursorPos()
		d.screen.ShowCursor(col, row)
	} else {
		d.screen.HideCursor()
	}
	d.screen.Show()
}

// screenRune keeps the host grid aligned with the console: every cell must
// occupy exactly one terminal column. The soft hyphen is drawn as the VGA font
// draws it; other zero or double width runes become spaces.
func screenRune(r rune) rune {
	if uniwidth.RuneWidth(r) == 1 {
		return r
	}
	if r == '\u00ad' {
		return '-'
	}
	return ' '
}

// HandleEvent queues the bytes for a key event. It returns false for Ctrl-Q,
// which ends the session.
func (d *Display) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyCtrlQ {
			return false
		}
		d.input.PushString(keyBytes(ev))
	case *tcell.EventResize:
		d.screen.Sync()
	}
	return true
}

func keyBytes(ev *tcell.EventKey) string {
	switch ev.Key() {
	case tcell.KeyRune:
		return string([]byte{vgaconsole.Glyph(ev.Rune())})
	case tcell.KeyEnter:
		return "\r"
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return "\b"
	case tcell.KeyTab:
		return "\t"
	case tcell.KeyEscape:
		return "\x1b"
	case tcell.KeyUp:
		return "\x1b[A"
	case tcell.KeyDown:
		return "\x1b[B"
	case tcell.KeyRight:
		return "\x1b[C"
	case tcell.KeyLeft:
		return "\x1b[D"
	}
	if k := ev.Key(); k < 0x20 {
		return string(rune(k))
	}
	return ""
}

// palette maps VGA colours to the nearest tcell colour, so terminals without
// true colour still look right.
var palette = [16]tcell.Color{
	tcell.ColorBlack, tcell.ColorNavy, tcell.ColorGreen, tcell.ColorTeal,
	tcell.ColorMaroon, tcell.ColorPurple, tcell.ColorOlive, tcell.ColorSilver,
	tcell.ColorGray, tcell.ColorBlue, tcell.ColorLime, tcell.ColorAqua,
	tcell.ColorRed, tcell.ColorFuchsia, tcell.ColorYellow, tcell.ColorWhite,
}

func attrStyle(a vgaconsole.Attr) tcell.Style {
	return tcell.StyleDefault.
		Foreground(palette[a.Foreground()&0x0F]).
		Background(palette[a.Background()&0x0F]).
		Blink(a.Blink())
}
