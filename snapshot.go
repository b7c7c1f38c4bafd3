package vgaconsole

import (
	"fmt"
)

// SnapshotDetail specifies the level of detail in a snapshot.
type SnapshotDetail string

const (
	// SnapshotDetailText returns plain text only.
	SnapshotDetailText SnapshotDetail = "text"
	// SnapshotDetailStyled returns text with colour segments per line.
	SnapshotDetailStyled SnapshotDetail = "styled"
	// SnapshotDetailFull returns full cell-by-cell data.
	SnapshotDetailFull SnapshotDetail = "full"
)

// Snapshot is a capture of the logical screen, suitable for JSON encoding.
type Snapshot struct {
	Mode   string         `json:"mode"`
	Size   SnapshotSize   `json:"size"`
	Cursor SnapshotCursor `json:"cursor"`
	Lines  []SnapshotLine `json:"lines"`
}

// SnapshotSize holds the console geometry.
type SnapshotSize struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// SnapshotCursor holds cursor state.
type SnapshotCursor struct {
	Row     int  `json:"row"`
	Col     int  `json:"col"`
	Visible bool `json:"visible"`
}

// SnapshotLine represents a single row in the snapshot.
type SnapshotLine struct {
	Text     string            `json:"text"`
	Segments []SnapshotSegment `json:"segments,omitempty"`
	Cells    []SnapshotCell    `json:"cells,omitempty"`
}

// SnapshotSegment is a run of cells sharing one attribute.
type SnapshotSegment struct {
	Text  string `json:"text"`
	Fg    string `json:"fg"`
	Bg    string `json:"bg"`
	Blink bool   `json:"blink,omitempty"`
}

// SnapshotCell represents a single cell with its raw glyph and attribute.
type SnapshotCell struct {
	Char  string `json:"char"`
	Glyph byte   `json:"glyph"`
	Attr  byte   `json:"attr"`
	Fg    string `json:"fg"`
	Bg    string `json:"bg"`
}

// Snapshot captures the screen at the requested level of detail.
// Cells under the cursor overlay report the glyph the program wrote, not '_'.
func (c *Console) Snapshot(detail SnapshotDetail) *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := &Snapshot{
		Mode: TextMode{Rows: c.rows, Cols: c.cols}.String(),
		Size: SnapshotSize{Rows: c.rows, Cols: c.cols},
		Cursor: SnapshotCursor{
			Row:     c.cursor.Row,
			Col:     c.cursor.Col,
			Visible: c.cursor.Wanted,
		},
		Lines: make([]SnapshotLine, c.rows),
	}

	for row := 0; row < c.rows; row++ {
		snap.Lines[row] = c.snapshotLine(row, detail)
	}

	return snap
}

func (c *Console) snapshotLine(row int, detail SnapshotDetail) SnapshotLine {
	line := SnapshotLine{
		Text: c.lineContentLocked(row),
	}

	switch detail {
	case SnapshotDetailStyled:
		line.Segments = c.lineToSegments(row)
	case SnapshotDetailFull:
		line.Cells = c.lineToCells(row)
	}

	return line
}

// lineToSegments groups a row into runs of the same attribute byte.
func (c *Console) lineToSegments(row int) []SnapshotSegment {
	var segments []SnapshotSegment
	var chars []rune
	var current Attr

	flush := func() {
		if len(chars) == 0 {
			return
		}
		segments = append(segments, SnapshotSegment{
			Text:  string(chars),
			Fg:    colorToHex(current.Foreground()),
			Bg:    colorToHex(current.Background()),
			Blink: current.Blink(),
		})
		chars = nil
	}

	for col := 0; col < c.cols; col++ {
		cell := c.cellLocked(row, col)
		if len(chars) > 0 && cell.Attr != current {
			flush()
		}
		current = cell.Attr
		chars = append(chars, cell.Rune())
	}
	flush()

	return segments
}

func (c *Console) lineToCells(row int) []SnapshotCell {
	cells := make([]SnapshotCell, 0, c.cols)
	for col := 0; col < c.cols; col++ {
		cell := c.cellLocked(row, col)
		cells = append(cells, SnapshotCell{
			Char:  string(cell.Rune()),
			Glyph: cell.Glyph,
			Attr:  byte(cell.Attr),
			Fg:    colorToHex(cell.Attr.Foreground()),
			Bg:    colorToHex(cell.Attr.Background()),
		})
	}
	return cells
}

// colorToHex converts a VGA colour to a #rrggbb string using the default palette.
func colorToHex(c Color) string {
	rgba := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B)
}
