package vgaconsole

// Cell is one character position: a code page glyph and its VGA attribute.
type Cell struct {
	Glyph byte
	Attr  Attr
}

// BlankCell is a space in the default attribute.
var BlankCell = Cell{Glyph: ' ', Attr: DefaultAttr}

// Rune returns the Unicode rune the glyph is drawn as.
func (c Cell) Rune() rune {
	return GlyphRune(c.Glyph)
}

// IsBlank returns true if the cell shows a space in the default attribute.
func (c Cell) IsBlank() bool {
	return c == BlankCell
}
