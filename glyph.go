package vgaconsole

import (
	"golang.org/x/text/encoding/charmap"
)

// UnknownGlyph is drawn for any rune the code page cannot represent.
const UnknownGlyph = '?'

// Glyph maps a Unicode scalar value to its code page 850 glyph index.
// ASCII maps to itself. Latin-1 letters, box drawing and block elements map
// through the code page table. Everything else maps to UnknownGlyph.
func Glyph(r rune) byte {
	if r >= 0 && r < 0x80 {
		return byte(r)
	}
	if b, ok := charmap.CodePage850.EncodeRune(r); ok {
		return b
	}
	return UnknownGlyph
}

// GlyphRune returns the Unicode rune drawn by glyph index b.
func GlyphRune(b byte) rune {
	return charmap.CodePage850.DecodeByte(b)
}
