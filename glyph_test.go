package vgaconsole

import (
	"testing"
)

func TestGlyph(t *testing.T) {
	tests := []struct {
		r        rune
		expected byte
	}{
		{'A', 'A'},
		{'z', 'z'},
		{' ', ' '},
		{'~', '~'},
		{'é', 0x82},
		{'£', 0x9C},
		{'│', 0xB3},
		{'┌', 0xDA},
		{'═', 0xCD},
		{'█', 0xDB},
		{'░', 0xB0},
		{'中', '?'},
		{'€', '?'},
		{0x1F600, '?'},
		{'\u00ad', 0xF0}, // soft hyphen
		{'\u0301', '?'},  // combining acute
	}

	for _, tt := range tests {
		got := Glyph(tt.r)
		if got != tt.expected {
			t.Errorf("Glyph(%q) = %#02x, want %#02x", tt.r, got, tt.expected)
		}
	}
}

func TestGlyphASCIIIdentity(t *testing.T) {
	for r := rune(0); r < 0x80; r++ {
		if got := Glyph(r); got != byte(r) {
			t.Errorf("expected %#02x, got %#02x", r, got)
		}
	}
}

func TestGlyphRuneRoundTrip(t *testing.T) {
	for b := 0x80; b <= 0xFF; b++ {
		r := GlyphRune(byte(b))
		if got := Glyph(r); got != byte(b) {
			t.Errorf("Glyph(GlyphRune(%#02x)) = %#02x", b, got)
		}
	}
}
