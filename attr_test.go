package vgaconsole

import (
	"testing"
)

func TestNewAttr(t *testing.T) {
	a := NewAttr(ColorYellow, ColorBlue)

	if a.Foreground() != ColorYellow {
		t.Errorf("expected yellow, got %s", a.Foreground())
	}
	if a.Background() != ColorBlue {
		t.Errorf("expected blue, got %s", a.Background())
	}
	if a.Blink() {
		t.Error("expected blink clear")
	}
	if byte(a) != 0x1E {
		t.Errorf("expected 0x1e, got %#02x", byte(a))
	}
}

func TestDefaultAttr(t *testing.T) {
	if byte(DefaultAttr) != 0x07 {
		t.Errorf("expected 0x07, got %#02x", byte(DefaultAttr))
	}
}

func TestAttrBackgroundTruncated(t *testing.T) {
	a := NewAttr(ColorWhite, ColorLightRed)

	if a.Background() != ColorRed {
		t.Errorf("expected red, got %s", a.Background())
	}
	if a.Blink() {
		t.Error("expected bright background not to spill into the blink bit")
	}
}

func TestAttrWith(t *testing.T) {
	a := DefaultAttr.WithForeground(ColorPink).WithBackground(ColorCyan).WithBlink(true)

	if a.Foreground() != ColorPink {
		t.Errorf("expected pink, got %s", a.Foreground())
	}
	if a.Background() != ColorCyan {
		t.Errorf("expected cyan, got %s", a.Background())
	}
	if !a.Blink() {
		t.Error("expected blink set")
	}

	a = a.WithBlink(false)
	if a.Blink() {
		t.Error("expected blink cleared")
	}
}

func TestAttrSwapped(t *testing.T) {
	a := NewAttr(ColorLightGreen, ColorBlue).WithBlink(true)
	s := a.Swapped()

	if s.Foreground() != ColorBlue {
		t.Errorf("expected blue foreground, got %s", s.Foreground())
	}
	if s.Background() != ColorGreen {
		t.Errorf("expected green background (intensity dropped), got %s", s.Background())
	}
	if !s.Blink() {
		t.Error("expected blink preserved")
	}
}

func TestBrighten(t *testing.T) {
	tests := []struct {
		in       Color
		expected Color
	}{
		{ColorBlack, ColorDarkGray},
		{ColorRed, ColorLightRed},
		{ColorGreen, ColorLightGreen},
		{ColorBrown, ColorYellow},
		{ColorBlue, ColorLightBlue},
		{ColorMagenta, ColorPink},
		{ColorCyan, ColorLightCyan},
		{ColorLightGray, ColorWhite},
		{ColorDarkGray, ColorDarkGray},
		{ColorYellow, ColorYellow},
		{ColorWhite, ColorWhite},
	}

	for _, tt := range tests {
		if got := Brighten(tt.in); got != tt.expected {
			t.Errorf("Brighten(%s) = %s, want %s", tt.in, got, tt.expected)
		}
	}
}

func TestAttrBrightened(t *testing.T) {
	a := NewAttr(ColorRed, ColorBlue).Brightened()

	if a != NewAttr(ColorLightRed, ColorBlue) {
		t.Errorf("expected light red on blue, got %#02x", byte(a))
	}
}

func TestColorRGBA(t *testing.T) {
	if ColorBrown.RGBA() != Palette[6] {
		t.Errorf("expected palette entry 6, got %v", ColorBrown.RGBA())
	}
	if ColorWhite.String() != "white" {
		t.Errorf("expected 'white', got '%s'", ColorWhite.String())
	}
}
