package vgaconsole

// Color is one of the 16 VGA text-mode colours.
// Values 0-7 are valid as both foreground and background; 8-15 are foreground only.
type Color uint8

const (
	ColorBlack Color = iota
	ColorBlue
	ColorGreen
	ColorCyan
	ColorRed
	ColorMagenta
	ColorBrown
	ColorLightGray
	ColorDarkGray
	ColorLightBlue
	ColorLightGreen
	ColorLightCyan
	ColorLightRed
	ColorPink
	ColorYellow
	ColorWhite
)

var colorNames = [16]string{
	"black", "blue", "green", "cyan", "red", "magenta", "brown", "light gray",
	"dark gray", "light blue", "light green", "light cyan", "light red", "pink", "yellow", "white",
}

// String returns the colour name.
func (c Color) String() string {
	return colorNames[c&0x0F]
}

// brightSibling maps each base colour to the colour SGR 1 (bold) promotes it to.
// Colours that are already bright map to themselves.
var brightSibling = [16]Color{
	ColorBlack:     ColorDarkGray,
	ColorBlue:      ColorLightBlue,
	ColorGreen:     ColorLightGreen,
	ColorCyan:      ColorLightCyan,
	ColorRed:       ColorLightRed,
	ColorMagenta:   ColorPink,
	ColorBrown:     ColorYellow,
	ColorLightGray: ColorWhite,

	ColorDarkGray:   ColorDarkGray,
	ColorLightBlue:  ColorLightBlue,
	ColorLightGreen: ColorLightGreen,
	ColorLightCyan:  ColorLightCyan,
	ColorLightRed:   ColorLightRed,
	ColorPink:       ColorPink,
	ColorYellow:     ColorYellow,
	ColorWhite:      ColorWhite,
}

// Brighten returns the bright sibling of c.
func Brighten(c Color) Color {
	return brightSibling[c&0x0F]
}

// ansiToVGA converts ANSI colour order (black, red, green, yellow, blue, magenta, cyan, white)
// into VGA colour order. Indices 8-15 are the bright ANSI colours.
var ansiToVGA = [16]Color{
	ColorBlack, ColorRed, ColorGreen, ColorBrown, ColorBlue, ColorMagenta, ColorCyan, ColorLightGray,
	ColorDarkGray, ColorLightRed, ColorLightGreen, ColorYellow, ColorLightBlue, ColorPink, ColorLightCyan, ColorWhite,
}

// Attr is a packed VGA attribute byte:
// bits 0-3 foreground, bits 4-6 background, bit 7 blink (reserved).
type Attr uint8

const (
	attrFgMask    Attr = 0x0F
	attrBgMask    Attr = 0x70
	attrBlinkMask Attr = 0x80
)

// DefaultAttr is light gray text on a black background.
var DefaultAttr = NewAttr(ColorLightGray, ColorBlack)

// NewAttr packs a foreground and background colour.
// The background is truncated to the eight colours the hardware can show.
func NewAttr(fg, bg Color) Attr {
	return Attr(fg&0x0F) | Attr(bg&0x07)<<4
}

// Foreground returns the foreground colour.
func (a Attr) Foreground() Color {
	return Color(a & attrFgMask)
}

// Background returns the background colour (0-7).
func (a Attr) Background() Color {
	return Color((a & attrBgMask) >> 4)
}

// Blink returns true if the blink/reserved bit is set.
func (a Attr) Blink() bool {
	return a&attrBlinkMask != 0
}

// WithForeground returns a copy of a with the foreground replaced.
func (a Attr) WithForeground(c Color) Attr {
	return a&^attrFgMask | Attr(c&0x0F)
}

// WithBackground returns a copy of a with the background replaced.
func (a Attr) WithBackground(c Color) Attr {
	return a&^attrBgMask | Attr(c&0x07)<<4
}

// WithBlink returns a copy of a with the blink bit set or cleared.
func (a Attr) WithBlink(on bool) Attr {
	if on {
		return a | attrBlinkMask
	}
	return a &^ attrBlinkMask
}

// Swapped returns the reverse-video form of a: foreground and background exchanged.
// The old foreground loses its intensity bit because the background slot only holds 3 bits.
func (a Attr) Swapped() Attr {
	return NewAttr(a.Background(), a.Foreground()).WithBlink(a.Blink())
}

// Brightened returns a with its foreground promoted to the bright sibling.
func (a Attr) Brightened() Attr {
	return a.WithForeground(Brighten(a.Foreground()))
}
