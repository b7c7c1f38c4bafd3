package vgaconsole

import (
	"image"
	"image/color"
	"io"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ScreenshotConfig controls how the console is rendered to an image.
type ScreenshotConfig struct {
	// Font face to use for rendering. If nil, uses basicfont.Face7x13.
	Font font.Face

	// CellWidth and CellHeight override the cell dimensions.
	// If zero, derived from font metrics.
	CellWidth  int
	CellHeight int

	// Palette maps the 16 VGA colours. If nil, uses Palette.
	Palette *[16]color.RGBA
}

// LoadFont loads a TrueType or OpenType font from a file path.
func LoadFont(path string, size float64) (font.Face, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadFontFromReader(f, size)
}

// LoadFontFromReader loads a TrueType or OpenType font from an io.Reader.
func LoadFontFromReader(r io.Reader, size float64) (font.Face, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return LoadFontFromBytes(data, size)
}

// LoadFontFromBytes loads a TrueType or OpenType font from raw bytes.
func LoadFontFromBytes(data []byte, size float64) (font.Face, error) {
	ft, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}

	return opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Screenshot renders the framebuffer to an RGBA image using basicfont and the VGA palette.
func (c *Console) Screenshot() *image.RGBA {
	return c.ScreenshotWithConfig(&ScreenshotConfig{})
}

// ScreenshotWithConfig renders the framebuffer exactly as the display would show it,
// cursor glyph included, with a custom font or palette.
func (c *Console) ScreenshotWithConfig(cfg *ScreenshotConfig) *image.RGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()

	face := cfg.Font
	if face == nil {
		face = basicfont.Face7x13
	}

	cellWidth := cfg.CellWidth
	cellHeight := cfg.CellHeight
	metrics := face.Metrics()
	if cellWidth == 0 {
		adv, _ := face.GlyphAdvance('M')
		cellWidth = adv.Ceil()
		if cellWidth == 0 {
			cellWidth = 7 // fallback for basicfont
		}
	}
	if cellHeight == 0 {
		cellHeight = metrics.Height.Ceil()
	}

	palette := cfg.Palette
	if palette == nil {
		palette = &Palette
	}

	img := image.NewRGBA(image.Rect(0, 0, c.cols*cellWidth, c.rows*cellHeight))

	for row := 0; row < c.rows; row++ {
		for col := 0; col < c.cols; col++ {
			cell := c.fb.CellAt(row, col)
			x := col * cellWidth
			y := row * cellHeight

			fg := palette[cell.Attr.Foreground()]
			bg := palette[cell.Attr.Background()]

			for py := 0; py < cellHeight; py++ {
				for px := 0; px < cellWidth; px++ {
					img.SetRGBA(x+px, y+py, bg)
				}
			}

			if cell.Glyph == 0 || cell.Glyph == ' ' {
				continue
			}

			d := &font.Drawer{
				Dst:  img,
				Src:  image.NewUniform(fg),
				Face: face,
				Dot:  fixed.P(x, y+metrics.Ascent.Ceil()),
			}
			d.DrawString(string(cell.Rune()))
		}
	}

	return img
}
