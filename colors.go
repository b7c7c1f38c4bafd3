package vgaconsole

import "image/color"

// Palette is the standard VGA 16-colour text palette, indexed by Color.
var Palette = [16]color.RGBA{
	ColorBlack:      {0x00, 0x00, 0x00, 255},
	ColorBlue:       {0x00, 0x00, 0xAA, 255},
	ColorGreen:      {0x00, 0xAA, 0x00, 255},
	ColorCyan:       {0x00, 0xAA, 0xAA, 255},
	ColorRed:        {0xAA, 0x00, 0x00, 255},
	ColorMagenta:    {0xAA, 0x00, 0xAA, 255},
	ColorBrown:      {0xAA, 0x55, 0x00, 255},
	ColorLightGray:  {0xAA, 0xAA, 0xAA, 255},
	ColorDarkGray:   {0x55, 0x55, 0x55, 255},
	ColorLightBlue:  {0x55, 0x55, 0xFF, 255},
	ColorLightGreen: {0x55, 0xFF, 0x55, 255},
	ColorLightCyan:  {0x55, 0xFF, 0xFF, 255},
	ColorLightRed:   {0xFF, 0x55, 0x55, 255},
	ColorPink:       {0xFF, 0x55, 0xFF, 255},
	ColorYellow:     {0xFF, 0xFF, 0x55, 255},
	ColorWhite:      {0xFF, 0xFF, 0xFF, 255},
}

// RGBA returns the palette entry for c.
func (c Color) RGBA() color.RGBA {
	return Palette[c&0x0F]
}
