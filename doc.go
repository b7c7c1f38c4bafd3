// Package vgaconsole drives a VGA-style text console from a stream of text and ANSI escape sequences.
//
// The console writes into a character+attribute framebuffer of interleaved
// (glyph, attr) bytes, the layout used by PC text modes. It is the console half of
// the Neotron runtime; the tpa and program packages provide the program loader and
// executor that print through it.
//
// # Quick Start
//
// Create a console and write ANSI sequences to it:
//
//	con := vgaconsole.New()
//	con.WriteString("\x1b[31mHello \x1b[1;32mWorld\x1b[0m!")
//	fmt.Println(con.String()) // "Hello World!"
//
// # Architecture
//
// The package is organized around these core types:
//
//   - [Console]: The state machine that consumes bytes and moves the cursor
//   - [Framebuffer]: Bounds-checked access to the (glyph, attr) cell memory
//   - [Attr]: A packed VGA attribute byte (foreground, background, blink)
//   - [Cursor]: The write position and the on-screen cursor overlay
//
// # Framebuffer
//
// By default the console allocates its own memory. To draw into memory owned by
// a video subsystem, pass it in:
//
//	vram := make([]byte, 80*25*2)
//	con := vgaconsole.New(
//	    vgaconsole.WithMode(vgaconsole.Mode80x25),
//	    vgaconsole.WithFramebuffer(vram),
//	)
//
// Changing video mode resets the geometry, clears the screen and homes the cursor:
//
//	if err := con.ChangeMode(vgaconsole.Mode80x50); err != nil {
//	    // vram too small for 80x50
//	}
//
// # Glyphs
//
// Runes are mapped to code page 850 glyphs by [Glyph]. ASCII maps to itself,
// accented Latin letters and box drawing characters map through the code page,
// and anything else is drawn as '?'. Every rune takes one cell, combining marks included.
//
// # Supported Sequences
//
// Only a deliberately small subset of ANSI/DEC is interpreted:
//
//   - C0: BS, HT, LF (also returns to column 0), CR, BEL
//   - CSI A/B/C/D, E/F, G, H/f, d: cursor motion, clamped to the screen
//   - CSI J and K with modes 0, 1 and 2
//   - CSI m: 0, 1, 7, 22, 27, 30-37, 39, 40-47, 49, 90-97
//   - CSI ?25h / ?25l: cursor visibility
//   - CSI 6n: cursor position report (only with [WithResponse])
//   - ESC 7 / ESC 8, CSI s / u: save and restore cursor
//
// Everything else is parsed and ignored.
//
// # Colors
//
// SGR colours use ANSI order and are translated to VGA order. Bold (SGR 1) does
// not change the font: it promotes the foreground to its bright sibling, so
// ESC[1;31m draws light red. Reverse video (SGR 7) swaps foreground and background
// as each glyph is written; the stored attribute is never swapped, so ESC[27m or
// ESC[0m restores the original colours exactly.
//
// # Lazy Wrapping
//
// Writing the last cell of a row leaves the cursor one column past the edge.
// The wrap, and the scroll if it was the last row, happen when the next printable
// character or control code arrives. This keeps a full-screen write from
// scrolling the top line away:
//
//	con.WriteString(strings.Repeat("x", con.Cols()))
//	row, col := con.CursorPos() // col == con.Cols()
//
// # Cursor Overlay
//
// When the cursor is visible the glyph under it is replaced by '_' in the
// framebuffer. Every call to [Console.Write] lifts the overlay first and puts it
// back afterwards; calls nest, so only the outermost write redraws. Query methods
// such as [Console.Cell] and [Console.String] look through the overlay.
//
// # Middleware
//
// Middleware intercepts handler calls. Each middleware function receives the
// original parameters and a next function to call the default implementation:
//
//	mw := &vgaconsole.Middleware{
//	    Bell: func(next func()) {
//	        flashScreen()
//	        next()
//	    },
//	}
//	con := vgaconsole.New(vgaconsole.WithMiddleware(mw))
//
// # Screenshots
//
// [Console.Screenshot] renders the framebuffer to an [image.RGBA] with the VGA
// palette and basicfont. [Console.ScreenshotWithConfig] accepts a custom font
// loaded with [LoadFont].
//
// # Snapshots
//
// [Console.Snapshot] captures the logical screen in a JSON-friendly form, at one
// of three levels of detail: plain text lines, lines split into colour segments,
// or every cell with its glyph byte and attribute:
//
//	snap := con.Snapshot(vgaconsole.SnapshotDetailStyled)
//	data, _ := json.Marshal(snap)
//
// # Recording
//
// A [RecordingProvider] sees every byte passed to [Console.Write] before it is
// parsed. [MemoryRecording] keeps a bounded history that can be replayed into
// another console to reproduce the screen.
//
// # Thread Safety
//
// All public methods are safe for concurrent use. A single Write is applied
// atomically with respect to the cursor overlay but not with respect to other
// writers; serialize writers if their output must not interleave.
package vgaconsole
