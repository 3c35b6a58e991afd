// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package display implements the pixel surface the CHIP-8 processing unit
// draws to: a 64x32 monochrome framebuffer with XOR compositing.
package display

import (
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"strings"
)

const (
	WIDTH  = 64 // Pixels per row.
	HEIGHT = 32 // Rows.
)

var _display_defines = map[string]string{
	"DISPLAY_WIDTH":  fmt.Sprintf("%v", WIDTH),
	"DISPLAY_HEIGHT": fmt.Sprintf("%v", HEIGHT),
}

// Framebuffer is the canonical display implementation. Sprite draws XOR
// individual pixels through Toggle; coordinates off the surface wrap
// around both axes. Flush renders a text frame to Output when one is
// attached, so a terminal can serve as the output surface.
type Framebuffer struct {
	Verbose bool // Set to enable verbose logging.

	Output io.Writer // Optional flush target.

	Pixels [HEIGHT][WIDTH]bool

	PixelsFlipped int // Pixel transitions since reset.
	Flushes       int // Frames flushed since reset.
}

// NewFramebuffer creates a cleared framebuffer with no flush target.
func NewFramebuffer() (fb *Framebuffer) {
	fb = &Framebuffer{}

	return
}

// Defines for the display
func (fb *Framebuffer) Defines() iter.Seq2[string, string] {
	return maps.All(_display_defines)
}

// Clear turns every pixel off.
func (fb *Framebuffer) Clear() {
	if fb.Verbose {
		log.Printf("display: clear")
	}

	for row := range fb.Pixels {
		for col := range fb.Pixels[row] {
			if fb.Pixels[row][col] {
				fb.PixelsFlipped++
			}
			fb.Pixels[row][col] = false
		}
	}
}

// Toggle XORs the pixel at (x, y), wrapping coordinates that fall off the
// surface. Returns true when a set pixel was cleared.
func (fb *Framebuffer) Toggle(x, y int) (cleared bool) {
	x = ((x % WIDTH) + WIDTH) % WIDTH
	y = ((y % HEIGHT) + HEIGHT) % HEIGHT

	cleared = fb.Pixels[y][x]
	fb.Pixels[y][x] = !cleared
	fb.PixelsFlipped++

	return
}

// Pixel reports the state of one pixel, with the same wrap policy as
// Toggle.
func (fb *Framebuffer) Pixel(x, y int) bool {
	x = ((x % WIDTH) + WIDTH) % WIDTH
	y = ((y % HEIGHT) + HEIGHT) % HEIGHT

	return fb.Pixels[y][x]
}

// SetPixels counts the pixels currently on.
func (fb *Framebuffer) SetPixels() (count int) {
	for row := range fb.Pixels {
		for col := range fb.Pixels[row] {
			if fb.Pixels[row][col] {
				count++
			}
		}
	}

	return
}

// Flush applies pending draws to the output surface. With no attached
// Output the frame is only counted.
func (fb *Framebuffer) Flush() (err error) {
	fb.Flushes++

	if fb.Output == nil {
		return
	}

	return fb.Render(fb.Output)
}

// Render writes a text frame, one character cell per pixel.
func (fb *Framebuffer) Render(w io.Writer) (err error) {
	var sb strings.Builder
	sb.Grow((WIDTH + 1) * HEIGHT)

	for row := range fb.Pixels {
		for col := range fb.Pixels[row] {
			if fb.Pixels[row][col] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}

	_, err = io.WriteString(w, sb.String())

	return
}

// String returns the text frame.
func (fb *Framebuffer) String() (out string) {
	var sb strings.Builder
	_ = fb.Render(&sb)

	return sb.String()
}
