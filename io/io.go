// Package io provides the collaborator contracts consumed by the CHIP-8
// processing unit, and implementations of them: the keypad, speakers, and
// ROM image loading. The pixel surface implementation lives in the display
// package.
package io

// Display is the pixel surface the processing unit draws to. Coordinate
// policy for off-surface pixels belongs to the implementation.
type Display interface {
	// Clear turns every pixel off.
	Clear()
	// Toggle XORs one pixel, returning true when a set pixel was cleared.
	// The processing unit uses the return value for collision detection.
	Toggle(x, y int) bool
	// Flush applies pending draws to the output surface. Called once per
	// frame by the driver, not by the processing unit.
	Flush() error
}

// Keypad reports the state of the sixteen-key pad.
type Keypad interface {
	// IsDown reports whether a key (0-15) is currently held.
	IsDown(key uint8) bool
	// OnNextKey registers a one-shot handler for the next keypress,
	// replacing any prior registration.
	OnNextKey(handler func(key uint8))
}

// Speaker emits the machine tone while the sound timer runs.
type Speaker interface {
	Play(freqHz float64) error
	Stop() error
}
