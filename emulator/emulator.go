// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/internal"
	"github.com/ezrec/chip8/io"
)

const (
	FRAME_RATE             = 60  // Frames (and timer ticks) per second.
	INSTRUCTIONS_PER_FRAME = 10  // Default execution batch per frame.
	TONE_HZ                = 440 // Frequency handed to the speaker.
)

var _emulator_defines = map[string]string{
	"FRAME_RATE": fmt.Sprintf("%v", FRAME_RATE),
}

// Emulator is the frame driver: one processing unit wired to its display,
// keypad, and speaker collaborators. Each frame executes a batch of
// instructions, ticks the timers, flushes the display, and updates the
// speaker tone.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the processing unit.
	Program  *cpu.Program // Currently loaded program listing, if assembled.
	Rom      []uint8      // Program image loaded on reset.

	Display *display.Framebuffer // Pixel surface.
	Keypad  io.Keys              // Key state.
	Speaker io.Speaker           // Tone output.

	InstructionsPerFrame int // Execution batch size per frame.
	Frames               int // Frames run since reset.
}

// NewEmulator creates a new emulator with a framebuffer display and a
// silent speaker.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Display:              display.NewFramebuffer(),
		Speaker:              &io.Silent{},
		InstructionsPerFrame: INSTRUCTIONS_PER_FRAME,
	}

	emu.Cpu = cpu.NewCpu(emu.Display, &emu.Keypad)

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		emu.Display.Defines(),
	)
}

// Reset reinitializes the machine and reloads the program image. An
// assembled Program takes precedence over a raw Rom image.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose
	emu.Display.Verbose = emu.Verbose

	emu.Cpu.Reset()
	emu.Display.Clear()
	emu.Keypad.Reset()
	emu.Frames = 0

	image := emu.Rom
	if emu.Program != nil {
		image = emu.Program.Binary()
	}

	err = emu.Cpu.Load(image)
	if err != nil {
		return
	}

	return emu.Speaker.Stop()
}

// LineNo returns the current source line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.Opcode.LineNo
}

// Frame runs a single frame: a batch of instructions, one timer tick, a
// display flush, and a speaker update. The caller is responsible for
// pacing frames at FRAME_RATE.
func (emu *Emulator) Frame() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	lineno := emu.LineNo()
	defer func() {
		if err != nil && lineno != 0 {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	err = emu.Cpu.Step(emu.InstructionsPerFrame)
	if err != nil {
		return
	}

	// Timers tick even while paused on a keypress wait.
	emu.Cpu.TickTimers()

	err = emu.Display.Flush()
	if err != nil {
		return
	}

	if emu.Cpu.Sound > 0 {
		err = emu.Speaker.Play(TONE_HZ)
	} else {
		err = emu.Speaker.Stop()
	}
	if err != nil {
		return
	}

	emu.Frames++

	return
}

// Run executes a fixed number of frames, stopping on the first fault.
func (emu *Emulator) Run(frames int) (err error) {
	for range frames {
		err = emu.Frame()
		if err != nil {
			return
		}
	}

	return
}
