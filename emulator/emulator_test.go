// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/io"
)

func doAssemble(t *testing.T, emu *Emulator, lines ...string) {
	t.Helper()

	asm := &cpu.Assembler{}
	for equ, value := range emu.Defines() {
		asm.Predefine(equ, value)
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(lines, "\n")))
	assert.NoError(t, err)

	emu.Program = prog
}

func TestEmulator_Reset(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	doAssemble(t, emu,
		"ld v0 0x42",
		"spin: jp spin",
	)

	assert.NoError(emu.Reset())
	assert.Equal(uint16(cpu.PROGRAM_BASE), emu.Cpu.Pc)
	assert.Equal(uint8(0x60), emu.Cpu.Memory[cpu.PROGRAM_BASE])
	assert.Equal(uint8(0x42), emu.Cpu.Memory[cpu.PROGRAM_BASE+1])
	assert.Equal(0, emu.Frames)
}

func TestEmulator_Rom(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Rom = []uint8{0x12, 0x00} // jp PROGRAM_BASE

	assert.NoError(emu.Reset())
	assert.NoError(emu.Run(3))
	assert.Equal(3, emu.Frames)
	assert.Equal(uint16(cpu.PROGRAM_BASE), emu.Cpu.Pc)
}

func TestEmulator_Frame_Draw(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	doAssemble(t, emu,
		"ld v0 0",
		"ld f v0",
		"ld v1 3",
		"ld v2 2",
		"drw v1 v2 FONT_SIZE",
		"spin: jp spin",
	)

	assert.NoError(emu.Reset())
	assert.NoError(emu.Frame())

	// The zero glyph lights fourteen pixels with no collision.
	assert.Equal(14, emu.Display.SetPixels())
	assert.True(emu.Display.Pixel(3, 2))
	assert.Equal(uint8(0), emu.Cpu.V[0xf])
	assert.Equal(1, emu.Display.Flushes)
	assert.Equal(1, emu.Frames)
}

func TestEmulator_WaitKey(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	doAssemble(t, emu,
		"ld v0 10",
		"ld dt v0",
		"ld v6 k",
		"spin: jp spin",
	)

	assert.NoError(emu.Reset())
	assert.NoError(emu.Frame())

	// The machine pauses on the key wait, but timers keep ticking.
	assert.True(emu.Cpu.Paused)
	assert.Equal(uint8(9), emu.Cpu.Delay)

	assert.NoError(emu.Frame())
	assert.True(emu.Cpu.Paused)
	assert.Equal(uint8(8), emu.Cpu.Delay)

	emu.Keypad.Press(0xb)
	assert.False(emu.Cpu.Paused)
	assert.Equal(uint8(0xb), emu.Cpu.V[6])

	assert.NoError(emu.Frame())
	assert.Equal(3, emu.Frames)
}

func TestEmulator_Sound(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	speaker := &io.Silent{}
	emu.Speaker = speaker
	doAssemble(t, emu,
		"ld v0 2",
		"ld st v0",
		"spin: jp spin",
	)

	assert.NoError(emu.Reset())

	assert.NoError(emu.Frame())
	assert.True(speaker.Playing)

	assert.NoError(emu.Frame())
	assert.False(speaker.Playing)
}

func TestEmulator_Fault(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	doAssemble(t, emu,
		".word 0xffff",
	)

	assert.NoError(emu.Reset())

	err := emu.Frame()
	assert.ErrorIs(err, cpu.ErrOpcode{})

	var rt *ErrRuntime
	assert.ErrorAs(err, &rt)
	assert.Equal(1, rt.LineNo)
	assert.Equal(0, emu.Frames)
}

func TestEmulator_Fault_Rom(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Rom = []uint8{0xff, 0xff}

	assert.NoError(emu.Reset())

	// Without an assembled listing the fault is not wrapped with a line
	// number.
	err := emu.Frame()
	assert.ErrorIs(err, cpu.ErrOpcode{})

	var rt *ErrRuntime
	assert.False(errors.As(err, &rt))
}

func TestEmulator_Defines(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	defines := maps.Collect(emu.Defines())

	assert.Equal("60", defines["FRAME_RATE"])
	assert.Equal("64", defines["DISPLAY_WIDTH"])
	assert.Equal("32", defines["DISPLAY_HEIGHT"])
	assert.Contains(defines, "MEMORY_SIZE")
	assert.Contains(defines, "PROGRAM_BASE")
}
