package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/io"
)

// Every instruction word must either execute or surface a fault; no word
// may panic, and a decode fault must leave the register file untouched.
func FuzzCpu(f *testing.F) {
	f.Add(uint16(0x0000), uint8(0), uint16(0))
	f.Add(uint16(0x00e0), uint8(0), uint16(0))
	f.Add(uint16(0x00ee), uint8(0), uint16(0))
	f.Add(uint16(0xffff), uint8(0xff), uint16(0xfff))
	for group := range uint16(16) {
		f.Add(group<<12|0x0123, uint8(0x42), uint16(0x300))
	}

	f.Fuzz(func(t *testing.T, opcode uint16, seed uint8, index uint16) {
		assert := assert.New(t)

		fb := display.NewFramebuffer()
		keys := &io.Keys{}
		cpu := NewCpu(fb, keys)

		for n := range cpu.V {
			cpu.V[n] = seed + uint8(n)
		}
		cpu.I = index & 0xfff
		keys.Press(seed & 0xf)

		saved := cpu.V

		assert.NoError(cpu.Load([]uint8{uint8(opcode >> 8), uint8(opcode)}))
		err := cpu.Tick()
		if err == nil {
			return
		}

		known := errors.Is(err, ErrOpcode{}) ||
			errors.Is(err, ErrAddress(0)) ||
			errors.Is(err, ErrStackEmpty) ||
			errors.Is(err, ErrStackFull)
		assert.True(known, "unexpected fault: %v", err)

		if errors.Is(err, ErrOpcode{}) {
			assert.Equal(saved, cpu.V)
		}
	})
}
