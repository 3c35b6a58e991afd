package cpu

import (
	"fmt"
	"iter"
	"log"
	"maps"
	"math/rand"

	"github.com/ezrec/chip8/io"
)

// Display is the pixel surface interface the processing unit draws to.
type Display io.Display

// Keypad is the key state interface the processing unit polls.
type Keypad io.Keypad

const (
	MEMORY_SIZE   = 4096  // Bytes of addressable memory.
	PROGRAM_BASE  = 0x200 // First address of loaded program text.
	PROGRAM_LIMIT = MEMORY_SIZE - PROGRAM_BASE
	NUM_REGISTERS = 16
	VF            = 0xf // Flag register index.
)

var _cpu_defines = map[string]string{
	"MEMORY_SIZE":   fmt.Sprintf("%v", MEMORY_SIZE),
	"PROGRAM_BASE":  fmt.Sprintf("%#x", PROGRAM_BASE),
	"PROGRAM_LIMIT": fmt.Sprintf("%v", PROGRAM_LIMIT),
	"FONT_BASE":     fmt.Sprintf("%#x", FONT_BASE),
	"FONT_SIZE":     fmt.Sprintf("%v", FONT_SIZE),
	"STACK_LIMIT":   fmt.Sprintf("%v", STACK_LIMIT),
}

// Cpu is the processing unit for the CHIP-8 machine.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Display Display // Pixel surface collaborator.
	Keypad  Keypad  // Key state collaborator.

	Memory [MEMORY_SIZE]uint8   // Byte-addressable memory.
	V      [NUM_REGISTERS]uint8 // Register bank v0-vf.
	I      uint16               // Index register, a 12-bit memory pointer.
	Pc     uint16               // Program counter.
	Stack  Stack                // Call stack of return addresses.
	Delay  uint8                // Delay timer, counts down once per frame.
	Sound  uint8                // Sound timer, audible while nonzero.

	// Paused is set by the wait-for-key instruction and cleared by the
	// keypad collaborator delivering the next keypress. No instruction
	// executes while set; timers keep counting.
	Paused bool

	Rand *rand.Rand // Source for the rnd instruction.

	Ticks int // Instructions executed since reset.
}

// NewCpu creates a new processing unit attached to a display and keypad.
func NewCpu(display Display, keypad Keypad) (cpu *Cpu) {
	cpu = &Cpu{
		Display: display,
		Keypad:  keypad,
		Rand:    rand.New(rand.NewSource(1)),
	}

	cpu.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current register state as a string.
func (cpu *Cpu) String() (text string) {
	text = fmt.Sprintf("   pc: %#03x  i: %#03x  dt: %#02x  st: %#02x\n",
		cpu.Pc, cpu.I, cpu.Delay, cpu.Sound)
	for n, value := range cpu.V {
		text += fmt.Sprintf("   v%x: %#02x\n", n, value)
	}
	if depth := len(cpu.Stack.Data); depth > 0 {
		text += fmt.Sprintf("stack: %d deep, top %#03x\n", depth, cpu.Stack.Data[depth-1])
	} else {
		text += "stack: empty\n"
	}

	return
}

// Reset the processing unit state.
// - Zeros memory, registers, index, and timers.
// - Writes the builtin font at FONT_BASE.
// - Empties the call stack and clears the paused flag.
// - Sets the program counter to PROGRAM_BASE.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Memory[:])
	clear(cpu.V[:])
	copy(cpu.Memory[FONT_BASE:], font[:])
	cpu.I = 0
	cpu.Pc = PROGRAM_BASE
	cpu.Stack.Reset()
	cpu.Delay = 0
	cpu.Sound = 0
	cpu.Paused = false
	cpu.Ticks = 0
}

// Load copies a program image into memory at PROGRAM_BASE. Images larger
// than the available address space are refused before execution begins.
func (cpu *Cpu) Load(program []uint8) (err error) {
	if len(program) > PROGRAM_LIMIT {
		err = ErrProgramTooLarge
		return
	}

	copy(cpu.Memory[PROGRAM_BASE:], program)

	if cpu.Verbose {
		log.Printf("cpu: loaded %d bytes at %#03x", len(program), PROGRAM_BASE)
	}

	return
}

// FetchCode reads the big-endian instruction word at the program counter
// and advances the counter past it. The advance happens before dispatch so
// that jump, call, and return may overwrite the counter outright.
func (cpu *Cpu) FetchCode() (code Code, addr uint16, err error) {
	if int(cpu.Pc)+1 >= MEMORY_SIZE {
		err = ErrAddress(cpu.Pc)
		return
	}

	addr = cpu.Pc
	code = Code(uint16(cpu.Memory[cpu.Pc])<<8 | uint16(cpu.Memory[cpu.Pc+1]))
	cpu.Pc += 2

	return
}

// Tick fetches and executes a single instruction. While paused it does
// nothing.
func (cpu *Cpu) Tick() (err error) {
	if cpu.Paused {
		return
	}

	code, addr, err := cpu.FetchCode()
	if err != nil {
		return
	}

	err = cpu.Execute(code, addr)
	if err != nil {
		return
	}

	cpu.Ticks++

	return
}

// Step executes up to n instructions, stopping early when paused or on the
// first fault. The driving loop calls this once per display frame.
func (cpu *Cpu) Step(n int) (err error) {
	for range n {
		if cpu.Paused {
			return
		}
		err = cpu.Tick()
		if err != nil {
			return
		}
	}

	return
}

// TickTimers counts both timers down by one frame. Timers keep counting
// while the unit is paused, and floor at zero.
func (cpu *Cpu) TickTimers() {
	if cpu.Delay > 0 {
		cpu.Delay--
	}
	if cpu.Sound > 0 {
		cpu.Sound--
	}
}

// skip advances the program counter over the next instruction.
func (cpu *Cpu) skip() {
	cpu.Pc += 2
}

// Execute executes a single decoded instruction fetched from addr.
func (cpu *Cpu) Execute(code Code, addr uint16) (err error) {
	if cpu.Verbose {
		log.Printf("%03x: %v", addr, code)
	}

	x := code.X()
	y := code.Y()

	switch code.Op() {
	case OP_SYS:
		switch uint16(code) {
		case 0x00e0:
			cpu.Display.Clear()
		case 0x00ee:
			ret, ok := cpu.Stack.Pop()
			if !ok {
				return ErrStackEmpty
			}
			cpu.Pc = ret
		default:
			// Native machine routines have no host to run on.
			return ErrOpcode{Addr: addr, Code: code}
		}

	case OP_JP:
		cpu.Pc = code.NNN()

	case OP_CALL:
		if !cpu.Stack.Push(cpu.Pc) {
			return ErrStackFull
		}
		cpu.Pc = code.NNN()

	case OP_SEI:
		if cpu.V[x] == code.KK() {
			cpu.skip()
		}

	case OP_SNEI:
		if cpu.V[x] != code.KK() {
			cpu.skip()
		}

	case OP_SE:
		if code.N() != 0 {
			return ErrOpcode{Addr: addr, Code: code}
		}
		if cpu.V[x] == cpu.V[y] {
			cpu.skip()
		}

	case OP_LDI:
		cpu.V[x] = code.KK()

	case OP_ADDI:
		// Wraps at 8 bits, no flag effect.
		cpu.V[x] += code.KK()

	case OP_ALU:
		err = cpu.executeAlu(code, addr)
		if err != nil {
			return
		}

	case OP_SNE:
		if code.N() != 0 {
			return ErrOpcode{Addr: addr, Code: code}
		}
		if cpu.V[x] != cpu.V[y] {
			cpu.skip()
		}

	case OP_LDX:
		cpu.I = code.NNN()

	case OP_JPV0:
		cpu.Pc = code.NNN() + uint16(cpu.V[0])

	case OP_RND:
		cpu.V[x] = uint8(cpu.Rand.Intn(256)) & code.KK()

	case OP_DRW:
		err = cpu.executeDraw(code)
		if err != nil {
			return
		}

	case OP_SKP:
		switch code.KK() {
		case SKP_DOWN:
			if cpu.Keypad.IsDown(cpu.V[x] & 0xf) {
				cpu.skip()
			}
		case SKP_UP:
			if !cpu.Keypad.IsDown(cpu.V[x] & 0xf) {
				cpu.skip()
			}
		default:
			return ErrOpcode{Addr: addr, Code: code}
		}

	case OP_MISC:
		err = cpu.executeMisc(code, addr)
		if err != nil {
			return
		}
	}

	return
}

// executeAlu handles the register-register 0x8xyN group. The flag register
// is always written after the destination, so a result landing in vf is
// overwritten by the authoritative flag.
func (cpu *Cpu) executeAlu(code Code, addr uint16) (err error) {
	x := code.X()
	y := code.Y()

	switch code.N() {
	case ALU_LD:
		cpu.V[x] = cpu.V[y]
	case ALU_OR:
		cpu.V[x] |= cpu.V[y]
	case ALU_AND:
		cpu.V[x] &= cpu.V[y]
	case ALU_XOR:
		cpu.V[x] ^= cpu.V[y]
	case ALU_ADD:
		sum := uint16(cpu.V[x]) + uint16(cpu.V[y])
		var carry uint8
		if sum > 0xff {
			carry = 1
		}
		cpu.V[x] = uint8(sum)
		cpu.V[VF] = carry
	case ALU_SUB:
		var noborrow uint8
		if cpu.V[x] > cpu.V[y] {
			noborrow = 1
		}
		cpu.V[x] = cpu.V[x] - cpu.V[y]
		cpu.V[VF] = noborrow
	case ALU_SHR:
		bit := cpu.V[x] & 0x01
		cpu.V[x] >>= 1
		cpu.V[VF] = bit
	case ALU_SUBN:
		var noborrow uint8
		if cpu.V[y] > cpu.V[x] {
			noborrow = 1
		}
		cpu.V[x] = cpu.V[y] - cpu.V[x]
		cpu.V[VF] = noborrow
	case ALU_SHL:
		bit := (cpu.V[x] >> 7) & 0x01
		cpu.V[x] <<= 1
		cpu.V[VF] = bit
	default:
		return ErrOpcode{Addr: addr, Code: code}
	}

	return
}

// executeDraw handles the 0xDxyN sprite instruction. Each of the n rows at
// the index register is eight horizontal pixels, XOR-composited onto the
// display. vf reports whether any set pixel was cleared.
func (cpu *Cpu) executeDraw(code Code) (err error) {
	x0 := int(cpu.V[code.X()])
	y0 := int(cpu.V[code.Y()])
	rows := int(code.N())

	cpu.V[VF] = 0
	for row := range rows {
		at := int(cpu.I) + row
		if at >= MEMORY_SIZE {
			return ErrAddress(uint16(at))
		}
		sprite := cpu.Memory[at]
		for col := range 8 {
			if sprite&(0x80>>col) == 0 {
				continue
			}
			if cpu.Display.Toggle(x0+col, y0+row) {
				cpu.V[VF] = 1
			}
		}
	}

	return
}

// executeMisc handles the 0xFx.. group.
func (cpu *Cpu) executeMisc(code Code, addr uint16) (err error) {
	x := code.X()

	switch code.KK() {
	case MISC_LD_DT:
		cpu.V[x] = cpu.Delay

	case MISC_LD_KEY:
		// Halt the fetch/execute loop. The keypad collaborator delivers
		// the next keypress asynchronously; the handler slot is single
		// entry, so a later registration replaces this one.
		cpu.Paused = true
		cpu.Keypad.OnNextKey(func(key uint8) {
			cpu.V[x] = key & 0xf
			cpu.Paused = false
		})

	case MISC_ST_DT:
		cpu.Delay = cpu.V[x]

	case MISC_ST_ST:
		cpu.Sound = cpu.V[x]

	case MISC_ADD_I:
		// May grow past 12 bits; later memory access faults instead.
		cpu.I += uint16(cpu.V[x])

	case MISC_FONT:
		cpu.I = FONT_BASE + uint16(cpu.V[x]&0xf)*FONT_SIZE

	case MISC_BCD:
		if int(cpu.I)+2 >= MEMORY_SIZE {
			return ErrAddress(cpu.I)
		}
		value := cpu.V[x]
		cpu.Memory[cpu.I+0] = value / 100
		cpu.Memory[cpu.I+1] = (value / 10) % 10
		cpu.Memory[cpu.I+2] = value % 10

	case MISC_SAVE:
		if int(cpu.I)+int(x) >= MEMORY_SIZE {
			return ErrAddress(cpu.I)
		}
		copy(cpu.Memory[cpu.I:], cpu.V[:x+1])

	case MISC_LOAD:
		if int(cpu.I)+int(x) >= MEMORY_SIZE {
			return ErrAddress(cpu.I)
		}
		copy(cpu.V[:x+1], cpu.Memory[cpu.I:])

	default:
		return ErrOpcode{Addr: addr, Code: code}
	}

	return
}
