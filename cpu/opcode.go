package cpu

import (
	"fmt"
)

// Code represents a single 16-bit instruction word, stored big-endian in
// memory with the high byte first.
type Code uint16

// Instruction group constants, selected by the top nibble of the word.
const (
	OP_SYS  = uint8(0x0) // cls / ret
	OP_JP   = uint8(0x1) // jp nnn
	OP_CALL = uint8(0x2) // call nnn
	OP_SEI  = uint8(0x3) // se vx kk
	OP_SNEI = uint8(0x4) // sne vx kk
	OP_SE   = uint8(0x5) // se vx vy
	OP_LDI  = uint8(0x6) // ld vx kk
	OP_ADDI = uint8(0x7) // add vx kk
	OP_ALU  = uint8(0x8) // register-register group
	OP_SNE  = uint8(0x9) // sne vx vy
	OP_LDX  = uint8(0xa) // ld i nnn
	OP_JPV0 = uint8(0xb) // jp v0 nnn
	OP_RND  = uint8(0xc) // rnd vx kk
	OP_DRW  = uint8(0xd) // drw vx vy n
	OP_SKP  = uint8(0xe) // skp / sknp
	OP_MISC = uint8(0xf) // timer, key, index, and memory group
)

// ALU sub-operations, selected by the low nibble of a 0x8xyN word.
const (
	ALU_LD   = uint8(0x0)
	ALU_OR   = uint8(0x1)
	ALU_AND  = uint8(0x2)
	ALU_XOR  = uint8(0x3)
	ALU_ADD  = uint8(0x4)
	ALU_SUB  = uint8(0x5)
	ALU_SHR  = uint8(0x6)
	ALU_SUBN = uint8(0x7)
	ALU_SHL  = uint8(0xe)
)

// Misc sub-operations, selected by the low byte of a 0xFx.. word.
const (
	MISC_LD_DT  = uint8(0x07) // vx := delay timer
	MISC_LD_KEY = uint8(0x0a) // pause until next keypress
	MISC_ST_DT  = uint8(0x15) // delay timer := vx
	MISC_ST_ST  = uint8(0x18) // sound timer := vx
	MISC_ADD_I  = uint8(0x1e) // i += vx
	MISC_FONT   = uint8(0x29) // i := font glyph of vx
	MISC_BCD    = uint8(0x33) // memory[i..i+2] := decimal digits of vx
	MISC_SAVE   = uint8(0x55) // memory[i..] := v0..vx
	MISC_LOAD   = uint8(0x65) // v0..vx := memory[i..]
)

// Skip sub-operations, selected by the low byte of a 0xEx.. word.
const (
	SKP_DOWN = uint8(0x9e)
	SKP_UP   = uint8(0xa1)
)

// MakeCodeNNN creates an instruction carrying a 12-bit address operand.
func MakeCodeNNN(group uint8, nnn uint16) Code {
	return Code(uint16(group&0xf)<<12 | nnn&0xfff)
}

// MakeCodeXKK creates an instruction carrying a register selector and an
// immediate byte.
func MakeCodeXKK(group uint8, x uint8, kk uint8) Code {
	return Code(uint16(group&0xf)<<12 | uint16(x&0xf)<<8 | uint16(kk))
}

// MakeCodeXYN creates an instruction carrying two register selectors and a
// low nibble.
func MakeCodeXYN(group uint8, x, y, n uint8) Code {
	return Code(uint16(group&0xf)<<12 | uint16(x&0xf)<<8 | uint16(y&0xf)<<4 | uint16(n&0xf))
}

// Op returns the instruction group from the top nibble of the word.
func (code Code) Op() uint8 {
	return uint8(code >> 12)
}

// X returns the first register selector (bits 8-11).
func (code Code) X() uint8 {
	return uint8(code>>8) & 0xf
}

// Y returns the second register selector (bits 4-7).
func (code Code) Y() uint8 {
	return uint8(code>>4) & 0xf
}

// N returns the low nibble (bits 0-3).
func (code Code) N() uint8 {
	return uint8(code) & 0xf
}

// KK returns the immediate byte (bits 0-7).
func (code Code) KK() uint8 {
	return uint8(code)
}

// NNN returns the immediate address (bits 0-11).
func (code Code) NNN() uint16 {
	return uint16(code) & 0xfff
}

// String returns the assembly language representation of this instruction.
// Words that decode to no defined instruction render as a data directive.
func (code Code) String() (out string) {
	x := code.X()
	y := code.Y()

	switch code.Op() {
	case OP_SYS:
		switch code.KK() {
		case 0xe0:
			return "cls"
		case 0xee:
			return "ret"
		}
	case OP_JP:
		return fmt.Sprintf("jp %#03x", code.NNN())
	case OP_CALL:
		return fmt.Sprintf("call %#03x", code.NNN())
	case OP_SEI:
		return fmt.Sprintf("se v%x %#02x", x, code.KK())
	case OP_SNEI:
		return fmt.Sprintf("sne v%x %#02x", x, code.KK())
	case OP_SE:
		if code.N() == 0 {
			return fmt.Sprintf("se v%x v%x", x, y)
		}
	case OP_LDI:
		return fmt.Sprintf("ld v%x %#02x", x, code.KK())
	case OP_ADDI:
		return fmt.Sprintf("add v%x %#02x", x, code.KK())
	case OP_ALU:
		switch code.N() {
		case ALU_LD:
			return fmt.Sprintf("ld v%x v%x", x, y)
		case ALU_OR:
			return fmt.Sprintf("or v%x v%x", x, y)
		case ALU_AND:
			return fmt.Sprintf("and v%x v%x", x, y)
		case ALU_XOR:
			return fmt.Sprintf("xor v%x v%x", x, y)
		case ALU_ADD:
			return fmt.Sprintf("add v%x v%x", x, y)
		case ALU_SUB:
			return fmt.Sprintf("sub v%x v%x", x, y)
		case ALU_SHR:
			return fmt.Sprintf("shr v%x", x)
		case ALU_SUBN:
			return fmt.Sprintf("subn v%x v%x", x, y)
		case ALU_SHL:
			return fmt.Sprintf("shl v%x", x)
		}
	case OP_SNE:
		if code.N() == 0 {
			return fmt.Sprintf("sne v%x v%x", x, y)
		}
	case OP_LDX:
		return fmt.Sprintf("ld i %#03x", code.NNN())
	case OP_JPV0:
		return fmt.Sprintf("jp v0 %#03x", code.NNN())
	case OP_RND:
		return fmt.Sprintf("rnd v%x %#02x", x, code.KK())
	case OP_DRW:
		return fmt.Sprintf("drw v%x v%x %d", x, y, code.N())
	case OP_SKP:
		switch code.KK() {
		case SKP_DOWN:
			return fmt.Sprintf("skp v%x", x)
		case SKP_UP:
			return fmt.Sprintf("sknp v%x", x)
		}
	case OP_MISC:
		switch code.KK() {
		case MISC_LD_DT:
			return fmt.Sprintf("ld v%x dt", x)
		case MISC_LD_KEY:
			return fmt.Sprintf("ld v%x k", x)
		case MISC_ST_DT:
			return fmt.Sprintf("ld dt v%x", x)
		case MISC_ST_ST:
			return fmt.Sprintf("ld st v%x", x)
		case MISC_ADD_I:
			return fmt.Sprintf("add i v%x", x)
		case MISC_FONT:
			return fmt.Sprintf("ld f v%x", x)
		case MISC_BCD:
			return fmt.Sprintf("ld b v%x", x)
		case MISC_SAVE:
			return fmt.Sprintf("ld [i] v%x", x)
		case MISC_LOAD:
			return fmt.Sprintf("ld v%x [i]", x)
		}
	}

	return fmt.Sprintf(".word 0x%04x", uint16(code))
}

// Opcode represents a line of assembled code with its source location and
// generated bytes.
type Opcode struct {
	LineNo    int
	Addr      int
	Words     []string
	Bytes     []uint8
	LinkLabel string
}

// Code returns the instruction word assembled for this line. Data lines
// and short lines decode as a data directive.
func (op *Opcode) Code() Code {
	if len(op.Bytes) < 2 {
		return Code(0)
	}
	return Code(uint16(op.Bytes[0])<<8 | uint16(op.Bytes[1]))
}
