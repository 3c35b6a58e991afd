package cpu

import (
	"iter"
)

// Program is an assembled listing: one Opcode record per source line that
// produced output, in address order.
type Program struct {
	Opcodes []Opcode
}

// Debug locates the source line whose output covers a memory address.
type Debug struct {
	*Opcode
	Index int
}

func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(addr) >= op.Addr && int(addr) < op.Addr+len(op.Bytes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr) - op.Addr,
			}
			break
		}
	}

	return
}

// Binary renders the program as a loadable image, relative to
// PROGRAM_BASE.
func (prog *Program) Binary() (bin []uint8) {
	for _, op := range prog.Opcodes {
		offset := op.Addr - PROGRAM_BASE
		if need := offset + len(op.Bytes); need > len(bin) {
			bin = append(bin, make([]uint8, need-len(bin))...)
		}
		copy(bin[offset:], op.Bytes)
	}

	return
}

// Codes iterates the instruction words of the program with their
// addresses. Data lines shorter than a word are skipped.
func (prog *Program) Codes() iter.Seq2[uint16, Code] {
	return func(yield func(addr uint16, code Code) bool) {
		for _, op := range prog.Opcodes {
			for n := 0; n+1 < len(op.Bytes); n += 2 {
				code := Code(uint16(op.Bytes[n])<<8 | uint16(op.Bytes[n+1]))
				if !yield(uint16(op.Addr+n), code) {
					return
				}
			}
		}
	}
}
