// Package cpu implements the processing unit and assembler for the CHIP-8 machine.
//
// The processing unit consists of 4096 bytes of memory, sixteen 8-bit
// general-purpose registers (v0-vf), a 12-bit index register (i), a 16-bit
// program counter, a fixed-depth call stack, and two countdown timers.
// Register vf doubles as the flag output for carry, borrow, shift, and
// sprite collision results. The unit drives a display and keypad through
// the collaborator interfaces in the io package.
//
// The assembler provides a macro assembly language for the CHIP-8
// instruction set, supporting macros, labels, equates, and compile-time
// expression evaluation.
package cpu
