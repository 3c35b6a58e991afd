package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgram_Binary(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join([]string{
		"ld v0 0x01",
		"ld v1 0x02",
		".byte 0xaa",
	}, "\n")))
	assert.NoError(err)

	assert.Equal([]uint8{0x60, 0x01, 0x61, 0x02, 0xaa}, prog.Binary())
}

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join([]string{
		"; leading comment",
		"ld v0 0x01",
		"",
		"sprite: .byte 0x01 0x02 0x03",
	}, "\n")))
	assert.NoError(err)

	dbg := prog.Debug(0x200)
	assert.NotNil(dbg.Opcode)
	assert.Equal(2, dbg.Opcode.LineNo)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(0x204)
	assert.NotNil(dbg.Opcode)
	assert.Equal(4, dbg.Opcode.LineNo)
	assert.Equal(2, dbg.Index)

	dbg = prog.Debug(0x300)
	assert.Nil(dbg.Opcode)
}

func TestProgram_Codes(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join([]string{
		"ld v0 0x01",
		"cls",
	}, "\n")))
	assert.NoError(err)

	var addrs []uint16
	var codes []Code
	for addr, code := range prog.Codes() {
		addrs = append(addrs, addr)
		codes = append(codes, code)
	}

	assert.Equal([]uint16{0x200, 0x202}, addrs)
	assert.Equal([]Code{0x6001, 0x00e0}, codes)
}

func TestOpcode_Code(t *testing.T) {
	assert := assert.New(t)

	op := &Opcode{Bytes: []uint8{0x6a, 0x42}}
	assert.Equal(Code(0x6a42), op.Code())

	op = &Opcode{Bytes: []uint8{0xaa}}
	assert.Equal(Code(0), op.Code())
}

func TestCode_String(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		code Code
		want string
	}){
		{0x00e0, "cls"},
		{0x00ee, "ret"},
		{0x6a42, "ld va 0x42"},
		{0xd125, "drw v1 v2 5"},
		{0xf10a, "ld v1 k"},
		{0x0000, ".word 0x0000"},
		{0xffff, ".word 0xffff"},
	}

	for _, entry := range table {
		assert.Equal(entry.want, entry.code.String())
	}
}
