package io

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func TestReadRom(t *testing.T) {
	assert := assert.New(t)

	rom, err := ReadRom(strings.NewReader("\x60\x42\x12\x00"))
	assert.NoError(err)
	assert.Equal([]uint8{0x60, 0x42, 0x12, 0x00}, rom.Data)
}

func TestReadRom_Empty(t *testing.T) {
	assert := assert.New(t)

	rom, err := ReadRom(strings.NewReader(""))
	assert.ErrorIs(err, ErrRomEmpty)
	assert.Nil(rom)
}

func TestOpenRom(t *testing.T) {
	assert := assert.New(t)

	fsys := fstest.MapFS{
		"game.ch8": &fstest.MapFile{Data: []uint8{0xa2, 0x00}},
	}

	rom, err := OpenRom(fsys, "game.ch8")
	assert.NoError(err)
	assert.Equal([]uint8{0xa2, 0x00}, rom.Data)

	_, err = OpenRom(fsys, "missing.ch8")
	assert.Error(err)
}
