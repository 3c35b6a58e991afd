package io

import (
	"io"
	"io/fs"
)

// Rom is a program image read from storage. The image is raw big-endian
// instruction words packed sequentially; no container format applies. The
// processing unit enforces the address-space limit at load time.
type Rom struct {
	Data []uint8
}

// ReadRom reads a program image from a stream.
func ReadRom(r io.Reader) (rom *Rom, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return
	}
	if len(data) == 0 {
		err = ErrRomEmpty
		return
	}

	rom = &Rom{Data: data}

	return
}

// OpenRom reads a program image from a file system.
func OpenRom(fsys fs.FS, name string) (rom *Rom, err error) {
	file, err := fsys.Open(name)
	if err != nil {
		return
	}
	defer file.Close()

	return ReadRom(file)
}
