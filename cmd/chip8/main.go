// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/io"
)

func main() {
	var compile string
	var rom string
	var save bool
	var output string
	var record string
	var frames int
	var ipf int
	var show bool
	var verbose bool

	flag.StringVar(&compile, "c", "", ".asm file to assemble")
	flag.StringVar(&rom, "r", "", ".ch8 rom image to run")
	flag.BoolVar(&save, "s", false, "Save assembled image, do not execute")
	flag.StringVar(&output, "o", "out.ch8", "Assembled image output")
	flag.StringVar(&record, "w", "", "Record speaker tone to a .wav file")
	flag.IntVar(&frames, "frames", 600, "Frames to run (at 60 frames/second)")
	flag.IntVar(&ipf, "ipf", emulator.INSTRUCTIONS_PER_FRAME, "Instructions per frame")
	flag.BoolVar(&show, "show", false, "Render the display to stdout each frame")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(compile) == 0 && len(rom) == 0 {
		log.Fatalf("%v: nothing to run; use -c or -r", os.Args[0])
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.InstructionsPerFrame = ipf

	// Assemble a new program image.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: verbose}
		for name, value := range emu.Defines() {
			asm.Predefine(name, value)
		}

		prog, err := asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		emu.Program = prog
	}

	if len(rom) != 0 {
		inf, err := os.Open(rom)
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}

		image, err := io.ReadRom(inf)
		inf.Close()
		if err != nil {
			log.Fatalf("%v: %v", rom, err)
		}
		emu.Rom = image.Data
	}

	if save {
		if emu.Program == nil {
			log.Fatalf("%v: nothing assembled to save", os.Args[0])
		}
		ouf, err := os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()

		_, err = ouf.Write(emu.Program.Binary())
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		return
	}

	if len(record) != 0 {
		ouf, err := os.Create(record)
		if err != nil {
			log.Fatalf("%v: %v", record, err)
		}
		defer ouf.Close()

		speaker := io.NewWav(ouf)
		defer speaker.Close()
		emu.Speaker = speaker
	}

	if show {
		emu.Display.Output = os.Stdout
	}

	err := emu.Reset()
	if err != nil {
		log.Fatal(err)
	}

	tick := time.NewTicker(time.Second / emulator.FRAME_RATE)
	defer tick.Stop()

	for range frames {
		err = emu.Frame()
		if err != nil {
			log.Fatal(err)
		}
		if show {
			<-tick.C
		}
	}
}
