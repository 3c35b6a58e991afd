package io

import (
	"io"
	"log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Silent is a Speaker that discards the tone. Used by headless drivers and
// tests.
type Silent struct {
	Playing bool // State of the tone after the most recent call.
}

var _ Speaker = (*Silent)(nil)

func (sp *Silent) Play(freqHz float64) (err error) {
	sp.Playing = true
	return
}

func (sp *Silent) Stop() (err error) {
	sp.Playing = false
	return
}

const (
	WAV_SAMPLE_RATE = 44100 // Samples per second of the recording.
	WAV_BIT_DEPTH   = 16
	WAV_FRAME_RATE  = 60 // Speaker updates per second from the driver.
)

// Wav is a Speaker that records the tone to a RIFF/WAVE file instead of an
// audio device. The driver calls Play or Stop once per frame; each call
// appends one frame of square-wave tone or silence, so the recording runs
// at the same rate as the machine.
type Wav struct {
	Verbose bool // Set to enable verbose logging.

	enc   *wav.Encoder
	frame []int   // Scratch buffer, one frame of samples.
	phase float64 // Oscillator phase, carried across frames.
}

var _ Speaker = (*Wav)(nil)

// NewWav creates a recording speaker writing to ws. Close finalizes the
// RIFF header; an unclosed recording is not a valid file.
func NewWav(ws io.WriteSeeker) (wv *Wav) {
	wv = &Wav{
		enc:   wav.NewEncoder(ws, WAV_SAMPLE_RATE, WAV_BIT_DEPTH, 1, 1),
		frame: make([]int, WAV_SAMPLE_RATE/WAV_FRAME_RATE),
	}

	return
}

// Play appends one frame of tone at the requested frequency.
func (wv *Wav) Play(freqHz float64) (err error) {
	if wv.Verbose {
		log.Printf("wav: tone %.0fHz", freqHz)
	}

	const amplitude = 0.25
	peak := amplitude * float64(int(1)<<(WAV_BIT_DEPTH-1)-1)

	for n := range wv.frame {
		if wv.phase < 0.5 {
			wv.frame[n] = int(peak)
		} else {
			wv.frame[n] = int(-peak)
		}
		wv.phase += freqHz / WAV_SAMPLE_RATE
		for wv.phase >= 1.0 {
			wv.phase -= 1.0
		}
	}

	return wv.append()
}

// Stop appends one frame of silence.
func (wv *Wav) Stop() (err error) {
	wv.phase = 0
	clear(wv.frame)

	return wv.append()
}

func (wv *Wav) append() (err error) {
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  WAV_SAMPLE_RATE,
		},
		Data:           wv.frame,
		SourceBitDepth: WAV_BIT_DEPTH,
	}

	return wv.enc.Write(buf)
}

// Close finalizes the recording.
func (wv *Wav) Close() (err error) {
	return wv.enc.Close()
}
