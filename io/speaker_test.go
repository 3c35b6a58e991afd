package io

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSilent(t *testing.T) {
	assert := assert.New(t)

	var sp Silent

	assert.NoError(sp.Play(440))
	assert.True(sp.Playing)

	assert.NoError(sp.Stop())
	assert.False(sp.Playing)
}

func TestWav(t *testing.T) {
	assert := assert.New(t)

	name := filepath.Join(t.TempDir(), "tone.wav")
	file, err := os.Create(name)
	assert.NoError(err)
	defer file.Close()

	wv := NewWav(file)

	assert.NoError(wv.Play(440))
	assert.NoError(wv.Play(440))
	assert.NoError(wv.Stop())
	assert.NoError(wv.Close())

	data, err := os.ReadFile(name)
	assert.NoError(err)

	// RIFF/WAVE container with three frames of mono 16-bit samples.
	assert.Equal("RIFF", string(data[0:4]))
	assert.Equal("WAVE", string(data[8:12]))

	frame := WAV_SAMPLE_RATE / WAV_FRAME_RATE
	assert.GreaterOrEqual(len(data), 44+3*frame*2)

	// The trailing frame is silence from Stop.
	samples := data[len(data)-frame*2:]
	for n := 0; n < frame; n++ {
		assert.Zero(binary.LittleEndian.Uint16(samples[n*2:]))
	}
}
