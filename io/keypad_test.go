package io

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys_PressRelease(t *testing.T) {
	assert := assert.New(t)

	var keys Keys

	assert.False(keys.IsDown(0x5))
	keys.Press(0x5)
	assert.True(keys.IsDown(0x5))
	assert.False(keys.IsDown(0x6))

	keys.Release(0x5)
	assert.False(keys.IsDown(0x5))
}

func TestKeys_OutOfRange(t *testing.T) {
	assert := assert.New(t)

	var keys Keys

	// Key values beyond the pad are ignored.
	keys.Press(0x15)
	assert.False(keys.IsDown(0x15))
	assert.False(keys.IsDown(0x5))

	keys.Release(0x15)
	keys.Release(0x5)
	assert.False(keys.IsDown(0x5))
}

func TestKeys_OnNextKey(t *testing.T) {
	assert := assert.New(t)

	var keys Keys

	seen := []uint8{}
	keys.OnNextKey(func(key uint8) {
		seen = append(seen, key)
	})

	keys.Press(0xb)
	keys.Press(0xc)

	// One-shot: only the first press after arming is delivered.
	assert.Equal([]uint8{0xb}, seen)
	assert.True(keys.IsDown(0xb))
	assert.True(keys.IsDown(0xc))
}

func TestKeys_OnNextKey_Overwrite(t *testing.T) {
	assert := assert.New(t)

	var keys Keys

	first := 0
	second := 0
	keys.OnNextKey(func(key uint8) { first++ })
	keys.OnNextKey(func(key uint8) { second++ })

	keys.Press(0x0)
	assert.Equal(0, first)
	assert.Equal(1, second)
}

func TestKeys_Reset(t *testing.T) {
	assert := assert.New(t)

	var keys Keys

	fired := false
	keys.Press(0x1)
	keys.OnNextKey(func(key uint8) { fired = true })

	keys.Reset()
	assert.False(keys.IsDown(0x1))

	keys.Press(0x2)
	assert.False(fired)
}
