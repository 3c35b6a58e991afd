package io

const NUM_KEYS = 16 // Keys 0-f on the hex pad.

// Keys is the canonical Keypad implementation: sixteen key states and a
// single-slot next-key handler. The host front end reports key events with
// Press and Release; the processing unit polls with IsDown and parks a
// handler with OnNextKey while waiting for input.
type Keys struct {
	Down [NUM_KEYS]bool

	next func(key uint8)
}

var _ Keypad = (*Keys)(nil)

// IsDown reports whether a key is currently held. Keys outside the pad
// are never down.
func (keys *Keys) IsDown(key uint8) bool {
	return key < NUM_KEYS && keys.Down[key]
}

// OnNextKey registers a one-shot handler for the next keypress. A second
// registration replaces the first.
func (keys *Keys) OnNextKey(handler func(key uint8)) {
	keys.next = handler
}

// Press marks a key held and delivers it to the registered next-key
// handler, if any. The handler slot is cleared before the handler runs so
// that a handler may re-register.
func (keys *Keys) Press(key uint8) {
	if key >= NUM_KEYS {
		return
	}
	keys.Down[key] = true

	if keys.next != nil {
		handler := keys.next
		keys.next = nil
		handler(key)
	}
}

// Release marks a key no longer held.
func (keys *Keys) Release(key uint8) {
	if key >= NUM_KEYS {
		return
	}
	keys.Down[key] = false
}

// Reset releases every key and drops any parked handler.
func (keys *Keys) Reset() {
	clear(keys.Down[:])
	keys.next = nil
}
