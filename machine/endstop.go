package machine

import "gopper/core"

// EndstopChannel tracks the debounced triggered/open state of one axis's
// minimum endstop, grounded on original_source/io/endstops.cpp's
// getPinTriggeredState/isTriggered pair.
type EndstopChannel struct {
	driver core.GPIODriver
	pin    core.GPIOPin
	clock  Clock

	inverting   bool
	debounceMS  float64

	lastRawState      bool
	lastChangeTimeS   float64
	debouncedState     bool
}

// NewEndstopChannel constructs a channel for one axis's endstop pin.
// driver and clock are narrow collaborators so the channel is testable
// without real hardware.
func NewEndstopChannel(driver core.GPIODriver, pin core.GPIOPin, inverting, pullup bool, debounceMS float64, clock Clock) *EndstopChannel {
	e := &EndstopChannel{
		driver:     driver,
		pin:        pin,
		clock:      clock,
		inverting:  inverting,
		debounceMS: debounceMS,
	}
	if pullup {
		_ = driver.ConfigureInputPullUp(pin)
	} else {
		_ = driver.ConfigureInputPullDown(pin)
	}
	// Seed from the live pin so the first query does not falsely reset a
	// long-stable line (spec §4.1).
	initial := e.rawTriggered()
	e.lastRawState = initial
	e.debouncedState = initial
	e.lastChangeTimeS = clock()
	return e
}

// rawTriggered samples the pin and applies polarity inversion, matching
// original_source/config.h's convention: inverting=false means triggered
// when the pin reads HIGH (an active-HIGH sensor, e.g. the X/Z optical
// endstops); inverting=true means triggered when the pin reads LOW (an
// active-LOW mechanical switch, e.g. Y). EndstopPullup only affects the
// pin's idle level when nothing else drives it; it does not change which
// level counts as triggered.
func (e *EndstopChannel) rawTriggered() bool {
	high := e.driver.ReadPin(e.pin)
	if e.inverting {
		return !high
	}
	return high
}

// IsTriggered returns the debounced triggered state. Every call samples
// the pin: a raw-state change restarts the debounce timer; once the raw
// state has held for at least the debounce window, it is promoted to the
// stable debounced value.
func (e *EndstopChannel) IsTriggered() bool {
	raw := e.rawTriggered()
	now := e.clock()
	if raw != e.lastRawState {
		e.lastRawState = raw
		e.lastChangeTimeS = now
	}
	if (now-e.lastChangeTimeS)*1000 >= e.debounceMS {
		e.debouncedState = raw
	}
	return e.debouncedState
}

// RawState returns the polarity-corrected, undebounced pin state.
func (e *EndstopChannel) RawState() bool {
	return e.rawTriggered()
}
