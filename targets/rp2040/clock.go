//go:build rp2040 || rp2350

package main

import (
	"runtime/volatile"
	"unsafe"
)

// RP2040/RP2350 Timer peripheral memory map.
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x08
	timerTIMERAWL = timerBase + 0x0C
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// hardwareUptimeMicros reads the full 64-bit RP2040 free-running
// microsecond timer, retrying on a high-word rollover mid-read.
func hardwareUptimeMicros() uint64 {
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()
		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// machineClock is the machine.Clock this target hands to NewDispatcher:
// seconds since boot, derived from the RP2040's 1MHz hardware timer.
func machineClock() float64 {
	return float64(hardwareUptimeMicros()) / 1e6
}
