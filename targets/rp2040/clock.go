//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"fanctl/core"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// GetHardwareTime reads the low 32 bits of the 1MHz hardware timer
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// Ticker drives the boot clock from the hardware timer. Each Poll delivers
// one TimerTick for every full tick period elapsed since the previous one,
// so a briefly stalled main loop delays ticks but never drops them.
type Ticker struct {
	clock *core.Clock
	last  uint32
}

// NewTicker starts a ticker at the current hardware time.
func NewTicker(clock *core.Clock) *Ticker {
	return &Ticker{clock: clock, last: GetHardwareTime()}
}

// Poll catches the boot clock up with the hardware timer.
func (t *Ticker) Poll() {
	now := GetHardwareTime()
	for now-t.last >= core.TickMicros {
		t.last += core.TickMicros
		t.clock.TimerTick()
	}
}
