//go:build tinygo

package core

import "runtime/interrupt"

// State is the saved interrupt mask
type State = interrupt.State

// IRQ is one interrupt source. On the MCU a handler cannot be preempted by
// itself, so Enter and Exit are free; Disable masks every interrupt for the
// duration of a mainline critical section.
type IRQ struct{}

// Enter marks the start of a handler body.
func (q *IRQ) Enter() {}

// Exit marks the end of a handler body.
func (q *IRQ) Exit() {}

// Disable disables interrupts and returns the previous state. It masks
// every source, not just q; the sections it guards are a few loads long.
func (q *IRQ) Disable() State {
	return interrupt.Disable()
}

// Restore restores the interrupt state
func (q *IRQ) Restore(state State) {
	interrupt.Restore(state)
}

// disableInterrupts disables interrupts and returns the previous state
func disableInterrupts() State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state State) {
	interrupt.Restore(state)
}
