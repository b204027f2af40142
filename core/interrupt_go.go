//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// IRQ models one interrupt source on regular Go. Handlers and mainline
// critical sections share a mutex, so tests running handlers on their own
// goroutines see the same exclusion the MCU provides by masking.
type IRQ struct {
	mu sync.Mutex
}

// Enter marks the start of a handler body.
func (q *IRQ) Enter() { q.mu.Lock() }

// Exit marks the end of a handler body.
func (q *IRQ) Exit() { q.mu.Unlock() }

// Disable masks the source for a mainline critical section.
func (q *IRQ) Disable() State {
	q.mu.Lock()
	return 0
}

// Restore ends a critical section started by Disable.
func (q *IRQ) Restore(State) { q.mu.Unlock() }

var globalIRQ IRQ

// disableInterrupts guards package-level state shared with handlers
func disableInterrupts() State {
	return globalIRQ.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state State) {
	globalIRQ.Restore(state)
}
