//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// hostIRQ stands in for the global interrupt mask so that host tests see
// the same mutual exclusion a single-core MCU gets from disabling interrupts.
var hostIRQ sync.Mutex

// disableInterrupts enters the host critical section
func disableInterrupts() State {
	hostIRQ.Lock()
	return 0
}

// restoreInterrupts leaves the host critical section
func restoreInterrupts(state State) {
	hostIRQ.Unlock()
}
