package core

import "sync"

// PortLocker serializes register read-modify-write sequences on one port.
//
// Pins of a port share every register, so two unsynchronized updates to
// different pins of the same port can drop one of the changes. The
// Configurator holds the port's lock for the whole of each Configure,
// WritePin and IRQ call. Reads and dumps do not take it.
type PortLocker interface {
	Lock(port Port)
	Unlock(port Port)
}

// PortMutexes is the default PortLocker: one mutex per port.
// Not usable from interrupt handlers.
type PortMutexes struct {
	mu [MaxPorts]sync.Mutex
}

func (m *PortMutexes) Lock(port Port)   { m.mu[port].Lock() }
func (m *PortMutexes) Unlock(port Port) { m.mu[port].Unlock() }

// InterruptLock masks interrupts for the duration of each sequence, which
// makes the Configurator callable from interrupt handlers on single-core
// parts. Sequences on different ports do not nest.
type InterruptLock struct {
	saved [MaxPorts]State
}

func (l *InterruptLock) Lock(port Port) {
	l.saved[port] = disableInterrupts()
}

func (l *InterruptLock) Unlock(port Port) {
	restoreInterrupts(l.saved[port])
}
