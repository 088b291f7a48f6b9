package stellaris

import (
	"encoding/binary"
	"sync"

	"tinygo.org/x/drivers"
)

// I2CBus reaches the register map of a target held in reset through an
// I2C debug bridge. A load writes the 4-byte big-endian address and reads
// 4 bytes back; a store writes the address followed by the value.
// The first failed transfer is latched and reported by Fault.
type I2CBus struct {
	mu    sync.Mutex
	bus   drivers.I2C
	addr  uint16
	fault error
}

// NewI2CBus returns a bus talking to the bridge at addr
func NewI2CBus(bus drivers.I2C, addr uint16) *I2CBus {
	return &I2CBus{bus: bus, addr: addr}
}

func (b *I2CBus) Load(addr uintptr) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	var w, r [4]byte
	binary.BigEndian.PutUint32(w[:], uint32(addr))
	if err := b.bus.Tx(b.addr, w[:], r[:]); err != nil {
		b.latch(err)
		return 0
	}
	return binary.BigEndian.Uint32(r[:])
}

func (b *I2CBus) Store(addr uintptr, v uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var w [8]byte
	binary.BigEndian.PutUint32(w[:4], uint32(addr))
	binary.BigEndian.PutUint32(w[4:], v)
	if err := b.bus.Tx(b.addr, w[:], nil); err != nil {
		b.latch(err)
	}
}

func (b *I2CBus) latch(err error) {
	if b.fault == nil {
		b.fault = err
	}
}

// Fault returns and clears the first transfer error since the last call
func (b *I2CBus) Fault() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.fault
	b.fault = nil
	return err
}
