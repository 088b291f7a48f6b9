package stellaris

import (
	"errors"
	"sync"

	"lmgpio/core"
)

// ErrUnmapped is latched by SimBus on an access outside every GPIO block
var ErrUnmapped = errors.New("stellaris: access to unmapped address")

// SimBus is an in-memory model of a variant's GPIO blocks. It implements
// the parts of the register semantics the configurator relies on: the
// address-masked DATA window, write-1-to-clear ICR and MIS = RIS & IM.
// Input levels and interrupt edges are injected with SetInput and Raise.
type SimBus struct {
	mu      sync.Mutex
	variant Variant
	regs    map[uintptr]uint32 // keyed by absolute address, DATA at base
	fault   error
}

// NewSimBus returns a bus with every register of v at its reset value
func NewSimBus(v Variant) *SimBus {
	return &SimBus{variant: v, regs: make(map[uintptr]uint32)}
}

// Variant returns the modelled part
func (s *SimBus) Variant() Variant { return s.variant }

// locate splits addr into a port base and an offset
func (s *SimBus) locate(addr uintptr) (uintptr, uintptr, bool) {
	for _, base := range s.variant.Ports {
		if base != 0 && addr >= base && addr < base+0x1000 {
			return base, addr - base, true
		}
	}
	return 0, 0, false
}

func (s *SimBus) latch(err error) {
	if s.fault == nil {
		s.fault = err
	}
}

func (s *SimBus) Load(addr uintptr) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, off, ok := s.locate(addr)
	if !ok || off&3 != 0 {
		s.latch(ErrUnmapped)
		return 0
	}
	switch {
	case off <= OffDataAll:
		return s.regs[base] & uint32(off>>2)
	case off == OffMIS:
		return s.regs[base+OffRIS] & s.regs[base+OffIM]
	case off == OffICR:
		return 0
	case off == OffAMSEL && !s.variant.AnalogSelect,
		off == OffPCTL && !s.variant.PortControl:
		s.latch(ErrUnmapped)
		return 0
	}
	return s.regs[addr]
}

func (s *SimBus) Store(addr uintptr, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, off, ok := s.locate(addr)
	if !ok || off&3 != 0 {
		s.latch(ErrUnmapped)
		return
	}
	switch {
	case off <= OffDataAll:
		mask := uint32(off >> 2)
		s.regs[base] = s.regs[base]&^mask | v&mask
	case off == OffICR:
		s.regs[base+OffRIS] &^= v & 0xFF
	case off == OffRIS, off == OffMIS:
		// read-only
	case off == OffAMSEL && !s.variant.AnalogSelect,
		off == OffPCTL && !s.variant.PortControl:
		s.latch(ErrUnmapped)
	case off == OffPCTL:
		s.regs[addr] = v
	default:
		s.regs[addr] = v & 0xFF
	}
}

// Fault returns and clears the first unmapped access since the last call
func (s *SimBus) Fault() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.fault
	s.fault = nil
	return err
}

// Peek returns a register without side effects. DATA reads all pins.
func (s *SimBus) Peek(p core.Port, r core.Reg) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	base := s.variant.Ports[p]
	if r == core.RegData {
		return s.regs[base]
	}
	if r == core.RegMIS {
		return s.regs[base+OffRIS] & s.regs[base+OffIM]
	}
	return s.regs[base+offsets[r]]
}

// Poke sets a register without side effects
func (s *SimBus) Poke(p core.Port, r core.Reg, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	base := s.variant.Ports[p]
	if r == core.RegData {
		s.regs[base] = v
		return
	}
	s.regs[base+offsets[r]] = v
}

// SetInput drives the level seen on a pin. Pins configured as outputs
// keep the value written by software.
func (s *SimBus) SetInput(ps core.PinSet, high bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	base := s.variant.Ports[ps.Port()]
	mask := uint32(1) << ps.Pin()
	if s.regs[base+OffDir]&mask != 0 {
		return
	}
	if high {
		s.regs[base] |= mask
	} else {
		s.regs[base] &^= mask
	}
}

// Raise latches an interrupt event on a pin as the edge detector would
func (s *SimBus) Raise(ps core.PinSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	base := s.variant.Ports[ps.Port()]
	s.regs[base+OffRIS] |= 1 << ps.Pin()
}
