package core

import (
	"errors"
	"sync/atomic"
)

type access struct {
	write bool
	reg   Reg
	value uint32
}

// MockRegisterBlock is an in-memory register block that records every access
type MockRegisterBlock struct {
	regs    [NumRegs]uint32
	log     []access
	fault   error
	base    uintptr
	onWrite func(r Reg) // Called before each store
}

func (b *MockRegisterBlock) Read(r Reg) uint32 {
	b.log = append(b.log, access{reg: r, value: b.regs[r]})
	return b.regs[r]
}

func (b *MockRegisterBlock) Write(r Reg, v uint32) {
	if b.onWrite != nil {
		b.onWrite(r)
	}
	b.log = append(b.log, access{write: true, reg: r, value: v})
	b.regs[r] = v
}

func (b *MockRegisterBlock) Fault() error {
	if b.fault == nil {
		return nil
	}
	err := b.fault
	b.fault = nil
	return err
}

func (b *MockRegisterBlock) Base() uintptr { return b.base }

// writes returns the stored registers in order
func (b *MockRegisterBlock) writes() []Reg {
	var regs []Reg
	for _, a := range b.log {
		if a.write {
			regs = append(regs, a.reg)
		}
	}
	return regs
}

// lastWrite returns the index in log of the last store to r, or -1
func (b *MockRegisterBlock) lastWrite(r Reg) int {
	for i := len(b.log) - 1; i >= 0; i-- {
		if b.log[i].write && b.log[i].reg == r {
			return i
		}
	}
	return -1
}

// firstWrite returns the index in log of the first store to r, or -1
func (b *MockRegisterBlock) firstWrite(r Reg) int {
	for i, a := range b.log {
		if a.write && a.reg == r {
			return i
		}
	}
	return -1
}

// MaskedBlock adds the Stellaris masked DATA store to MockRegisterBlock
type MaskedBlock struct {
	MockRegisterBlock
	masked []uint32 // Masks passed to WriteMasked
}

func (b *MaskedBlock) WriteMasked(r Reg, mask, v uint32) {
	b.masked = append(b.masked, mask)
	b.Write(r, b.regs[r]&^mask|v&mask)
}

// MockChip resolves a fixed set of ports
type MockChip struct {
	name     string
	blocks   map[Port]RegisterBlock
	pctl     bool
	amsel    bool
	resolved atomic.Int32
}

func newMockChip(lm4f bool, ports ...Port) *MockChip {
	c := &MockChip{name: "mock", blocks: make(map[Port]RegisterBlock), pctl: lm4f, amsel: lm4f}
	for _, p := range ports {
		c.blocks[p] = &MockRegisterBlock{base: 0x40004000 + uintptr(p)*0x1000}
	}
	return c
}

func (c *MockChip) block(p Port) *MockRegisterBlock {
	switch b := c.blocks[p].(type) {
	case *MockRegisterBlock:
		return b
	case *MaskedBlock:
		return &b.MockRegisterBlock
	}
	return nil
}

func (c *MockChip) Name() string { return c.name }

func (c *MockChip) RegisterBlock(p Port) (RegisterBlock, error) {
	c.resolved.Add(1)
	b, ok := c.blocks[p]
	if !ok {
		return nil, ErrUnknownPort
	}
	return b, nil
}

func (c *MockChip) HasAlternateFunction() bool { return c.pctl }
func (c *MockChip) HasAnalogMode() bool        { return c.amsel }

var errBusTimeout = errors.New("bus timeout")
