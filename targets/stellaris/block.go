package stellaris

import "lmgpio/core"

// Bus performs 32-bit register accesses at absolute addresses
type Bus interface {
	Load(addr uintptr) uint32
	Store(addr uintptr, v uint32)
}

// Register offsets from the port base
const (
	OffData  = 0x000 // GPIODATA window, address bits 9:2 select the pins
	OffDir   = 0x400
	OffIS    = 0x404
	OffIBE   = 0x408
	OffIEV   = 0x40C
	OffIM    = 0x410
	OffRIS   = 0x414
	OffMIS   = 0x418
	OffICR   = 0x41C
	OffAFSEL = 0x420
	OffDR2R  = 0x500
	OffDR4R  = 0x504
	OffDR8R  = 0x508
	OffODR   = 0x50C
	OffPUR   = 0x510
	OffPDR   = 0x514
	OffSLR   = 0x518
	OffDEN   = 0x51C
	OffAMSEL = 0x528
	OffPCTL  = 0x52C

	// All eight pins through the DATA window
	OffDataAll = OffData + 0xFF<<2
)

var offsets = [core.NumRegs]uintptr{
	core.RegData:  OffDataAll,
	core.RegDir:   OffDir,
	core.RegIS:    OffIS,
	core.RegIBE:   OffIBE,
	core.RegIEV:   OffIEV,
	core.RegIM:    OffIM,
	core.RegRIS:   OffRIS,
	core.RegMIS:   OffMIS,
	core.RegICR:   OffICR,
	core.RegAFSEL: OffAFSEL,
	core.RegDR2R:  OffDR2R,
	core.RegDR4R:  OffDR4R,
	core.RegDR8R:  OffDR8R,
	core.RegODR:   OffODR,
	core.RegPUR:   OffPUR,
	core.RegPDR:   OffPDR,
	core.RegSLR:   OffSLR,
	core.RegDEN:   OffDEN,
	core.RegAMSEL: OffAMSEL,
	core.RegPCTL:  OffPCTL,
}

// Offset returns the offset of r from the port base
func Offset(r core.Reg) uintptr {
	return offsets[r]
}

// Block is one port's register block on a Bus
type Block struct {
	bus  Bus
	base uintptr
}

// NewBlock returns the block at base on bus
func NewBlock(bus Bus, base uintptr) *Block {
	return &Block{bus: bus, base: base}
}

func (b *Block) Read(r core.Reg) uint32     { return b.bus.Load(b.base + offsets[r]) }
func (b *Block) Write(r core.Reg, v uint32) { b.bus.Store(b.base+offsets[r], v) }
func (b *Block) Base() uintptr              { return b.base }

// WriteMasked stores v to the bits in mask only. For DATA this is a single
// store through the address-masked window; other registers fall back to a
// read-modify-write.
func (b *Block) WriteMasked(r core.Reg, mask, v uint32) {
	if r != core.RegData {
		b.Write(r, b.Read(r)&^mask|v&mask)
		return
	}
	b.bus.Store(b.base+OffData+uintptr(mask&0xFF)<<2, v)
}

// Fault reports a latched bus error when the bus can fail
func (b *Block) Fault() error {
	if f, ok := b.bus.(core.Faulter); ok {
		return f.Fault()
	}
	return nil
}
