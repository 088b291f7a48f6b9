// GPIO (General Purpose Input/Output) pin configuration
// Applies bit-encoded descriptors to Stellaris-style GPIO register blocks
package core

// ConfigOption adjusts a Configurator
type ConfigOption func(*Configurator)

// WithLocker replaces the default per-port mutexes
func WithLocker(l PortLocker) ConfigOption {
	return func(c *Configurator) { c.locks = l }
}

// WithDumpWriter sends register dumps to w instead of the debug writer
func WithDumpWriter(w DebugWriter) ConfigOption {
	return func(c *Configurator) { c.dump = w }
}

// Configurator applies descriptors through a chip-support layer.
// It holds no pin state; the registers are the only state.
type Configurator struct {
	chip  ChipSupport
	locks PortLocker
	dump  DebugWriter
}

// NewConfigurator creates a Configurator for chip
func NewConfigurator(chip ChipSupport, opts ...ConfigOption) *Configurator {
	c := &Configurator{
		chip:  chip,
		locks: &PortMutexes{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chip returns the chip-support layer
func (c *Configurator) Chip() ChipSupport {
	return c.chip
}

// resolve looks up the register block for port
func (c *Configurator) resolve(op string, raw uint32, port Port) (RegisterBlock, error) {
	if int(port) >= MaxPorts {
		return nil, &ConfigError{Op: op, Desc: raw, Err: ErrUnknownPort}
	}
	b, err := c.chip.RegisterBlock(port)
	if err != nil {
		return nil, &ConfigError{Op: op, Desc: raw, Err: err}
	}
	return b, nil
}

// fault reports a bus fault latched by b during the last operation
func fault(op string, raw uint32, b RegisterBlock) error {
	if f, ok := b.(Faulter); ok {
		if err := f.Fault(); err != nil {
			return &ConfigError{Op: op, Desc: raw, Err: wrapAccess(err)}
		}
	}
	return nil
}

// guardedBlock stops touching a faulting block. The fault is checked after
// every access; once one is seen, reads return 0 and writes are dropped, so
// a failed read is never written back over the other pins.
type guardedBlock struct {
	RegisterBlock
	f   Faulter
	err error
}

// guard wraps b when its accesses can fail
func guard(b RegisterBlock) RegisterBlock {
	f, ok := b.(Faulter)
	if !ok {
		return b
	}
	return &guardedBlock{RegisterBlock: b, f: f}
}

func (g *guardedBlock) check() {
	if err := g.f.Fault(); err != nil && g.err == nil {
		g.err = err
	}
}

func (g *guardedBlock) Read(r Reg) uint32 {
	if g.err != nil {
		return 0
	}
	v := g.RegisterBlock.Read(r)
	g.check()
	if g.err != nil {
		return 0
	}
	return v
}

func (g *guardedBlock) Write(r Reg, v uint32) {
	if g.err != nil {
		return
	}
	g.RegisterBlock.Write(r, v)
	g.check()
}

func (g *guardedBlock) WriteMasked(r Reg, mask, v uint32) {
	mw, ok := g.RegisterBlock.(MaskedWriter)
	if !ok {
		modify(g, r, mask, v)
		return
	}
	if g.err != nil {
		return
	}
	mw.WriteMasked(r, mask, v)
	g.check()
}

// Fault returns the first error seen and rearms the guard
func (g *guardedBlock) Fault() error {
	g.check()
	err := g.err
	g.err = nil
	return err
}

// modify performs a read-modify-write: clear then set
func modify(b RegisterBlock, r Reg, clear, set uint32) {
	v := b.Read(r)
	b.Write(r, v&^clear|set)
}

// assign sets or clears mask in r
func assign(b RegisterBlock, r Reg, mask uint32, on bool) {
	if on {
		modify(b, r, 0, mask)
	} else {
		modify(b, r, mask, 0)
	}
}

// writeData updates the DATA bits in mask, using a masked store when the
// block supports one
func writeData(b RegisterBlock, mask uint32, on bool) {
	var v uint32
	if on {
		v = mask
	}
	if mw, ok := b.(MaskedWriter); ok {
		mw.WriteMasked(RegData, mask, v)
		return
	}
	modify(b, RegData, mask, v)
}

// checkEncoding rejects reserved codes in the fields that apply to the
// descriptor's function. Fields that do not apply are ignored.
func checkEncoding(d Descriptor) error {
	fn := d.Function()
	if fn.hasPad() && d.PadType() > padMax {
		return ErrReservedEncoding
	}
	if fn == FuncInterrupt && d.IntType() > intMax {
		return ErrReservedEncoding
	}
	return nil
}

// Configure applies descriptor d to its pin.
//
// The descriptor is checked and the port resolved before any register is
// touched: a reserved pad type (or a reserved interrupt type on an
// interrupt pin) fails with ErrReservedEncoding without any access. After
// that every step is a read-modify-write of the pin's own bit; the other
// pins of the port keep their configuration. Outputs get their initial
// level in DATA before DIR enables the driver. Interrupt pins are left
// masked. If the block reports a bus fault the sequence stops at the
// failed access and the error matches ErrRegisterAccess.
func (c *Configurator) Configure(d Descriptor) error {
	err := c.configure(d)
	recordConfig(d, CodeOf(err))
	return err
}

func (c *Configurator) configure(d Descriptor) error {
	if err := checkEncoding(d); err != nil {
		return &ConfigError{Op: "configure", Desc: uint32(d), Err: err}
	}
	port := d.Port()
	b, err := c.resolve("configure", uint32(d), port)
	if err != nil {
		return err
	}
	b = guard(b)

	c.locks.Lock(port)
	c.apply(b, d)
	c.locks.Unlock(port)

	if debugEnabled {
		DebugAsync("[GPIO] configured " + d.String())
	}
	return fault("configure", uint32(d), b)
}

func (c *Configurator) apply(b RegisterBlock, d Descriptor) {
	fn := d.Function()
	pin := d.Pin()
	mask := uint32(1) << pin

	switch fn {
	case FuncInput, FuncODInput:
		c.gpioControl(b, mask)
		modify(b, RegDir, mask, 0)
		c.pad(b, mask, d.PadType(), fn.openDrain())

	case FuncOutput, FuncODOutput:
		c.gpioControl(b, mask)
		strength(b, mask, d.Strength())
		c.pad(b, mask, d.PadType(), fn.openDrain())
		writeData(b, mask, d.InitialValue() == ValueOne)
		modify(b, RegDir, 0, mask)

	case FuncPeriphODIO, FuncPeriphIO:
		if c.chip.HasAnalogMode() {
			modify(b, RegAMSEL, mask, 0)
		}
		strength(b, mask, d.Strength())
		c.pad(b, mask, d.PadType(), fn.openDrain())
		if c.chip.HasAlternateFunction() {
			shift := uint32(pin) * 4
			modify(b, RegPCTL, 0xF<<shift, uint32(d.AltFunc())<<shift)
		}
		modify(b, RegDir, mask, 0)
		modify(b, RegAFSEL, 0, mask)

	case FuncAnalogInput:
		modify(b, RegDEN, mask, 0)
		if c.chip.HasAnalogMode() {
			modify(b, RegAMSEL, 0, mask)
		}

	case FuncInterrupt:
		modify(b, RegIM, mask, 0)
		c.gpioControl(b, mask)
		modify(b, RegDir, mask, 0)
		c.pad(b, mask, d.PadType(), false)
		sense(b, mask, d.IntType())
		b.Write(RegICR, mask)
	}
}

// gpioControl hands the pin back to the GPIO block and leaves analog mode
func (c *Configurator) gpioControl(b RegisterBlock, mask uint32) {
	modify(b, RegAFSEL, mask, 0)
	if c.chip.HasAnalogMode() {
		modify(b, RegAMSEL, mask, 0)
	}
}

// pad applies pad type p. forceOD adds the open-drain driver required by
// the open-drain functions regardless of p.
func (c *Configurator) pad(b RegisterBlock, mask uint32, p PadType, forceOD bool) {
	assign(b, RegODR, mask, forceOD || p.openDrain())
	assign(b, RegPUR, mask, p.pullUp())
	assign(b, RegPDR, mask, p.pullDown())
	if p == PadAnalog {
		modify(b, RegDEN, mask, 0)
		if c.chip.HasAnalogMode() {
			modify(b, RegAMSEL, 0, mask)
		}
		return
	}
	modify(b, RegDEN, 0, mask)
}

// strength selects exactly one drive register and the slew control bit
func strength(b RegisterBlock, mask uint32, s Strength) {
	assign(b, RegDR2R, mask, s == Strength2mA)
	assign(b, RegDR4R, mask, s == Strength4mA)
	assign(b, RegDR8R, mask, s == Strength8mA || s == Strength8mASC)
	assign(b, RegSLR, mask, s == Strength8mASC)
}

// sense programs IS/IBE/IEV for trigger t
func sense(b RegisterBlock, mask uint32, t IntType) {
	var level, both, high bool
	switch t {
	case IntFallingEdge:
	case IntRisingEdge:
		high = true
	case IntBothEdges:
		both = true
	case IntLowLevel:
		level = true
	case IntHighLevel:
		level, high = true, true
	}
	assign(b, RegIS, mask, level)
	assign(b, RegIBE, mask, both)
	assign(b, RegIEV, mask, high)
}

// WritePin drives the pin's DATA bit. The direction is not checked: writing
// an input's DATA bit preloads the level it will drive once it becomes an
// output.
func (c *Configurator) WritePin(ps PinSet, value bool) error {
	port := ps.Port()
	b, err := c.resolve("write", uint32(ps), port)
	if err != nil {
		return err
	}
	b = guard(b)
	c.locks.Lock(port)
	writeData(b, ps.mask(), value)
	c.locks.Unlock(port)
	return fault("write", uint32(ps), b)
}

// ReadPin returns the pad level from DATA whatever the pin's direction
func (c *Configurator) ReadPin(ps PinSet) (bool, error) {
	b, err := c.resolve("read", uint32(ps), ps.Port())
	if err != nil {
		return false, err
	}
	v := b.Read(RegData)&ps.mask() != 0
	if err := fault("read", uint32(ps), b); err != nil {
		return false, err
	}
	return v, nil
}
