package core

// IRQInitializer prepares GPIO interrupts during system bring-up
type IRQInitializer func(c *Configurator) error

var irqInit IRQInitializer = MaskAllIRQs

// SetIRQInitializer installs a platform-specific initializer.
// Passing nil restores MaskAllIRQs.
func SetIRQInitializer(fn IRQInitializer) {
	if fn == nil {
		fn = MaskAllIRQs
	}
	irqInit = fn
}

// InitializeIRQs runs the installed initializer once during bring-up,
// before any pin is configured as an interrupt source.
func (c *Configurator) InitializeIRQs() error {
	return irqInit(c)
}

// MaskAllIRQs is the default initializer: every pin of every port the chip
// resolves is masked and its latched interrupt cleared. Ports the variant
// does not have are skipped.
func MaskAllIRQs(c *Configurator) error {
	for p := Port(0); int(p) < MaxPorts; p++ {
		b, err := c.chip.RegisterBlock(p)
		if err != nil {
			continue
		}
		b = guard(b)
		c.locks.Lock(p)
		modify(b, RegIM, 0xFF, 0)
		b.Write(RegICR, 0xFF)
		c.locks.Unlock(p)
		if err := fault("irq", uint32(MakePinSet(p, 0)), b); err != nil {
			return err
		}
	}
	return nil
}

// EnableIRQ unmasks the pin's interrupt. Used by the interrupt controller
// once a handler is attached.
func (c *Configurator) EnableIRQ(ps PinSet) error {
	return c.irqUpdate(ps, func(b RegisterBlock, mask uint32) {
		modify(b, RegIM, 0, mask)
	})
}

// DisableIRQ masks the pin's interrupt
func (c *Configurator) DisableIRQ(ps PinSet) error {
	return c.irqUpdate(ps, func(b RegisterBlock, mask uint32) {
		modify(b, RegIM, mask, 0)
	})
}

// ClearIRQ acknowledges a latched edge on the pin
func (c *Configurator) ClearIRQ(ps PinSet) error {
	return c.irqUpdate(ps, func(b RegisterBlock, mask uint32) {
		b.Write(RegICR, mask)
	})
}

// PendingIRQs returns the port's masked interrupt status (one bit per pin)
func (c *Configurator) PendingIRQs(port Port) (uint8, error) {
	ps := MakePinSet(port, 0)
	b, err := c.resolve("irq", uint32(ps), port)
	if err != nil {
		return 0, err
	}
	v := uint8(b.Read(RegMIS))
	if err := fault("irq", uint32(ps), b); err != nil {
		return 0, err
	}
	return v, nil
}

func (c *Configurator) irqUpdate(ps PinSet, fn func(b RegisterBlock, mask uint32)) error {
	port := ps.Port()
	b, err := c.resolve("irq", uint32(ps), port)
	if err != nil {
		return err
	}
	b = guard(b)
	c.locks.Lock(port)
	fn(b, ps.mask())
	c.locks.Unlock(port)
	return fault("irq", uint32(ps), b)
}
