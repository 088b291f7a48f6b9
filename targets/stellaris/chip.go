package stellaris

import "lmgpio/core"

// Chip is the core.ChipSupport for one variant on a bus
type Chip struct {
	variant Variant
	blocks  [core.MaxPorts]*Block
}

// NewChip builds chip support for v with its registers on bus
func NewChip(v Variant, bus Bus) *Chip {
	c := &Chip{variant: v}
	for p, base := range v.Ports {
		if base != 0 {
			c.blocks[p] = NewBlock(bus, base)
		}
	}
	return c
}

func (c *Chip) Name() string               { return c.variant.Name }
func (c *Chip) Variant() Variant           { return c.variant }
func (c *Chip) HasAlternateFunction() bool { return c.variant.PortControl }
func (c *Chip) HasAnalogMode() bool        { return c.variant.AnalogSelect }

// RegisterBlock returns the block of port p or core.ErrUnknownPort
func (c *Chip) RegisterBlock(p core.Port) (core.RegisterBlock, error) {
	if int(p) >= len(c.blocks) || c.blocks[p] == nil {
		return nil, core.ErrUnknownPort
	}
	return c.blocks[p], nil
}
