package core

// Snapshot is a copy of one port's readable registers
type Snapshot struct {
	Chip    string
	PinSet  PinSet
	Base    uintptr // 0 if the block does not report one
	Regs    [NumRegs]uint32
	Present [NumRegs]bool
}

// Value returns register r and whether the chip has it
func (s *Snapshot) Value(r Reg) (uint32, bool) {
	if r >= NumRegs {
		return 0, false
	}
	return s.Regs[r], s.Present[r]
}

// readable reports whether r can be read on this chip
func (c *Configurator) readable(r Reg) bool {
	switch r {
	case RegICR:
		return false
	case RegAMSEL:
		return c.chip.HasAnalogMode()
	case RegPCTL:
		return c.chip.HasAlternateFunction()
	}
	return true
}

// Snapshot reads every readable register of the pin-set's port.
// No register is written.
func (c *Configurator) Snapshot(ps PinSet) (Snapshot, error) {
	b, err := c.resolve("dump", uint32(ps), ps.Port())
	if err != nil {
		return Snapshot{}, err
	}
	s := Snapshot{Chip: c.chip.Name(), PinSet: ps}
	if bb, ok := b.(Based); ok {
		s.Base = bb.Base()
	}
	for r := Reg(0); r < NumRegs; r++ {
		if !c.readable(r) {
			continue
		}
		s.Regs[r] = b.Read(r)
		s.Present[r] = true
	}
	if err := fault("dump", uint32(ps), b); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// dumpRows groups registers the way they are read on a datasheet
var dumpRows = [][]Reg{
	{RegAFSEL, RegDEN, RegDir, RegData},
	{RegIS, RegIBE, RegIEV, RegIM, RegRIS, RegMIS},
	{RegDR2R, RegDR4R, RegDR8R, RegSLR},
	{RegODR, RegPUR, RegPDR, RegAMSEL, RegPCTL},
}

// Lines renders the snapshot under label
func (s *Snapshot) Lines(label string) []string {
	port := s.PinSet.Port()
	head := port.String() + " pinset: " + hex32(uint32(s.PinSet))
	if s.Base != 0 {
		head += " base: " + hex32(uint32(s.Base))
	}
	if label != "" {
		head += " -- " + label
	}
	lines := []string{head}
	for _, row := range dumpRows {
		line := " "
		for _, r := range row {
			v, ok := s.Value(r)
			if !ok {
				continue
			}
			if r == RegPCTL {
				line += " " + r.String() + ": " + hex32(v)
				continue
			}
			line += " " + padRight(r.String()+":", 6) + hex8(v)
		}
		lines = append(lines, line)
	}
	return lines
}

// DumpRegisters writes a labelled dump of the pin-set's port registers to
// the dump writer (the debug writer unless WithDumpWriter was given).
// Fails only if the port cannot be resolved or read.
func (c *Configurator) DumpRegisters(ps PinSet, label string) error {
	w := c.dump
	if w == nil {
		w = debugPrintln
	}
	return c.dumpTo(ps, label, w)
}

func (c *Configurator) dumpTo(ps PinSet, label string, w DebugWriter) error {
	s, err := c.Snapshot(ps)
	if err != nil {
		return err
	}
	for _, line := range s.Lines(label) {
		w(line)
	}
	return nil
}
