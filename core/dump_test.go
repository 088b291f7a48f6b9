package core

import (
	"errors"
	"strings"
	"testing"
)

func TestDumpRegisters(t *testing.T) {
	chip := newMockChip(false, PortF)
	b := chip.block(PortF)
	b.base = 0x40025000
	b.regs[RegDEN] = 0x29
	b.regs[RegRIS] = 0x10

	var lines []string
	c := NewConfigurator(chip, WithDumpWriter(func(s string) { lines = append(lines, s) }))
	if err := c.DumpRegisters(MakePinSet(PortF, 1), "after config"); err != nil {
		t.Fatalf("DumpRegisters: %v", err)
	}

	if len(lines) != 1+len(dumpRows) {
		t.Fatalf("dump has %d lines: %q", len(lines), lines)
	}
	if want := "GPIOF pinset: 0x00000029 base: 0x40025000 -- after config"; lines[0] != want {
		t.Errorf("header = %q, want %q", lines[0], want)
	}
	all := strings.Join(lines, "\n")
	for _, want := range []string{"DEN:  0x29", "RIS:  0x10", "SLR:  0x00"} {
		if !strings.Contains(all, want) {
			t.Errorf("dump missing %q:\n%s", want, all)
		}
	}
	for _, absent := range []string{"AMSEL", "PCTL", "ICR"} {
		if strings.Contains(all, absent) {
			t.Errorf("dump shows %s on a chip without it", absent)
		}
	}
	if w := b.writes(); len(w) != 0 {
		t.Errorf("dump stored to %v", w)
	}
}

func TestSnapshotLM4F(t *testing.T) {
	chip := newMockChip(true, PortB)
	chip.block(PortB).regs[RegPCTL] = 0x00003300
	c := NewConfigurator(chip)

	s, err := c.Snapshot(MakePinSet(PortB, 2))
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if v, ok := s.Value(RegPCTL); !ok || v != 0x3300 {
		t.Errorf("PCTL = 0x%x, %v", v, ok)
	}
	if _, ok := s.Value(RegICR); ok {
		t.Error("ICR is write-only")
	}
	if _, ok := s.Value(NumRegs); ok {
		t.Error("out of range register reported present")
	}
	lines := s.Lines("")
	if strings.Contains(lines[0], "--") {
		t.Errorf("empty label rendered: %q", lines[0])
	}
	if !strings.Contains(lines[len(lines)-1], "PCTL: 0x00003300") {
		t.Errorf("PCTL row = %q", lines[len(lines)-1])
	}
}

func TestDumpUnknownPort(t *testing.T) {
	var lines []string
	c := NewConfigurator(newMockChip(false, PortA), WithDumpWriter(func(s string) { lines = append(lines, s) }))
	if err := c.DumpRegisters(MakePinSet(PortH, 0), "x"); !errors.Is(err, ErrUnknownPort) {
		t.Errorf("DumpRegisters(PH0) = %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("partial dump written: %q", lines)
	}
}
