package stellaris

import (
	"errors"
	"testing"

	"lmgpio/core"
)

func TestSimDataWindow(t *testing.T) {
	s := NewSimBus(LM4F120)
	s.Poke(core.PortF, core.RegData, 0xA5)

	if got := s.Load(BaseF + 0x3FC); got != 0xA5 {
		t.Errorf("all-pin read = %#x, want 0xa5", got)
	}
	// Only PF0 and PF2 are visible through mask 0x05
	if got := s.Load(BaseF + 0x05<<2); got != 0x05 {
		t.Errorf("masked read = %#x, want 0x05", got)
	}

	s.Store(BaseF+0x02<<2, 0xFF)
	if got := s.Peek(core.PortF, core.RegData); got != 0xA7 {
		t.Errorf("DATA after masked store = %#x, want 0xa7", got)
	}
}

func TestSimInterruptStatus(t *testing.T) {
	s := NewSimBus(LM4F120)
	pf4 := core.MakePinSet(core.PortF, 4)

	s.Raise(pf4)
	if got := s.Load(BaseF + OffRIS); got != 0x10 {
		t.Errorf("RIS = %#x, want 0x10", got)
	}
	if got := s.Load(BaseF + OffMIS); got != 0 {
		t.Errorf("MIS = %#x with the pin masked", got)
	}
	s.Store(BaseF+OffIM, 0x10)
	if got := s.Load(BaseF + OffMIS); got != 0x10 {
		t.Errorf("MIS = %#x, want 0x10", got)
	}
	s.Store(BaseF+OffICR, 0x10)
	if got := s.Load(BaseF + OffRIS); got != 0 {
		t.Errorf("RIS = %#x after ICR", got)
	}
}

func TestSimUnmapped(t *testing.T) {
	s := NewSimBus(LM3S6965)
	s.Store(BaseH+OffDir, 1)
	if err := s.Fault(); !errors.Is(err, ErrUnmapped) {
		t.Errorf("store to port H on lm3s6965: fault = %v", err)
	}
	if err := s.Fault(); err != nil {
		t.Errorf("fault not cleared: %v", err)
	}

	s.Load(BaseA + OffPCTL)
	if err := s.Fault(); !errors.Is(err, ErrUnmapped) {
		t.Errorf("PCTL read on lm3s6965: fault = %v", err)
	}
}

func TestSimSetInput(t *testing.T) {
	s := NewSimBus(LM4F120)
	pb2 := core.MakePinSet(core.PortB, 2)

	s.SetInput(pb2, true)
	if s.Peek(core.PortB, core.RegData) != 0x04 {
		t.Error("input level not visible in DATA")
	}

	// Outputs keep the software value
	s.Poke(core.PortB, core.RegDir, 0x04)
	s.SetInput(pb2, false)
	if s.Peek(core.PortB, core.RegData) != 0x04 {
		t.Error("SetInput changed an output")
	}
}
