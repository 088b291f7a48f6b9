package core

import (
	"errors"
	"testing"
)

func TestDescriptorRoundTrip(t *testing.T) {
	for fn := Function(0); fn <= FuncInterrupt; fn++ {
		for s := Strength(0); s <= Strength8mASC; s++ {
			for pad := PadType(0); pad <= padMax; pad++ {
				for it := IntType(0); it <= intMax; it++ {
					f := Fields{
						Function: fn,
						Strength: s,
						Pad:      pad,
						Int:      it,
						Alt:      AltFunc((int(fn) + int(pad)) % 16),
						Value:    Value(int(s) & 1),
						Port:     Port(int(it) * 2),
						Pin:      Pin(int(pad)),
					}
					if got := Decode(Encode(f)); got != f {
						t.Fatalf("Decode(Encode(%+v)) = %+v", f, got)
					}
				}
			}
		}
	}
}

func TestDescriptorFieldIsolation(t *testing.T) {
	// Each field at its maximum must not leak into any other accessor
	tests := []struct {
		name string
		f    Fields
	}{
		{"function", Fields{Function: 7}},
		{"strength", Fields{Strength: 3}},
		{"pad", Fields{Pad: 7}},
		{"int", Fields{Int: 7}},
		{"alt", Fields{Alt: 15}},
		{"value", Fields{Value: 1}},
		{"port", Fields{Port: 15}},
		{"pin", Fields{Pin: 7}},
	}
	for _, tt := range tests {
		if got := Decode(tt.f.Encode()); got != tt.f {
			t.Errorf("%s: decoded %+v, want %+v", tt.name, got, tt.f)
		}
	}

	var all Descriptor
	for _, tt := range tests {
		d := tt.f.Encode()
		if all&d != 0 {
			t.Errorf("%s overlaps another field: 0x%08x", tt.name, d)
		}
		all |= d
	}
	if all != 0xFFFF00FF&^(1<<20) {
		t.Errorf("fields cover 0x%08x", uint32(all))
	}
}

func TestDescriptorAccessorsTotal(t *testing.T) {
	d := Descriptor(0xFFFFFFFF)
	got := Decode(d)
	want := Fields{Function: 7, Strength: 3, Pad: 7, Int: 7, Alt: 15, Value: 1, Port: 15, Pin: 7}
	if got != want {
		t.Errorf("Decode(0xffffffff) = %+v", got)
	}
	if d.PinSet() != 0x7F {
		t.Errorf("PinSet = 0x%x, want 0x7f", uint32(d.PinSet()))
	}
	if Descriptor(0).Function() != FuncInput || Descriptor(0).Port() != PortA {
		t.Error("zero descriptor should be an input on PA0")
	}
}

func TestDescriptorKnownEncodings(t *testing.T) {
	tests := []struct {
		f    Fields
		want uint32
	}{
		// UART0 RX on PA0, alternate function 1
		{Fields{Function: FuncPeriphIO, Alt: 1, Port: PortA, Pin: 0}, 0xA0010000},
		// Red LED on PF1, 8mA, initially high
		{Fields{Function: FuncOutput, Strength: Strength8mA, Value: ValueOne, Port: PortF, Pin: 1}, 0x300000A9},
		// Switch on PF4, pull-up, falling edge interrupt
		{Fields{Function: FuncInterrupt, Pad: PadStdWPU, Int: IntFallingEdge, Port: PortF, Pin: 4}, 0xE100002C},
		// ADC input on PE3
		{Fields{Function: FuncAnalogInput, Port: PortE, Pin: 3}, 0xC0000023},
		// I2C0 SDA on PB3
		{Fields{Function: FuncPeriphODIO, Alt: 3, Port: PortB, Pin: 3}, 0x8003000B},
	}
	for _, tt := range tests {
		if got := uint32(MustEncode(tt.f)); got != tt.want {
			t.Errorf("Encode(%+v) = 0x%08x, want 0x%08x", tt.f, got, tt.want)
		}
	}
}

func TestPinSet(t *testing.T) {
	ps := MakePinSet(PortJ, 6)
	if ps.Port() != PortJ || ps.Pin() != 6 || uint32(ps) != 0x46 {
		t.Errorf("MakePinSet(J, 6) = 0x%x", uint32(ps))
	}
	if ps.mask() != 0x40 {
		t.Errorf("mask = 0x%x", ps.mask())
	}

	d := MustEncode(Fields{Function: FuncOutput, Value: ValueOne, Port: PortA, Pin: 1})
	moved := d.WithPinSet(ps)
	if moved.PinSet() != ps || moved.Function() != FuncOutput || moved.InitialValue() != ValueOne {
		t.Errorf("WithPinSet = %s", moved)
	}
}

func TestFieldsValidate(t *testing.T) {
	bad := []Fields{
		{Function: 8},
		{Strength: 4},
		{Pad: 7},
		{Int: 5},
		{Alt: 16},
		{Value: 2},
		{Port: 9},
		{Pin: 8},
	}
	for _, f := range bad {
		err := f.Validate()
		if !errors.Is(err, ErrInvalidField) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidField", f, err)
		}
	}
	if err := (Fields{Port: PortJ, Pin: 7, Alt: 15}).Validate(); err != nil {
		t.Errorf("valid fields rejected: %v", err)
	}
}

func TestMustEncodePanics(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrInvalidField) {
			t.Errorf("recovered %v, want a field error", r)
		}
	}()
	MustEncode(Fields{Function: FuncOutput, Pin: 9})
}

func TestNewDescriptor(t *testing.T) {
	d, err := NewDescriptor(FuncPeriphIO, OnPin(PortC, 4), WithAlt(2), WithStrength(Strength4mA), WithPad(PadStdWPU))
	if err != nil {
		t.Fatalf("NewDescriptor: %v", err)
	}
	want := Fields{Function: FuncPeriphIO, Strength: Strength4mA, Pad: PadStdWPU, Alt: 2, Port: PortC, Pin: 4}
	if d.Fields() != want {
		t.Errorf("fields = %+v, want %+v", d.Fields(), want)
	}

	d, err = NewDescriptor(FuncInterrupt, OnPin(PortF, 0), WithInterrupt(IntRisingEdge), WithInitial(ValueOne))
	if err != nil || d.IntType() != IntRisingEdge || d.InitialValue() != ValueOne {
		t.Errorf("NewDescriptor(interrupt) = %s, %v", d, err)
	}

	if _, err := NewDescriptor(FuncOutput, WithInterrupt(6)); !errors.Is(err, ErrInvalidField) {
		t.Errorf("reserved trigger accepted: %v", err)
	}
}

func TestFunctionAliases(t *testing.T) {
	if FuncPeriphInput != FuncPeriphIO || FuncPeriphOutput != FuncPeriphIO {
		t.Error("peripheral functions share one code")
	}
	if FuncAnalogIO != FuncAnalogInput {
		t.Error("analog functions share one code")
	}
}
