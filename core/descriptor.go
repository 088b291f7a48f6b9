// Bit-encoded GPIO pin descriptors
// A Descriptor packs everything needed to configure one pin into 32 bits:
//
//	LM3S: FFFS SPPP III. .... .... .... VPPP PBBB
//	LM4F: FFFS SPPP III. AAAA .... .... VPPP PBBB
//
// Bit positions are a stable ABI; boards define pins as constants.
package core

import (
	"golang.org/x/exp/constraints"
)

// Descriptor is the bit-encoded configuration of one GPIO pin
type Descriptor uint32

// PinSet identifies one pin (port + pin number) using the descriptor layout
type PinSet uint32

// Field positions
const (
	FuncShift     = 29 // Bits 31-29: primary function
	FuncMask      = 7 << FuncShift
	StrengthShift = 27 // Bits 28-27: pad drive strength
	StrengthMask  = 3 << StrengthShift
	PadShift      = 24 // Bits 26-24: pad type
	PadMask       = 7 << PadShift
	IntShift      = 21 // Bits 23-21: interrupt type
	IntMask       = 7 << IntShift
	AltShift      = 16 // Bits 19-16: alternate function (LM4F class parts)
	AltMask       = 15 << AltShift
	ValueShift    = 7 // Bit 7: initial output value
	ValueMask     = 1 << ValueShift
	PortShift     = 3 // Bits 6-3: port
	PortMask      = 15 << PortShift
	PinShift      = 0 // Bits 2-0: pin within the port
	PinMask       = 7 << PinShift
)

// Function selects the primary role of the pin
type Function uint8

const (
	FuncInput        Function = 0 // Digital GPIO input
	FuncOutput       Function = 1 // Digital GPIO output
	FuncODInput      Function = 2 // Open-drain GPIO input
	FuncODOutput     Function = 3 // Open-drain GPIO output
	FuncPeriphODIO   Function = 4 // Open-drain peripheral input/output (I2C)
	FuncPeriphInput  Function = 5 // Peripheral input (timer, CCP)
	FuncPeriphOutput Function = 5 // Peripheral output (timer, PWM, comparator)
	FuncPeriphIO     Function = 5 // Peripheral input/output (SSI, UART)
	FuncAnalogInput  Function = 6 // Analog input (ADC, comparator)
	FuncAnalogIO     Function = 6 // Analog input/output (USB)
	FuncInterrupt    Function = 7 // Input with edge/level interrupt detection
)

// Strength selects the pad drive current
type Strength uint8

const (
	Strength2mA   Strength = 0
	Strength4mA   Strength = 1
	Strength8mA   Strength = 2
	Strength8mASC Strength = 3 // 8mA with slew rate control
)

// PadType selects the electrical termination of the pad
type PadType uint8

const (
	PadStd    PadType = 0 // Push-pull
	PadStdWPU PadType = 1 // Push-pull with weak pull-up
	PadStdWPD PadType = 2 // Push-pull with weak pull-down
	PadOD     PadType = 3 // Open-drain
	PadODWPU  PadType = 4 // Open-drain with weak pull-up
	PadODWPD  PadType = 5 // Open-drain with weak pull-down
	PadAnalog PadType = 6 // Analog comparator
	padMax            = PadAnalog
)

// IntType selects what the pin interrupt detects
type IntType uint8

const (
	IntFallingEdge IntType = 0
	IntRisingEdge  IntType = 1
	IntBothEdges   IntType = 2
	IntLowLevel    IntType = 3
	IntHighLevel   IntType = 4
	intMax                 = IntHighLevel
)

// AltFunc is the peripheral mux selector written to GPIOPCTL (0 = none)
type AltFunc uint8

const AltNone AltFunc = 0

// Value is the level driven by an output right after configuration
type Value uint8

const (
	ValueZero Value = 0
	ValueOne  Value = 1
)

// Port identifies a GPIO port. There is no port I.
type Port uint8

const (
	PortA Port = iota
	PortB
	PortC
	PortD
	PortE
	PortF
	PortG
	PortH
	PortJ

	// MaxPorts is the number of port codes any variant can use
	MaxPorts = int(PortJ) + 1
)

// Pin is the pin number within a port
type Pin uint8

const PinsPerPort = 8

// field extracts a shifted field from a raw value
func field[T constraints.Unsigned, R ~uint32](raw R, mask uint32, shift uint) T {
	return T((uint32(raw) & mask) >> shift)
}

// place positions a field value, dropping bits that do not fit the mask
func place[T constraints.Unsigned](v T, mask uint32, shift uint) uint32 {
	return (uint32(v) << shift) & mask
}

func (d Descriptor) Function() Function  { return field[Function](d, FuncMask, FuncShift) }
func (d Descriptor) Strength() Strength  { return field[Strength](d, StrengthMask, StrengthShift) }
func (d Descriptor) PadType() PadType    { return field[PadType](d, PadMask, PadShift) }
func (d Descriptor) IntType() IntType    { return field[IntType](d, IntMask, IntShift) }
func (d Descriptor) AltFunc() AltFunc    { return field[AltFunc](d, AltMask, AltShift) }
func (d Descriptor) InitialValue() Value { return field[Value](d, ValueMask, ValueShift) }
func (d Descriptor) Port() Port          { return field[Port](d, PortMask, PortShift) }
func (d Descriptor) Pin() Pin            { return field[Pin](d, PinMask, PinShift) }
func (d Descriptor) PinSet() PinSet      { return PinSet(uint32(d) & (PortMask | PinMask)) }
func (p PinSet) Port() Port              { return field[Port](p, PortMask, PortShift) }
func (p PinSet) Pin() Pin                { return field[Pin](p, PinMask, PinShift) }
func (p PinSet) mask() uint32            { return 1 << p.Pin() }
func (d Descriptor) Fields() Fields      { return Decode(d) }
func (d Descriptor) WithPinSet(p PinSet) Descriptor {
	return d&^(PortMask|PinMask) | Descriptor(uint32(p)&(PortMask|PinMask))
}

// MakePinSet builds the pin-set for port/pin
func MakePinSet(port Port, pin Pin) PinSet {
	return PinSet(place(port, PortMask, PortShift) | place(pin, PinMask, PinShift))
}

// Fields is the decoded form of a Descriptor
type Fields struct {
	Function Function
	Strength Strength
	Pad      PadType
	Int      IntType
	Alt      AltFunc
	Value    Value
	Port     Port
	Pin      Pin
}

// Decode extracts every field of d. Fields that do not apply to the
// function are returned as encoded; the configurator ignores them.
func Decode(d Descriptor) Fields {
	return Fields{
		Function: d.Function(),
		Strength: d.Strength(),
		Pad:      d.PadType(),
		Int:      d.IntType(),
		Alt:      d.AltFunc(),
		Value:    d.InitialValue(),
		Port:     d.Port(),
		Pin:      d.Pin(),
	}
}

// Encode ORs the shifted fields together. Out-of-range values are truncated
// to their field width; use Validate or MustEncode to catch them.
func (f Fields) Encode() Descriptor {
	return Descriptor(place(f.Function, FuncMask, FuncShift) |
		place(f.Strength, StrengthMask, StrengthShift) |
		place(f.Pad, PadMask, PadShift) |
		place(f.Int, IntMask, IntShift) |
		place(f.Alt, AltMask, AltShift) |
		place(f.Value, ValueMask, ValueShift) |
		place(f.Port, PortMask, PortShift) |
		place(f.Pin, PinMask, PinShift))
}

// Encode is a convenience for f.Encode()
func Encode(f Fields) Descriptor {
	return f.Encode()
}

// Validate reports the first field whose value is outside its domain.
// Fields that do not apply to the selected function are still checked so
// that constants are built cleanly.
func (f Fields) Validate() error {
	switch {
	case f.Function > FuncInterrupt:
		return fieldError("function", uint32(f.Function))
	case f.Strength > Strength8mASC:
		return fieldError("strength", uint32(f.Strength))
	case f.Pad > padMax:
		return fieldError("pad", uint32(f.Pad))
	case f.Int > intMax:
		return fieldError("interrupt", uint32(f.Int))
	case f.Alt > 15:
		return fieldError("alt", uint32(f.Alt))
	case f.Value > ValueOne:
		return fieldError("value", uint32(f.Value))
	case int(f.Port) >= MaxPorts:
		return fieldError("port", uint32(f.Port))
	case f.Pin >= PinsPerPort:
		return fieldError("pin", uint32(f.Pin))
	}
	return nil
}

// MustEncode encodes f and panics if a field is out of range.
// Intended for package-level descriptor tables.
func MustEncode(f Fields) Descriptor {
	if err := f.Validate(); err != nil {
		panic(err)
	}
	return f.Encode()
}

// Option adjusts a descriptor under construction
type Option func(*Fields)

func WithStrength(s Strength) Option  { return func(f *Fields) { f.Strength = s } }
func WithPad(p PadType) Option        { return func(f *Fields) { f.Pad = p } }
func WithInterrupt(t IntType) Option  { return func(f *Fields) { f.Int = t } }
func WithAlt(a AltFunc) Option        { return func(f *Fields) { f.Alt = a } }
func WithInitial(v Value) Option      { return func(f *Fields) { f.Value = v } }
func OnPin(port Port, pin Pin) Option { return func(f *Fields) { f.Port, f.Pin = port, pin } }

// NewDescriptor builds a validated descriptor for fn
func NewDescriptor(fn Function, opts ...Option) (Descriptor, error) {
	f := Fields{Function: fn}
	for _, opt := range opts {
		opt(&f)
	}
	if err := f.Validate(); err != nil {
		return 0, err
	}
	return f.Encode(), nil
}

// hasPad reports whether the pad type applies to fn
func (fn Function) hasPad() bool {
	return fn != FuncAnalogInput
}

// hasStrength reports whether drive strength applies to fn
func (fn Function) hasStrength() bool {
	switch fn {
	case FuncOutput, FuncODOutput, FuncPeriphODIO, FuncPeriphIO:
		return true
	}
	return false
}

// openDrain reports whether fn forces the open-drain driver
func (fn Function) openDrain() bool {
	switch fn {
	case FuncODInput, FuncODOutput, FuncPeriphODIO:
		return true
	}
	return false
}

func (p PadType) openDrain() bool { return p == PadOD || p == PadODWPU || p == PadODWPD }
func (p PadType) pullUp() bool    { return p == PadStdWPU || p == PadODWPU }
func (p PadType) pullDown() bool  { return p == PadStdWPD || p == PadODWPD }
