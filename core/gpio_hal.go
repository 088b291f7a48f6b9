package core

// Reg names one register of a GPIO port's register block
type Reg uint8

const (
	RegData  Reg = iota // GPIODATA (all eight pins)
	RegDir              // GPIODIR: 1 = output
	RegIS               // GPIOIS: interrupt sense, 1 = level
	RegIBE              // GPIOIBE: interrupt on both edges
	RegIEV              // GPIOIEV: 1 = rising edge / high level
	RegIM               // GPIOIM: interrupt mask, 1 = delivered
	RegRIS              // GPIORIS: raw interrupt status
	RegMIS              // GPIOMIS: masked interrupt status
	RegICR              // GPIOICR: write 1 to clear, reads are undefined
	RegAFSEL            // GPIOAFSEL: peripheral controls the pin
	RegDR2R             // 2mA drive select
	RegDR4R             // 4mA drive select
	RegDR8R             // 8mA drive select
	RegODR              // Open-drain select
	RegPUR              // Pull-up select
	RegPDR              // Pull-down select
	RegSLR              // Slew rate control (8mA only)
	RegDEN              // Digital enable
	RegAMSEL            // Analog mode select (LM4F class parts)
	RegPCTL             // Port control, 4 bits per pin (LM4F class parts)

	NumRegs
)

var regNames = [NumRegs]string{
	RegData: "DATA", RegDir: "DIR", RegIS: "IS", RegIBE: "IBE", RegIEV: "IEV",
	RegIM: "IM", RegRIS: "RIS", RegMIS: "MIS", RegICR: "ICR", RegAFSEL: "AFSEL",
	RegDR2R: "2MA", RegDR4R: "4MA", RegDR8R: "8MA", RegODR: "ODR", RegPUR: "PUR",
	RegPDR: "PDR", RegSLR: "SLR", RegDEN: "DEN", RegAMSEL: "AMSEL", RegPCTL: "PCTL",
}

func (r Reg) String() string {
	if r < NumRegs {
		return regNames[r]
	}
	return "REG(" + itoa(int(r)) + ")"
}

// RegisterBlock is one port's register set as provided by chip support.
// Implementations perform plain loads and stores; read-modify-write and
// locking are done by the Configurator.
type RegisterBlock interface {
	Read(r Reg) uint32
	Write(r Reg, v uint32)
}

// MaskedWriter is implemented by blocks whose hardware can update selected
// DATA bits in a single store (Stellaris address-masked GPIODATA).
type MaskedWriter interface {
	WriteMasked(r Reg, mask, v uint32)
}

// Faulter is implemented by blocks whose accesses can fail, such as a
// register window behind a bus bridge. Fault returns and clears the first
// error seen since the previous call.
type Faulter interface {
	Fault() error
}

// Based is implemented by blocks that know their base address
type Based interface {
	Base() uintptr
}

// ChipSupport is the chip-support layer consumed by the Configurator
type ChipSupport interface {
	// Name identifies the chip variant (e.g. "lm4f120")
	Name() string

	// RegisterBlock resolves the register block of a port.
	// Returns ErrUnknownPort if the variant has no such port.
	// The block must not be retained beyond the call that requested it.
	RegisterBlock(port Port) (RegisterBlock, error)

	// HasAlternateFunction reports whether GPIOPCTL is present
	HasAlternateFunction() bool

	// HasAnalogMode reports whether GPIOAMSEL is present
	HasAnalogMode() bool
}

// Global singleton used by the command surface.
var gpio *Configurator

// SetChipSupport is called by target-specific code to register its chip
// support. It also builds the default Configurator with opts.
func SetChipSupport(c ChipSupport, opts ...ConfigOption) {
	if c == nil {
		gpio = nil
		return
	}
	gpio = NewConfigurator(c, opts...)
}

// GPIO returns the default Configurator, or nil before SetChipSupport
func GPIO() *Configurator {
	return gpio
}

// MustGPIO returns the default Configurator or panics if missing.
func MustGPIO() *Configurator {
	if gpio == nil {
		panic("GPIO chip support not configured")
	}
	return gpio
}
