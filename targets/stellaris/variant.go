// Package stellaris provides chip support for the GPIO blocks of the
// Stellaris LM3S and LM4F parts: register offsets, per-variant port tables
// and the buses the registers are reached through.
package stellaris

import (
	"errors"
	"strings"

	"lmgpio/core"
)

// APB aperture base addresses by port code
const (
	BaseA uintptr = 0x40004000
	BaseB uintptr = 0x40005000
	BaseC uintptr = 0x40006000
	BaseD uintptr = 0x40007000
	BaseE uintptr = 0x40024000
	BaseF uintptr = 0x40025000
	BaseG uintptr = 0x40026000
	BaseH uintptr = 0x40027000
	BaseJ uintptr = 0x4003D000
)

// Variant describes the GPIO ports and capabilities of one part
type Variant struct {
	Name         string
	Ports        [core.MaxPorts]uintptr // 0 = port not present
	PortControl  bool                   // GPIOPCTL present
	AnalogSelect bool                   // GPIOAMSEL present
}

var (
	LM3S6965 = Variant{
		Name:  "lm3s6965",
		Ports: [core.MaxPorts]uintptr{BaseA, BaseB, BaseC, BaseD, BaseE, BaseF, BaseG},
	}
	LM3S9B96 = Variant{
		Name:         "lm3s9b96",
		Ports:        [core.MaxPorts]uintptr{BaseA, BaseB, BaseC, BaseD, BaseE, BaseF, BaseG, BaseH, BaseJ},
		PortControl:  true,
		AnalogSelect: true,
	}
	LM4F120 = Variant{
		Name:         "lm4f120",
		Ports:        [core.MaxPorts]uintptr{BaseA, BaseB, BaseC, BaseD, BaseE, BaseF},
		PortControl:  true,
		AnalogSelect: true,
	}
)

var variants = []Variant{LM3S6965, LM3S9B96, LM4F120}

// ErrUnknownVariant is returned by LookupVariant
var ErrUnknownVariant = errors.New("stellaris: unknown variant")

// Variants returns every supported variant
func Variants() []Variant {
	return append([]Variant(nil), variants...)
}

// LookupVariant finds a variant by name ("lm4f120", "LM3S6965", ...)
func LookupVariant(name string) (Variant, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, v := range variants {
		if v.Name == n {
			return v, nil
		}
	}
	return Variant{}, ErrUnknownVariant
}

// Has reports whether the variant has port p
func (v Variant) Has(p core.Port) bool {
	return int(p) < len(v.Ports) && v.Ports[p] != 0
}

// PortCount returns the number of ports present
func (v Variant) PortCount() int {
	n := 0
	for _, b := range v.Ports {
		if b != 0 {
			n++
		}
	}
	return n
}
