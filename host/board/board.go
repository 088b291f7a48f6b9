// Package board reads YAML pin maps that name the pins of a board and the
// configuration each one gets at start-up:
//
//	chip: lm4f120
//	pins:
//	  led_red: {pin: PF1, function: output, strength: 8ma, value: 1}
//	  sw1:     {pin: PF4, function: interrupt, pad: stdwpu, trigger: both}
//	  u0rx:    {pin: PA0, function: pfio, alt: 1}
package board

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v2"

	"lmgpio/core"
	"lmgpio/targets/stellaris"
)

// PinSpec is one entry of the pins map. Empty fields take the zero code.
type PinSpec struct {
	Pin      string `yaml:"pin"`
	Function string `yaml:"function"`
	Strength string `yaml:"strength,omitempty"`
	Pad      string `yaml:"pad,omitempty"`
	Trigger  string `yaml:"trigger,omitempty"`
	Alt      uint8  `yaml:"alt,omitempty"`
	Value    uint8  `yaml:"value,omitempty"`
}

// File is the document layout
type File struct {
	Chip string             `yaml:"chip"`
	Pins map[string]PinSpec `yaml:"pins"`
}

// Pin is a named, encoded pin configuration
type Pin struct {
	Name       string
	Descriptor core.Descriptor
}

// Board is a validated pin map
type Board struct {
	Variant stellaris.Variant
	Pins    []Pin // sorted by name
}

// Load reads a board file from disk
func Load(path string) (*Board, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Parse decodes and validates a board document
func Parse(r io.Reader) (*Board, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.SetStrict(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}

	v, err := stellaris.LookupVariant(f.Chip)
	if err != nil {
		return nil, fmt.Errorf("board: chip %q: %w", f.Chip, err)
	}

	b := &Board{Variant: v}
	names := make([]string, 0, len(f.Pins))
	for name := range f.Pins {
		names = append(names, name)
	}
	sort.Strings(names)

	used := make(map[core.PinSet]string)
	for _, name := range names {
		d, err := f.Pins[name].Descriptor()
		if err != nil {
			return nil, fmt.Errorf("board: pin %s: %w", name, err)
		}
		if !v.Has(d.Port()) {
			return nil, fmt.Errorf("board: pin %s: %s has no %s: %w", name, v.Name, d.Port(), core.ErrUnknownPort)
		}
		if other, ok := used[d.PinSet()]; ok {
			return nil, fmt.Errorf("board: pin %s: %s already used by %s", name, d.PinSet(), other)
		}
		used[d.PinSet()] = name
		b.Pins = append(b.Pins, Pin{Name: name, Descriptor: d})
	}
	return b, nil
}

// Descriptor encodes the entry
func (s PinSpec) Descriptor() (core.Descriptor, error) {
	ps, err := core.ParsePinName(s.Pin)
	if err != nil {
		return 0, err
	}
	fn, err := core.ParseFunction(s.Function)
	if err != nil {
		return 0, err
	}
	f := core.Fields{
		Function: fn,
		Port:     ps.Port(),
		Pin:      ps.Pin(),
		Alt:      core.AltFunc(s.Alt),
		Value:    core.Value(s.Value),
	}
	if s.Strength != "" {
		if f.Strength, err = core.ParseStrength(s.Strength); err != nil {
			return 0, err
		}
	}
	if s.Pad != "" {
		if f.Pad, err = core.ParsePadType(s.Pad); err != nil {
			return 0, err
		}
	}
	if s.Trigger != "" {
		if f.Int, err = core.ParseIntType(s.Trigger); err != nil {
			return 0, err
		}
	}
	if err := f.Validate(); err != nil {
		return 0, err
	}
	return f.Encode(), nil
}

// Lookup finds a pin by name
func (b *Board) Lookup(name string) (Pin, bool) {
	i := sort.Search(len(b.Pins), func(i int) bool { return b.Pins[i].Name >= name })
	if i < len(b.Pins) && b.Pins[i].Name == name {
		return b.Pins[i], true
	}
	return Pin{}, false
}

// Configurer applies descriptors; *core.Configurator and *mcu.MCU both do
type Configurer interface {
	Configure(d core.Descriptor) error
}

// Apply configures every pin in name order and stops at the first error
func (b *Board) Apply(c Configurer) error {
	for _, p := range b.Pins {
		if err := c.Configure(p.Descriptor); err != nil {
			return fmt.Errorf("%s: %w", p.Name, err)
		}
	}
	return nil
}
