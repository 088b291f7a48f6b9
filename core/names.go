package core

import "strings"

var functionNames = [...]string{
	FuncInput:       "input",
	FuncOutput:      "output",
	FuncODInput:     "odinput",
	FuncODOutput:    "odoutput",
	FuncPeriphODIO:  "pfodio",
	FuncPeriphIO:    "pfio",
	FuncAnalogInput: "analog",
	FuncInterrupt:   "interrupt",
}

// Aliases accepted by ParseFunction in addition to the canonical names
var functionAliases = map[string]Function{
	"pfinput":  FuncPeriphInput,
	"pfoutput": FuncPeriphOutput,
	"aninput":  FuncAnalogInput,
	"anio":     FuncAnalogIO,
	"irq":      FuncInterrupt,
}

var strengthNames = [...]string{"2ma", "4ma", "8ma", "8masc"}

var padNames = [...]string{"std", "stdwpu", "stdwpd", "od", "odwpu", "odwpd", "analog"}

var intNames = [...]string{"falling", "rising", "both", "low", "high"}

func (fn Function) String() string {
	if int(fn) < len(functionNames) {
		return functionNames[fn]
	}
	return "func(" + itoa(int(fn)) + ")"
}

func (s Strength) String() string {
	if int(s) < len(strengthNames) {
		return strengthNames[s]
	}
	return "strength(" + itoa(int(s)) + ")"
}

func (p PadType) String() string {
	if int(p) < len(padNames) {
		return padNames[p]
	}
	return "pad(" + itoa(int(p)) + ")"
}

func (t IntType) String() string {
	if int(t) < len(intNames) {
		return intNames[t]
	}
	return "int(" + itoa(int(t)) + ")"
}

// Letter returns the port letter ('A'..'H', 'J'), or '?' for unused codes
func (p Port) Letter() byte {
	switch {
	case p <= PortH:
		return 'A' + byte(p)
	case p == PortJ:
		return 'J'
	}
	return '?'
}

func (p Port) String() string {
	if p.Letter() == '?' {
		return "port(" + itoa(int(p)) + ")"
	}
	return "GPIO" + string(p.Letter())
}

// String renders the pin-set as "PF1"
func (p PinSet) String() string {
	port := p.Port()
	if port.Letter() == '?' {
		return "P?" + itoa(int(port)) + "." + itoa(int(p.Pin()))
	}
	return "P" + string(port.Letter()) + itoa(int(p.Pin()))
}

func (d Descriptor) String() string {
	var sb strings.Builder
	fn := d.Function()
	sb.WriteString(fn.String())
	sb.WriteByte(' ')
	sb.WriteString(d.PinSet().String())
	if fn.hasStrength() {
		sb.WriteString(" strength=" + d.Strength().String())
	}
	if fn.hasPad() {
		sb.WriteString(" pad=" + d.PadType().String())
	}
	switch fn {
	case FuncInterrupt:
		sb.WriteString(" trigger=" + d.IntType().String())
	case FuncOutput, FuncODOutput:
		sb.WriteString(" value=" + itoa(int(d.InitialValue())))
	case FuncPeriphODIO, FuncPeriphIO:
		sb.WriteString(" alt=" + itoa(int(d.AltFunc())))
	}
	return sb.String()
}

func lookup(names []string, s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return i, true
		}
	}
	return 0, false
}

// ParseFunction maps a function name ("output", "pfio", ...) to its code
func ParseFunction(s string) (Function, error) {
	if i, ok := lookup(functionNames[:], s); ok {
		return Function(i), nil
	}
	if fn, ok := functionAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return fn, nil
	}
	return 0, nameError("function", s)
}

// ParseStrength maps "2ma", "4ma", "8ma" or "8masc" to a Strength
func ParseStrength(s string) (Strength, error) {
	if i, ok := lookup(strengthNames[:], s); ok {
		return Strength(i), nil
	}
	return 0, nameError("strength", s)
}

// ParsePadType maps a pad name ("std", "odwpu", ...) to a PadType
func ParsePadType(s string) (PadType, error) {
	if i, ok := lookup(padNames[:], s); ok {
		return PadType(i), nil
	}
	return 0, nameError("pad", s)
}

// ParseIntType maps a trigger name ("falling", "both", ...) to an IntType
func ParseIntType(s string) (IntType, error) {
	if i, ok := lookup(intNames[:], s); ok {
		return IntType(i), nil
	}
	return 0, nameError("trigger", s)
}

// ParsePort accepts "A", "f", "GPIOC" or "portd"
func ParsePort(s string) (Port, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	u = strings.TrimPrefix(u, "GPIO")
	u = strings.TrimPrefix(u, "PORT")
	if len(u) == 1 {
		switch c := u[0]; {
		case c >= 'A' && c <= 'H':
			return Port(c - 'A'), nil
		case c == 'J':
			return PortJ, nil
		}
	}
	return 0, nameError("port", s)
}

// ParsePinName parses "PF1" style names into a pin-set
func ParsePinName(s string) (PinSet, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	if len(u) != 3 || u[0] != 'P' || u[2] < '0' || u[2] > '7' {
		return 0, nameError("pin", s)
	}
	port, err := ParsePort(u[1:2])
	if err != nil {
		return 0, nameError("pin", s)
	}
	return MakePinSet(port, Pin(u[2]-'0')), nil
}
