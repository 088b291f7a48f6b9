package core

import (
	"errors"

	"lmgpio/protocol"
)

// Message IDs, fixed by the registration order in DeclareGPIOCommands.
// The host uses the same constants.
const (
	MsgStatus     uint16 = iota // gpio_status op=%c code=%c
	MsgState                    // gpio_state pinset=%u value=%c
	MsgLog                      // gpio_log msg=%*s
	CmdConfigGPIO               // config_gpio cfgset=%u
	CmdWrite                    // gpio_write pinset=%u value=%c
	CmdRead                     // gpio_read pinset=%u
	CmdDump                     // gpio_dump pinset=%u label=%*s
	CmdIRQ                      // gpio_irq pinset=%u enable=%c
)

// Op identifies the command a gpio_status answers
type Op uint8

const (
	OpConfigure Op = iota + 1
	OpWrite
	OpRead
	OpDump
	OpIRQ
)

var opNames = [...]string{"", "configure", "write", "read", "dump", "irq"}

func (o Op) String() string {
	if int(o) < len(opNames) && o != 0 {
		return opNames[o]
	}
	return "op(" + itoa(int(o)) + ")"
}

// gpio_irq enable argument
const (
	IRQDisable = 0
	IRQEnable  = 1
	IRQClear   = 2
)

// MaxLogText is the longest gpio_log text that fits one frame
const MaxLogText = protocol.MessagePayloadMax - 3

// Responder sends a response frame. *protocol.Transport implements it.
type Responder interface {
	SendCommand(cmdID uint16, args func(output protocol.OutputBuffer))
}

type gpioCommands struct {
	out  Responder
	gpio func() *Configurator
}

var errIDMismatch = errors.New("gpio commands must be registered first")

// DeclareGPIOCommands registers the GPIO commands and responses on reg.
// They must be the first entries so their IDs match the constants above.
// gpio is called per command so chip support may be installed later;
// a nil Configurator answers CodeNoChip.
func DeclareGPIOCommands(reg *CommandRegistry, out Responder, gpio func() *Configurator) error {
	g := &gpioCommands{out: out, gpio: gpio}

	ids := []uint16{
		reg.Register("gpio_status", "op=%c code=%c", nil),
		reg.Register("gpio_state", "pinset=%u value=%c", nil),
		reg.Register("gpio_log", "msg=%*s", nil),
		reg.Register("config_gpio", "cfgset=%u", g.handleConfig),
		reg.Register("gpio_write", "pinset=%u value=%c", g.handleWrite),
		reg.Register("gpio_read", "pinset=%u", g.handleRead),
		reg.Register("gpio_dump", "pinset=%u label=%*s", g.handleDump),
		reg.Register("gpio_irq", "pinset=%u enable=%c", g.handleIRQ),
	}
	for i, id := range ids {
		if id != uint16(i) {
			return errIDMismatch
		}
	}
	return nil
}

// status always closes a command, success or not
func (g *gpioCommands) status(op Op, err error) {
	code := CodeOf(err)
	if err != nil {
		DebugPrintln("[GPIO] " + op.String() + ": " + err.Error())
	}
	g.out.SendCommand(MsgStatus, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(op))
		protocol.EncodeVLQUint(output, uint32(code))
	})
}

func (g *gpioCommands) log(msg string) {
	if len(msg) > MaxLogText {
		msg = msg[:MaxLogText]
	}
	g.out.SendCommand(MsgLog, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQString(output, msg)
	})
}

// configurator returns the active Configurator or ErrNoChip
func (g *gpioCommands) configurator() (*Configurator, error) {
	if g.gpio == nil {
		return nil, ErrNoChip
	}
	c := g.gpio()
	if c == nil {
		return nil, ErrNoChip
	}
	return c, nil
}

// malformed answers a command whose arguments did not decode
func (g *gpioCommands) malformed(op Op, err error) error {
	g.out.SendCommand(MsgStatus, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(op))
		protocol.EncodeVLQUint(output, uint32(CodeMalformed))
	})
	return err
}

// handleConfig applies a descriptor
func (g *gpioCommands) handleConfig(data *[]byte) error {
	cfgset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return g.malformed(OpConfigure, err)
	}

	c, err := g.configurator()
	if err == nil {
		err = c.Configure(Descriptor(cfgset))
	}
	g.status(OpConfigure, err)
	return nil
}

// handleWrite drives one pin
func (g *gpioCommands) handleWrite(data *[]byte) error {
	pinset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return g.malformed(OpWrite, err)
	}
	value, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return g.malformed(OpWrite, err)
	}

	c, err := g.configurator()
	if err == nil {
		err = c.WritePin(PinSet(pinset), value != 0)
	}
	g.status(OpWrite, err)
	return nil
}

// handleRead answers gpio_state before the status
func (g *gpioCommands) handleRead(data *[]byte) error {
	pinset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return g.malformed(OpRead, err)
	}

	c, err := g.configurator()
	if err == nil {
		var v bool
		v, err = c.ReadPin(PinSet(pinset))
		if err == nil {
			g.out.SendCommand(MsgState, func(output protocol.OutputBuffer) {
				protocol.EncodeVLQUint(output, pinset)
				if v {
					protocol.EncodeVLQUint(output, 1)
				} else {
					protocol.EncodeVLQUint(output, 0)
				}
			})
		}
	}
	g.status(OpRead, err)
	return nil
}

// handleDump sends the register dump as gpio_log lines
func (g *gpioCommands) handleDump(data *[]byte) error {
	pinset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return g.malformed(OpDump, err)
	}
	label, err := protocol.DecodeVLQString(data)
	if err != nil {
		return g.malformed(OpDump, err)
	}

	c, err := g.configurator()
	if err == nil {
		err = c.dumpTo(PinSet(pinset), label, g.log)
	}
	g.status(OpDump, err)
	return nil
}

// handleIRQ arms, disarms or acknowledges a pin's interrupt
func (g *gpioCommands) handleIRQ(data *[]byte) error {
	pinset, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return g.malformed(OpIRQ, err)
	}
	enable, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return g.malformed(OpIRQ, err)
	}

	c, err := g.configurator()
	if err == nil {
		ps := PinSet(pinset)
		switch enable {
		case IRQDisable:
			err = c.DisableIRQ(ps)
		case IRQEnable:
			err = c.EnableIRQ(ps)
		case IRQClear:
			err = c.ClearIRQ(ps)
		default:
			err = errBadIRQAction
		}
	}
	g.status(OpIRQ, err)
	return nil
}

var errBadIRQAction = errors.New("gpio: irq action must be 0, 1 or 2")
