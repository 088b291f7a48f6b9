package mcu

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"lmgpio/core"
	"lmgpio/host/serial"
	"lmgpio/protocol"
)

// Longest gpio_dump label: the frame also carries the command ID, a
// pin-set of up to 5 bytes and the string length
const maxLabel = protocol.MessagePayloadMax - 7

// ErrUnexpected is returned when the device answers with the wrong message
var ErrUnexpected = errors.New("mcu: unexpected response")

// MCU is a connection to a device running the GPIO command protocol
type MCU struct {
	transport *protocol.HostTransport
	port      serial.Port

	// Time to wait for the responses of one command
	timeout time.Duration

	mu    sync.Mutex
	onLog func(string)
}

// Result is what a command produced besides its status
type Result struct {
	Status core.Code
	Value  bool     // gpio_state value, Read only
	Log    []string // gpio_log lines in arrival order
}

// New starts a client on an open port
func New(port serial.Port) *MCU {
	return &MCU{
		transport: protocol.NewHostTransport(port),
		port:      port,
		timeout:   time.Second,
	}
}

// Connect opens a serial port and starts a client on it
func Connect(cfg *serial.Config) (*MCU, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	// Drop whatever the device sent before we were listening
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to flush serial port: %w", err)
	}
	return New(port), nil
}

// Simulate starts a client on an in-process device created by attach
func Simulate(attach serial.AttachFunc) (*MCU, error) {
	port, err := serial.Loopback(attach)
	if err != nil {
		return nil, err
	}
	return New(port), nil
}

// SetTimeout changes how long a command waits for its status
func (m *MCU) SetTimeout(d time.Duration) {
	m.timeout = d
}

// OnLog installs a callback for gpio_log lines (register dumps, notices)
func (m *MCU) OnLog(fn func(string)) {
	m.mu.Lock()
	m.onLog = fn
	m.mu.Unlock()
}

// Close closes the connection to the MCU
func (m *MCU) Close() error {
	return m.transport.Close()
}

// Configure applies a descriptor on the device
func (m *MCU) Configure(d core.Descriptor) error {
	_, err := m.call(core.OpConfigure, core.CmdConfigGPIO, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(d))
	})
	return err
}

// Write drives a pin
func (m *MCU) Write(ps core.PinSet, value bool) error {
	_, err := m.call(core.OpWrite, core.CmdWrite, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(ps))
		protocol.EncodeVLQUint(out, boolArg(value))
	})
	return err
}

// Read samples a pin
func (m *MCU) Read(ps core.PinSet) (bool, error) {
	res, err := m.call(core.OpRead, core.CmdRead, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(ps))
	})
	return res.Value, err
}

// Dump returns the device's register dump of the pin's port
func (m *MCU) Dump(ps core.PinSet, label string) ([]string, error) {
	if len(label) > maxLabel {
		label = label[:maxLabel]
	}
	res, err := m.call(core.OpDump, core.CmdDump, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(ps))
		protocol.EncodeVLQString(out, label)
	})
	return res.Log, err
}

// SetIRQ arms (core.IRQEnable), disarms (core.IRQDisable) or clears
// (core.IRQClear) a pin's interrupt
func (m *MCU) SetIRQ(ps core.PinSet, action uint8) error {
	_, err := m.call(core.OpIRQ, core.CmdIRQ, func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, uint32(ps))
		protocol.EncodeVLQUint(out, uint32(action))
	})
	return err
}

func boolArg(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

// call sends one command and collects its responses up to gpio_status.
// The device sends responses before the ack, so they are queued by the
// time SendCommand returns.
func (m *MCU) call(op core.Op, cmd uint16, args func(protocol.OutputBuffer)) (Result, error) {
	var res Result
	if err := m.transport.SendCommand(cmd, args); err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}

	for {
		msg, err := m.transport.ReceiveResponse(m.timeout)
		if err != nil {
			return res, fmt.Errorf("%s: %w", op, err)
		}
		data := msg.Payload
		id, err := protocol.DecodeVLQUint(&data)
		if err != nil {
			return res, fmt.Errorf("%s: %w", op, err)
		}

		switch uint16(id) {
		case core.MsgLog:
			line, err := protocol.DecodeVLQString(&data)
			if err != nil {
				return res, fmt.Errorf("%s: gpio_log: %w", op, err)
			}
			res.Log = append(res.Log, line)
			m.log(line)

		case core.MsgState:
			if _, err := protocol.DecodeVLQUint(&data); err != nil {
				return res, fmt.Errorf("%s: gpio_state: %w", op, err)
			}
			v, err := protocol.DecodeVLQUint(&data)
			if err != nil {
				return res, fmt.Errorf("%s: gpio_state: %w", op, err)
			}
			res.Value = v != 0

		case core.MsgStatus:
			got, err := protocol.DecodeVLQUint(&data)
			if err != nil {
				return res, fmt.Errorf("%s: gpio_status: %w", op, err)
			}
			code, err := protocol.DecodeVLQUint(&data)
			if err != nil {
				return res, fmt.Errorf("%s: gpio_status: %w", op, err)
			}
			if core.Op(got) != op {
				return res, fmt.Errorf("%s: %w: status for %s", op, ErrUnexpected, core.Op(got))
			}
			res.Status = core.Code(code)
			if err := res.Status.Err(); err != nil {
				return res, fmt.Errorf("%s: %w", op, err)
			}
			return res, nil

		default:
			return res, fmt.Errorf("%s: %w: message %d", op, ErrUnexpected, id)
		}
	}
}

func (m *MCU) log(line string) {
	m.mu.Lock()
	fn := m.onLog
	m.mu.Unlock()
	if fn != nil {
		fn(line)
	}
}

// SimDevice returns an AttachFunc that runs a Console for gpio in process
func SimDevice(gpio *core.Configurator) serial.AttachFunc {
	return func(reply io.Writer) (io.Writer, error) {
		c, err := core.NewConsole(reply, func() *core.Configurator { return gpio })
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
