package core

import (
	"io"

	"lmgpio/protocol"
)

// Console runs the GPIO command protocol over a byte stream. Received
// bytes are written into it; acks and responses go to the reply writer,
// flushed once per frame.
type Console struct {
	reply     io.Writer
	in        *protocol.FifoBuffer
	out       *protocol.ScratchOutput
	transport *protocol.Transport
	registry  *CommandRegistry
	err       error
}

// NewConsole creates a console answering on reply. gpio supplies the
// Configurator for each command (GPIO for the global one).
func NewConsole(reply io.Writer, gpio func() *Configurator) (*Console, error) {
	c := &Console{
		reply:    reply,
		in:       protocol.NewFifoBuffer(protocol.ReceiveBufferSize),
		out:      protocol.NewScratchOutput(),
		registry: NewCommandRegistry(),
	}
	c.transport = protocol.NewTransport(c.out, c.registry.Dispatch)
	c.transport.SetFlushCallback(c.flush)
	c.transport.SetErrorCallback(func(err error) {
		DebugPrintln("[CONSOLE] " + err.Error())
	})
	if err := DeclareGPIOCommands(c.registry, c.transport, gpio); err != nil {
		return nil, err
	}
	return c, nil
}

// Registry returns the console's command dictionary
func (c *Console) Registry() *CommandRegistry {
	return c.registry
}

// Write feeds received bytes to the protocol. It only fails if a reply
// could not be written.
func (c *Console) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		n := c.in.Write(p)
		p = p[n:]
		c.transport.Receive(c.in)
		if n == 0 && c.in.Free() == 0 {
			// Cannot happen with valid frames, which are smaller than the FIFO
			c.in.Reset()
		}
	}
	if c.err != nil {
		err := c.err
		c.err = nil
		return total, err
	}
	return total, nil
}

// Serve reads from r until it fails
func (c *Console) Serve(r io.Reader) error {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := c.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			return err
		}
	}
}

// flush runs after every ack and sends everything queued for the frame
func (c *Console) flush() {
	data := c.out.Result()
	if len(data) == 0 {
		return
	}
	if c.out.Overflowed() {
		DebugPrintln("[CONSOLE] reply overflow, frames dropped")
	}
	if _, err := c.reply.Write(data); err != nil && c.err == nil {
		c.err = err
	}
	c.out.Reset()
}
