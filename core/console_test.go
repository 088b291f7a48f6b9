package core

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"lmgpio/protocol"
)

func consoleFrame(t *testing.T, seq uint8, id uint16, args ...uint32) []byte {
	t.Helper()
	o := protocol.NewScratchOutput()
	protocol.EncodeVLQUint(o, uint32(id))
	for _, a := range args {
		protocol.EncodeVLQUint(o, a)
	}
	frame, err := protocol.BuildFrame(seq, o.Result())
	if err != nil {
		t.Fatalf("BuildFrame: %v", err)
	}
	return frame
}

// replies splits console output into frames
func replies(t *testing.T, out []byte) []protocol.Frame {
	t.Helper()
	var frames []protocol.Frame
	for len(out) > 0 {
		f, n, err := protocol.ParseFrame(out)
		if err != nil {
			t.Fatalf("reply does not parse: %v", err)
		}
		frames = append(frames, f)
		out = out[n:]
	}
	return frames
}

func TestConsoleConfigure(t *testing.T) {
	chip := newMockChip(true, PortF)
	gpio := NewConfigurator(chip)
	var reply bytes.Buffer
	con, err := NewConsole(&reply, func() *Configurator { return gpio })
	if err != nil {
		t.Fatalf("NewConsole: %v", err)
	}

	led := MustEncode(Fields{Function: FuncOutput, Strength: Strength8mA, Port: PortF, Pin: 1})
	in := consoleFrame(t, 0x10, CmdConfigGPIO, uint32(led))
	// Deliver in two pieces to exercise partial frames
	if _, err := con.Write(in[:3]); err != nil {
		t.Fatal(err)
	}
	if reply.Len() != 0 {
		t.Fatal("console answered a partial frame")
	}
	if _, err := con.Write(in[3:]); err != nil {
		t.Fatal(err)
	}

	frames := replies(t, reply.Bytes())
	if len(frames) != 2 {
		t.Fatalf("got %d reply frames, want status and ack", len(frames))
	}
	status := frames[0].Payload
	id, _ := protocol.DecodeVLQUint(&status)
	op, _ := protocol.DecodeVLQUint(&status)
	code, _ := protocol.DecodeVLQUint(&status)
	if uint16(id) != MsgStatus || Op(op) != OpConfigure || Code(code) != CodeOK {
		t.Errorf("status = %d %s %s", id, Op(op), Code(code))
	}
	if len(frames[1].Payload) != 0 || frames[1].Seq != 0x11 {
		t.Errorf("ack = %+v, want empty frame with seq 0x11", frames[1])
	}
	if chip.block(PortF).regs[RegDR8R] != 0x02 {
		t.Error("descriptor not applied")
	}
}

func TestConsoleServe(t *testing.T) {
	chip := newMockChip(false, PortA)
	chip.block(PortA).regs[RegData] = 0x04
	gpio := NewConfigurator(chip)
	var reply bytes.Buffer
	con, err := NewConsole(&reply, func() *Configurator { return gpio })
	if err != nil {
		t.Fatalf("NewConsole: %v", err)
	}

	var stream []byte
	stream = append(stream, 0x00, 0x13) // Line noise before the first frame
	stream = append(stream, protocol.MessageValueSync)
	stream = append(stream, consoleFrame(t, 0x10, CmdRead, uint32(MakePinSet(PortA, 2)))...)
	stream = append(stream, consoleFrame(t, 0x11, CmdRead, uint32(MakePinSet(PortB, 2)))...)

	if err := con.Serve(bytes.NewReader(stream)); !errors.Is(err, io.EOF) {
		t.Fatalf("Serve = %v, want EOF", err)
	}

	var states, statuses []uint32
	for _, f := range replies(t, reply.Bytes()) {
		data := f.Payload
		if len(data) == 0 {
			continue
		}
		id, _ := protocol.DecodeVLQUint(&data)
		switch uint16(id) {
		case MsgState:
			protocol.DecodeVLQUint(&data)
			v, _ := protocol.DecodeVLQUint(&data)
			states = append(states, v)
		case MsgStatus:
			protocol.DecodeVLQUint(&data)
			code, _ := protocol.DecodeVLQUint(&data)
			statuses = append(statuses, code)
		}
	}
	if len(states) != 1 || states[0] != 1 {
		t.Errorf("gpio_state values = %v, want [1]", states)
	}
	if len(statuses) != 2 || Code(statuses[0]) != CodeOK || Code(statuses[1]) != CodeUnknownPort {
		t.Errorf("status codes = %v, want [ok unknown_port]", statuses)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("uart overrun") }

func TestConsoleReplyError(t *testing.T) {
	con, err := NewConsole(failingWriter{}, func() *Configurator { return nil })
	if err != nil {
		t.Fatalf("NewConsole: %v", err)
	}
	if _, err := con.Write(consoleFrame(t, 0x10, CmdRead, 0)); err == nil {
		t.Error("reply failure should surface from Write")
	}
	if con.Registry().Count() != 8 {
		t.Errorf("console registered %d commands", con.Registry().Count())
	}
}
