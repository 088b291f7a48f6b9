package protocol

import (
	"errors"
	"net"
	"testing"
	"time"
)

type call struct {
	cmd   uint16
	value uint32
}

// newRecordingTransport returns a device transport whose handler records
// each command and its single VLQ argument
func newRecordingTransport() (*Transport, *ScratchOutput, *[]call) {
	out := NewScratchOutput()
	calls := &[]call{}
	tr := NewTransport(out, func(cmdID uint16, data *[]byte) error {
		v, err := DecodeVLQUint(data)
		if err != nil {
			return err
		}
		*calls = append(*calls, call{cmdID, v})
		return nil
	})
	return tr, out, calls
}

func commandFrame(t *testing.T, seq uint8, cmd uint16, value uint32) []byte {
	t.Helper()
	payload := NewScratchOutput()
	EncodeVLQUint(payload, uint32(cmd))
	EncodeVLQUint(payload, value)
	frame, err := BuildFrame(seq, payload.Result())
	if err != nil {
		t.Fatalf("BuildFrame: %v", err)
	}
	return frame
}

// acks returns the sequence of every empty frame in out
func acks(t *testing.T, out []byte) []uint8 {
	t.Helper()
	var seqs []uint8
	for len(out) > 0 {
		f, n, err := ParseFrame(out)
		if err != nil {
			t.Fatalf("device output does not parse: %v (%v)", err, out)
		}
		if len(f.Payload) == 0 {
			seqs = append(seqs, f.Seq)
		}
		out = out[n:]
	}
	return seqs
}

func TestBuildFrameLayout(t *testing.T) {
	frame, err := BuildFrame(MessageDest, []byte{3, 41})
	if err != nil {
		t.Fatalf("BuildFrame: %v", err)
	}
	want := []byte{7, 0x10, 3, 41, 0x47, 0x3E, MessageValueSync}
	if string(frame) != string(want) {
		t.Errorf("frame = % x, want % x", frame, want)
	}

	if _, err := BuildFrame(MessageDest, make([]byte, MessagePayloadMax+1)); err == nil {
		t.Error("oversized payload should be rejected")
	}
}

func TestTransportDispatchAndAck(t *testing.T) {
	tr, out, calls := newRecordingTransport()

	in := NewSliceInputBuffer(commandFrame(t, MessageDest, 3, 0xE0200029))
	tr.Receive(in)

	if len(*calls) != 1 || (*calls)[0] != (call{3, 0xE0200029}) {
		t.Fatalf("calls = %v", *calls)
	}
	if in.Available() != 0 {
		t.Errorf("%d bytes left unconsumed", in.Available())
	}
	if got := acks(t, out.Result()); len(got) != 1 || got[0] != 0x11 {
		t.Errorf("acks = %x, want [11]", got)
	}
}

func TestTransportPartialFrame(t *testing.T) {
	tr, out, calls := newRecordingTransport()
	frame := commandFrame(t, MessageDest, 3, 41)

	fifo := NewFifoBuffer(64)
	fifo.Write(frame[:4])
	tr.Receive(fifo)
	if len(*calls) != 0 || out.CurPosition() != 0 {
		t.Fatal("partial frame should not be dispatched or acked")
	}
	if fifo.Available() != 4 {
		t.Fatalf("partial frame was consumed: %d bytes left", fifo.Available())
	}

	fifo.Write(frame[4:])
	tr.Receive(fifo)
	if len(*calls) != 1 {
		t.Fatalf("completed frame not dispatched: %v", *calls)
	}
}

func TestTransportResyncAfterCorruption(t *testing.T) {
	tr, out, calls := newRecordingTransport()

	bad := commandFrame(t, MessageDest, 3, 41)
	bad[3] = 42 // payload no longer matches the CRC
	good := commandFrame(t, MessageDest, 3, 42)

	tr.Receive(NewSliceInputBuffer(append(bad, good...)))

	if len(*calls) != 1 || (*calls)[0].value != 42 {
		t.Fatalf("calls = %v, want only the good frame", *calls)
	}
	// One ack on resync, one for the good frame
	if got := acks(t, out.Result()); len(got) != 2 || got[0] != 0x10 || got[1] != 0x11 {
		t.Errorf("acks = %x, want [10 11]", got)
	}
	if !tr.Synchronized() {
		t.Error("transport should be synchronized again")
	}
}

func TestTransportSequence(t *testing.T) {
	tr, out, calls := newRecordingTransport()
	resets := 0
	tr.SetResetCallback(func() { resets++ })

	tr.Receive(NewSliceInputBuffer(commandFrame(t, 0x10, 1, 1)))
	// Out of order: not dispatched, acked with the expected sequence
	tr.Receive(NewSliceInputBuffer(commandFrame(t, 0x13, 1, 2)))
	tr.Receive(NewSliceInputBuffer(commandFrame(t, 0x11, 1, 3)))
	// Host restart
	tr.Receive(NewSliceInputBuffer(commandFrame(t, 0x10, 1, 4)))

	var values []uint32
	for _, c := range *calls {
		values = append(values, c.value)
	}
	if len(values) != 3 || values[0] != 1 || values[1] != 3 || values[2] != 4 {
		t.Errorf("dispatched values = %v, want [1 3 4]", values)
	}
	if resets != 1 {
		t.Errorf("reset callback ran %d times, want 1", resets)
	}
	want := []uint8{0x11, 0x11, 0x12, 0x11}
	got := acks(t, out.Result())
	if len(got) != len(want) {
		t.Fatalf("acks = %x, want %x", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ack %d = 0x%02x, want 0x%02x", i, got[i], want[i])
		}
	}
}

func TestTransportHandlerError(t *testing.T) {
	out := NewScratchOutput()
	var reported error
	tr := NewTransport(out, func(cmdID uint16, data *[]byte) error {
		return errors.New("bad args")
	})
	tr.SetErrorCallback(func(err error) { reported = err })

	tr.Receive(NewSliceInputBuffer(commandFrame(t, MessageDest, 2, 0)))
	if reported == nil {
		t.Error("handler error was not reported")
	}
	// Handler errors do not cost synchronization
	if !tr.Synchronized() {
		t.Error("handler error should not desynchronize the transport")
	}
	if got := acks(t, out.Result()); len(got) != 1 {
		t.Errorf("acks = %x, want one", got)
	}
}

// serveDevice runs a device Transport on the far end of conn
func serveDevice(conn net.Conn, handler func(tr *Transport, cmdID uint16, data *[]byte) error) {
	out := NewScratchOutput()
	fifo := NewFifoBuffer(MessageMax)
	var tr *Transport
	tr = NewTransport(out, func(cmdID uint16, data *[]byte) error {
		return handler(tr, cmdID, data)
	})

	go func() {
		buf := make([]byte, 64)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				return
			}
			fifo.Write(buf[:n])
			tr.Receive(fifo)
			if res := out.Result(); len(res) > 0 {
				if _, err := conn.Write(res); err != nil {
					return
				}
				out.Reset()
			}
		}
	}()
}

func TestHostTransportRoundTrip(t *testing.T) {
	hostEnd, devEnd := net.Pipe()
	defer devEnd.Close()

	serveDevice(devEnd, func(tr *Transport, cmdID uint16, data *[]byte) error {
		v, err := DecodeVLQUint(data)
		if err != nil {
			return err
		}
		tr.SendCommand(0, func(o OutputBuffer) { EncodeVLQUint(o, v+1) })
		return nil
	})

	host := NewHostTransport(hostEnd)
	defer host.Close()

	for i := uint32(0); i < 20; i++ {
		err := host.SendCommand(5, func(o OutputBuffer) { EncodeVLQUint(o, i) })
		if err != nil {
			t.Fatalf("SendCommand %d: %v", i, err)
		}
		msg, err := host.ReceiveResponse(time.Second)
		if err != nil {
			t.Fatalf("ReceiveResponse %d: %v", i, err)
		}
		payload := msg.Payload
		id, _ := DecodeVLQUint(&payload)
		v, _ := DecodeVLQUint(&payload)
		if id != 0 || v != i+1 {
			t.Fatalf("response %d = (%d, %d), want (0, %d)", i, id, v, i+1)
		}
	}

	// 20 frames wrap the 4-bit sequence
	if seq := host.GetCurrentSequence(); seq != NextSeq(0x13) {
		t.Errorf("sequence after 20 frames = 0x%02x, want 0x14", seq)
	}
}

func TestHostTransportAckTimeout(t *testing.T) {
	hostEnd, devEnd := net.Pipe()
	defer devEnd.Close()

	// A device that never answers
	go func() {
		buf := make([]byte, 64)
		for {
			if _, err := devEnd.Read(buf); err != nil {
				return
			}
		}
	}()

	host := NewHostTransport(hostEnd)
	defer host.Close()

	err := host.SendCommandWithTimeout(1, nil, 20*time.Millisecond)
	if !errors.Is(err, ErrAckTimeout) {
		t.Errorf("error = %v, want ErrAckTimeout", err)
	}
}
