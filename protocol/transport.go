package protocol

import (
	"bytes"
	"errors"
	"sync/atomic"
)

const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 96 // Room for one register dump row per frame
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	// MessagePayloadMax is the largest payload a single frame can carry
	MessagePayloadMax = MessageLengthMax - MessageLengthMin
)

// CommandHandler is a function type for handling decoded commands
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the device side of the protocol: it validates incoming
// frames, dispatches their commands and acknowledges every frame.
type Transport struct {
	isSynchronized uint32 // atomic bool (0 = false, 1 = true)
	nextSequence   uint32 // Sequence expected from the host, also used for acks and responses
	output         OutputBuffer
	handler        CommandHandler
	errorCallback  func(err error)
	resetCallback  func() // Called when host reset is detected
	flushCallback  func() // Called to immediately flush the ack
}

// NewTransport creates a new Transport instance
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	return &Transport{
		isSynchronized: 1,
		nextSequence:   MessageDest,
		output:         output,
		handler:        handler,
	}
}

// Receive processes incoming data from the input buffer and pops what it
// consumed. A partial frame is left in place for the next call.
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !t.getSynchronized() {
			// Skip garbage up to the next sync byte
			i := bytes.IndexByte(data, MessageValueSync)
			if i < 0 {
				data = nil
				break
			}
			data = data[i+1:]
			t.setSynchronized(true)
			t.encodeAckNak()
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		frame, n, err := ParseFrame(data)
		if errors.Is(err, ErrShortFrame) {
			break
		}
		if err != nil {
			t.setSynchronized(false)
			continue
		}
		data = data[n:]

		// Sequence back at MessageDest means the host restarted
		expectedSeq := uint8(atomic.LoadUint32(&t.nextSequence))
		if frame.Seq == MessageDest && expectedSeq != MessageDest {
			atomic.StoreUint32(&t.nextSequence, MessageDest)
			expectedSeq = MessageDest
			if t.resetCallback != nil {
				t.resetCallback()
			}
		}

		if frame.Seq == expectedSeq {
			atomic.StoreUint32(&t.nextSequence, uint32(NextSeq(frame.Seq)))
			if err := t.parseFrame(frame.Payload); err != nil && t.errorCallback != nil {
				t.errorCallback(err)
			}
		}
		// A repeated or out-of-order frame still gets an ack carrying the
		// expected sequence, which the host treats as a nak
		t.encodeAckNak()
	}

	consumed := input.Available() - len(data)
	if consumed > 0 {
		input.Pop(consumed)
	}
}

// parseFrame dispatches every command in a frame payload
func (t *Transport) parseFrame(frame []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			t.setSynchronized(false)
			err = errors.New("protocol: command handler panic")
		}
	}()

	for len(frame) > 0 {
		cmdID, err := DecodeVLQUint(&frame)
		if err != nil {
			t.setSynchronized(false)
			return err
		}
		if t.handler == nil {
			continue
		}
		// Stop at the first failing command; its arguments cannot be skipped
		if err := t.handler(uint16(cmdID), &frame); err != nil {
			return err
		}
	}
	return nil
}

// encodeAckNak sends an empty frame carrying the next expected sequence.
// It is flushed immediately so it is not held behind buffered output.
func (t *Transport) encodeAckNak() {
	ns := uint8(atomic.LoadUint32(&t.nextSequence))
	hdr := []byte{MessageLengthMin, ns}
	t.output.Output(appendCRC(hdr, hdr))

	if t.flushCallback != nil {
		t.flushCallback()
	}
}

// EncodeFrame encodes and sends a frame with the given data.
// Responses carry the same sequence as the ack that follows them.
func (t *Transport) EncodeFrame(frameData func(output OutputBuffer)) {
	cursor := t.output.CurPosition()

	seq := uint8(atomic.LoadUint32(&t.nextSequence))
	t.output.Output([]byte{0, seq})

	frameData(t.output)

	changed := len(t.output.DataSince(cursor))
	t.output.Update(cursor, uint8(changed+MessageTrailerSize))

	crc := CRC16(t.output.DataSince(cursor))
	t.output.Output([]byte{uint8(crc >> 8), uint8(crc), MessageValueSync})
}

// SendCommand sends a command with arguments
func (t *Transport) SendCommand(cmdID uint16, args func(output OutputBuffer)) {
	t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(cmdID))
		if args != nil {
			args(output)
		}
	})
}

// Reset resets the transport state (after a link reconnect)
func (t *Transport) Reset() {
	atomic.StoreUint32(&t.isSynchronized, 1)
	atomic.StoreUint32(&t.nextSequence, MessageDest)

	if t.resetCallback != nil {
		t.resetCallback()
	}
}

// SetResetCallback sets a callback to be called when host reset is detected
func (t *Transport) SetResetCallback(callback func()) {
	t.resetCallback = callback
}

// SetFlushCallback sets a callback to immediately flush ack frames
func (t *Transport) SetFlushCallback(callback func()) {
	t.flushCallback = callback
}

// SetErrorCallback sets a callback for commands that failed to decode
func (t *Transport) SetErrorCallback(callback func(err error)) {
	t.errorCallback = callback
}

// Synchronized reports whether the receiver is locked onto frame boundaries
func (t *Transport) Synchronized() bool {
	return t.getSynchronized()
}

// Helper methods for atomic operations
func (t *Transport) getSynchronized() bool {
	return atomic.LoadUint32(&t.isSynchronized) != 0
}

func (t *Transport) setSynchronized(val bool) {
	if val {
		atomic.StoreUint32(&t.isSynchronized, 1)
	} else {
		atomic.StoreUint32(&t.isSynchronized, 0)
	}
}
