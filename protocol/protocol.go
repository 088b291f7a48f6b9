// Package protocol implements the framed command protocol spoken between
// the gpiocfg host tool and the firmware console.
//
// A frame is
//
//	[len][seq][payload...][crc hi][crc lo][0x7E]
//
// where len counts the whole frame and seq always carries 0x10 in its high
// nibble. Payload integers are VLQ encoded.
package protocol

import "errors"

// Version is reported by gpiocfg -version
const Version = "0.1.0"

// Protocol constants
const (
	MessageMax = 512 // Scratch output capacity, enough for a full register dump

	// Message sequence masks
	MessageSeqMask  = 0x0F
	MessageSeqShift = 4
)

var (
	ErrShortFrame = errors.New("protocol: incomplete frame")
	ErrBadFrame   = errors.New("protocol: corrupt frame")
)

// Frame is one validated message block. Payload aliases the parsed input.
type Frame struct {
	Length  uint8
	Seq     uint8
	Payload []byte
}

// ParseFrame validates the frame at the start of data and returns it with
// the number of bytes it occupies. ErrShortFrame means more input is
// needed; ErrBadFrame means the stream has lost synchronization.
func ParseFrame(data []byte) (Frame, int, error) {
	if len(data) < MessageLengthMin {
		return Frame{}, 0, ErrShortFrame
	}
	n := int(data[MessagePositionLen])
	if n < MessageLengthMin || n > MessageLengthMax {
		return Frame{}, 0, ErrBadFrame
	}
	seq := data[MessagePositionSeq]
	if seq&^MessageSeqMask != MessageDest {
		return Frame{}, 0, ErrBadFrame
	}
	if len(data) < n {
		return Frame{}, 0, ErrShortFrame
	}
	if data[n-MessageTrailerSync] != MessageValueSync {
		return Frame{}, 0, ErrBadFrame
	}
	crc := uint16(data[n-MessageTrailerCRC])<<8 | uint16(data[n-MessageTrailerCRC+1])
	if crc != CRC16(data[:n-MessageTrailerSize]) {
		return Frame{}, 0, ErrBadFrame
	}
	return Frame{
		Length:  uint8(n),
		Seq:     seq,
		Payload: data[MessageHeaderSize : n-MessageTrailerSize],
	}, n, nil
}

// NextSeq returns the sequence byte following seq (0x10-0x1F, wrapping)
func NextSeq(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}

// BuildFrame returns a complete frame carrying payload
func BuildFrame(seq uint8, payload []byte) ([]byte, error) {
	n := MessageHeaderSize + len(payload) + MessageTrailerSize
	if n > MessageLengthMax {
		return nil, errors.New("protocol: frame too long: " + itoa(n))
	}
	msg := make([]byte, 0, n)
	msg = append(msg, uint8(n), seq)
	msg = append(msg, payload...)
	return appendCRC(msg, msg), nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [12]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}
