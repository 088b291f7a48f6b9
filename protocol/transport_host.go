package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrAckTimeout = errors.New("protocol: ack timeout")
	ErrNak        = errors.New("protocol: frame not accepted")
	ErrStopped    = errors.New("protocol: transport stopped")
)

// ResponseHandler is a function type for handling received responses from the device
type ResponseHandler func(cmdID uint16, data *[]byte) error

// HostTransport is the host side of the protocol: it sends commands, waits
// for their acks and queues responses
type HostTransport struct {
	port io.ReadWriteCloser

	// Sequence of the next frame to send (0x10-0x1F)
	currentSeq uint32

	isSynchronized uint32 // atomic bool (0 = false, 1 = true)

	inputBuffer *FifoBuffer

	ackChan      chan *Message
	responseChan chan *Message

	// Response handler (optional callback for async responses)
	responseHandler ResponseHandler

	writeMutex sync.Mutex
	readMutex  sync.Mutex
	sendMutex  sync.Mutex // One command in flight

	stopChan  chan struct{}
	doneChan  chan struct{}
	closeOnce sync.Once
}

// Message represents a received frame
type Message struct {
	Length   uint8
	Sequence uint8
	Payload  []byte // Frame data without header/trailer
}

// NewHostTransport creates a new host-side transport and starts its reader
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:         port,
		currentSeq:   MessageDest,
		inputBuffer:  NewFifoBuffer(MessageMax),
		ackChan:      make(chan *Message, 1),
		responseChan: make(chan *Message, 32),
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}

	atomic.StoreUint32(&t.isSynchronized, 1)

	go t.readLoop()

	return t
}

// SendCommand sends a command to the device and waits for its ack
func (t *HostTransport) SendCommand(cmdID uint16, args func(output OutputBuffer)) error {
	return t.SendCommandWithTimeout(cmdID, args, 2*time.Second)
}

// SendCommandWithTimeout sends a command with a custom timeout
func (t *HostTransport) SendCommandWithTimeout(cmdID uint16, args func(output OutputBuffer), timeout time.Duration) error {
	t.sendMutex.Lock()
	defer t.sendMutex.Unlock()

	msg, err := t.buildCommandMessage(cmdID, args)
	if err != nil {
		return fmt.Errorf("failed to build command: %w", err)
	}

	if err := t.writeMessage(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return t.waitForAck(timeout)
}

// buildCommandMessage constructs a complete frame for one command
func (t *HostTransport) buildCommandMessage(cmdID uint16, args func(output OutputBuffer)) ([]byte, error) {
	scratch := NewScratchOutput()
	EncodeVLQUint(scratch, uint32(cmdID))
	if args != nil {
		args(scratch)
	}

	seq := uint8(atomic.LoadUint32(&t.currentSeq))
	return BuildFrame(seq, scratch.Result())
}

// writeMessage sends a frame to the port
func (t *HostTransport) writeMessage(msg []byte) error {
	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	n, err := t.port.Write(msg)
	if err != nil {
		return err
	}
	if n != len(msg) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(msg))
	}
	return nil
}

// waitForAck waits for the ack of the frame just sent. The device acks
// with the sequence it expects next; any other value is a nak, and the
// host adopts the device's sequence so the next send is accepted.
func (t *HostTransport) waitForAck(timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ack := <-t.ackChan:
		sent := uint8(atomic.LoadUint32(&t.currentSeq))
		want := NextSeq(sent)
		atomic.StoreUint32(&t.currentSeq, uint32(ack.Sequence))
		if ack.Sequence != want {
			return fmt.Errorf("%w: expected seq 0x%02x, got 0x%02x", ErrNak, want, ack.Sequence)
		}
		return nil

	case <-timer.C:
		return fmt.Errorf("%w after %v", ErrAckTimeout, timeout)

	case <-t.stopChan:
		return ErrStopped
	}
}

// ReceiveResponse receives a response message with timeout
func (t *HostTransport) ReceiveResponse(timeout time.Duration) (*Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-t.responseChan:
		return resp, nil

	case <-timer.C:
		return nil, fmt.Errorf("response timeout after %v", timeout)

	case <-t.stopChan:
		return nil, ErrStopped
	}
}

// SetResponseHandler sets a callback for handling responses asynchronously
func (t *HostTransport) SetResponseHandler(handler ResponseHandler) {
	t.responseHandler = handler
}

// readLoop continuously reads from the port and processes messages
func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	buffer := make([]byte, 256)

	for {
		select {
		case <-t.stopChan:
			return
		default:
		}

		n, err := t.port.Read(buffer)
		if n > 0 {
			t.readMutex.Lock()
			t.inputBuffer.Write(buffer[:n])
			t.readMutex.Unlock()
			t.processMessages()
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// processMessages parses and dispatches messages from the input buffer
func (t *HostTransport) processMessages() {
	t.readMutex.Lock()
	defer t.readMutex.Unlock()

	data := t.inputBuffer.Data()

	for len(data) > 0 {
		if !t.getSynchronized() {
			i := -1
			for j, b := range data {
				if b == MessageValueSync {
					i = j
					break
				}
			}
			if i < 0 {
				data = nil
				break
			}
			data = data[i+1:]
			t.setSynchronized(true)
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

		payload := make([]byte, len(frame.Payload))
		copy(payload, frame.Payload)
		t.dispatchMessage(&Message{
			Length:   frame.Length,
			Sequence: frame.Seq,
			Payload:  payload,
		})
	}

	consumed := t.inputBuffer.Available() - len(data)
	if consumed > 0 {
		t.inputBuffer.Pop(consumed)
	}
}

// dispatchMessage routes a message to the ack or response channel
func (t *HostTransport) dispatchMessage(msg *Message) {
	if len(msg.Payload) == 0 {
		select {
		case t.ackChan <- msg:
		default:
		}
		return
	}

	if t.responseHandler != nil {
		payloadCopy := make([]byte, len(msg.Payload))
		copy(payloadCopy, msg.Payload)
		cmdID, err := DecodeVLQUint(&payloadCopy)
		if err == nil {
			_ = t.responseHandler(uint16(cmdID), &payloadCopy)
		}
	}

	select {
	case t.responseChan <- msg:
	default:
		// Full: drop the oldest response
		select {
		case <-t.responseChan:
		default:
		}
		t.responseChan <- msg
	}
}

// Close stops the transport and closes the port
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stopChan)
		if t.port != nil {
			// Closing the port unblocks the reader
			err = t.port.Close()
		}
		<-t.doneChan
	})
	return err
}

// Reset resets the transport state (useful after errors)
func (t *HostTransport) Reset() {
	atomic.StoreUint32(&t.isSynchronized, 1)
	atomic.StoreUint32(&t.currentSeq, MessageDest)

	for len(t.ackChan) > 0 {
		<-t.ackChan
	}
	for len(t.responseChan) > 0 {
		<-t.responseChan
	}

	t.readMutex.Lock()
	if t.inputBuffer.Available() > 0 {
		t.inputBuffer.Pop(t.inputBuffer.Available())
	}
	t.readMutex.Unlock()
}

// Helper methods for atomic operations
func (t *HostTransport) getSynchronized() bool {
	return atomic.LoadUint32(&t.isSynchronized) != 0
}

func (t *HostTransport) setSynchronized(val bool) {
	if val {
		atomic.StoreUint32(&t.isSynchronized, 1)
	} else {
		atomic.StoreUint32(&t.isSynchronized, 0)
	}
}

// GetCurrentSequence returns the sequence of the next frame to send
func (t *HostTransport) GetCurrentSequence() uint8 {
	return uint8(atomic.LoadUint32(&t.currentSeq))
}
