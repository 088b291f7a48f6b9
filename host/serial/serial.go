package serial

import (
	"io"
	"sync"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Loopback to an in-process device (simulation and tests)
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate of the board's UART
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the configuration used by the LaunchPad firmware
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}

// AttachFunc connects an in-process device. It receives the writer the
// device replies on and returns the writer that receives host bytes.
type AttachFunc func(reply io.Writer) (io.Writer, error)

// LoopbackPort carries host bytes straight into a device's writer and
// device replies back through a pipe
type LoopbackPort struct {
	mu     sync.Mutex
	device io.Writer
	r      *io.PipeReader
	w      *io.PipeWriter
	once   sync.Once
}

// Loopback returns a Port wired to the device created by attach
func Loopback(attach AttachFunc) (Port, error) {
	r, w := io.Pipe()
	dev, err := attach(w)
	if err != nil {
		w.Close()
		return nil, err
	}
	return &LoopbackPort{device: dev, r: r, w: w}, nil
}

func (p *LoopbackPort) Read(b []byte) (int, error) {
	return p.r.Read(b)
}

// Write hands b to the device. The device's replies are written to the
// pipe, so Write returns once they have been read.
func (p *LoopbackPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.device.Write(b)
}

// Close ends both directions. Pending reads fail with io.ErrClosedPipe.
func (p *LoopbackPort) Close() error {
	p.once.Do(func() {
		p.r.Close()
		p.w.Close()
	})
	return nil
}

func (p *LoopbackPort) Flush() error { return nil }
