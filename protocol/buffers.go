package protocol

// ReceiveBufferSize holds a few maximum-length frames; enough for a host
// that pipelines while the device is busy with the previous frame
const ReceiveBufferSize = 4 * MessageLengthMax

// InputBuffer is what Transport.Receive parses frames from
type InputBuffer interface {
	Data() []byte
	Available() int
	Pop(n int)
}

// OutputBuffer is where frames are assembled. The length byte and CRC are
// patched in after the payload, hence Update and DataSince.
type OutputBuffer interface {
	Output(data []byte)
	CurPosition() int
	Update(pos int, val byte)
	DataSince(pos int) []byte
}

// SliceInputBuffer reads frames from a fixed slice
type SliceInputBuffer struct {
	data []byte
}

func NewSliceInputBuffer(data []byte) *SliceInputBuffer {
	return &SliceInputBuffer{data: data}
}

func (s *SliceInputBuffer) Data() []byte   { return s.data }
func (s *SliceInputBuffer) Available() int { return len(s.data) }

func (s *SliceInputBuffer) Pop(n int) {
	s.data = s.data[min(n, len(s.data)):]
}

// ScratchOutput collects the frames produced while handling one received
// frame (responses, then the ack). Bytes past MessageMax are dropped and
// the loss is reported by Overflowed until Reset.
type ScratchOutput struct {
	buf      [MessageMax]byte
	pos      int
	overflow bool
}

func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
	if n < len(data) {
		s.overflow = true
	}
}

func (s *ScratchOutput) CurPosition() int { return s.pos }

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos < s.pos {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns the frames assembled since the last Reset
func (s *ScratchOutput) Result() []byte { return s.buf[:s.pos] }

// Overflowed reports whether any output was dropped since the last Reset
func (s *ScratchOutput) Overflowed() bool { return s.overflow }

func (s *ScratchOutput) Reset() {
	s.pos = 0
	s.overflow = false
}

// FifoBuffer queues received bytes until a whole frame is present.
// Unread bytes are kept at the front of the buffer, so Data is always a
// contiguous view and never allocates; Pop moves the remainder down,
// which is at most a few frames.
type FifoBuffer struct {
	buf []byte
	n   int
}

// NewFifoBuffer creates a FIFO holding up to capacity bytes
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, capacity)}
}

// Write queues as much of data as fits and returns the count
func (f *FifoBuffer) Write(data []byte) int {
	w := copy(f.buf[f.n:], data)
	f.n += w
	return w
}

func (f *FifoBuffer) Available() int { return f.n }
func (f *FifoBuffer) Free() int      { return len(f.buf) - f.n }
func (f *FifoBuffer) Data() []byte   { return f.buf[:f.n] }

// Pop drops n bytes from the front
func (f *FifoBuffer) Pop(n int) {
	if n >= f.n {
		f.n = 0
		return
	}
	f.n = copy(f.buf, f.buf[n:f.n])
}

func (f *FifoBuffer) Reset() { f.n = 0 }
