package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// ConfigEvent records one configure call for post-mortem analysis
type ConfigEvent struct {
	Desc Descriptor
	Code Code
	Seq  uint32 // Monotonic event number, 0 = empty slot
}

const (
	ConfigRingSize = 16 // Keep the last 16 configure calls
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Configure history (non-blocking, safe from interrupt context)
	configRing     [ConfigRingSize]ConfigEvent
	configRingHead uint8
	configSeq      uint32

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, semihosting, etc.
func SetDebugWriter(writer DebugWriter) {
	if writer == nil {
		writer = func(string) {}
	}
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Drops the message if the channel is full or async output is not running
func DebugAsync(msg string) {
	if !debugEnabled || debugChan == nil {
		return
	}
	select {
	case debugChan <- msg:
	default:
	}
}

// recordConfig captures a configure call in the ring buffer. The ring is
// guarded by the interrupt mask so handlers may configure pins too.
func recordConfig(d Descriptor, code Code) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	configSeq++
	idx := configRingHead
	configRing[idx] = ConfigEvent{Desc: d, Code: code, Seq: configSeq}
	configRingHead = (idx + 1) % ConfigRingSize
}

// ConfigHistory returns the recorded configure calls, oldest first
func ConfigHistory() []ConfigEvent {
	out := make([]ConfigEvent, 0, ConfigRingSize)
	state := disableInterrupts()
	defer restoreInterrupts(state)

	start := configRingHead
	for i := uint8(0); i < ConfigRingSize; i++ {
		evt := configRing[(start+i)%ConfigRingSize]
		if evt.Seq == 0 {
			continue
		}
		out = append(out, evt)
	}
	return out
}

// DumpConfigHistory writes the configure history to the debug writer
func DumpConfigHistory() {
	if debugPrintln == nil {
		return
	}
	debugPrintln("[GPIO] === Configure history ===")
	for _, evt := range ConfigHistory() {
		debugPrintln("[GPIO] #" + itoa(int(evt.Seq)) +
			" " + hex32(uint32(evt.Desc)) +
			" " + evt.Desc.String() +
			" -> " + evt.Code.String())
	}
	debugPrintln("[GPIO] === End history ===")
}

// ClearConfigHistory clears the configure history
func ClearConfigHistory() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for i := range configRing {
		configRing[i] = ConfigEvent{}
	}
	configRingHead = 0
	configSeq = 0
}
