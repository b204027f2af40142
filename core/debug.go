package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures a notable event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	Arg       uint8  // Command type, storage event, etc.
	Clock     uint32 // Boot time at event (us)
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtFrame        = 1 // Command executed, v1 = reply type
	EvtFrameFailed  = 2 // Frame rejected, v1 = offending byte
	EvtRxTimeout    = 3 // Receive timeout mid-frame, v1 = stage
	EvtResync       = 4 // Begin marker inside a frame
	EvtStoreFormat  = 5 // Record log formatted
	EvtStoreWrap    = 6 // Record log wrapped, v1 = wrap count
	EvtStoreCorrupt = 7 // Illegal RAT pattern
	EvtStoreWrite   = 8 // Record written, v1 = address
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Timing capture ring buffer (non-blocking, for post-mortem)
	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8        // Next write position
	timingEnabled  bool  = true // Always capture timing events
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
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

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordTiming captures a timing event in the ring buffer
// This is always non-blocking and safe to call from handlers
func RecordTiming(eventType, arg uint8, clock, value1, value2 uint32) {
	if !timingEnabled {
		return
	}
	state := disableInterrupts()
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		Arg:       arg,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	timingRingHead = (idx + 1) % TimingRingSize
	restoreInterrupts(state)
}

// TimingEvents returns the recorded events from oldest to newest.
func TimingEvents() []TimingEvent {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	var out []TimingEvent
	start := timingRingHead
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := timingRing[(start+i)%TimingRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

func timingEventName(t uint8) string {
	switch t {
	case EvtFrame:
		return "FRAME"
	case EvtFrameFailed:
		return "FRAME_FAILED"
	case EvtRxTimeout:
		return "RX_TIMEOUT"
	case EvtResync:
		return "RESYNC"
	case EvtStoreFormat:
		return "STORE_FORMAT"
	case EvtStoreWrap:
		return "STORE_WRAP"
	case EvtStoreCorrupt:
		return "STORE_CORRUPT!"
	case EvtStoreWrite:
		return "STORE_WRITE"
	}
	return "UNKNOWN"
}

// DumpTimingRing outputs the timing ring buffer (call on shutdown/error)
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMING] === Timing Ring Dump ===")
	for _, evt := range TimingEvents() {
		debugPrintln("[TIMING] " + timingEventName(evt.EventType) +
			" arg=0x" + hex8(evt.Arg) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer
func ClearTimingRing() {
	state := disableInterrupts()
	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	timingRingHead = 0
	restoreInterrupts(state)
}
