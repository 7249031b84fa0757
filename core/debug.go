package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures a control-side event for post-mortem analysis
type Event struct {
	EventType uint8  // Event type code
	Channel   uint8  // Actuator channel, ChannelNone if not actuator specific
	Clock     uint32 // System clock at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtLockEngaged   = 1 // Encoder lock bit went high
	EvtLockReleased  = 2 // Encoder lock bit went low
	EvtFrameRejected = 3 // Decoder reported new checksum failures (value1 = count)
	EvtResync        = 4 // Decoder resynchronised mid-frame (value1 = count)
	EvtDriveError    = 5 // Actuator driver returned an error
	EvtStatusError   = 6 // Status bus reply failed
)

// Actuator channel codes
const (
	ChannelNone   = 0
	ChannelNeckRx = 1
	ChannelNeckRy = 2
	ChannelNeckRz = 3
	ChannelChin   = 4
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Event ring, written only from the control context
	eventRing     [EventRingSize]Event
	eventRingHead uint8
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

// RecordEvent captures an event in the ring buffer
func RecordEvent(eventType, channel uint8, value1, value2 uint32) {
	idx := eventRingHead
	eventRing[idx] = Event{
		EventType: eventType,
		Channel:   channel,
		Clock:     GetTime(),
		Value1:    value1,
		Value2:    value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
}

// Events returns the recorded events, oldest first
func Events() []Event {
	events := make([]Event, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// EventName returns a short label for an event type
func EventName(eventType uint8) string {
	switch eventType {
	case EvtLockEngaged:
		return "LOCK_ON"
	case EvtLockReleased:
		return "LOCK_OFF"
	case EvtFrameRejected:
		return "REJECT"
	case EvtResync:
		return "RESYNC"
	case EvtDriveError:
		return "DRIVE_ERR"
	case EvtStatusError:
		return "STATUS_ERR"
	default:
		return "UNKNOWN"
	}
}

// DumpEventRing outputs the event ring through the debug writer
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENT] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[EVENT] " + EventName(evt.EventType) +
			" ch=" + itoa(int(evt.Channel)) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[EVENT] === End Dump ===")
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
}
