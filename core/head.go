package core

import "animahead/protocol"

// Outputs is what one control cycle sent to the actuators
type Outputs struct {
	NeckRxPulse int32   // µs
	ChinPulse   int32   // µs
	NeckRySpeed float64 // drive fraction
	NeckRzSpeed float64 // drive fraction
}

// Head ties the command link to the actuator laws.
//
// Decoder() belongs to the receive context; Cycle and the timer belong to the
// control context. The CommandStore is the only state they share.
type Head struct {
	store   *CommandStore
	decoder *protocol.Decoder
	status  StatusResponder
	drivers Drivers

	neckRx *PulseLaw
	chin   *PulseLaw
	neckRy *VelocityLaw
	neckRz *VelocityLaw

	// Control-context bookkeeping
	outputs     Outputs
	cycles      uint32
	locked      bool
	rejectsSeen uint32
	resyncsSeen uint32

	timer       Timer
	periodTicks uint32
}

// NewHead creates a head controller. drivers must pass Validate.
func NewHead(cfg Config, drivers Drivers) (*Head, error) {
	if err := drivers.Validate(); err != nil {
		return nil, err
	}

	store := NewCommandStore()
	h := &Head{
		store:       store,
		decoder:     protocol.NewDecoder(store.Commit),
		status:      NewStatusResponder(store),
		drivers:     drivers,
		neckRx:      NewPulseLaw(cfg.NeckRx),
		chin:        NewPulseLaw(cfg.Chin),
		neckRy:      NewVelocityLaw(cfg.NeckRy),
		neckRz:      NewVelocityLaw(cfg.NeckRz),
		periodTicks: TimerFromUS(cfg.CyclePeriodUS),
	}
	h.outputs.NeckRxPulse = h.neckRx.Pulse()
	h.outputs.ChinPulse = h.chin.Pulse()
	return h, nil
}

// Decoder returns the frame decoder feeding this head's command store
func (h *Head) Decoder() *protocol.Decoder {
	return h.decoder
}

// Store returns the command store
func (h *Head) Store() *CommandStore {
	return h.store
}

// Cycle runs every actuator law once (neckRx, neckRy, neckRz, chin) and
// services one status query. It never blocks and never fails: driver
// errors are recorded in the event ring.
func (h *Head) Cycle() Outputs {
	cmd := h.store.Active()
	h.trackLink(cmd)

	h.outputs.NeckRxPulse = h.neckRx.Step(cmd.NeckRx)
	if err := h.drivers.NeckRx.SetPulseWidth(uint32(h.outputs.NeckRxPulse)); err != nil {
		RecordEvent(EvtDriveError, ChannelNeckRx, uint32(h.outputs.NeckRxPulse), 0)
	}

	speed, err := h.neckRy.Step(cmd.NeckRy, h.drivers.NeckRyEncoder, h.drivers.NeckRy)
	h.outputs.NeckRySpeed = speed
	if err != nil {
		RecordEvent(EvtDriveError, ChannelNeckRy, 0, 0)
	}

	speed, err = h.neckRz.Step(cmd.NeckRz, h.drivers.NeckRzEncoder, h.drivers.NeckRz)
	h.outputs.NeckRzSpeed = speed
	if err != nil {
		RecordEvent(EvtDriveError, ChannelNeckRz, 0, 0)
	}

	h.outputs.ChinPulse = h.chin.Step(cmd.Chin)
	if err := h.drivers.Chin.SetPulseWidth(uint32(h.outputs.ChinPulse)); err != nil {
		RecordEvent(EvtDriveError, ChannelChin, uint32(h.outputs.ChinPulse), 0)
	}

	if h.drivers.Status != nil {
		if _, err := h.status.Poll(h.drivers.Status); err != nil {
			RecordEvent(EvtStatusError, ChannelNone, 0, 0)
		}
	}

	h.cycles++
	return h.outputs
}

// trackLink records lock transitions and decoder faults seen since the
// previous cycle
func (h *Head) trackLink(cmd protocol.Command) {
	if locked := cmd.EncoderLock(); locked != h.locked {
		h.locked = locked
		if locked {
			RecordEvent(EvtLockEngaged, ChannelNone, uint32(cmd.Extended), 0)
		} else {
			RecordEvent(EvtLockReleased, ChannelNone, uint32(cmd.Extended), 0)
		}
	}

	stats := h.decoder.Stats()
	if stats.Rejected != h.rejectsSeen {
		RecordEvent(EvtFrameRejected, ChannelNone, stats.Rejected-h.rejectsSeen, stats.Frames)
		h.rejectsSeen = stats.Rejected
	}
	if stats.Resyncs != h.resyncsSeen {
		RecordEvent(EvtResync, ChannelNone, stats.Resyncs-h.resyncsSeen, 0)
		h.resyncsSeen = stats.Resyncs
	}
}

// Outputs returns the actuator outputs of the last cycle
func (h *Head) Outputs() Outputs {
	return h.outputs
}

// Cycles returns the number of completed control cycles
func (h *Head) Cycles() uint32 {
	return h.cycles
}

// Locked reports the encoder lock state seen by the last cycle
func (h *Head) Locked() bool {
	return h.locked
}

// NeckRyLaw exposes the neck tilt law for diagnostics
func (h *Head) NeckRyLaw() *VelocityLaw {
	return h.neckRy
}

// NeckRzLaw exposes the neck pan law for diagnostics
func (h *Head) NeckRzLaw() *VelocityLaw {
	return h.neckRz
}

// StartTimer schedules Cycle every configured period starting at now
func (h *Head) StartTimer(now uint32) {
	if h.periodTicks == 0 {
		h.periodTicks = 1
	}
	h.timer.Next = nil
	h.timer.WakeTime = now
	h.timer.Handler = h.cycleEvent
	ScheduleTimer(&h.timer)
}

// cycleEvent is the timer handler running one control cycle
func (h *Head) cycleEvent(t *Timer) uint8 {
	h.Cycle()

	// Skip missed periods rather than bursting to catch up
	t.WakeTime += h.periodTicks
	if now := GetTime(); timerBefore(t.WakeTime, now) {
		t.WakeTime = now + h.periodTicks
	}
	return SF_RESCHEDULE
}
