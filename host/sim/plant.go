package sim

import (
	"errors"
	"sync"

	"animahead/core"
)

// ErrActuatorFault is returned by a simulated driver with an injected fault
var ErrActuatorFault = errors.New("sim: actuator fault")

// Servo records the pulse width it was last given
type Servo struct {
	pulse uint32
	fault bool
}

// SetPulseWidth implements core.PulseOutput
func (s *Servo) SetPulseWidth(us uint32) error {
	if s.fault {
		return ErrActuatorFault
	}
	s.pulse = us
	return nil
}

// PulseWidth returns the last pulse width (µs)
func (s *Servo) PulseWidth() uint32 {
	return s.pulse
}

// Motor holds the last drive fraction
type Motor struct {
	speed float64
	fault bool
}

// Drive implements core.MotorDriver
func (m *Motor) Drive(speed float64) error {
	if m.fault {
		return ErrActuatorFault
	}
	if speed > 1 {
		speed = 1
	} else if speed < -1 {
		speed = -1
	}
	m.speed = speed
	return nil
}

// Speed implements core.MotorDriver
func (m *Motor) Speed() float64 {
	return m.speed
}

// Encoder integrates the speed of the motor it is coupled to
type Encoder struct {
	position float64
}

// Count implements core.Counter
func (e *Encoder) Count() int32 {
	return int32(e.position)
}

// StatusBus is an in-memory status bus. The supervisor side calls Query;
// the head side implements core.StatusBus.
type StatusBus struct {
	mu      sync.Mutex
	pending []uint16
	replies chan uint16
}

// NewStatusBus creates a bus buffering up to depth replies
func NewStatusBus(depth int) *StatusBus {
	return &StatusBus{replies: make(chan uint16, depth)}
}

// Query queues a request word for the head
func (b *StatusBus) Query(word uint16) {
	b.mu.Lock()
	b.pending = append(b.pending, word)
	b.mu.Unlock()
}

// Receive implements core.StatusBus
func (b *StatusBus) Receive() (uint16, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return 0, false
	}
	w := b.pending[0]
	b.pending = b.pending[1:]
	return w, true
}

// Reply implements core.StatusBus. Replies are dropped when nobody drains
// the buffer, as a real slave overruns its FIFO.
func (b *StatusBus) Reply(word uint16) error {
	select {
	case b.replies <- word:
	default:
	}
	return nil
}

// Replies delivers the head's reply words
func (b *StatusBus) Replies() <-chan uint16 {
	return b.replies
}

// PlantConfig sets the simulated mechanics
type PlantConfig struct {
	// CountsPerCycle is the encoder travel per control cycle at full drive
	CountsPerCycle float64
	// NeckRzReversed makes the pan encoder count against the drive
	NeckRzReversed bool
}

// DefaultPlantConfig matches the encoder wiring of the production head
func DefaultPlantConfig() PlantConfig {
	return PlantConfig{CountsPerCycle: 2, NeckRzReversed: true}
}

// Plant is the simulated head: two servos, two geared motors with
// encoders and the status bus. It is advanced from the control context.
type Plant struct {
	cfg PlantConfig

	NeckRx        Servo
	Chin          Servo
	NeckRy        Motor
	NeckRyEncoder Encoder
	NeckRz        Motor
	NeckRzEncoder Encoder
	Status        *StatusBus
}

// NewPlant creates a plant at rest
func NewPlant(cfg PlantConfig) *Plant {
	return &Plant{cfg: cfg, Status: NewStatusBus(16)}
}

// Advance moves the encoders by one cycle of motor travel
func (p *Plant) Advance() {
	p.NeckRyEncoder.position += p.NeckRy.speed * p.cfg.CountsPerCycle
	rz := p.NeckRz.speed * p.cfg.CountsPerCycle
	if p.cfg.NeckRzReversed {
		rz = -rz
	}
	p.NeckRzEncoder.position += rz
}

// SetFault injects or clears a driver fault on every actuator
func (p *Plant) SetFault(fault bool) {
	p.NeckRx.fault = fault
	p.Chin.fault = fault
	p.NeckRy.fault = fault
	p.NeckRz.fault = fault
}

// Drivers returns the plant as the head's driver set
func (p *Plant) Drivers() core.Drivers {
	return core.Drivers{
		NeckRx:        &p.NeckRx,
		Chin:          &p.Chin,
		NeckRy:        &p.NeckRy,
		NeckRyEncoder: &p.NeckRyEncoder,
		NeckRz:        &p.NeckRz,
		NeckRzEncoder: &p.NeckRzEncoder,
		Status:        p.Status,
	}
}
