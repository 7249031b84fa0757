package core

import "errors"

var errFakeDriver = errors.New("fake driver failure")

// callLog records the order in which fake drivers are touched
type callLog struct {
	calls []string
}

func (l *callLog) add(name string) {
	if l != nil {
		l.calls = append(l.calls, name)
	}
}

type fakeServo struct {
	name  string
	log   *callLog
	pulse uint32
	fail  bool
}

func (s *fakeServo) SetPulseWidth(us uint32) error {
	s.log.add(s.name)
	if s.fail {
		return errFakeDriver
	}
	s.pulse = us
	return nil
}

type fakeMotor struct {
	name  string
	log   *callLog
	speed float64
	fail  bool
}

func (m *fakeMotor) Drive(speed float64) error {
	m.log.add(m.name)
	if m.fail {
		return errFakeDriver
	}
	m.speed = speed
	return nil
}

func (m *fakeMotor) Speed() float64 {
	return m.speed
}

type fakeEncoder struct {
	count int32
}

func (e *fakeEncoder) Count() int32 {
	return e.count
}

type fakeBus struct {
	log     *callLog
	pending []uint16
	replies []uint16
	fail    bool
}

func (b *fakeBus) Receive() (uint16, bool) {
	b.log.add("status")
	if len(b.pending) == 0 {
		return 0, false
	}
	w := b.pending[0]
	b.pending = b.pending[1:]
	return w, true
}

func (b *fakeBus) Reply(word uint16) error {
	if b.fail {
		return errFakeDriver
	}
	b.replies = append(b.replies, word)
	return nil
}

type fakeRig struct {
	log    *callLog
	neckRx *fakeServo
	chin   *fakeServo
	neckRy *fakeMotor
	neckRz *fakeMotor
	ryEnc  *fakeEncoder
	rzEnc  *fakeEncoder
	bus    *fakeBus
}

func newFakeRig() *fakeRig {
	log := &callLog{}
	return &fakeRig{
		log:    log,
		neckRx: &fakeServo{name: "neckRx", log: log},
		chin:   &fakeServo{name: "chin", log: log},
		neckRy: &fakeMotor{name: "neckRy", log: log},
		neckRz: &fakeMotor{name: "neckRz", log: log},
		ryEnc:  &fakeEncoder{},
		rzEnc:  &fakeEncoder{},
		bus:    &fakeBus{log: log},
	}
}

func (r *fakeRig) drivers() Drivers {
	return Drivers{
		NeckRx:        r.neckRx,
		Chin:          r.chin,
		NeckRy:        r.neckRy,
		NeckRyEncoder: r.ryEnc,
		NeckRz:        r.neckRz,
		NeckRzEncoder: r.rzEnc,
		Status:        r.bus,
	}
}
