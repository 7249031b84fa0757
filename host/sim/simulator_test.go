package sim

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"animahead/core"
	"animahead/host/link"
	"animahead/host/metrics"
	"animahead/host/serial"
	"animahead/protocol"
)

func testOptions() Options {
	cfg := core.DefaultConfig()
	cfg.CyclePeriodUS = 1000
	return Options{Actuators: cfg, Plant: DefaultPlantConfig()}
}

// testClock is the hand-driven core time, continued across runCycles calls
var testClock uint32

// runCycles drives the control timer by hand, one period per cycle
func runCycles(s *Simulator, n int) {
	for i := 0; i < n; i++ {
		core.SetTime(testClock)
		s.Step()
		testClock += 1000
	}
}

func newStepped(t *testing.T, opts Options) *Simulator {
	t.Helper()
	core.ResetTimers()
	core.ClearEventRing()
	core.SetTime(0)
	testClock = 0
	t.Cleanup(core.ResetTimers)

	s, err := New(bytes.NewReader(nil), opts)
	require.NoError(t, err)
	s.Head().StartTimer(0)
	return s
}

func feed(t *testing.T, s *Simulator, c protocol.Command) {
	t.Helper()
	frame, err := protocol.EncodeFrame(c)
	require.NoError(t, err)
	_, _ = s.Head().Decoder().Write(frame[:])
}

func TestPlantTracksPose(t *testing.T) {
	s := newStepped(t, testOptions())
	feed(t, s, protocol.Command{Chin: 100, NeckRy: 40, NeckRx: 0, NeckRz: 0xA0})

	runCycles(s, 400)

	p := s.Plant()
	assert.InDelta(t, 1610, p.Chin.PulseWidth(), 5)
	assert.InDelta(t, 1722, p.NeckRx.PulseWidth(), 5)

	// neckRy target -80 counts, deadband 15 plus coast
	assert.InDelta(t, -80, float64(p.NeckRyEncoder.Count()), 20)
	// neckRz target 42 counts on the inverted encoder, deadband 25 plus coast
	assert.InDelta(t, -42, float64(p.NeckRzEncoder.Count()), 30)
}

func TestPlantHoldsUnderLock(t *testing.T) {
	s := newStepped(t, testOptions())
	feed(t, s, protocol.Command{Chin: 20})
	runCycles(s, 100)
	held := s.Plant().Chin.PulseWidth()

	require.Equal(t, uint32(100), s.Head().Cycles())

	feed(t, s, protocol.Command{Extended: protocol.ExtendedEncoderLock, Chin: 200})
	runCycles(s, 100)

	assert.Equal(t, uint32(200), s.Head().Cycles())
	assert.True(t, s.Head().Locked())
	assert.Equal(t, held, s.Plant().Chin.PulseWidth())

	feed(t, s, protocol.Command{Chin: 200})
	runCycles(s, 10)

	assert.False(t, s.Head().Locked())
	assert.Greater(t, s.Plant().Chin.PulseWidth(), held)
}

func TestStepRecordsMetricsAndLogs(t *testing.T) {
	obsCore, logs := observer.New(zap.InfoLevel)
	m := metrics.NewHeadMetrics(prometheus.NewRegistry())

	opts := testOptions()
	opts.Metrics = m
	opts.Logger = zap.New(obsCore)
	s := newStepped(t, opts)

	feed(t, s, protocol.Command{Extended: protocol.ExtendedEncoderLock})
	_, _ = s.Head().Decoder().Write([]byte{0xFF, 0x00, 0x01, 0x02, 0x03, 0x04, 0x00})
	runCycles(s, 3)

	assert.Equal(t, 3.0, value(t, m.CyclesTotal))
	assert.Equal(t, 1.0, value(t, m.FramesTotal.WithLabelValues("valid")))
	assert.Equal(t, 1.0, value(t, m.FramesTotal.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, value(t, m.EncoderLock))
	assert.Equal(t, 0.0, value(t, m.FrameValid))

	assert.Equal(t, 1, logs.FilterMessage("encoder lock changed").Len())
	assert.Equal(t, 1, logs.FilterMessage("frames rejected").Len())
}

func TestDriverFaultKeepsCycling(t *testing.T) {
	s := newStepped(t, testOptions())
	s.Plant().SetFault(true)
	runCycles(s, 5)

	assert.Equal(t, uint32(5), s.Head().Cycles())
	events := core.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, uint8(core.EvtDriveError), events[0].EventType)
}

func TestStatusBus(t *testing.T) {
	bus := NewStatusBus(1)
	_, ok := bus.Receive()
	assert.False(t, ok)

	bus.Query(protocol.StatusQuery)
	w, ok := bus.Receive()
	require.True(t, ok)
	assert.Equal(t, protocol.StatusQuery, w)

	require.NoError(t, bus.Reply(protocol.StatusValid))
	require.NoError(t, bus.Reply(protocol.StatusInvalid))
	assert.Equal(t, protocol.StatusValid, <-bus.Replies())
	assert.Empty(t, bus.Replies())
}

func TestRunOverLoopback(t *testing.T) {
	hostEnd, headEnd := serial.Loopback()
	defer hostEnd.Close()

	m := metrics.NewHeadMetrics(prometheus.NewRegistry())
	opts := testOptions()
	opts.Metrics = m
	opts.StatusPoll = 5 * time.Millisecond

	s, err := New(headEnd, opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	up := link.NewUplink(hostEnd, 0, 1)
	require.NoError(t, up.SendPose(ctx, link.Pose{Chin: 100, NeckRx: 0x80, NeckRz: 0x80}))

	require.Eventually(t, func() bool {
		return value(t, m.StatusReplies.WithLabelValues("valid")) > 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("simulator did not stop")
	}
}

// value reads the current value of a counter or gauge
func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, m.Write(&pb))
	if pb.Counter != nil {
		return pb.Counter.GetValue()
	}
	return pb.Gauge.GetValue()
}
