package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"animahead/core"
	"animahead/host/metrics"
	"animahead/protocol"
)

// Options configures a Simulator
type Options struct {
	Actuators  core.Config
	Plant      PlantConfig
	StatusPoll time.Duration // 0 disables status queries
	Metrics    *metrics.HeadMetrics
	Logger     *zap.Logger
}

// Simulator runs the head control code against a simulated plant, fed by
// frames read from a port.
//
// The control timer and event ring are process-wide, so only one
// Simulator may run at a time.
type Simulator struct {
	head   *core.Head
	plant  *Plant
	port   io.Reader
	opts   Options
	log    *zap.Logger
	period time.Duration

	locked   bool
	lastSeen protocol.DecoderStats
}

// New creates a simulator reading frames from port
func New(port io.Reader, opts Options) (*Simulator, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	plant := NewPlant(opts.Plant)
	head, err := core.NewHead(opts.Actuators, plant.Drivers())
	if err != nil {
		return nil, fmt.Errorf("create head: %w", err)
	}

	period := time.Duration(opts.Actuators.CyclePeriodUS) * time.Microsecond
	if period <= 0 {
		period = time.Millisecond
	}

	return &Simulator{
		head:   head,
		plant:  plant,
		port:   port,
		opts:   opts,
		log:    opts.Logger,
		period: period,
	}, nil
}

// Head returns the simulated head controller
func (s *Simulator) Head() *core.Head {
	return s.head
}

// Plant returns the simulated mechanics
func (s *Simulator) Plant() *Plant {
	return s.plant
}

// Run receives frames and runs control cycles until ctx is done. A port
// that reaches EOF stops the receiver but not the control loop. If the port
// is an io.Closer it is closed when ctx ends so a blocked read returns.
func (s *Simulator) Run(ctx context.Context) error {
	core.ResetTimers()
	core.ClearEventRing()
	core.SetTime(0)
	core.SetDebugWriter(func(msg string) { s.log.Debug(msg) })
	core.SetDebugEnabled(s.log.Core().Enabled(zap.DebugLevel))
	defer core.ResetTimers()

	s.log.Info("simulator started",
		zap.String("version", protocol.Version),
		zap.Duration("period", s.period),
		zap.Duration("statusPoll", s.opts.StatusPoll))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.receive(ctx)
	})
	g.Go(func() error {
		return s.control(ctx)
	})
	if c, ok := s.port.(io.Closer); ok {
		g.Go(func() error {
			<-ctx.Done()
			c.Close()
			return nil
		})
	}

	err := g.Wait()
	core.DumpEventRing()
	s.log.Info("simulator stopped",
		zap.Uint32("cycles", s.head.Cycles()),
		zap.Uint32("frames", s.head.Decoder().Stats().Frames))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// receive is the receive context: port bytes go straight to the decoder
func (s *Simulator) receive(ctx context.Context) error {
	_, err := io.Copy(s.head.Decoder(), readerWithContext{ctx: ctx, r: s.port})
	switch {
	case err == nil:
		s.log.Info("link closed")
		return nil
	case ctx.Err() != nil:
		return nil
	default:
		return fmt.Errorf("read link: %w", err)
	}
}

// control is the control context: it drives the core timer from the wall
// clock so the head cycles at its configured period
func (s *Simulator) control(ctx context.Context) error {
	start := time.Now()
	s.head.StartTimer(0)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	var poll <-chan time.Time
	if s.opts.StatusPoll > 0 {
		pt := time.NewTicker(s.opts.StatusPoll)
		defer pt.Stop()
		poll = pt.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-poll:
			s.plant.Status.Query(protocol.StatusQuery)
		case reply := <-s.plant.Status.Replies():
			if s.opts.Metrics != nil {
				s.opts.Metrics.ObserveStatusReply(reply)
			}
			s.log.Debug("status reply", zap.Uint16("word", reply))
		case now := <-ticker.C:
			core.SetTime(uint32(now.Sub(start) / time.Microsecond))
			s.Step()
		}
	}
}

// Step advances the plant and runs any due control cycle
func (s *Simulator) Step() {
	before := s.head.Cycles()
	s.plant.Advance()
	core.ProcessTimers()
	if s.head.Cycles() == before {
		return
	}
	s.observe()
}

func (s *Simulator) observe() {
	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveCycle(s.head)
	}

	if locked := s.head.Locked(); locked != s.locked {
		s.locked = locked
		s.log.Info("encoder lock changed", zap.Bool("locked", locked))
	}

	stats := s.head.Decoder().Stats()
	if n := stats.Rejected - s.lastSeen.Rejected; n > 0 {
		s.log.Warn("frames rejected", zap.Uint32("count", n), zap.Uint32("total", stats.Rejected))
	}
	if n := stats.Resyncs - s.lastSeen.Resyncs; n > 0 {
		s.log.Warn("link resynchronised", zap.Uint32("count", n))
	}
	s.lastSeen = stats
}

// readerWithContext stops reads once ctx is done. A read already blocked
// in the port returns when the port is closed.
type readerWithContext struct {
	ctx context.Context
	r   io.Reader
}

func (r readerWithContext) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
