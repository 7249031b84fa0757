package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"animahead/protocol"
)

var (
	// ErrClosed is returned by sends on a closed uplink
	ErrClosed = errors.New("link: uplink closed")

	// ErrThrottled is returned when no send slot frees up before the
	// context ends
	ErrThrottled = errors.New("link: no uplink slot before deadline")
)

// Pose is the four motion channels of a command
type Pose struct {
	Chin   uint8
	NeckRy uint8
	NeckRx uint8
	NeckRz uint8
}

// Stats counts uplink activity
type Stats struct {
	Sent      uint64
	Throttled uint64
}

// Uplink encodes commands into frames and writes them to the head,
// paced by a token bucket. It remembers the last command so pose and lock
// changes can be sent independently.
type Uplink struct {
	w       io.Writer
	limiter *rate.Limiter
	log     *zap.Logger

	mu     sync.Mutex
	last   protocol.Command
	stats  Stats
	closed bool
	onSend func(protocol.Command)
}

// Option configures an Uplink
type Option func(*Uplink)

// WithLogger sets the uplink logger
func WithLogger(log *zap.Logger) Option {
	return func(u *Uplink) { u.log = log }
}

// WithSendHook registers a callback run after every written frame
func WithSendHook(fn func(protocol.Command)) Option {
	return func(u *Uplink) { u.onSend = fn }
}

// NewUplink creates an uplink writing to w at most rateHz frames per second
func NewUplink(w io.Writer, rateHz float64, burst int, opts ...Option) *Uplink {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if rateHz > 0 {
		limit = rate.Limit(rateHz)
	}

	u := &Uplink{
		w:       w,
		limiter: rate.NewLimiter(limit, burst),
		log:     zap.NewNop(),
		last:    protocol.DefaultCommand(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Send writes c as one frame, waiting for the rate limiter
func (u *Uplink) Send(ctx context.Context, c protocol.Command) error {
	frame, err := protocol.EncodeFrame(c)
	if err != nil {
		return err
	}

	if !u.limiter.Allow() {
		u.mu.Lock()
		u.stats.Throttled++
		u.mu.Unlock()
		if err := u.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrThrottled, err)
		}
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return ErrClosed
	}
	if _, err := u.w.Write(frame[:]); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	u.last = c
	u.stats.Sent++
	u.log.Debug("frame sent",
		zap.Uint8("ext", c.Extended),
		zap.Uint8("chin", c.Chin),
		zap.Uint8("neckRy", c.NeckRy),
		zap.Uint8("neckRx", c.NeckRx),
		zap.Uint8("neckRz", c.NeckRz),
		zap.Binary("frame", frame[:]))
	if u.onSend != nil {
		u.onSend(c)
	}
	return nil
}

// SendPose sends p with the current extended byte
func (u *Uplink) SendPose(ctx context.Context, p Pose) error {
	c := u.Last()
	c.Chin, c.NeckRy, c.NeckRx, c.NeckRz = p.Chin, p.NeckRy, p.NeckRx, p.NeckRz
	return u.Send(ctx, c)
}

// SetExtended sends the last pose with a new extended byte
func (u *Uplink) SetExtended(ctx context.Context, ext uint8) error {
	c := u.Last()
	c.Extended = ext
	return u.Send(ctx, c)
}

// Lock sets the encoder lock bit so the head holds its motion channels
func (u *Uplink) Lock(ctx context.Context) error {
	return u.SetExtended(ctx, u.Last().Extended|protocol.ExtendedEncoderLock)
}

// Unlock clears the encoder lock bit
func (u *Uplink) Unlock(ctx context.Context) error {
	return u.SetExtended(ctx, u.Last().Extended&^protocol.ExtendedEncoderLock)
}

// WriteRaw writes bytes to the link unframed, bypassing the rate limiter
func (u *Uplink) WriteRaw(p []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return ErrClosed
	}
	if _, err := u.w.Write(p); err != nil {
		return fmt.Errorf("write raw: %w", err)
	}
	return nil
}

// Stream repeatedly sends the pose returned by next until ctx is done or
// duration elapses. It returns the number of frames sent.
func (u *Uplink) Stream(ctx context.Context, duration time.Duration, next func(i int) Pose) (int, error) {
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	sent := 0
	for {
		if err := ctx.Err(); err != nil {
			return sent, nil
		}
		if err := u.SendPose(ctx, next(sent)); err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrThrottled) {
				return sent, nil
			}
			return sent, err
		}
		sent++
	}
}

// Last returns the most recently sent command
func (u *Uplink) Last() protocol.Command {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.last
}

// Stats returns the uplink counters
func (u *Uplink) Stats() Stats {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.stats
}

// Close marks the uplink closed. The underlying writer is not closed.
func (u *Uplink) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.closed = true
	return nil
}
