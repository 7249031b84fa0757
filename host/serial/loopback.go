package serial

import (
	"io"
	"sync"
)

// LoopbackPort is one end of an in-process link. Bytes written to one end
// are read from the other.
type LoopbackPort struct {
	r *io.PipeReader
	w *io.PipeWriter

	closeOnce sync.Once
}

// Loopback returns the two ends of a connected in-process link
func Loopback() (*LoopbackPort, *LoopbackPort) {
	aR, bW := io.Pipe()
	bR, aW := io.Pipe()
	return &LoopbackPort{r: aR, w: aW}, &LoopbackPort{r: bR, w: bW}
}

func (p *LoopbackPort) Read(b []byte) (int, error) {
	return p.r.Read(b)
}

func (p *LoopbackPort) Write(b []byte) (int, error) {
	return p.w.Write(b)
}

// Close closes both directions; the peer sees io.EOF on read
func (p *LoopbackPort) Close() error {
	p.closeOnce.Do(func() {
		p.w.Close()
		p.r.Close()
	})
	return nil
}

// Flush is a no-op, writes are unbuffered
func (p *LoopbackPort) Flush() error {
	return nil
}
