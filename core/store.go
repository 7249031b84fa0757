package core

import (
	"sync/atomic"

	"animahead/protocol"
)

// CommandStore holds the active command shared between the receive context
// (single writer) and the control context (reader).
//
// The five channels are packed into one word so a reader always sees a
// command exactly as it was committed.
type CommandStore struct {
	word  uint64 // atomic, packed protocol.Command; must stay first for 64-bit alignment
	valid uint32 // atomic bool, outcome of the last completed frame
}

// NewCommandStore creates a store holding the startup command
func NewCommandStore() *CommandStore {
	s := &CommandStore{}
	s.Reset()
	return s
}

// Commit applies one completed frame.
// Extended is taken from every valid frame; the motion channels only when
// the frame's encoder lock bit is clear. Invalid frames only clear the
// validity flag.
func (s *CommandStore) Commit(frame protocol.Command, valid bool) {
	s.setValid(valid)
	if !valid {
		return
	}

	next := s.Active()
	next.Extended = frame.Extended
	if !next.EncoderLock() {
		next = next.WithMotion(frame)
	}
	atomic.StoreUint64(&s.word, next.Pack())
}

// Active returns the committed command
func (s *CommandStore) Active() protocol.Command {
	return protocol.UnpackCommand(atomic.LoadUint64(&s.word))
}

// Valid reports whether the last completed frame passed its checksum
func (s *CommandStore) Valid() bool {
	return atomic.LoadUint32(&s.valid) != 0
}

// Reset restores the startup command and clears the validity flag
func (s *CommandStore) Reset() {
	atomic.StoreUint64(&s.word, protocol.DefaultCommand().Pack())
	s.setValid(false)
}

func (s *CommandStore) setValid(val bool) {
	if val {
		atomic.StoreUint32(&s.valid, 1)
	} else {
		atomic.StoreUint32(&s.valid, 0)
	}
}
