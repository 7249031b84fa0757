package core

import "animahead/protocol"

// StatusResponder answers the supervisor's link-status query
type StatusResponder struct {
	store *CommandStore
}

// NewStatusResponder creates a responder reporting store's validity flag
func NewStatusResponder(store *CommandStore) StatusResponder {
	return StatusResponder{store: store}
}

// Respond maps a request word to its reply. ok is false for words that
// get no reply.
func (r StatusResponder) Respond(req uint16) (reply uint16, ok bool) {
	if req != protocol.StatusQuery {
		return 0, false
	}
	if r.store.Valid() {
		return protocol.StatusValid, true
	}
	return protocol.StatusInvalid, true
}

// Poll services at most one pending request on bus without blocking.
// It reports whether a reply was sent.
func (r StatusResponder) Poll(bus StatusBus) (bool, error) {
	req, ok := bus.Receive()
	if !ok {
		return false, nil
	}
	reply, ok := r.Respond(req)
	if !ok {
		return false, nil
	}
	return true, bus.Reply(reply)
}
