// Package status implements the node's process-wide lifecycle phase: a
// single atomic integer, set by the owning node and observed by every
// peer-handling goroutine and by the wire protocol's Ping/ChallengeRequest
// encoders.
package status

import "sync/atomic"

// State is the node's lifecycle phase. Ping and ChallengeRequest
// wire-encode it as a little-endian uint32.
type State uint8

const (
	// Ready indicates the node is idle and available to serve peers.
	Ready State = iota
	// Mining indicates the node is actively producing candidate blocks.
	Mining
	// Peering indicates the node is still establishing its minimum peer
	// count.
	Peering
	// Syncing indicates the node is catching up to the canonical chain.
	Syncing
	// ShuttingDown indicates the node has begun a graceful shutdown and
	// should not accept new work.
	ShuttingDown
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Ready:
		return "Ready"
	case Mining:
		return "Mining"
	case Peering:
		return "Peering"
	case Syncing:
		return "Syncing"
	case ShuttingDown:
		return "ShuttingDown"
	default:
		return "Unknown"
	}
}

// Status is a process-wide atomic lifecycle flag. Transitions are
// performed by the owning node; every peer-handling goroutine only ever
// reads it.
type Status struct {
	state atomic.Int32
}

// New returns a Status initialized to Ready.
func New() *Status {
	s := &Status{}
	s.state.Store(int32(Ready))
	return s
}

// Get returns the current state.
func (s *Status) Get() State {
	return State(s.state.Load())
}

// Update transitions to the given state. The reference node treats
// transitions as monotonic under the owning node's discretion; this
// type does not itself enforce an ordering, since the rules of
// "monotonic" are a policy decision made by the node's scheduler, not
// the wire protocol core.
func (s *Status) Update(next State) {
	s.state.Store(int32(next))
}

// Is reports whether the current state equals want.
func (s *Status) Is(want State) bool {
	return s.Get() == want
}
