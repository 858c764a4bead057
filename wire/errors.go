package wire

import "errors"

// Sentinel errors for the codec's structural failure modes (spec.md
// §7). Payload-level decode failures surface separately, from
// data.Deferred, only when a consumer asks for the decoded value.
var (
	// ErrFrameTooLarge is returned when a frame's declared length
	// exceeds MaximumMessageSize. It is fatal for the connection.
	ErrFrameTooLarge = errors.New("wire: frame exceeds maximum message size")

	// ErrInvalidMessage covers unknown ids, malformed fixed prefixes,
	// forbidden trailing bytes on zero-payload variants, and
	// out-of-range discriminants (e.g. Pong's is-fork byte).
	ErrInvalidMessage = errors.New("wire: invalid message")
)
