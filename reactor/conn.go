// Package reactor implements the network-facing half of spec.md §4.1's
// "cooperative async runtime": one read goroutine and one write
// goroutine per connection, registered in the environment's task
// registry, translating between a net.Conn byte stream and decoded
// wire.Message values. It contains no peer-selection, handshake, or
// sync policy — those remain the external peer manager's job — only
// the mechanical frame pump spec.md's rationale describes.
package reactor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/ethereum/go-ethereum/log"

	"github.com/aleonet/snarkos-network/environment"
	"github.com/aleonet/snarkos-network/metrics"
	"github.com/aleonet/snarkos-network/wire"
)

// readBufSize is the chunk size used for each net.Conn.Read call
// feeding the frame decoder.
const readBufSize = 64 * 1024

// Conn pumps wire.Message frames to and from a net.Conn. Its read
// goroutine blocks on socket reads, on a full Inbound channel, and for up
// to maxThrottleDelay on the BlockRequest limiter.
type Conn struct {
	conn    net.Conn
	decoder *wire.Decoder
	log     log.Logger
	metrics *metrics.Registry

	Inbound  chan wire.Message
	Outbound chan wire.Message

	errs chan error

	blockRequests *BlockRequestLimiter
}

// New wraps conn, using maxMessageSize (typically Config.MaximumMessageSize)
// as the frame decoder's ceiling. logger may be nil (defaults to
// log.Root()); m may be nil (instrumentation becomes a no-op).
func New(conn net.Conn, maxMessageSize int, logger log.Logger, m *metrics.Registry) *Conn {
	if logger == nil {
		logger = log.Root()
	}
	return &Conn{
		conn:          conn,
		decoder:       wire.NewDecoder(maxMessageSize),
		log:           logger,
		metrics:       m,
		Inbound:       make(chan wire.Message, 16),
		Outbound:      make(chan wire.Message, 16),
		errs:          make(chan error, 2),
		blockRequests: NewBlockRequestLimiter(),
	}
}

// Start registers the read and write loops in svc.Tasks and returns
// immediately; decoded messages arrive on c.Inbound until the
// connection closes or ctx is cancelled. Cancelling ctx or shutting
// down svc.Tasks closes the connection, so a read blocked on the socket
// returns and the read loop exits.
func (c *Conn) Start(ctx context.Context, svc *environment.Services) {
	svc.Tasks.Spawn(func(cancelled <-chan struct{}) {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-ctx.Done():
			case <-cancelled:
			case <-stop:
				return
			}
			c.conn.Close()
		}()
		c.readLoop(ctx, cancelled, svc)
	})
	svc.Tasks.Spawn(func(cancelled <-chan struct{}) {
		c.writeLoop(ctx, cancelled, svc)
	})
}

// Errs reports asynchronous read/write failures (transport errors,
// frame-too-large, invalid-message). The reactor itself does not decide
// whether a failure warrants disconnecting the peer; it only surfaces
// the failure and closes its own loops.
func (c *Conn) Errs() <-chan error { return c.errs }

func (c *Conn) readLoop(ctx context.Context, cancelled <-chan struct{}, svc *environment.Services) {
	defer close(c.Inbound)

	var buf bytes.Buffer
	chunk := make([]byte, readBufSize)

	for {
		select {
		case <-ctx.Done():
			return
		case <-cancelled:
			return
		default:
		}

		if svc.Terminator.Terminated() {
			return
		}

		for {
			msg, err := c.decoder.Decode(&buf)
			if err != nil {
				c.metrics.ObserveDecodeFailure()
				c.reportErr(fmt.Errorf("decode frame: %w", err))
				return
			}
			if msg == nil {
				break
			}
			if msg.ID() == wire.BlockRequestID {
				if err := c.throttleBlockRequest(ctx); err != nil {
					c.reportErr(fmt.Errorf("block request rate limit: %w", err))
					return
				}
			}
			c.metrics.ObserveReceived(msg.ID().String())
			select {
			case c.Inbound <- msg:
			case <-ctx.Done():
				return
			case <-cancelled:
				return
			}
		}

		n, err := c.conn.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				c.reportErr(fmt.Errorf("read: %w", err))
			}
			return
		}
	}
}

func (c *Conn) writeLoop(ctx context.Context, cancelled <-chan struct{}, svc *environment.Services) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-cancelled:
			return
		case msg, ok := <-c.Outbound:
			if !ok {
				return
			}
			if svc.Terminator.Terminated() {
				return
			}
			frame, err := wire.Encode(msg)
			if err != nil {
				c.reportErr(fmt.Errorf("encode %s: %w", msg.ID(), err))
				continue
			}
			if _, err := c.conn.Write(frame); err != nil {
				c.reportErr(fmt.Errorf("write: %w", err))
				return
			}
			c.metrics.ObserveSent(msg.ID().String())
		}
	}
}

// throttleBlockRequest waits for the remote's BlockRequest token-bucket
// before admitting another request, so one peer cannot monopolize this
// connection's outbound bandwidth serving block ranges. Connections whose
// RemoteAddr isn't a parseable host:port (e.g. an in-process net.Pipe) skip
// throttling entirely.
func (c *Conn) throttleBlockRequest(ctx context.Context) error {
	addr, err := netip.ParseAddrPort(c.conn.RemoteAddr().String())
	if err != nil {
		return nil
	}
	return c.blockRequests.Wait(ctx, addr)
}

func (c *Conn) reportErr(err error) {
	select {
	case c.errs <- err:
	default:
		c.log.Warn("reactor error channel full, dropping error", "err", err)
	}
}

// Close closes the underlying connection, unblocking any in-flight
// Read/Write and letting both loops exit.
func (c *Conn) Close() error {
	return c.conn.Close()
}
