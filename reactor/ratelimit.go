package reactor

import (
	"context"
	"net/netip"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"
)

const (
	// maxThrottleDelay bounds how long a BlockRequest is held up by the
	// limiter before the caller gives up on serving it.
	maxThrottleDelay = 20 * time.Second

	globalBlockRequestsRate  rate.Limit = 8
	globalBlockRequestsBurst            = 4
	peerBlockRequestsRate    rate.Limit = 4
	peerBlockRequestsBurst              = 3

	// maxTrackedPeers bounds the per-peer limiter cache; past this many
	// distinct remotes the oldest entries are pruned rather than ever
	// growing unbounded.
	maxTrackedPeers = 1000
)

// BlockRequestLimiter throttles how fast BlockRequest messages are served,
// both globally and per remote address, so a single noisy or malicious peer
// cannot starve a node's outbound bandwidth serving block ranges. It mirrors
// the two-tier (global + per-peer) token-bucket shape a reqresp server uses
// to guard against sync-flood abuse, adapted from a stream-based transport
// to this package's per-connection model.
type BlockRequestLimiter struct {
	global *rate.Limiter

	mu    sync.Mutex
	peers *lru.Cache // netip.AddrPort -> *rate.Limiter
}

// NewBlockRequestLimiter builds a limiter with the package's default rates.
func NewBlockRequestLimiter() *BlockRequestLimiter {
	peers, err := lru.New(maxTrackedPeers)
	if err != nil {
		panic(err)
	}
	return &BlockRequestLimiter{
		global: rate.NewLimiter(globalBlockRequestsRate, globalBlockRequestsBurst),
		peers:  peers,
	}
}

// Wait blocks until addr is allowed to make another BlockRequest, up to
// maxThrottleDelay, returning an error if the wait would exceed it or ctx is
// cancelled first. The first request from a newly seen peer is admitted
// immediately and counted against its fresh bucket, leaving
// peerBlockRequestsBurst-1 tokens before later requests wait for a refill.
func (l *BlockRequestLimiter) Wait(ctx context.Context, addr netip.AddrPort) error {
	ctx, cancel := context.WithTimeout(ctx, maxThrottleDelay)
	defer cancel()

	if err := l.global.Wait(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	v, ok := l.peers.Get(addr)
	var limiter *rate.Limiter
	if !ok {
		limiter = rate.NewLimiter(peerBlockRequestsRate, peerBlockRequestsBurst)
		l.peers.Add(addr, limiter)
		limiter.Reserve()
		l.mu.Unlock()
		return nil
	}
	limiter = v.(*rate.Limiter)
	l.mu.Unlock()

	return limiter.Wait(ctx)
}
