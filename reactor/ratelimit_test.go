package reactor

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBlockRequestLimiterAdmitsFirstRequestImmediately(t *testing.T) {
	l := NewBlockRequestLimiter()
	addr := netip.MustParseAddrPort("127.0.0.1:4130")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, l.Wait(ctx, addr))
}

func TestBlockRequestLimiterThrottlesBurstFromSamePeer(t *testing.T) {
	l := NewBlockRequestLimiter()
	addr := netip.MustParseAddrPort("127.0.0.1:4130")

	ctx := context.Background()
	for i := 0; i < peerBlockRequestsBurst+1; i++ {
		require.NoError(t, l.Wait(ctx, addr))
	}

	// The next call should have to wait for a token to refill rather than
	// being admitted instantly; a near-zero deadline makes that wait fail.
	tight, cancel := context.WithTimeout(ctx, time.Millisecond)
	defer cancel()
	err := l.Wait(tight, addr)
	require.Error(t, err)
}

func TestBlockRequestLimiterTracksPeersIndependently(t *testing.T) {
	l := NewBlockRequestLimiter()
	a := netip.MustParseAddrPort("10.0.0.1:4130")
	b := netip.MustParseAddrPort("10.0.0.2:4130")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, l.Wait(ctx, a))
	require.NoError(t, l.Wait(ctx, b))
}
