package tasks

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSpawnTracksAndRemovesOnCompletion(t *testing.T) {
	r := NewRegistry()
	done := make(chan struct{})
	r.Spawn(func(cancelled <-chan struct{}) {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}

	require.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, time.Millisecond)
}

func TestShutdownAllCancelsRegisteredTasks(t *testing.T) {
	r := NewRegistry()
	var exited atomic.Bool
	started := make(chan struct{})

	r.Spawn(func(cancelled <-chan struct{}) {
		close(started)
		<-cancelled
		exited.Store(true)
	})

	<-started
	require.Equal(t, 1, r.Len())

	require.NoError(t, r.ShutdownAll())
	require.True(t, exited.Load())
	require.Equal(t, 0, r.Len())
}

func TestShutdownAllAggregatesErrors(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")

	id := r.Spawn(func(cancelled <-chan struct{}) {
		<-cancelled
	})
	r.Fail(id, boom)

	err := r.ShutdownAll()
	require.ErrorContains(t, err, "boom")
}

func TestRemoveDropsWithoutCancelling(t *testing.T) {
	r := NewRegistry()
	started := make(chan struct{})
	exit := make(chan struct{})
	id := r.Spawn(func(cancelled <-chan struct{}) {
		close(started)
		<-exit
	})
	<-started
	r.Remove(id)
	require.Equal(t, 0, r.Len())
	close(exit)
}
