// Package tasks implements the process-wide task registry: every
// spawned goroutine registers itself under a stable id so a shutdown
// can cancel all of them, the Go translation of spec.md §3's
// "map from task id to a join handle."
package tasks

import (
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// Registry tracks in-flight goroutines by id so they can be cancelled
// together on shutdown. Insert/Remove are serialized by an internal
// mutex; critical sections are O(1), per spec.md §5.
type Registry struct {
	mu      sync.Mutex
	cancels map[uuid.UUID]func()
	wg      sync.WaitGroup
	errs    map[uuid.UUID]error
}

// NewRegistry returns an empty task registry.
func NewRegistry() *Registry {
	return &Registry{
		cancels: make(map[uuid.UUID]func()),
		errs:    make(map[uuid.UUID]error),
	}
}

// Spawn registers fn as a new task, running it in its own goroutine.
// fn receives a channel that is closed when the registry is shut down,
// and is expected to exit promptly once it is closed. The
// task's id is returned so a caller can remove it individually (e.g.
// on normal completion, ahead of any shutdown).
func (r *Registry) Spawn(fn func(cancelled <-chan struct{})) uuid.UUID {
	id := uuid.New()
	done := make(chan struct{})

	r.mu.Lock()
	r.cancels[id] = sync.OnceFunc(func() { close(done) })
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.Remove(id)
		fn(done)
	}()

	return id
}

// Remove drops id from the registry without cancelling it, for tasks
// that complete on their own.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	delete(r.cancels, id)
	r.mu.Unlock()
}

// Fail records an error for a task, surfaced by ShutdownAll's
// aggregated result. Tasks that exit cleanly need not call this.
func (r *Registry) Fail(id uuid.UUID, err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	r.errs[id] = err
	r.mu.Unlock()
}

// Len reports the number of currently registered tasks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancels)
}

// ShutdownAll cancels every registered task and blocks until all of
// them have exited, returning an aggregated error if any task recorded
// a failure via Fail.
func (r *Registry) ShutdownAll() error {
	r.mu.Lock()
	cancels := make([]func(), 0, len(r.cancels))
	for _, cancel := range r.cancels {
		cancels = append(cancels, cancel)
	}
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	var result *multierror.Error
	for _, err := range r.errs {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
