package environment

import (
	"sync"
	"sync/atomic"

	"github.com/aleonet/snarkos-network/status"
	"github.com/aleonet/snarkos-network/tasks"
	"github.com/aleonet/snarkos-network/workerpool"
)

// Terminator is the cooperative-cancellation flag observed by CPU-bound
// prover loops. It is a plain atomic boolean; readers may use relaxed
// loads, Go's sync/atomic does not expose weaker orderings than
// sequentially consistent, which is always a safe superset of what
// spec.md §5 asks for.
type Terminator struct {
	flag atomic.Bool
}

// Terminate flips the flag, inviting cooperative exit of CPU loops.
func (t *Terminator) Terminate() { t.flag.Store(true) }

// Terminated reports whether Terminate has been called.
func (t *Terminator) Terminated() bool { return t.flag.Load() }

// Services bundles the four process-wide singletons spec.md §3
// describes: the task registry, the node's lifecycle status, the
// cooperative-cancellation terminator, and the dedicated CPU-bound
// worker pool. Per spec.md §9's testing guidance, these are ordinary
// explicit collaborators rather than package-level globals, so tests
// can build an isolated instance instead of reaching into shared
// process state.
type Services struct {
	Tasks      *tasks.Registry
	Status     *status.Status
	Terminator *Terminator
	Pool       *workerpool.Pool
}

// NewServices constructs a fresh, independent set of singletons.
func NewServices() *Services {
	return &Services{
		Tasks:      tasks.NewRegistry(),
		Status:     status.New(),
		Terminator: &Terminator{},
		Pool:       workerpool.New(),
	}
}

// Shutdown flips the Terminator, then cancels and awaits every task in
// the registry (spec.md §5's two-step shutdown sequence), finally
// closing the worker pool.
func (s *Services) Shutdown() error {
	s.Status.Update(status.ShuttingDown)
	s.Terminator.Terminate()
	err := s.Tasks.ShutdownAll()
	s.Pool.Close()
	return err
}

var defaultServicesOnce sync.Once
var defaultServices *Services

// DefaultServices returns the lazily-initialized, process-wide default
// Services instance, matching the reference's OnceCell-backed statics.
// Most callers — and every test — should prefer building their own
// Services with NewServices instead.
func DefaultServices() *Services {
	defaultServicesOnce.Do(func() {
		defaultServices = NewServices()
	})
	return defaultServices
}
