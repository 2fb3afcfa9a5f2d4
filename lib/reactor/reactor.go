package reactor

import (
	"fmt"
	"github.com/ValentinKolb/dTetris/lib/shutdown"
	"github.com/eapache/queue"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
	"runtime/debug"
	"sync"
	"time"
)

var Logger = logger.GetLogger("reactor")

// Handler is a unit of work executed by one of the executor's workers
type Handler func()

// FaultError is returned by Run when a handler panicked. It carries the
// recovered value and the stack of the faulting worker.
type FaultError struct {
	Value interface{}
	Stack []byte
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("handler fault: %v", e.Value)
}

// Unwrap returns the recovered value if it is an error
func (e *FaultError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// --------------------------------------------------------------------------
// Reactor
// --------------------------------------------------------------------------

// Reactor is the shared event queue pumped by all executor workers
type Reactor struct {
	coordinator *shutdown.Coordinator

	mu       sync.Mutex
	cond     *sync.Cond
	handlers *queue.Queue // FIFO of Handler
	work     int          // held Work units
	running  int          // handlers currently executing

	registry gometrics.Registry
	latency  gometrics.Timer
	faults   gometrics.Counter
}

// New creates a reactor bound to the given shutdown coordinator
func New(coordinator *shutdown.Coordinator) *Reactor {
	r := &Reactor{
		coordinator: coordinator,
		handlers:    queue.New(),
		registry:    gometrics.NewRegistry(),
	}
	r.cond = sync.NewCond(&r.mu)
	r.latency = gometrics.NewRegisteredTimer("handler.latency", r.registry)
	r.faults = gometrics.NewRegisteredCounter("handler.faults", r.registry)

	// idle workers have to re-check the state once shutdown begins
	coordinator.OnShutdown(r.Wake)
	return r
}

// Post queues a handler. It returns false if the shutdown was forced, in
// which case the handler will never run.
func (r *Reactor) Post(h Handler) bool {
	if r.coordinator.IsForced() {
		return false
	}
	r.mu.Lock()
	r.handlers.Add(h)
	r.mu.Unlock()
	r.cond.Signal()
	return true
}

// Hold registers one unit of outstanding work. The reactor does not drain
// while any Work is held.
func (r *Reactor) Hold() *Work {
	r.mu.Lock()
	r.work++
	r.mu.Unlock()
	return &Work{reactor: r}
}

// Run pumps the reactor on the calling goroutine until it drained or the
// shutdown was forced. It returns a *FaultError if a handler panicked.
func (r *Reactor) Run() error {
	var handled uint64
	return r.run(&handled)
}

// Wake wakes all idle workers so they re-evaluate the shutdown state
func (r *Reactor) Wake() {
	r.mu.Lock()
	r.cond.Broadcast()
	r.mu.Unlock()
}

// Pending returns the number of queued handlers that did not start yet
func (r *Reactor) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handlers.Length()
}

// Outstanding returns the number of held Work units
func (r *Reactor) Outstanding() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.work
}

// Metrics returns the registry holding the handler latency timer and fault counter
func (r *Reactor) Metrics() gometrics.Registry {
	return r.registry
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// run is the pump loop of one worker, handled counts the executed handlers
func (r *Reactor) run(handled *uint64) error {
	for {
		h, ok := r.next()
		if !ok {
			return nil
		}
		*handled++
		if err := r.invoke(h); err != nil {
			return err
		}
	}
}

// next blocks until a handler is available. It returns false if the worker
// should exit (drained or forced).
func (r *Reactor) next() (Handler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		if r.coordinator.IsForced() {
			return nil, false
		}
		if r.handlers.Length() > 0 {
			r.running++
			return r.handlers.Remove().(Handler), true
		}
		if r.drainedLocked() {
			// let the other idle workers observe the drain too
			r.cond.Broadcast()
			return nil, false
		}
		r.cond.Wait()
	}
}

// invoke runs a single handler and converts a panic into a FaultError
func (r *Reactor) invoke(h Handler) (err error) {
	start := time.Now()
	defer func() {
		if v := recover(); v != nil {
			r.faults.Inc(1)
			err = &FaultError{Value: v, Stack: debug.Stack()}
		}
		r.latency.UpdateSince(start)

		r.mu.Lock()
		r.running--
		drained := r.drainedLocked()
		r.mu.Unlock()
		if drained {
			r.cond.Broadcast()
		}
	}()

	h()
	return nil
}

func (r *Reactor) drainedLocked() bool {
	return r.handlers.Length() == 0 && r.work == 0 && r.running == 0
}

// --------------------------------------------------------------------------
// Work
// --------------------------------------------------------------------------

// Work is one unit of outstanding work held on a Reactor
type Work struct {
	reactor *Reactor
	once    sync.Once
}

// Release gives the unit back. Only the first call has an effect.
func (w *Work) Release() {
	w.once.Do(func() {
		r := w.reactor
		r.mu.Lock()
		r.work--
		drained := r.drainedLocked()
		r.mu.Unlock()
		if drained {
			r.cond.Broadcast()
		}
	})
}
