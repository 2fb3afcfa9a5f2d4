package shutdown

import (
	"fmt"
	"github.com/lni/dragonboat/v4/logger"
	"sync"
	"sync/atomic"
)

var Logger = logger.GetLogger("shutdown")

// --------------------------------------------------------------------------
// State Definition
// --------------------------------------------------------------------------

// State is the process-wide shutdown state.
type State int32

const (
	Running State = iota
	GracefulShutdown
	ForcedShutdown
	Stopped
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case GracefulShutdown:
		return "graceful shutdown"
	case ForcedShutdown:
		return "forced shutdown"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// --------------------------------------------------------------------------
// Coordinator
// --------------------------------------------------------------------------

// Coordinator tracks the shutdown state of one server run.
type Coordinator struct {
	state   atomic.Int32
	outcome atomic.Int32

	mu        sync.Mutex
	hooks     []func()
	initiated bool
	cause     error

	initiatedCh chan struct{}
}

// NewCoordinator creates a coordinator in the Running state.
func NewCoordinator() *Coordinator {
	c := &Coordinator{
		initiatedCh: make(chan struct{}),
	}
	c.state.Store(int32(Running))
	c.outcome.Store(int32(Running))
	return c
}

// State returns the current state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// IsForced reports whether ForcedShutdown has been recorded, including runs
// that already reached Stopped through the forced path.
func (c *Coordinator) IsForced() bool {
	return c.Outcome() == ForcedShutdown
}

// Outcome returns GracefulShutdown or ForcedShutdown once the run finished,
// ForcedShutdown as soon as it was recorded, and Running otherwise.
func (c *Coordinator) Outcome() State {
	if s := c.State(); s == ForcedShutdown {
		return s
	}
	return State(c.outcome.Load())
}

// Cause returns the fault that forced the shutdown, or nil.
func (c *Coordinator) Cause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cause
}

// Initiated returns a channel that is closed once a shutdown was requested or
// forced.
func (c *Coordinator) Initiated() <-chan struct{} {
	return c.initiatedCh
}

// OnShutdown registers fn to run when shutdown is first initiated. If shutdown
// was already initiated fn runs immediately on the calling goroutine.
func (c *Coordinator) OnShutdown(fn func()) {
	c.mu.Lock()
	if c.initiated {
		c.mu.Unlock()
		fn()
		return
	}
	c.hooks = append(c.hooks, fn)
	c.mu.Unlock()
}

// RequestStop initiates a graceful stop: the shutdown hooks run (releasing the
// reactor keep-alive guard among others) and the run ends once the reactor
// drained. The state stays Running until Finish.
func (c *Coordinator) RequestStop() {
	if c.initiate() {
		Logger.Infof("graceful stop requested")
	}
}

// Force records ForcedShutdown. It returns true if this call performed the
// transition and false if the coordinator was already forced or finished.
func (c *Coordinator) Force(cause error) bool {
	if !c.state.CompareAndSwap(int32(Running), int32(ForcedShutdown)) {
		return false
	}

	c.mu.Lock()
	c.cause = cause
	c.mu.Unlock()

	Logger.Errorf("forced shutdown: %v", cause)
	c.initiate()
	return true
}

// Finish is called once all workers joined. It moves Running to
// GracefulShutdown and then either path to Stopped, and returns the outcome.
func (c *Coordinator) Finish() State {
	for {
		switch s := c.State(); s {
		case Stopped:
			return c.Outcome()
		case Running:
			if !c.state.CompareAndSwap(int32(Running), int32(GracefulShutdown)) {
				continue // lost against Force, re-evaluate
			}
			c.outcome.Store(int32(GracefulShutdown))
		case GracefulShutdown, ForcedShutdown:
			c.outcome.Store(int32(s))
			if c.state.CompareAndSwap(int32(s), int32(Stopped)) {
				c.initiate()
				return s
			}
		}
	}
}

// initiate runs the shutdown hooks exactly once. Returns true for the call
// that ran them.
func (c *Coordinator) initiate() bool {
	c.mu.Lock()
	if c.initiated {
		c.mu.Unlock()
		return false
	}
	c.initiated = true
	hooks := c.hooks
	c.hooks = nil
	close(c.initiatedCh)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	return true
}
