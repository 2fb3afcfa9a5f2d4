package reactor

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dTetris/lib/shutdown"
	"github.com/ValentinKolb/dTetris/lib/util"
	"sync"
	"time"
)

// DefaultWorkerCount is used when neither a worker count is configured nor the
// hardware concurrency could be detected
const DefaultWorkerCount = 4

// WorkerCount resolves the number of workers to start: a configured value > 0
// wins, then the detected concurrency if > 0, then DefaultWorkerCount
func WorkerCount(configured, detected int) int {
	if configured > 0 {
		return configured
	}
	if detected > 0 {
		return detected
	}
	return DefaultWorkerCount
}

// Executor runs a fixed pool of workers that all pump the same Reactor
type Executor struct {
	reactor     *Reactor
	coordinator *shutdown.Coordinator
	size        int

	wg      sync.WaitGroup
	handled []uint64 // per worker, only written by that worker
	started time.Time
}

// NewExecutor creates an executor with size workers (size < 1 is treated as 1)
func NewExecutor(reactor *Reactor, coordinator *shutdown.Coordinator, size int) *Executor {
	if size < 1 {
		size = 1
	}
	return &Executor{
		reactor:     reactor,
		coordinator: coordinator,
		size:        size,
		handled:     make([]uint64, size),
	}
}

// Size returns the number of workers
func (e *Executor) Size() int {
	return e.size
}

// Start launches all workers
func (e *Executor) Start() {
	e.started = time.Now()
	e.wg.Add(e.size)
	for i := 0; i < e.size; i++ {
		go e.work(i)
	}
	Logger.Infof("executor started with %d workers", e.size)
}

// Wait blocks until every worker exited, finishes the coordinator and returns
// the outcome of the run (GracefulShutdown or ForcedShutdown)
func (e *Executor) Wait() shutdown.State {
	e.wg.Wait()
	outcome := e.coordinator.Finish()
	e.report()
	return outcome
}

// work is the body of one worker goroutine
func (e *Executor) work(id int) {
	defer e.wg.Done()

	err := e.reactor.run(&e.handled[id])
	if err == nil {
		Logger.Debugf("worker %d stopped", id)
		return
	}

	Logger.Errorf("worker %d: unrecoverable fault: %v", id, err)
	var fault *FaultError
	if errors.As(err, &fault) {
		Logger.Debugf("worker %d stack:\n%s", id, fault.Stack)
	}
	if !e.coordinator.Force(fmt.Errorf("worker %d: %w", id, err)) {
		Logger.Warningf("worker %d: shutdown was already forced", id)
	}
}

// report logs how the handler load was spread over the workers
func (e *Executor) report() {
	loads := make([]float64, len(e.handled))
	var total uint64
	for i, n := range e.handled {
		loads[i] = float64(n)
		total += n
	}
	dist := util.NewDistributionStats(loads)

	Logger.Infof("executor ran %d handlers on %d workers in %s (min %.0f, max %.0f, distribution quality %.2f)",
		total, e.size, time.Since(e.started).Round(time.Millisecond), dist.Min, dist.Max, dist.DistributionQuality)

	latency := e.reactor.latency
	if latency.Count() > 0 {
		Logger.Infof("handler latency mean %s, p99 %s, faults %d",
			time.Duration(latency.Mean()), time.Duration(latency.Percentile(0.99)), e.reactor.faults.Count())
	}
}
