// Package reactor implements the execution model of the dTetris server: one
// shared Reactor (a queue of ready handlers plus an outstanding-work counter)
// pumped concurrently by a fixed pool of worker goroutines (the Executor).
//
// Sessions do their blocking socket reads and writes on their own goroutines,
// which the Go runtime parks on its network poller. Whenever a complete frame
// arrived the session posts a Handler to the Reactor, and whichever worker is
// free runs it. Handlers never block: everything they send is queued on the
// receiving session's outbound queue.
//
// Key Components:
//
//   - Reactor: handler queue (github.com/eapache/queue) guarded by a mutex and
//     a condition variable. Run pumps it until the reactor drained (no queued
//     handler, no running handler, no held Work) or until the shutdown
//     coordinator reports ForcedShutdown. The forced check happens between
//     handlers, a started handler always runs to completion.
//
//   - Work: one unit of outstanding work. The server holds one as keep-alive
//     guard so idle workers do not exit while waiting for connections, every
//     session holds one per pending read/write loop.
//
//   - Executor: starts N workers. N is the configured worker count, else the
//     detected hardware concurrency (CPU affinity on Linux), else
//     DefaultWorkerCount. A worker whose handler panics forces the shutdown
//     and exits, the remaining workers notice at their next iteration.
//
// Metrics:
//
//	Handler latency and faults are tracked in a github.com/rcrowley/go-metrics
//	registry and summarized, together with the per-worker load distribution,
//	when the executor stops.
package reactor
