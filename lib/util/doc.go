// Package util provides the small concurrency and bookkeeping building blocks
// used by the dTetris server.
//
// The package contains:
//   - lockfreempsc: A lock-free Multi-Producer Single-Consumer (MPSC) queue, used
//     as the outbound frame queue of every session (many handlers push, one
//     writer goroutine drains)
//   - mapheap: A priority queue with key-based access, used as the matchmaking
//     waiting queue (priority = arrival order, key = session id)
//   - statistics: Summary statistics, used to report how evenly the reactor
//     workers shared the handler load
//   - functions: Seed generation for the per-board piece generators
package util
