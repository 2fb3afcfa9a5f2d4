// Package shutdown implements the process-wide shutdown coordinator of the
// dTetris server. A single Coordinator is created at startup and handed to the
// server, the reactor, every executor worker and the session layer. It records
// whether the run ended gracefully (the reactor drained on its own after the
// keep-alive guard was released) or was forced (a worker hit an unrecoverable
// fault).
//
// State Machine:
//
//	Running → GracefulShutdown → Stopped    [RequestStop(), drain, Finish()]
//	Running → ForcedShutdown   → Stopped    [Force(), drain, Finish()]
//
// Transition Rules:
//   - Force only succeeds from Running. Once ForcedShutdown is recorded a later
//     drain finishes through the forced path, it never reports graceful.
//   - Stopped is terminal, the outcome (GracefulShutdown or ForcedShutdown)
//     stays available through Outcome().
//   - Hooks registered with OnShutdown run exactly once, on the first of
//     RequestStop or Force.
//
// Thread Safety:
//
//	All methods are safe for concurrent use. The state is kept in an atomic,
//	hooks and the fault cause are protected by a mutex.
package shutdown
