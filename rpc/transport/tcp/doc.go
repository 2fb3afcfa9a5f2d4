// Package tcp implements the TCP socket transport of dTetris, the default
// transport. It provides concrete implementations of the base package's
// connector interfaces.
//
// Accepted connections get TCP_NODELAY (inputs and snapshots are small and
// latency sensitive) and keep-alive probes every 30 seconds, so a client that
// vanished while waiting for an opponent is eventually detected even without
// an idle timeout.
//
// Key Components:
//
//   - clientConnector: TCP-specific implementation of base.IClientConnector
//
//   - serverConnector: TCP-specific implementation of base.IServerConnector
package tcp
