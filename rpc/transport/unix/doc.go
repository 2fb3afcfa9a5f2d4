// Package unix implements the Unix domain socket transport of dTetris, for
// clients running on the same machine as the server (bots, local tests).
//
// This package extends the base transport layer with Unix socket-specific
// connectors while inheriting framing and the accept loop from the base
// package. The server endpoint is the configured socket path, a stale socket
// file from an earlier run is removed before binding.
//
// Key Components:
//
//   - clientConnector: Establishes connections using Unix domain sockets
//
//   - serverConnector: Creates Unix socket listeners
package unix
