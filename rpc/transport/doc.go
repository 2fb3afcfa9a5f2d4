// Package transport defines the interfaces of the dTetris network layer. It
// provides a common contract that all transport implementations fulfill, so
// the server and the client work the same over every medium.
//
// The package focuses on:
//   - Framed, ordered, bidirectional connections (IFrameConn)
//   - An accept loop abstraction for the server side (IServerTransport)
//   - Dialing for the client side (IClientTransport)
//
// Implementations:
//
//   - base: connector based framed streams, shared by tcp and unix
//   - tcp:  TCP sockets (default)
//   - unix: Unix domain sockets
//   - ws:   WebSocket connections on the /play path, one frame per binary message
//
// Frames carry a sequence number and an opaque payload. The meaning of the
// sequence number belongs to the protocol on top: clients number their inputs,
// the server uses the board revision for snapshots.
package transport
