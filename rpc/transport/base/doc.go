// Package base provides the foundation of the stream transports of dTetris,
// implementing framing, the accept loop and dialing independent of the
// specific network protocol (TCP, Unix sockets). Protocol specifics are
// plugged in through connectors.
//
// Frame format (big endian):
//
//	+----------------+--------------+-------------------+
//	| seq (8 bytes)  | len (4 bytes)| payload (len)     |
//	+----------------+--------------+-------------------+
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     that allow extending the base transport with different network protocols.
//
//   - streamConn: transport.IFrameConn over a net.Conn. Reads go through a
//     bufio.Reader, writes combine header and payload with net.Buffers into a
//     single write. Payloads above the size limit fail with
//     transport.ErrFrameTooLarge before any allocation happens.
//
//   - serverTransport: accept loop that hands every connection to the
//     registered handler. Temporary accept errors are retried with backoff,
//     closing the listener ends the loop without an error.
//
//   - clientTransport: dials one connection per call.
//
// Thread Safety:
//
//	A streamConn supports one concurrent reader and one concurrent writer.
//	The server transport is safe to Close from any goroutine.
package base
