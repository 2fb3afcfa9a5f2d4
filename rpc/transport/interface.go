package transport

import (
	"github.com/ValentinKolb/dTetris/rpc/common"
	"time"
)

// --------------------------------------------------------------------------
// Framed Connection
// --------------------------------------------------------------------------

// IFrameConn is one established, bidirectional connection exchanging frames.
// A frame is a sequence number plus an opaque payload (a serialized
// common.Message). Reading and writing may happen concurrently from two
// goroutines, but there must be at most one reader and one writer.
type IFrameConn interface {
	// ReadFrame blocks until one complete frame was received. It returns
	// ErrFrameTooLarge for frames above the configured limit, io.EOF when the
	// peer closed the connection and an error once CloseRead was called.
	ReadFrame() (seq uint64, payload []byte, err error)
	// WriteFrame writes one complete frame
	WriteFrame(seq uint64, payload []byte) error
	// SetReadDeadline bounds the next ReadFrame, the zero time disables it
	SetReadDeadline(t time.Time) error
	// SetWriteDeadline bounds the next WriteFrame, the zero time disables it
	SetWriteDeadline(t time.Time) error
	// CloseRead stops the read side. A blocked ReadFrame returns, writing
	// remains possible so queued frames can still be flushed.
	CloseRead() error
	// Close closes both directions immediately
	Close() error
	// RemoteAddr describes the peer for logging
	RemoteAddr() string
}

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ConnHandler is called by the accept loop for every accepted connection.
// It must not block, the connection is owned by the handler afterwards.
type ConnHandler func(conn IFrameConn)

// IServerTransport is the interface for the server side of a transport
type IServerTransport interface {
	// Listen binds the listening socket without accepting connections yet
	Listen(config common.ServerConfig) error
	// Addr returns the bound address, useful when port 0 was requested
	Addr() string
	// Serve runs the accept loop and calls handler for every connection. It
	// blocks until Close was called (then it returns nil) or accepting failed.
	Serve(handler ConnHandler) error
	// Close stops accepting. Connections handed out before stay open.
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IClientTransport is the interface for the client side of a transport
type IClientTransport interface {
	// Dial connects to the endpoint of the configuration
	Dial(config common.ClientConfig) (IFrameConn, error)
}
