package base

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dTetris/rpc/common"
	"github.com/ValentinKolb/dTetris/rpc/transport"
	"net"
	"sync/atomic"
	"time"
)

var Logger = transport.Logger

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector IServerConnector
	config    common.ServerConfig
	listener  net.Listener
	closed    atomic.Bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport for the given connector
func NewBaseServerTransport(connector IServerConnector) transport.IServerTransport {
	return &serverTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) Listen(config common.ServerConfig) error {
	t.config = config

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	t.listener = listener

	Logger.Infof("%s server listening on %s", t.connector.GetName(), listener.Addr())
	return nil
}

func (t *serverTransport) Addr() string {
	if t.listener == nil {
		return ""
	}
	return t.listener.Addr().String()
}

func (t *serverTransport) Serve(handler transport.ConnHandler) error {
	if t.listener == nil {
		return fmt.Errorf("serve called before listen")
	}

	var backoff time.Duration

	// Accept connections
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			if t.closed.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}

			// temporary failures (e.g. out of file descriptors) are retried
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				backoff = min(max(2*backoff, 5*time.Millisecond), time.Second)
				Logger.Warningf("accept error: %v, retrying in %s", err, backoff)
				time.Sleep(backoff)
				continue
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		backoff = 0

		if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
			Logger.Warningf("failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
		}

		handler(NewStreamConn(conn, t.config.FrameLimit()))
	}
}

func (t *serverTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	if t.listener == nil {
		return nil
	}
	return t.listener.Close()
}
