package ws

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dTetris/rpc/common"
	"github.com/ValentinKolb/dTetris/rpc/transport"
	"github.com/gorilla/websocket"
	"net"
	"net/http"
	"time"
)

// Path is the HTTP path clients upgrade on
const Path = "/play"

var Logger = transport.Logger

// NewWSServerTransport creates a server transport accepting websocket clients
func NewWSServerTransport() transport.IServerTransport {
	return &wsServerTransport{}
}

type wsServerTransport struct {
	config   common.ServerConfig
	listener net.Listener
	server   *http.Server
	upgrader websocket.Upgrader
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IServerTransport)
// --------------------------------------------------------------------------

func (t *wsServerTransport) Listen(config common.ServerConfig) error {
	t.config = config

	listener, err := net.Listen("tcp", config.Endpoint())
	if err != nil {
		return fmt.Errorf("failed to create websocket listener: %w", err)
	}
	t.listener = listener

	t.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		// browser clients are served from anywhere
		CheckOrigin: func(*http.Request) bool { return true },
	}

	Logger.Infof("websocket server listening on ws://%s%s", listener.Addr(), Path)
	return nil
}

func (t *wsServerTransport) Addr() string {
	if t.listener == nil {
		return ""
	}
	return t.listener.Addr().String()
}

func (t *wsServerTransport) Serve(handler transport.ConnHandler) error {
	if t.listener == nil {
		return fmt.Errorf("serve called before listen")
	}

	// Create a new HTTP server
	mux := http.NewServeMux()

	// Register handler
	upgrade := t.upgradeHandler(handler)
	if t.config.LogLevel == "debug" {
		mux.HandleFunc("GET "+Path, loggerMiddleware(upgrade))
	} else {
		mux.HandleFunc("GET "+Path, upgrade)
	}

	t.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	err := t.server.Serve(t.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (t *wsServerTransport) Close() error {
	if t.server == nil {
		if t.listener != nil {
			return t.listener.Close()
		}
		return nil
	}
	// hijacked websocket connections are not affected
	return t.server.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// upgradeHandler switches the request to the websocket protocol and hands
// the connection to the accept handler
func (t *wsServerTransport) upgradeHandler(handler transport.ConnHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := t.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already replied with an HTTP error
			Logger.Warningf("websocket upgrade from %s failed: %v", r.RemoteAddr, err)
			return
		}
		handler(newFrameConn(conn, t.config.FrameLimit()))
	}
}

// --------------------------------------------------------------------------
// Middleware (logging)
// --------------------------------------------------------------------------

// loggerMiddleware is a middleware that logs upgrade requests
func loggerMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		Logger.Debugf("%s %s from %s took %s", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start))
	}
}
