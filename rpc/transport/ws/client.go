package ws

import (
	"fmt"
	"github.com/ValentinKolb/dTetris/rpc/common"
	"github.com/ValentinKolb/dTetris/rpc/transport"
	"github.com/gorilla/websocket"
	"net/url"
	"strings"
	"time"
)

// NewWSClientTransport creates a client transport using websockets
func NewWSClientTransport() transport.IClientTransport {
	return &wsClientTransport{}
}

type wsClientTransport struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IClientTransport)
// --------------------------------------------------------------------------

func (t *wsClientTransport) Dial(config common.ClientConfig) (transport.IFrameConn, error) {
	target, err := endpointURL(config.Endpoint)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: time.Duration(config.TimeoutSecond) * time.Second,
	}
	conn, _, err := dialer.Dial(target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", target, err)
	}

	Logger.Debugf("connected to %s using websocket transport", target)
	return newFrameConn(conn, config.FrameLimit()), nil
}

// endpointURL accepts host:port as well as a full ws:// or wss:// url
func endpointURL(endpoint string) (string, error) {
	if endpoint == "" {
		return "", fmt.Errorf("no endpoint provided")
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "ws://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid websocket endpoint %q: %w", endpoint, err)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = Path
	}
	return u.String(), nil
}
