package common

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DefaultPort is used when the configured port is missing or invalid
const DefaultPort uint16 = 7777

// DefaultMaxFrameSize bounds the payload of a single frame
const DefaultMaxFrameSize = 64 * 1024

var ErrInvalidPort = errors.New("invalid port")

// ResolvePort validates an operator supplied port. Anything that is not a
// number in 1-65535 resolves to DefaultPort together with an error the
// caller should report as a warning.
func ResolvePort(input string) (uint16, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return DefaultPort, fmt.Errorf("%w: empty, using default port %d", ErrInvalidPort, DefaultPort)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return DefaultPort, fmt.Errorf("%w: %q is not a number, using default port %d", ErrInvalidPort, input, DefaultPort)
	}
	if n < 1 || n > 65535 {
		return DefaultPort, fmt.Errorf("%w: %d is outside 1-65535, using default port %d", ErrInvalidPort, n, DefaultPort)
	}
	return uint16(n), nil
}

// --------------------------------------------------------------------------
// Server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters of a game server
type ServerConfig struct {
	// Listening socket
	Transport  string // tcp, unix or ws
	Host       string
	Port       uint16 // 0 lets the OS pick a port (tests only, never produced by ResolvePort)
	SocketPath string // used by the unix transport

	// Executor
	Workers int // 0 = detect

	// Sessions
	IdleTimeoutSecond int64 // 0 = disabled
	MaxFrameSize      uint32

	// Serialization
	Serializer string

	// Observability
	MetricsEndpoint string // empty = disabled
	LogLevel        string
}

// Endpoint returns the address the transport listens on
func (c *ServerConfig) Endpoint() string {
	if c.Transport == "unix" {
		return c.SocketPath
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port)))
}

// FrameLimit returns the configured frame size limit or the default
func (c *ServerConfig) FrameLimit() uint32 {
	if c.MaxFrameSize == 0 {
		return DefaultMaxFrameSize
	}
	return c.MaxFrameSize
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// Network settings
	addSection("Game Server")
	addField("Transport", c.Transport)
	addField("Endpoint", c.Endpoint())
	addField("Serializer", c.Serializer)
	addField("Max Frame Size", fmt.Sprintf("%d bytes", c.FrameLimit()))

	// Executor
	addSection("Executor")
	if c.Workers > 0 {
		addField("Workers", strconv.Itoa(c.Workers))
	} else {
		addField("Workers", "auto")
	}

	// Sessions
	addSection("Sessions")
	if c.IdleTimeoutSecond > 0 {
		addField("Idle Timeout", fmt.Sprintf("%d sec", c.IdleTimeoutSecond))
	} else {
		addField("Idle Timeout", "disabled")
	}

	// Logging and metrics
	addSection("Observability")
	addField("Log Level", c.LogLevel)
	if c.MetricsEndpoint != "" {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	} else {
		addField("Metrics Endpoint", "disabled")
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds the parameters of a game client
type ClientConfig struct {
	Endpoint      string
	Transport     string
	Serializer    string
	TimeoutSecond int
	MaxFrameSize  uint32
}

// FrameLimit returns the configured frame size limit or the default
func (c *ClientConfig) FrameLimit() uint32 {
	if c.MaxFrameSize == 0 {
		return DefaultMaxFrameSize
	}
	return c.MaxFrameSize
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Transport", c.Transport)
	addField("Serializer", c.Serializer)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	return sb.String()
}
