package transport

import (
	"errors"
	"github.com/lni/dragonboat/v4/logger"
	"net"
	"time"
)

var Logger = logger.GetLogger("transport")

var (
	ErrFrameTooLarge = errors.New("frame exceeds size limit")
	ErrClosed        = errors.New("transport closed")
)

// CloseRead shuts down the read side of conn. Connections that support a
// half close (tcp, unix) use it, all others get a read deadline in the past.
func CloseRead(conn net.Conn) error {
	if cr, ok := conn.(interface{ CloseRead() error }); ok {
		return cr.CloseRead()
	}
	return conn.SetReadDeadline(time.Unix(1, 0))
}
