package base

import (
	"bufio"
	"github.com/ValentinKolb/dTetris/rpc/transport"
	"net"
	"time"
)

// streamConn implements transport.IFrameConn on top of a stream oriented
// net.Conn (tcp, unix)
type streamConn struct {
	conn    net.Conn
	reader  *bufio.Reader
	header  []byte
	maxSize uint32
}

// NewStreamConn wraps an established stream connection
func NewStreamConn(conn net.Conn, maxSize uint32) transport.IFrameConn {
	return &streamConn{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		header:  make([]byte, headerSize),
		maxSize: maxSize,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IFrameConn)
// --------------------------------------------------------------------------

func (c *streamConn) ReadFrame() (uint64, []byte, error) {
	return readFrame(c.reader, c.header, c.maxSize)
}

func (c *streamConn) WriteFrame(seq uint64, payload []byte) error {
	return writeFrame(c.conn, seq, payload)
}

func (c *streamConn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

func (c *streamConn) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

func (c *streamConn) CloseRead() error {
	return transport.CloseRead(c.conn)
}

func (c *streamConn) Close() error {
	return c.conn.Close()
}

func (c *streamConn) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil && addr.String() != "" {
		return addr.String()
	}
	return c.conn.LocalAddr().Network()
}
