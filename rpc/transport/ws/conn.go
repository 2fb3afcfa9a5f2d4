package ws

import (
	"encoding/binary"
	"errors"
	"fmt"
	"github.com/ValentinKolb/dTetris/rpc/transport"
	"github.com/gorilla/websocket"
	"time"
)

// seqSize is the size of the sequence number in front of every message
const seqSize = 8

// frameConn implements transport.IFrameConn with one binary websocket
// message per frame
type frameConn struct {
	conn    *websocket.Conn
	maxSize uint32
}

func newFrameConn(conn *websocket.Conn, maxSize uint32) *frameConn {
	if maxSize > 0 {
		conn.SetReadLimit(int64(maxSize) + seqSize)
	}
	return &frameConn{conn: conn, maxSize: maxSize}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IFrameConn)
// --------------------------------------------------------------------------

func (c *frameConn) ReadFrame() (uint64, []byte, error) {
	for {
		typ, data, err := c.conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				return 0, nil, fmt.Errorf("%w: %v", transport.ErrFrameTooLarge, err)
			}
			return 0, nil, err
		}
		if typ != websocket.BinaryMessage {
			Logger.Debugf("ignoring non binary message from %s", c.RemoteAddr())
			continue
		}
		if len(data) < seqSize {
			return 0, nil, fmt.Errorf("message too short for frame header: %d bytes", len(data))
		}
		return binary.BigEndian.Uint64(data[:seqSize]), data[seqSize:], nil
	}
}

func (c *frameConn) WriteFrame(seq uint64, payload []byte) error {
	w, err := c.conn.NextWriter(websocket.BinaryMessage)
	if err != nil {
		return err
	}
	var header [seqSize]byte
	binary.BigEndian.PutUint64(header[:], seq)
	if _, err := w.Write(header[:]); err != nil {
		_ = w.Close()
		return err
	}
	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (c *frameConn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

func (c *frameConn) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

func (c *frameConn) CloseRead() error {
	return transport.CloseRead(c.conn.NetConn())
}

func (c *frameConn) Close() error {
	// best effort close handshake, the peer may already be gone
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *frameConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
