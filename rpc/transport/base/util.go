package base

import (
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/dTetris/rpc/transport"
	"io"
	"net"
)

// headerSize is the size of the frame header: sequence number + content length
const headerSize = 12

// writeFrame writes a frame to the connection with the format:
// - 8 bytes: seq (uint64, big endian)
// - 4 bytes: data length (uint32, big endian)
// - N bytes: data payload
func writeFrame(conn net.Conn, seq uint64, data []byte) error {
	// Create the header (8 bytes for seq + 4 bytes for content length)
	header := make([]byte, headerSize)
	binary.BigEndian.PutUint64(header[:8], seq)
	binary.BigEndian.PutUint32(header[8:12], uint32(len(data)))

	b := net.Buffers{header, data}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads one frame from the connection using the provided header
// buffer. Payloads larger than maxSize are rejected without being read, the
// stream is out of sync afterwards and must be closed.
func readFrame(conn io.Reader, header []byte, maxSize uint32) (uint64, []byte, error) {
	// Check if buffer is large enough for header
	if len(header) < headerSize {
		header = make([]byte, headerSize)
	}

	// Read header
	if _, err := io.ReadFull(conn, header[:headerSize]); err != nil {
		return 0, nil, err
	}

	// Parse header
	seq := binary.BigEndian.Uint64(header[:8])
	contentLength := binary.BigEndian.Uint32(header[8:12])

	if maxSize > 0 && contentLength > maxSize {
		return seq, nil, fmt.Errorf("%w: %d > %d bytes", transport.ErrFrameTooLarge, contentLength, maxSize)
	}

	// If no data, return empty slice
	if contentLength == 0 {
		return seq, []byte{}, nil
	}

	// Every frame gets its own buffer, the payload is handed to another goroutine
	data := make([]byte, contentLength)
	if _, err := io.ReadFull(conn, data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, nil, err
	}

	return seq, data, nil
}
