package client

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/dTetris/lib/tetris"
	"github.com/ValentinKolb/dTetris/rpc/common"
	"github.com/ValentinKolb/dTetris/rpc/serializer"
	"github.com/ValentinKolb/dTetris/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"sync"
	"sync/atomic"
)

var Logger = logger.GetLogger("client")

var ErrClosed = errors.New("connection closed")

// Frame is one message received from the server together with the sequence
// number of its frame
type Frame struct {
	Seq uint64
	Msg common.Message
}

// GameClient is a connection to a game server
type GameClient struct {
	config     common.ClientConfig
	conn       transport.IFrameConn
	serializer serializer.IRPCSerializer

	nextSeq atomic.Uint64
	writeMu sync.Mutex

	frames    chan Frame
	readErr   error // valid once frames is closed
	closeOnce sync.Once
}

// NewGameClient connects to the server of the configuration
// The function takes a config, a transport and a serializer as parameters
func NewGameClient(
	config common.ClientConfig,
	transport transport.IClientTransport,
	serializer serializer.IRPCSerializer,
) (*GameClient, error) {
	conn, err := transport.Dial(config)
	if err != nil {
		return nil, err
	}

	c := &GameClient{
		config:     config,
		conn:       conn,
		serializer: serializer,
		frames:     make(chan Frame, 64),
	}
	go c.readFrames()
	return c, nil
}

// --------------------------------------------------------------------------
// Requests
// --------------------------------------------------------------------------

// Hello asks the server for a game of the given mode ("single" or "multiplayer")
func (c *GameClient) Hello(mode string) error {
	_, err := c.send(common.NewHelloRequest(mode))
	return err
}

// Input sends one action for the own board and returns its sequence number
func (c *GameClient) Input(action tetris.Action) (uint64, error) {
	return c.send(common.NewInputRequest(action))
}

// InputRaw sends an input with an arbitrary action name, the server decides
// whether it is valid
func (c *GameClient) InputRaw(action string) (uint64, error) {
	return c.send(&common.Message{MsgType: common.MsgTInput, Action: action})
}

// --------------------------------------------------------------------------
// Responses
// --------------------------------------------------------------------------

// Recv returns the next frame from the server. It fails with ErrClosed (or
// the read error) once the connection ended and all frames were consumed.
func (c *GameClient) Recv(ctx context.Context) (Frame, error) {
	select {
	case f, ok := <-c.frames:
		if !ok {
			if c.readErr != nil {
				return Frame{}, c.readErr
			}
			return Frame{}, ErrClosed
		}
		return f, nil
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// Expect receives the next frame and checks its type
func (c *GameClient) Expect(ctx context.Context, msgType common.MessageType) (Frame, error) {
	f, err := c.Recv(ctx)
	if err != nil {
		return f, err
	}
	if f.Msg.MsgType != msgType {
		if f.Msg.MsgType == common.MsgTError {
			return f, fmt.Errorf("expected %s, got error: %s", msgType, f.Msg.Err)
		}
		return f, fmt.Errorf("expected %s, got %s", msgType, f.Msg.MsgType)
	}
	return f, nil
}

// Close closes the connection
func (c *GameClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (c *GameClient) send(msg *common.Message) (uint64, error) {
	payload, err := c.serializer.Serialize(*msg)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize %s: %w", msg.MsgType, err)
	}

	seq := c.nextSeq.Add(1)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteFrame(seq, payload); err != nil {
		return 0, fmt.Errorf("failed to send %s: %w", msg.MsgType, err)
	}
	return seq, nil
}

// readFrames forwards decoded frames until the connection fails
func (c *GameClient) readFrames() {
	defer close(c.frames)
	for {
		seq, payload, err := c.conn.ReadFrame()
		if err != nil {
			Logger.Debugf("connection to %s ended: %v", c.config.Endpoint, err)
			c.readErr = fmt.Errorf("%w: %v", ErrClosed, err)
			return
		}

		var msg common.Message
		if err := c.serializer.Deserialize(payload, &msg); err != nil {
			c.readErr = fmt.Errorf("malformed frame from server: %w", err)
			_ = c.Close()
			return
		}
		c.frames <- Frame{Seq: seq, Msg: msg}
	}
}
