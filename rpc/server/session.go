package server

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dTetris/lib/reactor"
	"github.com/ValentinKolb/dTetris/lib/util"
	"github.com/ValentinKolb/dTetris/rpc/common"
	"github.com/ValentinKolb/dTetris/rpc/serializer"
	"github.com/ValentinKolb/dTetris/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var sessionLogger = logger.GetLogger("session")

// writeTimeout bounds a single frame write, a peer that stops reading is dropped
const writeTimeout = 10 * time.Second

// --------------------------------------------------------------------------
// Frame handler results
// --------------------------------------------------------------------------

// ErrorKind tells the session what to do with a failed frame
type ErrorKind uint8

const (
	// KindRejected answers the frame with an error frame, the session stays open
	KindRejected ErrorKind = iota + 1
	// KindFatal closes the session
	KindFatal
)

func (k ErrorKind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// FrameError is returned by a FrameHandler. Errors of any other type are
// treated as fatal.
type FrameError struct {
	Kind ErrorKind
	Err  error
}

func (e *FrameError) Error() string {
	return e.Err.Error()
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// Rejected wraps err as a recoverable frame error
func Rejected(err error) error {
	return &FrameError{Kind: KindRejected, Err: err}
}

// Fatal wraps err as a frame error that closes the session
func Fatal(err error) error {
	return &FrameError{Kind: KindFatal, Err: err}
}

// kindOf classifies a handler result
func kindOf(err error) ErrorKind {
	var fe *FrameError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindFatal
}

// --------------------------------------------------------------------------
// Session
// --------------------------------------------------------------------------

// FrameHandler processes one complete inbound frame on a reactor worker
type FrameHandler func(s *Session, seq uint64, payload []byte) error

// CloseHandler runs on a reactor worker once a session stopped reading. No
// frame handler of the session runs concurrently or afterwards.
type CloseHandler func(s *Session, cause error)

// SessionState is the lifecycle of a session
type SessionState int32

const (
	SessionOpen SessionState = iota
	SessionClosing
	SessionClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionOpen:
		return "open"
	case SessionClosing:
		return "closing"
	case SessionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// outFrame is one queued outbound frame
type outFrame struct {
	seq     uint64
	payload []byte
}

// Session is one client connection. A reader goroutine turns inbound frames
// into reactor handlers, strictly one at a time, and a writer goroutine
// drains the outbound queue in FIFO order.
type Session struct {
	id          uint64
	conn        transport.IFrameConn
	reactor     *reactor.Reactor
	serializer  serializer.IRPCSerializer
	idleTimeout time.Duration

	outbound  *util.LockFreeMPSC[outFrame]
	readWork  *reactor.Work
	writeWork *reactor.Work

	state     atomic.Int32
	aborted   chan struct{}
	abortOnce sync.Once
	cause     atomic.Pointer[error]
	started   atomic.Bool
	finished  chan struct{}
}

// newSession creates a session and registers its pending read and pending
// writes as outstanding reactor work. Nothing runs before Start.
func newSession(id uint64, conn transport.IFrameConn, r *reactor.Reactor, s serializer.IRPCSerializer, idleTimeout time.Duration) *Session {
	return &Session{
		id:          id,
		conn:        conn,
		reactor:     r,
		serializer:  s,
		idleTimeout: idleTimeout,
		outbound:    util.NewLockFreeMPSC[outFrame](),
		readWork:    r.Hold(),
		writeWork:   r.Hold(),
		aborted:     make(chan struct{}),
		finished:    make(chan struct{}),
	}
}

// ID returns the unique id of the session
func (s *Session) ID() uint64 { return s.id }

// State returns the lifecycle state
func (s *Session) State() SessionState { return SessionState(s.state.Load()) }

// RemoteAddr describes the peer
func (s *Session) RemoteAddr() string { return s.conn.RemoteAddr() }

// Done is closed once the connection was closed and the writer finished
func (s *Session) Done() <-chan struct{} { return s.finished }

func (s *Session) String() string {
	return fmt.Sprintf("session %d (%s)", s.id, s.conn.RemoteAddr())
}

// Start launches the reader and the writer. onFrame runs for every inbound
// frame, onClose once after the reader stopped.
func (s *Session) Start(onFrame FrameHandler, onClose CloseHandler) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.writeLoop()
	go s.readLoop(onFrame, onClose)
}

// Send queues an encoded frame. Frames are written in the order Send was
// called. Returns false once the session is closing.
func (s *Session) Send(seq uint64, payload []byte) bool {
	if s.State() != SessionOpen {
		return false
	}
	return s.outbound.Push(&outFrame{seq: seq, payload: payload})
}

// SendMessage serializes and queues a message
func (s *Session) SendMessage(seq uint64, msg *common.Message) bool {
	payload, err := s.serializer.Serialize(*msg)
	if err != nil {
		sessionLogger.Errorf("%s: failed to serialize %s message: %v", s, msg.MsgType, err)
		return false
	}
	return s.Send(seq, payload)
}

// Close shuts the session down gracefully: reading stops, frames queued so far
// are still written, then the connection is closed.
func (s *Session) Close() {
	s.closeWith(nil)
}

// Abort closes the connection immediately, queued frames are dropped
func (s *Session) Abort() {
	s.abortOnce.Do(func() {
		s.state.Store(int32(SessionClosed))
		close(s.aborted)
		s.outbound.Close()
		_ = s.conn.Close()
	})
}

// Cause returns the error that closed the session, nil for a regular close
func (s *Session) Cause() error {
	if p := s.cause.Load(); p != nil {
		return *p
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *Session) closeWith(cause error) {
	if !s.state.CompareAndSwap(int32(SessionOpen), int32(SessionClosing)) {
		return
	}
	if cause != nil {
		s.cause.Store(&cause)
	}
	// wakes a reader blocked in ReadFrame, writing stays possible
	_ = s.conn.CloseRead()
	s.outbound.Close()
}

func (s *Session) isAborted() bool {
	select {
	case <-s.aborted:
		return true
	default:
		return false
	}
}

// readLoop reads one frame, hands it to the reactor and waits for the
// handler before reading the next one
func (s *Session) readLoop(onFrame FrameHandler, onClose CloseHandler) {
	defer s.readWork.Release()

	cause := s.read(onFrame)
	s.closeWith(cause)

	// posted before the read work is released, so the reactor cannot drain in between
	s.reactor.Post(func() {
		onClose(s, s.Cause())
	})
}

// read runs until the connection or a handler fails and returns the reason,
// nil if the session was closed locally or by the peer
func (s *Session) read(onFrame FrameHandler) error {
	result := make(chan error, 1)
	for {
		if s.idleTimeout > 0 {
			if err := s.conn.SetReadDeadline(time.Now().Add(s.idleTimeout)); err != nil {
				return fmt.Errorf("failed to set read deadline: %w", err)
			}
		}

		seq, payload, err := s.conn.ReadFrame()
		if err != nil {
			return s.readError(err)
		}

		if !s.reactor.Post(func() { result <- onFrame(s, seq, payload) }) {
			// forced shutdown, the handler will never run
			return nil
		}

		select {
		case err = <-result:
		case <-s.aborted:
			return nil
		}

		if err == nil {
			continue
		}
		switch kindOf(err) {
		case KindRejected:
			sessionLogger.Debugf("%s: frame %d rejected: %v", s, seq, err)
			s.SendMessage(seq, common.NewErrorResponse(err.Error()))
		default:
			sessionLogger.Warningf("%s: closing after frame %d: %v", s, seq, err)
			return err
		}
	}
}

// readError translates a failed read into a close cause
func (s *Session) readError(err error) error {
	var ne net.Error
	switch {
	case s.State() != SessionOpen || s.isAborted():
		return nil // closed locally
	case errors.Is(err, io.EOF):
		sessionLogger.Debugf("%s: closed by peer", s)
		return nil
	case errors.Is(err, transport.ErrFrameTooLarge):
		return Fatal(err)
	case s.idleTimeout > 0 && errors.As(err, &ne) && ne.Timeout():
		sessionLogger.Infof("%s: idle for %s, closing", s, s.idleTimeout)
		return nil
	default:
		return fmt.Errorf("read failed: %w", err)
	}
}

// writeLoop writes queued frames until the queue was closed and drained.
// After a write error or an abort it keeps draining without writing.
func (s *Session) writeLoop() {
	defer close(s.finished)
	defer s.writeWork.Release()

	var failed bool
	for f := range s.outbound.Recv() {
		if failed || s.isAborted() {
			continue
		}
		err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err == nil {
			err = s.conn.WriteFrame(f.seq, f.payload)
		}
		if err == nil {
			continue
		}
		failed = true
		sessionLogger.Debugf("%s: write failed, dropping remaining frames: %v", s, err)
		s.closeWith(fmt.Errorf("write failed: %w", err))
	}

	s.state.Store(int32(SessionClosed))
	_ = s.conn.Close()
}
