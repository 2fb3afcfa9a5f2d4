package server

import (
	"fmt"
	"github.com/ValentinKolb/dTetris/lib/match"
	"github.com/ValentinKolb/dTetris/lib/reactor"
	"github.com/ValentinKolb/dTetris/lib/shutdown"
	"github.com/ValentinKolb/dTetris/rpc/common"
	"github.com/ValentinKolb/dTetris/rpc/serializer"
	"github.com/ValentinKolb/dTetris/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger("server")

// NewServer creates a game server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewServer(
//		config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewJSONSerializer(),
//	)
//
//	outcome, err := s.Serve()
func NewServer(
	config common.ServerConfig,
	transport transport.IServerTransport,
	serializer serializer.IRPCSerializer,
) *Server {
	coordinator := shutdown.NewCoordinator()
	r := reactor.New(coordinator)
	workers := reactor.WorkerCount(config.Workers, reactor.DetectConcurrency())

	s := &Server{
		config:      config,
		transport:   transport,
		serializer:  serializer,
		coordinator: coordinator,
		reactor:     r,
		executor:    reactor.NewExecutor(r, coordinator, workers),
		matchmaker:  match.NewMatchmaker(coordinator),
		sessions:    xsync.NewMapOf[uint64, *Session](),
	}
	s.metrics = newServerMetrics(s)

	coordinator.OnShutdown(s.onShutdown)
	return s
}

// Server accepts connections and runs the board relay on a reactor
type Server struct {
	config      common.ServerConfig
	transport   transport.IServerTransport
	serializer  serializer.IRPCSerializer
	coordinator *shutdown.Coordinator
	reactor     *reactor.Reactor
	executor    *reactor.Executor
	matchmaker  *match.Matchmaker
	metrics     *serverMetrics

	// session registry, sessions hold no reference to their game
	sessions *xsync.MapOf[uint64, *Session]
	nextID   atomic.Uint64

	// mu orders session registration against the shutdown hook
	mu        sync.Mutex
	closing   bool
	guard     *reactor.Work
	listening bool
}

// Listen binds the listening socket. Serve calls it if needed, calling it
// before makes the bound address available through Addr.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listening {
		return nil
	}
	if err := s.transport.Listen(s.config); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Endpoint(), err)
	}
	s.listening = true
	return nil
}

// Serve runs the server until it was shut down and returns the outcome
// (shutdown.GracefulShutdown or shutdown.ForcedShutdown). An error is only
// returned if the server could not start.
func (s *Server) Serve() (shutdown.State, error) {
	if err := s.Listen(); err != nil {
		return shutdown.Running, err
	}

	Logger.Infof("Created game server")
	Logger.Infof(s.config.String())
	logDiagnostics()

	if err := s.metrics.start(s.config.MetricsEndpoint); err != nil {
		_ = s.transport.Close()
		return shutdown.Running, err
	}

	// keep-alive guard, the reactor must not drain while the server accepts
	s.mu.Lock()
	if !s.closing {
		s.guard = s.reactor.Hold()
	}
	s.mu.Unlock()

	s.executor.Start()
	Logger.Infof("started %d workers, accepting connections on %s", s.executor.Size(), s.transport.Addr())

	go func() {
		if err := s.transport.Serve(s.accept); err != nil {
			Logger.Errorf("accept loop failed: %v", err)
			s.coordinator.RequestStop()
		}
	}()

	outcome := s.executor.Wait()

	_ = s.transport.Close()
	s.metrics.stop()

	switch outcome {
	case shutdown.ForcedShutdown:
		Logger.Errorf("Server shutdown forced: %v", s.coordinator.Cause())
	default:
		Logger.Infof("Server shutdown gracefully.")
	}
	return outcome, nil
}

// Shutdown requests a graceful stop: no new connections are accepted, every
// session is told the server is shutting down and closed once its queued
// frames are written. Serve returns after the reactor drained.
func (s *Server) Shutdown() {
	s.coordinator.RequestStop()
}

// Addr returns the bound address
func (s *Server) Addr() string {
	return s.transport.Addr()
}

// Coordinator returns the shutdown coordinator of this server
func (s *Server) Coordinator() *shutdown.Coordinator {
	return s.coordinator
}

// Matchmaker returns the matchmaker of this server
func (s *Server) Matchmaker() *match.Matchmaker {
	return s.matchmaker
}

// Sessions returns the number of open sessions
func (s *Server) Sessions() int {
	return s.sessions.Size()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// accept is called by the transport for every new connection
func (s *Server) accept(conn transport.IFrameConn) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		Logger.Debugf("refusing connection from %s, shutting down", conn.RemoteAddr())
		_ = conn.Close()
		return
	}
	id := s.nextID.Add(1)
	sess := newSession(id, conn, s.reactor, s.serializer, time.Duration(s.config.IdleTimeoutSecond)*time.Second)
	s.sessions.Store(id, sess)
	s.mu.Unlock()

	s.metrics.accepted.Inc()
	sessionLogger.Infof("%s: connected", sess)
	sess.Start(s.handleFrame, s.sessionClosed)
}

// sessionClosed removes a session from matchmaking and tells a surviving
// opponent that the game is over
func (s *Server) sessionClosed(sess *Session, cause error) {
	s.sessions.Delete(sess.id)

	g, survivors := s.matchmaker.Remove(sess.id)
	if g != nil && g.Mode() == match.Multiplayer && !s.shuttingDown() {
		for _, id := range survivors {
			if peer, ok := s.sessions.Load(id); ok {
				peer.SendMessage(0, common.NewTerminalMessage(common.ReasonOpponentDisconnected))
			}
		}
	}

	if cause != nil {
		s.metrics.fatal.Inc()
		sessionLogger.Warningf("%s: closed: %v", sess, cause)
	} else {
		sessionLogger.Infof("%s: closed", sess)
	}
}

// onShutdown runs once when the shutdown is first initiated
func (s *Server) onShutdown() {
	s.mu.Lock()
	s.closing = true
	guard := s.guard
	s.mu.Unlock()

	_ = s.transport.Close()

	if s.coordinator.IsForced() {
		// abandon everything, queued frames are dropped
		s.sessions.Range(func(_ uint64, sess *Session) bool {
			sess.Abort()
			return true
		})
	} else {
		s.sessions.Range(func(_ uint64, sess *Session) bool {
			sess.SendMessage(0, common.NewTerminalMessage(common.ReasonServerShutdown))
			sess.Close()
			return true
		})
	}

	if guard != nil {
		guard.Release()
	}
}

func (s *Server) shuttingDown() bool {
	select {
	case <-s.coordinator.Initiated():
		return true
	default:
		return false
	}
}
