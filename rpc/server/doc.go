// Package server implements the game server: the connection acceptor, the
// per connection Session and the board relay protocol that runs on top of a
// reactor.
//
// Every accepted connection becomes a Session with a unique id. A session
// reads one frame at a time and posts the frame handler to the reactor, the
// next frame is only read after the handler completed. Outbound frames are
// queued on a per session FIFO that a single writer drains, so frames reach
// the client in the order they were queued.
//
// Key Components:
//
//   - Server: Owns the shutdown coordinator, the reactor with its executor,
//     the matchmaker and the session registry. Serve blocks until the run
//     ended and returns the outcome.
//
//   - Session: One client connection. Handler errors are classified with
//     Rejected (an error frame is sent, the session stays open) and Fatal
//     (the session closes). A session that closes posts a close handler which
//     removes it from matchmaking and notifies a surviving opponent.
//
//   - Board relay: A hello frame asks for a Single game or a place in the
//     waiting queue. An input frame is applied to the sender's own board and
//     the resulting snapshot is sent to the opponent only. The sequence number
//     of a snapshot frame is the board revision.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Transport:  "tcp",
//	  Host:       "0.0.0.0",
//	  Port:       common.DefaultPort,
//	  Serializer: "json",
//	  LogLevel:   "info",
//	}
//
//	s := server.NewServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewJSONSerializer(),
//	)
//
//	// stop on SIGTERM
//	go func() { <-sigs; s.Shutdown() }()
//
//	outcome, err := s.Serve()
//
// Shutdown:
//
//	A graceful stop (Shutdown) closes the listener, sends every session a
//	terminal frame and closes it after its queue was written. A handler fault
//	forces the shutdown instead: sessions are dropped without flushing and
//	Serve returns shutdown.ForcedShutdown.
package server
