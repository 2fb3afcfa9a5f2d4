package server

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dTetris/lib/match"
	"github.com/ValentinKolb/dTetris/lib/tetris"
	"github.com/ValentinKolb/dTetris/rpc/common"
)

var ErrUnsupportedMessage = errors.New("unsupported message type")

// --------------------------------------------------------------------------
// Board Relay Protocol
// --------------------------------------------------------------------------

// handleFrame is the FrameHandler of every session. It runs on a reactor
// worker and never blocks: replies and relays are only queued.
func (s *Server) handleFrame(sess *Session, seq uint64, payload []byte) error {
	var req common.Message
	if err := s.serializer.Deserialize(payload, &req); err != nil {
		return Fatal(fmt.Errorf("malformed frame: %w", err))
	}

	switch req.MsgType {
	case common.MsgTHello:
		return s.handleHello(sess, &req)
	case common.MsgTInput:
		return s.handleInput(sess, seq, &req)
	default:
		s.metrics.rejected.Inc()
		return Rejected(fmt.Errorf("%w: %s", ErrUnsupportedMessage, req.MsgType))
	}
}

// handleHello assigns the session to a Single game or the waiting queue
func (s *Server) handleHello(sess *Session, req *common.Message) error {
	mode, err := match.ParseGameModeType(req.Mode)
	if err != nil {
		s.metrics.rejected.Inc()
		return Rejected(err)
	}

	var g *match.GameMode
	switch mode {
	case match.Single:
		g, err = s.matchmaker.StartSingle(sess.id)
	default:
		g, err = s.matchmaker.Enqueue(sess.id)
	}
	if err != nil {
		s.metrics.rejected.Inc()
		return Rejected(err)
	}

	if g == nil {
		sess.SendMessage(0, common.NewWaitingResponse())
		return nil
	}

	s.metrics.matches.Inc()
	for i, id := range g.Sessions() {
		peer, ok := s.sessions.Load(id)
		if !ok {
			// closed while waiting, its close handler destroys the game
			continue
		}
		seed, _ := g.Seed(id)
		peer.SendMessage(0, common.NewMatchStarted(g.ID().String(), g.Mode().String(), i, seed))
	}
	return nil
}

// handleInput applies one action to the sender's own board and relays the
// resulting snapshot to the opponent. The frame sequence number of the relay
// is the board revision.
func (s *Server) handleInput(sess *Session, seq uint64, req *common.Message) error {
	action, err := tetris.ParseAction(req.Action)
	if err != nil {
		s.metrics.rejected.Inc()
		return Rejected(err)
	}

	g, ok := s.matchmaker.Lookup(sess.id)
	if !ok {
		s.metrics.rejected.Inc()
		return Rejected(match.ErrNotInMatch)
	}

	relay, err := g.Apply(sess.id, action)
	if err != nil {
		s.metrics.rejected.Inc()
		return Rejected(err)
	}
	Logger.Debugf("session %d input %d: %s -> revision %d", sess.id, seq, action, relay.Snapshot.Revision)

	if !relay.HasOpponent {
		return nil
	}

	opponent, ok := s.sessions.Load(relay.Opponent)
	if !ok {
		// the opponent's close handler is about to destroy the game
		return nil
	}

	snapshot := relay.Snapshot
	if !relay.Full() {
		snapshot = snapshot.Partial()
	}
	if opponent.SendMessage(snapshot.Revision, common.NewSnapshotMessage(relay.Index, snapshot)) {
		s.metrics.relayed.Inc()
	}
	return nil
}
