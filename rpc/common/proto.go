package common

import (
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/dTetris/lib/tetris"
)

// Terminal reasons sent with MsgTTerminal
const (
	ReasonOpponentDisconnected = "opponent disconnected"
	ReasonServerShutdown       = "server shutting down"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single frame payload exchanged between client and
// server. Which fields are used depends on the type of message. The sequence
// number travels in the frame header, not in the message: for input frames it
// is chosen by the client, for snapshot frames it is the board revision and
// error frames echo the sequence number of the rejected input.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Game fields
	Mode    string `json:"mode,omitempty"`     // Used for: Hello (request), Match
	MatchID string `json:"match_id,omitempty"` // Used for: Match
	Index   int32  `json:"index,omitempty"`    // Used for: Match (own board), Snapshot (source board)
	Seed    uint64 `json:"seed,omitempty"`     // Used for: Match (piece seed of the own board)
	Action  string `json:"action,omitempty"`   // Used for: Input

	// Relay fields
	Snapshot *tetris.Snapshot `json:"snapshot,omitempty"` // Used for: Snapshot, SnapshotPartial
	Reason   string           `json:"reason,omitempty"`   // Used for: Terminal

	// Response only fields
	Err string `json:"err,omitempty"` // Empty if no error, otherwise contains the error message
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewHelloRequest creates a request to join a game of the given mode
func NewHelloRequest(mode string) *Message {
	return &Message{
		MsgType: MsgTHello,
		Mode:    mode,
	}
}

// NewInputRequest creates an input event for the sender's own board
func NewInputRequest(action tetris.Action) *Message {
	return &Message{
		MsgType: MsgTInput,
		Action:  action.String(),
	}
}

// NewWaitingResponse tells a client it was queued for a multiplayer match
func NewWaitingResponse() *Message {
	return &Message{
		MsgType: MsgTWaiting,
	}
}

// NewMatchStarted tells a client that its game was created
func NewMatchStarted(matchID, mode string, index int, seed uint64) *Message {
	return &Message{
		MsgType: MsgTMatch,
		MatchID: matchID,
		Mode:    mode,
		Index:   int32(index),
		Seed:    seed,
	}
}

// NewSnapshotMessage wraps a relayed board snapshot. Partial snapshots (no
// grid) are sent as MsgTSnapshotPartial.
func NewSnapshotMessage(index int, snapshot tetris.Snapshot) *Message {
	msg := &Message{
		MsgType:  MsgTSnapshot,
		Index:    int32(index),
		Snapshot: &snapshot,
	}
	if snapshot.IsPartial() {
		msg.MsgType = MsgTSnapshotPartial
	}
	return msg
}

// NewTerminalMessage ends the client's game for the given reason
func NewTerminalMessage(reason string) *Message {
	return &Message{
		MsgType: MsgTTerminal,
		Reason:  reason,
	}
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in the relay protocol.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTHello:
		return "hello"
	case MsgTInput:
		return "input"
	case MsgTWaiting:
		return "waiting"
	case MsgTMatch:
		return "match"
	case MsgTSnapshot:
		return "snapshot"
	case MsgTSnapshotPartial:
		return "snapshot-partial"
	case MsgTTerminal:
		return "terminal"
	case MsgTError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "hello":
		*t = MsgTHello
	case "input":
		*t = MsgTInput
	case "waiting":
		*t = MsgTWaiting
	case "match":
		*t = MsgTMatch
	case "snapshot":
		*t = MsgTSnapshot
	case "snapshot-partial":
		*t = MsgTSnapshotPartial
	case "terminal":
		*t = MsgTTerminal
	case "error":
		*t = MsgTError
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	MsgTUnknown MessageType = iota
	MsgTError               // Rejected request, the session stays open

	// Client -> server

	MsgTHello // Join a single or multiplayer game
	MsgTInput // Input event for the own board

	// Server -> client

	MsgTWaiting         // Queued for a multiplayer opponent
	MsgTMatch           // Game created
	MsgTSnapshot        // Opponent board including the grid
	MsgTSnapshotPartial // Opponent board without the grid (grid unchanged)
	MsgTTerminal        // Game over for this client, see Reason
)
