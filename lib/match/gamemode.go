package match

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dTetris/lib/tetris"
	"github.com/google/uuid"
	"strings"
	"sync/atomic"
)

var (
	ErrAlreadyAssigned = errors.New("session is already waiting or playing")
	ErrNotInMatch      = errors.New("session is not part of a game")
	ErrGameDestroyed   = errors.New("game was destroyed")
	ErrUnknownMode     = errors.New("unknown game mode")
)

// GameModeType selects between solo and two-player games
type GameModeType uint8

const (
	Single GameModeType = iota + 1
	Multiplayer
)

// String returns the wire name of the mode
func (m GameModeType) String() string {
	switch m {
	case Single:
		return "single"
	case Multiplayer:
		return "multiplayer"
	default:
		return "unknown"
	}
}

// Players returns the number of sessions and boards a game of this mode has
func (m GameModeType) Players() int {
	if m == Multiplayer {
		return 2
	}
	return 1
}

// ParseGameModeType converts a wire or command line name into a GameModeType
func ParseGameModeType(s string) (GameModeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "solo":
		return Single, nil
	case "multiplayer", "multi", "versus":
		return Multiplayer, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// --------------------------------------------------------------------------
// GameMode
// --------------------------------------------------------------------------

// GameMode is one running game
type GameMode struct {
	id        uuid.UUID
	mode      GameModeType
	sessions  []uint64
	seeds     []uint64
	boards    []*tetris.Board
	destroyed atomic.Bool
}

// Relay is the result of one applied input
type Relay struct {
	Source      uint64          // session whose board changed
	Index       int             // board index of the source
	Opponent    uint64          // session that has to receive the snapshot
	HasOpponent bool            // false in Single games
	Change      tetris.Change   // what the input did
	Snapshot    tetris.Snapshot // post-mutation copy of the source board
}

// Full reports whether the relayed snapshot has to carry the grid
func (r Relay) Full() bool {
	return r.Change.GridChanged
}

func newGameMode(mode GameModeType, sessions []uint64, seeds []uint64) *GameMode {
	g := &GameMode{
		id:       uuid.New(),
		mode:     mode,
		sessions: sessions,
		seeds:    seeds,
		boards:   make([]*tetris.Board, len(sessions)),
	}
	for i := range sessions {
		g.boards[i] = tetris.NewBoard(seeds[i])
	}
	return g
}

// ID returns the unique id of the game
func (g *GameMode) ID() uuid.UUID { return g.id }

// Mode returns Single or Multiplayer
func (g *GameMode) Mode() GameModeType { return g.mode }

// Sessions returns the participating session ids ordered by board index
func (g *GameMode) Sessions() []uint64 {
	return append([]uint64(nil), g.sessions...)
}

// Destroyed reports whether a participant left and the game ended
func (g *GameMode) Destroyed() bool { return g.destroyed.Load() }

// BoardIndex returns the board index of a session or -1
func (g *GameMode) BoardIndex(sessionID uint64) int {
	for i, id := range g.sessions {
		if id == sessionID {
			return i
		}
	}
	return -1
}

// Seed returns the piece generator seed of the session's board, clients use
// it to mirror their own board locally
func (g *GameMode) Seed(sessionID uint64) (uint64, bool) {
	i := g.BoardIndex(sessionID)
	if i < 0 {
		return 0, false
	}
	return g.seeds[i], true
}

// Opponent returns the other participant of a Multiplayer game
func (g *GameMode) Opponent(sessionID uint64) (uint64, bool) {
	i := g.BoardIndex(sessionID)
	if i < 0 || g.mode != Multiplayer {
		return 0, false
	}
	return g.sessions[1-i], true
}

// Apply applies an input to the caller's own board and returns an immutable
// snapshot of the result. Must only be called from the owning session's
// input path.
func (g *GameMode) Apply(sessionID uint64, action tetris.Action) (Relay, error) {
	i := g.BoardIndex(sessionID)
	if i < 0 {
		return Relay{}, ErrNotInMatch
	}
	if g.destroyed.Load() {
		return Relay{}, ErrGameDestroyed
	}

	change, err := g.boards[i].Apply(action)
	if err != nil {
		return Relay{}, err
	}

	r := Relay{
		Source:   sessionID,
		Index:    i,
		Change:   change,
		Snapshot: g.boards[i].Snapshot(),
	}
	r.Opponent, r.HasOpponent = g.Opponent(sessionID)
	return r, nil
}

func (g *GameMode) String() string {
	return fmt.Sprintf("%s game %s %v", g.mode, g.id, g.sessions)
}
