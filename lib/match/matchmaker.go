package match

import (
	"errors"
	"github.com/ValentinKolb/dTetris/lib/shutdown"
	"github.com/ValentinKolb/dTetris/lib/util"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"sync"
	"sync/atomic"
)

var Logger = logger.GetLogger("match")

var ErrShuttingDown = errors.New("server is shutting down")

// Matchmaker assigns sessions to games
type Matchmaker struct {
	coordinator *shutdown.Coordinator

	mu       sync.Mutex
	waiting  *util.MapHeap // key: session id, priority: arrival
	arrivals uint64

	bySession *xsync.MapOf[uint64, *GameMode]
	byID      *xsync.MapOf[uuid.UUID, *GameMode]

	seed   func() uint64
	formed atomic.Uint64
}

// NewMatchmaker creates an empty matchmaker. Once the coordinator initiated
// a shutdown no new games are formed.
func NewMatchmaker(coordinator *shutdown.Coordinator) *Matchmaker {
	return &Matchmaker{
		coordinator: coordinator,
		waiting:     util.NewMapHeap(),
		bySession:   xsync.NewMapOf[uint64, *GameMode](),
		byID:        xsync.NewMapOf[uuid.UUID, *GameMode](),
		seed:        util.GenerateSeed,
	}
}

// --------------------------------------------------------------------------
// Matchmaking
// --------------------------------------------------------------------------

// StartSingle creates a Single game for the session
func (m *Matchmaker) StartSingle(sessionID uint64) (*GameMode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.admitLocked(sessionID); err != nil {
		return nil, err
	}
	g := newGameMode(Single, []uint64{sessionID}, []uint64{m.seed()})
	m.registerLocked(g)
	return g, nil
}

// Enqueue adds the session to the waiting queue. If another session was
// already waiting, both are paired and the new Multiplayer game is returned,
// otherwise the returned game is nil.
func (m *Matchmaker) Enqueue(sessionID uint64) (*GameMode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.admitLocked(sessionID); err != nil {
		return nil, err
	}
	m.arrivals++
	m.waiting.AddItem(sessionID, m.arrivals)

	if m.waiting.Len() < 2 {
		Logger.Debugf("session %d waiting for an opponent", sessionID)
		return nil, nil
	}

	first, _ := m.waiting.PopMin()
	second, _ := m.waiting.PopMin()
	g := newGameMode(Multiplayer,
		[]uint64{first.Key, second.Key},
		[]uint64{m.seed(), m.seed()})
	m.registerLocked(g)
	return g, nil
}

// Lookup returns the live game of a session
func (m *Matchmaker) Lookup(sessionID uint64) (*GameMode, bool) {
	return m.bySession.Load(sessionID)
}

// Game returns a live game by its id
func (m *Matchmaker) Game(id uuid.UUID) (*GameMode, bool) {
	return m.byID.Load(id)
}

// IsWaiting reports whether the session is in the waiting queue
func (m *Matchmaker) IsWaiting(sessionID uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waiting.Contains(sessionID)
}

// Remove takes a session out of matchmaking. A waiting session simply leaves
// the queue. A playing session destroys its game, which is returned together
// with the session ids of the remaining participants.
func (m *Matchmaker) Remove(sessionID uint64) (*GameMode, []uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.waiting.RemoveByKey(sessionID); ok {
		Logger.Debugf("session %d left the waiting queue", sessionID)
		return nil, nil
	}

	g, ok := m.bySession.Load(sessionID)
	if !ok {
		return nil, nil
	}
	g.destroyed.Store(true)
	m.byID.Delete(g.id)

	var survivors []uint64
	for _, id := range g.sessions {
		m.bySession.Delete(id)
		if id != sessionID {
			survivors = append(survivors, id)
		}
	}
	Logger.Infof("destroyed %s, session %d left", g, sessionID)
	return g, survivors
}

// Waiting returns the number of queued sessions
func (m *Matchmaker) Waiting() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waiting.Len()
}

// Games returns the number of live games
func (m *Matchmaker) Games() int {
	return m.byID.Size()
}

// Formed returns the number of games created since start
func (m *Matchmaker) Formed() uint64 {
	return m.formed.Load()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (m *Matchmaker) admitLocked(sessionID uint64) error {
	select {
	case <-m.coordinator.Initiated():
		return ErrShuttingDown
	default:
	}
	if m.waiting.Contains(sessionID) {
		return ErrAlreadyAssigned
	}
	if _, ok := m.bySession.Load(sessionID); ok {
		return ErrAlreadyAssigned
	}
	return nil
}

func (m *Matchmaker) registerLocked(g *GameMode) {
	for _, id := range g.sessions {
		m.bySession.Store(id, g)
	}
	m.byID.Store(g.id, g)
	m.formed.Add(1)
	Logger.Infof("created %s", g)
}
