package match

import (
	"errors"
	"github.com/ValentinKolb/dTetris/lib/shutdown"
	"github.com/ValentinKolb/dTetris/lib/tetris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
)

func newTestMatchmaker() *Matchmaker {
	m := NewMatchmaker(shutdown.NewCoordinator())
	var next uint64
	m.seed = func() uint64 {
		next++
		return next
	}
	return m
}

func TestStartSingle(t *testing.T) {
	m := newTestMatchmaker()

	g, err := m.StartSingle(1)
	require.NoError(t, err)
	assert.Equal(t, Single, g.Mode())
	assert.Equal(t, []uint64{1}, g.Sessions())
	assert.Equal(t, 0, g.BoardIndex(1))

	_, ok := g.Opponent(1)
	assert.False(t, ok)

	got, ok := m.Lookup(1)
	require.True(t, ok)
	assert.Same(t, g, got)
	assert.Equal(t, 1, m.Games())
	assert.Zero(t, m.Waiting())
}

func TestEnqueuePairsInArrivalOrder(t *testing.T) {
	m := newTestMatchmaker()

	g, err := m.Enqueue(7)
	require.NoError(t, err)
	assert.Nil(t, g)
	assert.True(t, m.IsWaiting(7))

	g, err = m.Enqueue(3)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, Multiplayer, g.Mode())
	assert.Equal(t, []uint64{7, 3}, g.Sessions(), "first arrival gets board 0")
	assert.Zero(t, m.Waiting())

	opp, ok := g.Opponent(7)
	require.True(t, ok)
	assert.Equal(t, uint64(3), opp)

	s0, _ := g.Seed(7)
	s1, _ := g.Seed(3)
	assert.NotEqual(t, s0, s1)
}

func TestQueueIsFIFO(t *testing.T) {
	m := newTestMatchmaker()
	var games []*GameMode
	for _, id := range []uint64{10, 4, 8, 2, 6} {
		g, err := m.Enqueue(id)
		require.NoError(t, err)
		if g != nil {
			games = append(games, g)
		}
	}
	require.Len(t, games, 2)
	assert.Equal(t, []uint64{10, 4}, games[0].Sessions())
	assert.Equal(t, []uint64{8, 2}, games[1].Sessions())
	assert.True(t, m.IsWaiting(6))
}

func TestAlreadyAssigned(t *testing.T) {
	m := newTestMatchmaker()

	_, err := m.Enqueue(1)
	require.NoError(t, err)
	_, err = m.Enqueue(1)
	assert.ErrorIs(t, err, ErrAlreadyAssigned)
	_, err = m.StartSingle(1)
	assert.ErrorIs(t, err, ErrAlreadyAssigned)

	_, err = m.StartSingle(2)
	require.NoError(t, err)
	_, err = m.Enqueue(2)
	assert.ErrorIs(t, err, ErrAlreadyAssigned)
	assert.Equal(t, 1, m.Waiting())
}

func TestRemoveWaiting(t *testing.T) {
	m := newTestMatchmaker()
	_, _ = m.Enqueue(1)

	g, survivors := m.Remove(1)
	assert.Nil(t, g)
	assert.Empty(t, survivors)
	assert.Zero(t, m.Waiting())

	// the next two arrivals pair with each other
	_, _ = m.Enqueue(2)
	g, err := m.Enqueue(3)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3}, g.Sessions())
}

func TestRemoveDestroysGame(t *testing.T) {
	m := newTestMatchmaker()
	_, _ = m.Enqueue(1)
	g, _ := m.Enqueue(2)

	removed, survivors := m.Remove(2)
	assert.Same(t, g, removed)
	assert.Equal(t, []uint64{1}, survivors)
	assert.True(t, g.Destroyed())
	assert.Zero(t, m.Games())

	_, ok := m.Lookup(1)
	assert.False(t, ok, "survivor is released")
	assert.False(t, m.IsWaiting(1), "survivor is not re-queued")

	_, err := g.Apply(1, tetris.MoveLeft)
	assert.ErrorIs(t, err, ErrGameDestroyed)

	// a destroyed game is never reused
	_, _ = m.Enqueue(1)
	g2, _ := m.Enqueue(3)
	require.NotNil(t, g2)
	assert.NotEqual(t, g.ID(), g2.ID())

	// removing an unknown session is a no-op
	removed, survivors = m.Remove(99)
	assert.Nil(t, removed)
	assert.Empty(t, survivors)
}

func TestApplyMutatesOnlyOwnBoard(t *testing.T) {
	m := newTestMatchmaker()
	_, _ = m.Enqueue(1)
	g, _ := m.Enqueue(2)

	before := g.boards[1].Snapshot()
	r, err := g.Apply(1, tetris.HardDrop)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), r.Source)
	assert.Equal(t, 0, r.Index)
	assert.True(t, r.HasOpponent)
	assert.Equal(t, uint64(2), r.Opponent)
	assert.True(t, r.Full())
	assert.Equal(t, uint64(1), r.Snapshot.Revision)
	assert.Equal(t, before, g.boards[1].Snapshot())

	r, err = g.Apply(1, tetris.MoveLeft)
	require.NoError(t, err)
	assert.False(t, r.Full())
	assert.Equal(t, uint64(2), r.Snapshot.Revision)

	_, err = g.Apply(5, tetris.MoveLeft)
	assert.ErrorIs(t, err, ErrNotInMatch)
}

func TestApplySingleHasNoOpponent(t *testing.T) {
	m := newTestMatchmaker()
	g, _ := m.StartSingle(1)
	r, err := g.Apply(1, tetris.RotateCW)
	require.NoError(t, err)
	assert.False(t, r.HasOpponent)
}

func TestNoGamesAfterShutdown(t *testing.T) {
	c := shutdown.NewCoordinator()
	m := NewMatchmaker(c)
	c.RequestStop()

	_, err := m.Enqueue(1)
	assert.True(t, errors.Is(err, ErrShuttingDown))
	_, err = m.StartSingle(2)
	assert.ErrorIs(t, err, ErrShuttingDown)
}

func TestConcurrentEnqueue(t *testing.T) {
	m := NewMatchmaker(shutdown.NewCoordinator())
	const n = 200

	var wg sync.WaitGroup
	for i := uint64(1); i <= n; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			_, err := m.Enqueue(id)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, n/2, m.Games())
	assert.Zero(t, m.Waiting())
	for i := uint64(1); i <= n; i++ {
		g, ok := m.Lookup(i)
		require.True(t, ok)
		assert.Len(t, g.Sessions(), 2)
	}
}

func TestParseGameModeType(t *testing.T) {
	for in, want := range map[string]GameModeType{"single": Single, "Multiplayer": Multiplayer, "multi": Multiplayer} {
		got, err := ParseGameModeType(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseGameModeType("coop")
	assert.ErrorIs(t, err, ErrUnknownMode)
	assert.Equal(t, "multiplayer", Multiplayer.String())
	assert.Equal(t, 2, Multiplayer.Players())
}
