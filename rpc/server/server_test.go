package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dTetris/lib/shutdown"
	"github.com/ValentinKolb/dTetris/lib/tetris"
	"github.com/ValentinKolb/dTetris/rpc/client"
	"github.com/ValentinKolb/dTetris/rpc/common"
	"github.com/ValentinKolb/dTetris/rpc/serializer"
	"github.com/ValentinKolb/dTetris/rpc/transport/base"
	"github.com/ValentinKolb/dTetris/rpc/transport/tcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

type serveResult struct {
	outcome shutdown.State
	err     error
}

type testServer struct {
	*Server
	result chan serveResult
	once   sync.Once
	res    serveResult
}

func startServer(t *testing.T, configure ...func(*common.ServerConfig)) *testServer {
	t.Helper()
	config := common.ServerConfig{
		Transport:  "tcp",
		Host:       "127.0.0.1",
		Port:       0,
		Workers:    4,
		Serializer: "json",
		LogLevel:   "info",
	}
	for _, fn := range configure {
		fn(&config)
	}

	s := NewServer(config, tcp.NewTCPServerTransport(), serializer.NewJSONSerializer())
	require.NoError(t, s.Listen())

	ts := &testServer{Server: s, result: make(chan serveResult, 1)}
	go func() {
		outcome, err := s.Serve()
		ts.result <- serveResult{outcome, err}
	}()

	t.Cleanup(func() {
		s.Shutdown()
		ts.wait(t)
	})
	return ts
}

func (ts *testServer) wait(t *testing.T) serveResult {
	t.Helper()
	ts.once.Do(func() {
		select {
		case ts.res = <-ts.result:
		case <-time.After(2 * testTimeout):
			t.Fatal("server did not stop")
		}
	})
	return ts.res
}

func dial(t *testing.T, s *testServer) *client.GameClient {
	t.Helper()
	c, err := client.NewGameClient(
		common.ClientConfig{Endpoint: s.Addr(), TimeoutSecond: 5},
		tcp.NewTCPClientTransport(),
		serializer.NewJSONSerializer(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func expect(t *testing.T, c *client.GameClient, msgType common.MessageType) client.Frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	f, err := c.Expect(ctx, msgType)
	require.NoError(t, err)
	return f
}

// expectSilence asserts that nothing arrives for a short while
func expectSilence(t *testing.T, c *client.GameClient) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	f, err := c.Recv(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded, "unexpected frame %+v", f)
}

func expectClosed(t *testing.T, c *client.GameClient) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	for {
		_, err := c.Recv(ctx)
		if err == nil {
			continue
		}
		require.ErrorIs(t, err, client.ErrClosed)
		return
	}
}

// pair connects two clients and forms a multiplayer game, c1 gets board 0
func pair(t *testing.T, s *testServer) (c1, c2 *client.GameClient, m1, m2 client.Frame) {
	t.Helper()
	c1, c2 = dial(t, s), dial(t, s)

	require.NoError(t, c1.Hello("multiplayer"))
	expect(t, c1, common.MsgTWaiting)

	require.NoError(t, c2.Hello("multiplayer"))
	m2 = expect(t, c2, common.MsgTMatch)
	m1 = expect(t, c1, common.MsgTMatch)
	return c1, c2, m1, m2
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestMultiplayerRelay(t *testing.T) {
	s := startServer(t)
	c1, c2, m1, m2 := pair(t, s)

	assert.Equal(t, int32(0), m1.Msg.Index)
	assert.Equal(t, int32(1), m2.Msg.Index)
	assert.Equal(t, m1.Msg.MatchID, m2.Msg.MatchID)
	assert.Equal(t, "multiplayer", m1.Msg.Mode)

	// mirror c1's board to check what c2 receives
	mirror := tetris.NewBoard(m1.Msg.Seed)
	actions := []tetris.Action{
		tetris.MoveLeft, tetris.RotateCW, tetris.SoftDrop, tetris.HardDrop,
		tetris.MoveRight, tetris.MoveRight, tetris.RotateCCW, tetris.HardDrop,
	}

	for _, a := range actions {
		_, err := c1.Input(a)
		require.NoError(t, err)
	}

	for i, a := range actions {
		change, err := mirror.Apply(a)
		require.NoError(t, err)
		want := mirror.Snapshot()

		wantType := common.MsgTSnapshotPartial
		if change.GridChanged {
			wantType = common.MsgTSnapshot
		}
		f := expect(t, c2, wantType)
		assert.Equal(t, uint64(i+1), f.Seq, "snapshot seq is the board revision")
		assert.Equal(t, int32(0), f.Msg.Index)
		require.NotNil(t, f.Msg.Snapshot)
		assert.Equal(t, want.Revision, f.Msg.Snapshot.Revision)
		assert.Equal(t, want.Piece, f.Msg.Snapshot.Piece)
		assert.Equal(t, want.Score, f.Msg.Snapshot.Score)
		if change.GridChanged {
			assert.Equal(t, want.Cells, f.Msg.Snapshot.Cells)
		}
	}

	// the source never gets its own moves relayed
	expectSilence(t, c1)
	expectSilence(t, c2)
}

func TestConcurrentRelayKeepsOrder(t *testing.T) {
	s := startServer(t)
	c1, c2, _, _ := pair(t, s)
	const n = 100

	var wg sync.WaitGroup
	for _, c := range []*client.GameClient{c1, c2} {
		wg.Add(1)
		go func(c *client.GameClient) {
			defer wg.Done()
			for i := 0; i < n; i++ {
				// lateral moves never end the game
				a := tetris.MoveLeft
				if i%2 == 1 {
					a = tetris.MoveRight
				}
				_, err := c.Input(a)
				assert.NoError(t, err)
			}
		}(c)
	}

	for _, c := range []*client.GameClient{c1, c2} {
		for i := 1; i <= n; i++ {
			f := expect(t, c, common.MsgTSnapshotPartial)
			require.Equal(t, uint64(i), f.Seq)
		}
	}
	wg.Wait()
	expectSilence(t, c1)
}

func TestSingleModeHasNoSnapshots(t *testing.T) {
	s := startServer(t)
	c := dial(t, s)

	require.NoError(t, c.Hello("single"))
	m := expect(t, c, common.MsgTMatch)
	assert.Equal(t, "single", m.Msg.Mode)
	assert.Equal(t, int32(0), m.Msg.Index)

	for _, a := range []tetris.Action{tetris.MoveLeft, tetris.HardDrop, tetris.RotateCW} {
		_, err := c.Input(a)
		require.NoError(t, err)
	}
	expectSilence(t, c)
	assert.Zero(t, s.metrics.relayed.Get())
	assert.Equal(t, 1, s.matchmaker.Games())
}

func TestOpponentDisconnect(t *testing.T) {
	s := startServer(t)
	c1, c2, _, _ := pair(t, s)

	require.NoError(t, c2.Close())

	f := expect(t, c1, common.MsgTTerminal)
	assert.Equal(t, common.ReasonOpponentDisconnected, f.Msg.Reason)

	require.Eventually(t, func() bool { return s.matchmaker.Games() == 0 }, testTimeout, 10*time.Millisecond)
	assert.Zero(t, s.matchmaker.Waiting(), "survivor is not re-queued")

	// the survivor is out of the game but still connected
	seq, err := c1.Input(tetris.MoveLeft)
	require.NoError(t, err)
	e := expect(t, c1, common.MsgTError)
	assert.Equal(t, seq, e.Seq)

	// and may look for a new opponent
	require.NoError(t, c1.Hello("multiplayer"))
	expect(t, c1, common.MsgTWaiting)
}

func TestWaitingSessionDisconnect(t *testing.T) {
	s := startServer(t)
	c1 := dial(t, s)
	require.NoError(t, c1.Hello("multiplayer"))
	expect(t, c1, common.MsgTWaiting)

	require.NoError(t, c1.Close())
	require.Eventually(t, func() bool { return s.matchmaker.Waiting() == 0 }, testTimeout, 10*time.Millisecond)

	// the next two players are paired with each other
	c2, c3, _, _ := pair(t, s)
	_, err := c2.Input(tetris.MoveRight)
	require.NoError(t, err)
	expect(t, c3, common.MsgTSnapshotPartial)
}

func TestRejectedFramesKeepSession(t *testing.T) {
	s := startServer(t)
	c := dial(t, s)

	// input before a game
	seq, err := c.Input(tetris.MoveLeft)
	require.NoError(t, err)
	e := expect(t, c, common.MsgTError)
	assert.Equal(t, seq, e.Seq)

	// unknown mode
	require.NoError(t, c.Hello("coop"))
	expect(t, c, common.MsgTError)

	require.NoError(t, c.Hello("single"))
	expect(t, c, common.MsgTMatch)

	// duplicate hello
	require.NoError(t, c.Hello("single"))
	expect(t, c, common.MsgTError)

	// unknown action
	seq, err = c.InputRaw("teleport")
	require.NoError(t, err)
	e = expect(t, c, common.MsgTError)
	assert.Equal(t, seq, e.Seq)
	assert.Contains(t, e.Msg.Err, "unknown action")

	assert.Equal(t, 1, s.Sessions())
	assert.Equal(t, uint64(4), s.metrics.rejected.Get())
}

func TestMalformedFrameClosesSession(t *testing.T) {
	s := startServer(t)

	raw, err := net.Dial("tcp", s.Addr())
	require.NoError(t, err)
	defer raw.Close()

	conn := base.NewStreamConn(raw, 1024)
	require.NoError(t, conn.WriteFrame(1, []byte("{not json")))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(testTimeout)))
	_, _, err = conn.ReadFrame()
	require.Error(t, err)
	var ne net.Error
	assert.False(t, errors.As(err, &ne) && ne.Timeout(), "server did not close the session")

	require.Eventually(t, func() bool { return s.Sessions() == 0 }, testTimeout, 10*time.Millisecond)
	assert.Equal(t, uint64(1), s.metrics.fatal.Get())
}

func TestIdleTimeout(t *testing.T) {
	s := startServer(t, func(c *common.ServerConfig) { c.IdleTimeoutSecond = 1 })
	c := dial(t, s)
	expectClosed(t, c)
	require.Eventually(t, func() bool { return s.Sessions() == 0 }, testTimeout, 10*time.Millisecond)
}

func TestGracefulShutdown(t *testing.T) {
	s := startServer(t)
	c1, c2, _, _ := pair(t, s)
	c3 := dial(t, s)
	require.NoError(t, c3.Hello("multiplayer"))
	expect(t, c3, common.MsgTWaiting)

	s.Shutdown()

	for _, c := range []*client.GameClient{c1, c2, c3} {
		f := expect(t, c, common.MsgTTerminal)
		assert.Equal(t, common.ReasonServerShutdown, f.Msg.Reason)
		expectClosed(t, c)
	}

	res := s.wait(t)
	require.NoError(t, res.err)
	assert.Equal(t, shutdown.GracefulShutdown, res.outcome)
	assert.Equal(t, shutdown.Stopped, s.Coordinator().State())

	// no new connections after the stop
	_, err := net.DialTimeout("tcp", s.Addr(), time.Second)
	assert.Error(t, err)
}

func TestWorkerFaultForcesShutdown(t *testing.T) {
	s := startServer(t)
	c1, _, _, _ := pair(t, s)

	require.True(t, s.reactor.Post(func() { panic("corrupted state") }))

	res := s.wait(t)
	require.NoError(t, res.err, "a forced shutdown is not a startup failure")
	assert.Equal(t, shutdown.ForcedShutdown, res.outcome)
	assert.True(t, s.Coordinator().IsForced())
	assert.ErrorContains(t, s.Coordinator().Cause(), "corrupted state")

	// sessions are dropped without a goodbye
	expectClosed(t, c1)

	// a later stop request does not turn the run graceful
	s.Shutdown()
	assert.Equal(t, shutdown.ForcedShutdown, s.Coordinator().Outcome())
}

func TestServeFailsOnBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	addr := ln.Addr().(*net.TCPAddr)
	s := NewServer(common.ServerConfig{Transport: "tcp", Host: "127.0.0.1", Port: uint16(addr.Port)},
		tcp.NewTCPServerTransport(), serializer.NewJSONSerializer())

	outcome, err := s.Serve()
	assert.Error(t, err)
	assert.Equal(t, shutdown.Running, outcome)
}

func TestSplitAddrs(t *testing.T) {
	addrs := []net.Addr{
		&net.IPNet{IP: net.ParseIP("10.0.0.2"), Mask: net.CIDRMask(8, 32)},
		&net.IPNet{IP: net.ParseIP("127.0.0.1"), Mask: net.CIDRMask(8, 32)},
		&net.IPNet{IP: net.ParseIP("::1"), Mask: net.CIDRMask(128, 128)},
		&net.IPAddr{IP: net.ParseIP("10.0.0.2")},
	}
	v4, v6 := splitAddrs(addrs)
	assert.Equal(t, []string{"10.0.0.2", "127.0.0.1"}, v4)
	assert.Equal(t, []string{"::1"}, v6)
}
