package tetris

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoardIsDeterministic(t *testing.T) {
	a, b := NewBoard(42), NewBoard(42)
	for i := 0; i < 30; i++ {
		require.Equal(t, a.Snapshot(), b.Snapshot(), "diverged after %d drops", i)
		_, errA := a.Apply(HardDrop)
		_, errB := b.Apply(HardDrop)
		require.Equal(t, errA, errB)
		if errA != nil {
			break
		}
	}
}

func TestBagContainsEveryKindOnce(t *testing.T) {
	b := NewBoard(7)
	seen := map[Kind]int{b.active.Kind: 1}
	for i := 0; i < 6; i++ {
		b.spawn()
		seen[b.active.Kind]++
	}
	assert.Len(t, seen, 7)
	for k, n := range seen {
		assert.Equal(t, 1, n, "kind %s", k)
	}
}

func TestMovesStopAtWalls(t *testing.T) {
	b := NewBoard(1)
	for i := 0; i < Width; i++ {
		_, err := b.Apply(MoveLeft)
		require.NoError(t, err)
	}
	minX := Width
	for _, c := range b.active.Cells() {
		minX = min(minX, c[0])
	}
	assert.Equal(t, 0, minX)

	// blocked move still counts as an applied input
	rev := b.Revision()
	ch, err := b.Apply(MoveLeft)
	require.NoError(t, err)
	assert.False(t, ch.GridChanged)
	assert.Equal(t, rev+1, b.Revision())
}

func TestHardDropLocksAndScores(t *testing.T) {
	b := NewBoard(3)
	before := b.Snapshot()

	ch, err := b.Apply(HardDrop)
	require.NoError(t, err)
	assert.True(t, ch.Locked)
	assert.True(t, ch.GridChanged)
	assert.Zero(t, ch.LinesCleared)

	after := b.Snapshot()
	assert.NotEqual(t, before.Cells, after.Cells)
	assert.Greater(t, after.Score, before.Score)
	assert.Equal(t, before.Next, after.Piece.Kind)

	filled := 0
	for _, c := range after.Cells {
		if Kind(c) != None {
			filled++
		}
	}
	assert.Equal(t, 4, filled)
}

func TestSoftDropScoresPerRow(t *testing.T) {
	b := NewBoard(5)
	ch, err := b.Apply(SoftDrop)
	require.NoError(t, err)
	assert.False(t, ch.Locked)
	assert.Equal(t, uint64(1), b.Score())
	assert.Equal(t, int32(1), b.Active().Y)
}

func TestLineClear(t *testing.T) {
	b := NewBoard(11)
	b.active = Piece{Kind: I, X: 0, Y: 0}
	// bottom row full except the four right-most cells, which the I piece fills
	for x := 0; x < Width-4; x++ {
		b.cells[Height-1][x] = O
	}
	// a marker above that must shift down by one row
	b.cells[Height-2][0] = T

	for i := 0; i < Width; i++ {
		_, err := b.Apply(MoveRight)
		require.NoError(t, err)
	}
	ch, err := b.Apply(HardDrop)
	require.NoError(t, err)
	assert.Equal(t, 1, ch.LinesCleared)

	s := b.Snapshot()
	assert.Equal(t, uint32(1), s.Lines)
	assert.Equal(t, T, s.Cell(0, Height-1))
	for x := 1; x < Width; x++ {
		assert.Equal(t, None, s.Cell(x, Height-1))
	}
}

func TestGameOver(t *testing.T) {
	b := NewBoard(9)
	var err error
	for i := 0; i < Height*Width; i++ {
		if _, err = b.Apply(HardDrop); err != nil {
			break
		}
		if b.Over() {
			break
		}
	}
	require.True(t, b.Over())
	assert.True(t, b.Snapshot().GameOver)

	rev := b.Revision()
	_, err = b.Apply(MoveLeft)
	assert.True(t, errors.Is(err, ErrGameOver))
	assert.Equal(t, rev, b.Revision())
}

func TestSnapshotIsImmutable(t *testing.T) {
	b := NewBoard(13)
	_, err := b.Apply(HardDrop)
	require.NoError(t, err)

	s := b.Snapshot()
	cells := append([]byte(nil), s.Cells...)

	s.Cells[0] = byte(Z)
	assert.Equal(t, None, b.Snapshot().Cell(0, 0))

	s.Cells[0] = 0
	_, err = b.Apply(HardDrop)
	require.NoError(t, err)
	assert.Equal(t, cells, s.Cells)
}

func TestPartialSnapshot(t *testing.T) {
	s := NewBoard(2).Snapshot()
	p := s.Partial()
	assert.True(t, p.IsPartial())
	assert.False(t, s.IsPartial())
	assert.Equal(t, s.Piece, p.Piece)
	assert.Equal(t, s.Revision, p.Revision)
}

func TestRotationRoundTrip(t *testing.T) {
	b := NewBoard(4)
	_, _ = b.Apply(SoftDrop)
	_, _ = b.Apply(SoftDrop)
	start := b.Active()
	for _, a := range []Action{RotateCW, RotateCCW} {
		_, err := b.Apply(a)
		require.NoError(t, err)
	}
	assert.Equal(t, start.Cells(), b.Active().Cells())
}

func TestUnknownAction(t *testing.T) {
	b := NewBoard(1)
	_, err := b.Apply(Action(99))
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.Zero(t, b.Revision())
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		in      string
		want    Action
		wantErr bool
	}{
		{"move-left", MoveLeft, false},
		{"LEFT", MoveLeft, false},
		{"right", MoveRight, false},
		{"rotate-cw", RotateCW, false},
		{"rotate-ccw", RotateCCW, false},
		{" soft-drop ", SoftDrop, false},
		{"hard-drop", HardDrop, false},
		{"jump", ActionNone, true},
		{"", ActionNone, true},
	}
	for _, tt := range tests {
		got, err := ParseAction(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownAction, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.want, mustParse(t, got.String()))
	}
}

func mustParse(t *testing.T, s string) Action {
	t.Helper()
	a, err := ParseAction(s)
	require.NoError(t, err)
	return a
}
