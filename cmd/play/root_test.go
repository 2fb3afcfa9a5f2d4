package play

import (
	"testing"

	"github.com/ValentinKolb/dTetris/lib/tetris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActions(t *testing.T) {
	actions, err := parseActions("left, rotate,,hard-drop")
	require.NoError(t, err)
	assert.Equal(t, []tetris.Action{tetris.MoveLeft, tetris.RotateCW, tetris.HardDrop}, actions)

	_, err = parseActions("left,jump")
	assert.ErrorIs(t, err, tetris.ErrUnknownAction)

	_, err = parseActions(" , ")
	assert.Error(t, err)
}
