package common

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ValentinKolb/dTetris/lib/tetris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePort(t *testing.T) {
	tests := []struct {
		input   string
		want    uint16
		wantErr bool
	}{
		{"", DefaultPort, true},
		{"abc", DefaultPort, true},
		{"0", DefaultPort, true},
		{"-1", DefaultPort, true},
		{"65536", DefaultPort, true},
		{"99999", DefaultPort, true},
		{"1", 1, false},
		{" 9000 ", 9000, false},
		{"65535", 65535, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ResolvePort(tt.input)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidPort))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestServerConfigEndpoint(t *testing.T) {
	c := ServerConfig{Transport: "tcp", Host: "127.0.0.1", Port: 7777}
	assert.Equal(t, "127.0.0.1:7777", c.Endpoint())
	assert.Equal(t, uint32(DefaultMaxFrameSize), c.FrameLimit())
	assert.Contains(t, c.String(), "disabled")

	c = ServerConfig{Transport: "unix", SocketPath: "/tmp/dtetris.sock", MaxFrameSize: 128}
	assert.Equal(t, "/tmp/dtetris.sock", c.Endpoint())
	assert.Equal(t, uint32(128), c.FrameLimit())
}

func TestParseLogLevel(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "warning", "error", "INFO", ""} {
		_, err := ParseLogLevel(lvl)
		assert.NoError(t, err, lvl)
	}
	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestMessageTypeJSON(t *testing.T) {
	for typ := MsgTError; typ <= MsgTTerminal; typ++ {
		b, err := json.Marshal(typ)
		require.NoError(t, err)
		assert.Equal(t, `"`+typ.String()+`"`, string(b))

		var back MessageType
		require.NoError(t, json.Unmarshal(b, &back))
		assert.Equal(t, typ, back)
	}

	var typ MessageType
	assert.Error(t, json.Unmarshal([]byte(`"set"`), &typ))
}

func TestNewSnapshotMessage(t *testing.T) {
	s := tetris.NewBoard(1).Snapshot()

	full := NewSnapshotMessage(1, s)
	assert.Equal(t, MsgTSnapshot, full.MsgType)
	assert.Equal(t, int32(1), full.Index)

	partial := NewSnapshotMessage(0, s.Partial())
	assert.Equal(t, MsgTSnapshotPartial, partial.MsgType)
	assert.Nil(t, partial.Snapshot.Cells)
}
