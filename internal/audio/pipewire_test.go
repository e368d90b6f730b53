package audio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pwDump = `[
  {"id": 30, "type": "PipeWire:Interface:Node", "info": {"props": {"application.name": "Firefox", "media.class": "Stream/Output/Audio", "node.name": "Firefox"}}},
  {"id": 58, "type": "PipeWire:Interface:Node", "info": {"props": {"application.name": "Firefox", "media.class": "Stream/Output/Audio", "node.name": "Firefox"}}},
  {"id": 61, "type": "PipeWire:Interface:Node", "info": {"props": {"application.name": "Firefox", "media.class": "Stream/Input/Audio"}}},
  {"id": 77, "type": "PipeWire:Interface:Port", "info": {"props": {"application.name": "Firefox", "media.class": "Stream/Output/Audio"}}},
  {"id": 80, "type": "PipeWire:Interface:Node", "info": {"props": {"application.name": "mpv", "media.class": "Stream/Output/Audio"}}},
  {"id": 2, "type": "PipeWire:Interface:Core", "info": null}
]`

func TestSelectNode(t *testing.T) {
	tests := []struct {
		name   string
		app    string
		prefix string
		want   int
	}{
		{"highest matching id", "Firefox", "Stream/Output/Audio", 58},
		{"prefix match", "Firefox", "Stream/", 61},
		{"other app", "mpv", "Stream/Output", 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := SelectNode([]byte(pwDump), tt.app, tt.prefix)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestSelectNodeNoMatch(t *testing.T) {
	_, err := SelectNode([]byte(pwDump), "Spotify", "Stream/Output/Audio")
	assert.ErrorIs(t, err, ErrNoNode)
}

func TestSelectNodeMalformed(t *testing.T) {
	_, err := SelectNode([]byte(`{"not": "an array"`), "Firefox", "Stream/")
	assert.Error(t, err)
}

func TestNodeLocatorLocate(t *testing.T) {
	runner := newFakeRunner().on("pw-dump", response{stdout: pwDump})

	id, err := NewNodeLocator(runner).Locate(context.Background(), "Firefox", "Stream/Output/Audio")
	require.NoError(t, err)
	assert.Equal(t, 58, id)
}

func TestNodeLocatorToolFailure(t *testing.T) {
	runner := newFakeRunner().on("pw-dump", response{err: errors.New("exit status 1")})

	_, err := NewNodeLocator(runner).Locate(context.Background(), "Firefox", "Stream/Output/Audio")
	assert.Error(t, err)
}

func TestNodeLocatorEmptyOutput(t *testing.T) {
	runner := newFakeRunner().on("pw-dump", response{stdout: "\n"})

	_, err := NewNodeLocator(runner).Locate(context.Background(), "Firefox", "Stream/Output/Audio")
	assert.ErrorIs(t, err, ErrNoNode)
}
