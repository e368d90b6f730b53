package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sinkInputs = `Sink Input #71
	Driver: PipeWire
	Owner Module: n/a
	Client: 55
	Sink: 47
	Corked: yes
	Mute: no
	Properties:
		application.name = "mpv"
		media.name = "song.flac"

Sink Input #84
	Driver: PipeWire
	Client: 60
	Sink: 47
	Corked: no
	Mute: no
	Properties:
		application.name = "Firefox"
		media.name = "Playback"
`

func TestSinkInputActive(t *testing.T) {
	tests := []struct {
		name   string
		output string
		app    string
		want   bool
	}{
		{"uncorked target", sinkInputs, "Firefox", true},
		{"corked other app", sinkInputs, "mpv", false},
		{"absent app", sinkInputs, "Spotify", false},
		{"empty output", "   \n", "Firefox", false},
		{"single quotes", "Sink Input #1\n\tCorked: no\n\tapplication.name = 'Firefox'\n", "Firefox", true},
		{"case insensitive marker", "Sink Input #1\n\tCORKED: NO\n\tapplication.name = \"Firefox\"\n", "Firefox", true},
		{"prefix is not a match", "Sink Input #1\n\tCorked: no\n\tapplication.name = \"Firefox Nightly\"\n", "Firefox", false},
		{"first matching block wins", "application.name = \"Firefox\"\nCorked: yes\n\napplication.name = \"Firefox\"\nCorked: no\n", "Firefox", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SinkInputActive(tt.output, tt.app))
		})
	}
}

func TestActivityProbeSample(t *testing.T) {
	log, hook := test.NewNullLogger()
	runner := newFakeRunner().
		on("pactl", response{stdout: sinkInputs})

	p := NewActivityProbe(runner, "Firefox", time.Millisecond, log)

	assert.True(t, p.Sample(context.Background()))
	assert.Equal(t, "list sink-inputs", runner.argsOf(0))
	assert.Empty(t, hook.AllEntries())
}

func TestActivityProbeFailureIsInactive(t *testing.T) {
	log, hook := test.NewNullLogger()
	runner := newFakeRunner().
		on("pactl", response{err: errors.New("connection refused")})

	p := NewActivityProbe(runner, "Firefox", time.Millisecond, log)

	assert.False(t, p.Sample(context.Background()))
	assert.False(t, p.Sample(context.Background()))

	// only the first failure of a streak is logged
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestActivityProbeStartStop(t *testing.T) {
	log, _ := test.NewNullLogger()
	runner := newFakeRunner().
		on("pactl", response{stdout: sinkInputs})

	p := NewActivityProbe(runner, "Firefox", time.Millisecond, log)
	assert.False(t, p.IsActive())

	p.Start()
	p.Start()
	require.Eventually(t, p.IsActive, time.Second, time.Millisecond)

	p.Stop()
	p.Stop()
}

func TestActivityProbeSampleWhileRunning(t *testing.T) {
	log, hook := test.NewNullLogger()
	runner := newFakeRunner().
		on("pactl", response{err: errors.New("connection refused")})

	p := NewActivityProbe(runner, "Firefox", time.Millisecond, log)
	p.Start()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.False(t, p.Sample(context.Background()))
		}()
	}
	wg.Wait()
	p.Stop()

	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 1, warnings)
}
