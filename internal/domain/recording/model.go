package recording

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// State is the controller's view of the recorder.
type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// Active describes a capture that is currently running.
type Active struct {
	ID        uuid.UUID
	Path      string
	NodeID    int
	StartedAt time.Time
}

// FinishedRecording is a capture whose process has exited. It is handed to
// post-processing exactly once.
type FinishedRecording struct {
	ID        uuid.UUID
	Path      string
	StartedAt time.Time
	StoppedAt time.Time
}

func (f FinishedRecording) Duration() time.Duration {
	return f.StoppedAt.Sub(f.StartedAt)
}

// NormalizedPath is the intermediate loudness-adjusted file for a recording, e.g. 001.norm.wav.
func NormalizedPath(path string) string {
	return basePath(path) + ".norm.wav"
}

// EncodedPath is the compressed output for a recording, e.g. 001.mp3.
func EncodedPath(path string) string {
	return basePath(path) + ".mp3"
}

func basePath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
