package usecases

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ccharon/autorec/internal/domain/recording"
)

// NodeLocator resolves the PipeWire node of the target stream.
type NodeLocator interface {
	Locate(ctx context.Context, app, classPrefix string) (int, error)
}

// Capture is a running capture process.
type Capture interface {
	Stop(timeout time.Duration) error
	Pid() int
	Exited() bool
}

// Launcher starts a capture of nodeID into path.
type Launcher interface {
	Launch(nodeID int, path string) (Capture, error)
}

// Session owns at most one running capture and assigns sequential file names.
type Session struct {
	Locator          NodeLocator
	Launcher         Launcher
	OutputDir        string
	TargetApp        string
	TargetMediaClass string
	StopTimeout      time.Duration
	Log              logrus.FieldLogger
	Now              func() time.Time

	counter int
	capture Capture
	current recording.Active

	// last start failure, so a missing node is reported once rather than every tick
	lastErr string
}

// Active reports whether a capture is running.
func (s *Session) Active() bool {
	return s.capture != nil
}

// Exited reports whether the capture process ended on its own. The session
// still holds it until Stop collects the recording.
func (s *Session) Exited() bool {
	return s.capture != nil && s.capture.Exited()
}

// Start launches a capture unless one is already running. It returns false
// when nothing new was started; the caller retries on a later tick.
func (s *Session) Start(ctx context.Context) (recording.Active, bool) {
	if s.capture != nil {
		return recording.Active{}, false
	}

	nodeID, err := s.Locator.Locate(ctx, s.TargetApp, s.TargetMediaClass)
	if err != nil {
		s.startFailed("target node not available", err)
		return recording.Active{}, false
	}

	path, err := s.nextFilename()
	if err != nil {
		s.startFailed("cannot assign output file", err)
		return recording.Active{}, false
	}

	capture, err := s.Launcher.Launch(nodeID, path)
	if err != nil {
		s.startFailed("cannot start capture", err)
		return recording.Active{}, false
	}
	s.lastErr = ""

	s.capture = capture
	s.current = recording.Active{
		ID:        uuid.New(),
		Path:      path,
		NodeID:    nodeID,
		StartedAt: s.now(),
	}

	s.Log.WithFields(logrus.Fields{
		"session": s.current.ID,
		"node":    nodeID,
		"pid":     capture.Pid(),
		"file":    path,
	}).Info("recording started")

	return s.current, true
}

// Stop ends the running capture and returns the finished recording. It
// returns false when no capture was running.
func (s *Session) Stop() (recording.FinishedRecording, bool) {
	if s.capture == nil {
		return recording.FinishedRecording{}, false
	}

	log := s.Log.WithField("session", s.current.ID)
	if err := s.capture.Stop(s.StopTimeout); err != nil {
		log.WithError(err).Warn("capture did not exit cleanly")
	}

	finished := recording.FinishedRecording{
		ID:        s.current.ID,
		Path:      s.current.Path,
		StartedAt: s.current.StartedAt,
		StoppedAt: s.now(),
	}
	s.capture = nil
	s.current = recording.Active{}

	log.WithField("file", finished.Path).
		WithField("duration", finished.Duration().Round(time.Millisecond)).
		Info("recording stopped")

	return finished, true
}

// nextFilename claims the first counter value with no file named NNN.* in
// the output directory. The counter stays on the claimed value.
func (s *Session) nextFilename() (string, error) {
	entries, err := os.ReadDir(s.OutputDir)
	if err != nil {
		return "", fmt.Errorf("reading output directory: %w", err)
	}

	taken := make(map[string]bool, len(entries))
	for _, e := range entries {
		name := e.Name()
		if i := strings.IndexByte(name, '.'); i > 0 {
			taken[name[:i]] = true
		}
	}

	if s.counter < 1 {
		s.counter = 1
	}
	for taken[sequenceName(s.counter)] {
		s.counter++
	}
	return filepath.Join(s.OutputDir, sequenceName(s.counter)+".wav"), nil
}

func (s *Session) startFailed(msg string, err error) {
	if err.Error() == s.lastErr {
		return
	}
	s.lastErr = err.Error()
	s.Log.WithError(err).Warn(msg)
}

func (s *Session) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func sequenceName(n int) string {
	return fmt.Sprintf("%03d", n)
}
