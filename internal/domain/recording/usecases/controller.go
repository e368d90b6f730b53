package usecases

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ccharon/autorec/internal/domain/recording"
)

// ActivitySource reports whether the target stream is producing audio.
type ActivitySource interface {
	IsActive() bool
}

// Recorder is the session as seen by the controller.
type Recorder interface {
	Start(ctx context.Context) (recording.Active, bool)
	Stop() (recording.FinishedRecording, bool)
	Active() bool
	Exited() bool
}

// Dispatcher accepts finished recordings without blocking.
type Dispatcher interface {
	Submit(rec recording.FinishedRecording)
}

// Controller starts a recording while the target stream is active and stops
// it, handing the file to post-processing, once the stream goes quiet.
type Controller struct {
	Activity     ActivitySource
	Session      Recorder
	PostProcess  Dispatcher
	PollInterval time.Duration
	Log          logrus.FieldLogger
}

// State reports whether a recording is in progress.
func (c *Controller) State() recording.State {
	if c.Session.Active() {
		return recording.Recording
	}
	return recording.Idle
}

// Tick performs one transition based on the cached activity flag. A capture
// whose process died is collected first; a new one starts on the next tick.
func (c *Controller) Tick(ctx context.Context) {
	if c.Session.Exited() {
		c.Log.Warn("capture process exited while recording")
		c.stop()
		return
	}
	if c.Activity.IsActive() {
		c.Session.Start(ctx)
		return
	}
	c.stop()
}

// Run ticks until ctx is done, then stops any running capture and dispatches
// what it recorded so far.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.Shutdown()
			return nil
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Shutdown stops a running capture regardless of activity.
func (c *Controller) Shutdown() {
	if c.Session.Active() {
		c.Log.Info("stopping active recording for shutdown")
	}
	c.stop()
}

func (c *Controller) stop() {
	finished, ok := c.Session.Stop()
	if !ok {
		return
	}
	if _, err := os.Stat(finished.Path); err != nil {
		c.Log.WithField("session", finished.ID).WithError(err).Warn("recording file missing, nothing to post-process")
		return
	}
	c.PostProcess.Submit(finished)
}
