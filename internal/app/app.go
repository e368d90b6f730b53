package app

import (
	"github.com/sirupsen/logrus"

	"github.com/ccharon/autorec/config"
	"github.com/ccharon/autorec/internal/audio"
	"github.com/ccharon/autorec/internal/domain/recording/usecases"
)

type App struct {
	Probe       *audio.ActivityProbe
	Session     *usecases.Session
	PostProcess *usecases.PostProcess
	Controller  *usecases.Controller
}

func New(cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runner := audio.ExecRunner{}

	probe := audio.NewActivityProbe(runner, cfg.TargetApp, cfg.ActivityWindow, log.WithField("component", "probe"))

	session := &usecases.Session{
		Locator:          audio.NewNodeLocator(runner),
		Launcher:         launcher{audio.NewRecorder(cfg.SampleRate, cfg.Channels, cfg.Format)},
		OutputDir:        cfg.OutputDir,
		TargetApp:        cfg.TargetApp,
		TargetMediaClass: cfg.TargetMediaClass,
		StopTimeout:      cfg.StopTimeout,
		Log:              log.WithField("component", "session"),
	}

	postProcess := &usecases.PostProcess{
		Normalizer: audio.NewNormalizer(runner, audio.LoudnessTarget{
			I:   cfg.Loudnorm.I,
			TP:  cfg.Loudnorm.TP,
			LRA: cfg.Loudnorm.LRA,
		}),
		Encoder:   audio.NewEncoder(runner, cfg.MP3Bitrate),
		Normalize: cfg.Normalize,
		Inspect:   audio.InspectWAV,
		Log:       log.WithField("component", "postprocess"),
	}

	controller := &usecases.Controller{
		Activity:     probe,
		Session:      session,
		PostProcess:  postProcess,
		PollInterval: cfg.PollInterval,
		Log:          log.WithField("component", "controller"),
	}

	return &App{
		Probe:       probe,
		Session:     session,
		PostProcess: postProcess,
		Controller:  controller,
	}, nil
}

// launcher adapts audio.Recorder to usecases.Launcher.
type launcher struct {
	rec *audio.Recorder
}

func (l launcher) Launch(nodeID int, path string) (usecases.Capture, error) {
	c, err := l.rec.Start(nodeID, path)
	if err != nil {
		return nil, err
	}
	return c, nil
}
