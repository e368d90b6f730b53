package usecases

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ccharon/autorec/internal/audio"
	"github.com/ccharon/autorec/internal/domain/recording"
)

// ErrNotWAV is returned for inputs that are not WAV recordings. Encoding one
// would write the MP3 over its own source.
var ErrNotWAV = errors.New("not a WAV recording")

// Normalizer writes a loudness-adjusted copy of in to out.
type Normalizer interface {
	Normalize(ctx context.Context, in, out string) (*audio.LoudnessReport, error)
}

// Encoder compresses in to out.
type Encoder interface {
	Encode(ctx context.Context, in, out string) error
}

// ProcessResult describes what post-processing produced for one recording.
type ProcessResult struct {
	Source  string // file handed to the encoder
	Encoded string
	Report  *audio.LoudnessReport // nil when normalization was skipped or failed
}

// PostProcess normalizes and encodes finished recordings. The original
// recording is never removed.
type PostProcess struct {
	Normalizer Normalizer
	Encoder    Encoder
	Normalize  bool
	Inspect    func(path string) (*audio.WAVInfo, error)
	Log        logrus.FieldLogger

	wg      sync.WaitGroup
	pending atomic.Int32
}

// Submit processes rec in the background and returns immediately.
func (p *PostProcess) Submit(rec recording.FinishedRecording) {
	p.wg.Add(1)
	p.pending.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.pending.Add(-1)

		log := p.Log.WithField("session", rec.ID)
		res, err := p.process(context.Background(), rec.Path, log)
		if err != nil {
			log.WithError(err).Warn("post-processing failed, original recording kept")
			return
		}
		log.WithField("file", res.Encoded).Info("post-processing finished")
	}()
}

// Pending returns the number of submitted recordings still being processed.
func (p *PostProcess) Pending() int {
	return int(p.pending.Load())
}

// Process runs post-processing synchronously.
func (p *PostProcess) Process(ctx context.Context, path string) (*ProcessResult, error) {
	return p.process(ctx, path, p.Log.WithField("file", path))
}

// Wait blocks until all submitted recordings are processed or ctx is done.
func (p *PostProcess) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *PostProcess) process(ctx context.Context, path string, log logrus.FieldLogger) (*ProcessResult, error) {
	if !strings.EqualFold(filepath.Ext(path), ".wav") || recording.EncodedPath(path) == path {
		return nil, fmt.Errorf("%s: %w", path, ErrNotWAV)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("recording not found: %w", err)
	}

	if p.Inspect != nil {
		if info, err := p.Inspect(path); err != nil {
			log.WithError(err).Warn("cannot read WAV header")
		} else {
			log.WithFields(logrus.Fields{
				"duration": info.Duration.Round(time.Millisecond),
				"rate":     info.SampleRate,
				"channels": info.Channels,
				"bits":     info.BitDepth,
			}).Debug("recording info")
		}
	}

	res := &ProcessResult{Source: path, Encoded: recording.EncodedPath(path)}
	normPath := recording.NormalizedPath(path)
	if normPath != path {
		defer removeIntermediate(normPath, log)
	}

	if p.Normalize && p.Normalizer != nil && normPath != path {
		report, err := p.Normalizer.Normalize(ctx, path, normPath)
		if err != nil {
			entry := log.WithError(err)
			var merr *audio.MeasurementError
			if errors.As(err, &merr) {
				entry.WithField("output", merr.Output).Debug("loudnorm pass 1 output")
			}
			entry.Warn("normalization failed, using original recording")
		} else {
			res.Source = normPath
			res.Report = report
			s := report.Stats
			log.WithFields(logrus.Fields{
				"input_i":   s.InputI,
				"input_tp":  s.InputTP,
				"output_i":  s.OutputI,
				"output_tp": s.OutputTP,
			}).Infof("normalized %s (%s)", report.Assessment.Grade, report.Assessment.Note)
		}
	}

	if err := p.Encoder.Encode(ctx, res.Source, res.Encoded); err != nil {
		return nil, err
	}
	return res, nil
}

func removeIntermediate(path string, log logrus.FieldLogger) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("cannot remove intermediate file")
	}
}
