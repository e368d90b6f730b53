package usecases

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/ccharon/autorec/internal/audio"
	"github.com/ccharon/autorec/internal/domain/recording"
)

type fakeLocator struct {
	id    int
	err   error
	calls int
}

func (f *fakeLocator) Locate(_ context.Context, app, classPrefix string) (int, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.id, nil
}

type fakeCapture struct {
	path    string
	stopped bool
	stopErr error
	exited  bool
}

func (c *fakeCapture) Stop(time.Duration) error {
	c.stopped = true
	return c.stopErr
}

func (c *fakeCapture) Pid() int { return 4242 }

func (c *fakeCapture) Exited() bool { return c.exited }

// fakeLauncher creates the output file the way pw-record would.
type fakeLauncher struct {
	mu       sync.Mutex
	err      error
	launched []*fakeCapture
	nodes    []int
}

func (l *fakeLauncher) Launch(nodeID int, path string) (Capture, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		return nil, err
	}
	c := &fakeCapture{path: path}
	l.launched = append(l.launched, c)
	l.nodes = append(l.nodes, nodeID)
	return c, nil
}

func (l *fakeLauncher) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.launched)
}

type fakeActivity struct {
	mu     sync.Mutex
	active bool
}

func (a *fakeActivity) set(v bool) {
	a.mu.Lock()
	a.active = v
	a.mu.Unlock()
}

func (a *fakeActivity) IsActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

type fakeDispatcher struct {
	mu        sync.Mutex
	submitted []recording.FinishedRecording
}

func (d *fakeDispatcher) Submit(rec recording.FinishedRecording) {
	d.mu.Lock()
	d.submitted = append(d.submitted, rec)
	d.mu.Unlock()
}

func (d *fakeDispatcher) paths() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, r := range d.submitted {
		out = append(out, r.Path)
	}
	return out
}

type fakeNormalizer struct {
	err    error
	create bool
	inputs []string
}

func (n *fakeNormalizer) Normalize(_ context.Context, in, out string) (*audio.LoudnessReport, error) {
	n.inputs = append(n.inputs, in)
	if n.create {
		if err := os.WriteFile(out, []byte("normalized"), 0o644); err != nil {
			return nil, err
		}
	}
	if n.err != nil {
		return nil, n.err
	}
	return &audio.LoudnessReport{
		Stats:      audio.LoudnormStats{InputI: "-19.5", InputTP: "-4.1", OutputI: "-14.0", OutputTP: "-2.0"},
		Assessment: audio.Assessment{Grade: audio.GradeGood, Note: "Normalization within target range"},
	}, nil
}

type fakeEncoder struct {
	mu     sync.Mutex
	err    error
	inputs []string
	// block, when set, holds Encode until it is closed
	block chan struct{}
}

func (e *fakeEncoder) Encode(_ context.Context, in, out string) error {
	if e.block != nil {
		<-e.block
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inputs = append(e.inputs, in)
	if e.err != nil {
		return e.err
	}
	return os.WriteFile(out, []byte("mp3"), 0o644)
}

func (e *fakeEncoder) encoded() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.inputs...)
}

var errBoom = errors.New("boom")
