package audio

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	appNameDouble = regexp.MustCompile(`application\.name\s*=\s*"(.*?)"`)
	appNameSingle = regexp.MustCompile(`application\.name\s*=\s*'(.*?)'`)
)

// ActivityProbe samples `pactl list sink-inputs` on a fixed period and caches
// whether the target application's stream is playing.
type ActivityProbe struct {
	Runner    Runner
	TargetApp string
	Window    time.Duration
	Log       logrus.FieldLogger

	active atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// Sample may run from Run and from callers at the same time.
	failing atomic.Bool
}

func NewActivityProbe(runner Runner, targetApp string, window time.Duration, log logrus.FieldLogger) *ActivityProbe {
	return &ActivityProbe{
		Runner:    runner,
		TargetApp: targetApp,
		Window:    window,
		Log:       log,
	}
}

// IsActive returns the last sampled state. It is false until the first sample completes.
func (p *ActivityProbe) IsActive() bool {
	return p.active.Load()
}

// Start runs the sampling loop in the background. Calling Start twice is a no-op.
func (p *ActivityProbe) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		p.Run(ctx)
	}(p.done)
}

// Stop asks the background loop to exit and waits for it.
func (p *ActivityProbe) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run samples until ctx is done. It always returns nil.
func (p *ActivityProbe) Run(ctx context.Context) error {
	p.active.Store(false)

	ticker := time.NewTicker(p.Window)
	defer ticker.Stop()

	for {
		p.active.Store(p.Sample(ctx))

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Sample queries pactl once. Any failure counts as inactive.
func (p *ActivityProbe) Sample(ctx context.Context) bool {
	stdout, _, err := p.Runner.Run(ctx, "pactl", "list", "sink-inputs")
	if err != nil {
		if ctx.Err() == nil {
			p.reportFailure(err)
		}
		return false
	}
	p.clearFailure()

	active := SinkInputActive(string(stdout), p.TargetApp)
	if active != p.active.Load() {
		p.Log.WithField("app", p.TargetApp).WithField("active", active).Debug("activity changed")
	}
	return active
}

// Only the first failure of a streak is logged; the loop runs every few milliseconds.
func (p *ActivityProbe) reportFailure(err error) {
	if !p.failing.CompareAndSwap(false, true) {
		return
	}
	p.Log.WithError(err).Warn("activity probe failed, treating stream as inactive")
}

func (p *ActivityProbe) clearFailure() {
	if p.failing.CompareAndSwap(true, false) {
		p.Log.Info("activity probe recovered")
	}
}

// SinkInputActive reports whether the first sink-input block whose
// application.name equals app is uncorked.
func SinkInputActive(output, app string) bool {
	if strings.TrimSpace(output) == "" {
		return false
	}

	for _, block := range strings.Split(output, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		m := appNameDouble.FindStringSubmatch(block)
		if m == nil {
			m = appNameSingle.FindStringSubmatch(block)
		}
		if m == nil {
			continue
		}

		if m[1] == app {
			return strings.Contains(strings.ToLower(block), "corked: no")
		}
	}
	return false
}
