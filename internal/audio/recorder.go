package audio

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// Recorder launches pw-record against a PipeWire node.
type Recorder struct {
	Program    string
	SampleRate string
	Channels   string
	Format     string
}

func NewRecorder(sampleRate, channels, format string) *Recorder {
	return &Recorder{
		Program:    "pw-record",
		SampleRate: sampleRate,
		Channels:   channels,
		Format:     format,
	}
}

// Capture is a running pw-record process.
type Capture struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// Start launches the capture process. It does not wait for it.
func (r *Recorder) Start(nodeID int, outputPath string) (*Capture, error) {
	cmd := exec.Command(r.Program, r.args(nodeID, outputPath)...)
	cmd.Env = cEnv()

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", r.Program, ErrToolNotFound)
		}
		return nil, fmt.Errorf("starting %s: %w", r.Program, err)
	}

	c := &Capture{cmd: cmd, done: make(chan struct{})}
	go func() {
		c.err = cmd.Wait()
		close(c.done)
	}()
	return c, nil
}

func (r *Recorder) args(nodeID int, outputPath string) []string {
	return []string{
		"--target", strconv.Itoa(nodeID),
		"--rate", r.SampleRate,
		"--channels", r.Channels,
		"--format", r.Format,
		outputPath,
	}
}

// Pid returns the process id of the capture.
func (c *Capture) Pid() int {
	return c.cmd.Process.Pid
}

// Exited reports whether the process has ended, with or without Stop.
func (c *Capture) Exited() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Stop interrupts the capture so it can finalize the WAV header, waits up to
// timeout, then kills it. The returned error is the process exit status.
func (c *Capture) Stop(timeout time.Duration) error {
	select {
	case <-c.done:
		return c.err
	default:
	}

	_ = c.cmd.Process.Signal(os.Interrupt)

	select {
	case <-c.done:
		return exitErr(c.err)
	case <-time.After(timeout):
	}

	_ = c.cmd.Process.Kill()
	<-c.done
	return fmt.Errorf("process %d did not exit within %s, killed", c.cmd.Process.Pid, timeout)
}

// Exiting on the interrupt we sent is the normal way for pw-record to stop.
func exitErr(err error) error {
	var ee *exec.ExitError
	if errors.As(err, &ee) && !ee.Exited() {
		return nil
	}
	return err
}
