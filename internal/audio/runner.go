package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

var (
	// ErrToolNotFound is returned when an external program is not in PATH.
	ErrToolNotFound = errors.New("tool not found")
	// ErrNoNode is returned when no PipeWire node matches the target stream.
	ErrNoNode = errors.New("no matching node")
	// ErrMeasurement is returned when loudnorm measurement output is missing or invalid.
	ErrMeasurement = errors.New("invalid loudness measurement")
)

// Runner executes an external program and collects its output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs programs with LC_ALL=C so their output is parseable.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = cEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", name, ErrToolNotFound)
		}
		return stdout.Bytes(), stderr.Bytes(), fmt.Errorf("running %s: %w", name, err)
	}
	return stdout.Bytes(), stderr.Bytes(), nil
}

// CheckTools reports which of the given programs are missing from PATH.
func CheckTools(names ...string) map[string]error {
	missing := make(map[string]error)
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			missing[name] = fmt.Errorf("%s: %w", name, ErrToolNotFound)
		}
	}
	return missing
}

func cEnv() []string {
	return append(os.Environ(), "LC_ALL=C")
}
