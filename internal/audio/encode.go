package audio

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Encoder converts WAV to constant bitrate MP3 with lame.
type Encoder struct {
	Runner  Runner
	Bitrate int
}

func NewEncoder(runner Runner, bitrate int) *Encoder {
	return &Encoder{Runner: runner, Bitrate: bitrate}
}

func (e *Encoder) Encode(ctx context.Context, in, out string) error {
	_, stderr, err := e.Runner.Run(ctx, "lame",
		"--quiet", "--cbr",
		"-b", strconv.Itoa(e.Bitrate),
		"-q", "0",
		"-m", "j",
		"--resample", "44.1",
		in, out,
	)
	if err != nil {
		if msg := strings.TrimSpace(string(stderr)); msg != "" {
			return fmt.Errorf("encoding %s: %w: %s", in, err, msg)
		}
		return fmt.Errorf("encoding %s: %w", in, err)
	}
	return nil
}
