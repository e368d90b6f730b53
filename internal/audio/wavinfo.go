package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// WAVInfo summarizes a WAV file header.
type WAVInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// InspectWAV reads the header of a WAV file.
func InspectWAV(path string) (*WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid WAV file", path)
	}

	dur, err := d.Duration()
	if err != nil {
		return nil, fmt.Errorf("reading duration of %s: %w", path, err)
	}

	return &WAVInfo{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
		Duration:   dur,
	}, nil
}
