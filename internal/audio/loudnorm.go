package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// LoudnormStats holds the JSON block printed by ffmpeg's loudnorm filter.
type LoudnormStats struct {
	InputI       string `json:"input_i"`
	InputTP      string `json:"input_tp"`
	InputLRA     string `json:"input_lra"`
	InputThresh  string `json:"input_thresh"`
	OutputI      string `json:"output_i"`
	OutputTP     string `json:"output_tp"`
	OutputLRA    string `json:"output_lra"`
	OutputThresh string `json:"output_thresh"`
	TargetOffset string `json:"target_offset"`
}

// LoudnessTarget is the integrated loudness, true peak and loudness range to aim for.
type LoudnessTarget struct {
	I   float64
	TP  float64
	LRA float64
}

func (t LoudnessTarget) filter() string {
	return "loudnorm=I=" + formatFloat(t.I) + ":TP=" + formatFloat(t.TP) + ":LRA=" + formatFloat(t.LRA)
}

// Grade is the outcome of a loudness assessment.
type Grade int

const (
	GradeUnknown Grade = iota
	GradeGood
	GradeNotable
	GradeCritical
)

func (g Grade) String() string {
	switch g {
	case GradeGood:
		return ":-)"
	case GradeNotable, GradeUnknown:
		return ":-|"
	case GradeCritical:
		return ":-("
	}
	return "?"
}

// Assessment is a short verdict on a measurement.
type Assessment struct {
	Grade Grade
	Note  string
}

// LoudnessReport describes a completed normalization.
type LoudnessReport struct {
	Stats      LoudnormStats
	Assessment Assessment
}

// Normalizer runs two-pass ffmpeg loudnorm.
type Normalizer struct {
	Runner Runner
	Target LoudnessTarget
}

func NewNormalizer(runner Runner, target LoudnessTarget) *Normalizer {
	return &Normalizer{Runner: runner, Target: target}
}

// Normalize measures in, then writes a loudness-adjusted copy to out. On any
// error out should be treated as unusable.
func (n *Normalizer) Normalize(ctx context.Context, in, out string) (*LoudnessReport, error) {
	stdout, stderr, err := n.Runner.Run(ctx, "ffmpeg",
		"-y", "-hide_banner", "-nostats", "-loglevel", "info",
		"-i", in,
		"-af", n.Target.filter()+":print_format=json",
		"-f", "null", "-",
	)
	if errors.Is(err, ErrToolNotFound) {
		return nil, err
	}
	// ffmpeg prints the loudnorm block on stderr; a non-zero exit may still carry it.
	combined := string(stderr) + string(stdout)

	stats, perr := ExtractLoudnormStats(combined)
	if perr != nil {
		if err != nil {
			perr = fmt.Errorf("%w (%v)", perr, err)
		}
		return nil, &MeasurementError{Err: perr, Output: combined}
	}
	if err := stats.validate(); err != nil {
		return nil, &MeasurementError{Err: err, Output: combined}
	}

	report := &LoudnessReport{Stats: *stats, Assessment: Assess(stats, n.Target.I)}

	_, stderr, err = n.Runner.Run(ctx, "ffmpeg",
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", in,
		"-af", n.pass2Filter(stats),
		"-ar", "44100", "-ac", "2", "-c:a", "pcm_s24le",
		out,
	)
	if err != nil {
		return report, fmt.Errorf("loudnorm pass 2: %w: %s", err, strings.TrimSpace(string(stderr)))
	}
	if _, err := os.Stat(out); err != nil {
		return report, fmt.Errorf("loudnorm pass 2 produced no output: %w", err)
	}

	return report, nil
}

func (n *Normalizer) pass2Filter(s *LoudnormStats) string {
	return n.Target.filter() +
		":measured_I=" + s.InputI +
		":measured_TP=" + s.InputTP +
		":measured_LRA=" + s.InputLRA +
		":measured_thresh=" + s.InputThresh +
		":offset=" + s.TargetOffset +
		":print_format=summary"
}

// MeasurementError carries the raw ffmpeg output for diagnostics.
type MeasurementError struct {
	Err    error
	Output string
}

func (e *MeasurementError) Error() string {
	return e.Err.Error()
}

func (e *MeasurementError) Unwrap() error {
	return e.Err
}

// ExtractLoudnormStats decodes the last {...} block in ffmpeg output.
func ExtractLoudnormStats(output string) (*LoudnormStats, error) {
	start := strings.LastIndex(output, "{")
	end := strings.LastIndex(output, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("no loudnorm JSON in output: %w", ErrMeasurement)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(output[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("decoding loudnorm JSON: %w: %w", ErrMeasurement, err)
	}

	field := func(key string) string {
		switch v := raw[key].(type) {
		case string:
			return v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case nil:
			return ""
		default:
			return fmt.Sprint(v)
		}
	}

	required := []string{"input_i", "input_tp", "input_lra", "input_thresh", "target_offset"}
	var missing []string
	for _, key := range required {
		if _, ok := raw[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing keys %s: %w", strings.Join(missing, ", "), ErrMeasurement)
	}

	return &LoudnormStats{
		InputI:       field("input_i"),
		InputTP:      field("input_tp"),
		InputLRA:     field("input_lra"),
		InputThresh:  field("input_thresh"),
		OutputI:      field("output_i"),
		OutputTP:     field("output_tp"),
		OutputLRA:    field("output_lra"),
		OutputThresh: field("output_thresh"),
		TargetOffset: field("target_offset"),
	}, nil
}

// validate checks that every value needed for pass 2 is numeric.
func (s *LoudnormStats) validate() error {
	fields := []struct {
		key string
		val string
	}{
		{"input_i", s.InputI},
		{"input_tp", s.InputTP},
		{"input_lra", s.InputLRA},
		{"input_thresh", s.InputThresh},
		{"target_offset", s.TargetOffset},
	}
	for _, f := range fields {
		if _, err := parseLoudness(f.val); err != nil {
			return fmt.Errorf("invalid value for %s: %q: %w", f.key, f.val, ErrMeasurement)
		}
	}
	return nil
}

// Assess grades a measurement against the integrated loudness target.
func Assess(s *LoudnormStats, targetI float64) Assessment {
	if s == nil {
		return Assessment{GradeUnknown, "Assessment not possible"}
	}

	inI, errInI := parseLoudness(s.InputI)
	inTP, errInTP := parseLoudness(s.InputTP)
	outI, errOutI := parseLoudness(s.OutputI)
	outTP, errOutTP := parseLoudness(s.OutputTP)

	if (errInTP == nil && inTP >= 0) || (errOutTP == nil && outTP >= 0) {
		return Assessment{GradeCritical, "Clipping (True Peak >= 0 dBTP)"}
	}
	if errInI == nil && inI <= -23 {
		return Assessment{GradeNotable, "Input signal very quiet"}
	}
	if errOutI == nil && math.Abs(outI-targetI) > 1.5 {
		return Assessment{GradeNotable, "Target loudness missed by a wide margin"}
	}
	if errOutTP == nil && outTP > -1 {
		return Assessment{GradeNotable, "True Peak near the limit"}
	}
	return Assessment{GradeGood, "Normalization within target range"}
}

// parseLoudness accepts "-inf", which ffmpeg prints for silent input.
func parseLoudness(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
