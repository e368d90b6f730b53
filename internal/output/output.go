package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

type markers struct {
	ok, info, warn, fail, rec string
}

var (
	emojiMarkers = markers{ok: "✅", info: "ℹ️ ", warn: "⚠️ ", fail: "❌", rec: "🎙️ "}
	plainMarkers = markers{ok: "[+]", info: "[i]", warn: "[!]", fail: "[x]", rec: "[*]"}
)

type Formatter struct {
	w io.Writer
	m markers
}

// NewFormatter uses emoji markers when w is a terminal and ASCII ones otherwise.
func NewFormatter(w io.Writer) *Formatter {
	m := plainMarkers
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		m = emojiMarkers
	}
	return &Formatter{w: w, m: m}
}

func (f *Formatter) Watching(app, dir string) {
	fmt.Fprintf(f.w, "%s autorec watching %q, recordings go to %s\n", f.m.rec, app, dir)
}

func (f *Formatter) ShutdownDone() {
	fmt.Fprintf(f.w, "%s Stopped\n", f.m.ok)
}

func (f *Formatter) Processed(source, encoded string) {
	fmt.Fprintf(f.w, "%s Converted: %s → %s\n", f.m.ok, source, encoded)
}

func (f *Formatter) Loudness(grade, note, inI, inTP, outI, outTP string) {
	fmt.Fprintf(f.w, "%s Loudness: before I=%s LUFS, TP=%s dBTP | after I=%s LUFS, TP=%s dBTP %s (%s)\n",
		f.m.info, inI, inTP, outI, outTP, grade, note)
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "%s %s\n", f.m.fail, msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "%s %s\n", f.m.info, msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "%s %s\n", f.m.ok, msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "%s %s\n", f.m.warn, msg)
}

func (f *Formatter) RecordingListHeader(dir string) {
	fmt.Fprintf(f.w, "Recordings in %s:\n\n", dir)
}

// RecordingListItem prints one recording. A zero duration means the header could not be read.
func (f *Formatter) RecordingListItem(name string, duration time.Duration, encoded bool) {
	length := "?"
	if duration > 0 {
		length = formatDuration(duration)
	}
	status := ""
	if encoded {
		status = " " + f.m.ok
	}
	fmt.Fprintf(f.w, "  %s  %8s%s\n", name, length, status)
}

func (f *Formatter) SetupCheck(name string, ok bool, detail string) {
	if ok {
		fmt.Fprintf(f.w, "  %s %s: %s\n", f.m.ok, name, detail)
	} else {
		fmt.Fprintf(f.w, "  %s %s: %s\n", f.m.fail, name, detail)
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
