package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ccharon/autorec/internal/audio"
	"github.com/ccharon/autorec/internal/output"
)

var requiredTools = []struct {
	name    string
	purpose string
}{
	{"pactl", "stream activity"},
	{"pw-dump", "node lookup"},
	{"pw-record", "capture"},
	{"ffmpeg", "loudness normalization"},
	{"lame", "MP3 encoding"},
}

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(os.Stdout)
			ok := true

			names := make([]string, 0, len(requiredTools))
			for _, t := range requiredTools {
				names = append(names, t.name)
			}
			missing := audio.CheckTools(names...)

			for _, t := range requiredTools {
				if _, gone := missing[t.name]; gone {
					f.SetupCheck(t.name, false, "not found, needed for "+t.purpose)
					ok = false
				} else {
					f.SetupCheck(t.name, true, "installed")
				}
			}

			if err := deps.Config.Validate(); err != nil {
				f.SetupCheck("Configuration", false, err.Error())
				ok = false
			} else {
				f.SetupCheck("Configuration", true, "valid")
			}

			f.SetupCheck("Target application", true, deps.Config.TargetApp+" ("+deps.Config.TargetMediaClass+")")
			f.SetupCheck("Output directory", true, deps.Config.OutputDir)

			if ok {
				f.Success("All prerequisites met. Ready to record!")
			} else {
				f.Warning("Some prerequisites are missing.")
			}
			return nil
		},
	}
}
