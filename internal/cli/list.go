package cli

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccharon/autorec/internal/audio"
	"github.com/ccharon/autorec/internal/domain/recording"
	"github.com/ccharon/autorec/internal/output"
)

func NewListCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(os.Stdout)
			dir := deps.Config.OutputDir

			names, err := listRecordings(dir)
			if err != nil {
				if os.IsNotExist(err) {
					formatter.Info("No recordings found")
					return nil
				}
				return err
			}

			if len(names) == 0 {
				formatter.Info("No recordings found")
				return nil
			}

			formatter.RecordingListHeader(dir)
			for _, name := range names {
				path := filepath.Join(dir, name)
				info, err := audio.InspectWAV(path)
				if err != nil {
					info = &audio.WAVInfo{}
				}
				_, encErr := os.Stat(recording.EncodedPath(path))
				formatter.RecordingListItem(name, info.Duration, encErr == nil)
			}

			return nil
		},
	}

	return cmd
}

// listRecordings returns raw captures (NNN.wav, not NNN.norm.wav) sorted by name.
func listRecordings(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".wav") || strings.HasSuffix(name, ".norm.wav") {
			continue
		}
		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}
