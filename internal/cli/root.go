package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ccharon/autorec/config"
	"github.com/ccharon/autorec/internal/version"
)

type Dependencies struct {
	Config *config.Config
	Log    *logrus.Logger
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "autorec",
		Short: "Record an application's audio whenever it plays",
		Long:  "Watches a PipeWire application stream, records it with pw-record while it is playing, then normalizes and encodes each recording.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				deps.Log.SetLevel(logrus.DebugLevel)
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(NewRunCmd(deps))
	rootCmd.AddCommand(NewProcessCmd(deps))
	rootCmd.AddCommand(NewListCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))

	return rootCmd
}

// NewLogger returns the logger shared by all commands.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
		PadLevelText:    true,
	})
	log.SetLevel(logrus.InfoLevel)
	return log
}
