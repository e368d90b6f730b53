package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ccharon/autorec/internal/app"
	"github.com/ccharon/autorec/internal/domain/recording/usecases"
	"github.com/ccharon/autorec/internal/output"
)

func NewRunCmd(deps *Dependencies) *cobra.Command {
	var targetApp string
	var outDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the target stream and record it while it plays",
		Long:  "Runs until interrupted. Each active period becomes NNN.wav in the output directory; after it ends the file is normalized and encoded to NNN.mp3.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if targetApp != "" {
				deps.Config.TargetApp = targetApp
			}
			if outDir != "" {
				deps.Config.OutputDir = outDir
				if err := deps.Config.EnsureOutputDir(); err != nil {
					return err
				}
			}

			application, err := app.New(deps.Config, deps.Log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runRecorder(ctx, deps, application, output.NewFormatter(os.Stdout))
		},
	}

	cmd.Flags().StringVarP(&targetApp, "app", "a", "", "application.name of the stream to record")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory")

	return cmd
}

func runRecorder(ctx context.Context, deps *Dependencies, a *app.App, formatter *output.Formatter) error {
	formatter.Watching(deps.Config.TargetApp, deps.Config.OutputDir)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Probe.Run(gctx) })
	g.Go(func() error { return a.Controller.Run(gctx) })
	if err := g.Wait(); err != nil {
		return err
	}

	// A second interrupt abandons the drain.
	abort, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	drainPostProcessing(abort, deps, a.PostProcess, formatter)

	formatter.ShutdownDone()
	return nil
}

// drainPostProcessing waits for submitted recordings until the drain timeout
// passes or abort is done.
func drainPostProcessing(abort context.Context, deps *Dependencies, pp *usecases.PostProcess, formatter *output.Formatter) {
	if n := pp.Pending(); n > 0 {
		deps.Log.WithField("pending", n).Info("waiting for post-processing to finish, press Ctrl+C again to quit")
	}

	ctx, cancel := context.WithTimeout(abort, deps.Config.DrainTimeout)
	defer cancel()

	if err := pp.Wait(ctx); err != nil {
		formatter.Warning("post-processing still running at exit; original recordings are kept")
	}
}
