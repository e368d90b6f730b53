package main

import (
	"fmt"
	"os"

	"github.com/ccharon/autorec/config"
	"github.com/ccharon/autorec/internal/cli"
	"github.com/ccharon/autorec/internal/output"
)

func main() {
	if err := run(); err != nil {
		formatter := output.NewFormatter(os.Stderr)
		formatter.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	deps := &cli.Dependencies{
		Config: cfg,
		Log:    cli.NewLogger(),
	}

	return cli.NewRootCmd(deps).Execute()
}
