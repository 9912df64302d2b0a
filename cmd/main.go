package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/desertthunder/ldx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{
		Logger:     logger,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	})

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// newApp builds the root command. The config flag is resolved before any subcommand runs.
func newApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:    "ldx",
		Usage:   "Manage a LaserDisc collection from the terminal",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars(shared.EnvConfig),
			},
		},
		Before:   runner.Load,
		After:    runner.Close,
		Commands: runner.register(),
	}
}
