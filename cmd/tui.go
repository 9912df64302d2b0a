package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/ldx/internal/notify"
	"github.com/desertthunder/ldx/internal/scanner"
	"github.com/desertthunder/ldx/internal/shared"
	"github.com/desertthunder/ldx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	center := notify.NewCenter(r.config.Notifications.TTL(), r.logger)
	prompter := ui.NewPrompter()

	engine := cmd.String("engine")
	if engine == "" {
		engine = r.config.Scanner.Engine
	}

	var scanUI *scanner.ScannerUI
	if readsStdin(engine, r.config.Scanner.Device) {
		r.logger.Info("keyboard wedge input goes to the manual entry field")
	} else if scanUI, err = r.scannerUI(engine, nil, center); err != nil {
		r.logger.Warn("scanner unavailable, manual entry only", "error", err)
		scanUI = nil
	}

	ctrl := r.controller(controllerOpts{notifier: center, confirmer: prompter, scanner: scanUI})
	r.api.OnError(ctrl.ReportError)
	r.api.OnUnauthorized(ctrl.RequireAuth)
	if !r.api.HasToken(ctx) {
		ctrl.RequireAuth()
	}

	model := ui.NewModel(ctx, ui.Options{
		Controller: ctrl,
		Center:     center,
		Prompter:   prompter,
		HTTPClient: r.httpClient,
		Logger:     r.logger,
	})

	if err := ui.Run(ctx, model); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// readsStdin reports whether the engine would compete with the terminal for stdin.
func readsStdin(engine, device string) bool {
	engine = strings.ToLower(strings.TrimSpace(engine))
	return (engine == "" || engine == "wedge") && (device == "" || device == "-")
}
