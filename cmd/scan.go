package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

type scanOutcome struct {
	res *models.LookupResult
	err error
}

// Scan starts the decoding engine, waits for one accepted code and looks it up.
func (r *Runner) Scan(ctx context.Context, cmd *cli.Command) error {
	if timeout := cmd.Duration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	notifier := r.notifier()
	scanUI, err := r.scannerUI(cmd.String("engine"), nil, notifier)
	if err != nil {
		return err
	}

	ctrl := r.controller(controllerOpts{notifier: notifier, scanner: scanUI})
	ctrl.SetContext(ctx)

	outcomes := make(chan scanOutcome, 1)
	ctrl.OnScanLookup(func(code string, res *models.LookupResult, err error) {
		select {
		case outcomes <- scanOutcome{res: res, err: err}:
		default:
		}
	})

	r.writePlain("Scanning with the %s engine (%s)...\n", scanUI.Controller().EngineName(), scanUI.Panel().State().Instructions)
	defer ctrl.Modals().Close()
	if err := ctrl.OpenScan(ctx); err != nil {
		return err
	}

	var outcome scanOutcome
	select {
	case <-ctx.Done():
		return fmt.Errorf("scan stopped before a code was read: %w", ctx.Err())
	case outcome = <-outcomes:
	}
	if errors.Is(outcome.err, shared.ErrScannerNotRunning) {
		return fmt.Errorf("scanner input ended before a code was read: %w", outcome.err)
	}
	if outcome.err != nil {
		return outcome.err
	}

	r.writeLookup(*outcome.res)
	if cmd.Bool("add") {
		return r.addFromForm(ctx, ctrl)
	}
	return nil
}

// ScanHistory lists the most recent accepted scans.
func (r *Runner) ScanHistory(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	records, err := r.scans.List(ctx, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, cmd.Bool("pretty"))
	}
	if len(records) == 0 {
		return r.writePlain("No scans recorded\n")
	}

	r.writePlainHeader("Scan History")
	for _, rec := range records {
		r.writePlain("%-16s %-14s %-10s %3.0f%% %-7s %s\n",
			humanize.Time(rec.ScannedAt), rec.Code, rec.Format, rec.Confidence, rec.Engine, formatTime(rec.ScannedAt))
	}
	return nil
}

// ScanPrune deletes all but the most recent scans.
func (r *Runner) ScanPrune(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	keep := int(cmd.Int("keep"))
	if keep < 0 {
		return fmt.Errorf("%w: keep must not be negative", shared.ErrInvalidFlag)
	}

	removed, err := r.scans.Prune(ctx, keep)
	if err != nil {
		return err
	}
	r.logger.Info("pruned scan history", "removed", removed, "kept", keep)
	return r.writePlain("✓ Removed %s\n", shared.Pluralize(int(removed), "scan", "scans"))
}
