package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/ldx/internal/app"
	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Lookup queries the reference database for a product code or catalog reference.
func (r *Runner) Lookup(ctx context.Context, cmd *cli.Command) error {
	code := strings.TrimSpace(cmd.StringArg("code"))
	if code == "" {
		return fmt.Errorf("%w: code", shared.ErrMissingArgument)
	}

	ctrl := r.controller(controllerOpts{notifier: r.notifierFor(cmd)})
	res, err := ctrl.Lookup(ctx, code)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(res, cmd.Bool("pretty")); err != nil {
			return err
		}
	} else {
		r.writeLookup(*res)
	}

	if !cmd.Bool("add") {
		return nil
	}
	return r.addFromForm(ctx, ctrl)
}

// Random prints a random unwatched LaserDisc and optionally marks it watched.
func (r *Runner) Random(ctx context.Context, cmd *cli.Command) error {
	ctrl := r.controller(controllerOpts{notifier: r.notifierFor(cmd)})
	item, err := ctrl.RandomPick(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(item, cmd.Bool("pretty")); err != nil {
			return err
		}
	} else {
		r.writePlainHeader("Random Pick")
		r.writeItem(*item)
		if rt := shared.FormatRuntime(item.Runtime); rt != "" {
			r.writePlain("Runtime: %s\n", rt)
		}
	}

	if cmd.Bool("watch") {
		return ctrl.MarkRandomWatched(ctx)
	}
	return nil
}

// addFromForm submits the add form a lookup pre-filled.
func (r *Runner) addFromForm(ctx context.Context, ctrl *app.Controller) error {
	if ctrl.Modals().Current() != app.ModalAdd {
		return fmt.Errorf("%w: nothing to add", shared.ErrInvalidInput)
	}
	item, err := ctrl.SubmitAdd(ctx)
	if err != nil {
		return err
	}
	r.writeItem(*item)
	return nil
}

func (r *Runner) writeLookup(res models.LookupResult) {
	r.writePlainHeader(shared.Sanitize(res.Title))
	rows := [][2]string{
		{"UPC", res.UPC},
		{"Director", res.Director},
		{"Genre", res.Genre},
		{"Format", res.Format},
		{"Runtime", shared.FormatRuntime(res.Runtime)},
		{"LDDB", res.LDDBURL},
	}
	if res.Year > 0 {
		rows = append(rows, [2]string{"Year", fmt.Sprint(res.Year)})
	}
	if res.Sides > 0 {
		rows = append(rows, [2]string{"Sides", fmt.Sprint(res.Sides)})
	}
	for _, row := range rows {
		if row[1] != "" {
			r.writePlain("%-9s %s\n", row[0]+":", shared.Sanitize(row[1]))
		}
	}
}
