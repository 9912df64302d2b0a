package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/ldx/internal/app"
	"github.com/desertthunder/ldx/internal/collection"
	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// listing is the JSON shape of a listed page.
type listing struct {
	Items      []models.CatalogItem `json:"laserdiscs"`
	Stats      models.Stats         `json:"stats"`
	Pagination models.Pagination    `json:"pagination"`
}

// CollectionList loads a page of the collection, then filters and sorts it client-side.
func (r *Runner) CollectionList(ctx context.Context, cmd *cli.Command) error {
	ctrl := r.controller(controllerOpts{notifier: r.notifierFor(cmd)})
	state := ctrl.State()

	key, order, filter := state.Listing()
	var err error
	if v := cmd.String("sort"); v != "" {
		if key, err = models.ParseSortKey(v); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrInvalidFlag, err)
		}
	}
	if v := cmd.String("order"); v != "" {
		if order, err = models.ParseSortOrder(v); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrInvalidFlag, err)
		}
	}
	if v := cmd.String("filter"); v != "" {
		if filter, err = models.ParseWatchFilter(v); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrInvalidFlag, err)
		}
	}
	state.SetSort(key, order)
	state.SetFilter(filter)

	if err := ctrl.Load(ctx, cmd.String("search"), int(cmd.Int("offset"))); err != nil {
		return err
	}
	snap := state.Snapshot()

	if cmd.Bool("json") {
		return r.writeJSON(listing{Items: snap.Items, Stats: snap.Stats, Pagination: snap.Pagination}, cmd.Bool("pretty"))
	}

	r.writePlainHeader("LaserDisc Collection")
	for _, item := range snap.Items {
		r.writeItem(item)
	}
	if len(snap.Items) == 0 {
		hint := collection.EmptyHintNew
		if snap.Search != "" {
			hint = collection.EmptyHintSearch
		}
		r.writePlain("%s\n%s\n", collection.EmptyMessage, hint)
	}
	r.writePlainln("%s total • %s watched • %s unwatched", humanize.Comma(snap.Stats.Total),
		humanize.Comma(snap.Stats.Watched), humanize.Comma(snap.Stats.Unwatched))
	if p := snap.Pagination; p.Total > 0 && len(snap.Items) > 0 {
		r.writePlain("Showing %d-%d of %s (sort: %s %s, filter: %s)\n", p.Offset+1, p.PageEnd(), humanize.Comma(p.Total), key, order, filter)
		if p.HasMore() {
			r.writePlain("Next page: --offset %d\n", p.Offset+p.Limit)
		}
	}
	return nil
}

// CollectionFind fuzzy-matches the pattern against the first page.
func (r *Runner) CollectionFind(ctx context.Context, cmd *cli.Command) error {
	pattern := strings.TrimSpace(cmd.StringArg("pattern"))
	if pattern == "" {
		return fmt.Errorf("%w: pattern", shared.ErrMissingArgument)
	}

	ctrl := r.controller(controllerOpts{notifier: r.notifierFor(cmd)})
	if err := ctrl.Load(ctx, "", 0); err != nil {
		return err
	}
	matches := ctrl.Collection().QuickFind(pattern)

	if cmd.Bool("json") {
		return r.writeJSON(matches, cmd.Bool("pretty"))
	}
	for _, item := range matches {
		r.writeItem(item)
	}
	return r.writePlain("%s matching %q\n", shared.Pluralize(len(matches), "LaserDisc", "LaserDiscs"), pattern)
}

// CollectionAdd creates a LaserDisc from the field flags.
func (r *Runner) CollectionAdd(ctx context.Context, cmd *cli.Command) error {
	ctrl := r.controller(controllerOpts{})

	v, err := formValues(cmd)
	if err != nil {
		return err
	}
	item, err := ctrl.Create(ctx, v)
	if err != nil {
		return err
	}
	r.writeItem(*item)
	return nil
}

// CollectionEdit sends the field flags that were set. Unset fields are left unchanged.
func (r *Runner) CollectionEdit(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	v, err := formValues(cmd)
	if err != nil {
		return err
	}

	ctrl := r.controller(controllerOpts{})
	item, err := ctrl.Update(ctx, id, v)
	if err != nil {
		return err
	}
	if item != nil {
		r.writeItem(*item)
	}
	return nil
}

// CollectionWatched toggles the watched flag.
func (r *Runner) CollectionWatched(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	ctrl := r.controller(controllerOpts{})
	item, err := ctrl.ToggleWatched(ctx, id)
	if err != nil {
		return err
	}
	r.writeItem(*item)
	return nil
}

// CollectionDelete deletes a LaserDisc once confirmed.
func (r *Runner) CollectionDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	ctrl := r.controller(controllerOpts{confirmer: r.confirmer(cmd.Bool("yes"))})
	deleted, err := ctrl.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return r.writePlain("Cancelled\n")
	}
	return nil
}

// BulkWatched marks every id as watched concurrently.
func (r *Runner) BulkWatched(ctx context.Context, cmd *cli.Command) error {
	return r.bulk(ctx, cmd, func(ctx context.Context, ctrl *app.Controller) (int, int, error) {
		result, err := ctrl.Collection().MarkSelectedWatched(ctx)
		if result == nil {
			return 0, 0, err
		}
		return len(result.Succeeded), len(result.Failed), err
	})
}

// BulkDelete deletes every id concurrently once confirmed.
func (r *Runner) BulkDelete(ctx context.Context, cmd *cli.Command) error {
	confirm := r.confirmer(cmd.Bool("yes"))
	return r.bulk(ctx, cmd, func(ctx context.Context, ctrl *app.Controller) (int, int, error) {
		result, err := ctrl.Collection().DeleteSelected(ctx, confirm)
		if result == nil {
			if err == nil {
				r.writePlain("Cancelled\n")
			}
			return 0, 0, err
		}
		return len(result.Succeeded), len(result.Failed), err
	})
}

// bulk selects the id arguments and runs op with progress printed as it goes.
func (r *Runner) bulk(ctx context.Context, cmd *cli.Command, op func(context.Context, *app.Controller) (int, int, error)) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("%w: at least one id", shared.ErrMissingArgument)
	}

	progress, stop := r.progress()
	ctrl := r.controller(controllerOpts{progress: progress})
	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			stop()
			return err
		}
		ctrl.Collection().ToggleSelection(id)
	}

	ok, failed, err := op(ctx, ctrl)
	stop()

	if ok+failed > 0 {
		r.writePlainln("Succeeded: %d, failed: %d", ok, failed)
	}
	return err
}

// formValues reads the item flags that were set on cmd.
func formValues(cmd *cli.Command) (app.FormValues, error) {
	var v app.FormValues
	for _, field := range app.Fields {
		if !cmd.IsSet(field) {
			continue
		}
		if err := v.Set(field, cmd.String(field)); err != nil {
			return v, err
		}
	}
	return v, nil
}

func parseID(s string) (uint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q is not a LaserDisc id", shared.ErrInvalidArgument, s)
	}
	return uint(id), nil
}
