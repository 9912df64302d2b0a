package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/desertthunder/ldx/internal/collection"
	"github.com/desertthunder/ldx/internal/formatter"
	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/shared"
	"github.com/desertthunder/ldx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export fetches every page of the collection and writes it in the requested format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	outputPath := cmd.String("output")

	var filter models.WatchFilter
	if v := cmd.String("filter"); v != "" {
		f, err := models.ParseWatchFilter(v)
		if err != nil {
			return fmt.Errorf("%w: %w", shared.ErrInvalidFlag, err)
		}
		filter = f
	}

	var (
		w        io.Writer = r.output
		progress chan tasks.ProgressUpdate
		stop     = func() {}
	)
	if outputPath != "" {
		expanded, err := shared.ExpandPath(outputPath)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(expanded), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		f, err := os.Create(expanded)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
		outputPath = expanded
		progress, stop = r.progress()
	}

	r.logger.Info("exporting collection", "format", format, "output", outputPath)
	runner := tasks.NewRunner(r.config.Collection.BulkRate, r.logger)
	count, err := runner.Export(ctx, progress, r.api, w, tasks.ExportOpts{
		Format: format,
		Search: cmd.String("search"),
		Filter: filter,
	})
	stop()
	if err != nil {
		return err
	}

	if outputPath == "" {
		return nil
	}
	return r.writePlain("✓ Exported %s to %s\n", shared.Pluralize(count, "LaserDisc", "LaserDiscs"), outputPath)
}

// ExportCovers downloads the cover art of every LaserDisc that has one.
func (r *Runner) ExportCovers(ctx context.Context, cmd *cli.Command) error {
	dir, err := shared.ExpandPath(cmd.String("dir"))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cover directory: %w", err)
	}

	search := cmd.String("search")
	saved, failed := 0, 0
	for offset := 0; ; {
		page, err := r.api.ListCollection(ctx, models.ListQuery{Search: search, Limit: 100, Offset: offset})
		if err != nil {
			return fmt.Errorf("failed to fetch collection at offset %d: %w", offset, err)
		}

		for _, item := range page.Items {
			if !item.HasCover() {
				continue
			}
			data, err := formatter.DownloadImage(ctx, item.CoverImageURL)
			if err != nil {
				r.logger.Warn("failed to download cover", "id", item.ID, "url", item.CoverImageURL, "error", err)
				failed++
				continue
			}
			dest := filepath.Join(dir, coverFilename(item))
			if err := os.WriteFile(dest, data, 0644); err != nil {
				return fmt.Errorf("failed to write cover: %w", err)
			}
			r.writePlain("   ✓ %s\n", filepath.Base(dest))
			saved++
		}

		offset += len(page.Items)
		if len(page.Items) == 0 || int64(offset) >= page.Pagination.Total {
			break
		}
	}

	r.writePlainln("Saved %s to %s", shared.Pluralize(saved, "cover", "covers"), dir)
	if failed > 0 {
		r.writePlain("Failed to download %s\n", shared.Pluralize(failed, "cover", "covers"))
	}
	return nil
}

// coverFilename is "<id>-<title-slug><ext>", with the extension taken from the cover URL.
func coverFilename(item models.CatalogItem) string {
	ext := ".jpg"
	if u, err := url.Parse(item.CoverImageURL); err == nil {
		if e := strings.ToLower(path.Ext(u.Path)); e == ".png" || e == ".gif" || e == ".jpeg" || e == ".webp" {
			ext = e
		}
	}

	slug := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, collection.Fold(item.Title))
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return fmt.Sprintf("%d%s", item.ID, ext)
	}
	return fmt.Sprintf("%d-%s%s", item.ID, slug, ext)
}
