package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ldx/internal/formatter"
	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/shared"
	"golang.org/x/time/rate"
)

// ItemFunc performs one request for one catalog item.
type ItemFunc func(ctx context.Context, id uint) error

// Lister fetches a page of the collection.
type Lister interface {
	ListCollection(ctx context.Context, q models.ListQuery) (*models.CollectionPage, error)
}

// ItemError is a failed item in a bulk run.
type ItemError struct {
	ID  uint
	Err error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.ID, e.Err)
}

func (e ItemError) Unwrap() error { return e.Err }

// BulkResult aggregates a bulk run.
type BulkResult struct {
	Phase     Phase
	Total     int
	Succeeded []uint
	Failed    []ItemError
}

// OK reports whether every item succeeded.
func (r *BulkResult) OK() bool {
	return len(r.Failed) == 0
}

// Err joins the item errors, or nil when all succeeded.
func (r *BulkResult) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Runner executes bulk requests.
type Runner struct {
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewRunner creates a runner. A non-positive perSecond leaves requests unthrottled.
func NewRunner(perSecond float64, logger *log.Logger) *Runner {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		limiter: rate.NewLimiter(limit, 1),
		logger:  shared.WithLogger(logger, "component", "tasks"),
	}
}

// Run calls fn for every id concurrently and waits for all of them.
//
// Each item reports on prog as it completes; completion order is not defined.
func (r *Runner) Run(ctx context.Context, prog chan<- ProgressUpdate, phase Phase, ids []uint, fn ItemFunc) *BulkResult {
	result := &BulkResult{Phase: phase, Total: len(ids)}
	if len(ids) == 0 {
		return result
	}

	type outcome struct {
		id  uint
		err error
	}
	outcomes := make(chan outcome, len(ids))

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.limiter.Wait(ctx); err != nil {
				outcomes <- outcome{id, err}
				return
			}
			outcomes <- outcome{id, fn(ctx, id)}
		}()
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	completed := 0
	for o := range outcomes {
		completed++
		if o.err != nil {
			result.Failed = append(result.Failed, ItemError{ID: o.id, Err: o.err})
			r.logger.Warn("bulk item failed", "phase", phase, "id", o.id, "error", o.err)
			sendProgress(prog, itemFailedUpdate(phase, completed, len(ids), o.id, o.err))
			continue
		}
		result.Succeeded = append(result.Succeeded, o.id)
		sendProgress(prog, itemDoneUpdate(phase, completed, len(ids), o.id))
	}

	r.logger.Info("bulk run finished", "phase", phase, "succeeded", len(result.Succeeded), "failed", len(result.Failed))
	return result
}

// ExportOpts configures [Runner.Export].
type ExportOpts struct {
	Format   string // json, csv, markdown, yaml, txt, html
	Search   string
	PageSize int // default 100, the backend maximum
	Filter   models.WatchFilter
}

// Export fetches every page of the collection and writes it to w in the requested format.
func (r *Runner) Export(ctx context.Context, prog chan<- ProgressUpdate, src Lister, w io.Writer, opts ExportOpts) (int, error) {
	if src == nil {
		return 0, fmt.Errorf("%w: collection source not initialized", shared.ErrServiceUnavailable)
	}
	enc, err := formatter.New(opts.Format)
	if err != nil {
		return 0, err
	}
	if opts.PageSize <= 0 || opts.PageSize > 100 {
		opts.PageSize = 100
	}

	var (
		items []models.CatalogItem
		stats models.Stats
	)
	for step, offset := 1, 0; ; step++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return 0, err
		}

		page, err := src.ListCollection(ctx, models.ListQuery{Search: opts.Search, Limit: opts.PageSize, Offset: offset})
		if err != nil {
			return 0, fmt.Errorf("failed to fetch collection at offset %d: %w", offset, err)
		}
		sendProgress(prog, fetchPageUpdate(step, offset, page.Pagination.Total))

		items = append(items, page.Items...)
		stats = page.Stats
		offset += len(page.Items)

		if len(page.Items) == 0 || int64(offset) >= page.Pagination.Total {
			break
		}
	}

	if opts.Filter != "" {
		kept := items[:0]
		for _, item := range items {
			if opts.Filter.Matches(item) {
				kept = append(kept, item)
			}
		}
		items = kept
	}

	sendProgress(prog, writeExportUpdate(len(items), enc.Name()))
	if err := enc.Encode(w, formatter.Collection{Items: items, Stats: stats}); err != nil {
		return 0, fmt.Errorf("failed to write export: %w", err)
	}
	return len(items), nil
}

// sendProgress sends a progress update without blocking
func sendProgress(ch chan<- ProgressUpdate, update ProgressUpdate) {
	if ch == nil {
		return
	}
	select {
	case ch <- update:
	default:
	}
}
