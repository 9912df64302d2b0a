// Package collection loads, filters and sorts the catalog into the session state and runs
// bulk operations over the selection.
package collection

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/notify"
	"github.com/desertthunder/ldx/internal/services"
	"github.com/desertthunder/ldx/internal/session"
	"github.com/desertthunder/ldx/internal/shared"
	"github.com/desertthunder/ldx/internal/tasks"
)

// LoadFailedMessage replaces the listing when a load fails.
const LoadFailedMessage = "Failed to load collection. Please try again."

// Shown when a load returns no items.
const (
	EmptyMessage    = "No LaserDiscs found"
	EmptyHintSearch = "Try a different search term"
	EmptyHintNew    = "Start by scanning a barcode or adding a LaserDisc manually"
)

// LoadOptions selects the page to fetch.
type LoadOptions struct {
	Search string
	Offset int
}

// Manager owns the listing half of the session state.
type Manager struct {
	api      services.Collection
	state    *session.State
	notifier notify.Notifier
	runner   *tasks.Runner
	logger   *log.Logger
	progress chan<- tasks.ProgressUpdate
}

// NewManager creates a manager. A nil runner fans out without a rate limit.
func NewManager(api services.Collection, state *session.State, notifier notify.Notifier, runner *tasks.Runner, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if runner == nil {
		runner = tasks.NewRunner(0, logger)
	}
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Manager{
		api:      api,
		state:    state,
		notifier: notifier,
		runner:   runner,
		logger:   shared.WithLogger(logger, "component", "collection"),
	}
}

// State returns the session state the manager writes to.
func (m *Manager) State() *session.State { return m.state }

// SetProgress sets the channel bulk operations report on.
func (m *Manager) SetProgress(ch chan<- tasks.ProgressUpdate) { m.progress = ch }

// LoadCollection fetches a page, filters and sorts it, and stores the result.
func (m *Manager) LoadCollection(ctx context.Context, opts LoadOptions) error {
	opts.Search = strings.TrimSpace(opts.Search)
	opts.Offset = max(opts.Offset, 0)

	page, err := m.api.ListCollection(ctx, models.ListQuery{
		Search: opts.Search,
		Limit:  m.state.Limit(),
		Offset: opts.Offset,
	})
	if err != nil {
		m.logger.Error("failed to load collection", "search", opts.Search, "offset", opts.Offset, "error", err)
		return fmt.Errorf("failed to load collection: %w", err)
	}

	key, order, filter := m.state.Listing()
	items := Sort(Filter(page.Items, filter), key, order)

	m.state.StorePage(opts.Search, opts.Offset, items, page.Stats, page.Pagination)
	m.logger.Debug("pagination",
		"total", page.Pagination.Total, "limit", page.Pagination.Limit,
		"offset", page.Pagination.Offset, "has_more", page.Pagination.HasMore())
	return nil
}

// Reload repeats the last load at the current search and offset.
func (m *Manager) Reload(ctx context.Context) error {
	search, offset := m.state.Search()
	return m.LoadCollection(ctx, LoadOptions{Search: search, Offset: offset})
}

// Search loads the first page matching term.
func (m *Manager) Search(ctx context.Context, term string) error {
	return m.LoadCollection(ctx, LoadOptions{Search: term})
}

// UpdateFilter sets the watched filter and reloads from the first page.
func (m *Manager) UpdateFilter(ctx context.Context, f models.WatchFilter) error {
	m.state.SetFilter(f)
	return m.reloadFirst(ctx)
}

// UpdateSort sets the sort key, keeping the direction, and reloads from the first page.
func (m *Manager) UpdateSort(ctx context.Context, key models.SortKey) error {
	_, order, _ := m.state.Listing()
	m.state.SetSort(key, order)
	return m.reloadFirst(ctx)
}

// ToggleSortOrder flips the direction and reloads from the first page.
func (m *Manager) ToggleSortOrder(ctx context.Context) error {
	m.state.ToggleSortOrder()
	return m.reloadFirst(ctx)
}

func (m *Manager) reloadFirst(ctx context.Context) error {
	search, _ := m.state.Search()
	return m.LoadCollection(ctx, LoadOptions{Search: search})
}
