package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ldx/internal/collection"
	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/notify"
	"github.com/desertthunder/ldx/internal/scanner"
	"github.com/desertthunder/ldx/internal/services"
	"github.com/desertthunder/ldx/internal/session"
	"github.com/desertthunder/ldx/internal/shared"
)

// Notification texts.
const (
	MsgRequired       = "UPC and Title are required"
	MsgAdded          = "LaserDisc added successfully!"
	MsgUpdated        = "LaserDisc updated successfully"
	MsgNoChanges      = "No changes to save"
	MsgWatchedUpdated = "Watched status updated"
	MsgDeleteConfirm  = "Are you sure you want to delete this LaserDisc?"
	MsgDeleted        = "LaserDisc deleted successfully"
	MsgEnterUPC       = "Please enter a UPC"
	MsgLookingUp      = "Looking up LaserDisc..."
	MsgFound          = "LaserDisc found! Review and add to collection."
	MsgNotFound       = "LaserDisc not found in database"
	MsgNoUnwatched    = "No unwatched LaserDiscs found!"
	MsgInvalidToken   = "Invalid access token"
	MsgAuthenticated  = "Authenticated"
	MsgLoggedOut      = "Logged out"
	MsgAuthRequired   = "Please sign in with your access token"
	MsgItemMissing    = "LaserDisc not found in collection"
)

// ScanRecorder keeps the history of accepted scans.
type ScanRecorder interface {
	Create(ctx context.Context, rec *models.ScanRecord) error
}

// Options configure a [Controller].
type Options struct {
	Backend    services.Backend
	Collection *collection.Manager
	Notifier   notify.Notifier
	Confirmer  notify.Confirmer
	Scanner    *scanner.ScannerUI
	Scans      ScanRecorder
	Logger     *log.Logger
}

// Controller runs the user-facing flows.
type Controller struct {
	api      services.Backend
	coll     *collection.Manager
	state    *session.State
	notifier notify.Notifier
	confirm  notify.Confirmer
	scanUI   *scanner.ScannerUI
	scans    ScanRecorder
	logger   *log.Logger
	form     *Form
	modals   *Modals

	mu           sync.Mutex
	listeners    []func()
	scanLookups  []func(code string, res *models.LookupResult, err error)
	loadFailed   bool
	authRequired bool
	bg           context.Context
}

// New creates a controller. Backend and Collection are required.
func New(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Confirmer == nil {
		opts.Confirmer = notify.ConfirmFunc(func(string) bool { return true })
	}

	c := &Controller{
		api:      opts.Backend,
		coll:     opts.Collection,
		state:    opts.Collection.State(),
		notifier: opts.Notifier,
		confirm:  opts.Confirmer,
		scanUI:   opts.Scanner,
		scans:    opts.Scans,
		logger:   shared.WithLogger(opts.Logger, "component", "app"),
		form:     NewForm(),
		bg:       context.Background(),
	}
	c.modals = NewModals(c.modalClosed)
	c.attachScanner()
	return c
}

// Form returns the add/edit form view-model.
func (c *Controller) Form() *Form { return c.form }

// Modals returns the modal state.
func (c *Controller) Modals() *Modals { return c.modals }

// State returns the session state.
func (c *Controller) State() *session.State { return c.state }

// Collection returns the collection manager.
func (c *Controller) Collection() *collection.Manager { return c.coll }

// Scanner returns the scanner UI, or nil when scanning is not configured.
func (c *Controller) Scanner() *scanner.ScannerUI { return c.scanUI }

// SetContext sets the context used by flows started from scanner callbacks.
func (c *Controller) SetContext(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bg = ctx
}

func (c *Controller) context() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bg
}

// OnChange registers fn to run after a flow started outside the caller, such as an
// accepted scan, has changed state.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// OnScanLookup registers fn to run with the outcome of every lookup an accepted scan triggers.
// When the engine ends a session without a scan, fn gets an empty code and [shared.ErrScannerNotRunning].
func (c *Controller) OnScanLookup(fn func(code string, res *models.LookupResult, err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scanLookups = append(c.scanLookups, fn)
}

func (c *Controller) changed() {
	c.mu.Lock()
	listeners := append([]func(){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// ReportError surfaces a failed backend call. Wired to the request helper's error hook.
func (c *Controller) ReportError(err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	c.notifier.Notify(notify.Error, "Error: "+err.Error())
}

// RequireAuth marks the session unauthenticated. Wired to the request helper's 401 hook.
func (c *Controller) RequireAuth() {
	c.mu.Lock()
	c.authRequired = true
	c.mu.Unlock()

	c.modals.Close()
	c.logger.Warn("authentication required")
	c.changed()
}

// AuthRequired reports whether the user must sign in.
func (c *Controller) AuthRequired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authRequired
}

// LoadFailed reports whether the last load failed.
func (c *Controller) LoadFailed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadFailed
}

// Load fetches a page of the collection.
func (c *Controller) Load(ctx context.Context, search string, offset int) error {
	err := c.coll.LoadCollection(ctx, collection.LoadOptions{Search: search, Offset: offset})

	c.mu.Lock()
	c.loadFailed = err != nil
	c.mu.Unlock()
	return err
}

// Reload repeats the last load.
func (c *Controller) Reload(ctx context.Context) error {
	search, offset := c.state.Search()
	return c.Load(ctx, search, offset)
}

// Search loads the first page matching term.
func (c *Controller) Search(ctx context.Context, term string) error {
	return c.Load(ctx, strings.TrimSpace(term), 0)
}

// Create validates the add form and posts it.
func (c *Controller) Create(ctx context.Context, v FormValues) (*models.CatalogItem, error) {
	req := v.CreateRequest()
	if req.UPC == "" || req.Title == "" {
		c.notifier.Notify(notify.Error, MsgRequired)
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, MsgRequired)
	}
	if err := req.Validate(); err != nil {
		c.notifier.Notify(notify.Error, "Error: "+err.Error())
		return nil, fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}

	item, err := c.api.CreateItem(ctx, req)
	if err != nil {
		return nil, err
	}

	c.logger.Info("laserdisc added", "id", item.ID, "upc", item.UPC)
	c.notifier.Notify(notify.Success, MsgAdded)
	c.modals.Close()
	c.form.Reset()

	search, _ := c.state.Search()
	return item, c.Load(ctx, search, 0)
}

// Update sends the non-empty fields of v for id.
func (c *Controller) Update(ctx context.Context, id uint, v FormValues) (*models.CatalogItem, error) {
	req := v.UpdateRequest()
	if req.IsEmpty() {
		c.notifier.Notify(notify.Info, MsgNoChanges)
		return nil, nil
	}

	item, err := c.api.UpdateItem(ctx, id, req)
	if err != nil {
		return nil, err
	}

	c.logger.Info("laserdisc updated", "id", id)
	c.notifier.Notify(notify.Success, MsgUpdated)
	c.modals.Close()
	c.form.Reset()
	return item, c.Reload(ctx)
}

// BeginEdit opens the edit modal for a loaded item.
func (c *Controller) BeginEdit(id uint) error {
	item, ok := c.state.Item(id)
	if !ok {
		c.notifier.Notify(notify.Error, MsgItemMissing)
		return fmt.Errorf("%w: %d", shared.ErrItemNotFound, id)
	}
	c.form.PopulateItem(item)
	c.modals.Open(ModalEdit)
	return nil
}

// SaveEdit submits the edit form.
func (c *Controller) SaveEdit(ctx context.Context) (*models.CatalogItem, error) {
	id := c.form.EditingID()
	if id == 0 {
		return nil, fmt.Errorf("%w: no item being edited", shared.ErrInvalidInput)
	}
	return c.Update(ctx, id, c.form.Values())
}

// SubmitAdd submits the add form.
func (c *Controller) SubmitAdd(ctx context.Context) (*models.CatalogItem, error) {
	return c.Create(ctx, c.form.Values())
}

// ToggleWatched flips the watched flag of id.
func (c *Controller) ToggleWatched(ctx context.Context, id uint) (*models.CatalogItem, error) {
	item, err := c.api.ToggleWatched(ctx, id)
	if err != nil {
		return nil, err
	}
	c.notifier.Notify(notify.Success, MsgWatchedUpdated)
	return item, c.Reload(ctx)
}

// Delete removes id once the user confirms. A declined confirmation returns false and no error.
func (c *Controller) Delete(ctx context.Context, id uint) (bool, error) {
	if !c.confirm.Confirm(MsgDeleteConfirm) {
		return false, nil
	}
	if err := c.api.DeleteItem(ctx, id); err != nil {
		return false, err
	}
	c.logger.Info("laserdisc deleted", "id", id)
	c.notifier.Notify(notify.Success, MsgDeleted)
	return true, c.Reload(ctx)
}
