package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/ldx/internal/models"
	"github.com/desertthunder/ldx/internal/notify"
	"github.com/desertthunder/ldx/internal/scanner"
	"github.com/desertthunder/ldx/internal/shared"
)

// Lookup queries the reference database and, on a hit, opens the add modal pre-filled.
//
// Numeric codes are product codes; anything else is a catalog reference.
func (c *Controller) Lookup(ctx context.Context, code string) (*models.LookupResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		c.notifier.Notify(notify.Error, MsgEnterUPC)
		return nil, fmt.Errorf("%w: %s", shared.ErrValidation, MsgEnterUPC)
	}

	c.notifier.Notify(notify.Info, MsgLookingUp)

	var (
		res *models.Lookup
		err error
	)
	if shared.IsNumericCode(code) {
		res, err = c.api.LookupUPC(ctx, shared.CleanCode(code))
	} else {
		res, err = c.api.LookupReference(ctx, code)
	}

	if errors.Is(err, shared.ErrNotFound) {
		c.notifier.Notify(notify.Warning, MsgNotFound)
		return nil, err
	}
	if err != nil {
		c.logger.Debug("lookup failed", "code", code, "error", err)
		return nil, err
	}

	c.form.PopulateLookup(*res.Result)
	c.modals.Open(ModalAdd)
	c.notifier.Notify(notify.Success, MsgFound)
	if res.Existing != nil {
		c.logger.Info("looked up laserdisc already in collection", "id", res.Existing.ID, "upc", res.Existing.UPC)
	}
	return res.Result, nil
}

// HandleScan writes code into the manual entry field and looks it up.
func (c *Controller) HandleScan(ctx context.Context, code string) (*models.LookupResult, error) {
	c.form.SetManual(code)
	return c.Lookup(ctx, code)
}

// RandomPick opens the random modal with an unwatched LaserDisc.
func (c *Controller) RandomPick(ctx context.Context) (*models.CatalogItem, error) {
	item, err := c.api.RandomUnwatched(ctx)
	if errors.Is(err, shared.ErrNoUnwatched) {
		c.notifier.Notify(notify.Info, MsgNoUnwatched)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	c.modals.OpenRandom(*item)
	return item, nil
}

// MarkRandomWatched toggles the random pick and closes the modal.
func (c *Controller) MarkRandomWatched(ctx context.Context) error {
	item, ok := c.modals.Random()
	if !ok {
		return fmt.Errorf("%w: no random pick", shared.ErrInvalidInput)
	}
	_, err := c.ToggleWatched(ctx, item.ID)
	c.modals.Close()
	return err
}

// PickAnother replaces the random pick.
func (c *Controller) PickAnother(ctx context.Context) (*models.CatalogItem, error) {
	c.modals.Close()
	return c.RandomPick(ctx)
}

// Authenticate validates and stores an access token.
func (c *Controller) Authenticate(ctx context.Context, token string) error {
	if shared.NormalizeToken(token) == "" {
		c.notifier.Notify(notify.Error, MsgInvalidToken)
		return shared.ErrInvalidToken
	}

	canonical, err := c.api.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidToken) {
			c.notifier.Notify(notify.Error, MsgInvalidToken)
		} else {
			c.ReportError(err)
		}
		return err
	}

	c.mu.Lock()
	c.authRequired = false
	c.mu.Unlock()

	c.logger.Info("authenticated", "token", mask(canonical))
	c.notifier.Notify(notify.Success, MsgAuthenticated)
	return nil
}

// Logout forgets the stored token.
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.api.Logout(ctx); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}

	c.mu.Lock()
	c.authRequired = true
	c.mu.Unlock()

	c.modals.Close()
	c.notifier.Notify(notify.Info, MsgLoggedOut)
	return nil
}

// OpenScan opens the scan modal and starts the scanner. Start failures are already
// reported by the scanner UI.
func (c *Controller) OpenScan(ctx context.Context) error {
	c.modals.Open(ModalScan)
	if c.scanUI == nil {
		return shared.ErrEngineUnavailable
	}
	return c.scanUI.Start(ctx)
}

// modalClosed stops the scanner whenever the scan modal closes.
func (c *Controller) modalClosed(m Modal) {
	if m == ModalScan && c.scanUI != nil {
		c.scanUI.Stop()
	}
}

func (c *Controller) attachScanner() {
	if c.scanUI == nil {
		return
	}
	ctrl := c.scanUI.Controller()

	ctrl.SetHandlers(scanner.Handlers{
		Fill: c.form.SetManual,
		Lookup: func(code string) {
			res, err := c.Lookup(c.context(), code)
			if err != nil {
				c.logger.Debug("scan lookup failed", "code", code, "error", err)
			}
			c.changed()

			c.mu.Lock()
			hooks := append([]func(string, *models.LookupResult, error){}, c.scanLookups...)
			c.mu.Unlock()
			for _, fn := range hooks {
				fn(code, res, err)
			}
		},
	})

	ctrl.OnStreamEnded(func() {
		c.changed()
		c.mu.Lock()
		hooks := append([]func(string, *models.LookupResult, error){}, c.scanLookups...)
		c.mu.Unlock()
		for _, fn := range hooks {
			fn("", nil, shared.ErrScannerNotRunning)
		}
	})

	engine := ctrl.EngineName()
	ctrl.OnAccepted(func(ev scanner.DetectionEvent) {
		if c.scans != nil {
			rec := &models.ScanRecord{Code: ev.Code, Format: ev.Format, Confidence: ev.Confidence, Engine: engine, ScannedAt: ev.At}
			if err := c.scans.Create(context.WithoutCancel(c.context()), rec); err != nil {
				c.logger.Warn("failed to record scan", "code", ev.Code, "error", err)
			}
		}
		c.changed()
	})
}

// mask hides all but the last four characters of a token.
func mask(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}
