package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ldx/internal/notify"
	"github.com/desertthunder/ldx/internal/shared"
	"github.com/google/uuid"
)

// Handlers receive accepted codes.
//
// Fill runs as soon as a code is accepted; Lookup runs after the configured delay.
type Handlers struct {
	Fill   func(code string)
	Lookup func(code string)
}

// Controller owns the scanning session.
type Controller struct {
	mu          sync.Mutex
	engine      Engine
	camera      Camera
	cfg         Config
	panel       *Panel
	overlay     *Overlay
	notifier    notify.Notifier
	logger      *log.Logger
	handlers    Handlers
	initialized bool
	active      bool
	session     string
	cancel      context.CancelFunc
	done        chan struct{}
	afterFunc   func(time.Duration, func()) *time.Timer
	onAccepted  func(DetectionEvent)
	onEnded     func()
}

// NewController creates a controller. A nil engine makes every start fail with
// [shared.ErrEngineUnavailable].
func NewController(engine Engine, camera Camera, cfg Config, notifier notify.Notifier, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if notifier == nil {
		notifier = notify.Discard
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}

	c := &Controller{
		engine:    engine,
		camera:    camera,
		cfg:       cfg,
		panel:     NewPanel(),
		notifier:  notifier,
		logger:    shared.WithLogger(logger, "component", "scanner"),
		afterFunc: time.AfterFunc,
	}
	if cfg.OverlayPath != "" || cfg.ShowCanvas {
		c.overlay = NewOverlay(cfg.Constraints.Width, cfg.Constraints.Height, cfg.OverlayPath)
	}
	return c
}

// SetHandlers sets the callbacks for accepted codes.
func (c *Controller) SetHandlers(h Handlers) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = h
}

// OnAccepted registers a hook that sees every accepted event, e.g. to record scan history.
func (c *Controller) OnAccepted(fn func(DetectionEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAccepted = fn
}

// OnStreamEnded registers a hook called when the engine closes a running session's stream.
func (c *Controller) OnStreamEnded(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEnded = fn
}

// Panel returns the view-model the controller keeps in sync.
func (c *Controller) Panel() *Panel { return c.panel }

// Overlay returns the overlay renderer, or nil when disabled.
func (c *Controller) Overlay() *Overlay { return c.overlay }

// Camera returns the camera in use.
func (c *Controller) Camera() Camera { return c.camera }

// EngineName names the decoding engine, or "" when none is configured.
func (c *Controller) EngineName() string {
	if c.engine == nil {
		return ""
	}
	return c.engine.Name()
}

// Config returns the current session config.
func (c *Controller) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// IsActive reports whether a session is running.
func (c *Controller) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Initialize acquires camera permission. It succeeds once and is a no-op afterwards.
func (c *Controller) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initializeLocked(ctx)
}

func (c *Controller) initializeLocked(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if c.engine == nil {
		return shared.ErrEngineUnavailable
	}
	if c.camera == nil {
		return shared.ErrCameraUnsupported
	}
	if err := c.camera.RequestPermission(ctx); err != nil {
		c.logger.Error("camera permission denied", "error", err)
		if errors.Is(err, shared.ErrCameraUnsupported) || errors.Is(err, shared.ErrPermissionDenied) {
			return err
		}
		return fmt.Errorf("%w: %w", shared.ErrPermissionDenied, err)
	}
	c.initialized = true
	return nil
}

// StartScanning starts a session. Calling it while a session runs does nothing.
//
// The session outlives ctx's deadline; it ends with StopScanning, an accepted detection,
// or the engine closing its stream.
func (c *Controller) StartScanning(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		c.logger.Info("scanner already running")
		return nil
	}
	if err := c.initializeLocked(ctx); err != nil {
		return err
	}

	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	events, err := c.engine.Start(sessionCtx, c.cfg)
	if err != nil {
		cancel()
		c.logger.Error("engine initialization failed", "engine", c.engine.Name(), "error", err)
		return fmt.Errorf("%w: %w", shared.ErrEngineInit, err)
	}

	c.session = uuid.NewString()
	c.active = true
	c.cancel = cancel
	c.done = make(chan struct{})
	c.panel.SetScanning(true)

	go c.consume(c.session, events, c.done)

	c.logger.Info("scanner started", "engine", c.engine.Name(), "session", c.session, "device", c.cfg.Constraints.DeviceID)
	return nil
}

// StopScanning ends the session and waits for its event consumer to exit. It does nothing when idle.
func (c *Controller) StopScanning() {
	c.mu.Lock()
	done := c.stopLocked()
	c.mu.Unlock()

	if done != nil {
		<-done
	}
}

// stopLocked halts the engine and resets the panel. It returns the session's done channel,
// or nil when no session was running.
func (c *Controller) stopLocked() chan struct{} {
	if !c.active {
		return nil
	}

	c.active = false
	c.cancel()
	if err := c.engine.Stop(); err != nil {
		c.logger.Warn("error stopping engine", "error", err)
	}
	c.panel.Stopped()
	c.logger.Info("barcode scanning stopped", "session", c.session)

	done := c.done
	c.done = nil
	return done
}

// SwitchCamera restarts scanning on deviceID.
func (c *Controller) SwitchCamera(ctx context.Context, deviceID string) error {
	c.StopScanning()

	c.mu.Lock()
	c.cfg.Constraints.DeviceID = deviceID
	c.mu.Unlock()

	if err := c.StartScanning(ctx); err != nil {
		c.logger.Error("failed to switch camera", "device", deviceID, "error", err)
		return err
	}
	return nil
}

// Devices describes the available cameras.
func (c *Controller) Devices(ctx context.Context) CameraInfo {
	return describe(ctx, c.camera)
}

// consume reads one session's events until the stream closes or the session ends.
// A stream the engine closes on its own ends the session.
func (c *Controller) consume(session string, events <-chan DetectionEvent, done chan struct{}) {
	defer close(done)

	for ev := range events {
		if !c.isCurrent(session) {
			return
		}
		if c.overlay != nil && (ev.Frame != nil || len(ev.Boxes) > 0 || ev.Box != nil) {
			if err := c.overlay.Draw(ev); err != nil {
				c.logger.Warn("failed to render overlay", "error", err)
			}
		}
		if !ev.Detected() {
			continue
		}
		if c.handleDetection(session, ev) {
			return
		}
	}

	c.mu.Lock()
	if !c.active || c.session != session {
		c.mu.Unlock()
		return
	}
	c.logger.Warn("decoding engine stream ended without a detection", "engine", c.engine.Name(), "session", session)
	c.stopLocked()
	ended := c.onEnded
	c.mu.Unlock()

	if ended != nil {
		ended()
	}
}

func (c *Controller) isCurrent(session string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active && c.session == session
}

// handleDetection accepts ev when it clears the threshold and reports whether the session ended.
func (c *Controller) handleDetection(session string, ev DetectionEvent) bool {
	c.mu.Lock()
	if !c.active || c.session != session {
		c.mu.Unlock()
		return true
	}

	c.logger.Debug("barcode detected", "code", ev.Code, "confidence", ev.Confidence, "format", ev.Format)
	if ev.Confidence < c.cfg.Threshold {
		c.logger.Debug("low confidence detection, continuing scan", "confidence", ev.Confidence)
		c.mu.Unlock()
		return false
	}
	if !c.cfg.Accepts(ev.Format) {
		c.logger.Debug("detection format not enabled, continuing scan", "format", ev.Format)
		c.mu.Unlock()
		return false
	}

	c.stopLocked()
	handlers, accepted, delay, after := c.handlers, c.onAccepted, c.cfg.LookupDelay, c.afterFunc
	c.mu.Unlock()

	code := ev.Code
	c.notifier.Notify(notify.Success, "✅ Barcode detected: "+code)
	if accepted != nil {
		accepted(ev)
	}
	if handlers.Fill != nil {
		handlers.Fill(code)
	}
	if handlers.Lookup != nil {
		after(delay, func() { handlers.Lookup(code) })
	}
	return true
}
