// Package notify implements transient user notifications.
//
// A [Center] holds at most one visible [Notification]; posting a new one replaces it.
// Notifications expire after a TTL and are pruned lazily by [Center.Current].
package notify

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 3 * time.Second

// Level is the severity of a notification.
type Level int

const (
	Info Level = iota
	Success
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Notification is a single message shown to the user.
type Notification struct {
	ID        string
	Level     Level
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the notification should no longer be shown at now.
func (n Notification) Expired(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}

// Notifier posts notifications. Implemented by [Center]; components depend on this interface.
type Notifier interface {
	Notify(level Level, message string)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(level Level, message string)

func (f NotifierFunc) Notify(level Level, message string) { f(level, message) }

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(Level, string) {})

// Confirmer asks the user a yes/no question before a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to [Confirmer].
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Center keeps the current notification and a bounded history.
type Center struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	current   *Notification
	history   []Notification
	maxLog    int
	listeners []func(Notification)
	logger    *log.Logger
}

// NewCenter creates a [Center] with the given TTL (DefaultTTL when zero).
func NewCenter(ttl time.Duration, logger *log.Logger) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{ttl: ttl, now: time.Now, maxLog: 50, logger: logger}
}

// Subscribe registers fn to be called for each posted notification.
func (c *Center) Subscribe(fn func(Notification)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Notify replaces the visible notification.
func (c *Center) Notify(level Level, message string) {
	c.mu.Lock()
	now := c.now()
	n := Notification{
		ID:        uuid.New().String(),
		Level:     level,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	c.current = &n
	c.history = append(c.history, n)
	if len(c.history) > c.maxLog {
		c.history = c.history[len(c.history)-c.maxLog:]
	}
	listeners := append([]func(Notification){}, c.listeners...)
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Debug("notification", "level", level, "message", message)
	}
	for _, fn := range listeners {
		fn(n)
	}
}

// Current returns the visible notification, if any, clearing it once expired.
func (c *Center) Current() (Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Notification{}, false
	}
	if c.current.Expired(c.now()) {
		c.current = nil
		return Notification{}, false
	}
	return *c.current, true
}

// Dismiss removes the visible notification if its id matches.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.ID == id {
		c.current = nil
	}
}

// History returns posted notifications, oldest first.
func (c *Center) History() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.history...)
}

// TTL returns the configured lifetime.
func (c *Center) TTL() time.Duration {
	return c.ttl
}
