package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/desertthunder/ldx/internal/shared"
)

// RemoteEngine receives detections from a paired device through [RemoteEngine.Submit].
type RemoteEngine struct {
	mu     sync.Mutex
	events chan DetectionEvent
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRemoteEngine creates an idle remote engine.
func NewRemoteEngine() *RemoteEngine {
	return &RemoteEngine{}
}

func (r *RemoteEngine) Name() string { return "remote" }

func (r *RemoteEngine) Start(ctx context.Context, _ Config) (<-chan DetectionEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.closeLocked()
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.events = make(chan DetectionEvent, 8)

	go func(ctx context.Context) {
		<-ctx.Done()
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.ctx == ctx {
			r.closeLocked()
		}
	}(r.ctx)

	return r.events, nil
}

func (r *RemoteEngine) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.closeLocked()
	}
	return nil
}

func (r *RemoteEngine) closeLocked() {
	r.cancel()
	close(r.events)
	r.ctx, r.cancel, r.events = nil, nil, nil
}

// Running reports whether a session is accepting detections.
func (r *RemoteEngine) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events != nil
}

// Submit delivers a detection to the running session.
//
// Returns [shared.ErrScannerNotRunning] when no session is open.
func (r *RemoteEngine) Submit(ctx context.Context, ev DetectionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.events == nil {
		return shared.ErrScannerNotRunning
	}
	if ev.Format == "" {
		ev.Format = FormatOf(ev.Code)
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	select {
	case r.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ctx.Done():
		return shared.ErrScannerNotRunning
	}
}
