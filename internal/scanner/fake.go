package scanner

import (
	"context"
	"errors"
	"sync"
	"time"
)

// FakeEngine plays scripted events. Used by tests and the demo engine.
type FakeEngine struct {
	// Script is replayed at the start of every session, Interval apart.
	Script   []DetectionEvent
	Interval time.Duration
	// StartErr makes Start fail.
	StartErr error

	mu      sync.Mutex
	events  chan DetectionEvent
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	starts  int
	stops   int
	running bool
	lastCfg Config
}

// NewFakeEngine creates an engine replaying script.
func NewFakeEngine(script ...DetectionEvent) *FakeEngine {
	return &FakeEngine{Script: script}
}

// NewDemoEngine scripts a short scan: two processed frames, a low confidence read, then a
// confident read of code.
func NewDemoEngine(code string) *FakeEngine {
	box := Box{{220, 180}, {420, 180}, {420, 300}, {220, 300}}
	return &FakeEngine{
		Interval: 400 * time.Millisecond,
		Script: []DetectionEvent{
			{Boxes: []Box{{{100, 100}, {180, 100}, {180, 160}, {100, 160}}}},
			{Boxes: []Box{box}, Box: box},
			{Code: code, Confidence: 55, Format: FormatOf(code), Box: box},
			{Code: code, Confidence: 96, Format: FormatOf(code), Box: box, Boxes: []Box{box}, Line: []Point{{220, 240}, {420, 240}}},
		},
	}
}

func (f *FakeEngine) Name() string { return "demo" }

func (f *FakeEngine) Start(ctx context.Context, cfg Config) (<-chan DetectionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.starts++
	f.lastCfg = cfg
	if f.StartErr != nil {
		return nil, f.StartErr
	}
	if f.running {
		return nil, errors.New("fake engine already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	events := make(chan DetectionEvent)
	f.events, f.cancel, f.running = events, cancel, true

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer close(events)
		for i, ev := range f.Script {
			if i > 0 && f.Interval > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(f.Interval):
				}
			}
			if ev.At.IsZero() {
				ev.At = time.Now()
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return events, nil
}

func (f *FakeEngine) Stop() error {
	f.mu.Lock()
	cancel := f.cancel
	wasRunning := f.running
	f.running, f.cancel, f.events = false, nil, nil
	if wasRunning {
		f.stops++
	}
	f.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	f.wg.Wait()
	return nil
}

// Running reports whether a session is open.
func (f *FakeEngine) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// Starts counts calls to Start.
func (f *FakeEngine) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

// Stops counts sessions stopped.
func (f *FakeEngine) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

// LastConfig returns the config of the latest Start.
func (f *FakeEngine) LastConfig() Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCfg
}
