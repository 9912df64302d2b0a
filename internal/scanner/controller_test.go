package scanner

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/ldx/internal/notify"
	"github.com/desertthunder/ldx/internal/shared"
)

const (
	upcA  = "012345678905"
	ean13 = "4006381333931"
	ean8  = "96385074"
)

type lookups struct {
	mu     sync.Mutex
	filled []string
	looked []string
	delays []time.Duration
	done   chan string
}

func newLookups() *lookups {
	return &lookups{done: make(chan string, 4)}
}

func (l *lookups) handlers() Handlers {
	return Handlers{
		Fill: func(code string) {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.filled = append(l.filled, code)
		},
		Lookup: func(code string) {
			l.mu.Lock()
			l.looked = append(l.looked, code)
			l.mu.Unlock()
			l.done <- code
		},
	}
}

func (l *lookups) after(d time.Duration, f func()) *time.Timer {
	l.mu.Lock()
	l.delays = append(l.delays, d)
	l.mu.Unlock()
	f()
	return nil
}

func (l *lookups) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.looked)
}

func newTestController(t *testing.T, engine Engine) (*Controller, *lookups, *notify.Center) {
	t.Helper()
	center := notify.NewCenter(time.Minute, nil)
	cfg := DefaultConfig()
	cfg.ShowCanvas = true
	ctrl := NewController(engine, NewStaticCamera("test"), cfg, center, nil)
	l := newLookups()
	ctrl.SetHandlers(l.handlers())
	ctrl.afterFunc = l.after
	t.Cleanup(ctrl.StopScanning)
	return ctrl, l, center
}

// countingEngine counts Start calls on the engine it wraps.
type countingEngine struct {
	Engine
	starts atomic.Int32
}

func (e *countingEngine) Start(ctx context.Context, cfg Config) (<-chan DetectionEvent, error) {
	e.starts.Add(1)
	return e.Engine.Start(ctx, cfg)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func frame() DetectionEvent {
	return DetectionEvent{Boxes: []Box{{{1, 1}, {5, 1}, {5, 5}, {1, 5}}}}
}

func TestController(t *testing.T) {
	t.Run("Accepts Confident Detection Once", func(t *testing.T) {
		engine := NewFakeEngine(
			DetectionEvent{Code: upcA, Confidence: 55, Format: "upc_a"},
			DetectionEvent{Code: upcA, Confidence: 96, Format: "upc_a"},
			DetectionEvent{Code: ean13, Confidence: 99, Format: "ean_13"},
		)
		ctrl, l, center := newTestController(t, engine)

		var accepted []DetectionEvent
		ctrl.OnAccepted(func(ev DetectionEvent) { accepted = append(accepted, ev) })

		if err := ctrl.StartScanning(context.Background()); err != nil {
			t.Fatalf("StartScanning failed: %v", err)
		}

		select {
		case code := <-l.done:
			if code != upcA {
				t.Errorf("expected lookup of %s, got %s", upcA, code)
			}
		case <-time.After(3 * time.Second):
			t.Fatal("lookup was not triggered")
		}

		time.Sleep(50 * time.Millisecond)
		if l.count() != 1 {
			t.Errorf("expected exactly one lookup, got %d", l.count())
		}
		if ctrl.IsActive() {
			t.Error("expected scanning to stop after an accepted detection")
		}
		if engine.Stops() != 1 {
			t.Errorf("expected engine stopped once, got %d", engine.Stops())
		}
		if len(l.filled) != 1 || l.filled[0] != upcA {
			t.Errorf("expected manual entry filled with %s, got %v", upcA, l.filled)
		}
		if len(l.delays) != 1 || l.delays[0] != 500*time.Millisecond {
			t.Errorf("expected lookup after 500ms, got %v", l.delays)
		}
		if len(accepted) != 1 || accepted[0].Confidence != 96 {
			t.Errorf("expected one accepted event at confidence 96, got %+v", accepted)
		}

		n, ok := center.Current()
		if !ok || n.Level != notify.Success || n.Message != "✅ Barcode detected: "+upcA {
			t.Errorf("unexpected notification %+v", n)
		}
		if st := ctrl.Panel().State(); st.Status != StatusStopped || !st.ShowStart || st.ShowStop {
			t.Errorf("expected stopped panel, got %+v", st)
		}
	})

	t.Run("Threshold Is Inclusive", func(t *testing.T) {
		engine := NewFakeEngine(DetectionEvent{Code: upcA, Confidence: DefaultThreshold, Format: "upc_a"})
		ctrl, l, _ := newTestController(t, engine)

		if err := ctrl.StartScanning(context.Background()); err != nil {
			t.Fatalf("StartScanning failed: %v", err)
		}
		waitFor(t, "lookup", func() bool { return l.count() == 1 })
	})

	t.Run("Low Confidence Keeps Scanning", func(t *testing.T) {
		low := frame()
		low.Code, low.Confidence, low.Format = upcA, 79.9, "upc_a"
		engine := NewFakeEngine(low, frame())
		ctrl, l, center := newTestController(t, engine)

		if err := ctrl.StartScanning(context.Background()); err != nil {
			t.Fatalf("StartScanning failed: %v", err)
		}
		waitFor(t, "both frames", func() bool { return ctrl.Overlay().Frames() == 2 })

		if !ctrl.IsActive() {
			t.Error("expected scanning to continue")
		}
		if l.count() != 0 {
			t.Errorf("expected no lookup, got %d", l.count())
		}
		if len(center.History()) != 0 {
			t.Errorf("expected no notifications, got %+v", center.History())
		}
	})

	t.Run("Ignores Disabled Formats", func(t *testing.T) {
		cfgEngine := NewFakeEngine(
			DetectionEvent{Code: "ABC-123", Confidence: 99, Format: "code_39"},
			frame(),
		)
		ctrl, l, _ := newTestController(t, cfgEngine)
		ctrl.cfg.Readers = []string{"ean_8_reader"}

		if err := ctrl.StartScanning(context.Background()); err != nil {
			t.Fatalf("StartScanning failed: %v", err)
		}
		waitFor(t, "frame", func() bool { return ctrl.Overlay().Frames() == 1 })

		if !ctrl.IsActive() || l.count() != 0 {
			t.Error("expected code_39 detection to be ignored")
		}
		if got := cfgEngine.LastConfig().Readers; len(got) != 1 || got[0] != "ean_8_reader" {
			t.Errorf("expected readers passed to engine, got %v", got)
		}
	})

	t.Run("Start Is Idempotent", func(t *testing.T) {
		engine := NewFakeEngine()
		ctrl, _, _ := newTestController(t, engine)

		for range 3 {
			if err := ctrl.StartScanning(context.Background()); err != nil {
				t.Fatalf("StartScanning failed: %v", err)
			}
		}
		if engine.Starts() != 1 {
			t.Errorf("expected one engine start, got %d", engine.Starts())
		}
		if !engine.Running() || !ctrl.IsActive() {
			t.Error("expected running session")
		}
		if st := ctrl.Panel().State(); !st.ShowStop || !st.ShowTorch || st.ShowStart {
			t.Errorf("expected scanning controls, got %+v", st)
		}
	})

	t.Run("Stop Is Idempotent", func(t *testing.T) {
		engine := NewFakeEngine()
		ctrl, _, _ := newTestController(t, engine)

		ctrl.StopScanning()
		if engine.Stops() != 0 {
			t.Errorf("expected stop on idle scanner to do nothing, got %d stops", engine.Stops())
		}

		if err := ctrl.StartScanning(context.Background()); err != nil {
			t.Fatalf("StartScanning failed: %v", err)
		}
		ctrl.StopScanning()
		ctrl.StopScanning()

		if engine.Stops() != 1 {
			t.Errorf("expected one stop, got %d", engine.Stops())
		}
		if engine.Running() {
			t.Error("expected engine halted")
		}
		if st := ctrl.Panel().State(); st.Placeholder != "📷 Camera stopped" || st.Status != StatusStopped {
			t.Errorf("expected stopped placeholder, got %+v", st)
		}
	})

	t.Run("Engine Stream Closed Ends Session", func(t *testing.T) {
		engine := &countingEngine{Engine: NewWedgeEngine("-", strings.NewReader(""))}
		ctrl, l, _ := newTestController(t, engine)
		var ended atomic.Int32
		ctrl.OnStreamEnded(func() { ended.Add(1) })

		if err := ctrl.StartScanning(context.Background()); err != nil {
			t.Fatalf("StartScanning failed: %v", err)
		}
		waitFor(t, "session to end", func() bool { return !ctrl.IsActive() })

		if st := ctrl.Panel().State(); !st.ShowStart || st.ShowStop || st.ShowTorch {
			t.Errorf("expected idle controls, got %+v", st)
		}
		waitFor(t, "stream ended hook", func() bool { return ended.Load() == 1 })

		if err := ctrl.StartScanning(context.Background()); err != nil {
			t.Fatalf("second StartScanning failed: %v", err)
		}
		if engine.starts.Load() != 2 {
			t.Errorf("expected the engine started again, got %d starts", engine.starts.Load())
		}
		waitFor(t, "second session to end", func() bool { return !ctrl.IsActive() })
		if l.count() != 0 {
			t.Errorf("expected no lookup, got %d", l.count())
		}
	})

	t.Run("Switch Camera", func(t *testing.T) {
		engine := NewFakeEngine()
		ctrl, _, _ := newTestController(t, engine)

		if err := ctrl.StartScanning(context.Background()); err != nil {
			t.Fatalf("StartScanning failed: %v", err)
		}
		if err := ctrl.SwitchCamera(context.Background(), "rear"); err != nil {
			t.Fatalf("SwitchCamera failed: %v", err)
		}

		if engine.Starts() != 2 || engine.Stops() != 1 {
			t.Errorf("expected restart, got %d starts and %d stops", engine.Starts(), engine.Stops())
		}
		if got := engine.LastConfig().Constraints.DeviceID; got != "rear" {
			t.Errorf("expected device rear, got %q", got)
		}
		if !ctrl.IsActive() {
			t.Error("expected scanning after switch")
		}
	})

	t.Run("Start Errors", func(t *testing.T) {
		tests := []struct {
			name   string
			engine Engine
			camera Camera
			want   error
		}{
			{name: "no engine", engine: nil, camera: NewStaticCamera("x"), want: shared.ErrEngineUnavailable},
			{name: "no camera", engine: NewFakeEngine(), camera: nil, want: shared.ErrCameraUnsupported},
			{
				name:   "missing frames directory",
				engine: NewFakeEngine(),
				camera: NewDirectoryCamera(filepath.Join(t.TempDir(), "missing")),
				want:   shared.ErrCameraUnsupported,
			},
			{
				name:   "engine failure",
				engine: &FakeEngine{StartErr: errors.New("device busy")},
				camera: NewStaticCamera("x"),
				want:   shared.ErrEngineInit,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ctrl := NewController(tt.engine, tt.camera, DefaultConfig(), nil, nil)
				err := ctrl.StartScanning(context.Background())
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				if ctrl.IsActive() {
					t.Error("expected no session after failure")
				}
			})
		}
	})

	t.Run("Devices", func(t *testing.T) {
		root := t.TempDir()
		mkdirs(t, root, "front", "back")

		ctrl := NewController(NewFakeEngine(), NewDirectoryCamera(root), DefaultConfig(), nil, nil)
		info := ctrl.Devices(context.Background())

		if !info.HasCamera || info.Count != 2 {
			t.Fatalf("expected two cameras, got %+v", info)
		}
		if info.Devices[0].ID != "back" || info.Devices[0].Label != "Camera 1" {
			t.Errorf("unexpected first device %+v", info.Devices[0])
		}
		if info.Devices[1].Label != "Camera 2" {
			t.Errorf("unexpected second device %+v", info.Devices[1])
		}
	})
}
