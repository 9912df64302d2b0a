package scanner

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ldx/internal/notify"
	"github.com/desertthunder/ldx/internal/shared"
	"github.com/disintegration/imaging"
)

func mkdirs(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.MkdirAll(filepath.Join(root, n), 0755); err != nil {
			t.Fatalf("failed to create %s: %v", n, err)
		}
	}
}

func recv(t *testing.T, events <-chan DetectionEvent) DetectionEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatal("event stream closed")
		}
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return DetectionEvent{}
}

func TestConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg := DefaultConfig()

		if cfg.Constraints.Width != 640 || cfg.Constraints.Height != 480 || cfg.Constraints.FacingMode != "environment" {
			t.Errorf("unexpected constraints %+v", cfg.Constraints)
		}
		if cfg.Threshold != 80 || cfg.LookupDelay != 500*time.Millisecond || cfg.Frequency != 10 {
			t.Errorf("unexpected defaults %+v", cfg)
		}
		if cfg.Workers < 2 || !cfg.Locate {
			t.Errorf("unexpected worker settings %+v", cfg)
		}
		if len(cfg.Readers) != len(DefaultReaders) {
			t.Errorf("expected default readers, got %v", cfg.Readers)
		}
	})

	t.Run("From Config File", func(t *testing.T) {
		cfg := ConfigFrom(shared.ScannerConfig{
			Width:               1280,
			FacingMode:          "user",
			ConfidenceThreshold: 90,
			LookupDelayMS:       250,
			Readers:             []string{"ean_reader"},
			Workers:             1,
			OverlayPath:         "/tmp/overlay.png",
		})

		if cfg.Constraints.Width != 1280 || cfg.Constraints.Height != 480 || cfg.Constraints.FacingMode != "user" {
			t.Errorf("unexpected constraints %+v", cfg.Constraints)
		}
		if cfg.Threshold != 90 || cfg.LookupDelay != 250*time.Millisecond {
			t.Errorf("unexpected threshold or delay %+v", cfg)
		}
		if cfg.Workers != 2 {
			t.Errorf("expected workers floored at 2, got %d", cfg.Workers)
		}
		if cfg.Locate {
			t.Error("expected locate taken from config")
		}
		if cfg.OverlayPath != "/tmp/overlay.png" {
			t.Errorf("unexpected overlay path %q", cfg.OverlayPath)
		}
	})

	t.Run("Accepts", func(t *testing.T) {
		cfg := Config{Readers: []string{"ean_reader"}}
		tests := map[string]bool{"ean_13": true, "upc_a": true, "ean_8": false, "code_39": false, "": true}
		for format, want := range tests {
			if got := cfg.Accepts(format); got != want {
				t.Errorf("Accepts(%q) = %v, want %v", format, got, want)
			}
		}
		if !(Config{}).Accepts("codabar") {
			t.Error("expected no readers to accept everything")
		}
	})

	t.Run("FormatOf", func(t *testing.T) {
		tests := map[string]string{
			ean13:      "ean_13",
			upcA:       "upc_a",
			ean8:       "ean_8",
			"12345":    "code_128",
			"ABC-123":  "code_39",
			"ld-12a":   "code_128",
			"0 12345 6": "code_128",
		}
		for code, want := range tests {
			if got := FormatOf(code); got != want {
				t.Errorf("FormatOf(%q) = %q, want %q", code, got, want)
			}
		}
	})
}

func TestScannerUI(t *testing.T) {
	t.Run("Start Failure Messages", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			want string
		}{
			{"permission", shared.ErrPermissionDenied, MsgPermissionRequired},
			{"unsupported", shared.ErrCameraUnsupported, MsgCameraUnsupported},
			{"engine", shared.ErrEngineInit, MsgStartFailed},
			{"unavailable", shared.ErrEngineUnavailable, MsgStartFailed},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := StartErrorMessage(tt.err); got != tt.want {
					t.Errorf("expected %q, got %q", tt.want, got)
				}
			})
		}
	})

	t.Run("Start Failure Updates Status", func(t *testing.T) {
		center := notify.NewCenter(time.Minute, nil)
		ctrl := NewController(&FakeEngine{StartErr: errors.New("busy")}, NewStaticCamera("x"), DefaultConfig(), center, nil)
		ui := NewScannerUI(ctrl, center)

		if err := ui.Start(context.Background()); !errors.Is(err, shared.ErrEngineInit) {
			t.Fatalf("expected engine init error, got %v", err)
		}

		st := ui.Panel().State()
		if st.Kind != StatusError || !strings.HasPrefix(st.Status, "Error: ") {
			t.Errorf("expected error status, got %+v", st)
		}
		n, _ := center.Current()
		if n.Level != notify.Error || n.Message != MsgStartFailed {
			t.Errorf("unexpected notification %+v", n)
		}
	})

	t.Run("Start And Stop", func(t *testing.T) {
		ctrl := NewController(NewFakeEngine(), NewStaticCamera("x"), DefaultConfig(), nil, nil)
		ui := NewScannerUI(ctrl, nil)

		if err := ui.Start(context.Background()); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if st := ui.Panel().State(); st.Status != StatusRunning || st.Kind != StatusSuccess || !st.ShowStop {
			t.Errorf("expected running panel, got %+v", st)
		}

		ui.Stop()
		if st := ui.Panel().State(); st.Status != StatusStopped || !st.ShowStart {
			t.Errorf("expected stopped panel, got %+v", st)
		}
	})

	t.Run("Torch Unsupported", func(t *testing.T) {
		center := notify.NewCenter(time.Minute, nil)
		ctrl := NewController(NewFakeEngine(), NewStaticCamera("x"), DefaultConfig(), center, nil)
		ui := NewScannerUI(ctrl, center)

		if err := ui.ToggleTorch(context.Background()); !errors.Is(err, shared.ErrTorchUnsupported) {
			t.Errorf("expected ErrTorchUnsupported, got %v", err)
		}
		n, _ := center.Current()
		if n.Level != notify.Warning || n.Message != MsgTorchUnsupported {
			t.Errorf("unexpected notification %+v", n)
		}
	})

	t.Run("Torch Toggle", func(t *testing.T) {
		cam := NewStaticCamera("x")
		cam.HasTorch = true
		ui := NewScannerUI(NewController(NewFakeEngine(), cam, DefaultConfig(), nil, nil), nil)

		if err := ui.ToggleTorch(context.Background()); err != nil {
			t.Fatalf("ToggleTorch failed: %v", err)
		}
		if !cam.TorchOn("") || ui.Panel().State().Status != StatusTorchOn {
			t.Error("expected torch on")
		}
		if err := ui.ToggleTorch(context.Background()); err != nil {
			t.Fatalf("ToggleTorch failed: %v", err)
		}
		if cam.TorchOn("") || ui.Panel().State().Status != StatusTorchOff {
			t.Error("expected torch off")
		}
	})
}

func TestOverlay(t *testing.T) {
	same := func(a, b color.Color) bool {
		r1, g1, b1, _ := a.RGBA()
		r2, g2, b2, _ := b.RGBA()
		return r1 == r2 && g1 == g2 && b1 == b2
	}

	ev := DetectionEvent{
		Code:  upcA,
		Boxes: []Box{{{10, 10}, {30, 10}, {30, 30}, {10, 30}}, {{50, 50}, {90, 50}, {90, 90}, {50, 90}}},
		Box:   Box{{50, 50}, {90, 50}, {90, 90}, {50, 90}},
		Line:  []Point{{50, 70}, {90, 70}},
	}

	t.Run("Render", func(t *testing.T) {
		img := NewOverlay(100, 100, "").Render(ev)

		if !same(img.At(20, 10), CandidateColor) {
			t.Errorf("expected candidate box in green, got %v", img.At(20, 10))
		}
		if !same(img.At(60, 50), MainBoxColor) {
			t.Errorf("expected main box in blue, got %v", img.At(60, 50))
		}
		if !same(img.At(70, 70), ScanLineColor) {
			t.Errorf("expected scan line in red, got %v", img.At(70, 70))
		}
		if _, _, _, a := img.At(5, 5).RGBA(); a != 0 {
			t.Error("expected transparent background")
		}
	})

	t.Run("No Line Without Code", func(t *testing.T) {
		frameOnly := ev
		frameOnly.Code = ""
		img := NewOverlay(100, 100, "").Render(frameOnly)
		if same(img.At(70, 70), ScanLineColor) {
			t.Error("expected no scan line for an undecoded frame")
		}
	})

	t.Run("Draws Onto Frame", func(t *testing.T) {
		withFrame := ev
		withFrame.Frame = imaging.New(200, 150, color.White)
		img := NewOverlay(100, 100, "").Render(withFrame)
		if img.Bounds().Dx() != 200 || !same(img.At(150, 140), color.White) {
			t.Error("expected overlay drawn onto a copy of the frame")
		}
	})

	t.Run("Writes PNG", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out", "overlay.png")
		o := NewOverlay(100, 100, path)

		if err := o.Draw(ev); err != nil {
			t.Fatalf("Draw failed: %v", err)
		}
		img, err := imaging.Open(path)
		if err != nil {
			t.Fatalf("expected PNG written: %v", err)
		}
		if img.Bounds().Dx() != 100 || o.Frames() != 1 || o.Last() == nil {
			t.Error("unexpected overlay state")
		}
	})
}

func TestWedgeEngine(t *testing.T) {
	input := strings.NewReader(upcA + "\n\n  " + ean13 + " \r\n\x1b[2J" + ean8 + "\n")
	engine := NewWedgeEngine("-", input)

	events, err := engine.Start(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	first := recv(t, events)
	if first.Code != upcA || first.Confidence != 100 || first.Format != "upc_a" {
		t.Errorf("unexpected first event %+v", first)
	}
	if err := engine.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	events, err = engine.Start(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if ev := recv(t, events); ev.Code != ean13 || ev.Format != "ean_13" {
		t.Errorf("expected %s on the next session, got %+v", ean13, ev)
	}
	if ev := recv(t, events); ev.Code != "[2J"+ean8 {
		t.Errorf("expected escape character stripped, got %q", ev.Code)
	}

	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected stream closed at end of input")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream not closed at end of input")
	}
	engine.Stop()
}

func TestWedgeEngineMissingDevice(t *testing.T) {
	engine := NewWedgeEngine(filepath.Join(t.TempDir(), "ttyACM9"), nil)
	if _, err := engine.Start(context.Background(), DefaultConfig()); err == nil {
		t.Error("expected error opening missing device")
	}
}

func TestRemoteEngine(t *testing.T) {
	engine := NewRemoteEngine()
	ctx := context.Background()

	if err := engine.Submit(ctx, DetectionEvent{Code: upcA}); !errors.Is(err, shared.ErrScannerNotRunning) {
		t.Errorf("expected ErrScannerNotRunning when idle, got %v", err)
	}

	events, err := engine.Start(ctx, DefaultConfig())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !engine.Running() {
		t.Error("expected running")
	}
	if err := engine.Submit(ctx, DetectionEvent{Code: ean13, Confidence: 92}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	ev := recv(t, events)
	if ev.Code != ean13 || ev.Format != "ean_13" || ev.At.IsZero() {
		t.Errorf("unexpected event %+v", ev)
	}

	engine.Stop()
	if _, ok := <-events; ok {
		t.Error("expected stream closed on stop")
	}
	if err := engine.Submit(ctx, DetectionEvent{Code: upcA}); !errors.Is(err, shared.ErrScannerNotRunning) {
		t.Errorf("expected ErrScannerNotRunning after stop, got %v", err)
	}
}

func TestDirectoryCamera(t *testing.T) {
	t.Run("Subdirectories Are Devices", func(t *testing.T) {
		root := t.TempDir()
		mkdirs(t, root, "b", "a")
		cam := NewDirectoryCamera(root)

		if err := cam.RequestPermission(context.Background()); err != nil {
			t.Fatalf("RequestPermission failed: %v", err)
		}
		devices, err := cam.Devices(context.Background())
		if err != nil {
			t.Fatalf("Devices failed: %v", err)
		}
		if len(devices) != 2 || devices[0].ID != "a" {
			t.Errorf("unexpected devices %+v", devices)
		}
		if cam.Dir("a") != filepath.Join(root, "a") || cam.Dir("") != root {
			t.Error("unexpected device directories")
		}
	})

	t.Run("Root Fallback", func(t *testing.T) {
		root := t.TempDir()
		devices, err := NewDirectoryCamera(root).Devices(context.Background())
		if err != nil || len(devices) != 1 || devices[0].ID != "" {
			t.Errorf("expected root as the only device, got %+v (%v)", devices, err)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "frame.png")
		if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		for _, root := range []string{"", file, filepath.Join(t.TempDir(), "missing")} {
			err := NewDirectoryCamera(root).RequestPermission(context.Background())
			if !errors.Is(err, shared.ErrCameraUnsupported) {
				t.Errorf("root %q: expected ErrCameraUnsupported, got %v", root, err)
			}
		}
	})
}

func TestNewEngine(t *testing.T) {
	tests := []struct {
		engine string
		name   string
	}{
		{"", "wedge"},
		{"wedge", "wedge"},
		{"Remote", "remote"},
		{"demo", "demo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, cam, err := NewEngine(shared.ScannerConfig{Engine: tt.engine}, EngineOptions{Stdin: strings.NewReader("")})
			if err != nil {
				t.Fatalf("NewEngine failed: %v", err)
			}
			if engine.Name() != tt.name || cam == nil {
				t.Errorf("expected %s engine with a camera, got %s", tt.name, engine.Name())
			}
		})
	}

	t.Run("Shared Remote", func(t *testing.T) {
		remote := NewRemoteEngine()
		engine, _, err := NewEngine(shared.ScannerConfig{Engine: "remote"}, EngineOptions{Remote: remote})
		if err != nil || engine != remote {
			t.Errorf("expected the given remote engine, got %v (%v)", engine, err)
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		_, _, err := NewEngine(shared.ScannerConfig{Engine: "laser"}, EngineOptions{})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestDemoEngine(t *testing.T) {
	engine := NewDemoEngine(DemoCode)
	engine.Interval = 0
	if !shared.ValidGTIN(DemoCode) {
		t.Fatal("demo code must carry a valid check digit")
	}

	center := notify.NewCenter(time.Minute, nil)
	ctrl := NewController(engine, NewStaticCamera("demo"), DefaultConfig(), center, nil)
	got := make(chan string, 1)
	ctrl.SetHandlers(Handlers{Fill: func(code string) { got <- code }})

	if err := ctrl.StartScanning(context.Background()); err != nil {
		t.Fatalf("StartScanning failed: %v", err)
	}
	defer ctrl.StopScanning()

	select {
	case code := <-got:
		if code != DemoCode {
			t.Errorf("expected %s, got %s", DemoCode, code)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("demo scan not accepted")
	}
	if ctrl.Overlay().Frames() < 3 {
		t.Errorf("expected demo frames rendered, got %d", ctrl.Overlay().Frames())
	}
}

func TestPreprocess(t *testing.T) {
	src := imaging.New(1280, 960, color.White)
	src = imaging.Paste(src, imaging.New(400, 200, color.Black), image.Pt(100, 100))

	fitted := FitFrame(src, Constraints{Width: 640, Height: 480})
	if b := fitted.Bounds(); b.Dx() != 640 || b.Dy() != 480 {
		t.Errorf("expected frame fitted to 640x480, got %v", b)
	}
	if small := imaging.New(100, 100, color.White); FitFrame(small, Constraints{Width: 640, Height: 480}) != image.Image(small) {
		t.Error("expected small frames untouched")
	}

	out := Preprocess(fitted)
	if out.GrayAt(10, 10).Y != 255 || out.GrayAt(150, 100).Y != 0 {
		t.Errorf("expected binarized output, got %d and %d", out.GrayAt(10, 10).Y, out.GrayAt(150, 100).Y)
	}
}
