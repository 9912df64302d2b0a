package scanner

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ldx/internal/shared"
)

// DemoCode is the product code read by the demo engine.
const DemoCode = "013131028690"

// Engines lists the engine names accepted by [NewEngine].
var Engines = []string{"wedge", "remote", "ocr", "demo"}

// EngineOptions carry the dependencies an engine may need.
type EngineOptions struct {
	// Stdin backs the wedge engine when its device is "-".
	Stdin io.Reader
	// Remote is reused by the remote engine so that a server can submit to it.
	Remote *RemoteEngine
	Logger *log.Logger
}

// NewEngine builds the engine named by sc.Engine along with the camera it scans through.
func NewEngine(sc shared.ScannerConfig, opts EngineOptions) (Engine, Camera, error) {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}

	switch strings.ToLower(strings.TrimSpace(sc.Engine)) {
	case "", "wedge":
		return NewWedgeEngine(sc.Device, opts.Stdin), NewStaticCamera("Barcode scanner"), nil
	case "remote":
		remote := opts.Remote
		if remote == nil {
			remote = NewRemoteEngine()
		}
		return remote, NewStaticCamera("Paired phone"), nil
	case "ocr":
		dir, err := shared.ExpandPath(sc.FramesDir)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid frames directory: %w", err)
		}
		rec, err := NewTesseractRecognizer("eng")
		if err != nil {
			return nil, nil, err
		}
		cam := NewDirectoryCamera(dir)
		return NewOCREngine(cam, rec, opts.Logger), cam, nil
	case "demo":
		cam := NewStaticCamera("Demo camera")
		cam.HasTorch = true
		return NewDemoEngine(DemoCode), cam, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown scanner engine %q (want one of %s)",
			shared.ErrInvalidConfig, sc.Engine, strings.Join(Engines, ", "))
	}
}
