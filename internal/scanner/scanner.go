package scanner

import (
	"context"
	"image"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/ldx/internal/shared"
)

// DefaultThreshold is the minimum confidence for accepting a detection.
const DefaultThreshold = 80

// Point is a coordinate in frame pixels.
type Point struct {
	X, Y float64
}

// Box is a polygon outlining a barcode candidate.
type Box []Point

// Equal reports whether b and o have the same vertices.
func (b Box) Equal(o Box) bool {
	return slices.Equal(b, o)
}

// DetectionEvent is one result from an engine.
//
// An event with an empty Code is a processed frame: it carries candidate boxes for the
// overlay but no decoded value.
type DetectionEvent struct {
	Code       string
	Confidence float64
	Format     string
	Boxes      []Box
	Box        Box
	Line       []Point
	Frame      image.Image
	At         time.Time
}

// Detected reports whether the event decoded a value.
func (e DetectionEvent) Detected() bool {
	return e.Code != ""
}

// Constraints are the camera settings requested from the device.
type Constraints struct {
	Width      int
	Height     int
	FacingMode string
	DeviceID   string
}

// Config is the decoder configuration for a scanning session.
type Config struct {
	Constraints Constraints
	Readers     []string
	Workers     int
	Frequency   int
	Locate      bool
	ShowCanvas  bool
	OverlayPath string
	Threshold   float64
	LookupDelay time.Duration
}

// readerFormats maps reader names to the formats they decode.
var readerFormats = map[string][]string{
	"ean_reader":      {"ean_13", "upc_a"},
	"ean_8_reader":    {"ean_8"},
	"code_128_reader": {"code_128"},
	"code_39_reader":  {"code_39"},
	"codabar_reader":  {"codabar"},
	"upc_reader":      {"upc_a"},
}

// DefaultReaders lists the symbologies enabled by default.
var DefaultReaders = []string{"ean_reader", "ean_8_reader", "code_128_reader", "code_39_reader", "codabar_reader"}

// DefaultConfig returns 640x480 on the rear camera, the default readers, and one worker per CPU.
func DefaultConfig() Config {
	return Config{
		Constraints: Constraints{Width: 640, Height: 480, FacingMode: "environment"},
		Readers:     slices.Clone(DefaultReaders),
		Workers:     max(runtime.NumCPU(), 2),
		Frequency:   10,
		Locate:      true,
		ShowCanvas:  true,
		Threshold:   DefaultThreshold,
		LookupDelay: 500 * time.Millisecond,
	}
}

// ConfigFrom builds a session config from the scanner section of the config file.
// Zero values keep the defaults.
func ConfigFrom(sc shared.ScannerConfig) Config {
	cfg := DefaultConfig()
	if sc.Width > 0 {
		cfg.Constraints.Width = sc.Width
	}
	if sc.Height > 0 {
		cfg.Constraints.Height = sc.Height
	}
	if sc.FacingMode != "" {
		cfg.Constraints.FacingMode = sc.FacingMode
	}
	if len(sc.Readers) > 0 {
		cfg.Readers = slices.Clone(sc.Readers)
	}
	if sc.Workers > 0 {
		cfg.Workers = max(sc.Workers, 2)
	}
	if sc.Frequency > 0 {
		cfg.Frequency = sc.Frequency
	}
	if sc.ConfidenceThreshold > 0 {
		cfg.Threshold = sc.ConfidenceThreshold
	}
	if sc.LookupDelayMS > 0 {
		cfg.LookupDelay = sc.LookupDelay()
	}
	cfg.Locate = sc.Locate
	cfg.OverlayPath = sc.OverlayPath
	return cfg
}

// Accepts reports whether a detection in format is decoded by one of the configured readers.
// Engines that cannot tell the format report "", which is always accepted.
func (c Config) Accepts(format string) bool {
	if format == "" || len(c.Readers) == 0 {
		return true
	}
	for _, r := range c.Readers {
		if slices.Contains(readerFormats[r], format) {
			return true
		}
	}
	return false
}

// FormatOf guesses the symbology of a decoded value from its shape.
func FormatOf(code string) string {
	if shared.IsNumericCode(code) {
		switch len(shared.CleanCode(code)) {
		case 13:
			return "ean_13"
		case 12:
			return "upc_a"
		case 8:
			return "ean_8"
		}
		return "code_128"
	}
	if strings.IndexFunc(code, func(r rune) bool { return r >= 'a' && r <= 'z' }) >= 0 {
		return "code_128"
	}
	return "code_39"
}

// Engine decodes barcodes for one session at a time.
//
// Start begins a session and returns its event stream. The stream is closed when the
// session ends, either by Stop or by cancellation of ctx. Engines never block sending on a
// cancelled session.
type Engine interface {
	Name() string
	Start(ctx context.Context, cfg Config) (<-chan DetectionEvent, error)
	Stop() error
}
