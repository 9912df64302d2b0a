package scanner

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Overlay stroke styles.
var (
	CandidateColor = mustHex("#00FF00")
	MainBoxColor   = mustHex("#0000FF")
	ScanLineColor  = mustHex("#FF0000")
)

const (
	boxWidth  = 2
	lineWidth = 3
)

func mustHex(s string) color.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Overlay draws detection feedback over frames.
//
// Candidate boxes are green, the main box blue, and the decoded scan line red.
// When a path is set every rendered frame is written there as PNG.
type Overlay struct {
	width, height int
	path          string

	mu     sync.Mutex
	last   *image.NRGBA
	frames int
}

// NewOverlay creates a renderer for frames of the given size.
func NewOverlay(width, height int, path string) *Overlay {
	return &Overlay{width: max(width, 1), height: max(height, 1), path: path}
}

// Render draws ev's boxes and line onto a copy of its frame, or onto a transparent canvas
// when the event carries no frame.
func (o *Overlay) Render(ev DetectionEvent) *image.NRGBA {
	var canvas *image.NRGBA
	if ev.Frame != nil {
		canvas = imaging.Clone(ev.Frame)
	} else {
		canvas = image.NewNRGBA(image.Rect(0, 0, o.width, o.height))
	}

	for _, box := range ev.Boxes {
		if ev.Box != nil && box.Equal(ev.Box) {
			continue
		}
		drawPath(canvas, box, true, CandidateColor, boxWidth)
	}
	if ev.Box != nil {
		drawPath(canvas, ev.Box, true, MainBoxColor, boxWidth)
	}
	if ev.Detected() && len(ev.Line) > 1 {
		drawPath(canvas, ev.Line, false, ScanLineColor, lineWidth)
	}
	return canvas
}

// Draw renders ev, keeps it as the latest overlay and writes it out when configured.
func (o *Overlay) Draw(ev DetectionEvent) error {
	img := o.Render(ev)

	o.mu.Lock()
	o.last = img
	o.frames++
	o.mu.Unlock()

	if o.path == "" {
		return nil
	}
	return o.save(img)
}

// Last returns the most recent overlay, or nil before the first frame.
func (o *Overlay) Last() image.Image {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		return nil
	}
	return o.last
}

// Frames counts rendered frames.
func (o *Overlay) Frames() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.frames
}

func (o *Overlay) save(img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(o.path), 0755); err != nil {
		return fmt.Errorf("failed to create overlay directory: %w", err)
	}

	tmp := o.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create overlay file: %w", err)
	}
	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode overlay: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close overlay file: %w", err)
	}
	return os.Rename(tmp, o.path)
}

// drawPath strokes the polyline through pts, closing it when closed is set.
func drawPath(img *image.NRGBA, pts []Point, closed bool, c color.Color, width int) {
	if len(pts) < 2 {
		return
	}
	for i := 1; i < len(pts); i++ {
		drawLine(img, pts[i-1], pts[i], c, width)
	}
	if closed {
		drawLine(img, pts[len(pts)-1], pts[0], c, width)
	}
}

// drawLine strokes a segment with a square brush of the given width.
func drawLine(img *image.NRGBA, a, b Point, c color.Color, width int) {
	steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
	half := width / 2
	for s := 0; s <= steps; s++ {
		t := 0.0
		if steps > 0 {
			t = float64(s) / float64(steps)
		}
		x := int(math.Round(a.X + t*(b.X-a.X)))
		y := int(math.Round(a.Y + t*(b.Y-a.Y)))
		for dy := -half; dy < width-half; dy++ {
			for dx := -half; dx < width-half; dx++ {
				p := image.Pt(x+dx, y+dy)
				if p.In(img.Rect) {
					img.Set(p.X, p.Y, c)
				}
			}
		}
	}
}
