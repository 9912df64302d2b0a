package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ldx/internal/shared"
	"github.com/disintegration/imaging"
	"golang.org/x/time/rate"
)

// Word is one OCR result with its confidence on a 0-100 scale.
type Word struct {
	Text       string
	Confidence float64
	Bounds     image.Rectangle
}

// Recognizer reads words from an image. Implementations must be safe for concurrent use.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]Word, error)
}

// RecognizerFunc adapts a function to [Recognizer].
type RecognizerFunc func(ctx context.Context, img image.Image) ([]Word, error)

func (f RecognizerFunc) Recognize(ctx context.Context, img image.Image) ([]Word, error) {
	return f(ctx, img)
}

// Candidate is a product code read from the digits printed under a barcode.
type Candidate struct {
	Code       string
	Confidence float64
	Bounds     image.Rectangle
}

// CodesFromWords joins runs of adjacent numeric words on the same line and keeps the ones
// that form a product code with a valid check digit. The confidence of a run is that of its
// weakest word. Longer codes come first, then more confident ones.
func CodesFromWords(words []Word) []Candidate {
	best := map[string]Candidate{}

	for _, run := range numericRuns(words) {
		for i := range run {
			digits := ""
			conf := 100.0
			bounds := image.Rectangle{}
			for j := i; j < len(run); j++ {
				digits += shared.CleanCode(run[j].Text)
				conf = min(conf, run[j].Confidence)
				bounds = bounds.Union(run[j].Bounds)
				if len(digits) > 14 {
					break
				}
				if len(digits) == 14 || !shared.ValidGTIN(digits) {
					continue
				}
				if prev, ok := best[digits]; !ok || prev.Confidence < conf {
					best[digits] = Candidate{Code: digits, Confidence: conf, Bounds: bounds}
				}
			}
		}
	}

	out := make([]Candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Code) != len(out[j].Code) {
			return len(out[i].Code) > len(out[j].Code)
		}
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// numericRuns splits words into runs of consecutive numeric words sharing a line.
func numericRuns(words []Word) [][]Word {
	var runs [][]Word
	var cur []Word

	flush := func() {
		if len(cur) > 0 {
			runs = append(runs, cur)
		}
		cur = nil
	}

	for _, w := range words {
		if !shared.IsNumericCode(w.Text) {
			flush()
			continue
		}
		if len(cur) > 0 && !sameLine(cur[len(cur)-1].Bounds, w.Bounds) {
			flush()
		}
		cur = append(cur, w)
	}
	flush()
	return runs
}

func sameLine(a, b image.Rectangle) bool {
	if a.Empty() || b.Empty() {
		return true
	}
	mid := (b.Min.Y + b.Max.Y) / 2
	return mid >= a.Min.Y && mid <= a.Max.Y
}

// rectBox converts a rectangle to a four point box.
func rectBox(r image.Rectangle) Box {
	x0, y0, x1, y1 := float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X), float64(r.Max.Y)
	return Box{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

// OCREngine decodes the printed digits of barcodes in frames written to a [DirectoryCamera].
type OCREngine struct {
	camera     *DirectoryCamera
	recognizer Recognizer
	logger     *log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOCREngine creates an engine reading frames from camera.
func NewOCREngine(camera *DirectoryCamera, recognizer Recognizer, logger *log.Logger) *OCREngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &OCREngine{camera: camera, recognizer: recognizer, logger: shared.WithLogger(logger, "engine", "ocr")}
}

func (e *OCREngine) Name() string { return "ocr" }

// Start watches the selected device's directory and processes frames on cfg.Workers
// goroutines, at most cfg.Frequency frames per second.
func (e *OCREngine) Start(ctx context.Context, cfg Config) (<-chan DetectionEvent, error) {
	if e.recognizer == nil {
		return nil, shared.ErrEngineUnavailable
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return nil, errors.New("ocr engine already running")
	}

	dir := e.camera.Dir(cfg.Constraints.DeviceID)
	watcher, err := NewFrameWatcher(dir, e.logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	limit := rate.Inf
	if cfg.Frequency > 0 {
		limit = rate.Limit(cfg.Frequency)
	}
	limiter := rate.NewLimiter(limit, 1)

	paths := make(chan string)
	events := make(chan DetectionEvent)
	go watcher.Run(ctx, paths)

	var workers sync.WaitGroup
	for range max(cfg.Workers, 1) {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for path := range paths {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				ev, err := e.process(ctx, path, cfg)
				if err != nil {
					e.logger.Warn("failed to process frame", "path", path, "error", err)
					continue
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		workers.Wait()
		close(events)
	}()

	e.logger.Info("watching frames", "dir", dir, "workers", max(cfg.Workers, 1), "frequency", cfg.Frequency)
	return events, nil
}

func (e *OCREngine) Stop() error {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
	return nil
}

// process reads one frame. Frames without a code still yield an event carrying the numeric
// words as candidate boxes.
func (e *OCREngine) process(ctx context.Context, path string, cfg Config) (DetectionEvent, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return DetectionEvent{}, fmt.Errorf("failed to open frame: %w", err)
	}

	frame := FitFrame(img, cfg.Constraints)
	words, err := e.recognizer.Recognize(ctx, Preprocess(frame))
	if err != nil {
		return DetectionEvent{}, fmt.Errorf("failed to recognize frame: %w", err)
	}

	ev := DetectionEvent{Frame: frame, At: time.Now()}
	if cfg.Locate {
		for _, run := range numericRuns(words) {
			for _, w := range run {
				ev.Boxes = append(ev.Boxes, rectBox(w.Bounds))
			}
		}
	}

	candidates := CodesFromWords(words)
	if len(candidates) == 0 {
		return ev, nil
	}

	best := candidates[0]
	ev.Code = best.Code
	ev.Confidence = best.Confidence
	ev.Format = FormatOf(best.Code)
	ev.Box = rectBox(best.Bounds)
	mid := float64(best.Bounds.Min.Y+best.Bounds.Max.Y) / 2
	ev.Line = []Point{{float64(best.Bounds.Min.X), mid}, {float64(best.Bounds.Max.X), mid}}
	if !slices.ContainsFunc(ev.Boxes, ev.Box.Equal) {
		ev.Boxes = append(ev.Boxes, ev.Box)
	}
	return ev, nil
}
