package scanner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/ldx/internal/shared"
)

// WedgeEngine reads codes from a keyboard-wedge or serial barcode scanner, one per line.
//
// The device is opened on the first Start and read by a single goroutine for the life of the
// engine; a line read while no session runs is delivered to the next session.
type WedgeEngine struct {
	device string
	open   func(string) (io.ReadCloser, error)

	once    sync.Once
	lines   chan string
	openErr error

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWedgeEngine reads from device. "-" reads r instead, normally stdin.
func NewWedgeEngine(device string, r io.Reader) *WedgeEngine {
	return &WedgeEngine{
		device: device,
		open: func(path string) (io.ReadCloser, error) {
			if path == "" || path == "-" {
				return io.NopCloser(r), nil
			}
			expanded, err := shared.ExpandPath(path)
			if err != nil {
				return nil, err
			}
			return os.Open(expanded)
		},
	}
}

func (w *WedgeEngine) Name() string { return "wedge" }

func (w *WedgeEngine) Start(ctx context.Context, _ Config) (<-chan DetectionEvent, error) {
	w.once.Do(w.startReader)
	if w.openErr != nil {
		return nil, w.openErr
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return nil, fmt.Errorf("wedge engine already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	events := make(chan DetectionEvent)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case line, ok := <-w.lines:
				if !ok {
					return
				}
				ev := DetectionEvent{Code: line, Confidence: 100, Format: FormatOf(line), At: time.Now()}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events, nil
}

func (w *WedgeEngine) Stop() error {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	return nil
}

func (w *WedgeEngine) startReader() {
	rc, err := w.open(w.device)
	if err != nil {
		w.openErr = fmt.Errorf("failed to open scanner device %s: %w", w.device, err)
		return
	}

	w.lines = make(chan string)
	go func() {
		defer rc.Close()
		defer close(w.lines)

		sc := bufio.NewScanner(rc)
		for sc.Scan() {
			line := strings.TrimSpace(shared.Sanitize(sc.Text()))
			if line == "" {
				continue
			}
			w.lines <- line
		}
	}()
}
