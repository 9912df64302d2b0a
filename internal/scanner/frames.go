package scanner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// frameExts are the image types accepted as frames.
var frameExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// IsFrame reports whether path looks like a frame image.
func IsFrame(path string) bool {
	return frameExts[strings.ToLower(filepath.Ext(path))] && !strings.HasPrefix(filepath.Base(path), ".")
}

// FrameWatcher reports image files written into a directory.
type FrameWatcher struct {
	dir     string
	logger  *log.Logger
	watcher *fsnotify.Watcher
	seen    map[string]frameStamp
}

type frameStamp struct {
	size    int64
	modTime time.Time
}

// NewFrameWatcher starts watching dir.
func NewFrameWatcher(dir string, logger *log.Logger) (*FrameWatcher, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("unable to watch %s: %w", dir, err)
	}

	return &FrameWatcher{dir: dir, logger: logger, watcher: watcher, seen: map[string]frameStamp{}}, nil
}

// Run sends the path of each new or rewritten frame until ctx is done, then closes out and the
// underlying watcher. A frame rewritten with the same size and mtime is reported once.
func (w *FrameWatcher) Run(ctx context.Context, out chan<- string) {
	defer close(out)
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !IsFrame(event.Name) || !w.fresh(event.Name) {
				continue
			}

			w.logger.Debug("frame written", "path", event.Name)
			select {
			case out <- event.Name:
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("frame watcher error", "dir", w.dir, "error", err)
		}
	}
}

// fresh records path's stamp and reports whether it changed since the last report.
func (w *FrameWatcher) fresh(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return false
	}

	stamp := frameStamp{size: info.Size(), modTime: info.ModTime()}
	if prev, ok := w.seen[path]; ok && prev == stamp {
		return false
	}
	w.seen[path] = stamp
	return true
}
