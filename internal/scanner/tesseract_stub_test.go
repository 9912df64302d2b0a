//go:build !tesseract

package scanner

import (
	"errors"
	"testing"

	"github.com/desertthunder/ldx/internal/shared"
)

func TestOCRUnavailableWithoutTesseract(t *testing.T) {
	_, _, err := NewEngine(shared.ScannerConfig{Engine: "ocr", FramesDir: t.TempDir()}, EngineOptions{})
	if !errors.Is(err, shared.ErrEngineUnavailable) {
		t.Errorf("expected ErrEngineUnavailable, got %v", err)
	}
}
