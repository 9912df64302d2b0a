//go:build !tesseract

package scanner

import (
	"fmt"

	"github.com/desertthunder/ldx/internal/shared"
)

// NewTesseractRecognizer fails: this binary was built without the tesseract tag.
func NewTesseractRecognizer(string) (Recognizer, error) {
	return nil, fmt.Errorf("%w: built without tesseract support", shared.ErrEngineUnavailable)
}
