//go:build !tesseract

package tesseract

import (
	"context"
	"image"

	"expensetracker/internal/receipt"
)

// Available reports whether the real engine was compiled in.
const Available = false

// Engine fails every call; rebuild with -tags tesseract for real OCR.
type Engine struct {
	language string
}

var _ receipt.Engine = (*Engine)(nil)

func New(language string) *Engine {
	if language == "" {
		language = DefaultLanguage
	}
	return &Engine{language: language}
}

func (e *Engine) Recognize(context.Context, image.Image) ([]receipt.Fragment, error) {
	return nil, receipt.ErrUnavailable
}
