//go:build tesseract

package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"expensetracker/internal/receipt"

	"github.com/otiai10/gosseract/v2"
)

// Available reports whether the real engine was compiled in.
const Available = true

type Engine struct {
	language string
}

var _ receipt.Engine = (*Engine)(nil)

// New returns an engine for language ("eng" when empty). Tesseract runs on
// the CPU only.
func New(language string) *Engine {
	if strings.TrimSpace(language) == "" {
		language = DefaultLanguage
	}
	return &Engine{language: language}
}

// Recognize returns one fragment per detected text line.
func (e *Engine) Recognize(ctx context.Context, img image.Image) ([]receipt.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, receipt.ToRGBA(img)); err != nil {
		return nil, fmt.Errorf("encode pixels: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		return nil, fmt.Errorf("set language %q: %w", e.language, err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("tesseract: %w", err)
	}

	out := make([]receipt.Fragment, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		out = append(out, receipt.Fragment{Box: b.Box, Text: text, Confidence: b.Confidence})
	}
	return out, nil
}
