package receipt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxUploadBytes caps the size of an accepted image.
const DefaultMaxUploadBytes = 10 << 20

var (
	ErrUnsupportedImage = errors.New("unsupported image type: only JPEG and PNG are accepted")
	ErrImageTooLarge    = errors.New("image too large")
)

var acceptedMIME = []string{"image/jpeg", "image/png"}

// Extraction is the result of running OCR on one uploaded image.
type Extraction struct {
	Text      string
	MIME      string
	Image     []byte
	Fragments []Fragment
}

type Extractor struct {
	engine   Engine
	maxBytes int64
}

// NewExtractor returns an extractor using engine. maxBytes <= 0 selects
// DefaultMaxUploadBytes.
func NewExtractor(engine Engine, maxBytes int64) *Extractor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Extractor{engine: engine, maxBytes: maxBytes}
}

// Extract sniffs, decodes and recognizes the image read from r. The
// recognized fragments are joined with newlines in engine order; no text
// yields an empty string. Engine failures are returned as is, without retry.
func (x *Extractor) Extract(ctx context.Context, r io.Reader) (Extraction, error) {
	data, err := io.ReadAll(io.LimitReader(r, x.maxBytes+1))
	if err != nil {
		return Extraction{}, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > x.maxBytes {
		return Extraction{}, ErrImageTooLarge
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), acceptedMIME...) {
		return Extraction{}, fmt.Errorf("%w (got %s)", ErrUnsupportedImage, mt.String())
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Extraction{}, fmt.Errorf("decode image: %w", err)
	}

	frags, err := x.engine.Recognize(ctx, img)
	if err != nil {
		return Extraction{}, fmt.Errorf("recognize: %w", err)
	}

	return Extraction{
		Text:      JoinFragments(frags),
		MIME:      mt.String(),
		Image:     data,
		Fragments: frags,
	}, nil
}

// JoinFragments keeps only the text of each fragment, one per line.
func JoinFragments(frags []Fragment) string {
	texts := make([]string, len(frags))
	for i, f := range frags {
		texts[i] = f.Text
	}
	return strings.Join(texts, "\n")
}
