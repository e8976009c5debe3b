// Package receipt turns an uploaded receipt image into text and infers the
// amount to record from that text.
package receipt

import (
	"context"
	"errors"
	"image"
	"image/draw"
)

// ErrUnavailable is returned by engines that were not compiled in.
var ErrUnavailable = errors.New("ocr engine unavailable")

// Fragment is one piece of text recognized in an image.
type Fragment struct {
	Box        image.Rectangle
	Text       string
	Confidence float64
}

// Engine recognizes text in an image. Fragments are returned in reading
// order as decided by the engine.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) ([]Fragment, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, img image.Image) ([]Fragment, error)

func (f EngineFunc) Recognize(ctx context.Context, img image.Image) ([]Fragment, error) {
	return f(ctx, img)
}

// ToRGBA copies img into a raw RGBA pixel buffer anchored at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
