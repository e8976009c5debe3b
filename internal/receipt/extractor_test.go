package receipt

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func fixedEngine(frags ...Fragment) Engine {
	return EngineFunc(func(_ context.Context, img image.Image) ([]Fragment, error) {
		if img == nil {
			return nil, errors.New("nil image")
		}
		return frags, nil
	})
}

func TestExtractJoinsFragmentsInOrder(t *testing.T) {
	x := NewExtractor(fixedEngine(
		Fragment{Box: image.Rect(0, 0, 1, 1), Text: "STORE", Confidence: 0.9},
		Fragment{Text: "Milk 45.50", Confidence: 0.4},
		Fragment{Text: "Total ₹45.50", Confidence: 0.8},
	), 0)

	for name, data := range map[string][]byte{"png": pngBytes(t), "jpeg": jpegBytes(t)} {
		t.Run(name, func(t *testing.T) {
			got, err := x.Extract(context.Background(), bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if got.Text != "STORE\nMilk 45.50\nTotal ₹45.50" {
				t.Fatalf("unexpected text %q", got.Text)
			}
			if got.MIME != "image/"+name || !bytes.Equal(got.Image, data) || len(got.Fragments) != 3 {
				t.Fatalf("unexpected extraction metadata: mime=%s frags=%d", got.MIME, len(got.Fragments))
			}
		})
	}
}

func TestExtractNoTextIsEmpty(t *testing.T) {
	got, err := NewExtractor(fixedEngine(), 0).Extract(context.Background(), bytes.NewReader(pngBytes(t)))
	if err != nil || got.Text != "" {
		t.Fatalf("expected empty text, got %q err=%v", got.Text, err)
	}
}

func TestExtractRejectsUnsupportedAndLarge(t *testing.T) {
	x := NewExtractor(fixedEngine(), 0)
	_, err := x.Extract(context.Background(), strings.NewReader("GIF89a not really"))
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("expected ErrUnsupportedImage, got %v", err)
	}

	small := NewExtractor(fixedEngine(), 16)
	_, err = small.Extract(context.Background(), bytes.NewReader(pngBytes(t)))
	if !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}
}

func TestExtractPropagatesEngineFailure(t *testing.T) {
	boom := errors.New("engine crashed")
	x := NewExtractor(EngineFunc(func(context.Context, image.Image) ([]Fragment, error) {
		return nil, boom
	}), 0)
	_, err := x.Extract(context.Background(), bytes.NewReader(pngBytes(t)))
	if !errors.Is(err, boom) {
		t.Fatalf("expected engine error, got %v", err)
	}
}

func TestToRGBA(t *testing.T) {
	src := image.NewGray(image.Rect(2, 3, 6, 8))
	dst := ToRGBA(src)
	if dst.Bounds() != image.Rect(0, 0, 4, 5) {
		t.Fatalf("unexpected bounds %v", dst.Bounds())
	}
	if len(dst.Pix) != 4*5*4 {
		t.Fatalf("unexpected pixel buffer length %d", len(dst.Pix))
	}
}
