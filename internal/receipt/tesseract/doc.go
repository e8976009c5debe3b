// Package tesseract recognizes receipt text with the Tesseract OCR engine.
// The engine needs cgo and libtesseract, so it is only compiled with the
// tesseract build tag; without it New returns an engine that always fails
// with receipt.ErrUnavailable.
package tesseract

// DefaultLanguage is the Tesseract language pack used when none is configured.
const DefaultLanguage = "eng"
