package utils

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// ToNRGBA returns a fresh NRGBA copy of img whose bounds start at (0,0).
// The source is never aliased.
func ToNRGBA(img image.Image) (*image.NRGBA, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "convert", Err: errors.New("input image is nil")}
	}
	return imaging.Clone(img), nil
}

// Grayscale projects img onto a single luminance channel using the
// 0.299/0.587/0.114 weights, rounded to the nearest integer.
func Grayscale(img image.Image) *image.Gray {
	g := imaging.Grayscale(img)
	b := g.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := range b.Dy() {
		row := g.Pix[y*g.Stride:]
		for x := range b.Dx() {
			out.Pix[y*out.Stride+x] = row[x*4]
		}
	}
	return out
}
