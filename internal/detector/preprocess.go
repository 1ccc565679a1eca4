package detector

import (
	"image"
	"math"

	"github.com/MeKo-Tech/plastiscan/internal/utils"
)

// Preprocessed carries the outputs of the preprocessing stage.
type Preprocessed struct {
	Smoothed *image.NRGBA // edge-preserving smoothed colour buffer
	Gray     *image.Gray  // luminance of Smoothed
}

// Preprocess smooths src with a bilateral filter and derives its grayscale
// projection. src is not modified.
func Preprocess(src *image.NRGBA, cfg Config) Preprocessed {
	smoothed := BilateralFilter(src, cfg.BilateralDiameter, cfg.BilateralSigmaColor, cfg.BilateralSigmaSpace)
	return Preprocessed{
		Smoothed: smoothed,
		Gray:     utils.Grayscale(smoothed),
	}
}

// BilateralFilter applies an edge-preserving bilateral filter over a circular
// window of the given diameter. Range distance is the sum of absolute RGB
// differences; image borders are reflected without repeating the edge pixel.
// Alpha is copied from the centre pixel.
func BilateralFilter(src *image.NRGBA, diameter int, sigmaColor, sigmaSpace float64) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}

	radius := diameter / 2
	if radius < 1 {
		copyNRGBA(dst, src)
		return dst
	}

	type tap struct {
		dx, dy int
		weight float64
	}
	spaceCoeff := -0.5 / (sigmaSpace * sigmaSpace)
	taps := make([]tap, 0, (2*radius+1)*(2*radius+1))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r2 := float64(dx*dx + dy*dy)
			if math.Sqrt(r2) > float64(radius) {
				continue
			}
			taps = append(taps, tap{dx: dx, dy: dy, weight: math.Exp(r2 * spaceCoeff)})
		}
	}

	colorCoeff := -0.5 / (sigmaColor * sigmaColor)
	colorWeight := make([]float64, 3*256)
	for i := range colorWeight {
		colorWeight[i] = math.Exp(float64(i*i) * colorCoeff)
	}

	px := func(x, y int) []uint8 {
		i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
		return src.Pix[i : i+4 : i+4]
	}

	for y := range h {
		for x := range w {
			c := px(x, y)
			var sr, sg, sb, wsum float64
			for _, t := range taps {
				n := px(reflect101(x+t.dx, w), reflect101(y+t.dy, h))
				diff := absDiff(n[0], c[0]) + absDiff(n[1], c[1]) + absDiff(n[2], c[2])
				wt := t.weight * colorWeight[diff]
				sr += wt * float64(n[0])
				sg += wt * float64(n[1])
				sb += wt * float64(n[2])
				wsum += wt
			}
			o := dst.PixOffset(x, y)
			dst.Pix[o+0] = clampUint8(math.Round(sr / wsum))
			dst.Pix[o+1] = clampUint8(math.Round(sg / wsum))
			dst.Pix[o+2] = clampUint8(math.Round(sb / wsum))
			dst.Pix[o+3] = c[3]
		}
	}
	return dst
}

// reflect101 maps i into [0, n) by mirroring around the edge pixels
// (…, 2, 1 | 0, 1, 2, … n-2, n-1 | n-2, …).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func clampUint8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

func copyNRGBA(dst, src *image.NRGBA) {
	b := src.Bounds()
	for y := range b.Dy() {
		si := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+4*b.Dx()], src.Pix[si:si+4*b.Dx()])
	}
}
