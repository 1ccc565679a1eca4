package detector

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Segment builds the working mask: the colour-range mask of the original
// buffer, united with the adaptive-threshold mask of the smoothed grayscale
// buffer when cfg.AdaptiveEnabled is set.
func Segment(original *image.NRGBA, pre Preprocessed, cfg Config) *Mask {
	mask := ColorRangeMask(original, cfg.ColorRanges)
	if !cfg.AdaptiveEnabled {
		return mask
	}
	return Union(AdaptiveThreshold(pre.Gray, cfg.AdaptiveBlockSize, cfg.AdaptiveC, cfg.AdaptiveMethod), mask)
}

// AdaptiveThreshold marks a pixel as foreground when it is darker than the
// local reference level of its blockSize x blockSize neighbourhood by at
// least c, i.e. pixel - reference <= -c. The reference is rounded to an
// integer and the border is replicated.
func AdaptiveThreshold(gray *image.Gray, blockSize, c int, method AdaptiveMethod) *Mask {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	mask := NewMask(w, h)
	if w == 0 || h == 0 {
		return mask
	}

	weights := boxKernel(blockSize)
	if method == AdaptiveGaussian {
		weights = gaussianKernel(blockSize)
	}
	ref := separableFilter(gray, weights)

	for y := range h {
		for x := range w {
			v := int(gray.Pix[gray.PixOffset(b.Min.X+x, b.Min.Y+y)])
			if v-int(ref[y*w+x]) <= -c {
				mask.Pix[y*w+x] = Foreground
			}
		}
	}
	return mask
}

// boxKernel returns n equal weights summing to one.
func boxKernel(n int) []float64 {
	k := make([]float64, n)
	for i := range k {
		k[i] = 1 / float64(n)
	}
	return k
}

// gaussianKernel returns a normalised 1D Gaussian of length n with the
// sigma conventionally derived from the size.
func gaussianKernel(n int) []float64 {
	sigma := 0.3*(float64(n-1)*0.5-1) + 0.8
	k := make([]float64, n)
	half := n / 2
	sum := 0.0
	for i := range k {
		d := float64(i - half)
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// separableFilter convolves gray with kernel horizontally then vertically,
// replicating edge pixels, and rounds the result to 8 bits.
func separableFilter(gray *image.Gray, kernel []float64) []uint8 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	half := len(kernel) / 2

	rows := make([]float64, w*h)
	for y := range h {
		for x := range w {
			s := 0.0
			for k, wt := range kernel {
				xx := clampInt(x+k-half, 0, w-1)
				s += wt * float64(gray.Pix[gray.PixOffset(b.Min.X+xx, b.Min.Y+y)])
			}
			rows[y*w+x] = s
		}
	}

	out := make([]uint8, w*h)
	for y := range h {
		for x := range w {
			s := 0.0
			for k, wt := range kernel {
				yy := clampInt(y+k-half, 0, h-1)
				s += wt * rows[yy*w+x]
			}
			out[y*w+x] = clampUint8(math.Round(s))
		}
	}
	return out
}

// ColorRangeMask marks pixels of src whose 8-bit HSV value falls inside any
// of the given ranges.
func ColorRangeMask(src *image.NRGBA, ranges []HSVRange) *Mask {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	mask := NewMask(w, h)
	if len(ranges) == 0 {
		return mask
	}
	for y := range h {
		for x := range w {
			i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			hh, s, v := HSV8(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
			for _, r := range ranges {
				if r.Contains(hh, s, v) {
					mask.Pix[y*w+x] = Foreground
					break
				}
			}
		}
	}
	return mask
}

// HSV8 converts an RGB triple to 8-bit HSV: hue in [0,180), saturation and
// value in [0,255].
func HSV8(r, g, b uint8) (h, s, v int) {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	hf, sf, vf := c.Hsv()
	h = int(math.Round(hf / 2))
	if h >= 180 {
		h -= 180
	}
	s = int(math.Round(sf * 255))
	v = int(math.Round(vf * 255))
	return h, s, v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
