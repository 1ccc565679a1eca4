package detector

import "image"

// Mask values.
const (
	Background uint8 = 0
	Foreground uint8 = 255
)

// Mask is a single-channel binary image; every value is Background or Foreground.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewMask allocates an all-background mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// Bounds returns the mask rectangle anchored at the origin.
func (m *Mask) Bounds() image.Rectangle { return image.Rect(0, 0, m.Width, m.Height) }

// At reports whether (x, y) is foreground. Out-of-range coordinates are background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x] == Foreground
}

// Set marks (x, y) as foreground or background.
func (m *Mask) Set(x, y int, on bool) {
	v := Background
	if on {
		v = Foreground
	}
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v == Foreground {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	out := &Mask{Width: m.Width, Height: m.Height, Pix: make([]uint8, len(m.Pix))}
	copy(out.Pix, m.Pix)
	return out
}

// Union returns a new mask that is foreground wherever either input is.
// Both masks must have the same dimensions.
func Union(a, b *Mask) *Mask {
	out := NewMask(a.Width, a.Height)
	for i := range out.Pix {
		if a.Pix[i] == Foreground || b.Pix[i] == Foreground {
			out.Pix[i] = Foreground
		}
	}
	return out
}
