package detector

// MorphologicalOp represents the type of morphological operation to perform.
type MorphologicalOp int

const (
	MorphNone MorphologicalOp = iota
	MorphDilate
	MorphErode
	MorphOpening // Erode then Dilate - removes small noise
	MorphClosing // Dilate then Erode - fills gaps
)

// CleanMask applies opening followed by closing with a square kernel.
func CleanMask(m *Mask, kernelSize int) *Mask {
	opened := ApplyMorphologicalOperation(m, MorphOpening, kernelSize)
	return ApplyMorphologicalOperation(opened, MorphClosing, kernelSize)
}

// ApplyMorphologicalOperation applies op to m with a kernelSize x kernelSize
// all-ones structuring element and returns a new mask. Pixels outside the
// mask take no part, so the border neither erodes nor dilates.
func ApplyMorphologicalOperation(m *Mask, op MorphologicalOp, kernelSize int) *Mask {
	if op == MorphNone || kernelSize <= 1 {
		return m.Clone()
	}

	switch op {
	case MorphDilate:
		return dilate(m, kernelSize)
	case MorphErode:
		return erode(m, kernelSize)
	case MorphOpening:
		return dilate(erode(m, kernelSize), kernelSize)
	case MorphClosing:
		return erode(dilate(m, kernelSize), kernelSize)
	default:
		return m.Clone()
	}
}

// dilate sets a pixel when any in-bounds kernel neighbour is set.
func dilate(m *Mask, kernelSize int) *Mask {
	return morph(m, kernelSize, Foreground)
}

// erode clears a pixel when any in-bounds kernel neighbour is clear.
func erode(m *Mask, kernelSize int) *Mask {
	return morph(m, kernelSize, Background)
}

// morph writes trigger wherever some in-bounds neighbour equals trigger and
// the opposite value elsewhere.
func morph(m *Mask, kernelSize int, trigger uint8) *Mask {
	out := NewMask(m.Width, m.Height)
	half := kernelSize / 2
	other := Foreground
	if trigger == Foreground {
		other = Background
	}

	for y := range m.Height {
		for x := range m.Width {
			v := other
		kernel:
			for ky := -half; ky <= half; ky++ {
				ny := y + ky
				if ny < 0 || ny >= m.Height {
					continue
				}
				for kx := -half; kx <= half; kx++ {
					nx := x + kx
					if nx < 0 || nx >= m.Width {
						continue
					}
					if m.Pix[ny*m.Width+nx] == trigger {
						v = trigger
						break kernel
					}
				}
			}
			out.Pix[y*m.Width+x] = v
		}
	}
	return out
}
