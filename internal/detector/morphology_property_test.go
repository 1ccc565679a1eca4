package detector

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const propSide = 12

// genMask generates a random propSide x propSide mask.
func genMask() gopter.Gen {
	return gen.SliceOfN(propSide*propSide, gen.Bool()).Map(func(bits []bool) *Mask {
		m := NewMask(propSide, propSide)
		for i, b := range bits {
			if b {
				m.Pix[i] = Foreground
			}
		}
		return m
	})
}

func subset(a, b *Mask) bool {
	for i := range a.Pix {
		if a.Pix[i] == Foreground && b.Pix[i] != Foreground {
			return false
		}
	}
	return true
}

// TestApplyMorphologicalOperation_Binary verifies outputs stay in {0, 255}.
func TestApplyMorphologicalOperation_Binary(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("morphological operations keep the mask binary", prop.ForAll(
		func(m *Mask, op MorphologicalOp) bool {
			out := ApplyMorphologicalOperation(m, op, 3)
			if len(out.Pix) != len(m.Pix) {
				return false
			}
			for _, v := range out.Pix {
				if v != Foreground && v != Background {
					return false
				}
			}
			return true
		},
		genMask(),
		gen.OneConstOf(MorphDilate, MorphErode, MorphOpening, MorphClosing),
	))

	properties.TestingRun(t)
}

// TestApplyMorphologicalOperation_Ordering verifies opening shrinks and closing grows.
func TestApplyMorphologicalOperation_Ordering(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("opening is contained in the input", prop.ForAll(
		func(m *Mask) bool {
			return subset(ApplyMorphologicalOperation(m, MorphOpening, 3), m)
		},
		genMask(),
	))

	properties.Property("the input is contained in its closing", prop.ForAll(
		func(m *Mask) bool {
			return subset(m, ApplyMorphologicalOperation(m, MorphClosing, 3))
		},
		genMask(),
	))

	properties.TestingRun(t)
}
