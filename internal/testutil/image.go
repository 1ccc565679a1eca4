package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// ParticleKind selects the primitive drawn for a ParticleSpec.
type ParticleKind int

const (
	Disk ParticleKind = iota
	Rect
)

// ParticleSpec describes one synthetic particle.
type ParticleSpec struct {
	Kind   ParticleKind
	Center image.Point     // Disk centre
	Radius int             // Disk radius; pixels with dx²+dy² <= r² are painted
	Bounds image.Rectangle // Rect extent, Max exclusive
	Color  color.NRGBA
}

// SceneConfig describes a synthetic microscope image.
type SceneConfig struct {
	Width      int
	Height     int
	Background color.NRGBA
	Particles  []ParticleSpec
}

var (
	Black = color.NRGBA{A: 255}
	White = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// GenerateScene renders cfg into a new image.
func GenerateScene(cfg SceneConfig) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(cfg.Background), image.Point{}, draw.Src)
	for _, p := range cfg.Particles {
		switch p.Kind {
		case Disk:
			DrawDisk(img, p.Center, p.Radius, p.Color)
		case Rect:
			draw.Draw(img, p.Bounds, image.NewUniform(p.Color), image.Point{}, draw.Src)
		}
	}
	return img
}

// DrawDisk paints every pixel within r of c.
func DrawDisk(img *image.NRGBA, c image.Point, r int, col color.NRGBA) {
	for y := c.Y - r; y <= c.Y+r; y++ {
		for x := c.X - r; x <= c.X+r; x++ {
			dx, dy := x-c.X, y-c.Y
			if dx*dx+dy*dy <= r*r {
				img.SetNRGBA(x, y, col)
			}
		}
	}
}

// BeadScene is a 100x100 black image with a white disk of radius 10 at (50, 50).
func BeadScene() SceneConfig {
	return SceneConfig{
		Width: 100, Height: 100, Background: Black,
		Particles: []ParticleSpec{{Kind: Disk, Center: image.Pt(50, 50), Radius: 10, Color: White}},
	}
}

// FiberScene is a 100x100 black image with a white 2x40 bar.
func FiberScene() SceneConfig {
	return SceneConfig{
		Width: 100, Height: 100, Background: Black,
		Particles: []ParticleSpec{{Kind: Rect, Bounds: image.Rect(49, 30, 51, 70), Color: White}},
	}
}

// FragmentScene is a 100x100 black image with a saturated green 40x15 block.
func FragmentScene() SceneConfig {
	return SceneConfig{
		Width: 100, Height: 100, Background: Black,
		Particles: []ParticleSpec{{Kind: Rect, Bounds: image.Rect(20, 30, 60, 45), Color: color.NRGBA{R: 30, G: 200, B: 30, A: 255}}},
	}
}

// MixedScene holds one bead and one fragment, separated well enough that the
// adaptive halo of one never reaches the other.
func MixedScene() SceneConfig {
	return SceneConfig{
		Width: 160, Height: 100, Background: Black,
		Particles: []ParticleSpec{
			{Kind: Disk, Center: image.Pt(40, 30), Radius: 10, Color: White},
			{Kind: Rect, Bounds: image.Rect(90, 60, 130, 75), Color: color.NRGBA{R: 220, G: 40, B: 40, A: 255}},
		},
	}
}

// BlankScene is a uniform black image.
func BlankScene(w, h int) SceneConfig {
	return SceneConfig{Width: w, Height: h, Background: Black}
}

// SaveImage encodes img to path; the format follows the extension.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()
	require.NoError(t, EnsureDir(filepath.Dir(path)))
	require.NoError(t, imaging.Save(img, path), "Failed to save image %s", path)
}

// WriteScene renders cfg and saves it as dir/name, returning the full path.
func WriteScene(t *testing.T, dir, name string, cfg SceneConfig) string {
	t.Helper()
	path := filepath.Join(dir, name)
	SaveImage(t, GenerateScene(cfg), path)
	return path
}

// LoadImage loads an image from the specified path.
func LoadImage(t *testing.T, path string) image.Image {
	t.Helper()
	img, err := imaging.Open(path)
	require.NoError(t, err, "Failed to open image %s", path)
	return img
}

// CompareImages reports whether the mean per-pixel RGBA distance between
// two same-sized images, relative to the largest possible distance, is at
// most tolerance.
func CompareImages(img1, img2 image.Image, tolerance float64) bool {
	b := img1.Bounds()
	if b.Dx() != img2.Bounds().Dx() || b.Dy() != img2.Bounds().Dy() {
		return false
	}
	if b.Empty() {
		return true
	}
	o := img2.Bounds().Min.Sub(b.Min)

	var total float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r1, g1, b1, a1 := img1.At(x, y).RGBA()
			r2, g2, b2, a2 := img2.At(x+o.X, y+o.Y).RGBA()
			dr := float64(r1) - float64(r2)
			dg := float64(g1) - float64(g2)
			db := float64(b1) - float64(b2)
			da := float64(a1) - float64(a2)
			total += math.Sqrt(dr*dr + dg*dg + db*db + da*da)
		}
	}
	avg := total / float64(b.Dx()*b.Dy())
	return avg/math.Sqrt(4*65535*65535) <= tolerance
}

// AddSaltNoise returns a copy of img with every period-th pixel, in raster
// order, set to col. The pattern is deterministic.
func AddSaltNoise(img *image.NRGBA, period int, col color.NRGBA) *image.NRGBA {
	out := imaging.Clone(img)
	if period <= 0 {
		return out
	}
	b := out.Bounds()
	for i := 0; i < b.Dx()*b.Dy(); i += period {
		out.SetNRGBA(b.Min.X+i%b.Dx(), b.Min.Y+i/b.Dx(), col)
	}
	return out
}
