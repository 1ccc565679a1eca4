package detector

// Shape is the particle category assigned by Classify.
type Shape string

const (
	ShapeBead     Shape = "bead"
	ShapeFiber    Shape = "fiber"
	ShapeFragment Shape = "fragment"
)

// Shapes lists every shape in reporting order.
var Shapes = []Shape{ShapeBead, ShapeFiber, ShapeFragment}

// Classify maps circularity and aspect ratio to a shape. Compact outlines are
// beads; otherwise strongly elongated outlines are fibers; the rest are fragments.
func Classify(circularity, aspectRatio float64, cfg Config) Shape {
	if circularity > cfg.BeadCircularity {
		return ShapeBead
	}
	if aspectRatio > cfg.FiberMaxAspect || aspectRatio < cfg.FiberMinAspect {
		return ShapeFiber
	}
	return ShapeFragment
}
