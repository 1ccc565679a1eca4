package detector

import "container/list"

// compStats describes one 8-connected foreground component.
type compStats struct {
	label  int
	count  int
	startX int // first pixel in raster order (top-most, then left-most)
	startY int
	minX   int
	minY   int
	maxX   int
	maxY   int
}

var (
	dirs4 = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	dirs8 = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
)

// connectedComponents labels 8-connected foreground components. Components
// are numbered from 1 in raster order of their first pixel; background is 0.
func connectedComponents(m *Mask) ([]compStats, []int) {
	labels := make([]int, m.Width*m.Height)
	var comps []compStats
	label := 1

	for y := range m.Height {
		for x := range m.Width {
			idx := y*m.Width + x
			if m.Pix[idx] == Foreground && labels[idx] == 0 {
				comps = append(comps, performComponentBFS(m, labels, x, y, label))
				label++
			}
		}
	}
	return comps, labels
}

// performComponentBFS floods one component from its seed pixel.
func performComponentBFS(m *Mask, labels []int, startX, startY, label int) compStats {
	w := m.Width
	st := compStats{
		label: label, startX: startX, startY: startY,
		minX: startX, minY: startY, maxX: startX, maxY: startY,
	}
	q := list.New()
	q.PushBack(startY*w + startX)
	labels[startY*w+startX] = label

	for q.Len() > 0 {
		e := q.Front()
		q.Remove(e)
		ci, ok := e.Value.(int)
		if !ok {
			continue
		}
		cx, cy := ci%w, ci/w
		updateComponentStats(&st, cx, cy)
		for _, d := range dirs8 {
			nx, ny := cx+d[0], cy+d[1]
			if !m.At(nx, ny) {
				continue
			}
			ni := ny*w + nx
			if labels[ni] == 0 {
				labels[ni] = label
				q.PushBack(ni)
			}
		}
	}
	return st
}

func updateComponentStats(st *compStats, cx, cy int) {
	st.count++
	if cx < st.minX {
		st.minX = cx
	}
	if cy < st.minY {
		st.minY = cy
	}
	if cx > st.maxX {
		st.maxX = cx
	}
	if cy > st.maxY {
		st.maxY = cy
	}
}

// outerBackground marks background pixels 4-connected to the image border.
// Background not reached this way lies in a hole of some component.
func outerBackground(m *Mask) []bool {
	w, h := m.Width, m.Height
	outer := make([]bool, w*h)
	q := list.New()
	seed := func(x, y int) {
		i := y*w + x
		if m.Pix[i] == Background && !outer[i] {
			outer[i] = true
			q.PushBack(i)
		}
	}
	for x := range w {
		seed(x, 0)
		seed(x, h-1)
	}
	for y := range h {
		seed(0, y)
		seed(w-1, y)
	}

	for q.Len() > 0 {
		e := q.Front()
		q.Remove(e)
		ci, ok := e.Value.(int)
		if !ok {
			continue
		}
		cx, cy := ci%w, ci/w
		for _, d := range dirs4 {
			nx, ny := cx+d[0], cy+d[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			seed(nx, ny)
		}
	}
	return outer
}

// isExternal reports whether a component borders the outside of the image
// or the outer background, i.e. it is not nested inside another component.
func isExternal(st compStats, labels []int, outer []bool, w, h int) bool {
	for y := st.minY; y <= st.maxY; y++ {
		for x := st.minX; x <= st.maxX; x++ {
			if labels[y*w+x] != st.label {
				continue
			}
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				return true
			}
			for _, d := range dirs4 {
				if outer[(y+d[1])*w+x+d[0]] {
					return true
				}
			}
		}
	}
	return false
}
