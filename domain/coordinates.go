package domain

import "fmt"

// axisCoord is the cell center of x on axis, with -1 and Ns mapped onto the
// lower and upper boundary of the patch
func (p *PatchInfo) axisCoord(axis, x int) float64 {
	switch x {
	case -1:
		return p.Starts[axis]
	case p.Ns[axis]:
		return p.Starts[axis] + p.Spacings[axis]*float64(p.Ns[axis])
	}
	return p.cellCenter(axis, x)
}

func (p *PatchInfo) cellCenter(axis, x int) float64 {
	return p.Starts[axis] + p.Spacings[axis]/2 + p.Spacings[axis]*float64(x)
}

func (p *PatchInfo) checkCoord(coord []int, n int) {
	if len(coord) != n {
		panic(fmt.Errorf("patch %d: coordinate %v needs %d entries", p.ID, coord, n))
	}
}

/*
RealCoord is the physical position of the cell at coord. Interior cells map
to their centers, the first layer outside the patch (-1 or Ns on an axis)
maps onto the patch boundary on that axis.
*/
func (p *PatchInfo) RealCoord(coord []int) (x []float64) {
	p.checkCoord(coord, p.Dim)
	x = make([]float64, p.Dim)
	for i, c := range coord {
		x[i] = p.axisCoord(i, c)
	}
	return
}

// RealCoordGhost is the cell center of coord, ghost cells included
func (p *PatchInfo) RealCoordGhost(coord []int) (x []float64) {
	p.checkCoord(coord, p.Dim)
	x = make([]float64, p.Dim)
	for i, c := range coord {
		x[i] = p.cellCenter(i, c)
	}
	return
}

/*
RealCoordBound is the physical position of a point on side s. coord holds
the D-1 cell coordinates on the free axes of s in increasing axis order,
mapped as in RealCoord.
*/
func (p *PatchInfo) RealCoordBound(coord []int, s Face) (x []float64) {
	p.checkCoord(coord, p.Dim-1)
	if s.Kind() != SideFace || s.Dim() != p.Dim {
		panic(fmt.Errorf("patch %d: %s is not a side of a %dD patch", p.ID, s, p.Dim))
	}
	x = make([]float64, p.Dim)
	axis := s.AxisIndex()
	for i, free := range s.FreeAxes() {
		x[free] = p.axisCoord(free, coord[i])
	}
	x[axis] = p.Starts[axis]
	if s.IsHigherOnAxis(axis) {
		x[axis] += p.Spacings[axis] * float64(p.Ns[axis])
	}
	return
}
