// Package field holds per patch cell data: strided views with ghost cells
// and the distributed Vector that owns one block of data per local patch.
package field

import (
	"fmt"
)

/*
View is a strided window on a []float64. Coordinates are absolute: the
interior of a patch runs from 0 to n-1 on every axis and ghost cells have
negative coordinates or coordinates of n and above. Start and End bound the
interior, GhostStart and GhostEnd bound everything that may be addressed.
All bounds are inclusive.
*/
type View struct {
	data         []float64
	origin       int // offset of coordinate zero
	strides      []int
	start, end   []int
	gstart, gend []int
}

func newView(data []float64, origin int, strides, start, end, gstart, gend []int) View {
	return View{
		data:    data,
		origin:  origin,
		strides: strides,
		start:   start,
		end:     end,
		gstart:  gstart,
		gend:    gend,
	}
}

// Rank is the number of axes
func (v View) Rank() int { return len(v.strides) }

func (v View) Start() []int { return v.start }

func (v View) End() []int { return v.end }

func (v View) GhostStart() []int { return v.gstart }

func (v View) GhostEnd() []int { return v.gend }

func (v View) index(coord []int) (idx int) {
	if len(coord) != len(v.strides) {
		panic(fmt.Errorf("view has %d axes, coordinate %v", len(v.strides), coord))
	}
	idx = v.origin
	for i, x := range coord {
		if x < v.gstart[i] || x > v.gend[i] {
			panic(fmt.Errorf("coordinate %v outside of [%v, %v]", coord, v.gstart, v.gend))
		}
		idx += x * v.strides[i]
	}
	return
}

func (v View) Get(coord ...int) float64 { return v.data[v.index(coord)] }

func (v View) Set(coord []int, val float64) { v.data[v.index(coord)] = val }

func (v View) Add(coord []int, val float64) { v.data[v.index(coord)] += val }

// Len is the number of interior elements
func (v View) Len() (n int) {
	n = 1
	for i := range v.start {
		if v.end[i] < v.start[i] {
			return 0
		}
		n *= v.end[i] - v.start[i] + 1
	}
	return
}

// forEach visits lo..hi with axis 0 varying fastest. The coordinate slice
// is reused between calls.
func forEach(lo, hi []int, fn func(coord []int)) {
	for i := range lo {
		if hi[i] < lo[i] {
			return
		}
	}
	coord := append([]int(nil), lo...)
	for {
		fn(coord)
		axis := 0
		for ; axis < len(coord); axis++ {
			if coord[axis] < hi[axis] {
				coord[axis]++
				break
			}
			coord[axis] = lo[axis]
		}
		if axis == len(coord) {
			return
		}
	}
}

// ForEachInterior calls fn for every interior coordinate, axis 0 fastest.
// fn must not keep coord.
func (v View) ForEachInterior(fn func(coord []int)) { forEach(v.start, v.end, fn) }

// ForEachAll is ForEachInterior including ghost cells
func (v View) ForEachAll(fn func(coord []int)) { forEach(v.gstart, v.gend, fn) }

// Fill sets every interior element
func (v View) Fill(val float64) {
	v.ForEachInterior(func(coord []int) { v.Set(coord, val) })
}

// CopyTo packs the interior into buf in ForEachInterior order
func (v View) CopyTo(buf []float64) {
	if len(buf) != v.Len() {
		panic(fmt.Errorf("buffer size mismatch: view has %d elements, buffer %d", v.Len(), len(buf)))
	}
	var i int
	v.ForEachInterior(func(coord []int) {
		buf[i] = v.Get(coord...)
		i++
	})
}

// Fix removes axis by holding it at coordinate x
func (v View) Fix(axis, x int) View {
	if axis < 0 || axis >= v.Rank() {
		panic(fmt.Errorf("axis %d out of range for a view with %d axes", axis, v.Rank()))
	}
	if x < v.gstart[axis] || x > v.gend[axis] {
		panic(fmt.Errorf("coordinate %d on axis %d outside of [%d, %d]",
			x, axis, v.gstart[axis], v.gend[axis]))
	}
	drop := func(s []int) []int {
		out := make([]int, 0, len(s)-1)
		out = append(out, s[:axis]...)
		return append(out, s[axis+1:]...)
	}
	return newView(v.data, v.origin+x*v.strides[axis],
		drop(v.strides), drop(v.start), drop(v.end), drop(v.gstart), drop(v.gend))
}

// Restrict narrows the view to lo..hi, the result has no ghost range
func (v View) Restrict(lo, hi []int) View {
	if len(lo) != v.Rank() || len(hi) != v.Rank() {
		panic(fmt.Errorf("view has %d axes, bounds %v %v", v.Rank(), lo, hi))
	}
	for i := range lo {
		if lo[i] <= hi[i] && (lo[i] < v.gstart[i] || hi[i] > v.gend[i]) {
			panic(fmt.Errorf("bounds %v..%v outside of [%v, %v]", lo, hi, v.gstart, v.gend))
		}
	}
	lo, hi = append([]int(nil), lo...), append([]int(nil), hi...)
	return newView(v.data, v.origin, v.strides, lo, hi, lo, hi)
}
