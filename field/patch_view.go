package field

import (
	"fmt"

	"github.com/notargets/patchgrid/domain"
)

// PatchView is a View of one patch: D spatial axes followed by a component
// axis. A component view drops the component axis.
type PatchView struct {
	View
	ns        []int
	numGhost  int
	component bool
}

/*
NewPatchView lays out nc components of a patch with ns cells and g ghost
cells per side over data. Axis 0 varies fastest and the component slowest,
so each component is a contiguous block.
*/
func NewPatchView(data []float64, ns []int, g, nc int) PatchView {
	var (
		dim     = len(ns)
		strides = make([]int, dim+1)
		start   = make([]int, dim+1)
		end     = make([]int, dim+1)
		gstart  = make([]int, dim+1)
		gend    = make([]int, dim+1)
		origin  int
	)
	stride := 1
	for i, n := range ns {
		strides[i] = stride
		end[i] = n - 1
		gstart[i], gend[i] = -g, n+g-1
		origin += g * stride
		stride *= n + 2*g
	}
	strides[dim] = stride
	end[dim], gend[dim] = nc-1, nc-1
	if len(data) != stride*nc {
		panic(fmt.Errorf("buffer size mismatch: patch needs %d values, have %d", stride*nc, len(data)))
	}
	return PatchView{
		View:      newView(data, origin, strides, start, end, gstart, gend),
		ns:        append([]int(nil), ns...),
		numGhost:  g,
		component: true,
	}
}

/*
NewRemotePatchView addresses a packed slab of a patch with ns cells in that
patch's own coordinates: the slab covers starts[i]..starts[i]+lengths[i]-1 on
each spatial axis and nc components, packed in ForEachInterior order. Only
the slab can be addressed.
*/
func NewRemotePatchView(data []float64, ns []int, nc int, starts, lengths []int) PatchView {
	var (
		dim     = len(ns)
		strides = make([]int, dim+1)
		start   = make([]int, dim+1)
		end     = make([]int, dim+1)
		origin  int
	)
	stride := 1
	for i := range ns {
		strides[i] = stride
		start[i], end[i] = starts[i], starts[i]+lengths[i]-1
		origin -= starts[i] * stride
		stride *= lengths[i]
	}
	strides[dim] = stride
	end[dim] = nc - 1
	if len(data) != stride*nc {
		panic(fmt.Errorf("buffer size mismatch: slab needs %d values, have %d", stride*nc, len(data)))
	}
	return PatchView{
		View:      newView(data, origin, strides, start, end, start, end),
		ns:        append([]int(nil), ns...),
		component: true,
	}
}

func (p PatchView) Dim() int { return len(p.ns) }

// Ns is the interior cell count of the patch, also for a slab
func (p PatchView) Ns() []int { return p.ns }

func (p PatchView) NumGhostCells() int { return p.numGhost }

func (p PatchView) HasComponentAxis() bool { return p.component }

func (p PatchView) NumComponents() int {
	if !p.component {
		return 1
	}
	return p.end[len(p.ns)] + 1
}

func (p PatchView) ComponentView(c int) PatchView {
	if !p.component {
		panic(fmt.Errorf("view has no component axis"))
	}
	return PatchView{
		View:     p.View.Fix(len(p.ns), c),
		ns:       p.ns,
		numGhost: p.numGhost,
	}
}

func (p PatchView) checkFace(f domain.Face) {
	if f.Dim() != len(p.ns) {
		panic(fmt.Errorf("face %s of dimension %d used on a %d dimensional patch",
			f, f.Dim(), len(p.ns)))
	}
}

func (p PatchView) fixFace(f domain.Face, offsets []int, at func(axis, offset int, lower bool) int) (v View) {
	p.checkFace(f)
	fixed := f.FixedAxes()
	if len(offsets) != len(fixed) {
		panic(fmt.Errorf("%s %s needs %d offsets, have %v", f.Kind(), f, len(fixed), offsets))
	}
	v = p.View
	// highest axis first keeps the lower axis numbers valid
	for j := len(fixed) - 1; j >= 0; j-- {
		a := fixed[j]
		v = v.Fix(a, at(a, offsets[j], f.IsLowerOnAxis(a)))
	}
	return
}

/*
SliceOn is the layer of interior cells parallel to face f, offsets[j] cells
in from f along its j-th fixed axis. Negative offsets reach into the ghost
cells. The result spans the free axes of f and the component axis.
*/
func (p PatchView) SliceOn(f domain.Face, offsets []int) View {
	return p.fixFace(f, offsets, func(axis, offset int, lower bool) int {
		if lower {
			return offset
		}
		return p.ns[axis] - 1 - offset
	})
}

// GhostSliceOn is the layer of ghost cells offsets[j]+1 cells out from face f
func (p PatchView) GhostSliceOn(f domain.Face, offsets []int) View {
	return p.fixFace(f, offsets, func(axis, offset int, lower bool) int {
		if lower {
			return -1 - offset
		}
		return p.ns[axis] + offset
	})
}

func (p PatchView) region(f domain.Face, lowRange, highRange func(n int) (lo, hi int)) View {
	p.checkFace(f)
	var (
		rank = p.Rank()
		lo   = make([]int, rank)
		hi   = make([]int, rank)
	)
	for i, n := range p.ns {
		switch {
		case f.IsLowerOnAxis(i):
			lo[i], hi[i] = lowRange(n)
		case f.IsHigherOnAxis(i):
			lo[i], hi[i] = highRange(n)
		default:
			lo[i], hi[i] = 0, n-1
		}
	}
	if p.component {
		lo[rank-1], hi[rank-1] = 0, p.NumComponents()-1
	}
	return p.View.Restrict(lo, hi)
}

// GhostRegion is the block of ghost cells across face f, all components
func (p PatchView) GhostRegion(f domain.Face) View {
	g := p.numGhost
	return p.region(f,
		func(n int) (int, int) { return -g, -1 },
		func(n int) (int, int) { return n, n + g - 1 })
}

// BoundaryRegion is the block of interior cells within width of face f
func (p PatchView) BoundaryRegion(f domain.Face, width int) View {
	return p.region(f,
		func(n int) (int, int) { return 0, min(width, n) - 1 },
		func(n int) (int, int) { return n - min(width, n), n - 1 })
}

// BoundarySlab is the extent of BoundaryRegion(f, width) on a patch with ns
// cells, as used by NewRemotePatchView.
func BoundarySlab(ns []int, f domain.Face, width int) (starts, lengths []int) {
	starts, lengths = make([]int, len(ns)), make([]int, len(ns))
	for i, n := range ns {
		w := min(width, n)
		switch {
		case f.IsLowerOnAxis(i):
			starts[i], lengths[i] = 0, w
		case f.IsHigherOnAxis(i):
			starts[i], lengths[i] = n-w, w
		default:
			starts[i], lengths[i] = 0, n
		}
	}
	return
}
