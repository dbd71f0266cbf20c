package ghost

import (
	"fmt"

	"github.com/notargets/patchgrid/domain"
	"github.com/notargets/patchgrid/field"
)

/*
InjectionStrategy is a simple Strategy. Ghost cells with no neighbor are
zero. Across a Normal neighbor the ghost cells copy the matching neighbor
cells. Across a Coarse or Fine neighbor each ghost cell takes the mean, per
component, of the part of the neighbor's boundary layer it faces.
*/
type InjectionStrategy struct{}

func NewInjectionStrategy() *InjectionStrategy { return &InjectionStrategy{} }

func (s *InjectionStrategy) FillGhostCellsForLocalPatch(pinfo *domain.PatchInfo,
	view field.PatchView) error {
	for _, f := range domain.AllFaces(pinfo.Dim) {
		if !pinfo.HasNbr(f) {
			view.GhostRegion(f).Fill(0)
		}
	}
	return nil
}

func (s *InjectionStrategy) FillGhostCellsForNbrPatch(pinfo *domain.PatchInfo,
	localView, nbrView field.PatchView, f domain.Face, nbrType domain.NbrType,
	orthant domain.Orthant) error {
	var (
		ns = localView.Ns()
		g  = localView.NumGhostCells()
	)
	for _, axis := range f.FixedAxes() {
		if g > ns[axis] {
			return fmt.Errorf("ghost width %d exceeds %d cells on axis %d", g, ns[axis], axis)
		}
	}
	ghosts := localView.GhostRegion(f)
	switch nbrType {
	case domain.Normal:
		if !orthant.IsNull() {
			return fmt.Errorf("normal neighbor on %s with orthant %d", f, orthant)
		}
		src := make([]int, ghosts.Rank())
		ghosts.ForEachInterior(func(coord []int) {
			copy(src, coord)
			for _, axis := range f.FixedAxes() {
				if f.IsLowerOnAxis(axis) {
					src[axis] += ns[axis]
				} else {
					src[axis] -= ns[axis]
				}
			}
			ghosts.Set(coord, nbrView.Get(src...))
		})
	case domain.Fine:
		// only the part of the ghost layer facing this fine neighbor
		if orthant < 0 || int(orthant) >= f.NumOrthants() {
			return fmt.Errorf("fine neighbor on %s with orthant %d", f, orthant)
		}
		mean := componentMeans(nbrView.BoundaryRegion(f.Opposite(), g), nbrView.NumComponents())
		fillComponents(onOrthant(ghosts, f, orthant, ns), mean)
	case domain.Coarse:
		// only the part of the coarse boundary layer this patch faces
		if orthant < 0 || int(orthant) >= f.NumOrthants() {
			return fmt.Errorf("coarse neighbor on %s with orthant %d", f, orthant)
		}
		slab := onOrthant(nbrView.BoundaryRegion(f.Opposite(), g), f, orthant, ns)
		fillComponents(ghosts, componentMeans(slab, nbrView.NumComponents()))
	default:
		return fmt.Errorf("unknown neighbor type %s", nbrType)
	}
	return nil
}

// onOrthant narrows v to the half of each free axis of f selected by o
func onOrthant(v field.View, f domain.Face, o domain.Orthant, ns []int) field.View {
	lo := append([]int(nil), v.Start()...)
	hi := append([]int(nil), v.End()...)
	for j, axis := range f.FreeAxes() {
		half := ns[axis] / 2
		if o.IsHigherOnAxis(j) {
			lo[axis] = max(lo[axis], half)
		} else {
			hi[axis] = min(hi[axis], half-1)
		}
	}
	return v.Restrict(lo, hi)
}

// componentMeans averages a view whose last axis is the component
func componentMeans(v field.View, nc int) (mean []float64) {
	var (
		last  = v.Rank() - 1
		count = make([]int, nc)
	)
	mean = make([]float64, nc)
	v.ForEachInterior(func(coord []int) {
		mean[coord[last]] += v.Get(coord...)
		count[coord[last]]++
	})
	for c := range mean {
		if count[c] > 0 {
			mean[c] /= float64(count[c])
		}
	}
	return
}

func fillComponents(v field.View, vals []float64) {
	last := v.Rank() - 1
	v.ForEachInterior(func(coord []int) { v.Set(coord, vals[coord[last]]) })
}
