package gmg

import (
	"fmt"

	"github.com/notargets/patchgrid/domain"
	"github.com/notargets/patchgrid/field"
)

/*
LinearRestrictor averages each block of 2^D fine cells into the coarse cell
covering it. With ExtrapolateBoundaryGhosts the coarse ghost cells on the
physical boundary are set by linear extrapolation from the fine boundary
layer. A fine patch on the same refinement level as its parent is copied.
*/
type LinearRestrictor struct {
	ExtrapolateBoundaryGhosts bool
}

func NewLinearRestrictor(extrapolate bool) *LinearRestrictor {
	return &LinearRestrictor{ExtrapolateBoundaryGhosts: extrapolate}
}

func (lr *LinearRestrictor) RestrictPatches(patches []PatchRef, fine, coarse *field.Vector) error {
	if fine.NumComponents() != coarse.NumComponents() {
		return fmt.Errorf("fine vector has %d components, coarse %d",
			fine.NumComponents(), coarse.NumComponents())
	}
	if lr.ExtrapolateBoundaryGhosts && fine.NumGhostCells() < 1 {
		return fmt.Errorf("boundary extrapolation needs ghost cells")
	}
	for _, ref := range patches {
		var (
			p  = ref.Patch
			fv = fine.PatchView(p.LocalIndex)
			cv = coarse.PatchView(ref.Index)
		)
		if !p.HasCoarseParent() {
			copyToParent(fv, cv, lr.ExtrapolateBoundaryGhosts)
			continue
		}
		starts := parentStarts(p.OrthOnParent, cv.Ns())
		lr.restrictToParent(fv, cv, starts)
		if lr.ExtrapolateBoundaryGhosts {
			extrapolateBoundaries(p, fv, cv, starts)
		}
	}
	return nil
}

// parentStarts is the fine cell offset of orthant o on a parent with ns cells
func parentStarts(o domain.Orthant, ns []int) []int {
	starts := make([]int, len(ns))
	for i, n := range ns {
		if o.IsHigherOnAxis(i) {
			starts[i] = n
		}
	}
	return starts
}

func (lr *LinearRestrictor) restrictToParent(fv, cv field.PatchView, starts []int) {
	var (
		dim    = fv.Dim()
		weight = 1 / float64(int(1)<<dim)
		cc     = make([]int, fv.Rank())
	)
	fv.ForEachInterior(func(coord []int) {
		for i := 0; i < dim; i++ {
			cc[i] = (coord[i] + starts[i]) / 2
		}
		cc[dim] = coord[dim]
		cv.Add(cc, weight*fv.Get(coord...))
	})
}

func extrapolateBoundaries(p *domain.PatchInfo, fv, cv field.PatchView, starts []int) {
	var (
		dim    = fv.Dim()
		weight = 1 / float64(int(1)<<dim)
	)
	for _, s := range p.OrthOnParent.ExteriorSides(dim) {
		var (
			fineGhost    = fv.SliceOn(s, []int{-1})
			fineInterior = fv.SliceOn(s, []int{0})
			coarseGhost  = cv.SliceOn(s, []int{-1})
			free         = s.FreeAxes()
			cc           = make([]int, fineGhost.Rank())
		)
		fineGhost.ForEachInterior(func(coord []int) {
			for j, axis := range free {
				cc[j] = (coord[j] + starts[axis]) / 2
			}
			cc[len(free)] = coord[len(free)]
			val := 3*fineGhost.Get(coord...) - fineInterior.Get(coord...)
			coarseGhost.Add(cc, weight*val)
		})
	}
	corner := p.OrthOnParent.Corner(dim)
	if p.HasNbr(corner) {
		return
	}
	var (
		ghostOffsets    = make([]int, dim)
		interiorOffsets = make([]int, dim)
	)
	for i := range ghostOffsets {
		ghostOffsets[i] = -1
	}
	var (
		fineGhost    = fv.SliceOn(corner, ghostOffsets)
		fineInterior = fv.SliceOn(corner, interiorOffsets)
		coarseGhost  = cv.SliceOn(corner, ghostOffsets)
	)
	fineGhost.ForEachInterior(func(coord []int) {
		coarseGhost.Add(coord, 3*fineGhost.Get(coord...)-fineInterior.Get(coord...))
	})
}

func copyToParent(fv, cv field.PatchView, withGhosts bool) {
	add := func(coord []int) { cv.Add(coord, fv.Get(coord...)) }
	if withGhosts {
		fv.ForEachAll(add)
		return
	}
	fv.ForEachInterior(add)
}
