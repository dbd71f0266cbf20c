package gmg

import (
	"fmt"

	"github.com/notargets/patchgrid/field"
)

// DirectInterpolator adds to each fine cell the value of the coarse cell
// covering it.
type DirectInterpolator struct{}

func NewDirectInterpolator() *DirectInterpolator { return &DirectInterpolator{} }

func (di *DirectInterpolator) InterpolatePatches(patches []PatchRef, coarse, fine *field.Vector) error {
	if fine.NumComponents() != coarse.NumComponents() {
		return fmt.Errorf("fine vector has %d components, coarse %d",
			fine.NumComponents(), coarse.NumComponents())
	}
	for _, ref := range patches {
		var (
			p  = ref.Patch
			fv = fine.PatchView(p.LocalIndex)
			cv = coarse.PatchView(ref.Index)
		)
		if !p.HasCoarseParent() {
			fv.ForEachInterior(func(coord []int) { fv.Add(coord, cv.Get(coord...)) })
			continue
		}
		var (
			dim    = fv.Dim()
			starts = parentStarts(p.OrthOnParent, cv.Ns())
			cc     = make([]int, fv.Rank())
		)
		fv.ForEachInterior(func(coord []int) {
			for i := 0; i < dim; i++ {
				cc[i] = (coord[i] + starts[i]) / 2
			}
			cc[dim] = coord[dim]
			fv.Add(coord, cv.Get(cc...))
		})
	}
	return nil
}
