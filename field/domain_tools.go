package field

import (
	"fmt"

	"github.com/notargets/patchgrid/comm"
	"github.com/notargets/patchgrid/domain"
)

// PointFunc evaluates a field at a physical position
type PointFunc func(x []float64) float64

func checkDomainVector(d *domain.Domain, v *Vector) error {
	if d.NumLocalPatches() != v.NumLocalPatches() {
		return fmt.Errorf("domain %d has %d local patches, vector has %d",
			d.ID(), d.NumLocalPatches(), v.NumLocalPatches())
	}
	for i, n := range d.Ns() {
		if len(v.Ns()) != len(d.Ns()) || v.Ns()[i] != n {
			return fmt.Errorf("domain %d has cell counts %v, vector has %v", d.ID(), d.Ns(), v.Ns())
		}
	}
	return nil
}

func setValues(d *domain.Domain, v *Vector, fns []PointFunc, withGhost bool) (err error) {
	if err = checkDomainVector(d, v); err != nil {
		return
	}
	if len(fns) > v.NumComponents() {
		return fmt.Errorf("%d functions for %d components", len(fns), v.NumComponents())
	}
	for i, p := range d.PatchInfos() {
		for c, fn := range fns {
			cv := v.ComponentView(c, i)
			if withGhost {
				cv.ForEachAll(func(coord []int) { cv.Set(coord, fn(p.RealCoordGhost(coord))) })
			} else {
				cv.ForEachInterior(func(coord []int) { cv.Set(coord, fn(p.RealCoord(coord))) })
			}
		}
	}
	return
}

// SetValues sets the interior cells of component c from fns[c] evaluated at
// the cell centers. Components without a function are left alone.
func SetValues(d *domain.Domain, v *Vector, fns ...PointFunc) error {
	return setValues(d, v, fns, false)
}

// SetValuesWithGhost is SetValues over the ghost cells as well
func SetValuesWithGhost(d *domain.Domain, v *Vector, fns ...PointFunc) error {
	return setValues(d, v, fns, true)
}

/*
Integrate is the midpoint rule integral of v over the domain, summed over
all components. It is collective over the domain's communicator.
*/
func Integrate(d *domain.Domain, v *Vector) (sum float64, err error) {
	if err = checkDomainVector(d, v); err != nil {
		return
	}
	var local float64
	for i, p := range d.PatchInfos() {
		var patchSum float64
		pv := v.PatchView(i)
		pv.ForEachInterior(func(coord []int) { patchSum += pv.Get(coord...) })
		local += patchSum * p.CellVolume()
	}
	return d.Communicator().AllreduceFloat(local, comm.OpSum)
}
