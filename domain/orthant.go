package domain

import "fmt"

// Orthant selects one of the 2^D children of a refined patch, bit i is set
// when the child is on the upper half of axis i.
type Orthant int

const OrthantNull Orthant = -1

// Orthant values in 2D
const (
	OrthantSW Orthant = iota
	OrthantSE
	OrthantNW
	OrthantNE
)

// Orthant values in 3D
const (
	OrthantBSW Orthant = iota
	OrthantBSE
	OrthantBNW
	OrthantBNE
	OrthantTSW
	OrthantTSE
	OrthantTNW
	OrthantTNE
)

func NumOrthants(dim int) int { return 1 << dim }

func Orthants(dim int) (orths []Orthant) {
	for o := 0; o < NumOrthants(dim); o++ {
		orths = append(orths, Orthant(o))
	}
	return
}

func (o Orthant) IsNull() bool { return o < 0 }

func (o Orthant) IsHigherOnAxis(axis int) bool { return o >= 0 && o&(1<<axis) != 0 }

func (o Orthant) IsLowerOnAxis(axis int) bool { return o >= 0 && o&(1<<axis) == 0 }

// IsOnSide is true when the orthant touches side s of its parent
func (o Orthant) IsOnSide(s Face) bool {
	return o.IsHigherOnAxis(s.AxisIndex()) == s.IsHigherOnAxis(s.AxisIndex())
}

// NbrOnSide is the sibling across side s
func (o Orthant) NbrOnSide(s Face) Orthant {
	return o ^ Orthant(1<<s.AxisIndex())
}

// InteriorSides are the sides shared with siblings
func (o Orthant) InteriorSides(dim int) (sides []Face) {
	for axis := 0; axis < dim; axis++ {
		v := 2 * axis
		if o.IsLowerOnAxis(axis) {
			v++
		}
		sides = append(sides, NewSide(dim, v))
	}
	return
}

// ExteriorSides are the sides that lie on the parent's boundary
func (o Orthant) ExteriorSides(dim int) (sides []Face) {
	for axis := 0; axis < dim; axis++ {
		v := 2 * axis
		if o.IsHigherOnAxis(axis) {
			v++
		}
		sides = append(sides, NewSide(dim, v))
	}
	return
}

// Corner is the corner of the parent the orthant contains
func (o Orthant) Corner(dim int) Face { return NewCorner(dim, int(o)) }

// CollapseOnAxis drops axis, giving the orthant in one dimension less
func (o Orthant) CollapseOnAxis(axis int) Orthant {
	lower := o & (1<<axis - 1)
	upper := (o >> (axis + 1)) << axis
	return upper | lower
}

// OnFace projects the orthant onto the free axes of f, this is the index of
// the fine neighbor on f that the orthant's child touches.
func (o Orthant) OnFace(f Face) (p Orthant) {
	for k, axis := range f.FreeAxes() {
		if o.IsHigherOnAxis(axis) {
			p |= 1 << k
		}
	}
	return
}

// OrthantsOnFace lists the orthants touching face f, ordered by their index
// on f.
func OrthantsOnFace(f Face) (orths []Orthant) {
	orths = make([]Orthant, f.NumOrthants())
	for _, o := range Orthants(f.Dim()) {
		touches := true
		for _, axis := range f.FixedAxes() {
			if o.IsHigherOnAxis(axis) != f.IsHigherOnAxis(axis) {
				touches = false
				break
			}
		}
		if touches {
			orths[o.OnFace(f)] = o
		}
	}
	return
}

func OrthantName(dim int, o Orthant) string {
	if o.IsNull() {
		return "NULL"
	}
	if int(o) >= NumOrthants(dim) {
		return fmt.Sprintf("Orthant(%d)", int(o))
	}
	return NewCorner(dim, int(o)).String()
}

// OrthantsOnSide lists the children of a patch that touch side s
func OrthantsOnSide(s Face) []Orthant {
	if s.Kind() != SideFace {
		panic(fmt.Errorf("OrthantsOnSide called on %s %s", s.Kind(), s))
	}
	return OrthantsOnFace(s)
}
