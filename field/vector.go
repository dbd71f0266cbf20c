package field

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/patchgrid/comm"
	"github.com/notargets/patchgrid/domain"
)

/*
Vector holds cell data for a list of patches, each with the same cell
counts, ghost width and number of components. Patch i owns one contiguous
block of data, ghost cells included.

Arithmetic and norms work on interior cells only, each interior row along
axis 0 is contiguous and handled with gonum's floats.
*/
type Vector struct {
	comm          *comm.Communicator
	ns            []int
	numGhost      int
	numComponents int
	numPatches    int
	patchStride   int
	rows          []int // Offsets of interior rows within one patch
	data          []float64
}

// NewVector allocates a zeroed Vector with one patch per local patch of d
func NewVector(d *domain.Domain, numComponents int) *Vector {
	return NewVectorForPatches(d.Communicator(), d.Ns(), d.NumGhostCells(),
		numComponents, d.NumLocalPatches())
}

func NewVectorForPatches(c *comm.Communicator, ns []int, numGhost, numComponents,
	numPatches int) (v *Vector) {
	if numComponents < 1 || numPatches < 0 || numGhost < 0 {
		panic(fmt.Errorf("invalid vector shape: %d components, %d patches, ghost width %d",
			numComponents, numPatches, numGhost))
	}
	v = &Vector{
		comm:          c,
		ns:            append([]int(nil), ns...),
		numGhost:      numGhost,
		numComponents: numComponents,
		numPatches:    numPatches,
	}
	perComponent := 1
	for _, n := range ns {
		perComponent *= n + 2*numGhost
	}
	v.patchStride = perComponent * numComponents
	v.data = make([]float64, v.patchStride*numPatches)
	// one row per interior coordinate on axes 1..D-1 and component
	template := NewPatchView(make([]float64, v.patchStride), ns, numGhost, numComponents)
	lo := append([]int(nil), template.Start()...)
	hi := append([]int(nil), template.End()...)
	hi[0] = lo[0]
	forEach(lo, hi, func(coord []int) {
		v.rows = append(v.rows, template.index(coord))
	})
	return
}

func (v *Vector) Communicator() *comm.Communicator { return v.comm }

func (v *Vector) Ns() []int { return v.ns }

func (v *Vector) NumGhostCells() int { return v.numGhost }

func (v *Vector) NumComponents() int { return v.numComponents }

func (v *Vector) NumLocalPatches() int { return v.numPatches }

// NumLocalCells counts interior cells of one component
func (v *Vector) NumLocalCells() (n int) {
	n = v.numPatches
	for _, ni := range v.ns {
		n *= ni
	}
	return
}

// PatchData is the raw block of patch i, ghost cells included
func (v *Vector) PatchData(i int) []float64 {
	return v.data[i*v.patchStride : (i+1)*v.patchStride]
}

func (v *Vector) PatchView(i int) PatchView {
	return NewPatchView(v.PatchData(i), v.ns, v.numGhost, v.numComponents)
}

func (v *Vector) ComponentView(c, i int) PatchView { return v.PatchView(i).ComponentView(c) }

// SameShape is true when w has the same layout as v
func (v *Vector) SameShape(w *Vector) bool {
	if w == nil || len(v.ns) != len(w.ns) || v.numGhost != w.numGhost ||
		v.numComponents != w.numComponents || v.numPatches != w.numPatches {
		return false
	}
	for i := range v.ns {
		if v.ns[i] != w.ns[i] {
			return false
		}
	}
	return true
}

func (v *Vector) checkShape(w *Vector) {
	if !v.SameShape(w) {
		panic(fmt.Errorf("vector shapes differ"))
	}
}

// eachRow calls fn with each contiguous interior row of v and of w
func (v *Vector) eachRow(w *Vector, fn func(vr, wr []float64)) {
	n0 := v.ns[0]
	for p := 0; p < v.numPatches; p++ {
		base := p * v.patchStride
		for _, r := range v.rows {
			var wr []float64
			if w != nil {
				wr = w.data[base+r : base+r+n0]
			}
			fn(v.data[base+r:base+r+n0], wr)
		}
	}
}

// Set sets every interior cell
func (v *Vector) Set(alpha float64) {
	v.eachRow(nil, func(vr, _ []float64) {
		for i := range vr {
			vr[i] = alpha
		}
	})
}

// SetWithGhost sets every cell, ghost cells included
func (v *Vector) SetWithGhost(alpha float64) {
	for i := range v.data {
		v.data[i] = alpha
	}
}

func (v *Vector) Scale(alpha float64) {
	v.eachRow(nil, func(vr, _ []float64) { floats.Scale(alpha, vr) })
}

// AXPY adds alpha*x to v
func (v *Vector) AXPY(alpha float64, x *Vector) {
	v.checkShape(x)
	v.eachRow(x, func(vr, xr []float64) { floats.AddScaled(vr, alpha, xr) })
}

// CopyFrom copies every cell of x, ghost cells included
func (v *Vector) CopyFrom(x *Vector) {
	v.checkShape(x)
	copy(v.data, x.data)
}

func (v *Vector) Clone() *Vector {
	c := *v
	c.data = append([]float64(nil), v.data...)
	return &c
}

// Dot is collective over the communicator
func (v *Vector) Dot(x *Vector) (dot float64, err error) {
	v.checkShape(x)
	var local float64
	v.eachRow(x, func(vr, xr []float64) { local += floats.Dot(vr, xr) })
	return v.comm.AllreduceFloat(local, comm.OpSum)
}

func (v *Vector) TwoNorm() (norm float64, err error) {
	var dot float64
	if dot, err = v.Dot(v); err != nil {
		return
	}
	norm = math.Sqrt(dot)
	return
}

func (v *Vector) InfNorm() (norm float64, err error) {
	var local float64
	v.eachRow(nil, func(vr, _ []float64) {
		local = math.Max(local, floats.Norm(vr, math.Inf(1)))
	})
	return v.comm.AllreduceFloat(local, comm.OpMax)
}
