package domain

import (
	"fmt"
	"strings"
)

type FaceKind uint8

const (
	SideFace FaceKind = iota
	EdgeFace
	CornerFace
)

func (k FaceKind) String() string {
	switch k {
	case SideFace:
		return "side"
	case EdgeFace:
		return "edge"
	case CornerFace:
		return "corner"
	}
	return fmt.Sprintf("FaceKind(%d)", uint8(k))
}

// Side values
const (
	SideWest = iota
	SideEast
	SideSouth
	SideNorth
	SideBottom
	SideTop
)

// Edge values, 3D only
const (
	EdgeBS = iota
	EdgeBN
	EdgeTS
	EdgeTN
	EdgeBW
	EdgeBE
	EdgeTW
	EdgeTE
	EdgeSW
	EdgeSE
	EdgeNW
	EdgeNE
)

// Corner values in 2D
const (
	CornerSW = iota
	CornerSE
	CornerNW
	CornerNE
)

// Corner values in 3D
const (
	CornerBSW = iota
	CornerBSE
	CornerBNW
	CornerBNE
	CornerTSW
	CornerTSE
	CornerTNW
	CornerTNE
)

/*
Face is one facet of a D dimensional patch: a side (dimension D-1), an edge
(dimension 1, 3D only) or a corner (dimension 0). A face lies on the lower or
higher end of each of its fixed axes and spans its free axes.

Faces of one kind are grouped by the axes they span, inside a group bit j of
the value is set when the face is on the higher end of its j-th fixed axis
(fixed axes in ascending order). This gives the familiar orderings
W,E,S,N,B,T and SW,SE,NW,NE, and makes the opposite face a bit flip.
*/
type Face struct {
	dim   int8
	m     int8
	value int8
}

type faceTable struct {
	fixed [][]int
	free  [][]int
	names []string
}

var (
	faceTables [4][3]*faceTable // [D][M]
	axisLetter = [3][2]string{{"W", "E"}, {"S", "N"}, {"B", "T"}}
	sideName   = [3][2]string{{"WEST", "EAST"}, {"SOUTH", "NORTH"}, {"BOTTOM", "TOP"}}
)

func init() {
	for D := 2; D <= 3; D++ {
		for M := 0; M < D; M++ {
			faceTables[D][M] = buildFaceTable(D, M)
		}
	}
}

func combinations(n, k int) (combos [][]int) {
	var rec func(start int, cur []int)
	rec = func(start int, cur []int) {
		if len(cur) == k {
			combos = append(combos, append([]int(nil), cur...))
			return
		}
		for i := start; i < n; i++ {
			rec(i+1, append(cur, i))
		}
	}
	rec(0, nil)
	return
}

func complement(n int, axes []int) (out []int) {
	in := make(map[int]bool, len(axes))
	for _, a := range axes {
		in[a] = true
	}
	for a := 0; a < n; a++ {
		if !in[a] {
			out = append(out, a)
		}
	}
	return
}

func buildFaceTable(D, M int) (ft *faceTable) {
	var groups [][]int // fixed axes of each group
	if M == D-1 {
		for a := 0; a < D; a++ {
			groups = append(groups, []int{a})
		}
	} else {
		for _, free := range combinations(D, M) {
			groups = append(groups, complement(D, free))
		}
	}
	ft = &faceTable{}
	for _, fixed := range groups {
		free := complement(D, fixed)
		for bits := 0; bits < 1<<len(fixed); bits++ {
			var name string
			if M == D-1 {
				name = sideName[fixed[0]][bits&1]
			} else {
				for j := len(fixed) - 1; j >= 0; j-- {
					name += axisLetter[fixed[j]][(bits>>j)&1]
				}
			}
			ft.fixed = append(ft.fixed, fixed)
			ft.free = append(ft.free, free)
			ft.names = append(ft.names, name)
		}
	}
	return
}

func binomial(n, k int) (c int) {
	c = 1
	for i := 0; i < k; i++ {
		c = c * (n - i) / (i + 1)
	}
	return
}

// NumFaces is the number of faces of dimension M on a D dimensional patch
func NumFaces(D, M int) int {
	if M < 0 || M >= D {
		return 0
	}
	return (1 << (D - M)) * binomial(D, M)
}

func checkDim(D int) {
	if D < 2 || D > 3 {
		panic(fmt.Errorf("unsupported dimension %d", D))
	}
}

func newFace(D, M, value int) Face {
	checkDim(D)
	if M < 0 || M >= D || value < 0 || value >= NumFaces(D, M) {
		panic(fmt.Errorf("invalid face value %d for D=%d M=%d", value, D, M))
	}
	return Face{dim: int8(D), m: int8(M), value: int8(value)}
}

func NewSide(D, value int) Face { return newFace(D, D-1, value) }

func NewEdge(value int) Face { return newFace(3, 1, value) }

func NewCorner(D, value int) Face { return newFace(D, 0, value) }

func facesOf(D, M int) (faces []Face) {
	checkDim(D)
	for v := 0; v < NumFaces(D, M); v++ {
		faces = append(faces, newFace(D, M, v))
	}
	return
}

func Sides(D int) []Face { return facesOf(D, D-1) }

// Edges is empty in 2D, the codimension 2 faces of a 2D patch are corners
func Edges(D int) []Face {
	if D != 3 {
		checkDim(D)
		return nil
	}
	return facesOf(3, 1)
}

func Corners(D int) []Face { return facesOf(D, 0) }

// AllFaces lists sides, then edges, then corners, which is FlatIndex order
func AllFaces(D int) (faces []Face) {
	checkDim(D)
	for M := D - 1; M >= 0; M-- {
		faces = append(faces, facesOf(D, M)...)
	}
	return
}

// NumFlatFaces is the total number of facets of a D dimensional patch
func NumFlatFaces(D int) (n int) {
	for M := 0; M < D; M++ {
		n += NumFaces(D, M)
	}
	return
}

func (f Face) table() *faceTable { return faceTables[f.dim][f.m] }

func (f Face) IsValid() bool { return f.dim >= 2 }

// Dim is the dimension of the patch the face belongs to
func (f Face) Dim() int { return int(f.dim) }

// FaceDim is the dimension of the face itself
func (f Face) FaceDim() int { return int(f.m) }

func (f Face) Value() int { return int(f.value) }

func (f Face) Kind() FaceKind {
	switch {
	case f.m == f.dim-1:
		return SideFace
	case f.m == 0:
		return CornerFace
	}
	return EdgeFace
}

func (f Face) FixedAxes() []int { return f.table().fixed[f.value] }

func (f Face) FreeAxes() []int { return f.table().free[f.value] }

func (f Face) fixedBit(axis int) (bit int, ok bool) {
	for j, a := range f.FixedAxes() {
		if a == axis {
			return (int(f.value) >> j) & 1, true
		}
	}
	return
}

// IsHigherOnAxis is true when axis is fixed and the face is on its high end
func (f Face) IsHigherOnAxis(axis int) bool {
	bit, ok := f.fixedBit(axis)
	return ok && bit == 1
}

// IsLowerOnAxis is true when axis is fixed and the face is on its low end
func (f Face) IsLowerOnAxis(axis int) bool {
	bit, ok := f.fixedBit(axis)
	return ok && bit == 0
}

// AxisIndex is the normal axis of a side
func (f Face) AxisIndex() int {
	if f.Kind() != SideFace {
		panic(fmt.Errorf("AxisIndex called on %s %s", f.Kind(), f))
	}
	return f.FixedAxes()[0]
}

func (f Face) Opposite() Face {
	f.value ^= int8(1<<(f.dim-f.m) - 1)
	return f
}

// Sides returns the sides that meet at this face, a side returns itself
func (f Face) Sides() (sides []Face) {
	for _, a := range f.FixedAxes() {
		v := 2 * a
		if f.IsHigherOnAxis(a) {
			v++
		}
		sides = append(sides, NewSide(int(f.dim), v))
	}
	return
}

// NumOrthants is the number of finer neighbors that cover this face
func (f Face) NumOrthants() int { return 1 << f.m }

// FlatIndex numbers every facet of a patch, sides first, then edges, then
// corners.
func (f Face) FlatIndex() (idx int) {
	for M := int(f.dim) - 1; M > int(f.m); M-- {
		idx += NumFaces(int(f.dim), M)
	}
	idx += int(f.value)
	return
}

func FaceFromFlatIndex(D, idx int) Face {
	checkDim(D)
	for M := D - 1; M >= 0; M-- {
		if idx < NumFaces(D, M) {
			return newFace(D, M, idx)
		}
		idx -= NumFaces(D, M)
	}
	panic(fmt.Errorf("flat face index out of range for D=%d", D))
}

func (f Face) String() string {
	if !f.IsValid() {
		return "NULL"
	}
	return f.table().names[f.value]
}

// ParseFace converts an upper case face name, like those written by String,
// into a face of the given kind.
func ParseFace(D int, kind FaceKind, name string) (f Face, err error) {
	if D < 2 || D > 3 {
		err = fmt.Errorf("unsupported dimension %d", D)
		return
	}
	var faces []Face
	switch kind {
	case SideFace:
		faces = Sides(D)
	case EdgeFace:
		faces = Edges(D)
	case CornerFace:
		faces = Corners(D)
	}
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, face := range faces {
		if face.String() == name {
			f = face
			return
		}
	}
	err = fmt.Errorf("unknown %s %q for dimension %d", kind, name, D)
	return
}
