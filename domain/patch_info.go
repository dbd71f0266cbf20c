package domain

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// PatchInfo is the description of one patch: its identity, geometry,
// position in the refinement tree and the neighbors across each facet.
type PatchInfo struct {
	Dim           int
	ID            int
	Rank          int
	LocalIndex    int
	GlobalIndex   int
	RefineLevel   int
	ParentID      int
	ParentRank    int
	OrthOnParent  Orthant
	ChildIDs      []int
	ChildRanks    []int
	Ns            []int
	NumGhostCells int
	Starts        []float64
	Spacings      []float64
	nbrs          []NbrInfo // Indexed by Face.FlatIndex
}

func NewPatchInfo(dim int) (p *PatchInfo) {
	checkDim(dim)
	p = &PatchInfo{
		Dim:          dim,
		ID:           -1,
		LocalIndex:   -1,
		GlobalIndex:  -1,
		RefineLevel:  -1,
		ParentID:     -1,
		ParentRank:   -1,
		OrthOnParent: OrthantNull,
		ChildIDs:     make([]int, NumOrthants(dim)),
		ChildRanks:   make([]int, NumOrthants(dim)),
		Ns:           make([]int, dim),
		Starts:       make([]float64, dim),
		Spacings:     make([]float64, dim),
		nbrs:         make([]NbrInfo, NumFlatFaces(dim)),
	}
	for i := range p.ChildIDs {
		p.ChildIDs[i], p.ChildRanks[i] = -1, -1
	}
	for i := 0; i < dim; i++ {
		p.Ns[i], p.Spacings[i] = 1, 1
	}
	return
}

func (p *PatchInfo) checkFace(f Face) {
	if f.Dim() != p.Dim {
		panic(fmt.Errorf("face %s of dimension %d used on a %d dimensional patch",
			f, f.Dim(), p.Dim))
	}
}

// SetNbrInfo sets the neighbor across f, a nil info removes it
func (p *PatchInfo) SetNbrInfo(f Face, info NbrInfo) (err error) {
	p.checkFace(f)
	switch n := info.(type) {
	case nil:
	case *NormalNbrInfo:
	case *CoarseNbrInfo:
		if n.OrthOnCoarse < 0 || int(n.OrthOnCoarse) >= f.NumOrthants() {
			return fmt.Errorf("patch %d: orthant %d on coarse neighbor is invalid for %s %s",
				p.ID, n.OrthOnCoarse, f.Kind(), f)
		}
	case *FineNbrInfo:
		if len(n.IDs) != f.NumOrthants() {
			return fmt.Errorf("patch %d: %s %s needs %d fine neighbors, have %d",
				p.ID, f.Kind(), f, f.NumOrthants(), len(n.IDs))
		}
	default:
		return fmt.Errorf("patch %d: unknown neighbor descriptor %T", p.ID, info)
	}
	p.nbrs[f.FlatIndex()] = info
	return
}

func (p *PatchInfo) HasNbr(f Face) bool {
	p.checkFace(f)
	return p.nbrs[f.FlatIndex()] != nil
}

func (p *PatchInfo) NbrInfo(f Face) NbrInfo {
	p.checkFace(f)
	return p.nbrs[f.FlatIndex()]
}

// NbrType reports the kind of neighbor across f, ok is false without one
func (p *PatchInfo) NbrType(f Face) (t NbrType, ok bool) {
	var info NbrInfo
	if info = p.NbrInfo(f); info == nil {
		return
	}
	return info.Type(), true
}

func (p *PatchInfo) NormalNbrInfo(f Face) (n *NormalNbrInfo, err error) {
	var ok bool
	if n, ok = p.NbrInfo(f).(*NormalNbrInfo); !ok {
		err = p.nbrTypeError(f, Normal)
	}
	return
}

func (p *PatchInfo) CoarseNbrInfo(f Face) (n *CoarseNbrInfo, err error) {
	var ok bool
	if n, ok = p.NbrInfo(f).(*CoarseNbrInfo); !ok {
		err = p.nbrTypeError(f, Coarse)
	}
	return
}

func (p *PatchInfo) FineNbrInfo(f Face) (n *FineNbrInfo, err error) {
	var ok bool
	if n, ok = p.NbrInfo(f).(*FineNbrInfo); !ok {
		err = p.nbrTypeError(f, Fine)
	}
	return
}

func (p *PatchInfo) nbrTypeError(f Face, want NbrType) error {
	if t, ok := p.NbrType(f); ok {
		return fmt.Errorf("patch %d: neighbor on %s is %s, not %s", p.ID, f, t, want)
	}
	return fmt.Errorf("patch %d: no neighbor on %s", p.ID, f)
}

// NbrFaces lists the facets that have a neighbor, in FlatIndex order
func (p *PatchInfo) NbrFaces() (faces []Face) {
	for i, info := range p.nbrs {
		if info != nil {
			faces = append(faces, FaceFromFlatIndex(p.Dim, i))
		}
	}
	return
}

// NbrIDs lists the ids of every neighbor, a patch appears once per facet
// it touches.
func (p *PatchInfo) NbrIDs() (ids []int) {
	for _, info := range p.nbrs {
		if info != nil {
			ids = append(ids, info.NbrIDs()...)
		}
	}
	return
}

func (p *PatchInfo) NbrRanks() (ranks []int) {
	for _, info := range p.nbrs {
		if info != nil {
			ranks = append(ranks, info.NbrRanks()...)
		}
	}
	return
}

func (p *PatchInfo) HasCoarseParent() bool { return !p.OrthOnParent.IsNull() }

func (p *PatchInfo) HasChildren() bool { return len(p.ChildIDs) > 0 && p.ChildIDs[0] != -1 }

func (p *PatchInfo) NumCells() (n int) {
	n = 1
	for _, ni := range p.Ns {
		n *= ni
	}
	return
}

// NumCellsWithGhost counts the cells of one component including the halo
func (p *PatchInfo) NumCellsWithGhost() (n int) {
	n = 1
	for _, ni := range p.Ns {
		n *= ni + 2*p.NumGhostCells
	}
	return
}

func (p *PatchInfo) CellVolume() float64 { return floats.Prod(p.Spacings) }

// Volume is the physical volume covered by the patch
func (p *PatchInfo) Volume() float64 {
	lengths := make([]float64, p.Dim)
	for i := range lengths {
		lengths[i] = p.Spacings[i] * float64(p.Ns[i])
	}
	return floats.Prod(lengths)
}

func (p *PatchInfo) SetLocalIndexes(idToLocal map[int]int, myRank int) (err error) {
	for i, info := range p.nbrs {
		if info == nil {
			continue
		}
		if err = info.setLocalIndexes(idToLocal, myRank); err != nil {
			return fmt.Errorf("patch %d on %s: %w", p.ID, FaceFromFlatIndex(p.Dim, i), err)
		}
	}
	return
}

func (p *PatchInfo) SetGlobalIndexes(idToGlobal map[int]int) (err error) {
	for i, info := range p.nbrs {
		if info == nil {
			continue
		}
		if err = info.setGlobalIndexes(idToGlobal); err != nil {
			return fmt.Errorf("patch %d on %s: %w", p.ID, FaceFromFlatIndex(p.Dim, i), err)
		}
	}
	return
}

func (p *PatchInfo) Clone() *PatchInfo {
	c := *p
	c.ChildIDs = append([]int(nil), p.ChildIDs...)
	c.ChildRanks = append([]int(nil), p.ChildRanks...)
	c.Ns = append([]int(nil), p.Ns...)
	c.Starts = append([]float64(nil), p.Starts...)
	c.Spacings = append([]float64(nil), p.Spacings...)
	c.nbrs = make([]NbrInfo, len(p.nbrs))
	for i, info := range p.nbrs {
		if info != nil {
			c.nbrs[i] = info.clone()
		}
	}
	return &c
}
