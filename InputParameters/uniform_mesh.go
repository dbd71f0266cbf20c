package InputParameters

import (
	"fmt"

	"github.com/notargets/patchgrid/domain"
	"github.com/notargets/patchgrid/utils"
)

func checkUniform(patchesPerAxis, numLevels int) error {
	if numLevels < 1 {
		return fmt.Errorf("need at least one level, have %d", numLevels)
	}
	if patchesPerAxis < 1 || patchesPerAxis%(1<<(numLevels-1)) != 0 {
		return fmt.Errorf("%d patches per axis can not be coarsened over %d levels",
			patchesPerAxis, numLevels)
	}
	return nil
}

// uniformLevel is a grid of per^dim patches, numbered with axis 0 fastest
type uniformLevel struct {
	dim, per, count, firstID int
	ranks                    *utils.Partition
}

func newUniformLevel(dim, per, firstID, numRanks int) (ul *uniformLevel) {
	ul = &uniformLevel{dim: dim, per: per, count: 1, firstID: firstID}
	for i := 0; i < dim; i++ {
		ul.count *= per
	}
	ul.ranks = utils.NewPartition(numRanks, ul.count)
	return
}

func (ul *uniformLevel) multiIndex(k int) (idx []int) {
	idx = make([]int, ul.dim)
	for i := range idx {
		idx[i] = k % ul.per
		k /= ul.per
	}
	return
}

// linear is -1 for an index outside the grid
func (ul *uniformLevel) linear(idx []int) (k int) {
	for i := ul.dim - 1; i >= 0; i-- {
		if idx[i] < 0 || idx[i] >= ul.per {
			return -1
		}
		k = k*ul.per + idx[i]
	}
	return
}

func (ul *uniformLevel) id(k int) int { return ul.firstID + k }

func (ul *uniformLevel) rank(k int) int {
	r, _ := ul.ranks.Owner(k)
	return r
}

/*
NewUniformMesh describes the unit square or cube covered by
patchesPerAxis^dim patches on the finest level, coarsened by two per axis
on each of numLevels-1 coarser levels. Patch ids are unique over all
levels. Each level is split over numRanks in contiguous runs of ids.
*/
func NewUniformMesh(dim, patchesPerAxis, numLevels, numRanks int) (md *MeshDescription, err error) {
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("dimension must be 2 or 3, have %d", dim)
	}
	if numRanks < 1 {
		return nil, fmt.Errorf("need at least one rank, have %d", numRanks)
	}
	if err = checkUniform(patchesPerAxis, numLevels); err != nil {
		return
	}
	var (
		grids   = make([]*uniformLevel, numLevels)
		firstID int
	)
	for l := range grids {
		grids[l] = newUniformLevel(dim, patchesPerAxis>>l, firstID, numRanks)
		firstID += grids[l].count
	}
	md = &MeshDescription{Dimension: dim, NumRanks: numRanks, Levels: make([]LevelDescription, numLevels)}
	faces := domain.AllFaces(dim)
	for l, g := range grids {
		length := 1 / float64(g.per)
		for k := 0; k < g.count; k++ {
			idx := g.multiIndex(k)
			pd := PatchDescription{
				ID:           g.id(k),
				Rank:         g.rank(k),
				RefineLevel:  numLevels - 1 - l,
				ParentID:     -1,
				ParentRank:   -1,
				OrthOnParent: -1,
				Starts:       make([]float64, dim),
				Lengths:      make([]float64, dim),
			}
			for i, x := range idx {
				pd.Starts[i], pd.Lengths[i] = float64(x)*length, length
			}
			if l+1 < numLevels {
				var (
					parent = grids[l+1]
					pidx   = make([]int, dim)
					orth   int
				)
				for i, x := range idx {
					pidx[i] = x / 2
					orth |= (x % 2) << i
				}
				pk := parent.linear(pidx)
				pd.ParentID, pd.ParentRank, pd.OrthOnParent = parent.id(pk), parent.rank(pk), orth
			}
			if l > 0 {
				child := grids[l-1]
				cidx := make([]int, dim)
				for _, o := range domain.Orthants(dim) {
					for i, x := range idx {
						cidx[i] = 2 * x
						if o.IsHigherOnAxis(i) {
							cidx[i]++
						}
					}
					ck := child.linear(cidx)
					pd.ChildIDs = append(pd.ChildIDs, child.id(ck))
					pd.ChildRanks = append(pd.ChildRanks, child.rank(ck))
				}
			}
			nidx := make([]int, dim)
			for _, f := range faces {
				copy(nidx, idx)
				for _, axis := range f.FixedAxes() {
					if f.IsLowerOnAxis(axis) {
						nidx[axis]--
					} else {
						nidx[axis]++
					}
				}
				nk := g.linear(nidx)
				if nk < 0 {
					continue
				}
				nd := NbrDescription{
					Type:  domain.Normal.String(),
					Face:  f.String(),
					IDs:   []int{g.id(nk)},
					Ranks: []int{g.rank(nk)},
				}
				switch f.Kind() {
				case domain.SideFace:
					pd.Nbrs = append(pd.Nbrs, nd)
				case domain.EdgeFace:
					pd.EdgeNbrs = append(pd.EdgeNbrs, nd)
				default:
					pd.CornerNbrs = append(pd.CornerNbrs, nd)
				}
			}
			md.Levels[l].Patches = append(md.Levels[l].Patches, pd)
		}
	}
	return
}
