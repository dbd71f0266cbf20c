// Package domaintest builds small hand-checked patch layouts for tests
package domaintest

import (
	"github.com/notargets/patchgrid/domain"
)

func newPatch(dim, id, rank, level, n, g int, starts []float64, length float64) *domain.PatchInfo {
	p := domain.NewPatchInfo(dim)
	p.ID, p.Rank, p.RefineLevel, p.NumGhostCells = id, rank, level, g
	for i := 0; i < dim; i++ {
		p.Ns[i] = n
		p.Starts[i] = starts[i]
		p.Spacings[i] = length / float64(n)
	}
	return p
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func owned(rank int, all []*domain.PatchInfo) (mine []*domain.PatchInfo) {
	for _, p := range all {
		if p.Rank == rank {
			mine = append(mine, p)
		}
	}
	return
}

/*
MixedLevel2D is a two rank, two level 2D layout on [0,2]x[0,1]:

	+-------+---+---+
	|       | 3 | 4 |
	|   0   +---+---+
	|       | 1 | 2 |
	+-------+---+---+

Patch 0 has fine neighbors 1 and 3 on its east side, patches 1 and 3 see
patch 0 as a coarse neighbor. Rank 0 owns patches 0 and 1, rank 1 owns
2, 3 and 4. Each patch has n x n cells and g ghost cells. The patches owned
by rank are returned in id order.
*/
func MixedLevel2D(rank, n, g int) []*domain.PatchInfo {
	var (
		west, east   = domain.NewSide(2, domain.SideWest), domain.NewSide(2, domain.SideEast)
		south, north = domain.NewSide(2, domain.SideSouth), domain.NewSide(2, domain.SideNorth)
		sw, se       = domain.NewCorner(2, domain.CornerSW), domain.NewCorner(2, domain.CornerSE)
		nw, ne       = domain.NewCorner(2, domain.CornerNW), domain.NewCorner(2, domain.CornerNE)
	)
	p0 := newPatch(2, 0, 0, 0, n, g, []float64{0, 0}, 1)
	p1 := newPatch(2, 1, 0, 1, n, g, []float64{1, 0}, 0.5)
	p2 := newPatch(2, 2, 1, 1, n, g, []float64{1.5, 0}, 0.5)
	p3 := newPatch(2, 3, 1, 1, n, g, []float64{1, 0.5}, 0.5)
	p4 := newPatch(2, 4, 1, 1, n, g, []float64{1.5, 0.5}, 0.5)

	must(p0.SetNbrInfo(east, domain.NewFineNbrInfo([]int{1, 3}, []int{0, 1})))

	must(p1.SetNbrInfo(west, domain.NewCoarseNbrInfo(0, 0, 0)))
	must(p1.SetNbrInfo(east, domain.NewNormalNbrInfo(2, 1)))
	must(p1.SetNbrInfo(north, domain.NewNormalNbrInfo(3, 1)))
	must(p1.SetNbrInfo(ne, domain.NewNormalNbrInfo(4, 1)))

	must(p2.SetNbrInfo(west, domain.NewNormalNbrInfo(1, 0)))
	must(p2.SetNbrInfo(north, domain.NewNormalNbrInfo(4, 1)))
	must(p2.SetNbrInfo(nw, domain.NewNormalNbrInfo(3, 1)))

	must(p3.SetNbrInfo(west, domain.NewCoarseNbrInfo(0, 0, 1)))
	must(p3.SetNbrInfo(east, domain.NewNormalNbrInfo(4, 1)))
	must(p3.SetNbrInfo(south, domain.NewNormalNbrInfo(1, 0)))
	must(p3.SetNbrInfo(se, domain.NewNormalNbrInfo(2, 1)))

	must(p4.SetNbrInfo(west, domain.NewNormalNbrInfo(3, 1)))
	must(p4.SetNbrInfo(south, domain.NewNormalNbrInfo(2, 1)))
	must(p4.SetNbrInfo(sw, domain.NewNormalNbrInfo(1, 0)))

	return owned(rank, []*domain.PatchInfo{p0, p1, p2, p3, p4})
}

// SinglePatch is one patch with no neighbors on rank 0
func SinglePatch(rank, dim, n, g int) []*domain.PatchInfo {
	starts := make([]float64, dim)
	return owned(rank, []*domain.PatchInfo{newPatch(dim, 0, 0, 0, n, g, starts, 1)})
}

/*
Refined2D is a coarse patch 4 on rank 0 covering [0,1]^2 and its four
children 0..3 (ordered by orthant) on the finer level. Children 0 and 2
live on rank 0, children 1 and 3 on rank 1.
*/
func Refined2D(rank, n, g int) (coarse, fine []*domain.PatchInfo) {
	var (
		childRanks = []int{0, 1, 0, 1}
		parent     = newPatch(2, 4, 0, 0, n, g, []float64{0, 0}, 1)
		children   = make([]*domain.PatchInfo, 4)
	)
	parent.ChildIDs = []int{0, 1, 2, 3}
	parent.ChildRanks = append([]int(nil), childRanks...)
	for _, o := range domain.Orthants(2) {
		var starts = []float64{0, 0}
		for axis := 0; axis < 2; axis++ {
			if o.IsHigherOnAxis(axis) {
				starts[axis] = 0.5
			}
		}
		c := newPatch(2, int(o), childRanks[o], 1, n, g, starts, 0.5)
		c.ParentID, c.ParentRank, c.OrthOnParent = 4, 0, o
		children[o] = c
	}
	for _, o := range domain.Orthants(2) {
		for _, s := range o.InteriorSides(2) {
			nbr := o.NbrOnSide(s)
			must(children[o].SetNbrInfo(s, domain.NewNormalNbrInfo(int(nbr), childRanks[nbr])))
		}
		// the sibling across the parent's center, it sits in the corner
		// of the same name
		diag := domain.Orthant(3 - int(o))
		must(children[o].SetNbrInfo(diag.Corner(2),
			domain.NewNormalNbrInfo(int(diag), childRanks[diag])))
	}
	return owned(rank, []*domain.PatchInfo{parent}), owned(rank, children)
}

/*
TwoChildren2D is a coarse patch 2 on rank 0 covering [0,1]^2 with two fine
patches on its lower half: patch 0 (orthant SW) on rank 0 and patch 1
(orthant SE) on rank 1. The upper half is not refined, so the coarse patch
lists no children.
*/
func TwoChildren2D(rank, n, g int) (coarse, fine []*domain.PatchInfo) {
	var (
		west, east = domain.NewSide(2, domain.SideWest), domain.NewSide(2, domain.SideEast)
		parent     = newPatch(2, 2, 0, 0, n, g, []float64{0, 0}, 1)
		c0         = newPatch(2, 0, 0, 1, n, g, []float64{0, 0}, 0.5)
		c1         = newPatch(2, 1, 1, 1, n, g, []float64{0.5, 0}, 0.5)
	)
	c0.ParentID, c0.ParentRank, c0.OrthOnParent = 2, 0, 0
	c1.ParentID, c1.ParentRank, c1.OrthOnParent = 2, 0, 1
	must(c0.SetNbrInfo(east, domain.NewNormalNbrInfo(1, 1)))
	must(c1.SetNbrInfo(west, domain.NewNormalNbrInfo(0, 0)))
	return owned(rank, []*domain.PatchInfo{parent}), owned(rank, []*domain.PatchInfo{c0, c1})
}
