package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(faces []Face) (out []string) {
	for _, f := range faces {
		out = append(out, f.String())
	}
	return
}

func TestFaceTables(t *testing.T) {
	{ // Test counts
		assert.Equal(t, 4, NumFaces(2, 1))
		assert.Equal(t, 4, NumFaces(2, 0))
		assert.Equal(t, 6, NumFaces(3, 2))
		assert.Equal(t, 12, NumFaces(3, 1))
		assert.Equal(t, 8, NumFaces(3, 0))
		assert.Equal(t, 0, NumFaces(2, 2))
		assert.Equal(t, 8, NumFlatFaces(2))
		assert.Equal(t, 26, NumFlatFaces(3))
		assert.Nil(t, Edges(2))
	}
	{ // Test names and ordering
		assert.Equal(t, []string{"WEST", "EAST", "SOUTH", "NORTH"}, names(Sides(2)))
		assert.Equal(t, []string{"SW", "SE", "NW", "NE"}, names(Corners(2)))
		assert.Equal(t, []string{"WEST", "EAST", "SOUTH", "NORTH", "BOTTOM", "TOP"}, names(Sides(3)))
		assert.Equal(t, []string{"BS", "BN", "TS", "TN", "BW", "BE", "TW", "TE", "SW", "SE", "NW", "NE"},
			names(Edges(3)))
		assert.Equal(t, []string{"BSW", "BSE", "BNW", "BNE", "TSW", "TSE", "TNW", "TNE"},
			names(Corners(3)))
	}
	{ // Test opposite is an involution that swaps each fixed axis
		for _, D := range []int{2, 3} {
			for _, f := range AllFaces(D) {
				o := f.Opposite()
				assert.Equal(t, f, o.Opposite())
				assert.NotEqual(t, f, o)
				for _, axis := range f.FixedAxes() {
					assert.Equal(t, f.IsHigherOnAxis(axis), o.IsLowerOnAxis(axis))
				}
			}
		}
		assert.Equal(t, "EAST", NewSide(2, SideWest).Opposite().String())
		assert.Equal(t, "TN", NewEdge(EdgeBS).Opposite().String())
		assert.Equal(t, "BE", NewEdge(EdgeTW).Opposite().String())
		assert.Equal(t, "NE", NewCorner(2, CornerSW).Opposite().String())
		assert.Equal(t, "TNE", NewCorner(3, CornerBSW).Opposite().String())
	}
	{ // Test axes and constituent sides
		te := NewEdge(EdgeTE)
		assert.Equal(t, EdgeFace, te.Kind())
		assert.Equal(t, []int{0, 2}, te.FixedAxes())
		assert.Equal(t, []int{1}, te.FreeAxes())
		assert.True(t, te.IsHigherOnAxis(0))
		assert.True(t, te.IsHigherOnAxis(2))
		assert.False(t, te.IsHigherOnAxis(1))
		assert.False(t, te.IsLowerOnAxis(1))
		assert.Equal(t, 2, te.NumOrthants())
		assert.Equal(t, []string{"SOUTH", "BOTTOM"}, names(NewEdge(EdgeBS).Sides()))
		assert.Equal(t, []string{"EAST", "NORTH", "TOP"}, names(NewCorner(3, CornerTNE).Sides()))
		assert.Equal(t, 1, NewSide(3, SideNorth).AxisIndex())
		assert.Equal(t, 4, NewSide(3, SideNorth).NumOrthants())
		assert.Equal(t, 1, NewCorner(3, CornerTNE).NumOrthants())
		assert.Panics(t, func() { te.AxisIndex() })
		assert.Panics(t, func() { NewEdge(12) })
		assert.Panics(t, func() { NewSide(4, 0) })
	}
	{ // Test flat indexes cover every facet once
		for _, D := range []int{2, 3} {
			for i, f := range AllFaces(D) {
				assert.Equal(t, i, f.FlatIndex())
				assert.Equal(t, f, FaceFromFlatIndex(D, i))
			}
		}
		assert.Equal(t, 6, NewEdge(EdgeBS).FlatIndex())
		assert.Equal(t, 18, NewCorner(3, CornerBSW).FlatIndex())
		assert.Equal(t, 4, NewCorner(2, CornerSW).FlatIndex())
	}
	{ // Test parsing names
		for _, D := range []int{2, 3} {
			for _, f := range AllFaces(D) {
				p, err := ParseFace(D, f.Kind(), f.String())
				require.NoError(t, err)
				assert.Equal(t, f, p)
			}
		}
		f, err := ParseFace(3, EdgeFace, " tw ")
		require.NoError(t, err)
		assert.Equal(t, NewEdge(EdgeTW), f)
		_, err = ParseFace(2, EdgeFace, "BS")
		assert.Error(t, err)
		_, err = ParseFace(2, SideFace, "TOP")
		assert.Error(t, err)
	}
}

func TestOrthant(t *testing.T) {
	var (
		west, east = NewSide(2, SideWest), NewSide(2, SideEast)
		north      = NewSide(2, SideNorth)
	)
	assert.Equal(t, OrthantSE, OrthantSW.NbrOnSide(east))
	assert.Equal(t, OrthantSW, OrthantNW.NbrOnSide(north))
	assert.True(t, OrthantSW.IsOnSide(west))
	assert.False(t, OrthantSW.IsOnSide(east))
	assert.Equal(t, []string{"EAST", "NORTH"}, names(OrthantSW.InteriorSides(2)))
	assert.Equal(t, []string{"WEST", "SOUTH"}, names(OrthantSW.ExteriorSides(2)))
	assert.Equal(t, []string{"WEST", "NORTH", "TOP"}, names(OrthantTNW.ExteriorSides(3)))
	assert.Equal(t, OrthantBNE, OrthantTNE.CollapseOnAxis(1))
	assert.Equal(t, Orthant(2), OrthantTSE.CollapseOnAxis(0))
	assert.Equal(t, []Orthant{OrthantSE, OrthantNE}, OrthantsOnSide(east))
	assert.Equal(t, []Orthant{OrthantBSW, OrthantBSE}, OrthantsOnFace(NewEdge(EdgeBS)))
	assert.Equal(t, []Orthant{OrthantTNE}, OrthantsOnFace(NewCorner(3, CornerTNE)))
	assert.Equal(t, Orthant(1), OrthantNE.OnFace(east))
	assert.Equal(t, Orthant(3), OrthantTNE.OnFace(NewSide(3, SideWest)))
	assert.Equal(t, "NE", OrthantName(2, OrthantNE))
	assert.Equal(t, "NULL", OrthantName(2, OrthantNull))
	assert.True(t, OrthantNull.IsNull())
	assert.False(t, OrthantNull.IsHigherOnAxis(0))
	assert.False(t, OrthantNull.IsLowerOnAxis(0))
	assert.Panics(t, func() { OrthantsOnSide(NewCorner(2, CornerNE)) })
}

func TestNbrInfo(t *testing.T) {
	{ // Test type names
		for _, nt := range []NbrType{Normal, Coarse, Fine} {
			p, err := ParseNbrType(nt.String())
			require.NoError(t, err)
			assert.Equal(t, nt, p)
		}
		_, err := ParseNbrType("SIDEWAYS")
		assert.Error(t, err)
	}
	{ // Test local index resolution
		idToLocal := map[int]int{7: 0, 9: 1}
		n := NewFineNbrInfo([]int{7, 8, 9, 10}, []int{0, 1, 0, 2})
		require.NoError(t, n.setLocalIndexes(idToLocal, 0))
		assert.Equal(t, []int{0, -1, 1, -1}, n.LocalIndexes)

		bad := NewNormalNbrInfo(11, 0)
		assert.Error(t, bad.setLocalIndexes(idToLocal, 0))
		remote := NewNormalNbrInfo(11, 1)
		require.NoError(t, remote.setLocalIndexes(idToLocal, 0))
		assert.Equal(t, -1, remote.LocalIndex)

		assert.Error(t, n.setGlobalIndexes(map[int]int{7: 3}))
		require.NoError(t, n.setGlobalIndexes(map[int]int{7: 3, 8: 4, 9: 5, 10: 6}))
		assert.Equal(t, []int{3, 4, 5, 6}, n.GlobalIndexes)
	}
}

func TestPatchInfo(t *testing.T) {
	var (
		east = NewSide(2, SideEast)
		ne   = NewCorner(2, CornerNE)
	)
	p := NewPatchInfo(2)
	{ // Test defaults
		assert.Equal(t, []int{1, 1}, p.Ns)
		assert.Equal(t, []float64{1, 1}, p.Spacings)
		assert.Equal(t, []float64{0, 0}, p.Starts)
		assert.Equal(t, []int{-1, -1, -1, -1}, p.ChildIDs)
		assert.False(t, p.HasChildren())
		assert.False(t, p.HasCoarseParent())
		assert.Equal(t, -1, p.ParentID)
		assert.Nil(t, p.NbrFaces())
	}
	{ // Test neighbor arity checks
		assert.Error(t, p.SetNbrInfo(east, NewFineNbrInfo([]int{1}, []int{0})))
		assert.Error(t, p.SetNbrInfo(east, NewCoarseNbrInfo(1, 0, 2)))
		assert.Error(t, p.SetNbrInfo(ne, NewFineNbrInfo([]int{1, 2}, []int{0, 0})))
		require.NoError(t, p.SetNbrInfo(ne, NewFineNbrInfo([]int{5}, []int{0})))
		require.NoError(t, p.SetNbrInfo(east, NewFineNbrInfo([]int{1, 2}, []int{0, 1})))
		assert.Panics(t, func() { p.HasNbr(NewSide(3, SideTop)) })
	}
	{ // Test queries
		assert.True(t, p.HasNbr(east))
		assert.False(t, p.HasNbr(NewSide(2, SideWest)))
		nt, ok := p.NbrType(east)
		assert.True(t, ok)
		assert.Equal(t, Fine, nt)
		_, ok = p.NbrType(NewSide(2, SideWest))
		assert.False(t, ok)
		_, err := p.NormalNbrInfo(east)
		assert.Error(t, err)
		_, err = p.CoarseNbrInfo(NewSide(2, SideWest))
		assert.Error(t, err)
		fine, err := p.FineNbrInfo(east)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, fine.IDs)
		assert.Equal(t, []Face{east, ne}, p.NbrFaces())
		assert.Equal(t, []int{1, 2, 5}, p.NbrIDs())
		assert.Equal(t, []int{0, 1, 0}, p.NbrRanks())
	}
	{ // Test clones are independent
		p.Ns[0], p.Spacings[0] = 4, 0.25
		c := p.Clone()
		c.Ns[0] = 8
		fine, _ := c.FineNbrInfo(east)
		fine.IDs[0] = 100
		orig, _ := p.FineNbrInfo(east)
		assert.Equal(t, 4, p.Ns[0])
		assert.Equal(t, 1, orig.IDs[0])
		assert.InDelta(t, 1.0, p.Volume(), 1e-14)
		assert.InDelta(t, 0.25, p.CellVolume(), 1e-14)
		assert.Equal(t, 4, p.NumCells())
	}
	{ // Test removing a neighbor
		require.NoError(t, p.SetNbrInfo(ne, nil))
		assert.False(t, p.HasNbr(ne))
	}
}
