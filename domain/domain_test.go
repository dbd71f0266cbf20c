package domain_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/patchgrid/comm"
	"github.com/notargets/patchgrid/domain"
	"github.com/notargets/patchgrid/domain/domaintest"
)

// buildAll constructs one Domain per rank and keeps every rank's error
func buildAll(t *testing.T, size int, ns []int, g int,
	patches func(rank int) []*domain.PatchInfo) (ds []*domain.Domain, errs []error) {
	w, err := comm.NewWorld(size)
	require.NoError(t, err)
	ds, errs = make([]*domain.Domain, size), make([]error, size)
	perRank := make([][]*domain.PatchInfo, size)
	for rank := range perRank {
		perRank[rank] = patches(rank)
	}
	err = w.Run(context.Background(), func(c *comm.Communicator) error {
		ds[c.Rank()], errs[c.Rank()] = domain.NewDomain(c, 0, ns, g, perRank[c.Rank()])
		return nil
	})
	require.NoError(t, err)
	return
}

func TestDomainIndexes(t *testing.T) {
	ds, errs := buildAll(t, 2, []int{4, 4}, 1, func(rank int) []*domain.PatchInfo {
		return domaintest.MixedLevel2D(rank, 4, 1)
	})
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	var (
		globals   []int
		idToRank  = make(map[int]int)
		idToLocal = make(map[int]int)
		idToGlob  = make(map[int]int)
	)
	for rank, d := range ds {
		for i, p := range d.PatchInfos() {
			assert.Equal(t, i, p.LocalIndex)
			globals = append(globals, p.GlobalIndex)
			idToRank[p.ID], idToLocal[p.ID], idToGlob[p.ID] = rank, i, p.GlobalIndex
			li, ok := d.LocalIndexOf(p.ID)
			assert.True(t, ok)
			assert.Equal(t, i, li)
		}
	}
	sort.Ints(globals)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, globals)
	// rank-major numbering
	assert.Equal(t, 0, ds[0].PatchInfo(0).GlobalIndex)
	assert.Equal(t, 2, ds[1].PatchInfo(0).GlobalIndex)
	{ // Test every rank maps a global index back to its owner
		for _, d := range ds {
			rank, local := d.GlobalIndexOwner(3)
			assert.Equal(t, [2]int{1, 1}, [2]int{rank, local})
			rank, _ = d.GlobalIndexOwner(5)
			assert.Equal(t, -1, rank)
			assert.Equal(t, []int{2, 3}, []int{d.NumPatchesOnRank(0), d.NumPatchesOnRank(1)})
		}
	}

	for rank, d := range ds {
		for _, p := range d.PatchInfos() {
			for _, f := range p.NbrFaces() {
				info := p.NbrInfo(f)
				for k, id := range info.NbrIDs() {
					local := info.NbrLocalIndexes()[k]
					if idToRank[id] == rank {
						assert.Equal(t, idToLocal[id], local, "patch %d on %s", p.ID, f)
					} else {
						assert.Equal(t, -1, local, "patch %d on %s", p.ID, f)
					}
					assert.Equal(t, idToGlob[id], info.NbrGlobalIndexes()[k], "patch %d on %s", p.ID, f)
				}
			}
		}
	}

	d := ds[0]
	assert.Equal(t, 2, d.Dim())
	assert.Equal(t, 2, d.NumLocalPatches())
	assert.Equal(t, 5, d.NumGlobalPatches())
	assert.Equal(t, 16, d.NumCellsInPatch())
	assert.Equal(t, 32, d.NumLocalCells())
	assert.Equal(t, 72, d.NumLocalCellsWithGhost())
	assert.Equal(t, 80, d.NumGlobalCells())
	assert.InDelta(t, 2.0, d.Volume(), 1e-12)
	assert.InDelta(t, 2.0, ds[1].Volume(), 1e-12)
	assert.NoError(t, d.RequireUniformAxes())
	_, ok := d.LocalIndexOf(3)
	assert.False(t, ok)

	p3 := ds[1].PatchInfo(1)
	require.Equal(t, 3, p3.ID)
	coarse, err := p3.CoarseNbrInfo(domain.NewSide(2, domain.SideWest))
	require.NoError(t, err)
	assert.Equal(t, domain.Orthant(1), coarse.OrthOnCoarse)
	assert.Equal(t, 0, coarse.GlobalIndex)
}

func TestDomainEmptyRank(t *testing.T) {
	ds, errs := buildAll(t, 2, []int{3, 3, 3}, 0, func(rank int) []*domain.PatchInfo {
		return domaintest.SinglePatch(rank, 3, 3, 0)
	})
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 1, ds[0].NumLocalPatches())
	assert.Equal(t, 0, ds[1].NumLocalPatches())
	assert.Equal(t, 1, ds[1].NumGlobalPatches())
	assert.Equal(t, 27, ds[1].NumGlobalCells())
	assert.InDelta(t, 1.0, ds[1].Volume(), 1e-12)
}

func TestDomainErrors(t *testing.T) {
	mixed := func(rank int) []*domain.PatchInfo { return domaintest.MixedLevel2D(rank, 4, 1) }
	checkAll := func(errs []error) {
		for rank, err := range errs {
			assert.True(t, errors.Is(err, domain.ErrInvalidDomain), "rank %d: %v", rank, err)
		}
	}
	{ // Test a patch that disagrees on cell counts
		_, errs := buildAll(t, 2, []int{4, 4}, 1, func(rank int) []*domain.PatchInfo {
			ps := mixed(rank)
			if rank == 1 {
				ps[0].Ns[1] = 2
			}
			return ps
		})
		checkAll(errs)
	}
	{ // Test a patch that disagrees on ghost width
		_, errs := buildAll(t, 2, []int{4, 4}, 1, func(rank int) []*domain.PatchInfo {
			ps := mixed(rank)
			if rank == 0 {
				ps[1].NumGhostCells = 2
			}
			return ps
		})
		checkAll(errs)
	}
	{ // Test a patch built on the wrong rank
		_, errs := buildAll(t, 2, []int{4, 4}, 1, func(rank int) []*domain.PatchInfo {
			ps := mixed(rank)
			if rank == 0 {
				ps[0].Rank = 1
			}
			return ps
		})
		checkAll(errs)
	}
	{ // Test duplicate ids
		_, errs := buildAll(t, 1, []int{4, 4}, 1, func(rank int) []*domain.PatchInfo {
			return append(domaintest.SinglePatch(rank, 2, 4, 1), domaintest.SinglePatch(rank, 2, 4, 1)...)
		})
		checkAll(errs)
	}
	{ // Test a local neighbor that is not in the local patch list
		_, errs := buildAll(t, 2, []int{4, 4}, 1, func(rank int) []*domain.PatchInfo {
			ps := mixed(rank)
			if rank == 0 {
				require.NoError(t, ps[0].SetNbrInfo(domain.NewSide(2, domain.SideWest),
					domain.NewNormalNbrInfo(99, 0)))
			}
			return ps
		})
		checkAll(errs)
	}
	{ // Test a remote neighbor its owner does not know
		_, errs := buildAll(t, 2, []int{4, 4}, 1, func(rank int) []*domain.PatchInfo {
			ps := mixed(rank)
			if rank == 0 {
				require.NoError(t, ps[0].SetNbrInfo(domain.NewSide(2, domain.SideWest),
					domain.NewNormalNbrInfo(99, 1)))
			}
			return ps
		})
		checkAll(errs)
	}
	{ // Test parent and child ranks outside the communicator
		_, errs := buildAll(t, 2, []int{4, 4}, 1, func(rank int) []*domain.PatchInfo {
			ps := mixed(rank)
			if rank == 1 {
				ps[0].ParentID, ps[0].ParentRank = 9, 2
			}
			return ps
		})
		checkAll(errs)
		_, errs = buildAll(t, 2, []int{4, 4}, 1, func(rank int) []*domain.PatchInfo {
			ps := mixed(rank)
			if rank == 0 {
				ps[0].ChildIDs = []int{5, 6, 7, 8}
				ps[0].ChildRanks = []int{0, 1, 2, 1}
			}
			return ps
		})
		checkAll(errs)
	}
	{ // Test invalid sizes
		_, errs := buildAll(t, 1, []int{4, 4}, -1, func(rank int) []*domain.PatchInfo { return nil })
		checkAll(errs)
		_, errs = buildAll(t, 1, []int{4}, 0, func(rank int) []*domain.PatchInfo { return nil })
		checkAll(errs)
	}
	{ // Test non-cubic patches are rejected on request
		ds, errs := buildAll(t, 1, []int{4, 2}, 0, func(rank int) []*domain.PatchInfo {
			ps := domaintest.SinglePatch(rank, 2, 4, 0)
			ps[0].Ns[1] = 2
			return ps
		})
		require.NoError(t, errs[0])
		assert.True(t, errors.Is(ds[0].RequireUniformAxes(), domain.ErrInvalidDomain))
	}
}

type recordingTimer struct{ events []string }

func (r *recordingTimer) StartDomainTiming(id int, name string) {
	r.events = append(r.events, "start "+name)
}

func (r *recordingTimer) StopDomainTiming(id int, name string) {
	r.events = append(r.events, "stop "+name)
}

func TestDomainTimer(t *testing.T) {
	ds, errs := buildAll(t, 1, []int{2, 2}, 1, func(rank int) []*domain.PatchInfo {
		return domaintest.SinglePatch(rank, 2, 2, 1)
	})
	require.NoError(t, errs[0])
	d := ds[0]
	assert.False(t, d.HasTimer())
	rt := &recordingTimer{}
	d.SetTimer(rt)
	assert.True(t, d.HasTimer())
	d.Timer().StartDomainTiming(d.ID(), "x")
	d.Timer().StopDomainTiming(d.ID(), "x")
	assert.Equal(t, []string{"start x", "stop x"}, rt.events)
}
