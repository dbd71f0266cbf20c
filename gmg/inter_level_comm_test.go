package gmg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/patchgrid/comm"
	"github.com/notargets/patchgrid/domain"
	"github.com/notargets/patchgrid/domain/domaintest"
	"github.com/notargets/patchgrid/field"
)

type levels struct {
	rank         int
	coarse, fine *domain.Domain
	ilc          *InterLevelComm
}

type fixture func(rank, n, g int) (coarse, fine []*domain.PatchInfo)

// runLevels builds the two levels of layout on two ranks and runs fn on each
// rank
func runLevels(t *testing.T, layout fixture, n, g int, fn func(l *levels) error) {
	w, err := comm.NewWorld(2)
	require.NoError(t, err)
	err = w.Run(context.Background(), func(c *comm.Communicator) error {
		cp, fp := layout(c.Rank(), n, g)
		coarse, err := domain.NewDomain(c, 0, []int{n, n}, g, cp)
		if err != nil {
			return err
		}
		fine, err := domain.NewDomain(c, 1, []int{n, n}, g, fp)
		if err != nil {
			return err
		}
		ilc, err := NewInterLevelComm(coarse, fine)
		if err != nil {
			return err
		}
		return fn(&levels{rank: c.Rank(), coarse: coarse, fine: fine, ilc: ilc})
	})
	require.NoError(t, err)
	assert.Equal(t, 0, w.Pending())
}

// runRefined uses one coarse patch on rank 0 refined into four children
// split over two ranks
func runRefined(t *testing.T, n, g int, fn func(l *levels) error) {
	runLevels(t, domaintest.Refined2D, n, g, fn)
}

// cycle runs a full send then a full get on one pair, the coarse values
// after the send and the ghost values after the get are returned
func cycle(l *levels, coarse, ghost *field.Vector) (sent, fetched map[[2]int]map[float64]bool, err error) {
	fillAll(coarse, float64(l.rank+1))
	fillAll(ghost, float64(l.rank+1))
	if err = l.ilc.SendGhostPatchesStart(coarse, ghost); err != nil {
		return
	}
	if err = l.ilc.SendGhostPatchesFinish(coarse, ghost); err != nil {
		return
	}
	sent = allValues(coarse)

	fillAll(coarse, float64(l.rank+1))
	ghost.SetWithGhost(0)
	if err = l.ilc.GetGhostPatchesStart(coarse, ghost); err != nil {
		return
	}
	if err = l.ilc.GetGhostPatchesFinish(coarse, ghost); err != nil {
		return
	}
	fetched = allValues(ghost)
	return
}

func refIDs(refs []PatchRef) (ids, indexes []int) {
	for _, r := range refs {
		ids = append(ids, r.Patch.ID)
		indexes = append(indexes, r.Index)
	}
	return
}

// fillAll sets every value of v, ghosts included, to base plus the component
func fillAll(v *field.Vector, base float64) {
	for i := 0; i < v.NumLocalPatches(); i++ {
		pv := v.PatchView(i)
		last := pv.Rank() - 1
		pv.ForEachAll(func(coord []int) { pv.Set(coord, base+float64(coord[last])) })
	}
}

// allValues collects per patch and component the distinct values of v
func allValues(v *field.Vector) (vals map[[2]int]map[float64]bool) {
	vals = make(map[[2]int]map[float64]bool)
	for i := 0; i < v.NumLocalPatches(); i++ {
		pv := v.PatchView(i)
		last := pv.Rank() - 1
		pv.ForEachAll(func(coord []int) {
			k := [2]int{i, coord[last]}
			if vals[k] == nil {
				vals[k] = make(map[float64]bool)
			}
			vals[k][pv.Get(coord...)] = true
		})
	}
	return
}

func TestInterLevelCommLayout(t *testing.T) {
	type layout struct {
		localIDs, localIdx, ghostIDs, ghostIdx []int
		numGhost                               int
	}
	got := make([]layout, 2)
	runRefined(t, 4, 1, func(l *levels) error {
		var lay layout
		lay.localIDs, lay.localIdx = refIDs(l.ilc.PatchesWithLocalParent())
		lay.ghostIDs, lay.ghostIdx = refIDs(l.ilc.PatchesWithGhostParent())
		lay.numGhost = l.ilc.NumGhostPatches()
		got[l.rank] = lay
		assert.Same(t, l.coarse, l.ilc.CoarserDomain())
		assert.Same(t, l.fine, l.ilc.FinerDomain())
		assert.Equal(t, lay.numGhost, l.ilc.NewGhostVector(3).NumLocalPatches())
		return nil
	})
	{ // Test rank 0 owns the parent and two children
		assert.Equal(t, []int{0, 2}, got[0].localIDs)
		assert.Equal(t, []int{0, 0}, got[0].localIdx)
		assert.Nil(t, got[0].ghostIDs)
		assert.Equal(t, 0, got[0].numGhost)
	}
	{ // Test rank 1 reaches the parent through one ghost slot
		assert.Nil(t, got[1].localIDs)
		assert.Equal(t, []int{1, 3}, got[1].ghostIDs)
		assert.Equal(t, []int{0, 0}, got[1].ghostIdx)
		assert.Equal(t, 1, got[1].numGhost)
	}
}

func TestGhostPatchTransfer(t *testing.T) {
	var (
		sent    = make([][2]map[[2]int]map[float64]bool, 2)
		fetched = make([][2]map[[2]int]map[float64]bool, 2)
	)
	runRefined(t, 4, 1, func(l *levels) error {
		// the second cycle runs on a different pair through the same handle
		pairs := [2][2]*field.Vector{
			{field.NewVector(l.coarse, 2), l.ilc.NewGhostVector(2)},
			{field.NewVector(l.coarse, 2), l.ilc.NewGhostVector(2)},
		}
		for k, pair := range pairs {
			var err error
			if sent[l.rank][k], fetched[l.rank][k], err = cycle(l, pair[0], pair[1]); err != nil {
				return err
			}
		}
		return nil
	})
	for k := 0; k < 2; k++ {
		{ // Test the ghost copy on rank 1 is added into the parent on rank 0
			assert.Equal(t, map[[2]int]map[float64]bool{
				{0, 0}: {3: true},
				{0, 1}: {5: true},
			}, sent[0][k])
			assert.Empty(t, sent[1][k])
		}
		{ // Test the ghost slot on rank 1 receives the parent
			assert.Empty(t, fetched[0][k])
			assert.Equal(t, map[[2]int]map[float64]bool{
				{0, 0}: {1: true},
				{0, 1}: {2: true},
			}, fetched[1][k])
		}
	}
}

func TestTwoChildTransfer(t *testing.T) {
	var (
		sent    = make([][2]map[[2]int]map[float64]bool, 2)
		fetched = make([][2]map[[2]int]map[float64]bool, 2)
		layouts = make([][2][]int, 2)
	)
	runLevels(t, domaintest.TwoChildren2D, 2, 1, func(l *levels) error {
		layouts[l.rank][0], _ = refIDs(l.ilc.PatchesWithLocalParent())
		layouts[l.rank][1], _ = refIDs(l.ilc.PatchesWithGhostParent())
		coarse, ghost := field.NewVector(l.coarse, 1), l.ilc.NewGhostVector(1)
		for k := 0; k < 2; k++ {
			var err error
			if sent[l.rank][k], fetched[l.rank][k], err = cycle(l, coarse, ghost); err != nil {
				return err
			}
		}
		return nil
	})
	{ // Test each rank holds one child
		assert.Equal(t, [2][]int{{0}, nil}, layouts[0])
		assert.Equal(t, [2][]int{nil, {1}}, layouts[1])
	}
	for k := 0; k < 2; k++ {
		{ // Test the parent on rank 0 sums its own value and the ghost from rank 1
			assert.Equal(t, map[[2]int]map[float64]bool{{0, 0}: {3: true}}, sent[0][k])
		}
		{ // Test rank 1 fetches the parent value of rank 0, not its earlier send
			assert.Empty(t, fetched[0][k])
			assert.Equal(t, map[[2]int]map[float64]bool{{0, 0}: {1: true}}, fetched[1][k])
		}
	}
}

func TestProtocolMisuse(t *testing.T) {
	runRefined(t, 2, 1, func(l *levels) error {
		var (
			coarse = field.NewVector(l.coarse, 1)
			ghost  = l.ilc.NewGhostVector(1)
			other  = l.ilc.NewGhostVector(1)
		)
		{ // Test finish without start
			assert.ErrorIs(t, l.ilc.SendGhostPatchesFinish(coarse, ghost), ErrProtocolMisuse)
			assert.ErrorIs(t, l.ilc.GetGhostPatchesFinish(coarse, ghost), ErrProtocolMisuse)
		}
		{ // Test starts and mismatched finishes while a send is pending
			if err := l.ilc.SendGhostPatchesStart(coarse, ghost); err != nil {
				return err
			}
			assert.ErrorIs(t, l.ilc.SendGhostPatchesStart(coarse, ghost), ErrProtocolMisuse)
			assert.ErrorIs(t, l.ilc.GetGhostPatchesStart(coarse, ghost), ErrProtocolMisuse)
			assert.ErrorIs(t, l.ilc.GetGhostPatchesFinish(coarse, ghost), ErrProtocolMisuse)
			assert.ErrorIs(t, l.ilc.SendGhostPatchesFinish(coarse, other), ErrProtocolMisuse)
			if err := l.ilc.SendGhostPatchesFinish(coarse, ghost); err != nil {
				return err
			}
		}
		{ // Test vectors of the wrong layout are refused before anything is posted
			wide := l.ilc.NewGhostVector(2)
			assert.ErrorIs(t, l.ilc.GetGhostPatchesStart(coarse, wide), ErrProtocolMisuse)
			assert.ErrorIs(t, l.ilc.GetGhostPatchesStart(nil, ghost), ErrProtocolMisuse)
			fine := field.NewVector(l.fine, 1)
			assert.ErrorIs(t, l.ilc.SendGhostPatchesStart(fine, ghost), ErrProtocolMisuse)
		}
		{ // Test the handle is usable after refused calls
			if err := l.ilc.GetGhostPatchesStart(coarse, ghost); err != nil {
				return err
			}
			assert.ErrorIs(t, l.ilc.SendGhostPatchesFinish(coarse, ghost), ErrProtocolMisuse)
			if err := l.ilc.GetGhostPatchesFinish(coarse, ghost); err != nil {
				return err
			}
		}
		{ // Test a full cycle on another ghost vector after the refusals
			if _, _, err := cycle(l, coarse, other); err != nil {
				return err
			}
		}
		return nil
	})
}

func TestNewInterLevelCommErrors(t *testing.T) {
	build := func(w *comm.World, parentID int) (coarse, fine *domain.Domain) {
		c := w.Comm(0)
		var err error
		coarse, err = domain.NewDomain(c, 0, []int{2, 2}, 1, domaintest.SinglePatch(0, 2, 2, 1))
		require.NoError(t, err)
		fp := domaintest.SinglePatch(0, 2, 2, 1)
		fp[0].ParentID, fp[0].ParentRank = parentID, 0
		fine, err = domain.NewDomain(c, 1, []int{2, 2}, 1, fp)
		require.NoError(t, err)
		return
	}
	{ // Test a fine patch without a parent
		w, err := comm.NewWorld(1)
		require.NoError(t, err)
		coarse, fine := build(w, -1)
		_, err = NewInterLevelComm(coarse, fine)
		assert.ErrorIs(t, err, domain.ErrInvalidDomain)
	}
	{ // Test a parent missing from the coarser level
		w, err := comm.NewWorld(1)
		require.NoError(t, err)
		coarse, fine := build(w, 7)
		_, err = NewInterLevelComm(coarse, fine)
		assert.ErrorIs(t, err, domain.ErrInvalidDomain)
	}
	{ // Test a parent rank outside the communicator fails before the handshake
		w, err := comm.NewWorld(1)
		require.NoError(t, err)
		coarse, fine := build(w, 0)
		fine.PatchInfos()[0].ParentRank = 3
		_, err = NewInterLevelComm(coarse, fine)
		assert.ErrorIs(t, err, domain.ErrInvalidDomain)
	}
	{ // Test levels on different communicators
		w1, err := comm.NewWorld(1)
		require.NoError(t, err)
		w2, err := comm.NewWorld(1)
		require.NoError(t, err)
		coarse, _ := build(w1, 0)
		_, fine := build(w2, 0)
		_, err = NewInterLevelComm(coarse, fine)
		assert.ErrorIs(t, err, ErrProtocolMisuse)
	}
	{ // Test nil domains
		_, err := NewInterLevelComm(nil, nil)
		assert.Error(t, err)
	}
}
