// Package gmg moves patch data between two refinement levels. The
// InterLevelComm pairs each fine patch with its parent, locally or through
// a ghost copy of a parent owned by another rank. Restrictor and
// Interpolator drive per patch operators over it.
package gmg

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/patchgrid/comm"
	"github.com/notargets/patchgrid/domain"
	"github.com/notargets/patchgrid/field"
	"github.com/notargets/patchgrid/types"
)

var ErrProtocolMisuse = errors.New("level transfer protocol misuse")

// PatchRef pairs a fine patch with the index of its parent, either the
// parent's local index on the coarser level or its ghost slot.
type PatchRef struct {
	Index int
	Patch *domain.PatchInfo
}

type transferState uint8

const (
	idle transferState = iota
	sendPending
	getPending
)

func (s transferState) String() string {
	switch s {
	case sendPending:
		return "send"
	case getPending:
		return "get"
	}
	return "idle"
}

// ghostParent is a remote parent held in a ghost slot
type ghostParent struct {
	id, rank int
}

// sharedParent is a local coarse patch that rank holds a ghost copy of
type sharedParent struct {
	localIndex, id, rank int
}

type InterLevelComm struct {
	coarser, finer *domain.Domain
	localParents   []PatchRef
	ghostParents   []PatchRef
	ghosts         []ghostParent // Indexed by ghost slot
	shared         []sharedParent
	state          transferState
	pendingCoarse  *field.Vector
	pendingGhost   *field.Vector
	reqs           []*comm.Request
	recvBufs       [][]float64 // One per shared parent during a send
}

/*
NewInterLevelComm pairs the patches of finer with their parents on
coarser. It is collective over the domains' communicator.

Fine patches whose parent is on the same rank go to PatchesWithLocalParent,
the others to PatchesWithGhostParent, with one ghost slot per distinct
remote parent in order of first use. Each rank then tells the owners of its
ghost parents which parents it holds.
*/
func NewInterLevelComm(coarser, finer *domain.Domain) (ilc *InterLevelComm, err error) {
	if coarser == nil || finer == nil {
		err = fmt.Errorf("level transfer needs two domains")
		return
	}
	c := finer.Communicator()
	if !c.SameGroup(coarser.Communicator()) {
		err = fmt.Errorf("%w: domains %d and %d use different communicators",
			ErrProtocolMisuse, coarser.ID(), finer.ID())
		return
	}
	ilc = &InterLevelComm{coarser: coarser, finer: finer}
	var (
		myRank = c.Rank()
		slots  = make(map[int]int)
	)
	localErr := func() error {
		if coarser.Dim() != finer.Dim() || coarser.NumGhostCells() != finer.NumGhostCells() {
			return fmt.Errorf("%w: levels differ in dimension or ghost width", domain.ErrInvalidDomain)
		}
		for i, n := range coarser.Ns() {
			if finer.Ns()[i] != n {
				return fmt.Errorf("%w: levels have cell counts %v and %v",
					domain.ErrInvalidDomain, coarser.Ns(), finer.Ns())
			}
		}
		for _, p := range finer.PatchInfos() {
			if p.ParentID < 0 {
				return fmt.Errorf("%w: fine patch %d has no parent", domain.ErrInvalidDomain, p.ID)
			}
			if p.ParentRank < 0 || p.ParentRank >= c.Size() {
				return fmt.Errorf("%w: parent of patch %d on rank %d of %d",
					domain.ErrInvalidDomain, p.ID, p.ParentRank, c.Size())
			}
			if p.ParentRank == myRank {
				li, ok := coarser.LocalIndexOf(p.ParentID)
				if !ok {
					return fmt.Errorf("%w: parent %d of patch %d is not on rank %d",
						domain.ErrInvalidDomain, p.ParentID, p.ID, myRank)
				}
				ilc.localParents = append(ilc.localParents, PatchRef{Index: li, Patch: p})
				continue
			}
			slot, ok := slots[p.ParentID]
			if !ok {
				slot = len(ilc.ghosts)
				slots[p.ParentID] = slot
				ilc.ghosts = append(ilc.ghosts, ghostParent{id: p.ParentID, rank: p.ParentRank})
			}
			ilc.ghostParents = append(ilc.ghostParents, PatchRef{Index: slot, Patch: p})
		}
		return nil
	}()
	if err = agree(c, localErr); err != nil {
		return nil, err
	}

	var (
		requests = make(map[int][]int)
		recv     map[int][]int
	)
	for _, gp := range ilc.ghosts {
		requests[gp.rank] = append(requests[gp.rank], gp.id)
	}
	if recv, err = c.AlltoallInts(requests); err != nil {
		return nil, err
	}
	srcs := make([]int, 0, len(recv))
	for src := range recv {
		srcs = append(srcs, src)
	}
	sort.Ints(srcs)
	localErr = nil
	for _, src := range srcs {
		for _, id := range recv[src] {
			li, ok := coarser.LocalIndexOf(id)
			if !ok {
				localErr = fmt.Errorf("%w: rank %d holds parent %d which rank %d does not own",
					domain.ErrInvalidDomain, src, id, myRank)
				break
			}
			ilc.shared = append(ilc.shared, sharedParent{localIndex: li, id: id, rank: src})
		}
	}
	if err = agree(c, localErr); err != nil {
		return nil, err
	}
	return
}

// agree makes a failure on one rank fail every rank
func agree(c *comm.Communicator, localErr error) (err error) {
	var flag, failed int
	if localErr != nil {
		flag = 1
	}
	if failed, err = c.AllreduceInt(flag, comm.OpSum); err != nil {
		return
	}
	if localErr != nil {
		return localErr
	}
	if failed != 0 {
		return fmt.Errorf("%w: level transfer setup failed on %d other rank(s)",
			domain.ErrInvalidDomain, failed)
	}
	return
}

func (ilc *InterLevelComm) CoarserDomain() *domain.Domain { return ilc.coarser }

func (ilc *InterLevelComm) FinerDomain() *domain.Domain { return ilc.finer }

func (ilc *InterLevelComm) PatchesWithLocalParent() []PatchRef { return ilc.localParents }

func (ilc *InterLevelComm) PatchesWithGhostParent() []PatchRef { return ilc.ghostParents }

func (ilc *InterLevelComm) NumGhostPatches() int { return len(ilc.ghosts) }

// NewGhostVector has one patch per ghost parent
func (ilc *InterLevelComm) NewGhostVector(numComponents int) *field.Vector {
	return field.NewVectorForPatches(ilc.coarser.Communicator(), ilc.coarser.Ns(),
		ilc.coarser.NumGhostCells(), numComponents, len(ilc.ghosts))
}

func (ilc *InterLevelComm) checkVectors(coarse, ghost *field.Vector) error {
	if coarse == nil || ghost == nil {
		return fmt.Errorf("%w: nil vector", ErrProtocolMisuse)
	}
	c := ilc.coarser.Communicator()
	if !coarse.Communicator().SameGroup(c) || !ghost.Communicator().SameGroup(c) {
		return fmt.Errorf("%w: vector bound to another communicator", ErrProtocolMisuse)
	}
	if coarse.NumLocalPatches() != ilc.coarser.NumLocalPatches() {
		return fmt.Errorf("%w: coarse vector has %d patches, expected %d",
			ErrProtocolMisuse, coarse.NumLocalPatches(), ilc.coarser.NumLocalPatches())
	}
	if ghost.NumLocalPatches() != len(ilc.ghosts) {
		return fmt.Errorf("%w: ghost vector has %d patches, expected %d",
			ErrProtocolMisuse, ghost.NumLocalPatches(), len(ilc.ghosts))
	}
	if coarse.NumComponents() != ghost.NumComponents() ||
		coarse.NumGhostCells() != ghost.NumGhostCells() ||
		coarse.NumGhostCells() != ilc.coarser.NumGhostCells() {
		return fmt.Errorf("%w: coarse and ghost vectors differ in layout", ErrProtocolMisuse)
	}
	for i, n := range ilc.coarser.Ns() {
		if coarse.Ns()[i] != n || ghost.Ns()[i] != n {
			return fmt.Errorf("%w: coarse and ghost vectors differ in layout", ErrProtocolMisuse)
		}
	}
	return nil
}

func (ilc *InterLevelComm) start(next transferState, coarse, ghost *field.Vector) error {
	if ilc.state != idle {
		return fmt.Errorf("%w: %s started while a %s is pending", ErrProtocolMisuse, next, ilc.state)
	}
	return ilc.checkVectors(coarse, ghost)
}

func (ilc *InterLevelComm) finish(want transferState, coarse, ghost *field.Vector) error {
	switch {
	case ilc.state == idle:
		return fmt.Errorf("%w: %s finished without a start", ErrProtocolMisuse, want)
	case ilc.state != want:
		return fmt.Errorf("%w: %s finished while a %s is pending", ErrProtocolMisuse, want, ilc.state)
	case coarse != ilc.pendingCoarse || ghost != ilc.pendingGhost:
		return fmt.Errorf("%w: %s finished with different vectors than it started with",
			ErrProtocolMisuse, want)
	}
	return nil
}

func (ilc *InterLevelComm) reset() {
	ilc.state = idle
	ilc.pendingCoarse, ilc.pendingGhost = nil, nil
	ilc.reqs, ilc.recvBufs = nil, nil
}

func transferKey(parentID, holderRank int) types.MessageKey {
	return types.NewMessageKey(parentID, types.TransferFacet, holderRank)
}

/*
SendGhostPatchesStart posts the ghost vector patches to the owners of their
parents and the receives for ghost copies other ranks hold of this rank's
coarse patches. SendGhostPatchesFinish adds what was received into coarse.
*/
func (ilc *InterLevelComm) SendGhostPatchesStart(coarse, ghost *field.Vector) (err error) {
	if err = ilc.start(sendPending, coarse, ghost); err != nil {
		return
	}
	var (
		c      = ilc.coarser.Communicator()
		myRank = c.Rank()
		req    *comm.Request
	)
	for slot, gp := range ilc.ghosts {
		if req, err = c.Isend(gp.rank, transferKey(gp.id, myRank), ghost.PatchData(slot)); err != nil {
			return
		}
		ilc.reqs = append(ilc.reqs, req)
		transfersTotal.WithLabelValues("send").Inc()
	}
	ilc.recvBufs = make([][]float64, len(ilc.shared))
	for i, sp := range ilc.shared {
		ilc.recvBufs[i] = make([]float64, len(coarse.PatchData(sp.localIndex)))
		if req, err = c.Irecv(sp.rank, transferKey(sp.id, sp.rank), ilc.recvBufs[i]); err != nil {
			return
		}
		ilc.reqs = append(ilc.reqs, req)
	}
	ilc.state = sendPending
	ilc.pendingCoarse, ilc.pendingGhost = coarse, ghost
	return
}

func (ilc *InterLevelComm) SendGhostPatchesFinish(coarse, ghost *field.Vector) (err error) {
	if err = ilc.finish(sendPending, coarse, ghost); err != nil {
		return
	}
	defer ilc.reset()
	if err = ilc.coarser.Communicator().Waitall(ilc.reqs); err != nil {
		return
	}
	for i, sp := range ilc.shared {
		floats.Add(coarse.PatchData(sp.localIndex), ilc.recvBufs[i])
	}
	return
}

/*
GetGhostPatchesStart posts this rank's coarse patches to every rank holding
a ghost copy and the receives for the ghost vector patches.
GetGhostPatchesFinish waits until the ghost vector holds the parents'
values.
*/
func (ilc *InterLevelComm) GetGhostPatchesStart(coarse, ghost *field.Vector) (err error) {
	if err = ilc.start(getPending, coarse, ghost); err != nil {
		return
	}
	var (
		c      = ilc.coarser.Communicator()
		myRank = c.Rank()
		req    *comm.Request
	)
	for _, sp := range ilc.shared {
		if req, err = c.Isend(sp.rank, transferKey(sp.id, sp.rank), coarse.PatchData(sp.localIndex)); err != nil {
			return
		}
		ilc.reqs = append(ilc.reqs, req)
		transfersTotal.WithLabelValues("get").Inc()
	}
	for slot, gp := range ilc.ghosts {
		if req, err = c.Irecv(gp.rank, transferKey(gp.id, myRank), ghost.PatchData(slot)); err != nil {
			return
		}
		ilc.reqs = append(ilc.reqs, req)
	}
	ilc.state = getPending
	ilc.pendingCoarse, ilc.pendingGhost = coarse, ghost
	return
}

func (ilc *InterLevelComm) GetGhostPatchesFinish(coarse, ghost *field.Vector) (err error) {
	if err = ilc.finish(getPending, coarse, ghost); err != nil {
		return
	}
	defer ilc.reset()
	return ilc.coarser.Communicator().Waitall(ilc.reqs)
}
