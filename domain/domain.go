// Package domain holds the patch topology of one refinement level: patch
// descriptions, the neighbor graph across sides, edges and corners, and the
// local and global patch numbering agreed on by every rank.
package domain

import (
	"errors"
	"fmt"
	"sort"

	"github.com/notargets/patchgrid/comm"
	"github.com/notargets/patchgrid/utils"
)

var ErrInvalidDomain = errors.New("invalid domain")

// Timer receives timing events from code running on a Domain
type Timer interface {
	StartDomainTiming(domainID int, name string)
	StopDomainTiming(domainID int, name string)
}

// Domain is one rank's part of a refinement level. It is immutable once
// built, apart from the attached Timer.
type Domain struct {
	comm             *comm.Communicator
	id               int
	ns               []int
	numGhostCells    int
	pinfos           []*PatchInfo
	idToLocal        map[int]int
	numbering        *utils.Partition // Global patch indexes by rank
	numGlobalPatches int
	volume           float64
	timer            Timer
}

/*
NewDomain builds the Domain from the patches owned by this rank. It is
collective over c, every rank must call it, also ranks with no patches.

Local indexes follow the order of patches. Global indexes are rank-major,
rank r numbers its patches after all patches of ranks below r. Neighbor
indexes are resolved against the owner of each neighbor, so every
reference agrees with what the owner assigns itself.
*/
func NewDomain(c *comm.Communicator, id int, ns []int, numGhostCells int,
	patches []*PatchInfo) (d *Domain, err error) {
	if c == nil {
		err = fmt.Errorf("%w: nil communicator", ErrInvalidDomain)
		return
	}
	d = &Domain{
		comm:          c,
		id:            id,
		ns:            append([]int(nil), ns...),
		numGhostCells: numGhostCells,
		pinfos:        make([]*PatchInfo, len(patches)),
		idToLocal:     make(map[int]int, len(patches)),
	}
	for i, p := range patches {
		d.pinfos[i] = p.Clone()
	}
	if err = agree(c, d.validate()); err != nil {
		return nil, err
	}

	var (
		myRank     = c.Rank()
		idToGlobal = make(map[int]int)
		counts     []int
		localErr   error
	)
	if counts, err = c.AllgatherInt(len(d.pinfos)); err != nil {
		return nil, err
	}
	d.numbering = utils.NewPartitionFromCounts(counts)
	d.numGlobalPatches = d.numbering.Len()
	for i, p := range d.pinfos {
		p.LocalIndex = i
		p.GlobalIndex = d.numbering.GlobalIndex(myRank, i)
		d.idToLocal[p.ID] = i
		idToGlobal[p.ID] = p.GlobalIndex
	}
	for _, p := range d.pinfos {
		if localErr = p.SetLocalIndexes(d.idToLocal, myRank); localErr != nil {
			localErr = fmt.Errorf("%w: %v", ErrInvalidDomain, localErr)
			break
		}
	}
	if err = d.resolveRemoteGlobals(idToGlobal); err != nil {
		if !errors.Is(err, ErrInvalidDomain) {
			return nil, err
		}
		if localErr == nil {
			localErr = err
		}
	}
	if localErr == nil {
		for _, p := range d.pinfos {
			if localErr = p.SetGlobalIndexes(idToGlobal); localErr != nil {
				localErr = fmt.Errorf("%w: %v", ErrInvalidDomain, localErr)
				break
			}
		}
	}
	if err = agree(c, localErr); err != nil {
		return nil, err
	}

	var localVolume float64
	for _, p := range d.pinfos {
		localVolume += p.Volume()
	}
	if d.volume, err = c.AllreduceFloat(localVolume, comm.OpSum); err != nil {
		return nil, err
	}
	return
}

// agree makes a local failure fatal on every rank, so no rank is left
// waiting in a later collective.
func agree(c *comm.Communicator, localErr error) (err error) {
	var (
		flag   int
		failed int
	)
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
		return fmt.Errorf("%w: construction failed on %d other rank(s)", ErrInvalidDomain, failed)
	}
	return
}

func (d *Domain) validate() error {
	dim := len(d.ns)
	if dim < 2 || dim > 3 {
		return fmt.Errorf("%w: unsupported dimension %d", ErrInvalidDomain, dim)
	}
	for _, n := range d.ns {
		if n < 1 {
			return fmt.Errorf("%w: cell counts %v must be positive", ErrInvalidDomain, d.ns)
		}
	}
	if d.numGhostCells < 0 {
		return fmt.Errorf("%w: negative ghost width %d", ErrInvalidDomain, d.numGhostCells)
	}
	var (
		myRank = d.comm.Rank()
		size   = d.comm.Size()
	)
	for _, p := range d.pinfos {
		if p.Dim != dim {
			return fmt.Errorf("%w: patch %d has dimension %d, domain has %d",
				ErrInvalidDomain, p.ID, p.Dim, dim)
		}
		for i := range d.ns {
			if len(p.Ns) != dim || p.Ns[i] != d.ns[i] {
				return fmt.Errorf("%w: patch %d has cell counts %v, domain has %v",
					ErrInvalidDomain, p.ID, p.Ns, d.ns)
			}
		}
		if p.NumGhostCells != d.numGhostCells {
			return fmt.Errorf("%w: patch %d has ghost width %d, domain has %d",
				ErrInvalidDomain, p.ID, p.NumGhostCells, d.numGhostCells)
		}
		if p.Rank != myRank {
			return fmt.Errorf("%w: patch %d belongs to rank %d, built on rank %d",
				ErrInvalidDomain, p.ID, p.Rank, myRank)
		}
		if p.ID < 0 {
			return fmt.Errorf("%w: negative patch id %d", ErrInvalidDomain, p.ID)
		}
		if _, dup := d.idToLocal[p.ID]; dup {
			return fmt.Errorf("%w: duplicate patch id %d", ErrInvalidDomain, p.ID)
		}
		d.idToLocal[p.ID] = -1
		for _, r := range p.NbrRanks() {
			if r < 0 || r >= size {
				return fmt.Errorf("%w: patch %d has a neighbor on rank %d of %d",
					ErrInvalidDomain, p.ID, r, size)
			}
		}
		if p.ParentID >= 0 && (p.ParentRank < 0 || p.ParentRank >= size) {
			return fmt.Errorf("%w: patch %d has its parent on rank %d of %d",
				ErrInvalidDomain, p.ID, p.ParentRank, size)
		}
		if p.HasChildren() {
			for _, r := range p.ChildRanks {
				if r < 0 || r >= size {
					return fmt.Errorf("%w: patch %d has a child on rank %d of %d",
						ErrInvalidDomain, p.ID, r, size)
				}
			}
		}
	}
	return nil
}

// resolveRemoteGlobals asks the owner of every remote neighbor for its
// global index and adds the answers to idToGlobal. It is collective.
func (d *Domain) resolveRemoteGlobals(idToGlobal map[int]int) (err error) {
	var (
		myRank   = d.comm.Rank()
		wanted   = make(map[int]map[int]bool)
		requests = make(map[int][]int)
		replies  = make(map[int][]int)
		recv     map[int][]int
	)
	for _, p := range d.pinfos {
		for _, info := range p.nbrs {
			if info == nil {
				continue
			}
			ranks := info.NbrRanks()
			for i, nbrID := range info.NbrIDs() {
				if ranks[i] == myRank {
					continue
				}
				if wanted[ranks[i]] == nil {
					wanted[ranks[i]] = make(map[int]bool)
				}
				wanted[ranks[i]][nbrID] = true
			}
		}
	}
	for r, ids := range wanted {
		for nbrID := range ids {
			requests[r] = append(requests[r], nbrID)
		}
		sort.Ints(requests[r])
	}
	if recv, err = d.comm.AlltoallInts(requests); err != nil {
		return
	}
	for src, ids := range recv {
		replies[src] = make([]int, len(ids))
		for i, nbrID := range ids {
			replies[src][i] = -1
			if local, ok := d.idToLocal[nbrID]; ok {
				replies[src][i] = d.pinfos[local].GlobalIndex
			}
		}
	}
	if recv, err = d.comm.AlltoallInts(replies); err != nil {
		return
	}
	for r, ids := range requests {
		globals := recv[r]
		if len(globals) != len(ids) {
			return fmt.Errorf("%w: rank %d answered %d of %d global index requests",
				ErrInvalidDomain, r, len(globals), len(ids))
		}
		for i, nbrID := range ids {
			if globals[i] < 0 {
				return fmt.Errorf("%w: neighbor patch %d is not owned by rank %d",
					ErrInvalidDomain, nbrID, r)
			}
			idToGlobal[nbrID] = globals[i]
		}
	}
	return
}

func (d *Domain) Communicator() *comm.Communicator { return d.comm }

func (d *Domain) ID() int { return d.id }

func (d *Domain) Dim() int { return len(d.ns) }

func (d *Domain) Ns() []int { return d.ns }

func (d *Domain) NumGhostCells() int { return d.numGhostCells }

// PatchInfos are the local patches in local index order
func (d *Domain) PatchInfos() []*PatchInfo { return d.pinfos }

func (d *Domain) PatchInfo(localIndex int) *PatchInfo { return d.pinfos[localIndex] }

// LocalIndexOf finds a local patch by id
func (d *Domain) LocalIndexOf(id int) (localIndex int, ok bool) {
	localIndex, ok = d.idToLocal[id]
	return
}

func (d *Domain) NumLocalPatches() int { return len(d.pinfos) }

func (d *Domain) NumGlobalPatches() int { return d.numGlobalPatches }

// GlobalIndexOwner is the rank and local index of the patch numbered
// globalIndex, rank is -1 when no patch has that number.
func (d *Domain) GlobalIndexOwner(globalIndex int) (rank, localIndex int) {
	return d.numbering.Owner(globalIndex)
}

// NumPatchesOnRank is the number of patches rank holds on this level
func (d *Domain) NumPatchesOnRank(rank int) int { return d.numbering.Count(rank) }

func (d *Domain) NumCellsInPatch() (n int) {
	n = 1
	for _, ni := range d.ns {
		n *= ni
	}
	return
}

func (d *Domain) NumCellsInPatchWithGhost() (n int) {
	n = 1
	for _, ni := range d.ns {
		n *= ni + 2*d.numGhostCells
	}
	return
}

func (d *Domain) NumLocalCells() int { return d.NumLocalPatches() * d.NumCellsInPatch() }

func (d *Domain) NumLocalCellsWithGhost() int {
	return d.NumLocalPatches() * d.NumCellsInPatchWithGhost()
}

func (d *Domain) NumGlobalCells() int { return d.numGlobalPatches * d.NumCellsInPatch() }

// Volume is the physical volume of the level, summed over every rank
func (d *Domain) Volume() float64 { return d.volume }

// RequireUniformAxes rejects patches that do not have the same number of
// cells along every axis
func (d *Domain) RequireUniformAxes() error {
	for _, n := range d.ns[1:] {
		if n != d.ns[0] {
			return fmt.Errorf("%w: patches must have equal cell counts on every axis, have %v",
				ErrInvalidDomain, d.ns)
		}
	}
	return nil
}

func (d *Domain) SetTimer(t Timer) { d.timer = t }

func (d *Domain) Timer() Timer { return d.timer }

func (d *Domain) HasTimer() bool { return d.timer != nil }
