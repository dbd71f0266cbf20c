// Package ghost fills the ghost cells of a Vector from neighboring patches.
// The numerics are supplied by a Strategy, the Filler moves the data.
package ghost

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notargets/patchgrid/comm"
	"github.com/notargets/patchgrid/domain"
	"github.com/notargets/patchgrid/field"
	"github.com/notargets/patchgrid/types"
)

var ErrDomainMismatch = errors.New("vector does not belong to the filler's domain")

/*
Strategy computes ghost values. FillGhostCellsForLocalPatch runs once per
patch before any neighbor data is used. FillGhostCellsForNbrPatch writes
the ghost cells of pinfo across face f from nbrView, which is addressed in
the neighbor's own coordinates. For a Fine neighbor orthant is the
neighbor's position on f, for a Coarse neighbor it is the position of
pinfo on the coarse facet and for a Normal neighbor it is OrthantNull.
Calls are made in no particular order.
*/
type Strategy interface {
	FillGhostCellsForLocalPatch(pinfo *domain.PatchInfo, view field.PatchView) error
	FillGhostCellsForNbrPatch(pinfo *domain.PatchInfo, localView, nbrView field.PatchView,
		f domain.Face, nbrType domain.NbrType, orthant domain.Orthant) error
}

type sendEntry struct {
	localIndex int
	face       domain.Face
	dest       int
	key        types.MessageKey
}

type recvEntry struct {
	src             int
	key             types.MessageKey
	starts, lengths []int
}

type callEntry struct {
	localIndex int
	face       domain.Face
	nbrType    domain.NbrType
	orthant    domain.Orthant
	nbrLocal   int // -1 when the neighbor is remote
	recv       int // index into recvs when remote
}

type Filler struct {
	d        *domain.Domain
	fillType FillType
	strategy Strategy
	sends    []sendEntry
	recvs    []recvEntry
	calls    []callEntry
}

type nbrRef struct {
	id, rank, local int
	orthant         domain.Orthant
}

func nbrRefs(info domain.NbrInfo) (refs []nbrRef) {
	var (
		ids    = info.NbrIDs()
		ranks  = info.NbrRanks()
		locals = info.NbrLocalIndexes()
	)
	for k := range ids {
		orth := domain.OrthantNull
		switch n := info.(type) {
		case *domain.FineNbrInfo:
			orth = domain.Orthant(k)
		case *domain.CoarseNbrInfo:
			orth = n.OrthOnCoarse
		}
		refs = append(refs, nbrRef{id: ids[k], rank: ranks[k], local: locals[k], orthant: orth})
	}
	return
}

/*
NewFiller plans the exchange for d. Each boundary slab is sent once per
(patch, facet, destination rank) and each neighbor slab is received once
per (neighbor, facet, source rank). Message keys are the patch id of the
slab's owner, the facet as the owner sees it and the rank that uses it.
*/
func NewFiller(d *domain.Domain, fillType FillType, strategy Strategy) (fl *Filler, err error) {
	if d == nil || strategy == nil {
		err = fmt.Errorf("filler needs a domain and a strategy")
		return
	}
	if fillType > Corners {
		err = fmt.Errorf("invalid fill type %s", fillType)
		return
	}
	fl = &Filler{d: d, fillType: fillType, strategy: strategy}
	var (
		myRank   = d.Communicator().Rank()
		ns       = d.Ns()
		g        = d.NumGhostCells()
		sendSeen = make(map[sendEntry]bool)
		recvSeen = make(map[recvKey]int)
	)
	for _, p := range d.PatchInfos() {
		for _, f := range domain.AllFaces(d.Dim()) {
			if !fillType.Includes(f) || !p.HasNbr(f) {
				continue
			}
			info := p.NbrInfo(f)
			for _, ref := range nbrRefs(info) {
				call := callEntry{
					localIndex: p.LocalIndex,
					face:       f,
					nbrType:    info.Type(),
					orthant:    ref.orthant,
					nbrLocal:   ref.local,
					recv:       -1,
				}
				if ref.local < 0 {
					// the neighbor sends its slab on the facet facing us
					rk := recvKey{src: ref.rank,
						key: types.NewMessageKey(ref.id, f.Opposite().FlatIndex(), myRank)}
					idx, seen := recvSeen[rk]
					if !seen {
						starts, lengths := field.BoundarySlab(ns, f.Opposite(), g)
						idx = len(fl.recvs)
						fl.recvs = append(fl.recvs, recvEntry{src: rk.src, key: rk.key,
							starts: starts, lengths: lengths})
						recvSeen[rk] = idx
					}
					call.recv = idx
					// and expects ours on this facet
					se := sendEntry{localIndex: p.LocalIndex, face: f, dest: ref.rank,
						key: types.NewMessageKey(p.ID, f.FlatIndex(), ref.rank)}
					if !sendSeen[se] {
						sendSeen[se] = true
						fl.sends = append(fl.sends, se)
					}
				}
				fl.calls = append(fl.calls, call)
			}
		}
	}
	return
}

type recvKey struct {
	src int
	key types.MessageKey
}

func (fl *Filler) Domain() *domain.Domain { return fl.d }

func (fl *Filler) FillType() FillType { return fl.fillType }

// NumSends and NumRecvs are the messages posted by each FillGhost
func (fl *Filler) NumSends() int { return len(fl.sends) }

func (fl *Filler) NumRecvs() int { return len(fl.recvs) }

// NumNbrCalls is the number of FillGhostCellsForNbrPatch calls per fill
func (fl *Filler) NumNbrCalls() int { return len(fl.calls) }

func (fl *Filler) checkVector(u *field.Vector) error {
	d := fl.d
	if u == nil || !u.Communicator().SameGroup(d.Communicator()) ||
		u.NumLocalPatches() != d.NumLocalPatches() || u.NumGhostCells() != d.NumGhostCells() ||
		len(u.Ns()) != d.Dim() {
		return ErrDomainMismatch
	}
	for i, n := range d.Ns() {
		if u.Ns()[i] != n {
			return ErrDomainMismatch
		}
	}
	return nil
}

/*
FillGhost fills every ghost cell of u. It is collective over the domain's
communicator: every rank must call it, also ranks with no remote neighbors.

All slabs are posted before any is waited on. Ghost cells are zeroed, the
local fills run, the ghost cells of every facet with a neighbor are zeroed
again, and after one wait for all messages the neighbor fills run.
*/
func (fl *Filler) FillGhost(u *field.Vector) (err error) {
	if err = fl.checkVector(u); err != nil {
		return
	}
	d := fl.d
	if d.HasTimer() {
		d.Timer().StartDomainTiming(d.ID(), "FillGhost")
		defer d.Timer().StopDomainTiming(d.ID(), "FillGhost")
	}
	fillsTotal.Inc()
	var (
		c     = d.Communicator()
		g     = d.NumGhostCells()
		nc    = u.NumComponents()
		reqs  = make([]*comm.Request, 0, len(fl.sends)+len(fl.recvs))
		bufs  = make([][]float64, len(fl.recvs))
		req   *comm.Request
		pinfo = d.PatchInfos()
	)
	for _, s := range fl.sends {
		slab := u.PatchView(s.localIndex).BoundaryRegion(s.face, g)
		buf := make([]float64, slab.Len())
		slab.CopyTo(buf)
		if req, err = c.Isend(s.dest, s.key, buf); err != nil {
			return
		}
		reqs = append(reqs, req)
	}
	for i, r := range fl.recvs {
		size := nc
		for _, l := range r.lengths {
			size *= l
		}
		bufs[i] = make([]float64, size)
		if req, err = c.Irecv(r.src, r.key, bufs[i]); err != nil {
			return
		}
		reqs = append(reqs, req)
	}
	// a failed local fill still completes the posted receives, so no stale
	// message is left for the next fill
	drain := func(cause error) error {
		if werr := c.Waitall(reqs); werr != nil {
			return fmt.Errorf("%w (after %v)", werr, cause)
		}
		return cause
	}

	allFaces := domain.AllFaces(d.Dim())
	for i, p := range pinfo {
		pv := u.PatchView(i)
		for _, f := range allFaces {
			pv.GhostRegion(f).Fill(0)
		}
		if err = fl.strategy.FillGhostCellsForLocalPatch(p, pv); err != nil {
			return drain(fmt.Errorf("local fill of patch %d: %w", p.ID, err))
		}
		callbacksTotal.WithLabelValues("local").Inc()
	}
	for _, call := range fl.calls {
		u.PatchView(call.localIndex).GhostRegion(call.face).Fill(0)
	}

	if err = c.Waitall(reqs); err != nil {
		return
	}

	for _, call := range fl.calls {
		var nbrView field.PatchView
		if call.nbrLocal >= 0 {
			nbrView = u.PatchView(call.nbrLocal)
		} else {
			r := fl.recvs[call.recv]
			nbrView = field.NewRemotePatchView(bufs[call.recv], d.Ns(), nc, r.starts, r.lengths)
		}
		p := pinfo[call.localIndex]
		if err = fl.strategy.FillGhostCellsForNbrPatch(p, u.PatchView(call.localIndex), nbrView,
			call.face, call.nbrType, call.orthant); err != nil {
			return fmt.Errorf("fill of patch %d on %s from %s neighbor: %w",
				p.ID, call.face, call.nbrType, err)
		}
		callbacksTotal.WithLabelValues(strings.ToLower(call.nbrType.String())).Inc()
	}
	return
}
