package domain

import (
	"fmt"
	"strings"
)

type NbrType uint8

const (
	Normal NbrType = iota // same refinement level
	Coarse                // one level coarser
	Fine                  // one level finer
)

func (t NbrType) String() string {
	switch t {
	case Normal:
		return "NORMAL"
	case Coarse:
		return "COARSE"
	case Fine:
		return "FINE"
	}
	return fmt.Sprintf("NbrType(%d)", uint8(t))
}

func ParseNbrType(s string) (t NbrType, err error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NORMAL":
		t = Normal
	case "COARSE":
		t = Coarse
	case "FINE":
		t = Fine
	default:
		err = fmt.Errorf("unknown neighbor type %q", s)
	}
	return
}

// NbrInfo describes the neighbors across one facet. The set of
// implementations is closed: *NormalNbrInfo, *CoarseNbrInfo, *FineNbrInfo.
type NbrInfo interface {
	Type() NbrType
	NbrIDs() []int
	NbrRanks() []int
	NbrLocalIndexes() []int
	NbrGlobalIndexes() []int
	setLocalIndexes(idToLocal map[int]int, myRank int) error
	setGlobalIndexes(idToGlobal map[int]int) error
	clone() NbrInfo
}

func resolveLocal(id, rank int, idToLocal map[int]int, myRank int) (local int, err error) {
	if rank != myRank {
		return -1, nil
	}
	var ok bool
	if local, ok = idToLocal[id]; !ok {
		err = fmt.Errorf("neighbor patch %d is owned by rank %d but is not a local patch", id, rank)
	}
	return
}

func resolveGlobal(id int, idToGlobal map[int]int) (global int, err error) {
	var ok bool
	if global, ok = idToGlobal[id]; !ok {
		err = fmt.Errorf("no global index for neighbor patch %d", id)
	}
	return
}

type NormalNbrInfo struct {
	ID          int
	Rank        int
	LocalIndex  int
	GlobalIndex int
}

func NewNormalNbrInfo(id, rank int) *NormalNbrInfo {
	return &NormalNbrInfo{ID: id, Rank: rank, LocalIndex: -1, GlobalIndex: -1}
}

func (n *NormalNbrInfo) Type() NbrType           { return Normal }
func (n *NormalNbrInfo) NbrIDs() []int           { return []int{n.ID} }
func (n *NormalNbrInfo) NbrRanks() []int         { return []int{n.Rank} }
func (n *NormalNbrInfo) NbrLocalIndexes() []int  { return []int{n.LocalIndex} }
func (n *NormalNbrInfo) NbrGlobalIndexes() []int { return []int{n.GlobalIndex} }

func (n *NormalNbrInfo) setLocalIndexes(idToLocal map[int]int, myRank int) (err error) {
	n.LocalIndex, err = resolveLocal(n.ID, n.Rank, idToLocal, myRank)
	return
}

func (n *NormalNbrInfo) setGlobalIndexes(idToGlobal map[int]int) (err error) {
	n.GlobalIndex, err = resolveGlobal(n.ID, idToGlobal)
	return
}

func (n *NormalNbrInfo) clone() NbrInfo {
	c := *n
	return &c
}

type CoarseNbrInfo struct {
	ID          int
	Rank        int
	LocalIndex  int
	GlobalIndex int
	// OrthOnCoarse is the part of the coarse neighbor's facet this patch
	// covers, an orthant over the facet's free axes
	OrthOnCoarse Orthant
}

func NewCoarseNbrInfo(id, rank int, orthOnCoarse Orthant) *CoarseNbrInfo {
	return &CoarseNbrInfo{ID: id, Rank: rank, LocalIndex: -1, GlobalIndex: -1,
		OrthOnCoarse: orthOnCoarse}
}

func (n *CoarseNbrInfo) Type() NbrType           { return Coarse }
func (n *CoarseNbrInfo) NbrIDs() []int           { return []int{n.ID} }
func (n *CoarseNbrInfo) NbrRanks() []int         { return []int{n.Rank} }
func (n *CoarseNbrInfo) NbrLocalIndexes() []int  { return []int{n.LocalIndex} }
func (n *CoarseNbrInfo) NbrGlobalIndexes() []int { return []int{n.GlobalIndex} }

func (n *CoarseNbrInfo) setLocalIndexes(idToLocal map[int]int, myRank int) (err error) {
	n.LocalIndex, err = resolveLocal(n.ID, n.Rank, idToLocal, myRank)
	return
}

func (n *CoarseNbrInfo) setGlobalIndexes(idToGlobal map[int]int) (err error) {
	n.GlobalIndex, err = resolveGlobal(n.ID, idToGlobal)
	return
}

func (n *CoarseNbrInfo) clone() NbrInfo {
	c := *n
	return &c
}

// FineNbrInfo holds one entry per orthant of the facet, ordered by Orthant
type FineNbrInfo struct {
	IDs           []int
	Ranks         []int
	LocalIndexes  []int
	GlobalIndexes []int
}

func NewFineNbrInfo(ids, ranks []int) *FineNbrInfo {
	if len(ids) != len(ranks) {
		panic(fmt.Errorf("fine neighbor has %d ids and %d ranks", len(ids), len(ranks)))
	}
	n := &FineNbrInfo{
		IDs:           append([]int(nil), ids...),
		Ranks:         append([]int(nil), ranks...),
		LocalIndexes:  make([]int, len(ids)),
		GlobalIndexes: make([]int, len(ids)),
	}
	for i := range ids {
		n.LocalIndexes[i], n.GlobalIndexes[i] = -1, -1
	}
	return n
}

func (n *FineNbrInfo) Type() NbrType           { return Fine }
func (n *FineNbrInfo) NbrIDs() []int           { return n.IDs }
func (n *FineNbrInfo) NbrRanks() []int         { return n.Ranks }
func (n *FineNbrInfo) NbrLocalIndexes() []int  { return n.LocalIndexes }
func (n *FineNbrInfo) NbrGlobalIndexes() []int { return n.GlobalIndexes }

func (n *FineNbrInfo) setLocalIndexes(idToLocal map[int]int, myRank int) (err error) {
	for i, id := range n.IDs {
		if n.LocalIndexes[i], err = resolveLocal(id, n.Ranks[i], idToLocal, myRank); err != nil {
			return
		}
	}
	return
}

func (n *FineNbrInfo) setGlobalIndexes(idToGlobal map[int]int) (err error) {
	for i, id := range n.IDs {
		if n.GlobalIndexes[i], err = resolveGlobal(id, idToGlobal); err != nil {
			return
		}
	}
	return
}

func (n *FineNbrInfo) clone() NbrInfo {
	return &FineNbrInfo{
		IDs:           append([]int(nil), n.IDs...),
		Ranks:         append([]int(nil), n.Ranks...),
		LocalIndexes:  append([]int(nil), n.LocalIndexes...),
		GlobalIndexes: append([]int(nil), n.GlobalIndexes...),
	}
}
