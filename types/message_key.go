package types

import (
	"fmt"
	"math"
)

const (
	idBits    = 32
	facetBits = 8
	rankBits  = 24

	facetShift = idBits
	rankShift  = idBits + facetBits

	maxFacet = 1<<facetBits - 1
	maxRank  = 1<<rankBits - 1
)

// TransferFacet is the facet slot used by level transfer messages, it lies
// outside the range of real facet indexes.
const TransferFacet = maxFacet

/*
MessageKey packs the identity of one exchanged payload into a single number:
the patch id that owns the data, the facet of that patch the data was taken
from and the rank that asked for it. Two simultaneous exchanges between the
same pair of ranks always differ in at least one of the three.
*/
type MessageKey uint64

func NewMessageKey(id, facet, rank int) (key MessageKey) {
	if id < 0 || id > math.MaxUint32 {
		panic(fmt.Errorf("unable to pack patch id %d into a message key", id))
	}
	if facet < 0 || facet > maxFacet {
		panic(fmt.Errorf("unable to pack facet %d into a message key", facet))
	}
	if rank < 0 || rank > maxRank {
		panic(fmt.Errorf("unable to pack rank %d into a message key", rank))
	}
	key = MessageKey(uint64(id) | uint64(facet)<<facetShift | uint64(rank)<<rankShift)
	return
}

func (k MessageKey) GetParts() (id, facet, rank int) {
	id = int(k & math.MaxUint32)
	facet = int((k >> facetShift) & maxFacet)
	rank = int(k >> rankShift)
	return
}

func (k MessageKey) String() string {
	id, facet, rank := k.GetParts()
	if facet == TransferFacet {
		return fmt.Sprintf("patch %d transfer for rank %d", id, rank)
	}
	return fmt.Sprintf("patch %d facet %d for rank %d", id, facet, rank)
}
