// Package utils holds small index helpers shared by the mesh builders and
// the domain numbering.
package utils

import (
	"fmt"
	"sort"
)

// Partition assigns the indexes [0, Len) to ranks in contiguous runs, rank r
// owning [Start(r), Start(r+1)).
type Partition struct {
	starts []int // len(starts) == NumRanks()+1
}

// NewPartition deals n indexes over numRanks ranks, the run lengths differ by
// at most one and the longer runs go to the lower ranks.
func NewPartition(numRanks, n int) *Partition {
	if numRanks < 1 || n < 0 {
		panic(fmt.Errorf("can not split %d indexes over %d ranks", n, numRanks))
	}
	counts := make([]int, numRanks)
	for r := range counts {
		counts[r] = n / numRanks
		if r < n%numRanks {
			counts[r]++
		}
	}
	return NewPartitionFromCounts(counts)
}

// NewPartitionFromCounts numbers counts[r] indexes on rank r, rank-major
func NewPartitionFromCounts(counts []int) (pt *Partition) {
	pt = &Partition{starts: make([]int, len(counts)+1)}
	for r, n := range counts {
		if n < 0 {
			panic(fmt.Errorf("negative count %d on rank %d", n, r))
		}
		pt.starts[r+1] = pt.starts[r] + n
	}
	return
}

func (pt *Partition) NumRanks() int { return len(pt.starts) - 1 }

func (pt *Partition) Len() int { return pt.starts[len(pt.starts)-1] }

func (pt *Partition) Start(rank int) int { return pt.starts[rank] }

func (pt *Partition) Count(rank int) int { return pt.starts[rank+1] - pt.starts[rank] }

// Owner is the rank holding index k and k's position on that rank. rank is
// -1 for k outside [0, Len).
func (pt *Partition) Owner(k int) (rank, local int) {
	if k < 0 || k >= pt.Len() {
		return -1, -1
	}
	// the last start not above k, empty ranks share their start with the next
	rank = sort.SearchInts(pt.starts, k+1) - 1
	local = k - pt.starts[rank]
	return
}

func (pt *Partition) GlobalIndex(rank, local int) int {
	if local < 0 || local >= pt.Count(rank) {
		panic(fmt.Errorf("index %d out of range on rank %d holding %d", local, rank, pt.Count(rank)))
	}
	return pt.starts[rank] + local
}
