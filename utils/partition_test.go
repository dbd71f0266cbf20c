package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartition(t *testing.T) {
	{ // Test balanced runs
		histo := func(n, ranks int) (h map[int]int) {
			pt := NewPartition(ranks, n)
			h = make(map[int]int)
			for r := 0; r < pt.NumRanks(); r++ {
				h[pt.Count(r)]++
			}
			return
		}
		assert.Equal(t, map[int]int{0: 30, 1: 2}, histo(2, 32))
		assert.Equal(t, map[int]int{1: 32}, histo(32, 32))
		assert.Equal(t, map[int]int{8: 1, 9: 31}, histo(287, 32))
		for n := 64; n < 600; n++ {
			pt := NewPartition(32, n)
			assert.Equal(t, n, pt.Len())
			assert.LessOrEqual(t, pt.Count(0)-pt.Count(31), 1)
		}
	}
	{ // Test every index round trips through its owner
		for n := 0; n < 60; n++ {
			pt := NewPartition(5, n)
			for k := 0; k < n; k++ {
				r, local := pt.Owner(k)
				assert.True(t, k >= pt.Start(r) && local < pt.Count(r))
				assert.Equal(t, k, pt.GlobalIndex(r, local))
			}
		}
	}
	{ // Test uneven counts with empty ranks
		pt := NewPartitionFromCounts([]int{2, 0, 0, 3, 1})
		assert.Equal(t, 6, pt.Len())
		var owners []int
		for k := 0; k < pt.Len(); k++ {
			r, _ := pt.Owner(k)
			owners = append(owners, r)
		}
		assert.Equal(t, []int{0, 0, 3, 3, 3, 4}, owners)
		r, local := pt.Owner(4)
		assert.Equal(t, [2]int{3, 2}, [2]int{r, local})
		r, _ = pt.Owner(6)
		assert.Equal(t, -1, r)
		r, _ = pt.Owner(-1)
		assert.Equal(t, -1, r)
		assert.Panics(t, func() { pt.GlobalIndex(1, 0) })
		assert.Panics(t, func() { NewPartition(0, 3) })
	}
}
