package field

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/patchgrid/comm"
	"github.com/notargets/patchgrid/domain"
	"github.com/notargets/patchgrid/domain/domaintest"
)

func TestVector(t *testing.T) {
	w, err := comm.NewWorld(1)
	require.NoError(t, err)
	c := w.Comm(0)
	v := NewVectorForPatches(c, []int{3, 2}, 1, 2, 2)
	{ // Test shape
		assert.Equal(t, 2, v.NumLocalPatches())
		assert.Equal(t, 2, v.NumComponents())
		assert.Equal(t, 12, v.NumLocalCells())
		assert.Len(t, v.PatchData(1), 40)
		assert.Panics(t, func() { NewVectorForPatches(c, []int{3, 2}, 1, 0, 2) })
	}
	{ // Test Set leaves ghost cells alone
		v.Set(2)
		pv := v.PatchView(1)
		assert.Equal(t, 2.0, pv.Get(0, 0, 0))
		assert.Equal(t, 2.0, pv.Get(2, 1, 1))
		assert.Equal(t, 0.0, pv.Get(-1, 0, 0))
		assert.Equal(t, 0.0, pv.Get(3, 1, 1))
		assert.Equal(t, 2.0, v.ComponentView(1, 0).Get(1, 1))
	}
	{ // Test reductions
		x := NewVectorForPatches(c, []int{3, 2}, 1, 2, 2)
		x.Set(3)
		dot, err := v.Dot(x)
		require.NoError(t, err)
		assert.InDelta(t, 144.0, dot, 1e-12)
		norm, err := v.TwoNorm()
		require.NoError(t, err)
		assert.InDelta(t, math.Sqrt(96), norm, 1e-12)

		x.SetWithGhost(100)
		x.Set(1)
		x.PatchView(1).Set([]int{1, 1, 0}, -7)
		inf, err := x.InfNorm()
		require.NoError(t, err)
		assert.Equal(t, 7.0, inf)
	}
	{ // Test arithmetic on interior cells
		x := v.Clone()
		x.Scale(0.5)
		assert.Equal(t, 1.0, x.PatchView(0).Get(2, 0, 1))
		assert.Equal(t, 2.0, v.PatchView(0).Get(2, 0, 1))
		v.PatchView(0).Set([]int{-1, -1, 0}, 4)
		v.AXPY(2, x)
		assert.Equal(t, 4.0, v.PatchView(0).Get(2, 0, 1))
		assert.Equal(t, 4.0, v.PatchView(0).Get(-1, -1, 0))

		y := NewVectorForPatches(c, []int{3, 2}, 1, 2, 2)
		y.CopyFrom(v)
		assert.Equal(t, 4.0, y.PatchView(0).Get(-1, -1, 0))
		assert.True(t, y.SameShape(v))
		other := NewVectorForPatches(c, []int{3, 2}, 0, 2, 2)
		assert.False(t, other.SameShape(v))
		assert.Panics(t, func() { other.AXPY(1, v) })
	}
}

func TestVectorDistributed(t *testing.T) {
	w, err := comm.NewWorld(2)
	require.NoError(t, err)
	err = w.Run(context.Background(), func(c *comm.Communicator) error {
		d, err := domain.NewDomain(c, 0, []int{2, 2}, 1, domaintest.MixedLevel2D(c.Rank(), 2, 1))
		if err != nil {
			return err
		}
		v := NewVector(d, 1)
		if v.NumLocalPatches() != d.NumLocalPatches() {
			return fmt.Errorf("vector has %d patches", v.NumLocalPatches())
		}
		v.Set(float64(c.Rank() + 1))
		dot, err := v.Dot(v)
		if err != nil {
			return err
		}
		// rank 0 has 2 patches of value 1, rank 1 has 3 of value 2
		if want := 4.0*2 + 4.0*3*4; dot != want {
			return fmt.Errorf("dot %g, want %g", dot, want)
		}
		inf, err := v.InfNorm()
		if err != nil {
			return err
		}
		if inf != 2 {
			return fmt.Errorf("inf norm %g", inf)
		}
		return nil
	})
	assert.NoError(t, err)
}
