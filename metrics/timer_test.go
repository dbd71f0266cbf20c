package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/patchgrid/domain"
)

// tick returns a clock that advances by step on every reading
func tick(step time.Duration) func() time.Time {
	t0 := time.Unix(0, 0)
	return func() time.Time {
		t0 = t0.Add(step)
		return t0
	}
}

func TestTimer(t *testing.T) {
	var _ domain.Timer = (*Timer)(nil)
	reg := prometheus.NewRegistry()
	tm := NewTimer(reg)
	tm.now = tick(time.Millisecond)
	{ // Test nested timings of the same name
		tm.StartDomainTiming(0, "FillGhost") // 1ms
		tm.StartDomainTiming(0, "FillGhost") // 2ms
		tm.StopDomainTiming(0, "FillGhost")  // 3ms
		tm.StopDomainTiming(0, "FillGhost")  // 4ms
		tm.StartDomainTiming(1, "Restrict")  // 5ms
		tm.StopDomainTiming(1, "Restrict")   // 6ms
		assert.Equal(t, []Timing{
			{DomainID: 0, Name: "FillGhost", Count: 2, Total: 4 * time.Millisecond},
			{DomainID: 1, Name: "Restrict", Count: 1, Total: time.Millisecond},
		}, tm.Timings())
		assert.Empty(t, tm.open)
	}
	{ // Test the histogram carries one series per domain and name
		assert.Equal(t, 2, testutil.CollectAndCount(tm.seconds))
		n, err := testutil.GatherAndCount(reg, "patchgrid_domain_timing_seconds")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}
	{ // Test an unmatched stop
		assert.Panics(t, func() { tm.StopDomainTiming(2, "FillGhost") })
	}
	{ // Test an unregistered timer
		assert.NotPanics(t, func() { NewTimer(nil); NewTimer(nil) })
	}
}
