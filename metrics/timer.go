// Package metrics records domain timings as prometheus histograms.
package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type timingKey struct {
	domainID int
	name     string
}

// Timing is the accumulated time of one named region of one domain
type Timing struct {
	DomainID int
	Name     string
	Count    int
	Total    time.Duration
}

/*
Timer implements domain.Timer. Each Start/Stop pair is observed in the
patchgrid_domain_timing_seconds histogram, labelled by domain id and name.
Pairs with the same domain and name may nest. A Timer is safe for use by
several ranks at once.
*/
type Timer struct {
	mu      sync.Mutex
	seconds *prometheus.HistogramVec
	open    map[timingKey][]time.Time
	totals  map[timingKey]*Timing
	now     func() time.Time
}

// NewTimer registers its histogram with reg, a nil reg leaves it unregistered
func NewTimer(reg prometheus.Registerer) *Timer {
	return &Timer{
		seconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "patchgrid_domain_timing_seconds",
			Help:    "Time spent in named regions per domain",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"domain", "name"}),
		open:   make(map[timingKey][]time.Time),
		totals: make(map[timingKey]*Timing),
		now:    time.Now,
	}
}

func (t *Timer) StartDomainTiming(domainID int, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := timingKey{domainID, name}
	t.open[k] = append(t.open[k], t.now())
}

// StopDomainTiming closes the latest open timing, it panics when none is open
func (t *Timer) StopDomainTiming(domainID int, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := timingKey{domainID, name}
	stack := t.open[k]
	if len(stack) == 0 {
		panic(fmt.Errorf("timing %q of domain %d stopped without a start", name, domainID))
	}
	elapsed := t.now().Sub(stack[len(stack)-1])
	if len(stack) == 1 {
		delete(t.open, k)
	} else {
		t.open[k] = stack[:len(stack)-1]
	}
	t.seconds.WithLabelValues(strconv.Itoa(domainID), name).Observe(elapsed.Seconds())
	tm := t.totals[k]
	if tm == nil {
		tm = &Timing{DomainID: domainID, Name: name}
		t.totals[k] = tm
	}
	tm.Count++
	tm.Total += elapsed
}

// Timings lists the completed timings by domain id, then name
func (t *Timer) Timings() (timings []Timing) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tm := range t.totals {
		timings = append(timings, *tm)
	}
	sort.Slice(timings, func(i, j int) bool {
		if timings[i].DomainID != timings[j].DomainID {
			return timings[i].DomainID < timings[j].DomainID
		}
		return timings[i].Name < timings[j].Name
	})
	return
}

func (t *Timer) Print() {
	for _, tm := range t.Timings() {
		fmt.Printf("domain %d %-12s %6d calls %12v\n", tm.DomainID, tm.Name, tm.Count, tm.Total)
	}
}
