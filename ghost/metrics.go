package ghost

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fillsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "patchgrid_ghost_fills_total",
		Help: "Total number of ghost fills",
	})
	callbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "patchgrid_ghost_callbacks_total",
		Help: "Total number of fill strategy callbacks",
	}, []string{"kind"})
)
