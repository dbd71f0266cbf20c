package gmg

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var transfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "patchgrid_gmg_patch_transfers_total",
	Help: "Total number of patches sent between levels",
}, []string{"direction"})
