package comm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// messagesTotal counts posted messages by kind (p2p or collective)
	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "patchgrid_comm_messages_total",
		Help: "Total messages posted between ranks by kind",
	}, []string{"kind"})

	// valuesTotal counts payload values carried by posted messages
	valuesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "patchgrid_comm_values_total",
		Help: "Total payload values posted between ranks by kind",
	}, []string{"kind"})

	// waitDuration tracks time spent blocked in Waitall
	waitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "patchgrid_comm_wait_seconds",
		Help:    "Time spent completing a batch of requests",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})
)
