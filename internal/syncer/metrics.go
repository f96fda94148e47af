package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	remoteFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notevault",
			Name:      "remote_failures_total",
			Help:      "Remote document operations that failed and were queued for replay.",
		},
		[]string{"op"},
	)

	replayTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notevault",
			Name:      "replay_total",
			Help:      "Reconciliation replay attempts by operation and result.",
		},
		[]string{"op", "result"},
	)
)
