package viewsync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var broadcastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "niiview",
	Subsystem: "sync",
	Name:      "broadcasts_total",
	Help:      "Broadcasts that reached at least one peer, by kind (view or frame).",
}, []string{"kind"})
