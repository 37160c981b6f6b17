package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "niiview",
		Subsystem: "engine",
		Name:      "messages_total",
		Help:      "Inbound messages, by kind and outcome (ok, ignored, invalid).",
	}, []string{"kind", "outcome"})

	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "niiview",
		Subsystem: "engine",
		Name:      "loads_total",
		Help:      "Finished layer loads, by layer (image, overlay, mesh_layer) and outcome (ok, error, superseded, orphaned).",
	}, []string{"layer", "outcome"})

	loadDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "niiview",
		Subsystem: "engine",
		Name:      "load_duration_seconds",
		Help:      "Time from attaching a payload to its decoded layer, including fetching.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"layer"})

	viewportsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "niiview",
		Subsystem: "engine",
		Name:      "viewports",
		Help:      "Current number of viewports.",
	})

	panicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "niiview",
		Subsystem: "engine",
		Name:      "handler_panics_total",
		Help:      "Event handlers that panicked and were recovered.",
	})

	layerDisplayTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "niiview",
		Subsystem: "engine",
		Name:      "layer_display_changes_total",
		Help:      "Layer display changes applied to at least one viewport.",
	})
)
