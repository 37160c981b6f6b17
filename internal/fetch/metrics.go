package fetch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "niiview",
		Subsystem: "fetch",
		Name:      "requests_total",
		Help:      "Payload fetches, by source (http or file) and status.",
	}, []string{"source", "status"})

	fetchDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "niiview",
		Subsystem: "fetch",
		Name:      "duration_seconds",
		Help:      "Payload fetch duration in seconds, including retries.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})
)

func observe(source string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	fetchTotal.WithLabelValues(source, status).Inc()
	fetchDurationSeconds.WithLabelValues(source).Observe(time.Since(start).Seconds())
}
