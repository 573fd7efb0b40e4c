package server

import "github.com/prometheus/client_golang/prometheus"

var (
	requestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "winrec",
		Subsystem: "server",
		Name:      "requests_total",
		Help:      "HTTP requests served, labeled by method, route and status code.",
	}, []string{"method", "route", "status"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "winrec",
		Subsystem: "server",
		Name:      "request_duration_seconds",
		Help:      "Latency of HTTP requests by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	storedRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "winrec",
		Subsystem: "server",
		Name:      "submitted_records_total",
		Help:      "Records submitted to POST /log, labeled created or duplicate.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(requestCounter, requestDuration, storedRecords)
}
