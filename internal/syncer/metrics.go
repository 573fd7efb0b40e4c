package syncer

import "github.com/prometheus/client_golang/prometheus"

var (
	passCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "winrec",
		Subsystem: "sync",
		Name:      "passes_total",
		Help:      "Sync passes by outcome (ok, unreachable, push_aborted, auth_failed, error).",
	}, []string{"outcome"})

	passDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "winrec",
		Subsystem: "sync",
		Name:      "pass_duration_seconds",
		Help:      "Time spent probing, pushing and pulling in one pass.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	probeFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "winrec",
		Subsystem: "sync",
		Name:      "probe_failures_total",
		Help:      "Probes that exhausted their attempts without reaching the remote service.",
	})

	pushedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "winrec",
		Subsystem: "sync",
		Name:      "pushed_records_total",
		Help:      "Local records handled by the push synchronizer, labeled by result.",
	}, []string{"result"})

	pulledCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "winrec",
		Subsystem: "sync",
		Name:      "pulled_records_total",
		Help:      "Remote records seen by the pull synchronizer, labeled by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(passCounter, passDuration, probeFailures, pushedCounter, pulledCounter)
}
