package services

import "github.com/prometheus/client_golang/prometheus"

// ArchiveOperations counts archive workflow calls by operation and outcome.
var ArchiveOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "prisonkeeper",
	Name:      "archive_operations_total",
	Help:      "Archive operations by operation and outcome.",
}, []string{"operation", "outcome"})

// RegisterMetrics registers the service collectors with reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	return reg.Register(ArchiveOperations)
}

func observe(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ArchiveOperations.WithLabelValues(operation, outcome).Inc()
}
