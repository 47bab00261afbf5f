package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reified",
		Name:      "tx_submissions_total",
		Help:      "Transactions submitted through the portal, by message and result.",
	}, []string{"msg", "result"})

	submissionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "reified",
		Name:      "tx_submission_duration_seconds",
		Help:      "Time from signing request until the transaction is included.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60},
	}, []string{"msg"})
)

// result labels
const (
	resultSuccess      = "success"
	resultRejected     = "rejected"
	resultTransport    = "transport_error"
	resultNotConnected = "not_connected"
)
