package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	certificatesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenwipe_certificates_created_total",
		Help: "Total number of certificates created",
	})

	certificateCreationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenwipe_certificate_creation_failures_total",
		Help: "Total number of failed certificate creations",
	})

	// result: anchored, already_anchored, not_found, failed
	anchoringTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenwipe_anchoring_total",
			Help: "Total number of anchoring attempts by result",
		},
		[]string{"result"},
	)

	anchoringDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "greenwipe_anchoring_duration_seconds",
		Help:    "Duration of anchoring calls including the simulated ledger delay",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 7.5, 10, 30},
	})

	anchorQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "greenwipe_anchor_queue_depth",
		Help: "Number of certificates waiting for background anchoring",
	})

	anchorQueueRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenwipe_anchor_queue_rejected_total",
		Help: "Total number of anchoring jobs rejected because the queue was full or stopped",
	})

	// result: ok, upstream_error, invalid
	suggestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenwipe_suggestions_total",
			Help: "Total number of wipe suggestions by result",
		},
		[]string{"result"},
	)

	// path: assisted, direct
	assistedCreationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greenwipe_assisted_creations_total",
			Help: "Total number of creations through the assisted path by route taken",
		},
		[]string{"path"},
	)
)
