package vaultsim

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	handshakes      prometheus.Counter
	requests        *prometheus.CounterVec
	decryptFailures prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		handshakes: f.NewCounter(prometheus.CounterOpts{
			Namespace: "vaultsim",
			Name:      "handshakes_total",
			Help:      "Pairing handshakes received.",
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vaultsim",
			Name:      "requests_total",
			Help:      "Encrypted requests received, by action.",
		}, []string{"action"}),
		decryptFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "vaultsim",
			Name:      "decrypt_failures_total",
			Help:      "Request envelopes that failed to decrypt.",
		}),
	}
}
