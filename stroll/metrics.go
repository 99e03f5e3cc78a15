package stroll

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeIssued   = "issued"
	outcomeRejected = "rejected"
	outcomeError    = "error"
	outcomeAccepted = "accepted"
)

type metrics struct {
	registrations *prometheus.CounterVec
	verifications *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stroll",
				Subsystem: "server",
				Name:      "registrations_total",
				Help:      "Number of processed registrations by outcome.",
			},
			[]string{"outcome"},
		),
		verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stroll",
				Subsystem: "server",
				Name:      "request_signatures_total",
				Help:      "Number of checked request signatures by outcome.",
			},
			[]string{"outcome"},
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.registrations, m.verifications} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
