package models

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	shapeLabel = "shape"
)

var (
	worldBodyCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "world_body_count",
		Help: "The number of bodies in worlds.",
	}, []string{shapeLabel})

	worldNarrowPhaseTests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "world_narrow_phase_tests",
		Help: "The number of exact collision tests run by worlds.",
	})

	worldContacts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "world_contacts",
		Help: "The number of contacts found by worlds.",
	})
)

func instrumentIncreaseBodyGauge(shape string) {
	worldBodyCount.
		With(prometheus.Labels{shapeLabel: shape}).
		Inc()
}

func instrumentDecreaseBodyGauge(shape string) {
	worldBodyCount.
		With(prometheus.Labels{shapeLabel: shape}).
		Dec()
}

func instrumentNarrowPhase(tests, contacts int) {
	worldNarrowPhaseTests.Add(float64(tests))
	worldContacts.Add(float64(contacts))
}
