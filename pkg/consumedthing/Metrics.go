package consumedthing

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics of consumed Thing interactions.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	interactions   *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	clientsCreated *prometheus.CounterVec
}

// observeInteraction records the result and duration of an interaction
func (m *Metrics) observeInteraction(thingID string, kind string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.interactions.WithLabelValues(thingID, kind, result).Inc()
	m.duration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (m *Metrics) clientCreated(scheme string) {
	if m == nil {
		return
	}
	m.clientsCreated.WithLabelValues(scheme).Inc()
}

// NewMetrics creates the consumer metrics and registers them with the registerer
//  registerer to register with, eg prometheus.DefaultRegisterer. nil to not register.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		interactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wost",
			Subsystem: "consumer",
			Name:      "interactions_total",
			Help:      "Total number of interactions by thing, kind and result",
		}, []string{"thing", "kind", "result"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wost",
			Subsystem: "consumer",
			Name:      "interaction_duration_seconds",
			Help:      "Duration of interactions including encoding and decoding",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),

		clientsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wost",
			Subsystem: "consumer",
			Name:      "clients_created_total",
			Help:      "Total number of protocol clients created by scheme",
		}, []string{"scheme"}),
	}
	if registerer != nil {
		// a second consumer in the same process shares the registered collectors
		var err error
		m.interactions, err = register(registerer, m.interactions)
		if err == nil {
			m.duration, err = register(registerer, m.duration)
		}
		if err == nil {
			m.clientsCreated, err = register(registerer, m.clientsCreated)
		}
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// register the collector, or return the collector already registered under its name
func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) (C, error) {
	err := registerer.Register(collector)
	if err == nil {
		return collector, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return collector, err
}
