// Package metrics holds the Prometheus collectors for statement analysis.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "statement"

// Outcome labels for the parses counter.
const (
	OutcomeSuccess   = "success"
	OutcomeEmpty     = "empty"
	OutcomeProtected = "protected"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)

// Metrics groups the analysis counters. A nil *Metrics records nothing.
type Metrics struct {
	Parses        *prometheus.CounterVec
	Transactions  *prometheus.CounterVec
	InferredDates prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parses_total",
			Help:      "Statement documents analyzed, by origin, winning strategy and outcome.",
		}, []string{"origin", "strategy", "outcome"}),
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Transactions extracted after post-processing, by origin.",
		}, []string{"origin"}),
		InferredDates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inferred_dates_total",
			Help:      "Transactions whose date could not be read and was set to the analysis day.",
		}),
	}

	for _, c := range []prometheus.Collector{m.Parses, m.Transactions, m.InferredDates} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// ObserveParse records a finished analysis.
func (m *Metrics) ObserveParse(origin, strategy, outcome string, transactions, inferred int) {
	if m == nil {
		return
	}
	if strategy == "" {
		strategy = "none"
	}
	m.Parses.WithLabelValues(origin, strategy, outcome).Inc()
	if transactions > 0 {
		m.Transactions.WithLabelValues(origin).Add(float64(transactions))
	}
	if inferred > 0 {
		m.InferredDates.Add(float64(inferred))
	}
}

// ObserveFailure records an analysis that produced no result.
func (m *Metrics) ObserveFailure(origin, outcome string) {
	m.ObserveParse(origin, "", outcome, 0, 0)
}
