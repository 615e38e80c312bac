// Package metrics exposes workflow counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "condopapers"

// Recorder counts workflow transitions and gate declines. A nil Recorder is
// a no-op.
type Recorder struct {
	transitions  *prometheus.CounterVec
	gateDeclines *prometheus.CounterVec
}

// New registers the counters on reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Workflow state transitions by entity and target status.",
		}, []string{"entity", "to"}),
		gateDeclines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_declines_total",
			Help:      "Approvals or completions refused because required items were missing.",
		}, []string{"entity"}),
	}
	for _, c := range []prometheus.Collector{r.transitions, r.gateDeclines} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) Transition(entity, to string) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(entity, to).Inc()
}

func (r *Recorder) GateDeclined(entity string) {
	if r == nil {
		return
	}
	r.gateDeclines.WithLabelValues(entity).Inc()
}
