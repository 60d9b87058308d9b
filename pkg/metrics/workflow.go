package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics records purchase lifecycle activity.
type WorkflowMetrics struct {
	transitions   *prometheus.CounterVec
	decisions     *prometheus.CounterVec
	ticketsIssued *prometheus.CounterVec
}

// NewWorkflowMetrics registers the purchase workflow metrics on the provided registerer.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "purchase_transitions_total",
		Help: "Purchase status transitions.",
	}, []string{"from", "to"})
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_decisions_total",
		Help: "Payment verification decisions.",
	}, []string{"decision"})
	ticketsIssued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pickup_tickets_issued_total",
		Help: "Pickup tickets issued per queue type.",
	}, []string{"tipo_cola"})
	reg.MustRegister(transitions, decisions, ticketsIssued)
	return &WorkflowMetrics{
		transitions:   transitions,
		decisions:     decisions,
		ticketsIssued: ticketsIssued,
	}
}

// IncTransition increments the transition counter for the given edge.
func (w *WorkflowMetrics) IncTransition(from, to string) {
	if w == nil || w.transitions == nil {
		return
	}
	w.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncDecision increments the payment decision counter.
func (w *WorkflowMetrics) IncDecision(decision string) {
	if w == nil || w.decisions == nil {
		return
	}
	w.decisions.WithLabelValues(normalizeLabel(decision)).Inc()
}

// IncTicketIssued increments the issued ticket counter for the queue type.
func (w *WorkflowMetrics) IncTicketIssued(tipoCola string) {
	if w == nil || w.ticketsIssued == nil {
		return
	}
	w.ticketsIssued.WithLabelValues(normalizeLabel(tipoCola)).Inc()
}
