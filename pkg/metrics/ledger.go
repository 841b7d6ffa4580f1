package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recompute kinds reported by LedgerMetrics.
const (
	RecomputeOrderTotals   = "order_totals"
	RecomputeLineItem      = "line_item_total"
	RecomputeNetAmount     = "transaction_net"
	RecomputeRateHistory   = "rate_history"
	RecomputeSingletonFlag = "singleton_flag"
)

// LedgerMetrics counts derived-field recomputations performed by the services.
type LedgerMetrics struct {
	recomputes *prometheus.CounterVec
	pruned     prometheus.Counter
}

// NewLedgerMetrics registers the ledger counters on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	recomputes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recomputations_total",
		Help:      "Derived field recomputations by kind.",
	}, []string{"kind"})
	pruned := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_history_pruned_entries_total",
		Help:      "Exchange rate history entries dropped by the retention window.",
	})
	reg.MustRegister(recomputes, pruned)
	return &LedgerMetrics{recomputes: recomputes, pruned: pruned}
}

// IncRecompute increments the recompute counter for kind.
func (m *LedgerMetrics) IncRecompute(kind string) {
	if m == nil || m.recomputes == nil {
		return
	}
	m.recomputes.WithLabelValues(normalizeLabel(kind)).Inc()
}

// AddPruned records n history entries removed by retention.
func (m *LedgerMetrics) AddPruned(n int) {
	if m == nil || m.pruned == nil || n <= 0 {
		return
	}
	m.pruned.Add(float64(n))
}
