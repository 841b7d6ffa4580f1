package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerMetricsCountsRecomputes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetrics(reg)

	m.IncRecompute(RecomputeOrderTotals)
	m.IncRecompute(RecomputeOrderTotals)
	m.IncRecompute("")
	m.AddPruned(3)
	m.AddPruned(0)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "storefront_ledger_recomputations_total", "kind", RecomputeOrderTotals)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	got, err = fetchCounterValue(mfs, "storefront_ledger_recomputations_total", "kind", "unknown")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	pruned := findMetricFamily(mfs, "storefront_ledger_rate_history_pruned_entries_total")
	require.NotNil(t, pruned)
	assert.Equal(t, 3.0, pruned.GetMetric()[0].GetCounter().GetValue())
}

func TestLedgerMetricsNilSafe(t *testing.T) {
	var m *LedgerMetrics
	m.IncRecompute(RecomputeNetAmount)
	m.AddPruned(1)

	NewLedgerMetrics(nil).IncRecompute(RecomputeRateHistory)
}
