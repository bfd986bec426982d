package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var namespaceCounter int

// uniqueNamespace avoids duplicate registration on the default registry
// across tests.
func uniqueNamespace() string {
	namespaceCounter++
	return fmt.Sprintf("agentpipe_test_%d", namespaceCounter)
}

func gatherValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			match := true
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					match = false
					break
				}
			}
			if match {
				if m.GetCounter() != nil {
					return m.GetCounter().GetValue()
				}
				if m.GetHistogram() != nil {
					return float64(m.GetHistogram().GetSampleCount())
				}
			}
		}
	}
	return 0
}

func TestCollector_RecordRun(t *testing.T) {
	ns := uniqueNamespace()
	c := NewCollector(ns, zap.NewNop())

	c.RecordRun("staged", "completed", 120*time.Millisecond)
	c.RecordRun("staged", "completed", 80*time.Millisecond)
	c.RecordRun("staged", "failed", 10*time.Millisecond)

	assert.Equal(t, 2.0, gatherValue(t, ns+"_runs_total",
		map[string]string{"schema": "staged", "status": "completed"}))
	assert.Equal(t, 1.0, gatherValue(t, ns+"_runs_total",
		map[string]string{"schema": "staged", "status": "failed"}))
	assert.Equal(t, 3.0, gatherValue(t, ns+"_run_duration_seconds",
		map[string]string{"schema": "staged"}))
}

func TestCollector_RecordNodeAndInvocation(t *testing.T) {
	ns := uniqueNamespace()
	c := NewCollector(ns, zap.NewNop())

	c.RecordNode("cluster", "completed", 50*time.Millisecond)
	c.RecordNode("cluster", "failed", 5*time.Millisecond)
	c.RecordInvocation("completed", 50*time.Millisecond)

	assert.Equal(t, 1.0, gatherValue(t, ns+"_node_executions_total",
		map[string]string{"kind": "cluster", "status": "completed"}))
	assert.Equal(t, 1.0, gatherValue(t, ns+"_node_executions_total",
		map[string]string{"kind": "cluster", "status": "failed"}))
	assert.Equal(t, 1.0, gatherValue(t, ns+"_invocations_total",
		map[string]string{"status": "completed"}))
}
