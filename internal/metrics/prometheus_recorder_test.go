package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveRunDuration(500 * time.Millisecond)
	pr.IncRunOutcome(RunFlagged)
	pr.IncPartOutcome(PartUpdates)
	pr.IncPartOutcome(PartUpdates)
	pr.SetPendingUpdates("gnome-calculator", 3)
	pr.ObserveForgeRequest("github", 20*time.Millisecond, 200)
	pr.ObserveForgeRequest("github", 20*time.Millisecond, 0)
	pr.IncForgeRetry("gitlab")

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 6)

	assert.InDelta(t, 2, value(t, mfs, "updatesnap_part_outcomes_total"), 0)
	assert.InDelta(t, 3, value(t, mfs, "updatesnap_pending_updates"), 0)
	assert.InDelta(t, 1, value(t, mfs, "updatesnap_forge_retries_total"), 0)
}

// value returns the first sample of the named counter or gauge family.
func value(t *testing.T, mfs []*dto.MetricFamily, name string) float64 {
	t.Helper()
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		m := mf.GetMetric()[0]
		if c := m.GetCounter(); c != nil {
			return c.GetValue()
		}
		return m.GetGauge().GetValue()
	}
	t.Fatalf("metric family %s not found", name)
	return 0
}

func TestNilRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveRunDuration(time.Second)
		pr.IncRunOutcome(RunClean)
		pr.IncPartOutcome(PartSkipped)
		pr.SetPendingUpdates("x", 1)
		pr.ObserveForgeRequest("github", time.Second, 500)
		pr.IncForgeRetry("github")
	})

	var r Recorder = NoopRecorder{}
	assert.NotPanics(t, func() { r.IncRunOutcome(RunFailed) })
}

func TestHTTPHandlerAndTextfile(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncRunOutcome(RunClean)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "updatesnap_run_outcomes_total")

	path := filepath.Join(t.TempDir(), "updatesnap.prom")
	require.NoError(t, WriteTextfile(reg, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `updatesnap_run_outcomes_total{outcome="clean"} 1`))
}
