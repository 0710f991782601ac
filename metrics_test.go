package pubgen

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPipelineMetrics(t *testing.T) {
	cfg := testConfig(t)
	src := t.TempDir()
	p := newTestPipeline(t, cfg)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	p.SetMetrics(m)

	p.Run(context.Background(), []string{
		writeSource(t, src, "a.md", "# A\n\nBody."),
		writeSource(t, src, "blank.md", "\n\n"),
		writeSource(t, src, "b.md", "# B\n\nBody."),
	}, nil)

	if got := testutil.ToFloat64(m.Documents.WithLabelValues("published")); got != 2 {
		t.Errorf("published = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Documents.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.IndexRecords); got != 2 {
		t.Errorf("index records = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(m.PersistSeconds); n != 1 {
		t.Errorf("persist histogram series = %d, want 1", n)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.observeDocument(true)
	m.observeRequest("/", "200")
}

func TestServerMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t)
	get(t, s, "/api/stats")

	rec := get(t, s, "/metrics")
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `pubgen_preview_requests_total{route="/api/stats",status="200"} 1`) {
		t.Errorf("metrics missing request counter:\n%s", body)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Errorf("metrics missing Go collector")
	}
}
