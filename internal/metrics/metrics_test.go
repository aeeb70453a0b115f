package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/metrics"
	"github.com/alejandrodnm/kalshibot/internal/ports"
)

var _ ports.Metrics = (*metrics.Recorder)(nil)

func TestRecorder_ObserveOutcome(t *testing.T) {
	r := metrics.New()

	r.ObserveOutcome(domain.OutcomeLogged)
	r.ObserveOutcome(domain.OutcomeLogged)
	r.ObserveOutcome(domain.OutcomeFailed)

	n, err := testutil.GatherAndCount(r.Registry(), "kalshibot_execution_outcomes_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "una serie por outcome observado")
}

func TestRecorder_ObservePass(t *testing.T) {
	r := metrics.New()

	r.ObservePass(domain.PassSummary{
		Duration:     3 * time.Second,
		Markets:      120,
		Matched:      12,
		ItemsScraped: 30,
		Estimates:    4,
		Errors:       []string{"a", "b"},
	})
	r.ObservePass(domain.PassSummary{Markets: 100, ItemsScraped: 5})

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := string(body)
	assert.Contains(t, out, "kalshibot_pipeline_passes_total 2")
	assert.Contains(t, out, "kalshibot_pipeline_open_markets 100")
	assert.Contains(t, out, "kalshibot_scrape_items_total 35")
	assert.Contains(t, out, "kalshibot_pipeline_collaborator_errors_total 2")
	assert.Contains(t, out, "kalshibot_estimator_estimates_total 4")
	assert.Contains(t, out, "kalshibot_pipeline_pass_duration_seconds_count 2")
}

func TestRecorder_TrackBreaker(t *testing.T) {
	r := metrics.New()
	state := "closed"
	r.TrackBreaker("estimator", func() string { return state })

	expected := func(v string) string {
		return `
# HELP kalshibot_breaker_state Circuit breaker state (0 closed, 1 half-open, 2 open)
# TYPE kalshibot_breaker_state gauge
kalshibot_breaker_state{breaker="estimator"} ` + v + "\n"
	}

	require.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected("0")), "kalshibot_breaker_state"))

	state = "open"
	require.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected("2")), "kalshibot_breaker_state"))
}
