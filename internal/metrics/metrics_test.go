package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()

	m.ObserveRequest(OutcomeOK, 3)
	m.ObserveRequest(OutcomeOK, 1)
	m.ObserveRequest(OutcomeStubConfig, 1)
	m.ObserveLLM("ok", 1500*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(OutcomeStubConfig)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.requests.WithLabelValues(OutcomeStubFailure)))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `snaptoflash_analyze_requests_total{outcome="ok"} 2`)
	assert.Contains(t, string(body), `snaptoflash_llm_request_duration_seconds_count{result="ok"} 1`)
	assert.Contains(t, string(body), `snaptoflash_notes_returned_count 3`)
}
