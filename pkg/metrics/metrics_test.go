package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg, "order_ingestor")

	c.BatchesTotal.WithLabelValues(StatusSuccess).Inc()
	c.FailuresTotal.WithLabelValues("storage").Add(2)

	expected := `
# HELP order_ingestor_ingest_batches_total Total SQS batches handled, by outcome.
# TYPE order_ingestor_ingest_batches_total counter
order_ingestor_ingest_batches_total{status="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "order_ingestor_ingest_batches_total"))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.FailuresTotal.WithLabelValues("storage")))
}

func TestNewCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg, "dup")
	assert.Panics(t, func() { NewCollector(reg, "dup") })
}

func TestHandler_ServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg, "svc")
	c.MessagesTotal.WithLabelValues(StatusError).Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `svc_ingest_messages_total{status="error"} 1`)
}
