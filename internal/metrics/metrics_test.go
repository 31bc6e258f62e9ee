package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	m := New()
	m.ObserveHTTPRequest(http.MethodGet, "/api/documents", http.StatusOK, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/documents", http.StatusOK, 10*time.Millisecond)
	m.ObserveUpload(2048)
	m.ObserveDownload()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestTotal.WithLabelValues(http.MethodGet, "/api/documents", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.downloads))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveDownload()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "unidocs_documents_downloaded_total 1")
}
