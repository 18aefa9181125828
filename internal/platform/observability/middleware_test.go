package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger_LevelsByStatus(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	router := chi.NewRouter()
	router.Use(InjectLogger(zap.New(core)), RequestLogger())
	router.Get("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/p1", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/missing", nil))

	entries := logs.FilterMessage("request completed").AllUntimed()
	require.Len(t, entries, 2)
	require.Equal(t, zap.InfoLevel, entries[0].Level)
	require.Equal(t, zap.WarnLevel, entries[1].Level)
	require.Equal(t, "/products/{id}", entries[0].ContextMap()["route"])
	require.EqualValues(t, 200, entries[0].ContextMap()["status"])
}

func TestRecovery_WritesJSON(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	handler := Recovery(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "internal_server_error")
	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestMetrics_CountsRequestsAndTextContent(t *testing.T) {
	m := NewMetrics()
	router := chi.NewRouter()
	router.Use(m.Middleware())
	router.Get("/", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	router.Handle("/metrics", m.Handler())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	m.RecordParseWarning()
	m.RecordFetchFallback("status")
	m.RecordUpload(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	require.True(t, strings.Contains(body, `kanouwood_http_requests_total{method="GET",route="/",status="204"} 1`), body)
	require.Contains(t, body, "kanouwood_textcontent_parse_warnings_total 1")
	require.Contains(t, body, `kanouwood_textcontent_fetch_fallbacks_total{reason="status"} 1`)
	require.Contains(t, body, `kanouwood_product_image_uploads_total{result="ok"} 1`)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordParseWarning()
	m.RecordFetchFallback("x")
	m.RecordUpload(nil)
	m.RecordCatalogEvent("create", nil)
	require.Nil(t, m.Registry())
}

func TestParseCloudTrace(t *testing.T) {
	sc, ok := parseCloudTrace("105445aa7843bc8bf206b12000100000/1;o=1")
	require.True(t, ok)
	require.Equal(t, "105445aa7843bc8bf206b12000100000", sc.TraceID().String())
	require.Equal(t, "0000000000000001", sc.SpanID().String())
	require.True(t, sc.IsSampled())

	_, ok = parseCloudTrace("garbage")
	require.False(t, ok)
}
