package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/storm-data-dashboard/internal/adapter/httpadapter"
	"github.com/couchcryptid/storm-data-dashboard/internal/observability"
	"github.com/couchcryptid/storm-data-dashboard/internal/vegalite"
	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	err  error
	docs map[string]vegalite.Document
}

func (m *mockStore) CheckReadiness(_ context.Context) error { return m.err }

func (m *mockStore) Document(name string) (vegalite.Document, bool) {
	d, ok := m.docs[name]
	return d, ok
}

func windroseDoc() vegalite.Document {
	// Large enough to cross the compression threshold.
	body := `{"$schema":"https://vega.github.io/schema/vega-lite/v5.json","description":"` +
		strings.Repeat("wind rose ", 200) + `"}`
	return vegalite.Document{
		Name:        "windrose",
		JSON:        []byte(body),
		Hash:        0xfeedface,
		GeneratedAt: time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC),
	}
}

func newTestServer(store *mockStore) (*httpadapter.Server, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", store, metrics, discard), metrics
}

func readyStore() *mockStore {
	return &mockStore{docs: map[string]vegalite.Document{"windrose": windroseDoc()}}
}

func get(srv http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(readyStore())
	rec := get(srv, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"ready", nil, http.StatusOK, "ready"},
		{"not built", errors.New("dashboard has not been built yet"), http.StatusServiceUnavailable, "not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(&mockStore{err: tt.err})
			rec := get(srv, "/readyz", nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body["status"])
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(readyStore())
	rec := get(srv, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSpec_ServesDocument(t *testing.T) {
	srv, metrics := newTestServer(readyStore())
	doc := windroseDoc()

	rec := get(srv, "/specs/windrose", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `"00000000feedface"`, rec.Header().Get("ETag"))
	assert.Equal(t, "Fri, 26 Apr 2024 15:10:00 GMT", rec.Header().Get("Last-Modified"))
	assert.Equal(t, doc.JSON, rec.Body.Bytes())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SpecRequests.WithLabelValues("windrose", "200")))
}

func TestSpec_Gzip(t *testing.T) {
	srv, _ := newTestServer(readyStore())

	rec := get(srv, "/specs/windrose", map[string]string{"Accept-Encoding": "gzip"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, windroseDoc().JSON, body)
}

func TestSpec_NotModified(t *testing.T) {
	srv, metrics := newTestServer(readyStore())

	rec := get(srv, "/specs/windrose", map[string]string{"If-None-Match": windroseDoc().ETag()})

	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SpecRequests.WithLabelValues("windrose", "304")))

	rec = get(srv, "/specs/windrose", map[string]string{"If-None-Match": `"stale"`})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSpec_Errors(t *testing.T) {
	tests := []struct {
		name       string
		store      *mockStore
		path       string
		wantStatus int
		wantLabel  string
	}{
		{"unknown view", readyStore(), "/specs/scatter", http.StatusNotFound, "unknown"},
		{"not built", &mockStore{err: errors.New("not yet")}, "/specs/windrose", http.StatusServiceUnavailable, "windrose"},
		{"view missing from build", readyStore(), "/specs/map", http.StatusServiceUnavailable, "map"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, metrics := newTestServer(tt.store)
			rec := get(srv, tt.path, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Empty(t, rec.Header().Get("ETag"))
			assert.Equal(t, 1.0, testutil.ToFloat64(
				metrics.SpecRequests.WithLabelValues(tt.wantLabel, strconv.Itoa(tt.wantStatus))))
		})
	}
}
