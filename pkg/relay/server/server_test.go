package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shadowmint/relay/pkg/relay/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.C{
		Bind:            "127.0.0.1:0",
		MinKeyLength:    8,
		MaxMessageBytes: 1 << 20,
		Secrets:         map[string]string{},
	}
	return New(cfg)
}

func TestHealthzReportsCounts(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body["sessions"])
	assert.NotContains(t, body, "clients")
}

func TestAnalyticsRoute(t *testing.T) {
	s := newTestServer(t)
	s.analytics.TrackEvent("master_total", 2)

	req := httptest.NewRequest(http.MethodGet, "/analytics?filter=master", nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body["master_total"])
}

func TestAnalyticsRouteInvalidFilter(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/analytics?filter=(", nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
