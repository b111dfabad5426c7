package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valentinabailoncano-code/conrumbo-go/internal/config"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/models"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/server"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Config{
		ProtocolsDir:      "../../protocols",
		EmbeddingProvider: "local",
		EmergencyNumber:   "112",
	}
	svc, err := service.New(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	ts := httptest.NewServer(server.New(svc, slog.New(slog.DiscardHandler), "test").Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status    string `json:"status"`
		Protocols int    `json:"protocols"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Greater(t, body.Protocols, 0)
}

func TestSearchEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/search", map[string]any{
		"query": "atragantamiento",
		"top_k": 2,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Results []models.SearchResult `json:"results"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.Results)
	assert.Equal(t, "pa_asfixia_adulto_v1", body.Results[0].ProtocolID)
}

func TestSearchEndpointBlocksEmergencyQuery(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/search", map[string]any{
		"query": "mi padre no respira",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Results []models.SearchResult `json:"results"`
		Safety  *models.SafetyVerdict `json:"safety"`
	}
	decodeBody(t, resp, &body)
	assert.Empty(t, body.Results)
	require.NotNil(t, body.Safety)
	assert.False(t, body.Safety.Allowed)
	assert.Equal(t, models.ViolationEmergencyImmediate, body.Safety.Violation)
}

func TestSearchEndpointRequiresQuery(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/search", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestTriageEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/triage", map[string]any{
		"intent":            "rcp",
		"edad":              "niño",
		"estado_conciencia": "inconsciente",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.TriageResult
	decodeBody(t, resp, &body)
	assert.Equal(t, models.RiskHigh, body.Risk)
	assert.Equal(t, "pa_rcp_nino_v1", body.ProtocolID)
	assert.True(t, body.EscalateToEmergency)
}

func TestNextStepEndpointAssignsSession(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/next_step", map[string]any{
		"protocol_id":  "pa_rcp_adulto_v1",
		"current_step": -1,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		SessionID string `json:"session_id"`
		Say       string `json:"say"`
		IsFinal   bool   `json:"is_final"`
	}
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body.SessionID)
	assert.NotEmpty(t, body.Say)
	assert.False(t, body.IsFinal)

	// The assigned session is queryable.
	statusResp, err := http.Get(ts.URL + "/api/v1/session/" + body.SessionID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, statusResp.StatusCode)

	var sess models.Session
	decodeBody(t, statusResp, &sess)
	assert.Equal(t, "pa_rcp_adulto_v1", sess.ProtocolID)
}

func TestNextStepEndpointOmittedStepStartsProtocol(t *testing.T) {
	ts := newTestServer(t)

	// A stateless client sending no current_step starts at the first step.
	resp := postJSON(t, ts.URL+"/api/v1/next_step", map[string]any{
		"protocol_id": "pa_rcp_adulto_v1",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Say string         `json:"say"`
		UI  map[string]any `json:"ui"`
	}
	decodeBody(t, resp, &body)
	assert.Contains(t, body.Say, "Comprueba si responde")
	assert.Equal(t, float64(0), body.UI["step_id"])
}

func TestSessionResetEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/next_step", map[string]any{
		"session_id":   "web-1",
		"protocol_id":  "pa_rcp_adulto_v1",
		"current_step": -1,
	})
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/v1/session/reset", map[string]any{"session_id": "web-1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	statusResp, err := http.Get(ts.URL + "/api/v1/session/web-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, statusResp.StatusCode)
	statusResp.Body.Close()
}

func TestProtocolEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/protocols")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Protocols  []models.ProtocolSummary `json:"protocols"`
		Disclaimer string                   `json:"disclaimer"`
	}
	decodeBody(t, resp, &listing)
	assert.NotEmpty(t, listing.Protocols)
	assert.Contains(t, listing.Disclaimer, "112")

	resp, err = http.Get(ts.URL + "/api/v1/protocols/pa_rcp_adulto_v1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var detail struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	decodeBody(t, resp, &detail)
	assert.Equal(t, "pa_rcp_adulto_v1", detail.ID)

	resp, err = http.Get(ts.URL + "/api/v1/protocols/pa_no_existe")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestReloadAndStatsEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/reload", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/v1/stats")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stats struct {
		UptimeSeconds float64 `json:"uptime_seconds"`
		Reload        *struct {
			Count int64 `json:"count"`
		} `json:"reload"`
	}
	decodeBody(t, resp, &stats)
	require.NotNil(t, stats.Reload)
	assert.Equal(t, int64(2), stats.Reload.Count)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/search")
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	resp.Body.Close()
}
