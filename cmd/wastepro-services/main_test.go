package main

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/mfshiu/wastepro/engine/agent"
	"github.com/mfshiu/wastepro/pkg/metrics"
)

func TestMetricsPortDefault(t *testing.T) {
	os.Unsetenv("WASTEPRO_METRICS_PORT")
	if got := metricsPort(); got != 9090 {
		t.Fatalf("expected default port 9090, got %d", got)
	}
}

func TestMetricsPortFromEnv(t *testing.T) {
	t.Setenv("WASTEPRO_METRICS_PORT", "9191")
	if got := metricsPort(); got != 9191 {
		t.Fatalf("expected 9191, got %d", got)
	}
}

func TestMetricsPortIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("WASTEPRO_METRICS_PORT", "not-a-port")
	if got := metricsPort(); got != 9090 {
		t.Fatalf("expected fallback to default on malformed value, got %d", got)
	}
}

func TestAdminServerHealthzReportsAgentStates(t *testing.T) {
	handles := []agentHandle{
		{agent: agent.New("FileService", nil, discardLogger())},
		{agent: agent.New("LlmService", nil, discardLogger())},
	}
	srv := newAdminServer(metrics.New(), handles, 0, discardLogger())

	req := httptest.NewRequest("GET", "/healthz", nil)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body struct {
		Status string            `json:"status"`
		Agents map[string]string `json:"agents"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != "ok" {
		t.Fatalf("unexpected status: %s", body.Status)
	}
	if len(body.Agents) != 2 {
		t.Fatalf("expected 2 agents reported, got %d", len(body.Agents))
	}
	if state, ok := body.Agents["FileService"]; !ok || state != "created" {
		t.Fatalf("unexpected FileService state: %q (present=%v)", state, ok)
	}
}

func TestAdminServerMetricsEndpointIsMounted(t *testing.T) {
	srv := newAdminServer(metrics.New(), nil, 0, discardLogger())

	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected /metrics to respond 200, got %d", rr.Code)
	}
}
