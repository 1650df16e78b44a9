package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "wastepro.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadParsesAllTables(t *testing.T) {
	body := `
[system]
version = "1.0.0"

[broker]
broker_name = "nats1"

[broker.brokers.nats1]
host = "localhost"
port = 4222

[logging]
name = "wastepro"
level = "INFO"

[service.file]
home_directory = "/data/files"

[service.kg]
hostname = "kg.local"
datapath = "/data/kg"

[service.llm]
name = "chatgpt"

[service.llm.providers.chatgpt]
openai_api_key = "sk-test"
model = "gpt-4o"
`
	path := writeTempConfig(t, body)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.System.Version != "1.0.0" {
		t.Fatalf("unexpected system.version: %q", cfg.System.Version)
	}
	target, err := cfg.Broker.Active()
	if err != nil {
		t.Fatalf("unexpected error resolving broker: %v", err)
	}
	if target.Host != "localhost" || target.Port != 4222 {
		t.Fatalf("unexpected broker target: %+v", target)
	}
	provider, err := cfg.Service.LLM.Active()
	if err != nil {
		t.Fatalf("unexpected error resolving llm provider: %v", err)
	}
	if provider.Model != "gpt-4o" {
		t.Fatalf("unexpected provider model: %q", provider.Model)
	}
	if !cfg.Service.SCQ.EvaluatorLoop {
		t.Fatal("expected evaluator_loop to default to true")
	}
}

func TestLoadUnknownBrokerNameErrors(t *testing.T) {
	path := writeTempConfig(t, `
[broker]
broker_name = "missing"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cfg.Broker.Active(); err == nil {
		t.Fatal("expected an error resolving an unknown broker_name")
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
