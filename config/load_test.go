package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

const sampleYAML = `
env: dev
dataset:
  path: data/orders.csv
participant:
  name: bot
  initialFunds:
    BTC: 10
    ETH: 100
    USDT: 1000
policy:
  type: trend
  askThreshold: 0.99
  enableCancel: false
forecast:
  window: 10
risk:
  singleMax: 5
`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Participant.Name != "bot" || cfg.Participant.InitialFunds["ETH"] != 100 {
		t.Fatalf("unexpected participant: %+v", cfg.Participant)
	}
	// 未出现的字段保留默认值
	if cfg.Policy.OrderFraction != 0.10 || cfg.Forecast.Horizon != 5 || cfg.Participant.Valuation != "USDT" {
		t.Fatalf("defaults not kept: %+v %+v", cfg.Policy, cfg.Forecast)
	}
	if cfg.Forecast.Window != 10 || cfg.Policy.AskThreshold != 0.99 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestRunnerConfig(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rc := cfg.RunnerConfig()
	if rc.Participant != "bot" || rc.Forecast.Window != 10 || rc.Limits.SingleMax != 5 {
		t.Fatalf("unexpected runner config: %+v", rc)
	}
	if !rc.Policy.EnableBids || !rc.Policy.EnableAsks || rc.Policy.EnableCancel {
		t.Fatalf("enable flags wrong: %+v", rc.Policy)
	}
	if rc.Lookahead != 1 {
		t.Fatalf("lookahead = %d", rc.Lookahead)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)
	t.Setenv("MR_DATASET_PATH", "/tmp/other.csv")
	t.Setenv("MR_JOURNAL_PATH", "/tmp/journal")
	t.Setenv("MR_METRICS_ADDR", ":9101")
	cfg, err := LoadWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dataset.Path != "/tmp/other.csv" || cfg.Journal.Path != "/tmp/journal" || cfg.Metrics.Addr != ":9101" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestOverridesAppliedBeforeValidation(t *testing.T) {
	path := writeTempConfig(t, sampleYAML+"stream:\n  enabled: true\n")
	t.Setenv("MR_METRICS_ADDR", "")

	if _, err := LoadWithEnvOverrides(path); err == nil {
		t.Fatalf("stream without metrics.addr should be rejected")
	}

	setAddr := func(cfg *AppConfig) { cfg.Metrics.Addr = "127.0.0.1:0" }
	cfg, err := LoadWithEnvOverrides(path, nil, setAddr)
	if err != nil {
		t.Fatalf("override should satisfy validation: %v", err)
	}
	if cfg.Metrics.Addr != "127.0.0.1:0" || !cfg.Stream.Enabled {
		t.Fatalf("override not applied: %+v", cfg.Metrics)
	}

	t.Setenv("MR_METRICS_ADDR", ":9101")
	if _, err := LoadWithEnvOverrides(path); err != nil {
		t.Fatalf("env addr should satisfy validation: %v", err)
	}

	// 覆盖后的非法值同样会被拒绝
	clearName := func(cfg *AppConfig) { cfg.Participant.Name = "" }
	if _, err := LoadWithEnvOverrides(path, clearName); err == nil {
		t.Fatalf("invalid overridden config accepted")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
	if _, err := Load(writeTempConfig(t, "env: [")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	cases := []struct {
		name string
		mod  func(*AppConfig)
	}{
		{"empty env", func(c *AppConfig) { c.Env = "" }},
		{"no participant", func(c *AppConfig) { c.Participant.Name = "" }},
		{"reserved participant", func(c *AppConfig) { c.Participant.Name = "dataset" }},
		{"negative funds", func(c *AppConfig) { c.Participant.InitialFunds = map[string]float64{"BTC": -1} }},
		{"unknown policy", func(c *AppConfig) { c.Policy.Type = "grid" }},
		{"fraction", func(c *AppConfig) { c.Policy.OrderFraction = 1.5 }},
		{"threshold", func(c *AppConfig) { c.Policy.AskThreshold = 0 }},
		{"window", func(c *AppConfig) { c.Forecast.Window = 1 }},
		{"horizon", func(c *AppConfig) { c.Forecast.Horizon = -1 }},
		{"risk", func(c *AppConfig) { c.Risk.NetMax = -1 }},
		{"stream without addr", func(c *AppConfig) { c.Stream.Enabled = true }},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mod(&cfg)
		err := Validate(cfg)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if _, ok := err.(ErrInvalid); !ok {
			t.Fatalf("%s: expected ErrInvalid, got %T", tc.name, err)
		}
	}
}
