package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_BASE_URL", "")
	t.Setenv("OPENAI_MODEL", "")
	conf, err := Load(writeConfig(t, `{"api_key":"sk-test"}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if conf.Model != DefaultModel || conf.CSVPath != DefaultCSVPath || conf.Listen != DefaultListen {
		t.Errorf("defaults not applied: %+v", conf)
	}
	if ttl, _ := conf.TTL(); ttl != DefaultSessionTTL {
		t.Errorf("ttl = %v", ttl)
	}
	if level, _ := conf.Level(); level != slog.LevelInfo {
		t.Errorf("level = %v", level)
	}
	if !conf.HasModel() {
		t.Error("api key should enable the model")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("OPENAI_MODEL", "qwen")
	conf, err := Load(writeConfig(t, `{"api_key":"sk-file","model":"gpt-4o","session_ttl":"30m","log_level":"debug"}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if conf.APIKey != "sk-env" || conf.BaseURL != "http://localhost:11434/v1" || conf.Model != "qwen" {
		t.Errorf("env overrides not applied: %+v", conf)
	}
	if ttl, _ := conf.TTL(); ttl != 30*time.Minute {
		t.Errorf("ttl = %v", ttl)
	}
	if level, _ := conf.Level(); level != slog.LevelDebug {
		t.Errorf("level = %v", level)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"ttl":          `{"session_ttl":"soon"}`,
		"negative ttl": `{"session_ttl":"-1m"}`,
		"level":        `{"log_level":"loud"}`,
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
	if _, err := Load(writeConfig(t, `{`)); err == nil {
		t.Error("malformed json should fail")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file should fail")
	}
}
